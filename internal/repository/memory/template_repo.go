package memory

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*domain.BiometricTemplate
}

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{
		templates: make(map[string]*domain.BiometricTemplate),
	}
}

func (r *TemplateRepository) Enroll(ctx context.Context, tpl *domain.BiometricTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := &domain.BiometricTemplate{
		AccountID:  tpl.AccountID,
		Vector:     append([]byte(nil), tpl.Vector...),
		EnrolledAt: time.Now(),
	}
	r.templates[tpl.AccountID] = stored

	return nil
}

func (r *TemplateRepository) Lookup(ctx context.Context, accountID string) (*domain.BiometricTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, exists := r.templates[accountID]
	if !exists {
		return nil, fmt.Errorf("%w: template for account %s", repository.ErrNotFound, accountID)
	}
	return tpl, nil
}

func (r *TemplateRepository) All(ctx context.Context) ([]*domain.BiometricTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.BiometricTemplate, 0, len(r.templates))
	for _, tpl := range r.templates {
		result = append(result, tpl)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountID < result[j].AccountID
	})

	return result, nil
}
