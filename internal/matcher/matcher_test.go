package matcher

import (
	"bioledger/internal/domain"
	"bioledger/internal/repository/memory"
	"bytes"
	"context"
	"testing"
)

func enroll(t *testing.T, repo *memory.TemplateRepository, accountID string, vector []byte) {
	t.Helper()
	tpl := &domain.BiometricTemplate{AccountID: accountID, Vector: vector}
	if err := repo.Enroll(context.Background(), tpl); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
}

// flipBits returns a copy of v with the first n bits inverted.
func flipBits(v []byte, n int) []byte {
	out := append([]byte(nil), v...)
	for i := 0; i < n; i++ {
		out[i/8] ^= 1 << (i % 8)
	}
	return out
}

func TestMatcher_ExactTemplateMatchesItsAccount(t *testing.T) {
	repo := memory.NewTemplateRepository()
	a := bytes.Repeat([]byte{0xAA}, domain.TemplateSize)
	b := bytes.Repeat([]byte{0x55}, domain.TemplateSize)
	enroll(t, repo, "A", a)
	enroll(t, repo, "B", b)

	m := New(repo, HammingSimilarity, 0.85, 0.02, nil)
	result, err := m.Match(context.Background(), a)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != Matched || result.AccountID != "A" {
		t.Fatalf("expected match for A, got %+v", result)
	}
	if result.Score != 1 {
		t.Errorf("expected perfect score, got %f", result.Score)
	}
}

func TestMatcher_MatchStableAcrossRuns(t *testing.T) {
	repo := memory.NewTemplateRepository()
	a := bytes.Repeat([]byte{0xF0}, domain.TemplateSize)
	enroll(t, repo, "A", a)
	enroll(t, repo, "B", flipBits(a, 200))

	m := New(repo, HammingSimilarity, 0.85, 0.02, nil)
	noisy := flipBits(a, 10)

	for i := 0; i < 20; i++ {
		result, err := m.Match(context.Background(), noisy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Outcome != Matched || result.AccountID != "A" {
			t.Fatalf("run %d: expected stable match for A, got %+v", i, result)
		}
	}
}

func TestMatcher_BelowThresholdIsNoMatch(t *testing.T) {
	repo := memory.NewTemplateRepository()
	enroll(t, repo, "A", bytes.Repeat([]byte{0xFF}, domain.TemplateSize))

	m := New(repo, HammingSimilarity, 0.85, 0.02, nil)
	result, err := m.Match(context.Background(), bytes.Repeat([]byte{0x00}, domain.TemplateSize))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != NoMatch {
		t.Fatalf("expected NoMatch, got %+v", result)
	}
}

func TestMatcher_EquidistantCandidatesAreAmbiguousEveryRun(t *testing.T) {
	repo := memory.NewTemplateRepository()
	base := bytes.Repeat([]byte{0x00}, domain.TemplateSize)
	// Both enrolled templates differ from the probe by the same 4 bits, so
	// their scores tie exactly.
	enroll(t, repo, "A", flipBits(base, 4))
	tplB := append([]byte(nil), base...)
	tplB[domain.TemplateSize-1] ^= 0x0F
	enroll(t, repo, "B", tplB)

	m := New(repo, HammingSimilarity, 0.85, 0.02, nil)

	for i := 0; i < 20; i++ {
		result, err := m.Match(context.Background(), base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Outcome != Ambiguous {
			t.Fatalf("run %d: expected Ambiguous, got %+v", i, result)
		}
		if result.AccountID != "" {
			t.Fatalf("ambiguous result must not leak an account ID, got %q", result.AccountID)
		}
	}
}

func TestMatcher_ClearWinnerAboveMarginMatches(t *testing.T) {
	repo := memory.NewTemplateRepository()
	base := bytes.Repeat([]byte{0x00}, domain.TemplateSize)
	enroll(t, repo, "A", flipBits(base, 2))
	enroll(t, repo, "B", flipBits(base, 40))

	m := New(repo, HammingSimilarity, 0.85, 0.02, nil)
	result, err := m.Match(context.Background(), base)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != Matched || result.AccountID != "A" {
		t.Fatalf("expected clear match for A, got %+v", result)
	}
}

func TestMatcher_EmptyStoreIsNoMatch(t *testing.T) {
	m := New(memory.NewTemplateRepository(), HammingSimilarity, 0.85, 0.02, nil)

	result, err := m.Match(context.Background(), bytes.Repeat([]byte{0x01}, domain.TemplateSize))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != NoMatch {
		t.Fatalf("expected NoMatch on empty store, got %+v", result)
	}
}

func TestHammingSimilarity(t *testing.T) {
	a := []byte{0xFF, 0x00}
	if got := HammingSimilarity(a, a); got != 1 {
		t.Errorf("identical vectors: expected 1, got %f", got)
	}
	if got := HammingSimilarity([]byte{0xFF}, []byte{0x00}); got != 0 {
		t.Errorf("inverted vectors: expected 0, got %f", got)
	}
	if got := HammingSimilarity([]byte{0xFF}, []byte{0xFF, 0x00}); got != 0 {
		t.Errorf("length mismatch: expected 0, got %f", got)
	}
	if got := HammingSimilarity([]byte{0x0F, 0x00}, []byte{0x00, 0x00}); got != 0.75 {
		t.Errorf("4 of 16 bits differ: expected 0.75, got %f", got)
	}
}

func TestEuclideanSimilarity(t *testing.T) {
	a := []byte{10, 20, 30}
	if got := EuclideanSimilarity(a, a); got != 1 {
		t.Errorf("identical vectors: expected 1, got %f", got)
	}
	worstA := []byte{0, 0}
	worstB := []byte{255, 255}
	if got := EuclideanSimilarity(worstA, worstB); got != 0 {
		t.Errorf("opposite corners: expected 0, got %f", got)
	}
	if got := EuclideanSimilarity([]byte{1}, []byte{1, 2}); got != 0 {
		t.Errorf("length mismatch: expected 0, got %f", got)
	}
}
