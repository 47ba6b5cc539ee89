package memory

import (
	"bioledger/internal/repository"
)

var (
	_ repository.TemplateRepository = (*TemplateRepository)(nil)
	_ repository.AccountRepository  = (*AccountRepository)(nil)
	_ repository.LedgerRepository   = (*LedgerRepository)(nil)
)
