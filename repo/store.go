package repo

import (
	"context"

	"QuestionnaireBot/model"
)

// CatalogStore reads and writes questions. ListQuestions returns them sorted by order.
type CatalogStore interface {
	ListQuestions(ctx context.Context) (model.Catalog, error)
	SaveQuestion(ctx context.Context, q model.Question) error
}

// UpdateFunc receives the stored ledger (nil when none exists) and returns the
// ledger to save, or nil to leave storage untouched. It may run more than once.
type UpdateFunc func(current *model.Ledger) (*model.Ledger, error)

// LedgerStore persists one ledger per identity
type LedgerStore interface {
	FindLedger(ctx context.Context, identity string) (*model.Ledger, error)
	CreateLedger(ctx context.Context, ledger *model.Ledger) error
	SaveLedger(ctx context.Context, ledger *model.Ledger) error
	// UpdateLedger runs fn and saves its result atomically for identity
	UpdateLedger(ctx context.Context, identity string, fn UpdateFunc) error
}

// Store is a backend serving both collections
type Store interface {
	CatalogStore
	LedgerStore
	Close() error
}
