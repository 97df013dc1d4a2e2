package repo

import (
	"context"
	"fmt"

	"QuestionnaireBot/config"
)

// Open connects the backend selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFirestore:
		fc, err := NewFirestoreConnector(ctx, cfg.ServiceAccountKeyPath, cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case config.DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
