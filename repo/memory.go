package repo

import (
	"context"
	"fmt"
	"sync"

	"QuestionnaireBot/model"
)

// MemoryStore keeps everything in process. Used by tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu        sync.Mutex
	questions map[string]model.Question
	ledgers   map[string]*model.Ledger
}

func NewMemoryStore(questions ...model.Question) *MemoryStore {
	s := &MemoryStore{
		questions: make(map[string]model.Question),
		ledgers:   make(map[string]*model.Ledger),
	}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	return s
}

func (s *MemoryStore) ListQuestions(ctx context.Context) (model.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]model.Question, 0, len(s.questions))
	for _, q := range s.questions {
		questions = append(questions, q)
	}
	return model.SortCatalog(questions), nil
}

func (s *MemoryStore) SaveQuestion(ctx context.Context, q model.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return nil
}

func (s *MemoryStore) FindLedger(ctx context.Context, identity string) (*model.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[identity]
	if !ok {
		return nil, model.ErrLedgerNotFound
	}
	return l.Clone(), nil
}

func (s *MemoryStore) CreateLedger(ctx context.Context, ledger *model.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[ledger.Identity]; ok {
		return fmt.Errorf("error creating ledger %s: %w", ledger.Identity, model.ErrLedgerExists)
	}
	s.ledgers[ledger.Identity] = ledger.Clone()
	return nil
}

func (s *MemoryStore) SaveLedger(ctx context.Context, ledger *model.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[ledger.Identity] = ledger.Clone()
	return nil
}

func (s *MemoryStore) UpdateLedger(ctx context.Context, identity string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.ledgers[identity].Clone())
	if err != nil {
		return err
	}
	if next != nil {
		s.ledgers[identity] = next.Clone()
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
