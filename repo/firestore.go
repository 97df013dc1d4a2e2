package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"QuestionnaireBot/model"
)

const (
	questionsCollection = "questions"
	ledgersCollection   = "ledgers"
)

// FirestoreConnector stores the catalog and ledgers in Cloud Firestore
type FirestoreConnector struct {
	app    *firebase.App
	client *firestore.Client
}

// NewFirestoreConnector creates a new Firestore connector. An empty key path
// falls back to application default credentials.
func NewFirestoreConnector(ctx context.Context, serviceAccountKeyPath string, projectID string) (*FirestoreConnector, error) {
	var opts []option.ClientOption
	if serviceAccountKeyPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountKeyPath))
	}

	config := &firebase.Config{
		ProjectID: projectID,
	}
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	return &FirestoreConnector{
		app:    app,
		client: client,
	}, nil
}

// ListQuestions reads the catalog sorted by order
func (fc *FirestoreConnector) ListQuestions(ctx context.Context) (model.Catalog, error) {
	iter := fc.client.Collection(questionsCollection).OrderBy("order", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var questions []model.Question
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing questions: %w", err)
		}
		var q model.Question
		if err := doc.DataTo(&q); err != nil {
			return nil, fmt.Errorf("error decoding question %s: %w", doc.Ref.ID, err)
		}
		q.ID = doc.Ref.ID
		questions = append(questions, q)
	}
	return model.SortCatalog(questions), nil
}

// SaveQuestion creates or replaces a question document
func (fc *FirestoreConnector) SaveQuestion(ctx context.Context, q model.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if _, err := fc.client.Collection(questionsCollection).Doc(q.ID).Set(ctx, q); err != nil {
		return fmt.Errorf("error saving question %s: %w", q.ID, err)
	}
	return nil
}

// FindLedger reads the ledger for identity
func (fc *FirestoreConnector) FindLedger(ctx context.Context, identity string) (*model.Ledger, error) {
	snap, err := fc.ledgerRef(identity).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, model.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading ledger %s: %w", identity, err)
	}
	return decodeLedger(snap)
}

// CreateLedger fails with ErrLedgerExists when the identity already has one
func (fc *FirestoreConnector) CreateLedger(ctx context.Context, ledger *model.Ledger) error {
	_, err := fc.ledgerRef(ledger.Identity).Create(ctx, ledger)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("error creating ledger %s: %w", ledger.Identity, model.ErrLedgerExists)
	}
	if err != nil {
		return fmt.Errorf("error creating ledger %s: %w", ledger.Identity, err)
	}
	return nil
}

// SaveLedger writes the full ledger document
func (fc *FirestoreConnector) SaveLedger(ctx context.Context, ledger *model.Ledger) error {
	if _, err := fc.ledgerRef(ledger.Identity).Set(ctx, ledger); err != nil {
		return fmt.Errorf("error saving ledger %s: %w", ledger.Identity, err)
	}
	return nil
}

// UpdateLedger runs fn inside a Firestore transaction. Firestore retries fn on contention.
func (fc *FirestoreConnector) UpdateLedger(ctx context.Context, identity string, fn UpdateFunc) error {
	ref := fc.ledgerRef(identity)
	err := fc.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current *model.Ledger
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			current, err = decodeLedger(snap)
			if err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		return tx.Set(ref, next)
	})
	if err != nil {
		return fmt.Errorf("error updating ledger %s: %w", identity, err)
	}
	return nil
}

// Close closes the Firestore client
func (fc *FirestoreConnector) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreConnector) ledgerRef(identity string) *firestore.DocumentRef {
	return fc.client.Collection(ledgersCollection).Doc(identity)
}

func decodeLedger(snap *firestore.DocumentSnapshot) (*model.Ledger, error) {
	var ledger model.Ledger
	if err := snap.DataTo(&ledger); err != nil {
		return nil, fmt.Errorf("error decoding ledger %s: %w", snap.Ref.ID, err)
	}
	if ledger.Identity == "" {
		ledger.Identity = snap.Ref.ID
	}
	return &ledger, nil
}
