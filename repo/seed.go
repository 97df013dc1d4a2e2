package repo

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"QuestionnaireBot/model"
)

type catalogFile struct {
	Questions []model.Question `yaml:"questions"`
}

// ReadCatalogFile decodes and validates a YAML question list
func ReadCatalogFile(r io.Reader) ([]model.Question, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("error decoding catalog file: %w", err)
	}
	if len(file.Questions) == 0 {
		return nil, model.ErrCatalogEmpty
	}
	if err := model.ValidateCatalog(file.Questions); err != nil {
		return nil, err
	}
	return file.Questions, nil
}

// SeedCatalog writes every question to store
func SeedCatalog(ctx context.Context, store CatalogStore, questions []model.Question) error {
	for _, q := range questions {
		if err := store.SaveQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
