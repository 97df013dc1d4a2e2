package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"QuestionnaireBot/config"
	"QuestionnaireBot/repo"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the question catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create or replace questions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store repo.Store) error {
				return seedFromFile(cmd.Context(), store, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the catalog in questionnaire order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store repo.Store) error {
				catalog, err := store.ListQuestions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, q := range catalog {
					fmt.Fprintf(out, "%d. [%s] %s (%s)\n", i+1, q.AnswerType, q.Text, q.ID)
					if len(q.Options) > 0 {
						fmt.Fprintf(out, "   options: %s\n", strings.Join(q.Options, ", "))
					}
				}
				return nil
			})
		},
	})
	return cmd
}

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect stored answers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <identity>",
		Short: "Print an identity's answers and conversation state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store repo.Store) error {
				ctx := cmd.Context()
				ledger, err := store.FindLedger(ctx, args[0])
				if err != nil {
					return err
				}
				catalog, err := store.ListQuestions(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "identity: %s\n", ledger.Identity)
				if ledger.DisplayName != "" {
					fmt.Fprintf(out, "name:     %s\n", ledger.DisplayName)
				}
				fmt.Fprintf(out, "state:    %s (%d/%d confirmed)\n", ledger.State(len(catalog)), ledger.ConfirmedCount(), len(catalog))
				for _, r := range ledger.Responses {
					text := r.QuestionID
					if q, ok := catalog.Lookup(r.QuestionID); ok {
						text = q.Text
					}
					mark := "confirmed"
					if !r.Confirmed {
						mark = "pending"
					}
					fmt.Fprintf(out, "- %s: %s [%s]\n", text, r.Answer, mark)
				}
				return nil
			})
		},
	})
	return cmd
}

func withStore(ctx context.Context, fn func(repo.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return fmt.Errorf("STORE_DRIVER=memory does not persist between commands")
	}
	store, err := repo.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
