package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"QuestionnaireBot/handler"
	"QuestionnaireBot/model"
	"QuestionnaireBot/repo"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var catalogFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the WhatsApp webhook and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), catalogFile)
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML question file to seed before serving")
	return cmd
}

func runServe(ctx context.Context, catalogFile string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := repo.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Error connecting to store")
	}
	defer store.Close()

	catalog := repo.NewCachedCatalog(store, cfg.CatalogCacheTTL)
	if catalogFile != "" {
		if err := seedFromFile(ctx, catalog, catalogFile); err != nil {
			return err
		}
	}

	router := repo.ChannelRouter{
		model.ChannelWhatsApp: repo.NewWhatsAppSender(cfg.WhatsApp.APIURL, cfg.WhatsApp.AccessToken),
	}
	mailer := repo.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.User, cfg.Mail.Password)
	notifier := handler.NewSummaryNotifier(mailer, cfg.Mail.Recipients)
	engine := handler.NewEngine(catalog, store, router, notifier, handler.WithDispatchTimeout(cfg.DispatchTimeout))
	defer engine.Close()

	var tg *bot.Bot
	if cfg.TelegramBotToken != "" {
		tgHandler := handler.NewTelegramBotHandler(engine)
		tg, err = bot.New(cfg.TelegramBotToken, bot.WithDefaultHandler(tgHandler.Handler))
		if err != nil {
			return fmt.Errorf("error creating telegram bot: %w", err)
		}
		router[model.ChannelTelegram] = repo.NewTelegramSender(tg)
	}

	webhook := handler.NewWebhookHandler(engine, cfg.WhatsApp.VerifyToken, cfg.WhatsApp.AppSecret)
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           h2c.NewHandler(webhook.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if tg != nil {
		g.Go(func() error {
			log.Info().Msg("Telegram bot started")
			tg.Start(gctx)
			return nil
		})
	}

	err = g.Wait()
	log.Info().Msg("Server stopped")
	return err
}

func seedFromFile(ctx context.Context, store repo.CatalogStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening catalog file: %w", err)
	}
	defer f.Close()

	questions, err := repo.ReadCatalogFile(f)
	if err != nil {
		return err
	}
	if err := repo.SeedCatalog(ctx, store, questions); err != nil {
		return err
	}
	log.Info().Int("questions", len(questions)).Str("file", path).Msg("catalog seeded")
	return nil
}
