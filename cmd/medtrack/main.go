package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	adapthttp "medtrack/internal/adapter/http"
	"medtrack/internal/adapter/openai"
	"medtrack/internal/adapter/postgres"
	"medtrack/internal/app"
	"medtrack/internal/config"
	"medtrack/internal/jobs"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if cfg.DatabaseURL == "" {
		sugar.Fatal("DATABASE_URL is required")
	}
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("db open", "error", err)
	}
	defer func() { _ = db.Close() }()

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	medicineRepo := postgres.NewMedicineRepo(db)

	reminderSvc := app.NewReminderService(db, medicineRepo)
	adherenceSvc := app.NewAdherenceService(db, db)
	calendarSvc := app.NewCalendarService(db, db)
	authSvc := app.NewAuthService(userRepo, sessionRepo)

	var adviceSvc *app.AdviceService
	if cfg.OpenAIAPIKey != "" {
		gen := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		adviceSvc = app.NewAdviceService(db, db, gen)
	}

	oidcConfig, err := buildOIDC(cfg)
	if err != nil {
		sugar.Fatalw("oidc setup", "error", err)
	}

	if cfg.SweepSpec != "" {
		runner := jobs.New(db, sessionRepo, &jobs.LogNotifier{Log: sugar}, sugar)
		if err := runner.Start(cfg.SweepSpec); err != nil {
			sugar.Fatalw("jobs start", "error", err)
		}
		defer runner.Stop()
	}

	h := adapthttp.New(reminderSvc, adherenceSvc, calendarSvc, adviceSvc, authSvc, oidcConfig, sugar).Handler()
	sugar.Infow("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("serve", "error", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildOIDC(cfg *config.Config) (adapthttp.OIDCConfig, error) {
	if cfg.OIDCIssuer == "" {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(context.Background(), cfg.OIDCIssuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}
