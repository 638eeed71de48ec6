package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/decision"
	"hiremate-backend/internal/evaluation"
	"hiremate-backend/internal/interviews"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/llm"
	"hiremate-backend/internal/llm/gemini"
	"hiremate-backend/internal/llm/openai"
	"hiremate-backend/internal/notify"
	"hiremate-backend/internal/reconcile"
	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/shared/config"
	"hiremate-backend/internal/shared/server"
	"hiremate-backend/internal/shared/server/middleware"
	"hiremate-backend/internal/shared/storage/db"
	"hiremate-backend/internal/shared/telemetry"
	"hiremate-backend/internal/users"
)

// App holds shared dependencies for the API and reconciler processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Engine decision.Engine

	UsersService        *users.Service
	JobsService         *jobs.Service
	ApplicationsService *applications.Service
	InterviewsService   *interviews.Service
	Notifier            *notify.Dispatcher

	closers []io.Closer
}

// Options tune Build for the process being started.
type Options struct {
	DBOptions db.Options
	// Migrate applies embedded migrations after connecting.
	Migrate bool
	// SkipRouter leaves Router nil; the reconciler does not serve HTTP.
	SkipRouter bool
}

// Build prepares shared dependencies and, unless skipped, the HTTP router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if opts.DBOptions == (db.Options{}) {
		opts.DBOptions = db.DefaultServerOptions()
	}

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Engine: Engine(cfg),
	}
	if err := buildServices(ctx, app); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	if !opts.SkipRouter {
		deps := server.RouterDeps{
			Config:             cfg,
			UserHandler:        users.NewHandler(app.UsersService),
			JobHandler:         jobs.NewHandler(app.JobsService),
			ApplicationHandler: applications.NewHandler(app.ApplicationsService),
			InterviewHandler:   interviews.NewHandler(app.InterviewsService),
			RateLimiter:        middleware.NewRateLimiter(nil),
		}
		if sqlDB != nil {
			deps.Health = func(ctx context.Context) error {
				return db.Ping(ctx, sqlDB, opts.DBOptions.PingTimeout)
			}
		}
		app.Router = server.NewRouter(deps)
	}

	return app, nil
}

// Pipeline exposes the services to an in-process reconciliation loop.
func (a *App) Pipeline() reconcile.Pipeline {
	return reconcile.NewLocal(a.JobsService, a.ApplicationsService, a.InterviewsService)
}

// Close drains pending notifications and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Notifier != nil {
		if err := a.Notifier.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts.DBOptions))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if opts.Migrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

// Engine applies configured weights and threshold over the defaults.
func Engine(cfg config.Config) decision.Engine {
	engine := decision.Default()
	if cfg.CVWeight > 0 || cfg.InterviewWeight > 0 {
		engine.CVWeight = cfg.CVWeight
		engine.InterviewWeight = cfg.InterviewWeight
	}
	if cfg.FinalScoreThreshold > 0 {
		engine.Threshold = cfg.FinalScoreThreshold
	}
	return engine
}

func buildServices(ctx context.Context, app *App) error {
	var (
		userRepo      users.Repo
		jobRepo       jobs.Repo
		appRepo       applications.Repo
		interviewRepo interviews.Repo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		appRepo = &applications.PGRepo{DB: app.DB}
		interviewRepo = &interviews.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		jobRepo = jobs.NewMemoryRepo()
		appRepo = applications.NewMemoryRepo()
		interviewRepo = interviews.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo)
	jobSvc := jobs.NewService(jobRepo)

	dispatcher, err := buildNotifier(ctx, app, userSvc)
	if err != nil {
		return err
	}

	appSvc := &applications.Service{
		Repo:      appRepo,
		Jobs:      jobSvc,
		Extractor: resume.TextExtractor{},
		Engine:    app.Engine,
		Notifier:  dispatcher,
	}

	ai, err := buildInterviewAI(ctx, app.Config)
	if err != nil {
		return err
	}
	questions := evaluation.QuestionGenerator{Timeout: app.Config.LLMTimeout}
	scorer := evaluation.Scorer{Timeout: app.Config.LLMTimeout}
	if ai != nil {
		questions.AI = ai
		scorer.AI = ai
	}
	interviewSvc := &interviews.Service{
		Repo:          interviewRepo,
		Apps:          appSvc,
		Jobs:          jobSvc,
		Questions:     questions,
		Scorer:        scorer,
		Engine:        app.Engine,
		QuestionCount: app.Config.InterviewQuestionCount,
	}

	app.UsersService = userSvc
	app.JobsService = jobSvc
	app.ApplicationsService = appSvc
	app.InterviewsService = interviewSvc
	app.Notifier = dispatcher
	return nil
}

// buildInterviewAI returns nil when no provider is configured, leaving the
// heuristic scorer and the question bank in charge.
func buildInterviewAI(ctx context.Context, cfg config.Config) (*llm.InterviewAI, error) {
	var client llm.Client
	switch cfg.LLMProvider {
	case "openai":
		c, err := openai.NewPromptClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		client = c
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, nil
	}
	telemetry.Info("bootstrap.llm", map[string]any{"provider": cfg.LLMProvider, "model": cfg.LLMModel})
	return &llm.InterviewAI{Client: client}, nil
}

func buildNotifier(ctx context.Context, app *App, contacts notify.Contacts) (*notify.Dispatcher, error) {
	cfg := app.Config
	d := &notify.Dispatcher{
		Contacts:    contacts,
		FrontendURL: cfg.FrontendURL,
		Timeout:     cfg.NotifyTimeout,
		Mailer:      notify.LogMailer{},
	}
	if cfg.SMTPHost != "" {
		port, err := strconv.Atoi(cfg.SMTPPort)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", cfg.SMTPPort, err)
		}
		d.Mailer = notify.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: port,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.EmailFrom,
		}
	}

	var sinks notify.MultiSink
	routes := notify.ResolveRoutes(cfg.WebhookURL, cfg.ApplicationWebhookURL, cfg.InterviewWebhookURL, cfg.StatusWebhookURL)
	if !routes.Empty() {
		sinks = append(sinks, notify.NewHTTPSink(routes))
	}
	if cfg.NotifySQSQueueURL != "" {
		s, err := notify.NewSQSSink(ctx, cfg.NotifySQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.AMQPURL != "" {
		s, err := notify.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
		app.closers = append(app.closers, s)
	}
	if len(sinks) > 0 {
		d.Sink = sinks
		telemetry.Info("bootstrap.notify", map[string]any{"sinks": sinks.Name()})
	}
	return d, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
