package application

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/config"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/monitoring"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/templates"
	httpserver "github.com/odontoflow/odontoflow/gateway/internal/interfaces/http"
	"github.com/odontoflow/odontoflow/gateway/internal/interfaces/telegram"
	"github.com/odontoflow/odontoflow/gateway/internal/interfaces/websocket"
	"github.com/odontoflow/odontoflow/gateway/pkg/safego"
)

const serviceName = "odontoflow-gateway"

// App wires the gateway together: repositories, domain services,
// infrastructure, use cases and the channel interfaces.
type App struct {
	config  *config.Config
	logger  *zap.Logger
	version string
	db      *gorm.DB

	// repositories
	patientRepo     repository.PatientRepository
	interactionRepo repository.InteractionRepository
	appointmentRepo repository.AppointmentRepository

	// infrastructure
	templates *templates.Store
	bus       *eventbus.InMemoryBus
	monitor   *monitoring.Monitor

	// domain services
	classifier service.IntentClassifier
	composer   service.ReplyComposer
	agenda     *service.Agenda

	// application services
	triageUseCase *usecase.TriageUseCase
	agendaUseCase *usecase.AgendaUseCase

	// interfaces
	httpServer       *httpserver.Server
	telegramAdapter  *telegram.Adapter
	telegramContacts *telegram.ContactStore
	wsHub            *websocket.Hub
}

// NewApp builds the full gateway (dependency injection container).
func NewApp(cfg *config.Config, logger *zap.Logger, version string) (*App, error) {
	// Bootstrap: ensure ~/.odontoflow/ exists with default files on first run
	if err := config.Bootstrap(logger); err != nil {
		logger.Warn("Bootstrap failed (non-fatal)", zap.Error(err))
	}

	app := &App{
		config:  cfg,
		logger:  logger,
		version: version,
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := app.initDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to init domain services: %w", err)
	}

	app.initApplicationServices()

	if err := app.initInterfaces(); err != nil {
		return nil, fmt.Errorf("failed to init interfaces: %w", err)
	}

	return app, nil
}

// NewAppCLI builds a lightweight app for one-shot CLI commands.
// Only the database, templates and the use cases come up; no HTTP
// server, no Telegram, no websocket hub, no event bus, silent SQL.
func NewAppCLI(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := config.Bootstrap(logger); err != nil {
		logger.Warn("Bootstrap failed (non-fatal)", zap.Error(err))
	}

	app := &App{
		config: cfg,
		logger: logger,
	}

	db, err := persistence.NewDBConnectionSilent(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db
	app.patientRepo = persistence.NewGormPatientRepository(db)
	app.interactionRepo = persistence.NewGormInteractionRepository(db)
	app.appointmentRepo = persistence.NewGormAppointmentRepository(db)

	// Templates without the watcher; a CLI invocation is over before a
	// reload could matter.
	store, err := templates.NewStore(cfg.Templates.Path, false, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load reply templates: %w", err)
	}
	app.templates = store

	if err := app.initDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to init domain services: %w", err)
	}

	// Nil bus: one-shot commands have no observers.
	app.initApplicationServices()

	return app, nil
}

func (app *App) initRepositories() error {
	app.logger.Info("Initializing repositories")

	db, err := persistence.NewDBConnection(&app.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db

	app.patientRepo = persistence.NewGormPatientRepository(db)
	app.interactionRepo = persistence.NewGormInteractionRepository(db)
	app.appointmentRepo = persistence.NewGormAppointmentRepository(db)

	return nil
}

func (app *App) initInfrastructure() error {
	app.logger.Info("Initializing infrastructure")

	store, err := templates.NewStore(app.config.Templates.Path, app.config.Templates.HotReload, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load reply templates: %w", err)
	}
	app.templates = store

	app.bus = eventbus.NewInMemoryBus(app.logger, 256)
	app.monitor = monitoring.NewMonitor(app.logger)

	// Counters follow the event stream, not the request path.
	monitoring.NewMetricsHook(app.monitor).Register(app.bus)

	return nil
}

func (app *App) initDomainServices() error {
	app.logger.Info("Initializing domain services")

	app.classifier = service.NewKeywordClassifier()
	app.composer = service.NewTemplateReplyComposer(app.templates)

	loc, err := app.config.Clinic.Location()
	if err != nil {
		return err
	}
	app.agenda = service.NewAgenda(app.appointmentRepo, app.patientRepo, service.ClinicHours{
		Location:    loc,
		OpenHour:    app.config.Clinic.OpenHour,
		CloseHour:   app.config.Clinic.CloseHour,
		SlotMinutes: app.config.Clinic.SlotMinutes,
	})

	return nil
}

func (app *App) initApplicationServices() {
	app.logger.Info("Initializing application services")

	app.triageUseCase = usecase.NewTriageUseCase(
		app.patientRepo,
		app.interactionRepo,
		app.classifier,
		app.composer,
		app.busOrNil(),
		app.logger,
	)

	app.agendaUseCase = usecase.NewAgendaUseCase(app.agenda, app.busOrNil(), app.logger)
}

// busOrNil avoids handing a typed-nil *InMemoryBus to the use cases,
// whose nil checks are against the Bus interface.
func (app *App) busOrNil() eventbus.Bus {
	if app.bus == nil {
		return nil
	}
	return app.bus
}

func (app *App) initInterfaces() error {
	app.logger.Info("Initializing interfaces")

	// Live attendant feed
	app.wsHub = websocket.NewHub(app.monitor, app.logger)
	app.wsHub.RegisterBus(app.bus)

	// HTTP server
	app.httpServer = httpserver.NewServer(
		httpserver.Config{
			Host:    app.config.Gateway.Host,
			Port:    app.config.Gateway.Port,
			Mode:    app.config.Gateway.Mode,
			Service: serviceName,
			Version: app.version,
		},
		httpserver.Deps{
			Triage:       app.triageUseCase,
			Patients:     app.patientRepo,
			Interactions: app.interactionRepo,
			Agenda:       app.agendaUseCase,
			Monitor:      app.monitor,
			Metrics:      app.monitor.PrometheusHandler(),
			WS:           http.HandlerFunc(app.wsHub.ServeWS),
		},
		app.logger,
	)

	// Telegram channel
	if app.config.Telegram.BotToken != "" {
		contacts, err := telegram.NewContactStore(filepath.Join(config.HomeDir(), "telegram.db"))
		if err != nil {
			app.logger.Warn("Telegram contact store unavailable, continuing without it", zap.Error(err))
		} else {
			app.telegramContacts = contacts
		}

		adapter, err := telegram.NewAdapter(
			&telegram.Config{
				BotToken:   app.config.Telegram.BotToken,
				AllowIDs:   app.config.Telegram.AllowIDs,
				DMPolicy:   app.config.Telegram.DMPolicy,
				ClinicName: app.config.Clinic.Name,
			},
			app.triageUseCase,
			app.telegramContacts,
			app.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create telegram adapter: %w", err)
		}
		app.telegramAdapter = adapter
	} else {
		app.logger.Warn("Telegram bot token not configured, skipping telegram channel")
	}

	return nil
}

// Start brings the channels up. It returns once everything is running;
// the servers and loops keep going until Stop.
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("Starting application")

	if err := app.templates.StartWatching(ctx); err != nil {
		app.logger.Warn("Template hot-reload unavailable", zap.Error(err))
	}

	safego.Go(app.logger, "websocket-hub", func() {
		app.wsHub.Run(ctx)
	})

	if err := app.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if app.telegramAdapter != nil {
		if err := app.telegramAdapter.Start(ctx); err != nil {
			return fmt.Errorf("failed to start telegram channel: %w", err)
		}
	}

	app.logger.Info("Application started successfully")
	return nil
}

// Stop shuts the channels down in reverse order and closes storage.
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("Stopping application")

	if app.telegramAdapter != nil {
		app.telegramAdapter.Stop()
	}

	if app.httpServer != nil {
		if err := app.httpServer.Stop(ctx); err != nil {
			app.logger.Error("Failed to stop HTTP server", zap.Error(err))
		}
	}

	// Intake is closed; drain what observers still have in flight.
	if app.bus != nil {
		app.bus.Close()
	}

	if app.templates != nil {
		if err := app.templates.Close(); err != nil {
			app.logger.Error("Failed to close template store", zap.Error(err))
		}
	}

	if app.telegramContacts != nil {
		if err := app.telegramContacts.Close(); err != nil {
			app.logger.Error("Failed to close telegram contact store", zap.Error(err))
		}
	}

	if app.db != nil {
		sqlDB, err := app.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				app.logger.Error("Failed to close database connection", zap.Error(err))
			}
		}
	}

	app.logger.Info("Application stopped successfully")
	return nil
}

// TriageUseCase returns the triage pipeline (used by the console).
func (app *App) TriageUseCase() *usecase.TriageUseCase {
	return app.triageUseCase
}

// AgendaUseCase returns the agenda facade (used by the CLI).
func (app *App) AgendaUseCase() *usecase.AgendaUseCase {
	return app.agendaUseCase
}

// Patients returns the patient repository (used by the CLI).
func (app *App) Patients() repository.PatientRepository {
	return app.patientRepo
}

// Interactions returns the interaction repository (used by the CLI).
func (app *App) Interactions() repository.InteractionRepository {
	return app.interactionRepo
}

// Logger returns the application logger.
func (app *App) Logger() *zap.Logger {
	return app.logger
}
