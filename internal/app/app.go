package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"

	"github.com/kisscinema/booking-api/internal/booking"
	"github.com/kisscinema/booking-api/internal/domain"
	"github.com/kisscinema/booking-api/internal/export"
	"github.com/kisscinema/booking-api/internal/queue"
	"github.com/kisscinema/booking-api/internal/repository"
	"github.com/kisscinema/booking-api/internal/seatlock"
	appvalidator "github.com/kisscinema/booking-api/internal/validator"
	"github.com/kisscinema/booking-api/internal/vcs"
)

var (
	version = vcs.Version()
)

type Config struct {
	Port int
	Env  string
	DB   DBConfig
	Redis RedisConfig

	AMQPURL          string
	OtelCollectorURL string
	ExportDir        string

	Migrate        bool
	MigrationsPath string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type Application struct {
	config    Config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate

	movieRepo   domain.MovieRepository
	hallRepo    domain.HallRepository
	seatFinder  domain.SeatFinder
	sessionRepo domain.SessionRepository
	bookingRepo domain.BookingRepository
	auditSink   domain.AuditSink

	publisher *queue.Publisher
	bookings  *booking.Service
	exporter  *export.Service
}

func Run() error {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.AMQPURL, "amqp-url", os.Getenv("AMQP_URL"), "RabbitMQ URL for booking events (empty disables publishing)")
	flag.StringVar(&cfg.OtelCollectorURL, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector URL")
	flag.StringVar(&cfg.ExportDir, "export-dir", "exports", "Directory for JSON snapshots")

	flag.BoolVar(&cfg.Migrate, "migrate", false, "Run database migrations on startup")
	flag.StringVar(&cfg.MigrationsPath, "migrations-path", "file://migrations", "Migration files source URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if cfg.Migrate {
		logger.Info("running database migrations", "source", cfg.MigrationsPath)

		err := runMigrations(cfg.DB.DSN, cfg.MigrationsPath)
		if err != nil {
			return err
		}
	}

	app, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.serve()
}

// New wires the application from its configuration. The AMQP publisher is
// optional; everything else must be reachable at startup.
func New(cfg Config, logger *slog.Logger) (*Application, error) {
	db, err := newDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	movieRepo := repository.NewPostgresMovieRepository(db)
	hallRepo := repository.NewPostgresHallRepository(db)
	sessionRepo := repository.NewPostgresSessionRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	auditSink := repository.NewPostgresAuditSink(db)

	var publisher *queue.Publisher
	var events domain.EventPublisher
	if cfg.AMQPURL != "" {
		publisher = queue.NewPublisher(cfg.AMQPURL)
		events = publisher
	}

	app := &Application{
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		validator:   appvalidator.NewValidator(),
		movieRepo:   movieRepo,
		hallRepo:    hallRepo,
		seatFinder:  hallRepo,
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		auditSink:   auditSink,
		publisher:   publisher,
		bookings: booking.NewService(
			sessionRepo,
			movieRepo,
			hallRepo,
			bookingRepo,
			auditSink,
			events,
			seatlock.NewLocker(redisClient),
			logger,
		),
		exporter: export.NewService(hallRepo, hallRepo, movieRepo, sessionRepo, bookingRepo, cfg.ExportDir),
	}

	return app, nil
}

func (app *Application) Close() {
	if app.publisher != nil {
		app.publisher.Close()
	}
	app.redis.Close()
	app.db.Close()
}

func newRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("booking-api", otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)

	r.Get("/health", app.healthcheckHandler)

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", app.listMoviesHandler)
		r.Post("/", app.createMovieHandler)
		r.Get("/{id}", app.getMovieHandler)
		r.Delete("/{id}", app.deleteMovieHandler)
	})

	r.Route("/halls", func(r chi.Router) {
		r.Get("/", app.listHallsHandler)
		r.Post("/", app.createHallHandler)
		r.Get("/{id}", app.getHallHandler)
		r.Delete("/{id}", app.deleteHallHandler)
		r.Get("/{id}/rows", app.listRowsHandler)
		r.Post("/{id}/rows", app.addRowHandler)
	})

	r.Route("/rows/{id}", func(r chi.Router) {
		r.Delete("/", app.deleteRowHandler)
		r.Get("/seats", app.listSeatsHandler)
		r.Post("/seats", app.addSeatsHandler)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", app.listSessionsHandler)
		r.Post("/", app.createSessionHandler)
		r.Get("/{id}", app.getSessionHandler)
		r.Delete("/{id}", app.deleteSessionHandler)
		r.Get("/{id}/seats", app.getSessionSeatsHandler)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", app.createBookingHandler)
		r.Post("/use", app.useBookingHandler)
		r.Delete("/{id}", app.cancelBookingHandler)
		r.Post("/cancel-by-user", app.cancelByUserHandler)
	})

	r.Post("/export", app.exportHandler)
	r.Post("/import", app.importHandler)

	return r
}
