package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogapi/docs"
	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/database/migration"
	handlers "blogapi/internal/http/handler"
	"blogapi/internal/http/middleware"
	"blogapi/internal/logging"
	"blogapi/internal/media"
	"blogapi/internal/model"
	"blogapi/internal/otel"
	"blogapi/internal/repository"
	"blogapi/internal/repository/mongodb"
	"blogapi/internal/repository/postgres"
	"blogapi/internal/service"
	"blogapi/internal/storage"
	"blogapi/internal/translate"
)

const (
	metricsPath     = "/metrics"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// store is the opened post repository plus what health checks and shutdown need.
type store struct {
	repo   repository.BlogRepository
	pinger handlers.Pinger
	close  func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) (*store, error) {
	langs := model.Languages{Primary: cfg.Content.PrimaryLanguage, Secondary: cfg.Content.SecondaryLanguage}

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return &store{
			repo:   mongodb.NewBlogMongo(coll, langs),
			pinger: database.MongoPinger{Client: client},
			close:  client.Disconnect,
		}, nil
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			repo:   postgres.NewBlogPostgres(db),
			pinger: db,
			close:  func(context.Context) error { return db.Close() },
		}, nil
	}
}

// newUploader returns the configured image host. objects is non-nil only when
// images are kept in MinIO and served back through /media.
func newUploader(ctx context.Context, cfg *config.AppConfig, policy media.Policy) (media.Uploader, storage.Storage, error) {
	switch cfg.Media.Provider {
	case config.MediaProviderMinIO:
		objects, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, nil, err
		}
		return media.NewObjectStore(objects, policy, cfg.Media.PublicBaseURL), objects, nil
	default:
		up, err := media.NewCloudinary(cfg.Media.Cloudinary, policy)
		if err != nil {
			return nil, nil, err
		}
		return up, nil, nil
	}
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(msg, err, nil)
	os.Exit(1)
}

// @title Blog API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location())
	logging.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid_config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	st, err := openStore(startCtx, cfg, log)
	if err != nil {
		fatal(log, "store_init_failed", err)
	}

	policy := media.PolicyFromConfig(cfg.Media)
	uploader, objects, err := newUploader(startCtx, cfg, policy)
	if err != nil {
		fatal(log, "media_init_failed", err)
	}

	langs := model.Languages{Primary: cfg.Content.PrimaryLanguage, Secondary: cfg.Content.SecondaryLanguage}
	blogSvc := service.NewBlogService(st.repo, uploader, policy, langs)
	translationSvc := service.NewTranslationService(translate.NewDeepL(cfg.Translation))

	app := fiber.New(fiber.Config{
		// Leave room for the text fields so an oversized image reaches the
		// upload policy and gets a proper error body.
		BodyLimit:    int(cfg.Media.MaxUploadBytes) + 1<<20,
		ErrorHandler: handlers.ErrorHandler(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg, metricsPath)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(metrics.Handler())

	app.Get(metricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		Store:        st.pinger,
		Blogs:        blogSvc,
		Translations: translationSvc,
		Media:        objects,
	})

	addr := ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server_starting", map[string]any{
			"addr":         addr,
			"store_driver": cfg.StoreDriver,
			"media":        cfg.Media.Provider,
		})
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			log.Error("server_failed", err, nil)
		}
	case <-ctx.Done():
		log.Info("server_stopping", nil)
	}

	downCtx, downCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer downCancel()

	err = errors.Join(
		app.ShutdownWithContext(downCtx),
		st.close(downCtx),
		shutdownTracing(downCtx),
	)
	if err != nil {
		log.Error("shutdown_failed", err, nil)
		os.Exit(1)
	}
	log.Info("server_stopped", nil)
}
