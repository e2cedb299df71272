package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/ProposalCraft/app/controllers"
	"github.com/ManuelReschke/ProposalCraft/app/repository"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/abuse"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/cache"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/database"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/history"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/llm"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/middleware"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/ratelimit"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/router"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/statistics"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usage"
)

const (
	viewFlushInterval = time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("[Shutdown] stopping server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Printf("[Shutdown] %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}

	if err := cache.Close(); err != nil {
		log.Printf("[Shutdown] closing cache: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	backend := env.GetEnv("STORE_BACKEND", "memory")
	dbEnabled := env.GetEnvBool("DB_ENABLED", false)
	rejectUnregistered := env.GetEnvBool("REJECT_UNREGISTERED_KEYS", false)
	maxResumeBytes := int64(env.GetEnvInt("RESUME_MAX_BYTES", resume.DefaultMaxBytes))

	var client *redis.Client
	if backend == "redis" {
		cache.SetupCache()
		client = cache.GetClient()
	}

	var repos *repository.Repositories
	if dbEnabled {
		database.SetupDatabase()
		repository.InitializeFactory(database.GetDB())
		repos = repository.GetGlobalRepositories()
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/proposalcraft to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	// LICENSING AND METERING
	static, err := licensing.NewStaticRegistry(licensing.DefaultKeys)
	if err != nil {
		panic(err)
	}
	log.Printf("[Setup] static license registry: %d keys", static.Len())
	var registry licensing.Registry = static
	if repos != nil {
		registry = licensing.ChainRegistry{static, licensing.NewRepositoryRegistry(repos.License)}
	}

	var usageStore usage.Store = usage.NewMemoryStore()
	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if client != nil {
		usageStore = usage.NewRedisStore(client)
		limitStore = ratelimit.NewRedisStore(client)
	}
	log.Printf("[Setup] store backend: %s, database: %t", backend, dbEnabled)

	gate := licensing.NewGate(
		registry,
		usage.NewLedger(usageStore),
		abuse.NewDetector(abuse.ThresholdsFromEnv()),
		ratelimit.NewLimiter(limitStore, entitlements.TableFromEnv()),
		licensing.WithRejectUnregistered(rejectUnregistered),
	)

	// HISTORY AND STATISTICS
	var historyStore history.Store = history.NewMemoryStore()
	if repos != nil {
		historyStore = repos.History
	}
	stats := statistics.NewService(historyStore, client)

	var views *counter.Counter
	if client != nil && repos != nil {
		views = counter.New(client)
		go flushViews(views, repos.History)
	}

	// GENERATION
	rps, _ := strconv.ParseFloat(env.GetEnv("LLM_MAX_RPS", "0"), 64)
	service := proposal.NewService(proposal.Config{
		Gate:        gate,
		History:     historyStore,
		Credentials: llm.CredentialsFromEnv(),
		Throttle:    llm.NewLimiter(rps, 1),
		Timeout:     env.GetEnvDuration("GENERATION_TIMEOUT", proposal.DefaultTimeout),
		Statistics:  stats,
		Location:    env.Location(),
	})

	controllers.InitializeProposalController(service, stats, maxResumeBytes)
	controllers.InitializeLicenseController(service, rejectUnregistered)
	controllers.InitializeHistoryController(service, views)

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:        html.New(basePath+"views", ".html"),
		BodyLimit:    int(maxResumeBytes) + 1<<20, // resume plus form fields
		ErrorHandler: errorHandler,
	})

	app.Use(favicon.New())

	// recovery and logging
	app.Use(recover.New(), logger.New(), middleware.HTTPMetrics)

	// fiber metrics
	app.Get("/metrics", middleware.RequireMetricsAuth(), monitor.New())
	app.Get("/metrics/prometheus", middleware.RequireMetricsAuth(), adaptor.HTTPHandler(promhttp.Handler()))

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	specPath := basePath + "public/docs/v1/openapi.yml"
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: specPath,
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, router.Options{
		SessionBackend:  backend,
		SpecPath:        specPath,
		APIMaxPerMinute: env.GetEnvInt("API_MAX_PER_MINUTE", 60),
	})

	return app
}

// errorHandler sends oversized form posts back to a flash page instead of
// the plain 413 body.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code == fiber.StatusRequestEntityTooLarge && !strings.HasPrefix(c.Path(), "/api/") {
		return c.Redirect("/flash/upload-too-large", fiber.StatusSeeOther)
	}
	return fiber.DefaultErrorHandler(c, err)
}

func flushViews(views *counter.Counter, sink counter.ViewSink) {
	ticker := time.NewTicker(viewFlushInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := views.Flush(ctx, sink)
		cancel()
		if err != nil {
			log.Printf("[Views] flush failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("[Views] flushed %d share counters", n)
		}
	}
}
