package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/PlanForgeHQ/PlanForge/app/controllers"
	"github.com/PlanForgeHQ/PlanForge/app/repository"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/cache"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/database"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/fulfillment"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/identity"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/notify"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/payments"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/plangen"
	"github.com/PlanForgeHQ/PlanForge/internal/pkg/router"
)

func main() {
	app, dispatcher := NewApplication()

	// graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		dispatcher.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *notify.QueueDispatcher) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	generator, err := plangen.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Plan generator setup failed: %v", err)
	}

	repos := repository.GetGlobalRepositories()
	resolver := identity.NewResolver(repos.Profile, identity.NewAuthProviderClientFromEnv())

	workers := 2
	if v := env.GetEnv("NOTIFY_WORKERS", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			workers = parsed
		}
	}
	dispatcher := notify.NewQueueDispatcher(notify.NewMailDispatcher(), workers)
	dispatcher.Start()

	genTimeout := 2 * time.Minute
	if v := env.GetEnv("GENERATION_TIMEOUT_SECONDS", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			genTimeout = time.Duration(parsed) * time.Second
		}
	}
	svc := fulfillment.NewService(repos, resolver, generator, dispatcher, genTimeout)
	controllers.Setup(svc, payments.NewStripeClientFromEnv())

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // 1 MiB, JSON payloads only
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app, dispatcher
}
