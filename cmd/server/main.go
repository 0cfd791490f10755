package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/Skyfz/skypoint-social/configs"
	"github.com/Skyfz/skypoint-social/internal/api/handlers"
	"github.com/Skyfz/skypoint-social/internal/events"
	job "github.com/Skyfz/skypoint-social/internal/jobs"
	"github.com/Skyfz/skypoint-social/internal/queue"
	"github.com/Skyfz/skypoint-social/internal/repository"
	"github.com/Skyfz/skypoint-social/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	var asynqClient *asynq.Client
	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	if cfg.RedisURI != "" {
		asynqClient = asynq.NewClient(redisConn)
		defer asynqClient.Close()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)

	var eventPublisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		eventPublisher = rabbit
	}

	mediaService := service.NewMediaService(*cfg)
	postService := service.NewPostService(*cfg, postRepo, mediaService, eventPublisher)
	dispatcher := service.NewDispatcher(*cfg, postRepo, eventPublisher,
		service.NewLinkedInService(*cfg),
		service.NewInstagramService(*cfg),
		service.NewFacebookService(),
	)

	app.Get("/health", handlers.Health)

	api := app.Group("/api")

	post := handlers.NewPostHandler(postService, asynqClient)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts", post.CreatePost)
	api.Put("/posts", post.UpdatePost)
	api.Delete("/posts", post.DeletePost)

	dispatch := handlers.NewDispatchHandler(dispatcher, postService)
	api.Get("/dispatch", dispatch.Trigger)

	webhook := handlers.NewWebhookHandler(postService)
	api.Post("/webhooks/content", webhook.ContentWebhook)
	api.Post("/webhooks/dispatch-complete", dispatch.Complete)

	// in-process cron scan, for deployments without an external trigger
	if cfg.SchedulerEnabled {
		scanJob := job.NewDispatchScanJob(dispatcher)
		c := cron.New()
		c.AddFunc(cfg.SchedulerSpec, scanJob.Run)
		c.Start()
	}

	if cfg.RedisURI != "" {
		go func() {
			server := asynq.NewServer(redisConn, asynq.Config{
				Concurrency: 10,
			})

			mux := asynq.NewServeMux()
			worker := queue.NewWorker(dispatcher)
			mux.HandleFunc(queue.TaskTypeDispatchPost, worker.HandleDispatchPostTask)

			log.Println("Starting the Asynq server...")
			if err := server.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
