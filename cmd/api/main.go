package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/jobtradesasa/server/internal/config"
	"github.com/jobtradesasa/server/internal/db"
	"github.com/jobtradesasa/server/internal/handlers"
	"github.com/jobtradesasa/server/internal/middleware"
	"github.com/jobtradesasa/server/internal/realtime"
	"github.com/jobtradesasa/server/internal/services/jobs"
	"github.com/jobtradesasa/server/internal/services/messaging"
	"github.com/jobtradesasa/server/internal/services/providers"
	"github.com/jobtradesasa/server/internal/services/ratings"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}
	if err := db.SeedCategories(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go realtime.RunBridge(context.Background(), rdb, hub)

	jobSvc := jobs.NewService(gdb)
	msgSvc := messaging.NewService(gdb)
	ratingSvc := ratings.NewService(gdb)
	providerSvc := providers.NewService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	jobH := handlers.NewJobHandler(gdb, jobSvc, hub, rdb)
	msgH := handlers.NewMessageHandler(gdb, msgSvc, hub, rdb, cfg.JWTSecret)
	ratingH := handlers.NewRatingHandler(gdb, ratingSvc)
	providerH := handlers.NewProviderHandler(gdb, providerSvc, jobSvc)
	categoryH := handlers.NewCategoryHandler(gdb)
	profileH := handlers.NewProfileHandler(gdb)
	uploadH := handlers.NewUploadHandler(cfg.UploadDir, cfg.AppBaseURL)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "http://127.0.0.1:3000, http://localhost:3000",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/signup", authH.Signup)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)

	// protected (bearer JWT)
	protected := api.Group("/",
		middleware.JWTFromHeader(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/jobs", jobH.List)
	protected.Post("/jobs", middleware.RequireRoles("requester"), jobH.Create)
	protected.Get("/jobs/:id", jobH.Get)
	protected.Patch("/jobs/:id", jobH.UpdateStatus)
	protected.Post("/jobs/:id/accept", middleware.RequireRoles("provider"), jobH.Accept)

	protected.Get("/providers", providerH.Search)
	protected.Get("/provider/stats", middleware.RequireRoles("provider"), providerH.Stats)
	protected.Get("/provider/recent-jobs", middleware.RequireRoles("provider"), providerH.RecentJobs)

	protected.Get("/messages/conversations", msgH.Conversations)
	protected.Get("/messages/:jobId", msgH.History)
	protected.Post("/messages", msgH.Send)

	protected.Post("/ratings", middleware.RequireRoles("requester"), ratingH.Submit)
	protected.Get("/ratings/:providerId", ratingH.ForProvider)

	protected.Patch("/profile", profileH.Update)
	protected.Post("/uploads", uploadH.UploadPhoto)

	// WebSocket relay; auth happens in the first frame, not middleware
	app.Get("/ws", websocket.New(msgH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
