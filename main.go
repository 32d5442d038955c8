package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"connect-game-engine/handlers"
	"connect-game-engine/middleware"
	"connect-game-engine/models"
	"connect-game-engine/services"
	"connect-game-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())
	app.Use(middleware.RequestIDMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	// The whole relationship graph is declared once, statically, on the
	// model structs; nothing re-wires associations at query time.
	if err := db.AutoMigrate(
		&models.RoomType{},
		&models.Room{},
		&models.User{},
		&models.Challenge{},
		&models.Game{},
		&models.Player{},
		&models.Piece{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	challengeService := services.NewChallengeService(db)
	gameService := services.NewGameService(db)

	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupGameRoutes(app, gameService)

	challengeTTL := workers.DefaultChallengeTTL
	if ttlEnv := os.Getenv("CHALLENGE_TTL_SECONDS"); ttlEnv != "" {
		if seconds, err := strconv.Atoi(ttlEnv); err == nil && seconds > 0 {
			challengeTTL = time.Duration(seconds) * time.Second
		} else {
			log.Printf("⚠️  Invalid CHALLENGE_TTL_SECONDS %q, keeping default %s", ttlEnv, challengeTTL)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	expiryWorker := workers.NewChallengeExpiryWorker(challengeService, challengeTTL)
	go expiryWorker.Start(ctx)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Printf("✅ Challenge expiry sweep running (TTL %s)", challengeTTL)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
