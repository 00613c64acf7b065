package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thunderbloop/config"
	"thunderbloop/handlers"
	"thunderbloop/middleware"
	"thunderbloop/models"
	"thunderbloop/services"
	"thunderbloop/utils"
	"thunderbloop/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB proof attachments

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "thunderbloop",
	Short: "ThunderBloop points ledger API",
	Long: `ThunderBloop tracks user points earned through referrals and
admin-reviewed task submissions, and serves the leaderboard.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, dotenv, err := config.Load()
		if err != nil {
			return err
		}
		if err := utils.InitLogger(loaded.Env, loaded.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if !dotenv {
			utils.Log.Info("⚠️  No .env file found, reading environment variables directly")
		}
		cfg = loaded
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the leaderboard worker",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDatabase(); err != nil {
			return err
		}
		utils.Log.Info("✅ database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	defer utils.SyncLogger()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDatabase() (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newVerifier picks Firebase, then the auth service, then trusted gateway
// headers (nil verifier).
func newVerifier(ctx context.Context) (services.TokenVerifier, error) {
	switch {
	case cfg.FirebaseServiceAccount != "":
		fv, err := services.NewFirebaseVerifier(ctx, cfg.FirebaseServiceAccount)
		if err != nil {
			return nil, err
		}
		utils.Log.Info("🔑 verifying Firebase ID tokens")
		return fv, nil
	case cfg.AuthServiceURL != "":
		utils.Log.Infow("🔑 verifying tokens with auth service", "url", cfg.AuthServiceURL)
		return services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceToken), nil
	default:
		utils.Log.Warn("⚠️  no token verifier configured, trusting X-User-* gateway headers")
		return nil, nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.CheckIdentity(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase()
	if err != nil {
		return err
	}

	verifier, err := newVerifier(ctx)
	if err != nil {
		return err
	}

	h := &handlers.Handler{
		Ledger: services.NewLedgerService(db, cfg.Ledger),
		Tasks:  services.NewTaskService(db),
		Videos: services.NewVideoService(db),
	}
	if cfg.R2.Enabled() {
		uploader, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		h.Uploader = uploader
		utils.Log.Infow("🪣 proof attachments enabled", "bucket", cfg.R2.Bucket)
	}

	worker := workers.NewLeaderboardWorker(h.Ledger, cfg.LeaderboardRefresh)
	if err := worker.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = worker.Stop() }()

	app := fiber.New(fiber.Config{
		BodyLimit: maxUploadSize,
	})

	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Service-Token, X-Visitor-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupRoutes(app, h, verifier, services.NewAdminPolicy(cfg.AdminEmails))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			utils.Log.Errorw("Server error", "error", err)
			stop()
		}
	}()

	utils.Log.Infof("✅ Server running on http://localhost:%s", cfg.Port)
	utils.Log.Infof("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	utils.Log.Info("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}
