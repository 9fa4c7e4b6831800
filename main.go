package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/api"
	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/config"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
	"github.com/rpupo63/portfolio-cms-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg := config.New()
	setupLogging(cfg)
	log.Info().Msg("Initializing app...")

	ctx := context.Background()
	if loaded, err := config.LoadSSM(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Error loading SSM parameters")
	} else if loaded > 0 {
		log.Info().Int("count", loaded).Msg("loaded parameters from SSM")
	}

	log.Info().Str("DB_TYPE", config.GetString(cfg, "DB_TYPE", "sqlite")).Msg("connecting to database")
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	currentDB := database.New(db)
	defer currentDB.Close()

	if err := currentDB.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("model generation failed")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		mismatches, err := models.GenerateColumnMismatchReport(db, os.Stdout)
		if err != nil {
			log.Fatal().Err(err).Msg("column report failed")
		}
		if mismatches > 0 {
			os.Exit(2)
		}
		return
	}

	if err := currentDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}
	if err := seedAdmin(ctx, currentDB, cfg); err != nil {
		log.Fatal().Err(err).Msg("Error seeding admin user")
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing services")
	}

	server, err := api.NewServer(currentDB, cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	// Start and listenToInterrupt may both send; neither may block after shutdown
	errChannel := make(chan error, 2)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := serve(server, errChannel, 30*time.Second)
	log.Info().Msgf("Server closed: %v", fatalErr)
}

// serve starts the server and shuts it down on the first error or signal
// sent to errChannel, which is returned.
func serve(server api.Server, errChannel chan error, timeout time.Duration) error {
	go server.Start(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(timeout)
	return fatalErr
}

// setupLogging uses a console writer outside production and sets the level
// from LOG_LEVEL.
func setupLogging(cfg map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(cfg, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetString(cfg, "APP_ENV", "development") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// seedAdmin creates the first user from ADMIN_EMAIL and ADMIN_PASSWORD when
// the users table is empty.
func seedAdmin(ctx context.Context, db database.Database, cfg map[string]string) error {
	count, err := db.UserRepo().Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	email := config.GetString(cfg, "ADMIN_EMAIL", "")
	password := config.GetString(cfg, "ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		log.Warn().Msg("no users exist and ADMIN_EMAIL/ADMIN_PASSWORD are unset; admin login is impossible")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         config.GetString(cfg, "ADMIN_NAME", "Admin"),
	}
	if err := db.UserRepo().Add(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("email", user.Email).Msg("seeded admin user")
	return nil
}

func buildDependencies(ctx context.Context, cfg map[string]string) (api.Dependencies, error) {
	var deps api.Dependencies

	ttl := time.Duration(config.GetInt(cfg, "SESSION_TTL_HOURS", 24)) * time.Hour
	tokens, err := auth.NewTokens(config.GetString(cfg, "AUTH_SECRET", ""), ttl)
	if err != nil {
		return deps, err
	}
	deps.Tokens = tokens

	store, err := services.NewStore(ctx, cfg)
	if err != nil {
		return deps, err
	}
	deps.Store = store

	if sender, err := services.NewEmailSender(cfg); err != nil {
		log.Warn().Err(err).Msg("contact email disabled")
	} else {
		deps.Email = sender
	}

	if notifier, err := services.NewSMSNotifier(cfg); err != nil {
		log.Info().Err(err).Msg("contact sms disabled")
	} else {
		deps.SMS = notifier
	}

	return deps, nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
