package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/breachmon/breachmon/internal/breachmon"
	"github.com/breachmon/breachmon/internal/database"
	"github.com/breachmon/breachmon/internal/notifications"
	"github.com/breachmon/breachmon/internal/webserver"
	"github.com/breachmon/breachmon/pkg/hibp"
)

func main() {
	ctx := context.Background()

	// Initialize Logrus
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Define a command-line flag for the watchlist file path
	watchlistFlag := flag.String("w", "", "Path to the watchlist file (txt or csv)")
	flag.Parse()

	// Load .env file if present
	err := godotenv.Load()
	if err != nil {
		logrus.Info("No .env file found for breachmon configuration. Proceeding with environment variables.")
	}

	// Load breachmon-specific configuration
	breachmonCfg, err := breachmon.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load breachmon configuration: %v", err)
	}

	// Override the watchlist path if the flag is provided
	if *watchlistFlag != "" {
		logger.Debugf("Overriding watchlist path with command-line flag: %s", *watchlistFlag)
		breachmonCfg.WatchlistPath = *watchlistFlag
	}

	// Load database configuration
	dbConfig, err := database.LoadDatabaseConfig()
	if err != nil {
		logger.Fatalf("Failed to load database configuration: %v", err)
	}

	// Initialize Database
	var db database.Database
	switch dbConfig.Type {
	case "bolt":
		db, err = database.NewBoltDB(dbConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize BoltDB: %v", err)
		}
		defer db.Close(ctx)
		logger.Info("BoltDB initialized successfully")
	case "redis":
		db, err = database.NewRedisDB(dbConfig)
		if err != nil {
			logger.Fatalf("Failed to initialize RedisDB: %v", err)
		}
		defer db.Close(ctx)
		logger.Info("RedisDB initialized successfully")
	default:
		logger.Fatalf("Unsupported database type: %s", dbConfig.Type)
	}

	// Load notification configuration
	notificationCfg, err := notifications.LoadNotificationConfig()
	if err != nil {
		logger.Fatalf("Failed to load notification configuration: %v", err)
	}

	// Initialize Notifier
	notifier, err := notifications.NewNotifier(notificationCfg.ShoutrrrURLs)
	if err != nil {
		logger.Fatalf("Failed to initialize notifier: %v", err)
	}
	logger.Info("Notifier initialized successfully")

	// Initialize the HIBP client according to the configured rate limit mode
	var client *hibp.Client
	switch breachmonCfg.RateLimitMode {
	case breachmon.RateLimitModeUnlimited:
		client = hibp.New(breachmonCfg.APIKey)
	case breachmon.RateLimitModeManual:
		client = hibp.NewWithRateLimit(breachmonCfg.APIKey, breachmonCfg.RateLimitRPM)
	case breachmon.RateLimitModeAuto:
		client, err = hibp.NewWithAutoRateLimit(ctx, breachmonCfg.APIKey)
		if err != nil {
			logger.Fatalf("Failed to determine rate limit from subscription: %v", err)
		}
	}
	if limiter := client.RateLimiter(); limiter != nil {
		logger.WithFields(logrus.Fields{
			"rpm":          limiter.RPM(),
			"min_interval": limiter.MinInterval().String(),
		}).Info("HIBP client rate limit configured")
	}

	// Initialize Monitor
	monitorConfig := breachmon.MonitorConfig{
		PollInterval:  breachmonCfg.PollInterval,
		CheckInterval: breachmonCfg.CheckInterval,
		Notifier:      notifier,
		Client:        client,
		Database:      db,
	}

	monitor := breachmon.NewMonitor(monitorConfig, breachmonCfg.MaxConcurrency)

	// Check if accounts exist in the database; if not, import from file
	accountCount, err := db.GetTotalAccounts(ctx)
	if err != nil {
		logger.Fatalf("Failed to load accounts from database: %v", err)
	}

	if accountCount == 0 && breachmonCfg.WatchlistPath != "" {
		logger.Info("Database is empty. Importing accounts from watchlist.")
		err := monitor.ImportAccountsFromFile(ctx, breachmonCfg.WatchlistPath)
		if err != nil {
			logger.Fatalf("Failed to import accounts: %v", err)
		}
	} else {
		logger.WithField("account_count", accountCount).Info("Loaded existing accounts from database")
	}

	webServerConfig, err := webserver.NewWebserverConfig()
	if err != nil {
		logger.Fatalf("Failed to load webserver configuration: %v", err)
	}

	// Initialize Web Server
	webServer := webserver.NewWebServer(monitor, webServerConfig, logger)

	// Create a cancellable context
	ctxCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start the web server
	server, err := webserver.StartWebServer(ctxCancel, webServer)
	if err != nil {
		logger.Fatalf("Failed to start web server: %v", err)
	}

	// Start monitoring in a separate goroutine
	go func() {
		logger.Info("Starting monitoring process")
		monitor.Start(ctxCancel)
	}()

	// Listen for OS signals to handle graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	logger.Infof("Received signal: %s. Initiating shutdown...", sig)

	// Initiate shutdown
	cancel() // Cancel the monitor's context

	// Create a context with timeout for the server's shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	// Shutdown the web server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Failed to gracefully shutdown the server: %v", err)
	}

	logger.Info("Shutdown complete. Exiting.")
}
