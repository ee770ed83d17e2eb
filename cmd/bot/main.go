// cmd/bot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Tanxunze/7inet-bot/internal/api"
	"github.com/Tanxunze/7inet-bot/internal/bot"
	"github.com/Tanxunze/7inet-bot/internal/config"
	"github.com/Tanxunze/7inet-bot/internal/panel"
	"github.com/Tanxunze/7inet-bot/internal/session"
)

func main() {
	// --- Load configuration First ---
	if err := config.LoadConfig(); err != nil {
		// Use a basic logger here as the configured one isn't ready yet
		log.New(os.Stderr).Fatalf("Failed to load configuration: %v", err)
	}

	// --- Initialize Logger Based on Config ---
	log.SetOutput(os.Stderr)
	log.SetTimeFormat("2006-01-02 15:04:05")

	switch strings.ToLower(config.AppConfig.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	default:
		log.Warnf("Invalid LOG_LEVEL '%s' specified in config, defaulting to 'info'", config.AppConfig.LogLevel)
		log.SetLevel(log.InfoLevel)
	}

	log.Infof("Configuration loaded successfully. Log level set to '%s'.", config.AppConfig.LogLevel)
	log.Infof("Panel base URL: %s", config.AppConfig.PanelBaseURL)
	log.Debugf("Panel HTTP timeout: %s", config.AppConfig.HTTPTimeout())

	if config.AppConfig.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set.")
	}

	allowedIDs, err := config.AppConfig.AllowedIDs()
	if err != nil {
		log.Fatalf("Failed to parse ALLOWED_USER_IDS: %v", err)
	}
	if len(allowedIDs) == 0 {
		log.Warn("ALLOWED_USER_IDS is empty: every Telegram user will be rejected.")
	} else {
		log.Infof("Allow-list contains %d user(s)", len(allowedIDs))
	}

	if config.AppConfig.APIKey == "" {
		log.Warn("API_KEY is not set. The admin status endpoint will refuse all requests.")
	}

	// --- Wire components ---
	client := panel.NewClient(config.AppConfig.PanelBaseURL, config.AppConfig.HTTPTimeout())
	store := session.NewStore()

	tg, err := bot.NewTelegram(config.AppConfig.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}

	ctrl := bot.NewController(client, store, tg, allowedIDs)

	// --- Admin status API ---
	if strings.ToLower(config.AppConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else if strings.ToLower(config.AppConfig.GinMode) == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	log.Infof("Gin running in '%s' mode", config.AppConfig.GinMode)

	router := gin.Default()
	api.SetupRoutes(router, store, tg.Username())

	listenAddr := fmt.Sprintf(":%s", config.AppConfig.APIPort)
	go func() {
		log.Infof("Starting admin status API at http://localhost%s", listenAddr)
		if err := router.Run(listenAddr); err != nil {
			log.Fatalf("Failed to start admin status API: %v", err)
		}
	}()

	// --- Run the bot until interrupted ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tg.Run(ctx, ctrl)
	log.Info("Shutting down.")
}
