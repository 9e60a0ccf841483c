package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/robfig/cron/v3"

	"lotofacil/internal/caixa"
	"lotofacil/internal/config"
	"lotofacil/internal/format"
	"lotofacil/internal/handlers"
	"lotofacil/internal/metrics"
	"lotofacil/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	flag.Parse()

	// 1. Load configuration from file and environment
	conf, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	var logFile io.Writer = io.Discard
	if conf.Log.File != "" {
		f, err := os.OpenFile(conf.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			logger.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logFile = f
	}
	defer logger.Init("lotofacil", conf.Log.Verbose, false, logFile).Close()

	// 3. Initialize the result source and the Lottery Service
	client := caixa.NewClient(conf.ClientConfig())
	source := caixa.NewCache(client, conf.Cache.TTL, conf.Cache.LatestTTL, conf.Cache.Size)
	lotteryService := services.NewLotteryService(source, services.Options{
		Regular:   conf.RegularGroup(),
		Extra:     conf.ExtraGroup(),
		ScanLimit: conf.Scan.Limit,
	})

	// 4. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(lotteryService)

	// 5. Set up the Gin router
	gin.SetMode(conf.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware())

	// 6. Register routes
	httpHandler.RegisterRoutes(r)

	// 7. Start the background watcher for the latest drawing
	if conf.Watch.Schedule != "" {
		watcher := cron.New()
		_, err := watcher.AddFunc(conf.Watch.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			report, err := lotteryService.CheckDrawing(ctx, caixa.Latest, true)
			if err != nil {
				logger.Warningf("Watcher could not check the latest drawing: %v", err)
				return
			}
			logger.Infof("Watcher checked drawing %d: %s (%d drawings cached)",
				report.Drawing.ID, format.BRL(report.Total), source.Len())
		})
		if err != nil {
			logger.Fatalf("Invalid watch schedule %q: %v", conf.Watch.Schedule, err)
		}
		watcher.Start()
		defer watcher.Stop()
	}

	// 8. Run the server
	logger.Infof("Server starting on http://localhost:%s", conf.Server.Port)
	if err := r.Run(":" + conf.Server.Port); err != nil {
		logger.Fatalf("Failed to run server: %v", err)
	}
}
