package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/billing-core/internal/config"
	"github.com/diewo77/billing-core/internal/db"
	"github.com/diewo77/billing-core/internal/dispatch"
	"github.com/diewo77/billing-core/internal/overdue"
	"github.com/diewo77/billing-core/internal/pdf"
	"github.com/diewo77/billing-core/internal/server"
	"github.com/diewo77/billing-core/internal/services"
	"github.com/diewo77/billing-core/internal/store"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	logLevelFlag    = flag.String("loglevel", "", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	initLogRotator(filepath.Join(cfg.LogDir, "billing.log"))
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()
	level := *logLevelFlag
	if level == "" {
		level = "info"
		if cfg.IsDevelopment() {
			level = "debug"
		}
	}
	setLogLevels(level)

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Errorf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	if *migrateOnlyFlag {
		log.Infof("Migrations completed")
		return
	}

	stores := store.NewGormStores(dbConn)

	invoiceSvc := services.NewInvoiceService(stores)
	templateSvc := services.NewTemplateService(stores)
	if err := templateSvc.EnsureDefault(context.Background()); err != nil {
		log.Errorf("Failed to seed default template: %v", err)
		os.Exit(1)
	}

	engine := &pdf.ChromeEngine{Timeout: cfg.RenderTimeout}
	generator := pdf.NewGenerator(stores, engine, cfg.Business, cfg.PDFOutputDir)

	mailer, err := dispatch.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		log.Errorf("Failed to configure mail transport: %v", err)
		os.Exit(1)
	}
	sender := dispatch.NewSender(stores, generator, mailer, cfg.Business)

	sweeper := overdue.NewSweeper(stores.Invoices)
	if cfg.OverdueSchedule != "" {
		if err := sweeper.Start(cfg.OverdueSchedule); err != nil {
			log.Errorf("Failed to start overdue sweeper: %v", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	handler := server.New(server.Deps{
		DB:        dbConn,
		Stores:    stores,
		Invoices:  invoiceSvc,
		Templates: templateSvc,
		Generator: generator,
		Sender:    sender,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// PDF generation can take up to the render timeout.
		WriteTimeout: cfg.RenderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server listening on port %v (env=%v)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}
	log.Infof("Server stopped gracefully")
}
