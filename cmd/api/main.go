package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bidtrack/api/internal/app"
	"bidtrack/api/internal/archive"
	"bidtrack/api/internal/automation"
	"bidtrack/api/internal/config"
	"bidtrack/api/internal/filestore"
	"bidtrack/api/internal/notify"
	"bidtrack/api/internal/persist"
	"bidtrack/api/internal/search"
	"bidtrack/api/internal/store"
	"bidtrack/api/internal/urgency"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var persister store.Persister
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis persistence")
		redisStore, err := persist.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		persister = redisStore
	} else if strings.TrimSpace(cfg.PostgresURL) != "" {
		log.Printf("Using PostgreSQL persistence")
		pgStore, err := persist.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("postgres connection failed: %v", err)
		}
		defer pgStore.Close()
		persister = pgStore
	} else {
		log.Fatalf("no persistence configured: set REDIS_URL or DATABASE_URL")
	}

	st := store.New(persister)
	st.Load(ctx)

	opts := []app.ServiceOption{
		app.WithThresholds(urgency.Thresholds{
			CriticalDays: cfg.CriticalDays,
			HighDays:     cfg.HighDays,
			MediumDays:   cfg.MediumDays,
		}),
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	opts = append(opts, app.WithSearch(search.NewService(meiliClient, search.NewMemory(st))))

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		bucket, err := filestore.NewBucketStore(ctx, filestore.BucketConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		opts = append(opts, app.WithFiles(bucket))
	}

	if strings.TrimSpace(cfg.ArchiveDir) != "" {
		archiveService, err := archive.New(cfg.ArchiveDir)
		if err != nil {
			log.Fatalf("archive init failed: %v", err)
		}
		opts = append(opts, app.WithArchive(archiveService))
	}

	service := app.NewService(st, opts...)
	service.ReindexSearch()

	var notifier notify.Notifier
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			To:       cfg.SMTPTo,
		})
	} else {
		notifier = notify.LogNotifier{}
	}
	scheduler := notify.NewScheduler(st, notifier,
		notify.WithInterval(cfg.PollInterval),
		notify.WithWindow(cfg.NotificationWindow))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	var automationClient *automation.Client
	if strings.TrimSpace(cfg.AutomationURL) != "" {
		automationClient = automation.NewClient(cfg.AutomationURL)
	}

	httpServer := app.NewHTTPServer(service, automationClient, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Bidtrack API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
