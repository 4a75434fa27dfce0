package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/config"
	"github.com/Skotchmaster/college_portal/internal/db"
	"github.com/Skotchmaster/college_portal/internal/es"
	"github.com/Skotchmaster/college_portal/internal/guard"
	"github.com/Skotchmaster/college_portal/internal/handlers"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/mykafka"
	"github.com/Skotchmaster/college_portal/internal/otpstore"
	"github.com/Skotchmaster/college_portal/internal/repo"
	"github.com/Skotchmaster/college_portal/internal/resetstore"
	"github.com/Skotchmaster/college_portal/internal/search"
	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/session"
	"github.com/Skotchmaster/college_portal/internal/tokens"
	httpserver "github.com/Skotchmaster/college_portal/internal/transport/http"
)

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg, err := config.LoadConfig(os.Getenv("ENV_FILE"))
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel).With("service", "college_portal", "env", cfg.AppEnv)
	slog.SetDefault(log)
	ctx := logging.IntoContext(context.Background(), log)

	codec, err := tokens.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		fatal(log, "token_codec_init_failed", err)
	}

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(log, "db_open_failed", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		fatal(log, "db_migrate_failed", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
	}

	topics := []string{authz.AuthTopic, service.MailTopic}
	prod, err := mykafka.NewProducer(cfg.KafkaBrokers, topics)
	if err != nil {
		fatal(log, "kafka_init_failed", err)
	}
	if err := prod.EnsureTopics(ctx); err != nil {
		log.Warn("kafka_topics_not_ensured", "error", err)
	}

	esClient, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, log)
	if err != nil {
		fatal(log, "es_init_failed", err)
	}

	r := repo.New(gdb)
	resets := resetstore.New(rdb, cfg.ResetTTL)
	auditor := &authz.EventAuditor{Publisher: prod}
	engine := authz.NewEngine(codec, auditor)
	sessions := session.NewStore(!cfg.IsDevelopment(), cfg.SessionTTL)

	requests := &service.RequestService{Repo: r}
	students := &service.StudentService{Repo: r, Search: search.NewStudents(esClient, search.DefaultIndex)}

	deps := &httpserver.Deps{
		Engine:   engine,
		Guard:    guard.New(engine),
		Requests: requests,
		Auth: &handlers.AuthHandler{
			Svc:      &service.AuthService{Repo: r, Codec: codec, TTL: cfg.SessionTTL, Events: prod},
			Sessions: sessions,
		},
		Student: &handlers.StudentHandler{Requests: requests, Students: students},
		Clerk:   &handlers.ClerkHandler{Requests: requests, Students: students},
		Admin:   &handlers.AdminHandler{Staff: &service.StaffService{Repo: r}, Students: students},
		Password: &handlers.PasswordHandler{
			Svc: &service.PasswordService{Repo: r, Tokens: resets, Events: prod},
		},
		Email: &handlers.EmailHandler{
			Svc: &service.EmailService{Repo: r, Codes: otpstore.New(rdb), Events: prod},
		},
		Certificates: &handlers.CertificateHandler{
			Svc: &service.CertificateService{Repo: r, Secret: []byte(cfg.CertificateSecret)},
		},
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return resets.Ping(ctx)
		},
		WebRoot:         cfg.WebRoot,
		LoginRatePerMin: cfg.LoginRatePerMin,
		Development:     cfg.IsDevelopment(),
	}

	e := httpserver.New(log, deps)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http_server_error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		log.Warn("force_exit")
		os.Exit(1)
	}()

	log.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("db_close_error", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		log.Error("redis_close_error", "error", err)
	}
	auditor.Wait()
	if err := prod.Close(); err != nil {
		log.Error("kafka_close_error", "error", err)
	}

	log.Info("shutdown_complete")
}
