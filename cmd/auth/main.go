package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresRepo "github.com/forja-app/auth-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/forja-app/auth-service/internal/adapters/db/redis"
	myHTTP "github.com/forja-app/auth-service/internal/adapters/transport/http"
	httpmw "github.com/forja-app/auth-service/internal/adapters/transport/http/middleware"
	"github.com/forja-app/auth-service/internal/auth/jwt"
	"github.com/forja-app/auth-service/internal/auth/password"
	"github.com/forja-app/auth-service/internal/auth/resettoken"
	"github.com/forja-app/auth-service/internal/auth/service"
	"github.com/forja-app/auth-service/internal/config"
	lg "github.com/forja-app/auth-service/internal/infra/log"
	"github.com/forja-app/auth-service/internal/infra/migrate"
	"github.com/forja-app/auth-service/internal/mail"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	resetKey, err := cfg.ResetKeyBytes()
	if err != nil {
		zapLog.Fatal("reset token key", zap.Error(err))
	}
	codec, err := resettoken.NewCodec(resetKey)
	if err != nil {
		zapLog.Fatal("reset token codec", zap.Error(err))
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:      cfg.MailSMTPHost,
		Port:      cfg.MailSMTPPort,
		Username:  cfg.MailSMTPUsername,
		Password:  cfg.MailSMTPPassword,
		Secure:    cfg.MailSMTPSecure,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
		SiteName:  cfg.SiteName,
	})
	if err != nil {
		zapLog.Fatal("smtp mailer", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	tokenRepo := myRedisRepo.NewRedisTokenRepo(redisCli)
	jwtUtil := jwt.NewJWTUtil([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := password.NewHasher(cfg.IsProduction())

	svc := service.NewAuthService(
		userRepo, tokenRepo, jwtUtil, codec, hasher, mailer,
		cfg, validator.New(), zapLog,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	rateLimit, stopRateLimit := httpmw.NewRateLimitPerIP(50, 100, 10_000, time.Hour)
	defer stopRateLimit()
	router.Use(rateLimit)

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(cfg.SessionName(), store))

	handler := myHTTP.NewHandler(svc, cfg, zapLog, db, redisCli)
	handler.RegisterRoutes(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// drains in-flight requests once a signal lands or the server errors out
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("shutting down")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
