package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/claimdesk/claimdesk/backend/go-services/handlers"
	claimhandler "github.com/claimdesk/claimdesk/backend/go-services/internal/claim/handler"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim/repository"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/claim/service"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/config"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/database"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/identity"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/oidc"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/revocation"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/storage"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v jwt_secret_set=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	// Redis is optional: without it logout is a no-op.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s), token revocation disabled: %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			defer func() { _ = rdb.Close() }()
		}
	}
	revoked := revocation.NewList(rdb)

	verifier := buildVerifier(ctx, cfg)
	authn := middleware.AuthMiddleware(verifier, revoked)

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	claimRepo := repository.NewMongoRepo(db.Collection(database.ClaimsCollection))
	if err := claimRepo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("claim indexes: %v", err)
	}
	userRepo := users.NewMongoUserRepository(db.Collection(database.UsersCollection))

	var accounts users.AccountCreator
	if cfg.Keycloak.URL != "" && cfg.Keycloak.Realm != "" && cfg.Keycloak.AdminClientID != "" {
		accounts = identity.NewKeycloakAdmin(ctx, cfg.Keycloak.URL, cfg.Keycloak.Realm, cfg.Keycloak.AdminClientID, cfg.Keycloak.AdminClientSecret)
	} else {
		logger.Warnf("Keycloak admin client not configured: POST /users disabled")
	}
	userSvc := users.NewService(userRepo, accounts)

	var receipts service.ReceiptUploader
	minioCfg := storage.LoadMinIOConfig()
	if minioCfg.Endpoint != "" {
		mc, err := storage.NewMinIOClient(ctx, minioCfg)
		if err != nil {
			logger.Warnf("MinIO unavailable, receipt upload disabled: %v", err)
		} else {
			receipts = storage.NewReceiptStore(mc, minioCfg.Bucket, minioCfg.BaseURL())
		}
	} else {
		logger.Warnf("MINIO_ENDPOINT not set: receipt upload disabled")
	}

	claimSvc := service.New(claimRepo, users.NewDirectory(userRepo), receipts)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the database answers and a verifier is configured
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"oidc":     verifier != nil,
			"redis":    cfg.Redis.Host == "" || rdb != nil,
			"receipts": receipts != nil,
		}
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["mongo"] = client.Ping(pctx, nil) == nil

		status, code := "ready", http.StatusOK
		if !deps["mongo"] || !deps["oidc"] {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r)
	handlers.NewAuthHandler(revoked, cfg.JWT.AccessTokenTTL).Register(r, authn)
	handlers.NewUsersHandler(userSvc).Register(r, authn)
	claimhandler.RegisterClaimRoutes(r, claimSvc, authn, userSvc)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting claims service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// buildVerifier prefers Keycloak OIDC, then the HS256 development secret, then
// the insecure claims parser when ALLOW_INSECURE_TOKEN=true. Returns nil when
// none is available, in which case every protected route answers 401.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Keycloak.Issuer(), cfg.Keycloak.ClientID)
		if err == nil {
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		ver, err := oidc.NewHMACVerifier(cfg.JWT.Secret)
		if err == nil {
			logger.Warnf("using HS256 development token verifier")
			return ver
		}
		logger.Warnf("failed to initialize HS256 verifier: %v", err)
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	logger.Error("no token verifier configured: all protected routes will reject requests")
	return nil
}

// cors is a permissive CORS policy for browser clients.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
