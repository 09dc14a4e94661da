package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gtnulled/despensa_api/internal"
	"github.com/gtnulled/despensa_api/internal/auth"
	"github.com/gtnulled/despensa_api/internal/db"
	"github.com/gtnulled/despensa_api/internal/httpapi"
	"github.com/gtnulled/despensa_api/internal/items"
	"github.com/gtnulled/despensa_api/internal/ratelimit"
	"github.com/gtnulled/despensa_api/internal/reports"
	"github.com/gtnulled/despensa_api/internal/session"
	"github.com/gtnulled/despensa_api/internal/telemetry"
	"github.com/gtnulled/despensa_api/internal/users"
	"github.com/gtnulled/despensa_api/internal/withdrawals"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const serviceName = "despensa-api"

func main() {
	_ = godotenv.Load()

	port := internal.Env("APP_PORT", "8080")
	databaseURL := internal.MustEnv("DATABASE_URL")
	redisURL := internal.MustEnv("REDIS_URL")

	ctx := context.Background()

	shutdown := telemetry.InitTracer(serviceName)
	defer shutdown(context.Background())
	shutdownMetrics := telemetry.InitMetrics(serviceName)
	defer shutdownMetrics(context.Background())
	shutdownLogger := telemetry.InitLogger(serviceName)
	defer shutdownLogger(context.Background())
	db.InitTelemetry(serviceName)

	d, err := db.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer d.Close()

	redisOpt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	dbBase := db.NewBase(d.Pool, 3*time.Second)
	usrRepo := users.NewRepository(dbBase)
	itemRepo := items.NewRepository(dbBase)
	wdRepo := withdrawals.NewRepository(dbBase)

	sessionPrefix := internal.Env("SESSION_REDIS_PREFIX", "despensa:session:")
	sessionManager := &session.Manager{
		Store:         session.NewRedisStore(redisClient, sessionPrefix),
		TTL:           parseDurationEnv("SESSION_TTL", 24*time.Hour),
		MaxAge:        parseDurationEnv("SESSION_MAX_AGE", 7*24*time.Hour),
		RefreshBefore: parseDurationEnv("SESSION_REFRESH_BEFORE", time.Hour),
		IDBytes:       32,
	}

	cookie := session.CookieConfig{
		Name:     internal.Env("SESSION_COOKIE_NAME", session.DefaultCookieName),
		Path:     internal.Env("SESSION_COOKIE_PATH", "/"),
		Domain:   internal.Env("SESSION_COOKIE_DOMAIN", ""),
		Secure:   parseBoolEnv("SESSION_COOKIE_SECURE", true),
		SameSite: parseSameSiteEnv("SESSION_COOKIE_SAMESITE", http.SameSiteLaxMode),
	}

	loginLimiter := &ratelimit.Limiter{
		Client: redisClient,
		Prefix: "despensa:ratelimit:",
		Limit:  parseIntEnv("LOGIN_RATE_LIMIT", 5),
		Window: parseDurationEnv("LOGIN_RATE_WINDOW", time.Minute),
	}

	cachePrefix := internal.Env("CACHE_REDIS_PREFIX", "despensa:cache:")
	itemCache := items.NewRedisCache(redisClient, cachePrefix)
	reportCache := reports.NewRedisCache(redisClient, cachePrefix)
	telemetry.InitAppMetrics(serviceName, d.Pool, redisClient, sessionPrefix)

	usersService := &users.Service{Store: usrRepo}
	authService := &auth.Service{
		Users:        usrRepo,
		Accounts:     usersService,
		Sessions:     sessionManager,
		LoginLimiter: loginLimiter,
	}
	itemsService := &items.Service{
		Store:    itemRepo,
		Cache:    itemCache,
		CacheTTL: parseDurationEnv("ITEMS_CACHE_TTL", 30*time.Second),
	}
	withdrawalsService := &withdrawals.Service{
		Store:     wdRepo,
		ItemCache: itemCache,
	}
	reportsService := &reports.Service{
		Withdrawals:       wdRepo,
		Items:             itemRepo,
		Cache:             reportCache,
		CacheTTL:          parseDurationEnv("REPORTS_CACHE_TTL", 5*time.Minute),
		LowStockThreshold: parseFloatEnv("LOW_STOCK_THRESHOLD", 5),
	}

	app := &httpapi.App{
		ServiceName: serviceName,
		Health:      &httpapi.HealthHandler{DB: d.Pool, Redis: redisClient},
		Auth:        &httpapi.AuthHandler{Auth: authService, Cookie: cookie},
		Users:       &httpapi.UsersHandler{Service: usersService},
		Items: &httpapi.ItemsHandler{
			Service:     itemsService,
			Withdrawals: withdrawalsService,
		},
		Withdrawals: &httpapi.WithdrawalsHandler{Service: withdrawalsService},
		Reports:     &httpapi.ReportsHandler{Service: reportsService},

		Authenticator: authService,
		AuthOptions:   httpapi.AuthOptions{Cookie: cookie},
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("api listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return d
}

func parseIntEnv(key string, def int) int {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return n
}

func parseFloatEnv(key string, def float64) float64 {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return f
}

func parseBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return b
}

func parseSameSiteEnv(key string, def http.SameSite) http.SameSite {
	val := strings.ToLower(strings.TrimSpace(internal.Env(key, "")))
	switch val {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	case "":
		return def
	default:
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
}
