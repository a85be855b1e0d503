package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"bookshelf/internal/book"
	"bookshelf/internal/external"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/recognize"
	"bookshelf/internal/recommend"
)

func main() {
	_ = godotenv.Load(".env.local")

	serverAddress := getEnv("APP_ADDR", ":8080")
	databaseDSN := os.Getenv("DB_DSN")
	googleBooksURL := getEnv("GOOGLE_BOOKS_BASE_URL", "")
	ocrLanguage := getEnv("OCR_LANGUAGE", "eng")
	allowedOrigins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",")
	rateLimitRPS := getEnvFloat("RATE_LIMIT_RPS", 20)
	rateLimitBurst := getEnvInt("RATE_LIMIT_BURST", 40)

	var (
		repo   book.Repository
		dbPool *pgxpool.Pool
	)
	if databaseDSN != "" {
		dbPool = mustOpenDB(databaseDSN)
		defer dbPool.Close()
		repo = book.NewPostgresRepo(dbPool)
	} else {
		log.Println("DB_DSN not set, using in-memory book store")
		repo = book.NewMemoryRepo()
	}

	metadata := googlebooks.New(googlebooks.Config{BaseURL: googleBooksURL})
	bookService := book.NewService(repo)
	ocrService := recognize.NewService(recognize.NewTesseractEngine(ocrLanguage), metadata, repo)
	recommendService := recommend.NewService(metadata, repo)

	bookHandler := book.NewHTTPHandler(bookService)
	ocrHandler := recognize.NewHTTPHandler(ocrService)
	recommendHandler := recommend.NewHTTPHandler(recommendService)
	externalHandler := external.NewHTTPHandler(metadata)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := dbPool.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /api/books", bookHandler.List)
	router.HandleFunc("POST /api/books", bookHandler.Create)
	router.HandleFunc("GET /api/books/search/text", bookHandler.SearchText)
	router.HandleFunc("GET /api/books/{id}", bookHandler.Get)
	router.HandleFunc("PUT /api/books/{id}", bookHandler.Update)
	router.HandleFunc("DELETE /api/books/{id}", bookHandler.Delete)

	router.HandleFunc("POST /api/books/ocr", ocrHandler.ProcessCover)
	router.HandleFunc("POST /api/books/search/image", ocrHandler.SearchByImage)

	router.HandleFunc("GET /api/external/books", externalHandler.Search)
	router.HandleFunc("GET /api/external/books/isbn/{isbn}", externalHandler.LookupISBN)

	router.HandleFunc("GET /api/recommendations", recommendHandler.Recommendations)

	rateLimiter := httpx.NewRateLimitMiddleware(rateLimitRPS, rateLimitBurst)
	var handler http.Handler = router
	handler = rateLimiter.Middleware(handler)
	handler = httpx.RequestSizeLimitMiddleware(recognize.MaxCoverBytes + 1<<20)(handler)
	handler = httpx.CORSMiddleware(allowedOrigins)(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:         serverAddress,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", serverAddress)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
