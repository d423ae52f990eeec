package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func main() {
	// Local development reads .env; in containers the variables come from
	// the environment directly, so a missing file is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	if getEnv("DB_BACKEND", "postgres") == "memory" {
		log.Println("Using in-memory store (DB_BACKEND=memory)")
		store = newMemoryStore()
	} else {
		db := connectDatabase()
		defer db.Close()
		store = newPostgresStore(db)
	}

	if apiKey := os.Getenv("OPENAI_KEY"); apiKey != "" {
		vision = newOpenRouterClient(
			apiKey,
			getEnv("OPENROUTER_BASE_URL", defaultOpenRouterBaseURL),
			getEnv("URL_DOMAIN", "http://localhost:3000"),
		)
	} else {
		log.Println("OPENAI_KEY not set, receipt scanning is disabled")
	}

	r := setupRouter()

	port := getEnv("PORT", "8080")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

func connectDatabase() *sql.DB {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "password"),
		getEnv("DB_NAME", "expenses"))

	var db *sql.DB
	var err error

	// Connect with retry so the app can start before the database container
	maxRetries := 30
	retryInterval := time.Second * 2

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", connStr)
		if err != nil {
			log.Printf("Attempt %d: Error opening database: %v", i+1, err)
			time.Sleep(retryInterval)
			continue
		}

		if err = db.Ping(); err != nil {
			log.Printf("Attempt %d: Error connecting to database: %v", i+1, err)
			db.Close()
			time.Sleep(retryInterval)
			continue
		}

		log.Println("Successfully connected to database")
		break
	}

	if err != nil {
		log.Fatal("Failed to connect to database after retries: ", err)
	}

	migrationsPath := filepath.Join(".", "db", "migrations")
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		log.Printf("Migrations directory not found at %s, skipping migrations", migrationsPath)
	} else {
		log.Println("Running database migrations...")
		if err := runMigrations(db, migrationsPath); err != nil {
			log.Fatal("Error running migrations: ", err)
		}

		if version, dirty, err := getMigrationVersion(db, migrationsPath); err == nil {
			if dirty {
				log.Printf("Current migration version: %d (DIRTY - migration failed)", version)
			} else {
				log.Printf("Current migration version: %d", version)
			}
		}
		log.Println("Database migrations completed successfully")
	}

	return db
}

func setupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(requestIDMiddleware())
	r.Use(requestLogMiddleware())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("URL_DOMAIN", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	rateWindow := time.Duration(getEnvInt("RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute
	apiLimiter := newRateLimiter(getEnvInt("RATE_LIMIT_MAX", 100), rateWindow)
	r.Use(apiLimiter.middleware())

	// Receipt scans burn free-tier model quota, so they get a much tighter
	// budget than the rest of the API.
	receiptLimiter := newRateLimiter(getEnvInt("RECEIPT_RATE_LIMIT_MAX", 10), rateWindow)

	// Routes
	r.GET("/api/expenses", getExpenses)
	r.POST("/api/expenses", createExpense)
	r.DELETE("/api/expenses", deleteExpense)
	r.DELETE("/api/expenses/all", clearAllExpenses)

	r.GET("/api/settings", getSettings)
	r.PUT("/api/settings", updateSettings)
	r.POST("/api/settings", updateSettings)

	r.GET("/api/conversion", getConversionEntries)
	r.POST("/api/conversion", createConversionEntry)
	r.PUT("/api/conversion", updateConversionEntry)
	r.DELETE("/api/conversion", deleteConversionEntry)

	r.POST("/api/receipt", receiptLimiter.middleware(), processReceipt)

	r.GET("/api/summary", getSummary)
	r.GET("/api/months", getMonths)
	r.GET("/api/export", exportExpenses)

	r.GET("/health", healthCheck)

	return r
}

// @Summary Health check
// @Description Report service and store health
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Failure 503 {object} map[string]interface{} "Store unreachable"
// @Router /health [get]
func healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
