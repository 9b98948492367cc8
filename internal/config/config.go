package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string // sqlite | postgres
	DBDSN    string
	SeedDemo bool

	StorageBackend string // local | s3 | gcs
	Bucket         string
	MediaDir       string
	PublicBaseURL  string
	S3Region       string
	S3Endpoint     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminTokenHash   string
	LogFile          string
	SubmissionFolder string

	AdSweepInterval time.Duration
	RemoteTimeout   time.Duration
	FavoritesTTL    time.Duration
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[config] bad %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func integer(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

// Load reads the environment, after an optional .env in the working directory.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	cfg := Config{
		Port:     get("PORT", "8080"),
		DBDriver: get("DB_DRIVER", "sqlite"),
		DBDSN:    get("DB_DSN", "wedmarket.db"),
		SeedDemo: get("SEED_DEMO", "") == "1",

		StorageBackend: get("STORAGE_BACKEND", "local"),
		Bucket:         get("STORAGE_BUCKET", "images"),
		MediaDir:       get("MEDIA_DIR", "./data/media"),
		PublicBaseURL:  get("PUBLIC_BASE_URL", "http://localhost:8080/media"),
		S3Region:       get("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       integer("REDIS_DB", 0),

		AdminTokenHash:   os.Getenv("ADMIN_TOKEN_HASH"),
		LogFile:          get("LOG_FILE", "./wedmarket.log"),
		SubmissionFolder: get("SUBMISSION_FOLDER", "Product_requests"),

		AdSweepInterval: duration("AD_SWEEP_INTERVAL", time.Hour),
		RemoteTimeout:   duration("REMOTE_TIMEOUT", 10*time.Second),
		FavoritesTTL:    duration("FAVORITES_TTL", 10*time.Minute),
	}
	if cfg.AdminTokenHash == "" {
		log.Printf("[config] ADMIN_TOKEN_HASH not set; admin routes will refuse every request")
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s STORAGE=%s BUCKET=%s REDIS=%t LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, cfg.StorageBackend, cfg.Bucket, cfg.RedisAddr != "", cfg.LogFile)
	return cfg
}
