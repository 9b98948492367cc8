package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"wedmarket/internal/cache"
	"wedmarket/internal/config"
	"wedmarket/internal/http/handlers"
	applog "wedmarket/internal/log"
	"wedmarket/internal/repos"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
	"wedmarket/web"
)

type subscriber interface {
	Subscribe(ctx context.Context, channel string, fn func([]byte))
}

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	db.Timeout = cfg.RemoteTimeout
	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			log.Printf("[warn] seed demo data: %v", err)
		}
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	store = storage.WithTimeout(store, cfg.RemoteTimeout)

	c, sub := openCache(ctx, cfg)
	deps := handlers.NewDeps(db, store, c, cfg)
	sub.Subscribe(ctx, services.FavoritesChanged, deps.FavoritesSvc.OnChanged)

	go deps.Sweeper.Run(ctx)

	// Templates & app
	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: handlers.MaxUploadFiles*services.MaxUploadBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "something went wrong"})
			}
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(string(c.Request().URI().Path()), "/media/")
		},
	}))

	// ---------- Local object store ----------
	if cfg.StorageBackend == "local" {
		mediaDir := cfg.MediaDir
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
		log.Printf("[static] /media  -> %s", mediaDir)
		app.Get("/media/*", mediaHandler(mediaDir))
	}

	handlers.Routes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// mediaHandler serves local objects with traversal guards.
func mediaHandler(mediaDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "local", "":
		return storage.NewLocalStore(cfg.MediaDir, cfg.Bucket, cfg.PublicBaseURL)
	case "s3":
		return storage.NewS3Store(ctx, storage.S3StoreConfig{
			Bucket:        cfg.Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	case "gcs":
		return storage.NewGCSStore(ctx, storage.GCSStoreConfig{Bucket: cfg.Bucket, PublicBaseURL: cfg.PublicBaseURL})
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
}

// openCache prefers redis and falls back to an in-process cache when it is
// not configured or not reachable.
func openCache(ctx context.Context, cfg config.Config) (cache.Cache, subscriber) {
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rdb.Ping(pctx).Err()
		if err == nil {
			rc := cache.NewRedisCache(rdb)
			return rc, rc
		}
		log.Printf("[warn] redis %s unreachable, using in-memory cache: %v", cfg.RedisAddr, err)
		_ = rdb.Close()
	}
	mem := cache.NewMemory()
	return mem, mem
}
