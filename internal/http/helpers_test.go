package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"golang.org/x/crypto/bcrypt"

	"wedmarket/internal/cache"
	"wedmarket/internal/config"
	"wedmarket/internal/http/handlers"
	"wedmarket/internal/repos"
	"wedmarket/internal/retry"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
	"wedmarket/web"
)

const adminToken = "s3cret-admin-token"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Actor  string         `json:"actor"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}

// newApp wires the real routes over an in-memory database and a temp-dir
// object store, with retries that do not sleep.
func newApp(t *testing.T) (*fiber.App, *handlers.Deps) {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := storage.NewLocalStore(t.TempDir(), "images", "http://localhost:8080/media")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		AdminTokenHash:   string(hash),
		SubmissionFolder: "Product_requests",
		FavoritesTTL:     time.Minute,
	}
	deps := handlers.NewDeps(db, store, cache.NewMemory(), cfg)

	fast := retry.Policy{Attempts: 3}
	deps.Catalog.Catalog.Transfer = fast
	deps.Catalog.Catalog.RowDelete = fast
	deps.Moderation.Moderation.Transfer = fast
	deps.Moderation.Moderation.RowDelete = fast

	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())
	handlers.Routes(app, deps)
	return app, deps
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set("X-Admin-Token", adminToken)
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

func decode(t *testing.T, resp *http.Response, data any) envelope {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("not a JSON envelope (%d): %s", resp.StatusCode, body)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("data: %v in %s", err, env.Data)
		}
	}
	return env
}

// multipartRequest builds a form with the given fields and one "images" part
// per entry in images.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, images map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for name, data := range images {
		part, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func formRequest(method, target, form string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// stubbornSubmissions acknowledges deletes without performing them.
type stubbornSubmissions struct {
	services.SubmissionStore
}

func (stubbornSubmissions) Delete(context.Context, string) error { return nil }
