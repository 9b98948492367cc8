package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "wedmarket/internal/log"
)

// PageCSRF protects the server-rendered forms. The JSON API is token
// authenticated and does not use it.
func PageCSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "CSRFToken",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
}

// Routes mounts every page and API route on app.
func Routes(app *fiber.App, d *Deps) {
	pages := PageCSRF()

	// Public pages
	app.Get("/", pages, d.Pages.Home)
	app.Get("/category/:category", pages, d.Pages.Category)

	// Admin pages
	app.Get("/admin/login", pages, d.Auth.LoginForm)
	app.Post("/admin/login", pages, limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("admin_login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.Auth.Login)
	app.Post("/admin/logout", pages, d.Auth.Logout)

	guard := d.Auth.RequireAdminPage()
	app.Get("/admin/requests", pages, guard, d.Moderation.QueuePage)
	app.Post("/admin/requests/:id/approve", pages, guard, d.Moderation.ApproveForm)
	app.Post("/admin/requests/:id/reject", pages, guard, d.Moderation.RejectForm)

	// Public API
	api := app.Group("/api/v1")
	api.Get("/categories", d.Catalog.Categories)
	api.Get("/products", d.Catalog.List)
	api.Get("/products/search", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), d.Catalog.Search)
	api.Get("/products/:id", d.Catalog.Get)
	api.Get("/sections/:category", d.Ads.Section)
	api.Get("/home/featured", d.Ads.Featured)
	api.Get("/home/recommended", d.Ads.Recommended)
	api.Get("/categories/:category/featured", d.Ads.CategoryFeatured)
	api.Post("/ads/:id/click", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|click|" + c.Params("id")
		},
	}), d.Ads.Click)
	api.Post("/requests", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.requests.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": "rate limit exceeded, retry soon"})
		},
	}), d.Moderation.Submit)

	api.Get("/favorites", d.Favorites.List)
	api.Post("/favorites", d.Favorites.Save)
	api.Get("/favorites/:id", d.Favorites.Check)
	api.Delete("/favorites/:id", d.Favorites.Remove)

	// Admin API
	adm := api.Group("/admin", d.Auth.RequireAdmin())
	adm.Post("/products", d.Catalog.Create)
	adm.Put("/products/:id", d.Catalog.Update)
	adm.Delete("/products/:id", d.Catalog.Delete)

	adm.Get("/requests", d.Moderation.List)
	adm.Get("/requests/stats", d.Moderation.Stats)
	adm.Post("/requests/:id/approve", d.Moderation.Approve)
	adm.Post("/requests/:id/reject", d.Moderation.Reject)

	adm.Get("/ads", d.Ads.List)
	adm.Post("/ads", d.Ads.Create)
	adm.Get("/ads/stats", d.Ads.Stats)
	adm.Get("/ads/expiring", d.Ads.Expiring)
	adm.Post("/ads/sweep", d.Ads.Sweep)
	adm.Put("/ads/:id", d.Ads.Update)
	adm.Patch("/ads/:id/status", d.Ads.SetStatus)
	adm.Delete("/ads/:id", d.Ads.Delete)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}
