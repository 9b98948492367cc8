package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
)

const (
	adminHeader = "X-Admin-Token"
	adminCookie = "admin_token"
)

// AdminAuth checks the admin API token against a bcrypt hash. An empty hash
// refuses everyone.
type AdminAuth struct {
	Hash string
}

func (a AdminAuth) valid(tok string) bool {
	if a.Hash == "" || tok == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(tok)) == nil
}

// RequireAdmin guards the JSON admin API. Only the header is accepted: the
// session cookie would let another site drive these routes without csrf.
func (a AdminAuth) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.valid(c.Get(adminHeader)) {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(domain.Fail(domain.ErrPermissionDenied.Error(), domain.ErrPermissionDenied))
		}
		c.Locals("actor", "admin")
		return c.Next()
	}
}

// RequireAdminPage guards the admin HTML pages, sending strangers to the
// token form.
func (a AdminAuth) RequireAdminPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.valid(c.Cookies(adminCookie)) {
			if c.Cookies(adminCookie) != "" {
				applog.Security(c, "access.denied.admin", nil)
			}
			return c.Redirect("/admin/login")
		}
		c.Locals("actor", "admin")
		return c.Next()
	}
}

func (a AdminAuth) LoginForm(c *fiber.Ctx) error {
	return render(c, "admin_login", fiber.Map{})
}

func (a AdminAuth) Login(c *fiber.Ctx) error {
	tok := c.FormValue("token")
	if !a.valid(tok) {
		applog.Security(c, "admin.login.fail", nil)
		return c.Status(fiber.StatusUnauthorized).Render("admin_login", fiber.Map{"Err": "Invalid token"})
	}
	c.Cookie(&fiber.Cookie{
		Name:     adminCookie,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().Add(12 * time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Locals("actor", "admin")
	applog.Audit(c, "admin.login", nil)
	return c.Redirect("/admin/requests")
}

func (a AdminAuth) Logout(c *fiber.Ctx) error {
	c.ClearCookie(adminCookie)
	return c.Redirect("/")
}
