package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"wedmarket/internal/services"
	"wedmarket/internal/validate"
)

type FavoritesHandler struct {
	Favorites *services.FavoritesService
}

func (h *FavoritesHandler) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if _, ok := validate.ID(sid); !ok {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

// GET /api/v1/favorites
func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	items, err := h.Favorites.List(c.UserContext(), h.ensureSID(c))
	if err != nil {
		return fail(c, "favorites.list.fail", err)
	}
	return respond(c, items)
}

// POST /api/v1/favorites (product_id, category, toggle=1)
func (h *FavoritesHandler) Save(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	pid, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return fail(c, "favorites.save", invalid("product_id"))
	}
	category := c.FormValue("category")
	if c.FormValue("toggle") != "" {
		on, err := h.Favorites.Toggle(c.UserContext(), sid, pid, category)
		if err != nil {
			return fail(c, "favorites.toggle.fail", err)
		}
		return respond(c, fiber.Map{"product_id": pid, "favorite": on})
	}
	if err := h.Favorites.Add(c.UserContext(), sid, pid, category); err != nil {
		return fail(c, "favorites.save.fail", err)
	}
	return respond(c, fiber.Map{"product_id": pid, "favorite": true})
}

// DELETE /api/v1/favorites/:id
func (h *FavoritesHandler) Remove(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "favorites.remove", invalid("product_id"))
	}
	if err := h.Favorites.Remove(c.UserContext(), sid, pid); err != nil {
		return fail(c, "favorites.remove.fail", err)
	}
	return respond(c, fiber.Map{"product_id": pid, "favorite": false})
}

// GET /api/v1/favorites/:id
func (h *FavoritesHandler) Check(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "favorites.check", invalid("product_id"))
	}
	on, err := h.Favorites.IsFavorite(c.UserContext(), h.ensureSID(c), pid)
	if err != nil {
		return fail(c, "favorites.check.fail", err)
	}
	return respond(c, fiber.Map{"product_id": pid, "favorite": on})
}
