package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/services"
	"wedmarket/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?category=
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		return respond(c, h.Catalog.ListAll(c.UserContext()))
	}
	prods, err := h.Catalog.ListByCategory(c.UserContext(), category)
	if err != nil {
		return fail(c, "catalog.list.fail", err)
	}
	return respond(c, prods)
}

// GET /api/v1/products/search?q=
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	raw := c.Query("q")
	if strings.TrimSpace(raw) == "" {
		return respond(c, h.Catalog.ListAll(c.UserContext()))
	}
	q, ok := validate.Q(raw)
	if !ok {
		return fail(c, "catalog.search", invalid("q"))
	}
	return respond(c, h.Catalog.Search(c.UserContext(), q))
}

// GET /api/v1/products/:id?category=
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "catalog.get", invalid("id"))
	}
	prod, _, err := h.Catalog.GetProduct(c.UserContext(), id, c.Query("category"))
	if err != nil {
		return fail(c, "catalog.get.fail", err)
	}
	return respond(c, prod)
}

// POST /api/v1/admin/products (multipart)
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	category := c.FormValue("category")
	if _, ok := validate.Category(category); !ok {
		return fail(c, "catalog.add", invalid("category"))
	}
	in, err := productInput(c)
	if err != nil {
		return fail(c, "catalog.add", err)
	}
	files, err := uploads(c)
	if err != nil {
		return fail(c, "catalog.add", err)
	}
	prod, err := h.Catalog.AddProduct(c.UserContext(), category, in, files)
	if err != nil {
		return fail(c, "catalog.add.fail", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"id": prod.ID, "category": string(prod.Category)})
	return respondCreated(c, prod)
}

// PUT /api/v1/admin/products/:id (multipart; remove_images lists URLs to drop)
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "catalog.update", invalid("id"))
	}
	in, err := productInput(c)
	if err != nil {
		return fail(c, "catalog.update", err)
	}
	files, err := uploads(c)
	if err != nil {
		return fail(c, "catalog.update", err)
	}
	remove := validate.Tags(c.FormValue("remove_images"))
	prod, err := h.Catalog.UpdateProduct(c.UserContext(), id, c.FormValue("category"), in, files, remove)
	if err != nil {
		return fail(c, "catalog.update.fail", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"id": id})
	return respond(c, prod)
}

// DELETE /api/v1/admin/products/:id?category=
func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "catalog.delete", invalid("id"))
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id, c.Query("category")); err != nil {
		return fail(c, "catalog.delete.fail", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"id": id})
	return respond(c, fiber.Map{"id": id})
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	type entry struct {
		Category  domain.Category  `json:"category"`
		Partition domain.Partition `json:"partition"`
	}
	out := make([]entry, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		out = append(out, entry{Category: cat, Partition: cat.Partition()})
	}
	return respond(c, out)
}
