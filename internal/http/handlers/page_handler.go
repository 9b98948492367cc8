package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/services"
)

type PageHandler struct {
	Ads *services.AdService
}

type sectionView struct {
	Category domain.Category
	Cards    []domain.Card
}

// GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var sections []sectionView
	for _, cat := range domain.Categories {
		slots, err := h.Ads.CategorySection(ctx, string(cat))
		if err != nil {
			applog.Warn(c, "home.section.fail", err, map[string]any{"category": string(cat)})
		}
		sections = append(sections, sectionView{Category: cat, Cards: domain.Cards(slots)})
	}
	return render(c, "home", fiber.Map{
		"Featured":    domain.Cards(h.Ads.Featured(ctx, 0)),
		"Recommended": domain.Cards(h.Ads.Recommended(ctx, 0)),
		"Sections":    sections,
	})
}

// GET /category/:category
func (h *PageHandler) Category(c *fiber.Ctx) error {
	cat, ok := domain.ParseCategory(c.Params("category"))
	if !ok {
		return notFoundPage(c, "Category not found")
	}
	ctx := c.UserContext()
	slots, err := h.Ads.CategorySection(ctx, string(cat))
	if err != nil {
		applog.Error(c, "category.section.fail", err, map[string]any{"category": string(cat)})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load this category. Please retry."})
	}
	return render(c, "category", fiber.Map{
		"Category": cat,
		"Featured": domain.Cards(h.Ads.CategoryFeatured(ctx, string(cat), 0)),
		"Cards":    domain.Cards(slots),
	})
}
