package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	"wedmarket/internal/repos"
	"wedmarket/internal/services"
	"wedmarket/internal/validate"
)

type AdHandler struct {
	Ads     *services.AdService
	Sweeper *services.ExpirySweeper
}

// GET /api/v1/sections/:category
func (h *AdHandler) Section(c *fiber.Ctx) error {
	slots, err := h.Ads.CategorySection(c.UserContext(), c.Params("category"))
	if err != nil {
		return fail(c, "ads.section.fail", err)
	}
	return respond(c, domain.Cards(slots))
}

// GET /api/v1/home/featured?limit=
func (h *AdHandler) Featured(c *fiber.Ctx) error {
	return respond(c, domain.Cards(h.Ads.Featured(c.UserContext(), c.QueryInt("limit"))))
}

// GET /api/v1/home/recommended?limit=
func (h *AdHandler) Recommended(c *fiber.Ctx) error {
	return respond(c, domain.Cards(h.Ads.Recommended(c.UserContext(), c.QueryInt("limit"))))
}

// GET /api/v1/categories/:category/featured?limit=
func (h *AdHandler) CategoryFeatured(c *fiber.Ctx) error {
	slots := h.Ads.CategoryFeatured(c.UserContext(), c.Params("category"), c.QueryInt("limit"))
	return respond(c, domain.Cards(slots))
}

// POST /api/v1/ads/:id/click
func (h *AdHandler) Click(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "ads.click", invalid("id"))
	}
	if err := h.Ads.RecordClick(c.UserContext(), id); err != nil {
		return fail(c, "ads.click.fail", err)
	}
	return respond(c, fiber.Map{"id": id})
}

// GET /api/v1/admin/ads?type=&position=&active=1
func (h *AdHandler) List(c *fiber.Ctx) error {
	f := repos.AdFilter{
		Type:            domain.AdType(c.Query("type")),
		Position:        domain.Position(c.Query("position")),
		CategorySection: c.Query("category_section"),
		ProductCategory: c.Query("product_category"),
		ActiveOnly:      c.QueryBool("active"),
		Limit:           c.QueryInt("limit"),
	}
	if (f.Type != "" && !f.Type.Valid()) || (f.Position != "" && !f.Position.Valid()) {
		return fail(c, "ads.list", invalid("filter"))
	}
	ads, err := h.Ads.ListAds(c.UserContext(), f)
	if err != nil {
		return fail(c, "ads.list.fail", err)
	}
	return respond(c, ads)
}

// adInput reads ad fields from a form or JSON body; absent fields are left
// zero so updates keep the stored value.
func adInput(c *fiber.Ctx) (services.AdInput, error) {
	in := services.AdInput{
		Title:           c.FormValue("title"),
		Description:     c.FormValue("description"),
		ImageURL:        c.FormValue("image_url"),
		LinkURL:         c.FormValue("link_url"),
		AdType:          domain.AdType(strings.TrimSpace(c.FormValue("ad_type"))),
		Position:        domain.Position(strings.TrimSpace(c.FormValue("position"))),
		CategorySection: c.FormValue("category_section"),
		StartDate:       c.FormValue("start_date"),
		EndDate:         c.FormValue("end_date"),
		ProductID:       c.FormValue("product_id"),
		ProductCategory: c.FormValue("product_category"),
	}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		in = services.AdInput{}
		if err := c.BodyParser(&in); err != nil {
			return in, invalid("body")
		}
		if _, ok := validate.Link(in.LinkURL); !ok {
			return in, invalid("link_url")
		}
		return in, nil
	}
	if v := c.FormValue("priority"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, invalid("priority")
		}
		in.Priority = &n
	}
	if v := c.FormValue("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return in, invalid("is_active")
		}
		in.IsActive = &b
	}
	if v := c.FormValue("budget"); v != "" {
		f, ok := validate.Price(v)
		if !ok {
			return in, invalid("budget")
		}
		in.Budget = &f
	}
	if _, ok := validate.Link(in.LinkURL); !ok {
		return in, invalid("link_url")
	}
	return in, nil
}

// POST /api/v1/admin/ads
func (h *AdHandler) Create(c *fiber.Ctx) error {
	in, err := adInput(c)
	if err != nil {
		return fail(c, "ads.create", err)
	}
	ad, err := h.Ads.CreateAd(c.UserContext(), in)
	if err != nil {
		return fail(c, "ads.create.fail", err)
	}
	return respondCreated(c, ad)
}

// PUT /api/v1/admin/ads/:id
func (h *AdHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "ads.update", invalid("id"))
	}
	in, err := adInput(c)
	if err != nil {
		return fail(c, "ads.update", err)
	}
	ad, err := h.Ads.UpdateAd(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "ads.update.fail", err)
	}
	return respond(c, ad)
}

// PATCH /api/v1/admin/ads/:id/status (status=active|inactive)
func (h *AdHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "ads.status", invalid("id"))
	}
	status := c.FormValue("status")
	if status == "" {
		status = c.Query("status")
	}
	if err := h.Ads.SetAdStatus(c.UserContext(), id, status); err != nil {
		return fail(c, "ads.status.fail", err)
	}
	return respond(c, fiber.Map{"id": id, "status": status})
}

// DELETE /api/v1/admin/ads/:id
func (h *AdHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "ads.delete", invalid("id"))
	}
	if err := h.Ads.DeleteAd(c.UserContext(), id); err != nil {
		return fail(c, "ads.delete.fail", err)
	}
	return respond(c, fiber.Map{"id": id})
}

// GET /api/v1/admin/ads/stats
func (h *AdHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Ads.Statistics(c.UserContext())
	if err != nil {
		return fail(c, "ads.stats.fail", err)
	}
	return respond(c, st)
}

// GET /api/v1/admin/ads/expiring?within=24h
func (h *AdHandler) Expiring(c *fiber.Ctx) error {
	var within time.Duration
	if v := c.Query("within"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fail(c, "ads.expiring", invalid("within"))
		}
		within = d
	}
	ads, err := h.Ads.ExpiringSoon(c.UserContext(), within)
	if err != nil {
		return fail(c, "ads.expiring.fail", err)
	}
	return respond(c, ads)
}

// POST /api/v1/admin/ads/sweep
func (h *AdHandler) Sweep(c *fiber.Ctx) error {
	n, err := h.Sweeper.SweepOnce(c.UserContext())
	if err != nil {
		return fail(c, "ads.sweep.fail", err)
	}
	return respond(c, fiber.Map{"deleted": n})
}
