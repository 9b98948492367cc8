package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/services"
	"wedmarket/internal/validate"
)

type ModerationHandler struct {
	Moderation *services.ModerationService
}

// POST /api/v1/requests (multipart, public)
func (h *ModerationHandler) Submit(c *fiber.Ctx) error {
	// unknown categories are kept as sent; approval routes them to the
	// default partition
	category, ok := validate.Text(c.FormValue("category"), 50)
	if !ok {
		return fail(c, "moderation.submit", invalid("category"))
	}
	in, err := productInput(c)
	if err != nil {
		return fail(c, "moderation.submit", err)
	}
	files, err := uploads(c)
	if err != nil {
		return fail(c, "moderation.submit", err)
	}
	sub, err := h.Moderation.Submit(c.UserContext(), services.SubmissionInput{ProductInput: in, Category: category}, files)
	if err != nil {
		return fail(c, "moderation.submit.fail", err)
	}
	return respondCreated(c, sub)
}

// GET /api/v1/admin/requests?status=
func (h *ModerationHandler) List(c *fiber.Ctx) error {
	var status domain.SubmissionStatus
	if raw := c.Query("status"); raw != "" {
		st, ok := validate.Status(raw)
		if !ok {
			return fail(c, "moderation.list", invalid("status"))
		}
		status = st
	}
	subs, err := h.Moderation.List(c.UserContext(), status)
	if err != nil {
		return fail(c, "moderation.list.fail", err)
	}
	return respond(c, subs)
}

// GET /api/v1/admin/requests/stats
func (h *ModerationHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Moderation.Statistics(c.UserContext())
	if err != nil {
		return fail(c, "moderation.stats.fail", err)
	}
	return respond(c, st)
}

// POST /api/v1/admin/requests/:id/approve
func (h *ModerationHandler) Approve(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "moderation.approve", invalid("id"))
	}
	prod, err := h.Moderation.Approve(c.UserContext(), id)
	if errors.Is(err, domain.ErrProductCreatedRequestNotDeleted) {
		return partial(c, "moderation.approve.partial", prod, err)
	}
	if err != nil {
		return fail(c, "moderation.approve.fail", err)
	}
	applog.Audit(c, "admin.requests.approve", map[string]any{"id": id, "product_id": prod.ID})
	return respond(c, prod)
}

// POST /api/v1/admin/requests/:id/reject
func (h *ModerationHandler) Reject(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "moderation.reject", invalid("id"))
	}
	reason, ok := validate.Text(c.FormValue("reason"), 500)
	if !ok {
		return fail(c, "moderation.reject", invalid("reason"))
	}
	if err := h.Moderation.Reject(c.UserContext(), id, reason); err != nil {
		return fail(c, "moderation.reject.fail", err)
	}
	applog.Audit(c, "admin.requests.reject", map[string]any{"id": id})
	return respond(c, fiber.Map{"id": id})
}

// GET /admin/requests
func (h *ModerationHandler) QueuePage(c *fiber.Ctx) error {
	subs, err := h.Moderation.List(c.UserContext(), domain.StatusPending)
	if err != nil {
		applog.Error(c, "admin.requests.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load requests"})
	}
	st, _ := h.Moderation.Statistics(c.UserContext())
	return render(c, "admin_requests", fiber.Map{
		"Requests": subs, "Stats": st, "Flash": c.Query("msg"),
	})
}

// POST /admin/requests/:id/approve
func (h *ModerationHandler) ApproveForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	prod, err := h.Moderation.Approve(c.UserContext(), id)
	switch {
	case errors.Is(err, domain.ErrProductCreatedRequestNotDeleted):
		applog.Warn(c, "admin.requests.approve.partial", err, map[string]any{"id": id, "product_id": prod.ID})
		return c.Redirect("/admin/requests?msg=" + url.QueryEscape("Product created, but the request could not be removed"))
	case err != nil:
		applog.Error(c, "admin.requests.approve.fail", err, map[string]any{"id": id})
		return c.Redirect("/admin/requests?msg=" + url.QueryEscape("Approval failed: "+publicMessage(err)))
	}
	applog.Audit(c, "admin.requests.approve", map[string]any{"id": id, "product_id": prod.ID})
	return c.Redirect("/admin/requests?msg=" + url.QueryEscape("Approved"))
}

// POST /admin/requests/:id/reject
func (h *ModerationHandler) RejectForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	reason, _ := validate.Text(c.FormValue("reason"), 500)
	if err := h.Moderation.Reject(c.UserContext(), id, reason); err != nil {
		applog.Error(c, "admin.requests.reject.fail", err, map[string]any{"id": id})
		return c.Redirect("/admin/requests?msg=" + url.QueryEscape("Rejection failed: "+publicMessage(err)))
	}
	applog.Audit(c, "admin.requests.reject", map[string]any{"id": id})
	return c.Redirect("/admin/requests?msg=" + url.QueryEscape("Rejected"))
}
