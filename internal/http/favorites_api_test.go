package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wedmarket/internal/domain"
)

func TestFavoritesToggleWithSessionCookie(t *testing.T) {
	app, _ := newApp(t)
	resp := do(t, app, asAdmin(multipartRequest(t, "POST", "/api/v1/admin/products", map[string]string{
		"category": "cake", "title": "Three tier cake", "price": "120",
	}, nil)))
	var prod domain.Product
	decode(t, resp, &prod)

	resp = do(t, app, formRequest("POST", "/api/v1/favorites", "product_id="+prod.ID+"&category=cake&toggle=1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", resp.StatusCode)
	}
	sid := cookie(resp, "sid")
	if sid == "" {
		t.Fatal("expected a sid cookie")
	}
	var state struct {
		Favorite bool `json:"favorite"`
	}
	decode(t, resp, &state)
	if !state.Favorite {
		t.Fatal("first toggle should add")
	}

	withSID := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
		return req
	}

	var list []domain.Product
	decode(t, do(t, app, withSID(httptest.NewRequest("GET", "/api/v1/favorites", nil))), &list)
	if len(list) != 1 || list[0].ID != prod.ID {
		t.Fatalf("list: %+v", list)
	}

	// another visitor sees nothing
	var other []domain.Product
	decode(t, do(t, app, httptest.NewRequest("GET", "/api/v1/favorites", nil)), &other)
	if len(other) != 0 {
		t.Fatalf("foreign list: %+v", other)
	}

	decode(t, do(t, app, withSID(formRequest("POST", "/api/v1/favorites", "product_id="+prod.ID+"&category=cake&toggle=1"))), &state)
	if state.Favorite {
		t.Fatal("second toggle should remove")
	}
	decode(t, do(t, app, withSID(httptest.NewRequest("GET", "/api/v1/favorites/"+prod.ID, nil))), &state)
	if state.Favorite {
		t.Fatal("check after removal")
	}
	decode(t, do(t, app, withSID(httptest.NewRequest("GET", "/api/v1/favorites", nil))), &list)
	if len(list) != 0 {
		t.Fatalf("stale cached list: %+v", list)
	}
}

func TestFavoritesUnknownProduct(t *testing.T) {
	app, _ := newApp(t)
	resp := do(t, app, formRequest("POST", "/api/v1/favorites", "product_id=nope&category=cake"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp = do(t, app, formRequest("POST", "/api/v1/favorites", "product_id="))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
