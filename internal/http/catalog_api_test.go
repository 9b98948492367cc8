package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"wedmarket/internal/domain"
)

func TestAdminProductLifecycle(t *testing.T) {
	app, _ := newApp(t)

	resp := do(t, app, asAdmin(multipartRequest(t, "POST", "/api/v1/admin/products", map[string]string{
		"category":    "flowerbouquets",
		"title":       "White roses",
		"description": "Bridal bouquet",
		"colors":      "white, ivory",
		"price":       "30",
	}, map[string][]byte{"roses.png": pngBytes})))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var prod domain.Product
	decode(t, resp, &prod)
	if len(prod.Colors) != 2 || len(prod.ImageURLs) != 1 {
		t.Fatalf("unexpected product %+v", prod)
	}

	var got domain.Product
	decode(t, do(t, app, httptest.NewRequest("GET", "/api/v1/products/"+prod.ID, nil)), &got)
	if got.Title != "White roses" {
		t.Fatalf("get: %+v", got)
	}

	var hits []domain.Product
	decode(t, do(t, app, httptest.NewRequest("GET", "/api/v1/products/search?q="+url.QueryEscape("bridal"), nil)), &hits)
	if len(hits) != 1 {
		t.Fatalf("search: expected 1 hit, got %d", len(hits))
	}

	resp = do(t, app, asAdmin(multipartRequest(t, "PUT", "/api/v1/admin/products/"+prod.ID, map[string]string{
		"category":      "flowerbouquets",
		"title":         "Ivory roses",
		"remove_images": `["` + prod.ImageURLs[0] + `"]`,
	}, nil)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	var upd domain.Product
	decode(t, resp, &upd)
	if upd.Title != "Ivory roses" || len(upd.ImageURLs) != 0 {
		t.Fatalf("update: %+v", upd)
	}

	resp = do(t, app, asAdmin(httptest.NewRequest("DELETE", "/api/v1/admin/products/"+prod.ID+"?category=flowerbouquets", nil)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	resp = do(t, app, httptest.NewRequest("GET", "/api/v1/products/"+prod.ID, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted product: expected 404, got %d", resp.StatusCode)
	}
	if env := decode(t, resp, nil); env.Error != "not found" || env.Kind != "not_found" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestAdminCreateRejectsUnknownCategory(t *testing.T) {
	app, _ := newApp(t)
	resp := do(t, app, asAdmin(multipartRequest(t, "POST", "/api/v1/admin/products", map[string]string{
		"category": "balloons", "title": "x",
	}, nil)))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPublicCatalogReads(t *testing.T) {
	app, _ := newApp(t)

	var cats []struct {
		Category  string `json:"category"`
		Partition string `json:"partition"`
	}
	decode(t, do(t, app, httptest.NewRequest("GET", "/api/v1/categories", nil)), &cats)
	if len(cats) != len(domain.Categories) || cats[0].Partition != "products_cake" {
		t.Fatalf("categories: %+v", cats)
	}

	resp := do(t, app, httptest.NewRequest("GET", "/api/v1/products/search?q="+url.QueryEscape("<script>"), nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad query: expected 400, got %d", resp.StatusCode)
	}

	var all []domain.Product
	env := decode(t, do(t, app, httptest.NewRequest("GET", "/api/v1/products/search?q=", nil)), &all)
	if !env.Success || len(all) != 0 {
		t.Fatalf("empty catalog search: %+v", env)
	}

	resp = do(t, app, httptest.NewRequest("GET", "/api/v1/products/bad%20id", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", resp.StatusCode)
	}
}

// Empty reads still carry a data list so clients can render an empty state.
func TestEmptyReadsReturnEmptyList(t *testing.T) {
	app, _ := newApp(t)
	for _, path := range []string{
		"/api/v1/products/search?q=zzzz",
		"/api/v1/products?category=cake",
		"/api/v1/favorites",
		"/api/v1/sections/cake",
		"/api/v1/home/featured",
	} {
		resp := do(t, app, httptest.NewRequest("GET", path, nil))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if env := decode(t, resp, nil); !env.Success || string(env.Data) != "[]" {
			t.Fatalf("%s: expected data [], got %s", path, env.Data)
		}
	}
	resp := do(t, app, asAdmin(httptest.NewRequest("GET", "/api/v1/admin/requests", nil)))
	if env := decode(t, resp, nil); string(env.Data) != "[]" {
		t.Fatalf("empty queue: got %s", env.Data)
	}
}
