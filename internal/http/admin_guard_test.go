package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// The admin API refuses missing and wrong tokens and logs the denial.
func TestAdminAPIRequiresToken(t *testing.T) {
	app, _ := newApp(t)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = do(t, app, httptest.NewRequest("GET", "/api/v1/admin/requests", nil))
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", resp.StatusCode)
	}
	env := decode(t, resp, nil)
	if env.Success || env.Kind != "permission_denied" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if findLog(entries, "access.denied.admin") == nil {
		t.Fatalf("expected access.denied.admin log, got %+v", entries)
	}

	bad := httptest.NewRequest("GET", "/api/v1/admin/requests", nil)
	bad.Header.Set("X-Admin-Token", "guess")
	if resp := do(t, app, bad); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong token: expected 403, got %d", resp.StatusCode)
	}

	resp = do(t, app, asAdmin(httptest.NewRequest("GET", "/api/v1/admin/requests", nil)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", resp.StatusCode)
	}
	if env := decode(t, resp, nil); !env.Success {
		t.Fatalf("admin: unexpected envelope %+v", env)
	}
}

// Admin pages redirect strangers to the token form; a successful sign-in sets
// the session cookie and opens the queue.
func TestAdminPagesLoginFlow(t *testing.T) {
	app, _ := newApp(t)

	resp := do(t, app, httptest.NewRequest("GET", "/admin/requests", nil))
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	form := do(t, app, httptest.NewRequest("GET", "/admin/login", nil))
	csrfTok := cookie(form, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	// missing csrf -> 403
	noCSRF := formRequest("POST", "/admin/login", "token="+adminToken)
	if resp := do(t, app, noCSRF); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf, got %d", resp.StatusCode)
	}

	badReq := formRequest("POST", "/admin/login", "csrf="+csrfTok+"&token=nope")
	badReq.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	if resp := do(t, app, badReq); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}

	var login *http.Response
	entries := captureLogs(t, func() {
		req := formRequest("POST", "/admin/login", "csrf="+csrfTok+"&token="+adminToken)
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
		login = do(t, app, req)
	})
	if login.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", login.StatusCode)
	}
	session := cookie(login, "admin_token")
	if session == "" {
		t.Fatal("admin cookie not set")
	}
	if e := findLog(entries, "admin.login"); e == nil || e.Level != "audit" || e.Actor != "admin" {
		t.Fatalf("expected admin.login audit entry, got %+v", entries)
	}

	page := httptest.NewRequest("GET", "/admin/requests", nil)
	page.AddCookie(&http.Cookie{Name: "admin_token", Value: session})
	if resp := do(t, app, page); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected queue page, got %d", resp.StatusCode)
	}
}

// The page session cookie does not open the JSON admin API, which has no csrf
// check of its own.
func TestAdminAPIIgnoresSessionCookie(t *testing.T) {
	app, _ := newApp(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/admin/requests"},
		{"POST", "/api/v1/admin/requests/abc/approve"},
		{"DELETE", "/api/v1/admin/products/abc"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.AddCookie(&http.Cookie{Name: "admin_token", Value: adminToken})
		if resp := do(t, app, req); resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s with cookie only: expected 403, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}
