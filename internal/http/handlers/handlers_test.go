package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"stitchkart/internal/http/handlers"
	"stitchkart/internal/repos"
	"stitchkart/internal/responder"
	"stitchkart/internal/services"
	"stitchkart/internal/staticdata"
)

// testApp wires the JSON routes over a freshly seeded in-memory DB, the
// same way the entry point does (no template engine: the page route is
// not under test here).
func testApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	static, err := staticdata.Load()
	if err != nil {
		t.Fatal(err)
	}

	products := repos.NewProductRepo(db)
	quota := services.NewQuotaService(repos.NewQuotaRepo(db), 100)
	resolver := services.NewResolverService(products, quota, nil, static, "rapidapi")
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	chat := services.NewChatService(resolver, responder.NewTemplate(), repos.NewConversationRepo(db))
	deps := handlers.NewDeps(chat, resolver, quota, auth)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/chat", deps.ChatHandler.Message)
	api.Get("/search", deps.SearchHandler.Search)
	api.Post("/login", deps.AuthHandler.Login)
	api.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/admin/quota", handlers.RequireAdmin(auth), deps.AdminHandler.QuotaUsage)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatal(err)
	}
}

func TestChatEndpoint_SearchTurn(t *testing.T) {
	app := testApp(t)

	resp := postJSON(t, app, "/api/v1/chat", map[string]string{"message": "blue shirts for men under 1000"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Reply    string `json:"reply"`
		Intent   string `json:"intent"`
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	decode(t, resp, &out)
	if out.Intent != "search" || out.Reply == "" {
		t.Fatalf("intent=%q reply=%q", out.Intent, out.Reply)
	}
	if len(out.Products) != 1 || out.Products[0].ID != "sk-shirt-001" {
		t.Fatalf("products = %+v", out.Products)
	}

	// A fresh visitor gets a session cookie.
	var sawSID bool
	for _, c := range resp.Cookies() {
		if c.Name == "sid" && c.Value != "" {
			sawSID = true
		}
	}
	if !sawSID {
		t.Fatal("chat must set the sid cookie")
	}
}

func TestChatEndpoint_AcceptsCallerSessionID(t *testing.T) {
	app := testApp(t)
	resp := postJSON(t, app, "/api/v1/chat", map[string]string{
		"sessionId": "api-session-123", "message": "hello",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Intent string `json:"intent"`
	}
	decode(t, resp, &out)
	if out.Intent != "greeting" {
		t.Fatalf("intent = %q, want greeting", out.Intent)
	}
}

func TestChatEndpoint_RejectsEmptyMessage(t *testing.T) {
	app := testApp(t)
	resp := postJSON(t, app, "/api/v1/chat", map[string]string{"message": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndpoint_FreeTextAndExplicitArgs(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=shirts+for+men&maxPrice=1000", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Tier    string `json:"tier"`
		Results []struct {
			ID       string  `json:"id"`
			Price    float64 `json:"price"`
			Category string  `json:"category"`
		} `json:"results"`
	}
	decode(t, resp, &out)
	if out.Tier != "cache" {
		t.Fatalf("tier = %q", out.Tier)
	}
	for _, r := range out.Results {
		if r.Category != "Shirts" || r.Price > 1000 {
			t.Fatalf("filter leaked: %+v", r)
		}
	}
	if len(out.Results) == 0 {
		t.Fatal("seeded shirt under 1000 should match")
	}
}

func TestSearchEndpoint_RejectsBadArgs(t *testing.T) {
	app := testApp(t)

	for _, path := range []string{
		"/api/v1/search?maxPrice=abc",
		"/api/v1/search?maxPrice=-5",
		"/api/v1/search?category=%3Bdrop%20table",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, 5000)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestAdminQuota_RequiresAdminLogin(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/quota", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", resp.StatusCode)
	}

	// A plain USER login is not enough.
	resp = postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "priya@stitchkart.test", "password": "Passw0rd!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user login: status = %d", resp.StatusCode)
	}
	userCookies := resp.Cookies()

	req = httptest.NewRequest(http.MethodGet, "/admin/quota", nil)
	for _, c := range userCookies {
		req.AddCookie(c)
	}
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user role: status = %d, want 403", resp.StatusCode)
	}

	// The ADMIN sees the counters.
	resp = postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "admin@stitchkart.test", "password": "Passw0rd!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login: status = %d", resp.StatusCode)
	}
	req = httptest.NewRequest(http.MethodGet, "/admin/quota", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin: status = %d", resp.StatusCode)
	}
	var out struct {
		Month string `json:"month"`
		Limit int    `json:"limit"`
	}
	decode(t, resp, &out)
	if out.Month == "" || out.Limit != 100 {
		t.Fatalf("payload: %+v", out)
	}
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	app := testApp(t)
	resp := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "priya@stitchkart.test", "password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
