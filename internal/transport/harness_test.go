package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inventario/internal/domain"
	"inventario/internal/flatfile"
	"inventario/internal/middleware"
	"inventario/internal/repository"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const testPassword = "correct-horse-battery"

type testApp struct {
	router    http.Handler
	redis     *miniredis.Miniredis
	products  *mockProductRepository
	purchases *mockPurchaseRepository
	customers *mockCustomerRepository
	users     service.UserService
	fs        afero.Fs
}

func newTestApp(t *testing.T, products ...*domain.Product) *testApp {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	productRepo := newMockProductRepository(products...)
	purchaseRepo := newMockPurchaseRepository(productRepo)
	customerRepo := newMockCustomerRepository()
	userRepo := newMockUserRepository()
	cartRepo := repository.NewCartRepository(client, time.Hour)

	userService := service.NewUserService(userRepo)
	productService := service.NewProductService(productRepo)
	customerService := service.NewCustomerService(customerRepo)
	checkoutService := service.NewCheckoutService(productRepo, purchaseRepo, nil, logger)
	cartService := service.NewCartService(cartRepo, productRepo, checkoutService, logger)
	statsService := service.NewStatsService(productRepo, userRepo, purchaseRepo)

	fs := afero.NewMemMapFs()
	store, err := flatfile.NewStore(fs, "instance")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	sessions := session.NewManager(client, "inventario_session", "test-secret-key-at-least-32-bytes!", time.Hour, false)

	router := chi.NewRouter()
	router.Use(middleware.SessionMiddleware(sessions, logger))
	passThrough := func(next http.Handler) http.Handler { return next }

	NewUserHandler(userService, cartService, statsService, sessions, logger).RegisterRoutes(router, passThrough)
	NewProductHandler(productService, checkoutService, logger).RegisterRoutes(router)
	NewCustomerHandler(customerService, logger).RegisterRoutes(router)
	NewCartHandler(cartService, checkoutService, logger).RegisterRoutes(router)
	NewExportHandler(productService, store, logger).RegisterRoutes(router)
	NewInfoHandler().RegisterRoutes(router)

	return &testApp{
		router:    router,
		redis:     mr,
		products:  productRepo,
		purchases: purchaseRepo,
		customers: customerRepo,
		users:     userService,
		fs:        fs,
	}
}

// client carries the session cookie between requests like a browser
type client struct {
	t      *testing.T
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name != "inventario_session" {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// page fetches path and decodes the envelope
func (c *client) page(path string) Page {
	c.t.Helper()
	w := c.get(path)
	if w.Code != http.StatusOK {
		c.t.Fatalf("GET %s: expected 200, got %d: %s", path, w.Code, w.Body.String())
	}
	var p Page
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		c.t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return p
}

// flashes returns the messages waiting on the next rendered page
func (c *client) flashes() []session.Flash {
	return c.page("/productos").Flashes
}

func (c *client) login(email string) {
	c.t.Helper()
	w := c.post("/login", url.Values{"email": {email}, "password": {testPassword}})
	if w.Code != http.StatusSeeOther {
		c.t.Fatalf("login %s: expected 303, got %d: %s", email, w.Code, w.Body.String())
	}
}

func (a *testApp) buyer(t *testing.T) *client {
	t.Helper()
	if _, err := a.users.Register(context.Background(), "Ana", "ana@example.com", testPassword); err != nil {
		t.Fatalf("register buyer: %v", err)
	}
	c := a.client(t)
	c.login("ana@example.com")
	c.flashes()
	return c
}

func (a *testApp) admin(t *testing.T) *client {
	t.Helper()
	if _, _, err := a.users.EnsureAdmin(context.Background(), "Root", "root@example.com", testPassword); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	c := a.client(t)
	c.login("root@example.com")
	c.flashes()
	return c
}

func widget() *domain.Product {
	return &domain.Product{ID: 1, Name: "Widget", Quantity: 5, Price: decimal.RequireFromString("9.99")}
}

func gadget() *domain.Product {
	return &domain.Product{ID: 2, Name: "Gadget", Quantity: 10, Price: decimal.RequireFromString("2.50")}
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func assertFlash(t *testing.T, flashes []session.Flash, kind, contains string) {
	t.Helper()
	for _, f := range flashes {
		if f.Kind == kind && strings.Contains(f.Message, contains) {
			return
		}
	}
	t.Fatalf("expected %s flash containing %q, got %+v", kind, contains, flashes)
}
