package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	journal := NewDomainGroup("journal", "/journal-entries")
	journal.GET("", func(c *gin.Context) { c.String(http.StatusOK, "entries") })
	exports := NewDomainGroup("exports", "/exports")
	exports.GET("/ledger-text", func(c *gin.Context) { c.String(http.StatusOK, "fec") })

	r.Register(journal).Register(exports).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/journal-entries")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "entries", w.Body.String())
	assert.Equal(t, "fec", serve(engine, http.MethodGet, "/api/v1/exports/ledger-text").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/exports/ledger-text").Code)
}

func TestRouterUse_AppliesToAPIOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Scoped", "api")
		c.Next()
	})
	accounts := NewDomainGroup("accounts", "/accounts")
	accounts.GET("", func(c *gin.Context) { c.String(http.StatusOK, "accounts") })
	r.Register(accounts).Setup()

	assert.Equal(t, "api", serve(engine, http.MethodGet, "/api/v1/accounts").Header().Get("X-Scoped"))
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-Scoped"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("payments", "/payments")
		assert.Equal(t, "payments", g.Name())
		assert.Equal(t, "/payments", g.Prefix())
	})

	t.Run("methods chain", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payments", "/payments")
		g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
			POST("/lump-sum", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/payments/42").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/payments/lump-sum").Code)
		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodDelete, "/api/v1/payments/42").Code)
	})

	t.Run("group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("exports", "/exports")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/audit-file", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "applied", serve(engine, http.MethodGet, "/api/v1/exports/audit-file").Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("exports", "/exports")
		g.Group("invoices", "/invoices").GET("/:id/cii", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/exports/invoices/abc/cii")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc", w.Body.String())
	})
}
