package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"shop-service/internal/cache"
	"shop-service/internal/handler"
	"shop-service/internal/model"
	"shop-service/pkg/config"
	"shop-service/pkg/database"
	"shop-service/pkg/jwtutil"
	"shop-service/pkg/logger"
	"shop-service/pkg/password"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	password.SetCost(bcrypt.MinCost)
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "server-secret", ExpirationHours: 1})
	logger.SetLogger(zap.NewNop())
	cache.Set(nil)
	os.Exit(m.Run())
}

func serve(e *echo.Echo, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHTTPErrorHandler(t *testing.T) {
	e := New(zap.NewNop())
	e.GET("/_test/api", func(c echo.Context) error {
		return handler.NewAPIError(http.StatusConflict, "conflicto")
	})
	e.GET("/_test/form", func(c echo.Context) error {
		return handler.NewFormError("price invalid")
	})
	e.GET("/_test/plain", func(c echo.Context) error {
		return errors.New("pq: relation users does not exist")
	})
	e.GET("/_test/panic", func(c echo.Context) error {
		panic("boom")
	})

	tests := []struct {
		name   string
		path   string
		status int
		key    string
		want   string
	}{
		{name: "api error", path: "/_test/api", status: http.StatusConflict, key: "message", want: "conflicto"},
		{name: "form error", path: "/_test/form", status: http.StatusBadRequest, key: "error", want: "price invalid"},
		{name: "internal error is hidden", path: "/_test/plain", status: http.StatusInternalServerError, key: "message", want: "Error interno del servidor"},
		{name: "panic is recovered", path: "/_test/panic", status: http.StatusInternalServerError, key: "message", want: "Error interno del servidor"},
		{name: "unknown route", path: "/nope", status: http.StatusNotFound, key: "message", want: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)[tt.key])
		})
	}
}

func TestValidator_UsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&struct {
		NewPassword string `json:"new_password" validate:"required"`
	}{})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "new_password", verrs[0].Field())
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	e := New(zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set(echo.HeaderOrigin, "https://tienda.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCheckoutFlow(t *testing.T) {
	conn, err := database.Open(&config.DBConfig{URL: "sqlite::memory:", LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	database.SetDB(conn)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	category := model.Category{Name: "Hogar"}
	require.NoError(t, conn.Create(&category).Error)
	sub := model.Subcategory{Name: "Velas", CategoryID: category.ID}
	require.NoError(t, conn.Omit("Category").Create(&sub).Error)
	product := model.Product{
		Name: "Vela", PublicID: "mygallery/vela", Photo: "https://img.example/vela.jpg",
		Amount: 3, Price: decimal.RequireFromString("7.25"), CategoryID: category.ID, SubcategoryID: sub.ID,
	}
	require.NoError(t, conn.Omit("Category", "Subcategory", "Stock").Create(&product).Error)

	e := New(zap.NewNop())

	rec := serve(e, http.MethodPost, "/api/register", map[string]string{
		"name": "Ana", "lastname": "Lopez", "email": "ana@example.com", "password": "secreto",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/login", map[string]string{"email": "ana@example.com", "password": "secreto"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode(t, rec)["token"].(string)

	rec = serve(e, http.MethodPost, "/api/order", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/orders", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var orders []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, 14.5, orders[0]["total"])

	// Catalog writes stay closed to customers.
	rec = serve(e, http.MethodPost, "/api/categories", map[string]string{"name": "Otra"}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
