package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"shop-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", "secreto", true)

	rec := env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Hogar"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "Category Created", body["message"])
	assert.Equal(t, "Hogar", body["category"].(map[string]interface{})["name"])

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Hogar"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category name already exist", decodeMap(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]string{}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name required", decodeMap(t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decodeList(t, rec)
	require.Len(t, categories, 1)
	assert.Equal(t, "Hogar", categories[0]["name"])
}

func TestSubcategories(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", "secreto", true)
	category := model.Category{Name: "Hogar"}
	require.NoError(t, env.db.Create(&category).Error)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		key    string
		want   string
	}{
		{name: "missing name", body: map[string]interface{}{"category_id": category.ID}, status: http.StatusBadRequest, key: "error", want: "name required"},
		{name: "missing category", body: map[string]interface{}{"name": "Velas"}, status: http.StatusBadRequest, key: "error", want: "category_id required"},
		{name: "unknown category", body: map[string]interface{}{"name": "Velas", "category_id": 999}, status: http.StatusBadRequest, key: "error", want: "category not found"},
		{name: "created", body: map[string]interface{}{"name": "Velas", "category_id": category.ID}, status: http.StatusOK, key: "message", want: "Subcategory Created"},
		{name: "duplicate", body: map[string]interface{}{"name": "Velas", "category_id": category.ID}, status: http.StatusBadRequest, key: "error", want: "subcategory name already exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/subcategories", tt.body, adminToken)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, decodeMap(t, rec)[tt.key])
		})
	}

	rec := env.do(t, http.MethodGet, "/api/subcategories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decodeList(t, rec)
	require.Len(t, subs, 1)
	assert.Equal(t, float64(category.ID), subs[0]["category_id"])
}

func TestDeleteCategoryAndSubcategory(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", "secreto", true)
	hogar, sub, _ := env.seedCatalog(t, "Hogar", map[string]string{"Vela": "3"})
	empty := model.Category{Name: "Vacía"}
	require.NoError(t, env.db.Create(&empty).Error)

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", hogar.ID), nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/categories/999", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/subcategories/999", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", empty.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Categoría eliminada correctamente", decodeMap(t, rec)["message"])

	require.NoError(t, env.db.Where("1 = 1").Delete(&model.Product{}).Error)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", hogar.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countRows(t, env.db, &model.Category{}))
}
