package handler_test

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"shop-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productNames(t *testing.T, env *testEnv) map[string]float64 {
	t.Helper()

	rec := env.do(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	amounts := map[string]float64{}
	for _, p := range decodeList(t, rec) {
		amounts[p["name"].(string)] = p["amount"].(float64)
	}
	return amounts
}

func TestProductList_ServedFromCacheUntilWrite(t *testing.T) {
	env := newTestEnv(t)
	mr := env.withCache(t)
	_, adminToken := env.createUser(t, "admin@example.com", "secreto", true)
	hogar, sub, products := env.seedCatalog(t, "Hogar", map[string]string{"Vela": "3"})
	vela := products[0]

	assert.Equal(t, map[string]float64{"Vela": 10}, productNames(t, env))
	assert.True(t, mr.Exists("shop-test:products:all"))

	// A write that bypasses the handlers is not visible while the entry lives.
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", vela.ID).Update("name", "Vela vieja").Error)
	assert.Equal(t, map[string]float64{"Vela": 10}, productNames(t, env))
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", vela.ID).Update("name", "Vela").Error)

	t.Run("update", func(t *testing.T) {
		rec := env.doForm(t, http.MethodPut, fmt.Sprintf("/api/products/%d", vela.ID), map[string]string{"name": "Vela grande"}, "", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, mr.Exists("shop-test:products:all"))
		assert.Equal(t, map[string]float64{"Vela grande": 10}, productNames(t, env))
	})

	t.Run("stock intake", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/products/%d/stock", vela.ID), map[string]int{"quantity": 5}, adminToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]float64{"Vela grande": 15}, productNames(t, env))
	})

	t.Run("create", func(t *testing.T) {
		rec := env.doForm(t, http.MethodPost, "/api/products", map[string]string{
			"name":           "Taza",
			"amount":         "2",
			"category_id":    strconv.Itoa(int(hogar.ID)),
			"subcategory_id": strconv.Itoa(int(sub.ID)),
			"price":          "5",
		}, "taza.jpg", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]float64{"Vela grande": 15, "Taza": 2}, productNames(t, env))
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", vela.ID), nil, adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]float64{"Taza": 2}, productNames(t, env))
	})
}

func TestCategoryLists_InvalidatedOnWrite(t *testing.T) {
	env := newTestEnv(t)
	mr := env.withCache(t)
	_, adminToken := env.createUser(t, "admin@example.com", "secreto", true)

	count := func(path string) int {
		rec := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return len(decodeList(t, rec))
	}

	assert.Equal(t, 0, count("/api/categories"))
	assert.Equal(t, 0, count("/api/subcategories"))
	assert.True(t, mr.Exists("shop-test:categories:all"))
	assert.True(t, mr.Exists("shop-test:subcategories:all"))

	rec := env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Hogar"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	categoryID := decodeMap(t, rec)["category"].(map[string]interface{})["id"].(float64)
	assert.Equal(t, 1, count("/api/categories"))

	rec = env.do(t, http.MethodPost, "/api/subcategories", map[string]interface{}{"name": "Velas", "category_id": categoryID}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, count("/api/subcategories"))

	var sub model.Subcategory
	require.NoError(t, env.db.Where("name = ?", "Velas").First(&sub).Error)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, count("/api/subcategories"))

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", int(categoryID)), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, count("/api/categories"))
}
