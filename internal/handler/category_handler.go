package handler

import (
	"net/http"
	"shop-service/internal/cache"
	"shop-service/internal/model"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories returns every category
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := cache.Remember(c.Request().Context(), cache.KeyCategories, func() (interface{}, error) {
		defer prometheus.TrackDBOperation("query")()
		categories := []model.Category{}
		err := db(c).Order("id").Find(&categories).Error
		return categories, err
	})
	if err != nil {
		log.Error("Failed to list categories", zap.Error(err))
		return internalError(c, "No se pudieron obtener las categorías")
	}

	return c.JSONBlob(http.StatusOK, body)
}

// CreateCategory adds a category with a unique name
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	defer prometheus.TrackDBOperation("insert")()

	var count int64
	if err := db(c).Model(&model.Category{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		log.Error("Failed to check category name", zap.Error(err))
		return internalError(c, "No se pudo crear la categoría")
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name already exist"})
	}

	category := model.Category{Name: req.Name}
	if err := db(c).Create(&category).Error; err != nil {
		log.Error("Failed to create category", zap.Error(err))
		return internalError(c, "No se pudo crear la categoría")
	}

	cache.Invalidate(c.Request().Context(), cache.KeyCategories)
	prometheus.RecordCatalogOperation("category", "create")
	log.Info("Category created", zap.Uint("category_id", category.ID), zap.String("name", category.Name))

	return c.JSON(http.StatusOK, echo.Map{"message": "Category Created", "category": category})
}

// DeleteCategory removes a category no product or subcategory refers to
func DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Identificador inválido"})
	}

	var category model.Category
	if err := db(c).First(&category, id).Error; err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Categoría no encontrada"})
		}
		log.Error("Failed to load category", zap.Error(err))
		return internalError(c, "No se pudo eliminar la categoría")
	}

	inUse, err := referenced(c, id, "category_id", &model.Product{}, &model.Subcategory{})
	if err != nil {
		log.Error("Failed to check category references", zap.Error(err))
		return internalError(c, "No se pudo eliminar la categoría")
	}
	if inUse {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "La categoría tiene productos o subcategorías asociadas"})
	}

	defer prometheus.TrackDBOperation("delete")()
	if err := db(c).Delete(&category).Error; err != nil {
		log.Error("Failed to delete category", zap.Error(err))
		return internalError(c, "No se pudo eliminar la categoría")
	}

	cache.Invalidate(c.Request().Context(), cache.KeyCategories)
	prometheus.RecordCatalogOperation("category", "delete")
	log.Info("Category deleted", zap.Uint("category_id", id))

	return c.JSON(http.StatusOK, echo.Map{"message": "Categoría eliminada correctamente"})
}

// referenced reports whether any row of the given models has column = id
func referenced(c echo.Context, id uint, column string, models ...interface{}) (bool, error) {
	for _, m := range models {
		var count int64
		if err := db(c).Model(m).Where(column+" = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
