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

type subcategoryRequest struct {
	Name       string `json:"name"`
	CategoryID *uint  `json:"category_id"`
}

// ListSubcategories returns every subcategory
func ListSubcategories(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := cache.Remember(c.Request().Context(), cache.KeySubcategories, func() (interface{}, error) {
		defer prometheus.TrackDBOperation("query")()
		subcategories := []model.Subcategory{}
		err := db(c).Order("id").Find(&subcategories).Error
		return subcategories, err
	})
	if err != nil {
		log.Error("Failed to list subcategories", zap.Error(err))
		return internalError(c, "No se pudieron obtener las subcategorías")
	}

	return c.JSONBlob(http.StatusOK, body)
}

// CreateSubcategory adds a subcategory under an existing category
func CreateSubcategory(c echo.Context) error {
	log := logger.FromContext(c)

	var req subcategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.CategoryID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_id required"})
	}

	defer prometheus.TrackDBOperation("insert")()

	var count int64
	if err := db(c).Model(&model.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil {
		log.Error("Failed to check category", zap.Error(err))
		return internalError(c, "No se pudo crear la subcategoría")
	}
	if count == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category not found"})
	}

	if err := db(c).Model(&model.Subcategory{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		log.Error("Failed to check subcategory name", zap.Error(err))
		return internalError(c, "No se pudo crear la subcategoría")
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subcategory name already exist"})
	}

	subcategory := model.Subcategory{Name: req.Name, CategoryID: *req.CategoryID}
	if err := db(c).Omit("Category").Create(&subcategory).Error; err != nil {
		log.Error("Failed to create subcategory", zap.Error(err))
		return internalError(c, "No se pudo crear la subcategoría")
	}

	cache.Invalidate(c.Request().Context(), cache.KeySubcategories)
	prometheus.RecordCatalogOperation("subcategory", "create")
	log.Info("Subcategory created", zap.Uint("subcategory_id", subcategory.ID), zap.Uint("category_id", subcategory.CategoryID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Subcategory Created", "subcategory": subcategory})
}

// DeleteSubcategory removes a subcategory no product refers to
func DeleteSubcategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Identificador inválido"})
	}

	var subcategory model.Subcategory
	if err := db(c).First(&subcategory, id).Error; err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Subcategoría no encontrada"})
		}
		log.Error("Failed to load subcategory", zap.Error(err))
		return internalError(c, "No se pudo eliminar la subcategoría")
	}

	inUse, err := referenced(c, id, "subcategory_id", &model.Product{})
	if err != nil {
		log.Error("Failed to check subcategory references", zap.Error(err))
		return internalError(c, "No se pudo eliminar la subcategoría")
	}
	if inUse {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "La subcategoría tiene productos asociados"})
	}

	defer prometheus.TrackDBOperation("delete")()
	if err := db(c).Delete(&subcategory).Error; err != nil {
		log.Error("Failed to delete subcategory", zap.Error(err))
		return internalError(c, "No se pudo eliminar la subcategoría")
	}

	cache.Invalidate(c.Request().Context(), cache.KeySubcategories)
	prometheus.RecordCatalogOperation("subcategory", "delete")
	log.Info("Subcategory deleted", zap.Uint("subcategory_id", id))

	return c.JSON(http.StatusOK, echo.Map{"message": "Subcategoría eliminada correctamente"})
}
