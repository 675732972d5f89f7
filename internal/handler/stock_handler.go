package handler

import (
	"net/http"
	"shop-service/internal/cache"
	"shop-service/internal/model"
	"shop-service/pkg/logger"
	"shop-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// AddStock records an intake and raises the product amount in the same transaction
func AddStock(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "La cantidad debe ser mayor que cero"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "La cantidad debe ser mayor que cero"})
	}

	defer prometheus.TrackDBOperation("insert")()

	entry := model.Stock{ProductsID: id, Quantity: req.Quantity}
	err = db(c).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Select("id").First(&product, id).Error; err != nil {
			if isNotFound(err) {
				return NewAPIError(http.StatusNotFound, "Producto no encontrado")
			}
			return err
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&model.Product{}).
			Where("id = ?", id).
			UpdateColumn("amount", gorm.Expr("amount + ?", req.Quantity)).Error
	})
	if err != nil {
		if ok, werr := respondAPIError(c, err); ok {
			return werr
		}
		log.Error("Failed to add stock", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo registrar el stock")
	}

	cache.Invalidate(c.Request().Context(), cache.KeyProducts)
	prometheus.RecordCatalogOperation("stock", "create")
	log.Info("Stock added", zap.Uint("product_id", id), zap.Int("quantity", req.Quantity))

	return c.JSON(http.StatusCreated, entry)
}

// ListStock returns the intake history of a product, newest first
func ListStock(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	defer prometheus.TrackDBOperation("query")()

	var count int64
	if err := db(c).Model(&model.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		log.Error("Failed to check product", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo obtener el stock")
	}
	if count == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	entries := []model.Stock{}
	if err := db(c).Where("products_id = ?", id).Order("date_in DESC, id DESC").Find(&entries).Error; err != nil {
		log.Error("Failed to list stock", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo obtener el stock")
	}

	return c.JSON(http.StatusOK, entries)
}
