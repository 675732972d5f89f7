package handler

import (
	"net/http"
	"shop-service/internal/middleware"
	"shop-service/internal/model"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultAddress is used when the checkout sends no address
const defaultAddress = "Direccion de Prueba"

// orderItemRequest is one cart line. Price and name sent by the client are
// ignored in favour of the catalog.
type orderItemRequest struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Name      string           `json:"name,omitempty"`
}

type createOrderRequest struct {
	Items          []orderItemRequest `json:"items"`
	Total          *decimal.Decimal   `json:"total,omitempty"`
	Address        string             `json:"address"`
	DeliverAddress string             `json:"deliver_address"`
}

type orderItemResponse struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Photo     string          `json:"photo"`
}

type orderResponse struct {
	ID    uint                `json:"id"`
	Total decimal.Decimal     `json:"total"`
	Date  time.Time           `json:"date"`
	Items []orderItemResponse `json:"items"`
}

// CreateOrder inserts an order and its detail lines in one transaction
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Missing Authorization Header"})
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Faltan datos"})
	}
	for _, item := range req.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Cantidad o producto inválido"})
		}
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = defaultAddress
	}
	deliverAddress := strings.TrimSpace(req.DeliverAddress)
	if deliverAddress == "" {
		deliverAddress = address
	}

	defer prometheus.TrackDBOperation("insert")()

	order := model.Order{
		Address:        address,
		DeliverAddress: deliverAddress,
		Status:         model.OrderStatusOK,
		UserID:         userID,
	}

	err := db(c).Transaction(func(tx *gorm.DB) error {
		details, err := buildOrderDetails(tx, req.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, d := range details {
			total = total.Add(d.LineTotal())
		}
		if !model.PriceFits(total) {
			return NewAPIError(http.StatusBadRequest, "Total de la orden inválido")
		}
		order.Price = total

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		for i := range details {
			details[i].OrderID = order.ID
		}
		return tx.Omit(clause.Associations).Create(&details).Error
	})
	if err != nil {
		if ok, werr := respondAPIError(c, err); ok {
			return werr
		}
		log.Error("Failed to create order", zap.Error(err), zap.Uint("user_id", userID))
		return internalError(c, "No se pudo crear la orden")
	}

	if req.Total != nil && !req.Total.Equal(order.Price) {
		log.Info("Client total differs from catalog total",
			zap.String("client_total", req.Total.String()),
			zap.String("total", order.Price.String()))
	}

	total, _ := order.Price.Float64()
	prometheus.RecordOrder(total)
	log.Info("Order created", zap.Uint("order_id", order.ID), zap.Uint("user_id", userID), zap.String("total", order.Price.String()))

	return c.JSON(http.StatusOK, echo.Map{"message": "Orden Creada con éxito", "order_id": order.ID})
}

// buildOrderDetails prices each line from the catalog
func buildOrderDetails(tx *gorm.DB, items []orderItemRequest) ([]model.OrderDetail, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []model.Product
	if err := tx.Select("id", "name", "price").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	details := make([]model.OrderDetail, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, NewAPIError(http.StatusBadRequest, "Producto no encontrado")
		}
		details = append(details, model.OrderDetail{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     p.Price,
		})
	}
	return details, nil
}

// ListOrders returns the caller's orders, newest first
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Missing Authorization Header"})
	}

	defer prometheus.TrackDBOperation("query")()

	var orders []model.Order
	err := db(c).
		Preload("Details", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		Preload("Details.Product").
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err), zap.Uint("user_id", userID))
		return internalError(c, "No se pudieron obtener las órdenes")
	}
	if len(orders) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No se encontraron órdenes"})
	}

	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResponse, 0, len(o.Details))
		for _, d := range o.Details {
			name := d.Product.Name
			if name == "" {
				name = d.Name
			}
			items = append(items, orderItemResponse{
				ProductID: d.ProductID,
				Quantity:  d.Quantity,
				Price:     d.Price,
				Name:      name,
				Photo:     d.Product.Photo,
			})
		}
		result = append(result, orderResponse{ID: o.ID, Total: o.Price, Date: o.Date, Items: items})
	}

	return c.JSON(http.StatusOK, result)
}
