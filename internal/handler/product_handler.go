package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"shop-service/internal/cache"
	"shop-service/internal/model"
	"shop-service/pkg/imagestore"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// relatedLimit caps the products returned by GetRelatedProducts
const relatedLimit = 4

// productQuery preloads the names a serialized product carries
func productQuery(c echo.Context) *gorm.DB {
	return db(c).Preload("Category").Preload("Subcategory")
}

// ListProducts returns the whole catalog
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := cache.Remember(c.Request().Context(), cache.KeyProducts, func() (interface{}, error) {
		defer prometheus.TrackDBOperation("query")()
		return allProducts(c)
	})
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return internalError(c, "No se pudieron obtener los productos")
	}

	return c.JSONBlob(http.StatusOK, body)
}

// GetProduct returns a single product
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	defer prometheus.TrackDBOperation("query")()

	var product model.Product
	if err := productQuery(c).First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
		}
		log.Error("Failed to load product", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo obtener el producto")
	}

	return c.JSON(http.StatusOK, product)
}

// GetProductsByCategory lists the products of a category, 404 when there are none
func GetProductsByCategory(c echo.Context) error {
	log := logger.FromContext(c)

	categoryID, err := paramID(c, "category_id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	defer prometheus.TrackDBOperation("query")()

	products := []model.Product{}
	if err := productQuery(c).Where("category_id = ?", categoryID).Order("id").Find(&products).Error; err != nil {
		log.Error("Failed to list products by category", zap.Error(err))
		return internalError(c, "No se pudieron obtener los productos")
	}
	if len(products) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Producto no encontrado"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProductsByCategoryAndSubcategory lists the products of a subcategory
func GetProductsByCategoryAndSubcategory(c echo.Context) error {
	log := logger.FromContext(c)

	categoryID, err := paramID(c, "category_id")
	if err != nil {
		return c.JSON(http.StatusOK, []model.Product{})
	}
	subcategoryID, err := paramID(c, "subcategory_id")
	if err != nil {
		return c.JSON(http.StatusOK, []model.Product{})
	}

	defer prometheus.TrackDBOperation("query")()

	products := []model.Product{}
	err = productQuery(c).
		Where("category_id = ? AND subcategory_id = ?", categoryID, subcategoryID).
		Order("id").
		Find(&products).Error
	if err != nil {
		log.Error("Failed to list products by subcategory", zap.Error(err))
		return internalError(c, "No se pudieron obtener los productos")
	}

	return c.JSON(http.StatusOK, products)
}

// GetRelatedProducts returns a random sample of products from a category
func GetRelatedProducts(c echo.Context) error {
	log := logger.FromContext(c)

	categoryID, err := paramID(c, "category_id")
	if err != nil {
		return c.JSON(http.StatusOK, []model.Product{})
	}

	defer prometheus.TrackDBOperation("query")()

	products := []model.Product{}
	err = productQuery(c).
		Where("category_id = ?", categoryID).
		Order("RANDOM()").
		Limit(relatedLimit).
		Find(&products).Error
	if err != nil {
		log.Error("Failed to list related products", zap.Error(err))
		return internalError(c, "No se pudieron obtener los productos")
	}

	return c.JSON(http.StatusOK, products)
}

// SearchProducts matches product names case-insensitively; an empty query returns everything
func SearchProducts(c echo.Context) error {
	log := logger.FromContext(c)
	q := strings.TrimSpace(c.QueryParam("q"))

	defer prometheus.TrackDBOperation("query")()

	var (
		products []model.Product
		err      error
	)
	if q == "" {
		products, err = allProducts(c)
	} else {
		products = []model.Product{}
		err = productQuery(c).
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%").
			Order("id").
			Find(&products).Error
	}
	if err != nil {
		log.Error("Failed to search products", zap.Error(err), zap.String("q", q))
		return internalError(c, "No se pudieron obtener los productos")
	}

	return c.JSON(http.StatusOK, products)
}

// CreateProduct adds a product from a multipart form and uploads its photo
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	photo, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo required"})
	}
	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo required"})
	}

	for _, field := range []string{"name", "amount", "category_id", "subcategory_id", "price"} {
		if _, ok := formValue(form, field); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " required"})
		}
	}

	name, _ := formValue(form, "name")
	product := model.Product{Name: name}
	if err := applyProductForm(&product, form); err != nil {
		return err
	}

	if apiErr := checkProductRefs(c, &product); apiErr != nil {
		return apiErr
	}
	if apiErr := checkProductName(c, product.Name, 0); apiErr != nil {
		return apiErr
	}

	image, err := uploadPhoto(ctx, photo)
	if err != nil {
		log.Error("Failed to upload product photo", zap.Error(err), zap.String("filename", photo.Filename))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "error uploading photo"})
	}
	product.Photo = image.URL
	product.PublicID = image.PublicID

	defer prometheus.TrackDBOperation("insert")()

	if err := db(c).Omit(clause.Associations).Create(&product).Error; err != nil {
		log.Error("Failed to create product", zap.Error(err))
		removePhoto(c, image.PublicID)
		return internalError(c, "No se pudo crear el producto")
	}

	if err := productQuery(c).First(&product, product.ID).Error; err != nil {
		log.Warn("Failed to reload product", zap.Error(err), zap.Uint("product_id", product.ID))
	}

	cache.Invalidate(ctx, cache.KeyProducts)
	prometheus.RecordCatalogOperation("product", "create")
	log.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))

	return c.JSON(http.StatusOK, echo.Map{"message": "Product added", "product": product})
}

// UpdateProduct changes the fields present in the form, and the photo when one is sent
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	var product model.Product
	if err := db(c).First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to load product", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo modificar el producto")
	}

	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}

	if name, ok := formValue(form, "name"); ok && name != product.Name {
		if apiErr := checkProductName(c, name, product.ID); apiErr != nil {
			return apiErr
		}
		product.Name = name
	}
	if err := applyProductForm(&product, form); err != nil {
		return err
	}
	if apiErr := checkProductRefs(c, &product); apiErr != nil {
		return apiErr
	}

	var (
		uploaded    bool
		oldPublicID string
	)
	if photo, err := c.FormFile("photo"); err == nil {
		image, err := uploadPhoto(ctx, photo)
		if err != nil {
			log.Error("Failed to upload product photo", zap.Error(err), zap.Uint("product_id", id))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "error uploading photo"})
		}
		uploaded = true
		oldPublicID = product.PublicID
		product.Photo = image.URL
		product.PublicID = image.PublicID
	}

	defer prometheus.TrackDBOperation("update")()

	if err := db(c).Omit(clause.Associations).Save(&product).Error; err != nil {
		log.Error("Failed to update product", zap.Error(err), zap.Uint("product_id", id))
		if uploaded {
			removePhoto(c, product.PublicID)
		}
		return internalError(c, "No se pudo modificar el producto")
	}
	if oldPublicID != "" {
		removePhoto(c, oldPublicID)
	}

	if err := productQuery(c).First(&product, product.ID).Error; err != nil {
		log.Warn("Failed to reload product", zap.Error(err), zap.Uint("product_id", product.ID))
	}

	cache.Invalidate(ctx, cache.KeyProducts)
	prometheus.RecordCatalogOperation("product", "update")
	log.Info("Product updated", zap.Uint("product_id", product.ID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Producto modificado correctamente", "product": product})
}

// DeleteProduct removes a product that no order refers to, with its stock entries
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "No existe producto"})
	}

	var product model.Product
	if err := db(c).First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "No existe producto"})
		}
		log.Error("Failed to load product", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo eliminar el producto")
	}

	inUse, err := referenced(c, id, "product_id", &model.OrderDetail{})
	if err != nil {
		log.Error("Failed to check product references", zap.Error(err))
		return internalError(c, "No se pudo eliminar el producto")
	}
	if inUse {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El producto tiene órdenes asociadas"})
	}

	defer prometheus.TrackDBOperation("delete")()

	err = db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("products_id = ?", id).Delete(&model.Stock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		log.Error("Failed to delete product", zap.Error(err), zap.Uint("product_id", id))
		return internalError(c, "No se pudo eliminar el producto")
	}

	removePhoto(c, product.PublicID)

	cache.Invalidate(c.Request().Context(), cache.KeyProducts)
	prometheus.RecordCatalogOperation("product", "delete")
	log.Info("Product deleted", zap.Uint("product_id", id))

	return c.JSON(http.StatusOK, echo.Map{"message": "Producto eliminado correctamente"})
}

func allProducts(c echo.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := productQuery(c).Order("id").Find(&products).Error
	return products, err
}

// likeEscaper makes LIKE wildcards in a search term match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// formValue returns the trimmed value of a submitted form field
func formValue(form url.Values, key string) (string, bool) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	v := strings.TrimSpace(values[0])
	return v, v != ""
}

// applyProductForm copies the numeric fields present in form onto p
func applyProductForm(p *model.Product, form url.Values) error {
	if v, ok := formValue(form, "amount"); ok {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil || amount < 0 {
			return NewFormError("amount invalid")
		}
		p.Amount = amount
	}
	if v, ok := formValue(form, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil || price.IsNegative() || !model.PriceFits(price) {
			return NewFormError("price invalid")
		}
		p.Price = price.Round(2)
	}
	if v, ok := formValue(form, "category_id"); ok {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil || id == 0 {
			return NewFormError("category_id invalid")
		}
		p.CategoryID = uint(id)
	}
	if v, ok := formValue(form, "subcategory_id"); ok {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil || id == 0 {
			return NewFormError("subcategory_id invalid")
		}
		p.SubcategoryID = uint(id)
	}
	return nil
}

// checkProductRefs makes sure the subcategory exists and belongs to the product's category
func checkProductRefs(c echo.Context, p *model.Product) error {
	var sub model.Subcategory
	if err := db(c).First(&sub, p.SubcategoryID).Error; err != nil {
		if isNotFound(err) {
			return NewFormError("subcategory not found")
		}
		logger.FromContext(c).Error("Failed to load subcategory", zap.Error(err))
		return err
	}
	if sub.CategoryID != p.CategoryID {
		return NewFormError("subcategory does not belong to category")
	}
	return nil
}

// checkProductName rejects a name already used by a product other than exceptID
func checkProductName(c echo.Context, name string, exceptID uint) error {
	var count int64
	q := db(c).Model(&model.Product{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		logger.FromContext(c).Error("Failed to check product name", zap.Error(err))
		return err
	}
	if count > 0 {
		return NewFormError("product name already exist")
	}
	return nil
}

// uploadPhoto sends a submitted file to the image store
func uploadPhoto(ctx context.Context, fh *multipart.FileHeader) (*imagestore.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return imagestore.Get().Upload(ctx, f, fh.Filename)
}

// removePhoto deletes a hosted image; failures are only logged
func removePhoto(c echo.Context, publicID string) {
	if publicID == "" {
		return
	}
	err := imagestore.Get().Delete(c.Request().Context(), publicID)
	if err != nil && !errors.Is(err, imagestore.ErrNotConfigured) {
		logger.FromContext(c).Warn("Failed to remove product photo", zap.Error(err), zap.String("public_id", publicID))
	}
}
