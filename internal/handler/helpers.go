package handler

import (
	"errors"
	"fmt"
	"reflect"
	"shop-service/pkg/database"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// db returns the shared connection bound to the request context
func db(c echo.Context) *gorm.DB {
	return database.GetDB().WithContext(c.Request().Context())
}

// paramID parses a positive integer path parameter
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

// missingFields lists the json names of the fields that failed "required".
// Any other validation failure is returned as err.
func missingFields(err error) ([]string, error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			return nil, err
		}
		missing = append(missing, fe.Field())
	}
	return missing, nil
}

// normalizeEmail lowercases and trims an address before it is stored or looked up
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// JSONFieldName makes validator report json tag names instead of Go field names
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
