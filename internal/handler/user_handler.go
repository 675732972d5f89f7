package handler

import (
	"errors"
	"net/http"
	"shop-service/internal/middleware"
	"shop-service/internal/model"
	"shop-service/pkg/logger"
	"shop-service/pkg/password"
	"shop-service/prometheus"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type profileRequest struct {
	Name     *string `json:"name"`
	Lastname *string `json:"lastname"`
	Email    *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GetUsers lists every registered user
func GetUsers(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("query")()

	var users []model.User
	if err := db(c).Order("id").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return internalError(c, "No se pudieron obtener los usuarios")
	}

	return c.JSON(http.StatusOK, users)
}

// UpdateProfile changes the caller's name, lastname or email
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse profile request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Datos inválidos"})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Lastname != nil && strings.TrimSpace(*req.Lastname) != "" {
		user.Lastname = strings.TrimSpace(*req.Lastname)
	}
	if req.Email != nil && normalizeEmail(*req.Email) != "" && normalizeEmail(*req.Email) != user.Email {
		email := normalizeEmail(*req.Email)
		var count int64
		if err := db(c).Model(&model.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			log.Error("Failed to check email", zap.Error(err))
			return internalError(c, "No se pudo modificar el perfil")
		}
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "El email ya está en uso"})
		}
		user.Email = email
	}

	defer prometheus.TrackDBOperation("update")()

	err = db(c).Model(user).Select("name", "lastname", "email").Updates(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "El email ya está en uso"})
		}
		log.Error("Failed to update profile", zap.Error(err), zap.Uint("user_id", user.ID))
		return internalError(c, "No se pudo modificar el perfil")
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Perfil modificado correctamente",
		"profile": user,
	})
}

// ChangePassword replaces the caller's password after checking the current one
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Los campos contraseña actual y nueva contraseña son obligatorios",
		})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := password.Compare(user.Password, req.CurrentPassword, user.Salt); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "La constraseña actual no es correcta"})
	}

	hash, salt, err := password.HashWithNewSalt(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return internalError(c, "No se pudo actualizar la contraseña")
	}

	defer prometheus.TrackDBOperation("update")()

	err = db(c).Model(user).Updates(map[string]interface{}{"password": hash, "salt": salt}).Error
	if err != nil {
		log.Error("Failed to update password", zap.Error(err), zap.Uint("user_id", user.ID))
		return internalError(c, "No se pudo actualizar la contraseña")
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Contraseña actualizada correctamente"})
}

// currentUser loads the user behind the request token. Failures are returned
// as errors for the HTTP error handler to render.
func currentUser(c echo.Context) (*model.User, error) {
	id, ok := middleware.UserIDFromContext(c)
	if !ok {
		return nil, NewAPIError(http.StatusUnauthorized, "Usuario no autenticado")
	}

	var user model.User
	if err := db(c).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NewAPIError(http.StatusNotFound, "Usuario no encontrado")
		}
		logger.FromContext(c).Error("Failed to load user", zap.Error(err), zap.Uint("user_id", id))
		return nil, err
	}
	return &user, nil
}
