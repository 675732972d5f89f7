package handler

import (
	"errors"
	"net/http"
	"shop-service/internal/model"
	"shop-service/pkg/jwtutil"
	"shop-service/pkg/logger"
	"shop-service/pkg/password"
	"shop-service/prometheus"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Lastname string `json:"lastname" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a customer account and logs it in
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Faltan datos"})
	}
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		log.Info("Incomplete registration", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Faltan datos"})
	}

	defer prometheus.TrackDBOperation("insert")()

	var count int64
	if err := db(c).Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		log.Error("Failed to look up user", zap.Error(err))
		return internalError(c, "No se pudo registrar el usuario")
	}
	if count > 0 {
		log.Info("User already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El usuario ya existe"})
	}

	hash, salt, err := password.HashWithNewSalt(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return internalError(c, "No se pudo registrar el usuario")
	}

	user := model.User{
		Name:     strings.TrimSpace(req.Name),
		Lastname: strings.TrimSpace(req.Lastname),
		Email:    req.Email,
		Password: hash,
		Salt:     salt,
		Admin:    false,
	}
	if err := db(c).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "El usuario ya existe"})
		}
		log.Error("Failed to create user", zap.Error(err))
		return internalError(c, "No se pudo registrar el usuario")
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Admin)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return internalError(c, "No se pudo registrar el usuario")
	}

	log.Info("User registered", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Usuario registrado con éxito",
		"token":    token,
		"name":     user.Name,
		"lastname": user.Lastname,
		"email":    user.Email,
		"admin":    user.Admin,
	})
}

// Login exchanges email and password for a token
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	if c.Request().ContentLength == 0 {
		prometheus.RecordAuthError("empty_body")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El cuerpo de la solicitud esta vacío"})
	}

	// A JSON object with no members counts as an empty body.
	body := echo.Map{}
	if err := c.Bind(&body); err != nil || len(body) == 0 {
		if err != nil {
			log.Warn("Failed to parse login request", zap.Error(err))
		}
		prometheus.RecordAuthError("empty_body")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El cuerpo de la solicitud esta vacío"})
	}

	var req loginRequest
	req.Email, _ = body["email"].(string)
	req.Password, _ = body["password"].(string)
	if err := c.Validate(&req); err != nil {
		missing, verr := missingFields(err)
		if verr != nil {
			return verr
		}
		prometheus.RecordAuthError("missing_fields")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Estos campos son requeridos " + strings.Join(missing, ", "),
		})
	}

	defer prometheus.TrackDBOperation("query")()

	var user model.User
	if err := db(c).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if !isNotFound(err) {
			log.Error("Failed to look up user", zap.Error(err))
			return internalError(c, "No se pudo iniciar sesión")
		}
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Alguno de los datos no es correcto"})
	}

	if err := password.Compare(user.Password, req.Password, user.Salt); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("Failed to verify password", zap.Error(err))
		}
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Sus credenciales no son correctas"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Admin)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return internalError(c, "No se pudo iniciar sesión")
	}

	log.Info("User logged in", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"token":    token,
		"name":     user.Name,
		"lastname": user.Lastname,
		"email":    user.Email,
		"photo":    nil,
		"admin":    user.Admin,
	})
}
