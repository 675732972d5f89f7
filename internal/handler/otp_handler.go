package handler

import (
	"net/http"
	"shop-service/internal/model"
	"shop-service/pkg/logger"
	"shop-service/pkg/password"
	"shop-service/prometheus"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// otpMaxLength matches the width of the otp column
const otpMaxLength = 6

var otpTTL = 10 * time.Minute

// SetOTPTTL sets how long a saved code stays valid
func SetOTPTTL(ttl time.Duration) {
	if ttl > 0 {
		otpTTL = ttl
	}
}

type saveOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type verifyOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// SaveOTP stores a recovery code for an email, replacing any earlier one
func SaveOTP(c echo.Context) error {
	log := logger.FromContext(c)

	var req saveOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email y OTP son requeridos"})
	}
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		prometheus.RecordOTP("save", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email y OTP son requeridos"})
	}
	if len(code) > otpMaxLength {
		prometheus.RecordOTP("save", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El OTP no puede tener más de 6 caracteres"})
	}

	defer prometheus.TrackDBOperation("insert")()

	now := time.Now()
	entry := model.OTP{Email: email, Code: code, ExpiresAt: now.Add(otpTTL)}
	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? OR expires_at < ?", email, now).Delete(&model.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		log.Error("Failed to save OTP", zap.Error(err))
		prometheus.RecordOTP("save", "error")
		return internalError(c, "No se pudo guardar el OTP")
	}

	prometheus.RecordOTP("save", "ok")
	log.Info("OTP saved", zap.String("email", email), zap.Time("expires_at", entry.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{"message": " OTP guardado"})
}

// VerifyOTP checks a recovery code and sets a new password
func VerifyOTP(c echo.Context) error {
	log := logger.FromContext(c)

	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email, OTP y nueva contraseña son requeridos"})
	}
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" || req.NewPassword == "" {
		prometheus.RecordOTP("verify", "invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email, OTP y nueva contraseña son requeridos"})
	}

	defer prometheus.TrackDBOperation("update")()

	var entry model.OTP
	if err := db(c).Where("email = ? AND otp = ?", email, code).First(&entry).Error; err != nil {
		if isNotFound(err) {
			prometheus.RecordOTP("verify", "invalid")
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "OTP inválido"})
		}
		log.Error("Failed to look up OTP", zap.Error(err))
		return internalError(c, "No se pudo verificar el OTP")
	}

	if entry.Expired(time.Now()) {
		if err := db(c).Delete(&entry).Error; err != nil {
			log.Warn("Failed to delete expired OTP", zap.Error(err), zap.Uint("otp_id", entry.ID))
		}
		prometheus.RecordOTP("verify", "expired")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "El OTP ha expirado"})
	}

	var user model.User
	if err := db(c).Where("email = ?", email).First(&user).Error; err != nil {
		if isNotFound(err) {
			prometheus.RecordOTP("verify", "unknown_user")
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Usuario no encontrado"})
		}
		log.Error("Failed to look up user", zap.Error(err))
		return internalError(c, "No se pudo verificar el OTP")
	}

	hash, salt, err := password.HashWithNewSalt(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return internalError(c, "No se pudo actualizar la contraseña")
	}

	err = db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{"password": hash, "salt": salt}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		log.Error("Failed to reset password", zap.Error(err), zap.Uint("user_id", user.ID))
		prometheus.RecordOTP("verify", "error")
		return internalError(c, "No se pudo actualizar la contraseña")
	}

	prometheus.RecordOTP("verify", "ok")
	log.Info("Password reset with OTP", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Contraseña actualizada correctamente"})
}
