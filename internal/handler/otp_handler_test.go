package handler_test

import (
	"net/http"
	"testing"
	"time"

	"shop-service/internal/model"
	"shop-service/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/save_otp", map[string]string{"email": "ana@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, " OTP guardado", decodeMap(t, rec)["message"])

	// A new code replaces the previous one.
	rec = env.do(t, http.MethodPost, "/api/save_otp", map[string]string{"email": "ana@example.com", "otp": "654321"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var codes []model.OTP
	require.NoError(t, env.db.Find(&codes).Error)
	require.Len(t, codes, 1)
	assert.Equal(t, "654321", codes[0].Code)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), codes[0].ExpiresAt, time.Minute)

	rec = env.do(t, http.MethodPost, "/api/save_otp", map[string]string{"email": "ana@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email y OTP son requeridos", decodeMap(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/save_otp", map[string]string{"email": "ana@example.com", "otp": "1234567"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "ana@example.com", "vieja", false)
	oldSalt := user.Salt

	require.NoError(t, env.db.Create(&model.OTP{
		Email: "ana@example.com", Code: "123456", ExpiresAt: time.Now().Add(time.Minute),
	}).Error)

	rec := env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{
		"email": "ana@example.com", "otp": "000000", "new_password": "nueva",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTP inválido", decodeMap(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{
		"email": "ana@example.com", "otp": "123456", "new_password": "nueva",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Contraseña actualizada correctamente", decodeMap(t, rec)["message"])

	var updated model.User
	require.NoError(t, env.db.First(&updated, user.ID).Error)
	assert.NotEqual(t, oldSalt, updated.Salt)
	assert.NoError(t, password.Compare(updated.Password, "nueva", updated.Salt))
	assert.Zero(t, countRows(t, env.db, &model.OTP{}))

	// The code is single use.
	rec = env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{
		"email": "ana@example.com", "otp": "123456", "new_password": "otra",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ana@example.com", "vieja", false)
	require.NoError(t, env.db.Create(&model.OTP{
		Email: "ana@example.com", Code: "123456", ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	rec := env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{
		"email": "ana@example.com", "otp": "123456", "new_password": "nueva",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "El OTP ha expirado", decodeMap(t, rec)["message"])
	assert.Zero(t, countRows(t, env.db, &model.OTP{}))
}

func TestVerifyOTP_UnknownUserAndMissingFields(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&model.OTP{
		Email: "nadie@example.com", Code: "123456", ExpiresAt: time.Now().Add(time.Minute),
	}).Error)

	rec := env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{
		"email": "nadie@example.com", "otp": "123456", "new_password": "nueva",
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Usuario no encontrado", decodeMap(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/verify-otp", map[string]string{"email": "nadie@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email, OTP y nueva contraseña son requeridos", decodeMap(t, rec)["message"])
}
