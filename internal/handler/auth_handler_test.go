package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"shop-service/internal/model"
	"shop-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register", map[string]string{
		"name": "Ana", "lastname": "Lopez", "email": "Ana@Example.com", "password": "secreto",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeMap(t, rec)
	assert.Equal(t, "Usuario registrado con éxito", body["message"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, false, body["admin"])

	claims, err := jwtutil.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)

	var user model.User
	require.NoError(t, env.db.Where("email = ?", "ana@example.com").First(&user).Error)
	assert.NotEqual(t, "secreto", user.Password)
	assert.NotEmpty(t, user.Salt)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", "secreto", false)

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{
			name:    "missing password",
			body:    map[string]string{"name": "Ana", "lastname": "Lopez", "email": "ana@example.com"},
			message: "Faltan datos",
		},
		{
			name:    "empty body",
			body:    map[string]string{},
			message: "Faltan datos",
		},
		{
			name:    "duplicate email",
			body:    map[string]string{"name": "Ana", "lastname": "Lopez", "email": "TAKEN@example.com", "password": "x"},
			message: "El usuario ya existe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeMap(t, rec)["message"])
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ana@example.com", "secreto", true)

	rec := env.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "ana@example.com", "password": "secreto",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeMap(t, rec)
	assert.Equal(t, true, body["admin"])
	assert.Nil(t, body["photo"])
	assert.Contains(t, body, "photo")

	// The token opens protected routes.
	rec = env.do(t, http.MethodGet, "/api/get_users", nil, body["token"].(string))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ana@example.com", "secreto", false)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{
			name:    "unknown email",
			body:    map[string]string{"email": "nadie@example.com", "password": "secreto"},
			message: "Alguno de los datos no es correcto",
		},
		{
			name:    "wrong password",
			body:    map[string]string{"email": "ana@example.com", "password": "otra"},
			message: "Sus credenciales no son correctas",
		},
		{
			name:    "missing password",
			body:    map[string]string{"email": "ana@example.com"},
			message: "Estos campos son requeridos password",
		},
		{
			name:    "empty body",
			body:    nil,
			message: "El cuerpo de la solicitud esta vacío",
		},
		{
			name:    "empty object",
			body:    map[string]string{},
			message: "El cuerpo de la solicitud esta vacío",
		},
		{
			name:    "not an object",
			body:    []string{"ana@example.com"},
			message: "El cuerpo de la solicitud esta vacío",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/login", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeMap(t, rec)["message"])
		})
	}
}

func TestLogin_MissingBothFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", map[string]string{"other": "x"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	msg := decodeMap(t, rec)["message"].(string)
	assert.True(t, strings.HasPrefix(msg, "Estos campos son requeridos "))
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "password")
}
