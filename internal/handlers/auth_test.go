package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"dotk/api/internal/models"
)

func TestLoginEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.seedUser(t, "admin", models.RoleAdmin, true)

	w := a.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "pw",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["token"])

	user := body["user"].(map[string]any)
	require.Equal(t, "admin", user["username"])
	require.Equal(t, "admin", user["role"])

	claims, err := a.tokens.Parse(body["token"].(string))
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPasswordEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.seedUser(t, "admin", models.RoleAdmin, true)

	w := a.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "nope",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid credentials", decode(t, w)["error"])
}

func TestLoginMissingFieldsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	w := a.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Username and password are required", decode(t, w)["error"])
}

func TestLoginInactiveEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.seedUser(t, "admin", models.RoleAdmin, false)

	w := a.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "pw",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Account is inactive", decode(t, w)["error"])
}

func TestMeEndpoint(t *testing.T) {
	a := newTestAPI(t)
	u := a.seedUser(t, "editor", models.RoleEditor, true)

	w := a.request(t, http.MethodGet, "/api/auth/me", a.tokenFor(t, u), nil)
	require.Equal(t, http.StatusOK, w.Code)

	user := decode(t, w)["user"].(map[string]any)
	require.Equal(t, "editor", user["username"])
	require.Equal(t, true, user["is_active"])
}

func TestMeRequiresToken(t *testing.T) {
	a := newTestAPI(t)

	w := a.request(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	a := newTestAPI(t)

	w := a.request(t, http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Logged out successfully", decode(t, w)["message"])
}
