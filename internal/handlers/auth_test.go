package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobtradesasa/server/internal/testutil"
)

func newAuthApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	gdb, mock := testutil.NewMockDB(t)
	h := &AuthHandler{DB: gdb, JWTSecret: "test-secret", Expires: 60}

	app := fiber.New()
	app.Post("/api/auth/signup", h.Signup)
	app.Post("/api/auth/login", h.Login)
	return app, mock
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSignupValidationErrors(t *testing.T) {
	app, mock := newAuthApp(t)

	resp := postJSON(t, app, "/api/auth/signup", map[string]string{
		"role":            "manager",
		"name":            "J",
		"email":           "not-an-email",
		"password":        "short1",
		"confirmPassword": "different",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]interface{})
	require.Contains(t, errs, "role")
	require.Contains(t, errs, "name")
	require.Contains(t, errs, "email")
	require.Contains(t, errs, "confirmpassword")

	// rejected before any DB work
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupDuplicateEmail(t *testing.T) {
	app, mock := newAuthApp(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow("6f1c0a9e-0000-0000-0000-000000000001", "taken@example.com"))

	resp := postJSON(t, app, "/api/auth/signup", map[string]string{
		"role":            "requester",
		"name":            "Jane Doe",
		"email":           "taken@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs := body["errors"].(map[string]interface{})
	require.Contains(t, errs, "email")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupDuplicateEmailRace(t *testing.T) {
	app, mock := newAuthApp(t)

	// pre-check sees nothing, then the unique index catches a
	// concurrent signup with the same email
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	resp := postJSON(t, app, "/api/auth/signup", map[string]string{
		"role":            "requester",
		"name":            "Jane Doe",
		"email":           "taken@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errs := body["errors"].(map[string]interface{})
	require.Contains(t, errs, "email")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	app, mock := newAuthApp(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	resp := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Invalid email or password", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	app, mock := newAuthApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role", "is_active"}).
			AddRow("6f1c0a9e-0000-0000-0000-000000000002", "jane@example.com", string(hash), "requester", true))

	resp := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Invalid email or password", body["message"])
}

func TestLoginInactiveAccount(t *testing.T) {
	app, mock := newAuthApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role", "is_active"}).
			AddRow("6f1c0a9e-0000-0000-0000-000000000003", "jane@example.com", string(hash), "requester", false))

	resp := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Account is not active", body["message"])
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	app, mock := newAuthApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "is_active"}).
			AddRow("6f1c0a9e-0000-0000-0000-000000000004", "Jane Doe", "jane@example.com", string(hash), "requester", true))

	resp := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "Jane@Example.com", // normalized before lookup
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	require.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	require.Equal(t, "jane@example.com", user["email"])
}
