package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formgate/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gotest.tools/v3/assert"
)

func createPasswordUser(t *testing.T, app *testApp, email string, password string) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NilError(t, err)

	now := time.Now().Unix()
	user := model.User{
		ID:        "user-" + email,
		Email:     email,
		Name:      "Password User",
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	assert.NilError(t, app.auth.Database.WithContext(context.Background()).Create(&user).Error)

	return user
}

func TestUserLogin(t *testing.T) {
	app := newTestApp(t)
	createPasswordUser(t, app, "user@example.com", "correct-horse")

	// Valid credentials
	recorder := httptest.NewRecorder()
	req, err := http.NewRequest("POST", "/api/user/login", strings.NewReader(`{"email":"user@example.com","password":"correct-horse"}`))
	assert.NilError(t, err)
	req.Header.Set("Content-Type", "application/json")

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	resJson := map[string]any{}
	assert.NilError(t, json.Unmarshal(recorder.Body.Bytes(), &resJson))

	accessToken, ok := resJson["access_token"].(string)
	assert.Assert(t, ok)
	assert.Assert(t, accessToken != "")
	assert.Equal(t, "Bearer", resJson["token_type"])

	// Wrong password
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest("POST", "/api/user/login", strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
	assert.NilError(t, err)
	req.Header.Set("Content-Type", "application/json")

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Unknown user
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest("POST", "/api/user/login", strings.NewReader(`{"email":"nobody@example.com","password":"whatever"}`))
	assert.NilError(t, err)
	req.Header.Set("Content-Type", "application/json")

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Malformed body
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest("POST", "/api/user/login", strings.NewReader(`{"email":"not-an-email"}`))
	assert.NilError(t, err)
	req.Header.Set("Content-Type", "application/json")

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUserMe(t *testing.T) {
	app := newTestApp(t)
	user, token := app.loginAs(t, "owner@example.com")

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest("GET", "/api/user/me", nil)
	assert.NilError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	resJson := map[string]any{}
	assert.NilError(t, json.Unmarshal(recorder.Body.Bytes(), &resJson))
	assert.Equal(t, user.ID, resJson["id"])
	assert.Equal(t, "owner@example.com", resJson["email"])

	// Anonymous
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest("GET", "/api/user/me", nil)
	assert.NilError(t, err)

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Garbage token
	recorder = httptest.NewRecorder()
	req, err = http.NewRequest("GET", "/api/user/me", nil)
	assert.NilError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest("GET", "/api/health", nil)
	assert.NilError(t, err)

	app.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	resJson := map[string]any{}
	assert.NilError(t, json.Unmarshal(recorder.Body.Bytes(), &resJson))
	assert.Equal(t, "ok", resJson["status"])
}
