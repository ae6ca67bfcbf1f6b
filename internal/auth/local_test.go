package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/model"
	"github.com/strhzy/vacancyhunter/internal/telegram"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

var testDB *database.Service
var testTeardown func(context.Context, ...testcontainers.TerminateOption) error

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	testTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := testTeardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "teardown error: %v\n", err)
	}
}

// Helper: validate access token in response and return claims.
func assertValidAccessToken(t *testing.T, resp map[string]interface{}) *jwt.RegisteredClaims {
	t.Helper()
	tokenStr, ok := resp["access_token"].(string)
	assert.True(t, ok, "access_token not a string")
	token, err := ValidatedToken(tokenStr)
	assert.NoError(t, err)
	assert.True(t, token.Valid)
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	assert.True(t, ok, "claims type mismatch")
	assert.NotEmpty(t, claims.Subject, "token subject empty")
	return claims
}

// newTelegramStub starts an HTTP server impersonating the Bot API getChat
// endpoint and returns a client pointed at it.
func newTelegramStub(t *testing.T, body string) (*telegram.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return telegram.NewClient("test-token", srv.URL, srv.Client()), srv
}

func TestRegisterStudent(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":   "test_student_user",
		"email":      "test_student@example.com",
		"first_name": "Test",
		"last_name":  "Student",
		"password":   "password123",
		"role":       "student",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "unexpected status, body: %s", rec.Body.String())

	assert.Contains(t, resp, "access_token")
	claims := assertValidAccessToken(t, resp)

	userVal, ok := resp["user"].(map[string]interface{})
	assert.True(t, ok, "user object missing")
	assert.Equal(t, "student", userVal["role"])
	if idVal, ok := userVal["id"].(string); ok {
		assert.Equal(t, idVal, claims.Subject, "JWT subject should match user id")
	}
}

func TestRegisterTeacher(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":   "test_teacher_user",
		"email":      "test_teacher@example.com",
		"first_name": "Test",
		"last_name":  "Teacher",
		"password":   "teacherPass123",
		"role":       "teacher",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "unexpected status, body: %s", rec.Body.String())

	assert.Contains(t, resp, "access_token")
	assertValidAccessToken(t, resp)

	userVal, ok := resp["user"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "teacher", userVal["role"])
}

func TestRegisterPasswordTooShort(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":   "short_pwd_user",
		"email":      "short@example.com",
		"first_name": "Short",
		"last_name":  "Password",
		"password":   "1234567", // 7 chars
		"role":       "student",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Contains(t, errMsg, "Password should longer or equal to 8 characters")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":   database.TestStudent1.Username, // seeded username
		"email":      "dup@example.com",
		"first_name": "Dup",
		"last_name":  "User",
		"password":   "password123",
		"role":       "student",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Equal(t, "Username already exist", errMsg)
}

func TestRegisterInvalidRole(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":   "invalid_role_user",
		"email":      "invalid@example.com",
		"first_name": "Invalid",
		"last_name":  "Role",
		"password":   "password123",
		"role":       "admin", // not allowed
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Contains(t, errMsg, "role (only 'student' or 'teacher')")
}

func TestRegisterTelegramVerified(t *testing.T) {
	client, _ := newTelegramStub(t, `{"ok":true,"result":{"id":777000,"type":"private","username":"ivan_dev"}}`)
	handler := NewLocalAuthHandler(testDB, client)

	payload := map[string]string{
		"username":          "tg_verified_user",
		"email":             "tg@example.com",
		"first_name":        "Ivan",
		"last_name":         "Telegram",
		"password":          "password123",
		"role":              "student",
		"telegram_username": "@ivan_dev",
	}
	rec, _, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var user model.User
	assert.NoError(t, testDB.Where("username = ?", "tg_verified_user").First(&user).Error)
	if assert.NotNil(t, user.TelegramUsername) {
		assert.Equal(t, "ivan_dev", *user.TelegramUsername)
	}
	if assert.NotNil(t, user.TelegramChatID) {
		assert.Equal(t, "777000", *user.TelegramChatID)
	}
}

func TestRegisterTelegramHandleNotFound(t *testing.T) {
	client, _ := newTelegramStub(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	handler := NewLocalAuthHandler(testDB, client)

	payload := map[string]string{
		"username":          "tg_missing_user",
		"email":             "tg2@example.com",
		"first_name":        "Ghost",
		"last_name":         "Handle",
		"password":          "password123",
		"role":              "student",
		"telegram_username": "no_such_handle",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Equal(t, "No Telegram user found with this username", errMsg)

	// Nothing persisted
	var count int64
	assert.NoError(t, testDB.Model(&model.User{}).Where("username = ?", "tg_missing_user").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRegisterTelegramUnreachable(t *testing.T) {
	client, srv := newTelegramStub(t, `{}`)
	srv.Close()
	handler := NewLocalAuthHandler(testDB, client)

	payload := map[string]string{
		"username":          "tg_unreachable_user",
		"email":             "tg3@example.com",
		"first_name":        "Net",
		"last_name":         "Down",
		"password":          "password123",
		"role":              "student",
		"telegram_username": "whoever",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Contains(t, errMsg, "Could not verify Telegram username")

	var count int64
	assert.NoError(t, testDB.Model(&model.User{}).Where("username = ?", "tg_unreachable_user").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRegisterTelegramUnverifiedWithoutToken(t *testing.T) {
	// No bot token configured: the handle is stored as-is, chat id stays empty
	handler := NewLocalAuthHandler(testDB, nil)

	payload := map[string]string{
		"username":          "tg_unverified_user",
		"email":             "tg4@example.com",
		"first_name":        "Plain",
		"last_name":         "Handle",
		"password":          "password123",
		"role":              "teacher",
		"telegram_username": "@plain_handle",
	}
	rec, _, err := utilities.SimulateAPICall(handler.RegisterHandler, "/register", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var user model.User
	assert.NoError(t, testDB.Where("username = ?", "tg_unverified_user").First(&user).Error)
	if assert.NotNil(t, user.TelegramUsername) {
		assert.Equal(t, "plain_handle", *user.TelegramUsername)
	}
	assert.Nil(t, user.TelegramChatID)
}

func TestLoginSuccess(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)
	payload := map[string]string{
		"username": database.TestStudent1.Username,
		"password": database.TestSeedPassword,
	}
	rec, resp, err := utilities.SimulateAPICall(handler.LoginHandler, "/login", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Contains(t, resp, "access_token")

	claims := assertValidAccessToken(t, resp)
	userVal, ok := resp["user"].(map[string]interface{})
	assert.True(t, ok)
	if idVal, ok := userVal["id"].(string); ok {
		assert.Equal(t, idVal, claims.Subject)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)
	payload := map[string]string{
		"username": database.TestStudent1.Username,
		"password": "WrongPass999!",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.LoginHandler, "/login", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Equal(t, "Username or password is incorrect", errMsg)
}

func TestLoginUserNotFound(t *testing.T) {
	handler := NewLocalAuthHandler(testDB, nil)
	payload := map[string]string{
		"username": "non_existent_user_xyz",
		"password": "SomePassword1!",
	}
	rec, resp, err := utilities.SimulateAPICall(handler.LoginHandler, "/login", http.MethodPost, payload)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	errMsg, _ := resp["error"].(string)
	assert.Equal(t, "Username or password is incorrect", errMsg)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	lc := NewLogoutController(store)

	token, _, err := GenerateStandardToken(database.TestStudent1.ID)
	assert.NoError(t, err)

	r := gin.New()
	// Minimal stand-in for the auth middleware: parse the token and expose
	// its claims the way RequireAuth does
	r.POST("/logout", func(c *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		parsed, err := ValidatedToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		c.Set("claims", parsed.Claims.(*jwt.RegisteredClaims))
	}, lc.LogoutHandler)

	req, _ := http.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	revoked, err := store.IsBlacklisted(token)
	assert.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklistStoreCleanUp(t *testing.T) {
	store := NewInMemoryBlacklistStore()

	assert.NoError(t, store.AddToBlacklist("stale", time.Now().Add(-time.Minute)))
	assert.NoError(t, store.AddToBlacklist("fresh", time.Now().Add(time.Hour)))

	store.CleanUpExpired()

	stale, _ := store.IsBlacklisted("stale")
	fresh, _ := store.IsBlacklisted("fresh")
	assert.False(t, stale)
	assert.True(t, fresh)
}
