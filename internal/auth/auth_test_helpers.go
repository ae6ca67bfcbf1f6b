package auth

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/utilities"
)

// GetAccessToken logs the given seeded account in and returns its access
// token. Intended for tests in other packages.
func GetAccessToken(
	t *testing.T,
	db *database.Service,
	username string,
	password string,
) (string, error) {
	t.Helper()
	handler := NewLocalAuthHandler(db, nil)
	rec, resp, err := utilities.SimulateAPICall(handler.LoginHandler, "/login", http.MethodPost, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if rec.Code != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d, body: %s", rec.Code, rec.Body.String())
	}
	if resp["access_token"] == nil {
		return "", fmt.Errorf("login failed: no access_token in response: %s", rec.Body.String())
	}
	return resp["access_token"].(string), nil
}
