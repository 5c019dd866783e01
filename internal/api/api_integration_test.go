// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "userhub/internal"
)

// These tests exercise the full stack (router, service, unit of work,
// PostgreSQL) and require a live test database with the users table and its
// unique constraints in place. They run only when INTEGRATION_TEST is set.

// testApp is the application instance shared by the integration tests.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		// Unit tests cover the layers in isolation; nothing to do here
		// without a database.
		os.Exit(m.Run())
	}

	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	code := m.Run()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("set INTEGRATION_TEST to run integration tests against a live database")
	}
}

// setupEnvVars points the application at the test database unless the
// environment already says otherwise.
func setupEnvVars() {
	defaults := map[string]string{
		"SERVER_PORT": "8080",
		"DB_HOST":     "localhost",
		"DB_PORT":     "5432",
		"DB_USER":     "user",
		"DB_PASSWORD": "password",
		"DB_NAME":     "userhub_test",
		"DB_SSLMODE":  "disable",
	}
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// clearDatabase truncates the users table so each test starts clean.
func clearDatabase(t *testing.T) {
	t.Helper()
	_, err := testApp.DB.Exec("TRUNCATE TABLE users;")
	require.NoError(t, err, "Failed to truncate users table")
}

// makeRequest sends an HTTP request to the test server. The caller closes the
// response body.
func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func createUser(t *testing.T, email, username string) map[string]interface{} {
	t.Helper()
	payload := fmt.Sprintf(`{"email": %q, "username": %q}`, email, username)
	resp, body := makeRequest(t, "POST", "/users", strings.NewReader(payload))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var user map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &user))
	return user
}

func TestCreateUserIntegration(t *testing.T) {
	skipUnlessIntegration(t)
	clearDatabase(t)

	t.Run("NormalizesOnCreate", func(t *testing.T) {
		user := createUser(t, "A@Test.com", "alice_01")

		assert.Equal(t, "a@test.com", user["email"])
		assert.Equal(t, "alice_01", user["username"])
		assert.Equal(t, true, user["is_active"])
		assert.Equal(t, user["created_at"], user["updated_at"])
	})

	t.Run("DuplicateEmailVariantConflicts", func(t *testing.T) {
		// Trailing space normalizes to the already-taken email.
		payload := `{"email": "a@test.com ", "username": "someoneelse"}`
		resp, body := makeRequest(t, "POST", "/users", strings.NewReader(payload))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "already exists")
	})

	t.Run("ShortUsernameRejected", func(t *testing.T) {
		payload := `{"email": "b@test.com", "username": "ab"}`
		resp, _ := makeRequest(t, "POST", "/users", strings.NewReader(payload))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetAndListIntegration(t *testing.T) {
	skipUnlessIntegration(t)
	clearDatabase(t)

	created := createUser(t, "carol@test.com", "carol_7")
	createUser(t, "dave@test.com", "dave_9")

	t.Run("GetByID", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/users/"+created["id"].(string), nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "carol@test.com")
	})

	t.Run("ListNewestFirstWithTotal", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/users?page=1&page_size=10", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var page map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &page))

		items := page["items"].([]interface{})
		require.Len(t, items, 2)
		// dave was created after carol, so he comes first.
		first := items[0].(map[string]interface{})
		assert.Equal(t, "dave_9", first["username"])

		meta := page["meta"].(map[string]interface{})
		assert.Equal(t, float64(2), meta["total"])
		assert.Equal(t, float64(1), meta["total_pages"])
	})
}

func TestUpdateUserIntegration(t *testing.T) {
	skipUnlessIntegration(t)
	clearDatabase(t)

	userX := createUser(t, "x@test.com", "user_x")
	createUser(t, "y@test.com", "user_y")

	t.Run("ConflictOnTakenEmailLeavesRowUnchanged", func(t *testing.T) {
		payload := `{"email": "y@test.com"}`
		resp, _ := makeRequest(t, "PUT", "/users/"+userX["id"].(string), strings.NewReader(payload))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		respGet, body := makeRequest(t, "GET", "/users/"+userX["id"].(string), nil)
		defer respGet.Body.Close()
		assert.Contains(t, body, "x@test.com")
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		payload := `{"full_name": "Xavier Xu"}`
		resp, body := makeRequest(t, "PUT", "/users/"+userX["id"].(string), strings.NewReader(payload))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Xavier Xu")
		assert.Contains(t, body, "x@test.com")
	})
}

func TestDeleteUserIntegration(t *testing.T) {
	skipUnlessIntegration(t)
	clearDatabase(t)

	user := createUser(t, "gone@test.com", "gone_soon")
	userID := user["id"].(string)

	resp, _ := makeRequest(t, "DELETE", "/users/"+userID, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	respGet, _ := makeRequest(t, "GET", "/users/"+userID, nil)
	defer respGet.Body.Close()
	assert.Equal(t, http.StatusNotFound, respGet.StatusCode)

	respAgain, _ := makeRequest(t, "DELETE", "/users/"+userID, nil)
	defer respAgain.Body.Close()
	assert.Equal(t, http.StatusNotFound, respAgain.StatusCode)
}

func TestActivationIntegration(t *testing.T) {
	skipUnlessIntegration(t)
	clearDatabase(t)

	user := createUser(t, "flip@test.com", "flip_flop")
	userID := user["id"].(string)

	resp, body := makeRequest(t, "POST", "/users/"+userID+"/deactivate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"is_active":false`)

	resp2, body2 := makeRequest(t, "POST", "/users/"+userID+"/activate", nil)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, body2, `"is_active":true`)
}
