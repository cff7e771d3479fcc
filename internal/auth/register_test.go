package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	service, _ := newTestService(t)
	h := NewHandler(service)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var validRegistration = map[string]string{
	"name":      "Test User",
	"email":     "test@example.com",
	"password":  "Password@123",
	"school_id": "school_001",
}

func TestRegisterSuccess(t *testing.T) {
	r := setupTestRouter(t)

	w := postJSON(r, "/auth/register", validRegistration)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	var user map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password hash must not be returned")
	}
	if user["role"] != RoleStaff || user["school_id"] != "school_001" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	r := setupTestRouter(t)

	w := postJSON(r, "/auth/register", map[string]string{"email": "test@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := setupTestRouter(t)

	// First request (should succeed)
	if w := postJSON(r, "/auth/register", validRegistration); w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	// Second request (should fail)
	if w := postJSON(r, "/auth/register", validRegistration); w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestLoginHandler(t *testing.T) {
	r := setupTestRouter(t)
	postJSON(r, "/auth/register", validRegistration)

	w := postJSON(r, "/auth/login", map[string]string{"email": "test@example.com", "password": "Password@123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Token == "" {
		t.Fatal("expected token")
	}

	w = postJSON(r, "/auth/login", map[string]string{"email": "test@example.com", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}
