package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackinsure/rainyday/internal/infra/security"
)

func newAuthRouter(t *testing.T, tokens TokenParser) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequireAuth(tokens))
	router.GET("/", func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.PolicyHolderID)
	})

	return router
}

func issueTestToken(t *testing.T, manager *security.TokenManager) string {
	t.Helper()

	token, err := manager.Issue("Alice", "holder-1", "Rotterdam")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	manager, err := security.NewTokenManager("test-secret", "rainyday", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	router := newAuthRouter(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, manager))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "holder-1" {
		t.Fatalf("expected claims to carry holder-1, got %q", rr.Body.String())
	}
}

func TestRequireAuthAcceptsBareToken(t *testing.T) {
	manager, err := security.NewTokenManager("test-secret", "rainyday", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	router := newAuthRouter(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", issueTestToken(t, manager))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for bare token, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	manager, err := security.NewTokenManager("test-secret", "rainyday", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	router := newAuthRouter(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsTamperedToken(t *testing.T) {
	manager, err := security.NewTokenManager("test-secret", "rainyday", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	other, err := security.NewTokenManager("different-secret", "rainyday", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	router := newAuthRouter(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, other))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	manager, err := security.NewTokenManager("test-secret", "rainyday", time.Millisecond)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	token := issueTestToken(t, manager)
	time.Sleep(5 * time.Millisecond)

	router := newAuthRouter(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}
