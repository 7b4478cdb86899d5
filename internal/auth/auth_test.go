package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

func TestPassword(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("12345"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "secret1"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "secret2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenManager(t *testing.T) {
	t.Parallel()

	tm, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	u := &model.User{ID: "u1", Role: model.RoleManager, WarehouseName: "Pune"}
	token, exp, err := tm.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) > time.Hour+time.Minute {
		t.Fatalf("exp=%v", exp)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "u1" || claims.Role != model.RoleManager || claims.Warehouse != "Pune" {
		t.Fatalf("claims=%+v", claims)
	}

	other, _ := NewTokenManager("other-secret", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatalf("empty secret should fail")
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tm, _ := NewTokenManager("test-secret", time.Hour)
	admin, _, _ := tm.Issue(&model.User{ID: "a1", Role: model.RoleAdmin})
	manager, _, _ := tm.Issue(&model.User{ID: "m1", Role: model.RoleManager, WarehouseName: "Pune"})

	r := gin.New()
	r.GET("/scope", RequireAuth(tm), func(c *gin.Context) {
		scope, ok := ScopeFrom(c)
		if !ok {
			c.Status(http.StatusForbidden)
			return
		}
		c.JSON(http.StatusOK, gin.H{"warehouse": scope.Warehouse, "access": scope.Access()})
	})
	r.GET("/admin", RequireAuth(tm), RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, tc := range []struct {
		path   string
		token  string
		status int
		body   string
	}{
		{"/scope", "", http.StatusUnauthorized, `{"error":"No token, authorization denied"}`},
		{"/scope", "garbage", http.StatusUnauthorized, `{"error":"Token is not valid"}`},
		{"/scope", admin, http.StatusOK, `{"access":"all_warehouses","warehouse":""}`},
		{"/scope", manager, http.StatusOK, `{"access":"restricted_warehouse","warehouse":"Pune"}`},
		{"/admin", admin, http.StatusNoContent, ""},
		{"/admin", manager, http.StatusForbidden, `{"error":"Access denied: insufficient permissions"}`},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status || w.Body.String() != tc.body {
			t.Fatalf("%s token=%.8q: code=%d body=%s", tc.path, tc.token, w.Code, w.Body.String())
		}
	}
}

func TestScope(t *testing.T) {
	t.Parallel()

	if !(Scope{}).Allows("anything") {
		t.Fatalf("admin scope should allow all")
	}
	s := Scope{Warehouse: "Pune"}
	if !s.Allows("Pune") || s.Allows("Chakan") {
		t.Fatalf("restricted scope mismatch")
	}
}
