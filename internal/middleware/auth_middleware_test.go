package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestApp(tokens *services.TokenService) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(tokens), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).Username)
	})
	app.Get("/admin", AuthMiddleware(tokens), AdminMiddleware, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func signed(t *testing.T, tokens *services.TokenService, role string) string {
	t.Helper()
	token, err := tokens.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Username: "alice", Role: role})
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	app := newTestApp(tokens)

	valid := signed(t, tokens, models.RoleUser)
	expired := signed(t, services.NewTokenService("secret", -time.Minute), models.RoleUser)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", header: "Bearer " + valid, wantStatus: fiber.StatusOK, wantBody: "alice"},
		{name: "cookie", cookie: valid, wantStatus: fiber.StatusOK, wantBody: "alice"},
		{name: "missing token", wantStatus: fiber.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, wantStatus: fiber.StatusUnauthorized, wantBody: "expired"},
		{name: "tampered token", header: "Bearer " + valid + "x", wantStatus: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %q does not contain %q", body, tt.wantBody)
			}
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	app := newTestApp(tokens)

	for role, want := range map[string]int{
		models.RoleUser:  fiber.StatusForbidden,
		models.RoleAdmin: fiber.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed(t, tokens, role))

		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("%s: status = %d, want %d", role, resp.StatusCode, want)
		}
	}
}
