package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/config"
	"github.com/noah-isme/unishare-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "UniShare API", AppEnv: "test"}

	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", handler.HealthCheck(cfg, map[string]handler.DependencyCheck{
			"postgres": func(context.Context) error { return nil },
		}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body envelope[handler.HealthResponse]
		decodeResponse(t, resp, &body)
		require.Equal(t, "ok", body.Data.Status)
		require.Equal(t, "up", body.Data.Dependencies["postgres"])
	})

	t.Run("degraded", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", handler.HealthCheck(cfg, map[string]handler.DependencyCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		var body envelope[handler.HealthResponse]
		decodeResponse(t, resp, &body)
		require.Equal(t, "degraded", body.Data.Status)
		require.Equal(t, "down", body.Data.Dependencies["redis"])
	})
}
