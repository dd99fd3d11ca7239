package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRegisterRecoversPanics(t *testing.T) {
	app := fiber.New()
	Register(app, Config{})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(HeaderCorrelationID))
}

func TestRegisterRestrictsCORSOrigins(t *testing.T) {
	app := fiber.New()
	Register(app, Config{AllowOrigins: []string{" https://unishare.test ", ""}})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://unishare.test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "https://unishare.test", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.test")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestAllowOriginsDefaultsToWildcard(t *testing.T) {
	require.Equal(t, "*", allowOrigins(nil))
	require.Equal(t, "a,b", allowOrigins([]string{"a", " b "}))
}
