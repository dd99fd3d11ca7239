package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newCorrelationApp(seen *string) *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		*seen = CorrelationIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestCorrelationIDReusesInboundHeader(t *testing.T) {
	var seen string
	app := newCorrelationApp(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(HeaderCorrelationID))
	require.Equal(t, "abc-123", seen)
}

func TestCorrelationIDFallsBackToRequestID(t *testing.T) {
	var seen string
	app := newCorrelationApp(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req.42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req.42", resp.Header.Get(HeaderCorrelationID))
}

func TestCorrelationIDReplacesMalformedHeader(t *testing.T) {
	var seen string
	app := newCorrelationApp(&seen)

	for _, bad := range []string{"has space\tand tab", strings.Repeat("a", 65), "x\" injected=\"y"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, bad)
		resp, err := app.Test(req)
		require.NoError(t, err)

		got := resp.Header.Get(HeaderCorrelationID)
		require.NotEqual(t, bad, got)
		require.Len(t, got, 36)
		require.Equal(t, got, seen)
	}
}
