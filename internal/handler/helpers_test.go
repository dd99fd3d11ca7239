package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/middleware"
	"github.com/noah-isme/unishare-api/internal/service"
)

type envelope[T any] struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    T                 `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Details map[string]string `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

// withActor stands in for the JWT middleware.
func withActor(actor service.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, actor.ID)
		c.Locals(middleware.LocalUniversityID, actor.UniversityID)
		c.Locals(middleware.LocalUserRole, actor.Role)
		c.Locals(middleware.LocalUserName, actor.Name)
		return c.Next()
	}
}

var (
	student = service.Actor{ID: 7, UniversityID: 1, Role: "student", Name: "Ada"}
	admin   = service.Actor{ID: 1, UniversityID: 1, Role: "admin", Name: "Root"}
)
