package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/handler"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/service"
)

type mockReactionService struct {
	lastActor  service.Actor
	lastTarget models.TargetRef
	lastKind   models.ReactionKind
	lastReq    dto.ReactionRequest
	result     dto.ReactionResult
	err        error
}

func (m *mockReactionService) React(_ context.Context, actor service.Actor, target models.TargetRef, kind models.ReactionKind, req dto.ReactionRequest) (dto.ReactionResult, error) {
	m.lastActor = actor
	m.lastTarget = target
	m.lastKind = kind
	m.lastReq = req
	return m.result, m.err
}

func (m *mockReactionService) MyReaction(_ context.Context, actor service.Actor, target models.TargetRef) (dto.MyReactionResponse, error) {
	m.lastActor = actor
	m.lastTarget = target
	if m.err != nil {
		return dto.MyReactionResponse{}, m.err
	}
	return dto.MyReactionResponse{HasReaction: true, Reaction: &dto.ReactionView{Type: models.ReactionDislike}}, nil
}

func newReactionApp(svc service.ReactionService, actor service.Actor) *fiber.App {
	app := fiber.New()
	handler.NewReactionHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1", withActor(actor)))
	return app
}

func TestReactionHandler_LikeNote(t *testing.T) {
	svc := &mockReactionService{result: dto.ReactionResult{
		TargetType: models.TargetNote,
		TargetID:   42,
		Counters:   models.Counters{Likes: 1},
		MyReaction: &dto.ReactionView{Type: models.ReactionLike, Description: "great"},
	}}
	app := newReactionApp(svc, student)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes/42/like", strings.NewReader(`{"description":"great"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.ReactionResult]
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, 1, body.Data.Counters.Likes)
	require.NotNil(t, body.Data.MyReaction)
	require.Equal(t, models.ReactionLike, body.Data.MyReaction.Type)

	require.Equal(t, models.NoteTarget(42), svc.lastTarget)
	require.Equal(t, models.ReactionLike, svc.lastKind)
	require.Equal(t, "great", svc.lastReq.Description)
	require.Equal(t, student.ID, svc.lastActor.ID)
	require.Equal(t, student.UniversityID, svc.lastActor.UniversityID)
}

func TestReactionHandler_ReportCommentWithoutBody(t *testing.T) {
	svc := &mockReactionService{}
	app := newReactionApp(svc, student)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/9/report", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.CommentTarget(9), svc.lastTarget)
	require.Equal(t, models.ReactionReport, svc.lastKind)
}

func TestReactionHandler_InvalidID(t *testing.T) {
	app := newReactionApp(&mockReactionService{}, student)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes/abc/dislike", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReactionHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("note:1: %w", service.ErrNotFound), fiber.StatusNotFound},
		{"invalid", fmt.Errorf("bad: %w", service.ErrInvalidInput), fiber.StatusBadRequest},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden},
		{"internal", fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newReactionApp(&mockReactionService{err: tc.err}, student)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/notes/1/like", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope[any]
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.NotContains(t, body.Message, "connection reset")
		})
	}
}

func TestReactionHandler_MyReaction(t *testing.T) {
	svc := &mockReactionService{}
	app := newReactionApp(svc, student)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/5/my-reaction", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.MyReactionResponse]
	decodeResponse(t, resp, &body)
	require.True(t, body.Data.HasReaction)
	require.Equal(t, models.ReactionDislike, body.Data.Reaction.Type)
	require.Equal(t, models.CommentTarget(5), svc.lastTarget)
}

func TestReactionHandler_RequiresAuthenticatedActor(t *testing.T) {
	app := newReactionApp(&mockReactionService{}, service.Actor{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes/1/like", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
