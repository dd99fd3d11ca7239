package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/handler"
	"github.com/noah-isme/unishare-api/internal/service"
)

type mockScoreboard struct {
	lastUniversity uint
	lastUser       uint
	lastQuery      dto.LeaderboardQuery
	err            error
}

func (m *mockScoreboard) UserScore(_ context.Context, universityID, userID uint) (dto.UserScoreResponse, error) {
	m.lastUniversity = universityID
	m.lastUser = userID
	return dto.UserScoreResponse{UserID: userID, Score: 120, Level: dto.LevelResponse{Number: 2, Name: "Contributor"}}, m.err
}

func (m *mockScoreboard) UserBadges(_ context.Context, universityID, userID uint) ([]dto.BadgeStatusResponse, error) {
	m.lastUniversity = universityID
	m.lastUser = userID
	return []dto.BadgeStatusResponse{{ID: "first_note", Earned: true, Progress: 100}}, m.err
}

func (m *mockScoreboard) Leaderboard(_ context.Context, universityID uint, query dto.LeaderboardQuery) (dto.LeaderboardResponse, error) {
	m.lastUniversity = universityID
	m.lastQuery = query
	return dto.LeaderboardResponse{UniversityID: universityID, Period: query.Period}, m.err
}

func newScoreboardApp(svc handler.ScoreboardReader) *fiber.App {
	app := fiber.New()
	handler.NewScoreboardHandler(svc, validator.New(), zerolog.New(io.Discard)).Register(app.Group("/api/v1/scoreboard", withActor(student)))
	return app
}

func TestScoreboardHandler_UserScoreScopedToUniversity(t *testing.T) {
	svc := &mockScoreboard{}
	app := newScoreboardApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scoreboard/user/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.UserScoreResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, 120, body.Data.Score)
	require.Equal(t, uint(12), svc.lastUser)
	require.Equal(t, student.UniversityID, svc.lastUniversity)
}

func TestScoreboardHandler_UserBadges(t *testing.T) {
	app := newScoreboardApp(&mockScoreboard{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scoreboard/user/12/badges", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[[]dto.BadgeStatusResponse]
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.True(t, body.Data[0].Earned)
}

func TestScoreboardHandler_UserOutsideUniversity(t *testing.T) {
	app := newScoreboardApp(&mockScoreboard{err: fmt.Errorf("user 12: %w", service.ErrNotFound)})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scoreboard/user/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestScoreboardHandler_Leaderboard(t *testing.T) {
	svc := &mockScoreboard{}
	app := newScoreboardApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scoreboard/leaderboard?period=monthly&limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.LeaderboardQuery{Period: "monthly", Limit: 5}, svc.lastQuery)
}

func TestScoreboardHandler_LeaderboardRejectsUnknownPeriod(t *testing.T) {
	svc := &mockScoreboard{}
	app := newScoreboardApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/scoreboard/leaderboard?period=weekly", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.lastUniversity)
}
