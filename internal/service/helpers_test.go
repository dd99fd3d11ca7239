package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/unishare-api/internal/dto"
	"github.com/noah-isme/unishare-api/internal/models"
	"github.com/noah-isme/unishare-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type emittedEvent struct {
	UserID  uint
	Event   string
	Payload interface{}
}

// recordingTransport keeps every emit attempt. When err is set each attempt fails with it.
type recordingTransport struct {
	mu     sync.Mutex
	events []emittedEvent
	err    error
}

func (r *recordingTransport) EmitToUser(_ context.Context, userID uint, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emittedEvent{UserID: userID, Event: event, Payload: payload})
	return r.err
}

func (r *recordingTransport) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingTransport) forUser(userID uint) []emittedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emittedEvent
	for _, event := range r.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	return out
}

// testEnv wires every service over a private in-memory sqlite database.
type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	notes         repository.NoteRepository
	transport     *recordingTransport
	activity      ActivityService
	notifications NotificationService
	gamification  GamificationService
	noteSvc       NoteService
	commentSvc    CommentService
	reactionSvc   ReactionService
}

func newTestEnv(t *testing.T, reportThreshold int) *testEnv {
	t.Helper()
	db := setupServiceTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())

	env := &testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		notes:     repository.NewNoteRepository(db),
		transport: &recordingTransport{},
	}
	env.activity = NewActivityService(repository.NewActivityLogRepository(db), testLogger())
	env.notifications = NewNotificationService(repository.NewNotificationRepository(db), env.users, env.transport, 0, testLogger())
	env.gamification = NewGamificationService(env.users, env.notifications, nil, 0, nil, testLogger())
	env.noteSvc = NewNoteService(env.notes, env.gamification, nil, env.activity, validate, testLogger())
	env.commentSvc = NewCommentService(repository.NewCommentRepository(db), env.notes, env.gamification, env.notifications, env.activity, validate, testLogger())
	env.reactionSvc = NewReactionService(repository.NewReactionRepository(db), env.notes, env.gamification, env.notifications, env.activity, validate, reportThreshold, testLogger())
	return env
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.University{},
		&models.User{},
		&models.UserBadge{},
		&models.GamificationReset{},
		&models.Course{},
		&models.Note{},
		&models.Comment{},
		&models.Reaction{},
		&models.Notification{},
		&models.ActivityLog{},
	))
	return db
}

func (e *testEnv) student(t *testing.T, universityID uint, name string) Actor {
	t.Helper()
	return e.seedActor(t, universityID, name, models.RoleStudent)
}

func (e *testEnv) admin(t *testing.T, universityID uint, name string) Actor {
	t.Helper()
	return e.seedActor(t, universityID, name, models.RoleAdmin)
}

func (e *testEnv) seedActor(t *testing.T, universityID uint, name, role string) Actor {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@uni.test", name, uuid.NewString()[:8]),
		UniversityID: universityID,
		Role:         role,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return Actor{ID: user.ID, UniversityID: universityID, Role: role, Name: name}
}

func (e *testEnv) user(t *testing.T, id uint) models.User {
	t.Helper()
	user, err := e.users.GetByID(t.Context(), id)
	require.NoError(t, err)
	return user
}

func (e *testEnv) note(t *testing.T, id uint) models.Note {
	t.Helper()
	note, err := e.notes.GetByID(t.Context(), id)
	require.NoError(t, err)
	return note
}

func (e *testEnv) createNote(t *testing.T, owner Actor, course string) dto.NoteResponse {
	t.Helper()
	note, err := e.noteSvc.Create(t.Context(), owner, dto.NoteCreateRequest{
		Title:      "Week 1 lecture",
		CourseCode: course,
		Year:       2024,
		Semester:   "Fall",
		FileURL:    "https://files.test/week1.pdf",
	}, nil)
	require.NoError(t, err)
	return note
}
