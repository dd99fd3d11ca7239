package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/unishare-api/internal/models"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
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

func seedUser(t *testing.T, db *gorm.DB, universityID uint, name string) models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@uni.test", name, uuid.NewString()[:8]),
		UniversityID: universityID,
		Role:         models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedNote(t *testing.T, db *gorm.DB, owner models.User, courseCode string) models.Note {
	t.Helper()
	note := models.Note{
		Title:        "Lecture notes",
		FileURL:      "https://files.test/notes.pdf",
		OwnerID:      owner.ID,
		UniversityID: owner.UniversityID,
	}
	_, err := NewNoteRepository(db).CreateWithCourse(t.Context(), &note, courseCode)
	require.NoError(t, err)
	return note
}
