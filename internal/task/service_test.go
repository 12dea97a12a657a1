package task

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestCreateForcesTodoAndDefaultsPriority(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	task, err := svc.Create(context.Background(), CreateInput{
		Title:     "Write onboarding docs",
		ProjectID: 10,
	}, 1, 7)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusTodo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, uint(1), task.TenantID)
	assert.Equal(t, uint(7), task.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnknownProject(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	// the project lookup is tenant-scoped, so a project belonging to another
	// tenant counts as missing
	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.Create(context.Background(), CreateInput{
		Title:     "Write onboarding docs",
		ProjectID: 99,
	}, 1, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownTask(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	title := "Renamed"
	_, err := svc.Update(context.Background(), 99, 1, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteUnknownTask(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), 99, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
