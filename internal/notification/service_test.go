package notification

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func TestCreatePersistsThenPushes(t *testing.T) {
	db, mock := newTestDB(t)
	hub := NewHub(zap.NewNop())
	svc := NewService(db, hub)

	conn := &fakeConn{}
	hub.Register(7, conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	// no preference row yet: push defaults to enabled
	mock.ExpectQuery(`SELECT \* FROM "notification_preferences"`).
		WillReturnError(gorm.ErrRecordNotFound)

	notif, err := svc.Create(context.Background(), CreateInput{
		UserID: 7,
		Title:  "Task assigned",
		Type:   model.NotifTaskAssigned,
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, model.NotificationUnread, notif.Status)
	require.Equal(t, 1, conn.received())
	assert.Equal(t, "new_notification", conn.events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHonorsDisabledPushPreference(t *testing.T) {
	db, mock := newTestDB(t)
	hub := NewHub(zap.NewNop())
	svc := NewService(db, hub)

	conn := &fakeConn{}
	hub.Register(7, conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "notification_preferences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "email", "push", "in_app"}).
			AddRow(1, 7, 1, `{}`, `{"task_assigned":false}`, `{}`))

	notif, err := svc.Create(context.Background(), CreateInput{
		UserID: 7,
		Title:  "Task assigned",
		Type:   model.NotifTaskAssigned,
	}, 1)
	require.NoError(t, err)

	// the durable row exists even though nothing was pushed
	assert.NotNil(t, notif)
	assert.Zero(t, conn.received())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadUnknownNotification(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, NewHub(zap.NewNop()))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.MarkRead(context.Background(), 99, 7, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetPreferencesFallsBackToDefaults(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, NewHub(zap.NewNop()))

	mock.ExpectQuery(`SELECT \* FROM "notification_preferences"`).
		WillReturnError(gorm.ErrRecordNotFound)

	prefs, err := svc.GetPreferences(context.Background(), 7, 1)
	require.NoError(t, err)

	assert.Equal(t, uint(7), prefs.UserID)
	assert.Equal(t, uint(1), prefs.TenantID)
	for _, typ := range model.AllNotificationTypes {
		assert.True(t, prefs.Email[typ])
		assert.True(t, prefs.Push[typ])
		assert.True(t, prefs.InApp[typ])
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
