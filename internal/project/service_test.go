package project

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

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

func projectRow(id, tenantID, ownerID uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "status", "tenant_id", "owner_id", "tags"}).
		AddRow(id, "Website relaunch", "planning", tenantID, ownerID, `[]`)
}

func memberRows(projectID uint, userIDs ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "project_id", "user_id", "role", "permissions"})
	for i, userID := range userIDs {
		role := "member"
		perms := `["read","write"]`
		if i == 0 {
			role = "owner"
			perms = `["*"]`
		}
		rows.AddRow(uint(i+1), projectID, userID, role, perms)
	}
	return rows
}

func expectGet(mock sqlmock.Sqlmock, projectID, tenantID, ownerID uint, memberIDs ...uint) {
	mock.ExpectQuery(`SELECT \* FROM "projects"`).
		WillReturnRows(projectRow(projectID, tenantID, ownerID))
	mock.ExpectQuery(`SELECT \* FROM "project_members"`).
		WillReturnRows(memberRows(projectID, memberIDs...))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
}

func TestCreateInsertsOwnerAndDedupedMembers(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	// owner membership, then one row each for the two distinct extra members;
	// the owner's id in the member list is dropped
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`INSERT INTO "project_members"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(i + 1)))
	}
	mock.ExpectCommit()
	expectGet(mock, 10, 1, 7, 7, 2, 3)

	proj, err := svc.Create(context.Background(), CreateInput{
		Name:    "Website relaunch",
		Members: []uint{2, 7, 3, 2},
	}, 1, 7)
	require.NoError(t, err)

	assert.Len(t, proj.Members, 3)
	assert.InDelta(t, 25.0, proj.Progress, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackWhenMemberInsertFails(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO "project_members"`).
		WillReturnError(errors.New("pq: connection reset"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateInput{Name: "Website relaunch"}, 1, 7)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownProjectRollsBack(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "project_members"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "projects"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 99, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesMembersThenProject(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "project_members"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "projects"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), 10, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberRefusesOwner(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	// the refusal happens before any delete is issued
	mock.ExpectQuery(`SELECT \* FROM "projects"`).
		WillReturnRows(projectRow(10, 1, 7))

	err := svc.RemoveMember(context.Background(), 10, 1, 7)
	assert.ErrorIs(t, err, apperr.ErrProtectedOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberDeletesNonOwnerRow(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`SELECT \* FROM "projects"`).
		WillReturnRows(projectRow(10, 1, 7))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "project_members"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.RemoveMember(context.Background(), 10, 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberUnknownProject(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`SELECT \* FROM "projects"`).
		WillReturnError(gorm.ErrRecordNotFound)

	err := svc.RemoveMember(context.Background(), 99, 1, 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestComputeProgress(t *testing.T) {
	assert.Zero(t, computeProgress(0, 0))
	assert.Zero(t, computeProgress(0, 10))
	assert.InDelta(t, 50.0, computeProgress(5, 10), 0.001)
	assert.InDelta(t, 100.0, computeProgress(10, 10), 0.001)
	assert.InDelta(t, 33.333, computeProgress(1, 3), 0.001)
}
