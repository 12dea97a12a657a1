package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/config"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/jwtutil"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *jwtutil.JWTUtil) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	jwtUtil := jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey: "test-signing-key",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	return NewService(db, jwtUtil), mock, jwtUtil
}

func userRow(t *testing.T, id, tenantID uint, email, password string, refreshToken *string) *sqlmock.Rows {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{"id", "email", "tenant_id", "password", "role", "status", "refresh_token"}).
		AddRow(id, email, tenantID, string(hashed), "member", "active", refreshToken)
}

func TestLoginUnknownEmailIsGenericFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.Login(context.Background(), "nobody@acme.example.com", "password123", 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginWrongPasswordIsGenericFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRow(t, 42, 1, "dev@acme.example.com", "correct-password", nil))

	_, err := svc.Login(context.Background(), "dev@acme.example.com", "wrong-password", 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginIssuesAndStoresTokenPair(t *testing.T) {
	svc, mock, jwtUtil := newTestService(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRow(t, 42, 1, "dev@acme.example.com", "correct-password", nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Login(context.Background(), "dev@acme.example.com", "correct-password", 1)
	require.NoError(t, err)

	claims, err := jwtUtil.ValidateAccess(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, uint(1), claims.TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsRotatedToken(t *testing.T) {
	svc, mock, jwtUtil := newTestService(t)

	pair, err := jwtUtil.GeneratePair(42, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	// the stored value no longer matches the presented token
	stored := "a-newer-refresh-token"
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRow(t, 42, 1, "dev@acme.example.com", "pw", &stored))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	svc, mock, jwtUtil := newTestService(t)

	pair, err := jwtUtil.GeneratePair(42, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRow(t, 42, 1, "dev@acme.example.com", "pw", &pair.RefreshToken))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, jwtUtil := newTestService(t)

	pair, err := jwtUtil.GeneratePair(42, "dev@acme.example.com", 1, "member")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, jwtutil.ErrInvalidToken)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expired := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "tenant_id", "password", "reset_token", "reset_token_expires_at"}).
			AddRow(42, "dev@acme.example.com", 1, "hash", "stale-token", expired))

	err := svc.ResetPassword(context.Background(), "stale-token", "new-password-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}
