package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/plan"
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

func tenantRow(id uint, planTier model.PlanTier) *sqlmock.Rows {
	limits := plan.LimitsFor(planTier)
	features, _ := json.Marshal(limits.Features)
	settings, _ := json.Marshal(plan.DefaultSettings(planTier))

	return sqlmock.NewRows([]string{
		"id", "name", "domain", "status", "plan", "settings", "owner_id",
		"max_users", "max_projects", "max_storage", "features",
	}).AddRow(
		id, "Acme", "acme.example.com", string(model.TenantStatusActive), string(planTier),
		string(settings), 1, limits.MaxUsers, limits.MaxProjects, limits.MaxStorage, string(features),
	)
}

func TestCreateForcesPendingAndPlanQuotas(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tenant, err := svc.Create(context.Background(), CreateInput{
		Name:    "Acme",
		Domain:  "acme.example.com",
		OwnerID: 1,
		Plan:    model.PlanProfessional,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TenantStatusPending, tenant.Status)
	assert.Equal(t, 100, tenant.MaxUsers)
	assert.Equal(t, 50, tenant.MaxProjects)
	assert.Equal(t, 100, tenant.MaxStorage)
	assert.Contains(t, tenant.Features, "integrations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownPlanFallsBackToFree(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tenant, err := svc.Create(context.Background(), CreateInput{
		Name:    "Acme",
		Domain:  "acme.example.com",
		OwnerID: 1,
		Plan:    model.PlanTier("platinum"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, tenant.MaxUsers)
	assert.Equal(t, 3, tenant.MaxProjects)
	assert.Equal(t, 1, tenant.MaxStorage)
}

func TestCreateDuplicateDomainRollsBack(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tenants"`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "idx_tenants_domain"`))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateInput{
		Name:    "Acme",
		Domain:  "acme.example.com",
		OwnerID: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpgradePlanRewritesQuotasAndFeatures(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(tenantRow(1, model.PlanFree))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(tenantRow(1, model.PlanEnterprise))

	tenant, err := svc.UpgradePlan(context.Background(), 1, model.PlanEnterprise)
	require.NoError(t, err)

	assert.Equal(t, plan.Unlimited, tenant.MaxUsers)
	assert.Equal(t, plan.Unlimited, tenant.MaxProjects)
	assert.Equal(t, 1000, tenant.MaxStorage)
	assert.Contains(t, tenant.Features, "api_access")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownTenant(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnError(gorm.ErrRecordNotFound)

	name := "Renamed"
	_, err := svc.Update(context.Background(), 99, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteIsIdempotentSoftDelete(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	// both calls issue the same status update; the second still matches a row
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "tenants" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownTenant(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tenants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMergeSettingsShallowReplacesTopLevelKeys(t *testing.T) {
	base := plan.DefaultSettings(model.PlanProfessional)

	merged, err := MergeSettings(base, map[string]json.RawMessage{
		"theme": json.RawMessage(`{"primary_color":"#000000"}`),
	})
	require.NoError(t, err)

	// the whole theme object is replaced, not deep-merged
	assert.Equal(t, "#000000", merged.Theme.PrimaryColor)
	assert.Empty(t, merged.Theme.SecondaryColor)

	// untouched top-level keys survive
	assert.True(t, merged.Features.Integrations)
	assert.True(t, merged.Notifications.Email)
	assert.Equal(t, 8, merged.Security.PasswordMinLength)
}

func TestMergeSettingsEmptyOverridesKeepBase(t *testing.T) {
	base := plan.DefaultSettings(model.PlanBasic)

	merged, err := MergeSettings(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestMergeSettingsRejectsMalformedOverride(t *testing.T) {
	base := plan.DefaultSettings(model.PlanFree)

	_, err := MergeSettings(base, map[string]json.RawMessage{
		"theme": json.RawMessage(`{broken`),
	})
	assert.Error(t, err)
}
