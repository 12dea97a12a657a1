package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
)

func TestLimitsForQuotas(t *testing.T) {
	tests := []struct {
		tier        model.PlanTier
		maxUsers    int
		maxProjects int
		maxStorage  int
	}{
		{model.PlanFree, 5, 3, 1},
		{model.PlanBasic, 20, 10, 10},
		{model.PlanProfessional, 100, 50, 100},
		{model.PlanEnterprise, Unlimited, Unlimited, 1000},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			limits := LimitsFor(tt.tier)
			assert.Equal(t, tt.maxUsers, limits.MaxUsers)
			assert.Equal(t, tt.maxProjects, limits.MaxProjects)
			assert.Equal(t, tt.maxStorage, limits.MaxStorage)
		})
	}
}

func TestLimitsForFeatureSuperset(t *testing.T) {
	order := []model.PlanTier{model.PlanFree, model.PlanBasic, model.PlanProfessional, model.PlanEnterprise}

	for i := 1; i < len(order); i++ {
		lower := LimitsFor(order[i-1])
		higher := LimitsFor(order[i])
		for _, f := range lower.Features {
			assert.Contains(t, higher.Features, f,
				"%s should include every %s feature", order[i], order[i-1])
		}
		assert.Greater(t, len(higher.Features), len(lower.Features))
	}

	assert.Contains(t, LimitsFor(model.PlanBasic).Features, "time_tracking")
	assert.Contains(t, LimitsFor(model.PlanBasic).Features, "reporting")
	assert.Contains(t, LimitsFor(model.PlanProfessional).Features, "integrations")
	assert.Contains(t, LimitsFor(model.PlanEnterprise).Features, "api_access")
	assert.NotContains(t, LimitsFor(model.PlanProfessional).Features, "api_access")
}

func TestLimitsForUnknownPlanFallsBackToFree(t *testing.T) {
	assert.Equal(t, LimitsFor(model.PlanFree), LimitsFor(model.PlanTier("gold")))
	assert.Equal(t, LimitsFor(model.PlanFree), LimitsFor(model.PlanTier("")))
}

func TestDefaultSettings(t *testing.T) {
	free := DefaultSettings(model.PlanFree)
	assert.False(t, free.Features.TimeTracking)
	assert.False(t, free.Integrations.Slack)
	assert.True(t, free.Notifications.Email)

	pro := DefaultSettings(model.PlanProfessional)
	assert.True(t, pro.Features.TimeTracking)
	assert.True(t, pro.Features.Integrations)
	assert.False(t, pro.Features.APIAccess)
	assert.True(t, pro.Integrations.Slack)

	ent := DefaultSettings(model.PlanEnterprise)
	assert.True(t, ent.Features.APIAccess)
	assert.True(t, ent.Integrations.Webhook)

	unknown := DefaultSettings(model.PlanTier("gold"))
	assert.Equal(t, free, unknown)
}
