// Package plan maps subscription plans to quotas, feature lists and default
// tenant settings. The mapping is pure data: no database, no errors.
package plan

import "github.com/IhSAaaa/TaskFlow-sub000/internal/model"

// Unlimited is the sentinel quota value meaning "no ceiling"
const Unlimited = -1

// Limits are the numeric quotas and feature list a plan grants
type Limits struct {
	MaxUsers    int
	MaxProjects int
	MaxStorage  int // GB
	Features    []string
}

var planLimits = map[model.PlanTier]Limits{
	model.PlanFree: {
		MaxUsers:    5,
		MaxProjects: 3,
		MaxStorage:  1,
		Features:    []string{"task_management", "project_management"},
	},
	model.PlanBasic: {
		MaxUsers:    20,
		MaxProjects: 10,
		MaxStorage:  10,
		Features:    []string{"task_management", "project_management", "time_tracking", "reporting"},
	},
	model.PlanProfessional: {
		MaxUsers:    100,
		MaxProjects: 50,
		MaxStorage:  100,
		Features:    []string{"task_management", "project_management", "time_tracking", "reporting", "integrations"},
	},
	model.PlanEnterprise: {
		MaxUsers:    Unlimited,
		MaxProjects: Unlimited,
		MaxStorage:  1000,
		Features:    []string{"task_management", "project_management", "time_tracking", "reporting", "integrations", "api_access", "custom_integrations"},
	},
}

// LimitsFor resolves the quotas for a plan. An unknown plan value falls back
// to free's limits; callers depend on this exact behavior, do not turn it
// into an error.
func LimitsFor(tier model.PlanTier) Limits {
	if limits, ok := planLimits[tier]; ok {
		return limits
	}
	return planLimits[model.PlanFree]
}

// DefaultSettings resolves the default tenant settings for a plan. Feature
// and integration toggles open up with the tier; notification channels are
// on everywhere.
func DefaultSettings(tier model.PlanTier) model.TenantSettings {
	if _, ok := planLimits[tier]; !ok {
		tier = model.PlanFree
	}

	atLeastBasic := tier == model.PlanBasic || tier == model.PlanProfessional || tier == model.PlanEnterprise
	atLeastPro := tier == model.PlanProfessional || tier == model.PlanEnterprise

	return model.TenantSettings{
		Theme: model.ThemeSettings{
			PrimaryColor:   "#2563eb",
			SecondaryColor: "#64748b",
		},
		Features: model.FeatureToggles{
			TimeTracking: atLeastBasic,
			Reporting:    atLeastBasic,
			Integrations: atLeastPro,
			APIAccess:    tier == model.PlanEnterprise,
		},
		Notifications: model.NotificationToggles{
			Email: true,
			Push:  true,
			InApp: true,
		},
		Security: model.SecurityPolicy{
			PasswordMinLength: 8,
			SessionTimeoutMin: 60,
		},
		Integrations: model.IntegrationToggles{
			Slack:   atLeastPro,
			GitHub:  atLeastPro,
			Webhook: tier == model.PlanEnterprise,
		},
	}
}
