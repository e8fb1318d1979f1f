package goals

import (
	"context"
	"time"
)

// Setting keys resolved through the project, site, organization
// fallback chain
const (
	KeyMonthlyGoal       = "monthly_goal"
	KeyCollectedOverride = "collected_override"
)

// SettingsStore reads one numeric payment setting per configuration
// level. Each method returns nil when the level does not define the
// key (or the stored value is not numeric).
type SettingsStore interface {
	ProjectPaymentSetting(ctx context.Context, projectID uint, key string) (*int64, error)
	SitePaymentSetting(ctx context.Context, siteID uint, key string) (*int64, error)
	FirstSitePaymentSetting(ctx context.Context, orgID uint, key string) (*int64, error)
	OrganizationPaymentSetting(ctx context.Context, orgID uint, key string) (*int64, error)

	// MonthCollected sums completed donation amounts of the given month,
	// scoped to a project when projectID is non-nil
	MonthCollected(ctx context.Context, orgID uint, projectID *uint, month time.Time) (int64, error)
}

// Resolver implements the hierarchical monthly-goal lookup: each level
// is consulted only when all higher-priority levels are absent or
// non-positive. Zero or negative values count as absent.
type Resolver struct {
	store SettingsStore
}

func NewResolver(store SettingsStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the effective monthly goal in minor units, or nil
// when no level configures one
func (r *Resolver) Resolve(ctx context.Context, orgID uint, projectID, siteID *uint) (*int64, error) {
	return r.resolveKey(ctx, orgID, projectID, siteID, KeyMonthlyGoal)
}

// ResolveCollectedOverride returns a manually entered "collected"
// figure that, when present, replaces the computed monthly sum. Same
// fallback chain as Resolve.
func (r *Resolver) ResolveCollectedOverride(ctx context.Context, orgID uint, projectID, siteID *uint) (*int64, error) {
	return r.resolveKey(ctx, orgID, projectID, siteID, KeyCollectedOverride)
}

func (r *Resolver) resolveKey(ctx context.Context, orgID uint, projectID, siteID *uint, key string) (*int64, error) {
	providers := []func() (*int64, error){
		func() (*int64, error) {
			if projectID == nil {
				return nil, nil
			}
			return r.store.ProjectPaymentSetting(ctx, *projectID, key)
		},
		func() (*int64, error) {
			if siteID != nil {
				return r.store.SitePaymentSetting(ctx, *siteID, key)
			}
			return r.store.FirstSitePaymentSetting(ctx, orgID, key)
		},
		func() (*int64, error) {
			return r.store.OrganizationPaymentSetting(ctx, orgID, key)
		},
	}

	for _, provider := range providers {
		v, err := provider()
		if err != nil {
			return nil, err
		}
		if v != nil && *v > 0 {
			return v, nil
		}
	}
	return nil, nil
}

// Progress is the monthly fundraising state of an organization,
// project or site
type Progress struct {
	Goal      *int64 `json:"goal"`      // minor units, nil when unconfigured
	Collected int64  `json:"collected"` // minor units
	Overriden bool   `json:"overridden"`
}

// MonthProgress resolves the goal and the collected figure for the
// month of now. A configured collected override wins over the computed
// sum of completed donations.
func (r *Resolver) MonthProgress(ctx context.Context, orgID uint, projectID, siteID *uint, now time.Time) (*Progress, error) {
	goal, err := r.Resolve(ctx, orgID, projectID, siteID)
	if err != nil {
		return nil, err
	}

	override, err := r.ResolveCollectedOverride(ctx, orgID, projectID, siteID)
	if err != nil {
		return nil, err
	}
	if override != nil {
		return &Progress{Goal: goal, Collected: *override, Overriden: true}, nil
	}

	collected, err := r.store.MonthCollected(ctx, orgID, projectID, now)
	if err != nil {
		return nil, err
	}
	return &Progress{Goal: goal, Collected: collected}, nil
}
