package goals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSettings is an in-memory SettingsStore
type fakeSettings struct {
	project   map[uint]map[string]int64
	site      map[uint]map[string]int64
	firstSite map[uint]map[string]int64 // keyed by org
	org       map[uint]map[string]int64
	collected int64
}

func (f *fakeSettings) lookup(m map[uint]map[string]int64, id uint, key string) (*int64, error) {
	if settings, ok := m[id]; ok {
		if v, ok := settings[key]; ok {
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeSettings) ProjectPaymentSetting(_ context.Context, projectID uint, key string) (*int64, error) {
	return f.lookup(f.project, projectID, key)
}

func (f *fakeSettings) SitePaymentSetting(_ context.Context, siteID uint, key string) (*int64, error) {
	return f.lookup(f.site, siteID, key)
}

func (f *fakeSettings) FirstSitePaymentSetting(_ context.Context, orgID uint, key string) (*int64, error) {
	return f.lookup(f.firstSite, orgID, key)
}

func (f *fakeSettings) OrganizationPaymentSetting(_ context.Context, orgID uint, key string) (*int64, error) {
	return f.lookup(f.org, orgID, key)
}

func (f *fakeSettings) MonthCollected(_ context.Context, _ uint, _ *uint, _ time.Time) (int64, error) {
	return f.collected, nil
}

func uintPtr(v uint) *uint { return &v }

func TestResolve_ProjectWins(t *testing.T) {
	store := &fakeSettings{
		project: map[uint]map[string]int64{3: {KeyMonthlyGoal: 25000}},
		site:    map[uint]map[string]int64{2: {KeyMonthlyGoal: 50000}},
		org:     map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000}},
	}
	r := NewResolver(store)

	goal, err := r.Resolve(context.Background(), 1, uintPtr(3), uintPtr(2))
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, int64(25000), *goal)
}

func TestResolve_ZeroProjectGoalFallsThroughToSite(t *testing.T) {
	store := &fakeSettings{
		project: map[uint]map[string]int64{3: {KeyMonthlyGoal: 0}},
		site:    map[uint]map[string]int64{2: {KeyMonthlyGoal: 50000}},
		org:     map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000}},
	}
	r := NewResolver(store)

	goal, err := r.Resolve(context.Background(), 1, uintPtr(3), uintPtr(2))
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, int64(50000), *goal)
}

func TestResolve_NegativeCountsAsAbsent(t *testing.T) {
	store := &fakeSettings{
		project: map[uint]map[string]int64{3: {KeyMonthlyGoal: -1}},
		site:    map[uint]map[string]int64{},
		org:     map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000}},
	}
	r := NewResolver(store)

	goal, err := r.Resolve(context.Background(), 1, uintPtr(3), uintPtr(2))
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, int64(100000), *goal)
}

func TestResolve_FirstSiteUsedWithoutExplicitSite(t *testing.T) {
	store := &fakeSettings{
		firstSite: map[uint]map[string]int64{1: {KeyMonthlyGoal: 75000}},
		org:       map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000}},
	}
	r := NewResolver(store)

	goal, err := r.Resolve(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, int64(75000), *goal)
}

func TestResolve_AllAbsent(t *testing.T) {
	r := NewResolver(&fakeSettings{})

	goal, err := r.Resolve(context.Background(), 1, uintPtr(3), uintPtr(2))
	require.NoError(t, err)
	assert.Nil(t, goal)
}

func TestResolveCollectedOverride_SameChain(t *testing.T) {
	store := &fakeSettings{
		site: map[uint]map[string]int64{2: {KeyCollectedOverride: 30000}},
		org:  map[uint]map[string]int64{1: {KeyCollectedOverride: 90000}},
	}
	r := NewResolver(store)

	override, err := r.ResolveCollectedOverride(context.Background(), 1, nil, uintPtr(2))
	require.NoError(t, err)
	require.NotNil(t, override)
	assert.Equal(t, int64(30000), *override)
}

func TestMonthProgress_OverrideWins(t *testing.T) {
	store := &fakeSettings{
		org:       map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000, KeyCollectedOverride: 42000}},
		collected: 17000,
	}
	r := NewResolver(store)

	progress, err := r.MonthProgress(context.Background(), 1, nil, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(42000), progress.Collected)
	assert.True(t, progress.Overriden)
	require.NotNil(t, progress.Goal)
	assert.Equal(t, int64(100000), *progress.Goal)
}

func TestMonthProgress_ComputedSum(t *testing.T) {
	store := &fakeSettings{
		org:       map[uint]map[string]int64{1: {KeyMonthlyGoal: 100000}},
		collected: 17000,
	}
	r := NewResolver(store)

	progress, err := r.MonthProgress(context.Background(), 1, nil, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(17000), progress.Collected)
	assert.False(t, progress.Overriden)
}
