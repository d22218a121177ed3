package housekeeper

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/dlkeeper/internal/progress"
	"github.com/fenilsonani/dlkeeper/internal/testutil"
)

func TestPurgeOlderThan(t *testing.T) {
	fx := testutil.NewFixture(t)
	fresh := fx.CreateSizedFile("a.pdf", 10, 0)
	stale := fx.CreateSizedFile("b.jpg", 1234, 40*testutil.Day)

	result, err := New(Options{}).PurgeOlderThan(fx.RootDir, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, int64(1234), result.BytesFreed)
	fx.AssertFileExists(fresh)
	fx.AssertFileNotExists(stale)

	require.Len(t, result.Items, 1)
	assert.Equal(t, stale, result.Items[0].Path)
	assert.True(t, result.Items[0].Deleted)
}

func TestPurgeRespectsCutoff(t *testing.T) {
	fx := testutil.NewFixture(t)
	keep := fx.CreateSizedFile("keep.zip", 5, 29*testutil.Day)
	drop := fx.CreateSizedFile("deep/er/drop.zip", 7, 31*testutil.Day)
	fx.CreateSizedFile("also-drop.iso", 11, 365*testutil.Day)

	now := time.Now()
	result, err := New(Options{Now: func() time.Time { return now }}).PurgeOlderThan(fx.RootDir, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, int64(18), result.BytesFreed)
	fx.AssertFileExists(keep)
	fx.AssertFileNotExists(drop)

	cutoff := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, cutoff, result.Cutoff)
	for _, item := range result.Items {
		assert.True(t, item.ModTime.Before(cutoff), item.Path)
	}
}

func TestPurgeNegativeDaysActsAsZero(t *testing.T) {
	fx := testutil.NewFixture(t)
	old := fx.CreateSizedFile("yesterday.txt", 3, testutil.Day)

	result, err := New(Options{}).PurgeOlderThan(fx.RootDir, -5)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	fx.AssertFileNotExists(old)
}

func TestPurgeHugeDaysKeepsFreshFiles(t *testing.T) {
	fx := testutil.NewFixture(t)
	fresh := fx.CreateSizedFile("fresh.pdf", 8, 0)
	old := fx.CreateSizedFile("old.pdf", 8, 3*365*testutil.Day)

	now := time.Now()
	for _, days := range []int{200000, MaxDays, MaxDays + 1, math.MaxInt} {
		result, err := New(Options{Now: func() time.Time { return now }}).PurgeOlderThan(fx.RootDir, days)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Deleted, "days=%d", days)
		assert.True(t, result.Cutoff.Before(now), "days=%d cutoff=%v", days, result.Cutoff)
	}

	fx.AssertFileExists(fresh)
	fx.AssertFileExists(old)
}

func TestDaysWindow(t *testing.T) {
	tests := []struct {
		days int
		want time.Duration
	}{
		{-3, 0},
		{0, 0},
		{1, 24 * time.Hour},
		{30, 30 * 24 * time.Hour},
		{MaxDays, time.Duration(MaxDays) * 24 * time.Hour},
		{MaxDays + 1, time.Duration(MaxDays) * 24 * time.Hour},
		{math.MaxInt, time.Duration(MaxDays) * 24 * time.Hour},
	}

	for _, tt := range tests {
		got := DaysWindow(tt.days)
		assert.Equal(t, tt.want, got, "DaysWindow(%d)", tt.days)
		assert.GreaterOrEqual(t, got, time.Duration(0))
	}
}

func TestPurgeDryRun(t *testing.T) {
	fx := testutil.NewFixture(t)
	stale := fx.CreateSizedFile("old.dmg", 100, 90*testutil.Day)
	fx.CreateSizedFile("new.dmg", 100, 0)

	result, err := New(Options{DryRun: true}).PurgeOlderThan(fx.RootDir, 30)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, int64(100), result.BytesFreed)
	fx.AssertFileExists(stale)
}

func TestPurgeFailuresAreSkipped(t *testing.T) {
	testutil.SkipIfRoot(t)

	fx := testutil.NewFixture(t)
	_, trapped := fx.CreateReadOnlyDir("locked", "stuck.bin")
	free := fx.CreateSizedFile("free.bin", 9, 60*testutil.Day)

	result, err := New(Options{}).PurgeOlderThan(fx.RootDir, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, int64(9), result.BytesFreed)
	assert.Equal(t, 1, result.Failed())
	fx.AssertFileExists(trapped)
	fx.AssertFileNotExists(free)

	for _, item := range result.Items {
		if item.Path == trapped {
			assert.False(t, item.Deleted)
			require.NotNil(t, item.Err)
			assert.Equal(t, ErrorPermissionDenied, item.Err.Reason)
		}
	}
}

func TestPurgeMissingRoot(t *testing.T) {
	_, err := New(Options{}).PurgeOlderThan("/nonexistent/dlkeeper/root", 30)
	assert.True(t, IsNotFound(err))
}

func TestPurgePublishesProgress(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateSizedFile("a.log", 4, 40*testutil.Day)
	fx.CreateSizedFile("b.log", 6, 40*testutil.Day)

	reporter := progress.NewReporter()
	updates := reporter.Subscribe()
	defer reporter.Unsubscribe(updates)

	_, err := New(Options{Progress: reporter}).PurgeOlderThan(fx.RootDir, 30)
	require.NoError(t, err)

	var phases []progress.Phase
	for len(updates) > 0 {
		phases = append(phases, (<-updates).Phase)
	}
	require.NotEmpty(t, phases)
	assert.Equal(t, progress.PhaseScanning, phases[0])
	assert.Equal(t, progress.PhaseComplete, phases[len(phases)-1])

	last := reporter.Current()
	assert.Equal(t, 2, last.Processed)
	assert.Equal(t, int64(10), last.Bytes)
	assert.Equal(t, "purge", last.Operation)
}
