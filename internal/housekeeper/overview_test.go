package housekeeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/dlkeeper/internal/testutil"
)

func TestOverviewMatchesSequentialCalls(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateSizedFile("a.pdf", 10, time.Hour)
	fx.CreateSizedFile("b.jpg", 20, 3*testutil.Day)
	fx.CreateSizedFile("c/d.zip", 30, 10*testutil.Day)
	fx.CreateSizedFile("c/e.xyz", 40, 20*testutil.Day)

	now := time.Now()
	h := New(Options{Now: func() time.Time { return now }, DiskUsage: fixedDisk(12.5, nil)})

	ov, err := h.Overview(context.Background(), fx.RootDir, nil, 2)
	require.NoError(t, err)

	stats, err := h.ComputeStatistics(fx.RootDir)
	require.NoError(t, err)
	details, err := h.DetailedStatistics(fx.RootDir, nil)
	require.NoError(t, err)
	recent, err := h.ListFiles(fx.RootDir, 2)
	require.NoError(t, err)

	assert.Equal(t, fx.RootDir, ov.Root)
	assert.Equal(t, stats, ov.Statistics)
	assert.Equal(t, details, ov.Details)
	assert.Equal(t, recent, ov.RecentFiles)
	assert.Equal(t, []string{"a.pdf", "b.jpg"}, names(ov.RecentFiles))
}

func TestOverviewMissingRoot(t *testing.T) {
	_, err := New(Options{}).Overview(context.Background(), "/nonexistent/dlkeeper/root", nil, 5)
	assert.True(t, IsNotFound(err))
}

func TestOverviewCancelled(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Overview(ctx, fx.RootDir, nil, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
