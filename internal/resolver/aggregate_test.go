package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scene-editor/internal/cache"
)

func TestComputeEmptySet(t *testing.T) {
	agg := Compute(nil)
	assert.False(t, agg.Active)
	assert.Equal(t, 100, agg.Progress)
	assert.Empty(t, agg.Error)
}

func TestComputeTruncatingMean(t *testing.T) {
	agg := Compute([]cache.Entry{
		{ID: "a", Status: cache.StatusCached},
		{ID: "b", Status: cache.StatusCached},
		{ID: "c", Status: cache.StatusDownloading, Progress: 50},
		{ID: "d", Status: cache.StatusAbsent},
	})
	// (100+100+50+0)/4, truncated.
	assert.Equal(t, 62, agg.Progress)
	assert.True(t, agg.Active)
	assert.Empty(t, agg.Error, "error must not surface while entries are pending")
}

func TestComputeErrorWaitsForSettle(t *testing.T) {
	agg := Compute([]cache.Entry{
		{ID: "a", Status: cache.StatusError, Error: "texture.png: 404"},
		{ID: "b", Status: cache.StatusDownloading, Progress: 10},
	})
	assert.True(t, agg.Active)
	assert.Empty(t, agg.Error)
}

func TestComputeSingleFailureKeepsMessage(t *testing.T) {
	agg := Compute([]cache.Entry{
		{ID: "a", Status: cache.StatusCached},
		{ID: "b", Status: cache.StatusError, Error: "texture.png: 404"},
	})
	assert.False(t, agg.Active)
	assert.Equal(t, "texture.png: 404", agg.Error)
}

func TestComputeMultipleFailuresCollapseToCount(t *testing.T) {
	agg := Compute([]cache.Entry{
		{ID: "a", Status: cache.StatusError, Error: "first"},
		{ID: "b", Status: cache.StatusError, Error: "second"},
		{ID: "c", Status: cache.StatusCached},
	})
	assert.False(t, agg.Active)
	assert.Equal(t, "2 assets failed", agg.Error)
}

func TestComputeAllCached(t *testing.T) {
	agg := Compute([]cache.Entry{
		{ID: "a", Status: cache.StatusCached},
		{ID: "b", Status: cache.StatusCached},
	})
	assert.False(t, agg.Active)
	assert.Equal(t, 100, agg.Progress)
	assert.Empty(t, agg.Error)
	assert.True(t, agg.Settled())
}
