package worldgen

import (
	"context"
	"testing"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLaysOutTilesAndMarksWorldReady(t *testing.T) {
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, persistence.CreateServer(ctx, store.DB(), model.Server{
		ID: "server-1", Name: "srv", Hostname: "localhost", Port: 1, Status: model.ServerOnline,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, persistence.CreateWorld(ctx, store.DB(), model.World{
		ID: "world-1", ServerID: "server-1", Name: "w", Status: model.WorldGenerating,
		WidthRegions: 2, HeightRegions: 1, Seed: 99,
		Elevation: DefaultNoiseBundle, Precipitation: DefaultNoiseBundle, Temperature: DefaultNoiseBundle,
		CreatedAt: now, UpdatedAt: now,
	}))

	Generate(ctx, store, "world-1")

	world, err := persistence.WorldByID(ctx, store.DB(), "world-1")
	require.NoError(t, err)
	assert.Equal(t, model.WorldReady, world.Status)

	regions, err := persistence.ListRegionsByWorld(ctx, store.DB(), "world-1")
	require.NoError(t, err)
	assert.Len(t, regions, 2, "WidthRegions=2, HeightRegions=1")

	for _, r := range regions {
		tiles, err := persistence.TilesByRegion(ctx, store.DB(), r.ID)
		require.NoError(t, err)
		assert.Len(t, tiles, model.RegionSize*model.RegionSize)
	}
}
