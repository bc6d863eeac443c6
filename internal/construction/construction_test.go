package construction

import (
	"context"
	"testing"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostAppliesEmergencyMultiplier(t *testing.T) {
	base := model.ResourceAmounts{Wood: 10, Stone: 4}
	assert.Equal(t, base, Cost(base, false))
	assert.Equal(t, model.ResourceAmounts{Wood: 25, Stone: 10}, Cost(base, true))
}

func TestDurationAppliesEmergencySpeedup(t *testing.T) {
	base := 100 * time.Second
	assert.Equal(t, base, Duration(base, false))
	assert.Equal(t, 50*time.Second, Duration(base, true))
}

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedFixture(t *testing.T, ext persistence.Ext, settlementID string, storage model.ResourceAmounts) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, persistence.CreateServer(ctx, ext, model.Server{
		ID: "server-1", Name: "srv", Hostname: "localhost", Port: 1, Status: model.ServerOnline,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, persistence.CreateWorld(ctx, ext, model.World{
		ID: "world-1", ServerID: "server-1", Name: "w", Status: model.WorldReady,
		WidthRegions: 1, HeightRegions: 1, Seed: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, persistence.CreateSettlement(ctx, ext,
		model.Settlement{ID: settlementID, WorldID: "world-1", ProfileID: "profile-1", TileID: "tile-1",
			Name: "s", Tier: model.TierOutpost, CreatedAt: now, UpdatedAt: now},
		model.SettlementStorage{SettlementID: settlementID, Amounts: storage, UpdatedAt: now},
		model.SettlementPopulation{SettlementID: settlementID, UpdatedAt: now, LastGrowthAt: now},
	))

	_, err := ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement)
		VALUES ('farm-def', ?, ?, 1, 10, 60, 0, 1, 0)`, model.SubtypeFarm, model.CategoryExtractor)
	require.NoError(t, err)
	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_requirements (structure_id, resource, quantity) VALUES ('farm-def', 'wood', 10)`)
	require.NoError(t, err)

	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement)
		VALUES ('house-def', ?, ?, 1, 5, 60, 0, 5, 1)`, model.SubtypeHouse, model.CategoryBuilding)
	require.NoError(t, err)
	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_requirements (structure_id, resource, quantity) VALUES ('house-def', 'wood', 5)`)
	require.NoError(t, err)

	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement)
		VALUES ('sprawling-def', ?, ?, 1, 1, 60, 0, 50, 0)`, model.SubtypeWorkshop, model.CategoryBuilding)
	require.NoError(t, err)
	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_requirements (structure_id, resource, quantity) VALUES ('sprawling-def', 'wood', 5)`)
	require.NoError(t, err)

	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement, min_town_hall_level)
		VALUES ('keep-def', ?, ?, 3, 1, 60, 0, 1, 0, 2)`, model.SubtypeWorkshop, model.CategoryBuilding)
	require.NoError(t, err)
	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_requirements (structure_id, resource, quantity) VALUES ('keep-def', 'wood', 5)`)
	require.NoError(t, err)
}

func TestEnqueueDebitsStorageAndStartsInProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 20})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		entry, err := Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1")
		require.NoError(t, err)
		assert.Equal(t, model.QueueInProgress, entry.Status, "queue is empty, so the first entry starts immediately")
		assert.Equal(t, 10, entry.ResourcesCost.Wood)
		return nil
	})
	require.NoError(t, err)

	storage, err := persistence.StorageBySettlement(ctx, store.DB(), "settlement-1")
	require.NoError(t, err)
	assert.Equal(t, 10, storage.Amounts.Wood, "20 wood minus the 10-wood cost")
}

func TestEnqueueRejectsInsufficientResources(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 2})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1")
		return err
	})
	assert.Error(t, err)
}

func TestEnqueueRejectsEmergencyWithoutAftermathDisaster(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "farm-def", true, "world-1")
		return err
	})
	assert.Error(t, err)
}

func TestAdvanceCompletesDueEntriesAndPromotesNext(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 1000})

	var first model.ConstructionQueueEntry
	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		var err error
		first, err = Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1")
		if err != nil {
			return err
		}
		// Fill the remaining active slots so the next enqueue lands QUEUED, not IN_PROGRESS.
		for i := 0; i < model.MaxActiveConstructions-1; i++ {
			if _, err := Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1"); err != nil {
				return err
			}
		}
		queued, err := Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1")
		if err != nil {
			return err
		}
		assert.Equal(t, model.QueueQueued, queued.Status, "active slots are full")
		return nil
	})
	require.NoError(t, err)

	// Force the first entry's completesAt into the past directly, as the tick
	// loop would observe after enough wall-clock time passed.
	past := time.Now().Add(-time.Hour)
	first.CompletesAt = &past
	require.NoError(t, persistence.UpdateQueueEntry(ctx, store.DB(), first))

	err = store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		completed, err := Advance(ctx, tx, "settlement-1", time.Now())
		require.NoError(t, err)
		assert.Len(t, completed, 1)
		return nil
	})
	require.NoError(t, err)

	all, err := persistence.AllConstructionsBySettlement(ctx, store.DB(), "settlement-1")
	require.NoError(t, err)
	queuedCount, inProgressCount := 0, 0
	for _, e := range all {
		switch e.Status {
		case model.QueueQueued:
			queuedCount++
		case model.QueueInProgress:
			inProgressCount++
		}
	}
	assert.Equal(t, 0, queuedCount, "the previously queued entry should have been promoted")
	assert.Equal(t, model.MaxActiveConstructions, inProgressCount)
}

func TestCancelRefundsHalfCost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	var entry model.ConstructionQueueEntry
	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		var err error
		entry, err = Enqueue(ctx, tx, "settlement-1", "farm-def", false, "world-1")
		return err
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		return Cancel(ctx, tx, entry)
	})
	require.NoError(t, err)

	storage, err := persistence.StorageBySettlement(ctx, store.DB(), "settlement-1")
	require.NoError(t, err)
	assert.Equal(t, 95, storage.Amounts.Wood, "90 after the 10-wood debit, plus a 5-wood (50%) refund")
}

func TestEnqueueSucceedsForFirstBuildingOnFreshSettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		entry, err := Enqueue(ctx, tx, "settlement-1", "house-def", false, "world-1")
		require.NoError(t, err, "a settlement with zero structures still has its base area allowance")
		assert.Equal(t, "house-def", entry.StructureID)
		return nil
	})
	require.NoError(t, err)
}

func TestEnqueueRejectsAreaExceeded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "sprawling-def", false, "world-1")
		return err
	})
	assert.Error(t, err, "sprawling-def's area cost (50) exceeds the settlement's base area (20)")
}

func TestEnqueueRejectsBelowTownHallLevel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "keep-def", false, "world-1")
		return err
	})
	assert.Error(t, err, "keep-def requires a level-2 TOWN_HALL, which this settlement hasn't built")
}

func TestEnqueueRejectsUniqueBuildingAlreadyQueued(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, store.DB(), "settlement-1", model.ResourceAmounts{Wood: 100})

	err := store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "house-def", false, "world-1")
		return err
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		_, err := Enqueue(ctx, tx, "settlement-1", "house-def", false, "world-1")
		return err
	})
	assert.Error(t, err, "house-def is still queued from the first call, not yet built")
}
