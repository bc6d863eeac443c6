package structureservice

import (
	"context"
	"testing"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus records every published event without needing a real eventbus.Hub.
type fakeBus struct {
	published []string
}

func (b *fakeBus) Publish(room, eventType string, payload any) {
	b.published = append(b.published, room+":"+eventType)
}

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// fixture is everything a Build/Upgrade/Demolish call needs already in
// place: a world, a settlement with storage, a claimed tile, and a catalog
// of one extractor and one building definition.
type fixture struct {
	SettlementID string
	TileID       string
}

func seedFixture(t *testing.T, ext persistence.Ext, storage model.ResourceAmounts) fixture {
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
	require.NoError(t, persistence.CreateRegion(ctx, ext, model.Region{
		ID: "region-1", WorldID: "world-1", X: 0, Y: 0,
		ElevationMap: [][]float64{{0}}, Precipitation: [][]float64{{0}}, Temperature: [][]float64{{0}},
	}))

	settlementID := "settlement-1"
	tileID := "tile-1"
	require.NoError(t, persistence.CreateSettlement(ctx, ext,
		model.Settlement{ID: settlementID, WorldID: "world-1", ProfileID: "profile-1", TileID: tileID,
			Name: "s", Tier: model.TierCity, CreatedAt: now, UpdatedAt: now},
		model.SettlementStorage{SettlementID: settlementID, Amounts: storage, UpdatedAt: now},
		model.SettlementPopulation{SettlementID: settlementID, UpdatedAt: now, LastGrowthAt: now},
	))
	require.NoError(t, persistence.CreateTile(ctx, ext, model.Tile{
		ID: tileID, RegionID: "region-1", WorldID: "world-1", X: 0, Y: 0, Type: model.TileLand,
		PlotSlots: 5, BaseProductionModifier: 1.0, SettlementID: &settlementID, BiomeID: string(model.BiomeGrassland),
		CreatedAt: now, UpdatedAt: now,
	}))

	_, err := ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement)
		VALUES ('farm-def', ?, ?, 1, 5, 60, 0, 1, 0)`, model.SubtypeFarm, model.CategoryExtractor)
	require.NoError(t, err)
	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_requirements (structure_id, resource, quantity) VALUES ('farm-def', 'wood', 10)`)
	require.NoError(t, err)

	_, err = ext.ExecContext(ctx, `
		INSERT INTO structure_defs
			(id, subtype, category, tier, max_level, construction_time_seconds, population_required, area_cost, unique_per_settlement)
		VALUES ('house-def', ?, ?, 1, 5, 60, 0, 2, 1)`, model.SubtypeHouse, model.CategoryBuilding)
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

	return fixture{SettlementID: settlementID, TileID: tileID}
}

func TestBuildExtractorRequiresTileAndSlot(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	_, err := svc.Build(context.Background(), fx.SettlementID, "farm-def", nil, nil)
	assert.Error(t, err, "extractors require tile+slot")
}

func TestBuildExtractorSucceedsAndDebitsStorage(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	bus := &fakeBus{}
	svc := New(store, bus)

	slot := 0
	structure, err := svc.Build(context.Background(), fx.SettlementID, "farm-def", &fx.TileID, &slot)
	require.NoError(t, err)
	assert.Equal(t, 1, structure.Level)

	storage, err := persistence.StorageBySettlement(context.Background(), store.DB(), fx.SettlementID)
	require.NoError(t, err)
	assert.Equal(t, 90, storage.Amounts.Wood)
	assert.Contains(t, bus.published, "world:world-1:structure:built")
}

func TestBuildExtractorRejectsWrongSettlementTile(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	otherTile := "tile-does-not-belong"
	slot := 0
	_, err := svc.Build(context.Background(), fx.SettlementID, "farm-def", &otherTile, &slot)
	assert.Error(t, err)
}

func TestBuildBuildingDoesNotRequireTile(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	structure, err := svc.Build(context.Background(), fx.SettlementID, "house-def", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "house-def", structure.StructureID)
}

func TestUpgradeRejectsAtMaxLevel(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 1000})
	svc := New(store, &fakeBus{})

	structure, err := svc.Build(context.Background(), fx.SettlementID, "house-def", nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		structure, err = svc.Upgrade(ctx, structure.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, structure.Level)

	_, err = svc.Upgrade(ctx, structure.ID)
	assert.Error(t, err, "house-def's max_level is 5")
}

func TestUpgradeScalesCostByNextLevel(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})
	ctx := context.Background()

	structure, err := svc.Build(ctx, fx.SettlementID, "house-def", nil, nil)
	require.NoError(t, err)
	storageAfterBuild, err := persistence.StorageBySettlement(ctx, store.DB(), fx.SettlementID)
	require.NoError(t, err)
	assert.Equal(t, 95, storageAfterBuild.Amounts.Wood, "100 minus the 5-wood base cost")

	_, err = svc.Upgrade(ctx, structure.ID)
	require.NoError(t, err)
	storageAfterUpgrade, err := persistence.StorageBySettlement(ctx, store.DB(), fx.SettlementID)
	require.NoError(t, err)
	assert.Equal(t, 85, storageAfterUpgrade.Amounts.Wood, "95 minus 5*2 (upgrading to level 2)")
}

func TestDemolishRemovesStructureAndRecomputesModifiers(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	bus := &fakeBus{}
	svc := New(store, bus)
	ctx := context.Background()

	structure, err := svc.Build(ctx, fx.SettlementID, "house-def", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Demolish(ctx, structure.ID))

	_, err = persistence.SettlementStructureByID(ctx, store.DB(), structure.ID)
	assert.Error(t, err, "structure should no longer exist")
	assert.Contains(t, bus.published, "world:world-1:structure:demolished")
}

func TestBuildSucceedsOnFreshSettlementWithZeroStructures(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	structure, err := svc.Build(context.Background(), fx.SettlementID, "house-def", nil, nil)
	require.NoError(t, err, "a settlement with no structures yet still has its base area allowance")
	assert.Equal(t, "house-def", structure.StructureID)
}

func TestBuildRejectsAreaExceeded(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	_, err := svc.Build(context.Background(), fx.SettlementID, "sprawling-def", nil, nil)
	assert.Error(t, err, "sprawling-def's area cost (50) exceeds the settlement's base area (20)")
}

func TestBuildRejectsBelowTownHallLevel(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 100})
	svc := New(store, &fakeBus{})

	_, err := svc.Build(context.Background(), fx.SettlementID, "keep-def", nil, nil)
	assert.Error(t, err, "keep-def requires a level-2 TOWN_HALL, which this settlement hasn't built")
}

func TestBuildRejectsUniqueStructureAlreadyQueued(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store.DB(), model.ResourceAmounts{Wood: 1000})
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, persistence.CreateQueueEntry(ctx, store.DB(), model.ConstructionQueueEntry{
		ID: "queue-1", SettlementID: fx.SettlementID, StructureID: "house-def",
		Status: model.QueueInProgress, Position: 0, CreatedAt: now, UpdatedAt: now,
	}))

	svc := New(store, &fakeBus{})
	_, err := svc.Build(ctx, fx.SettlementID, "house-def", nil, nil)
	assert.Error(t, err, "house-def already has a non-terminal construction queue entry")
}
