package gameloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"terraforming-mars-backend/internal/disaster"
	"terraforming-mars-backend/internal/events"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/production"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeUpkeepDebitsProportionalToPopulationAndElapsed(t *testing.T) {
	amounts := model.ResourceAmounts{Food: 100, Water: 100}
	consumeUpkeep(&amounts, 50, time.Hour)
	assert.Equal(t, 95, amounts.Food, "50 people * 0.1/hr * 1hr rounds to 5")
	assert.Equal(t, 95, amounts.Water)
}

func TestConsumeUpkeepFloorsAtZero(t *testing.T) {
	amounts := model.ResourceAmounts{Food: 2, Water: 0}
	consumeUpkeep(&amounts, 1000, time.Hour)
	assert.Equal(t, 0, amounts.Food)
	assert.Equal(t, 0, amounts.Water)
}

func TestRoundAmountRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 1, roundAmount(0.5))
	assert.Equal(t, -1, roundAmount(-0.5))
	assert.Equal(t, 0, roundAmount(0.4))
}

func TestApplyProductionCapsAtCapacityAndReportsWaste(t *testing.T) {
	amounts := model.ResourceAmounts{Food: 190}
	outputs := []production.Output{{Resource: model.ResourceFood, Amount: 20}}

	waste := applyProduction(&amounts, outputs, 200)

	assert.Equal(t, 200, amounts.Food, "capped at capacity")
	assert.Equal(t, 10, waste.Food, "the 10 that didn't fit is wasted")
}

func TestApplyProductionReportsNoWasteUnderCapacity(t *testing.T) {
	amounts := model.ResourceAmounts{Food: 50}
	outputs := []production.Output{{Resource: model.ResourceFood, Amount: 20}}

	waste := applyProduction(&amounts, outputs, 200)

	assert.Equal(t, 70, amounts.Food)
	assert.Zero(t, waste.Food)
}

func TestRoomNameHelpers(t *testing.T) {
	assert.Equal(t, "world:w1", worldRoom("w1"))
	assert.Equal(t, "settlement:s1", settlementRoom("s1"))
}

// fakeRooms is a synchronous stand-in for disaster.Emitter / eventbus.Hub.
type fakeRooms struct {
	mu        sync.Mutex
	published []string
}

func (r *fakeRooms) Publish(room, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, room+":"+eventType)
}

// fakeDomainBus publishes synchronously so assertions don't race the
// real InMemoryEventBus's worker pool.
type fakeDomainBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeDomainBus) Subscribe(eventType string, listener events.EventListener)   {}
func (b *fakeDomainBus) Unsubscribe(eventType string, listener events.EventListener) {}
func (b *fakeDomainBus) Close() error                                                { return nil }
func (b *fakeDomainBus) Publish(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedWorldAndSettlement(t *testing.T, ext persistence.Ext) (model.World, model.Settlement) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, persistence.CreateServer(ctx, ext, model.Server{
		ID: "server-1", Name: "srv", Hostname: "localhost", Port: 1, Status: model.ServerOnline,
		CreatedAt: now, UpdatedAt: now,
	}))
	world := model.World{
		ID: "world-1", ServerID: "server-1", Name: "w", Status: model.WorldReady,
		WidthRegions: 1, HeightRegions: 1, Seed: 1,
		Template:  model.TemplateConfig{Type: model.TemplateStandard, ProductionMultiplier: 1.0},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, persistence.CreateWorld(ctx, ext, world))
	require.NoError(t, persistence.CreateRegion(ctx, ext, model.Region{
		ID: "region-1", WorldID: world.ID, X: 0, Y: 0,
		ElevationMap: [][]float64{{0}}, Precipitation: [][]float64{{0}}, Temperature: [][]float64{{0}},
	}))

	settlementID := "settlement-1"
	tileID := "tile-1"
	require.NoError(t, persistence.CreateTile(ctx, ext, model.Tile{
		ID: tileID, RegionID: "region-1", WorldID: world.ID, X: 0, Y: 0, Type: model.TileLand,
		PlotSlots: 5, BaseProductionModifier: 1.0, SettlementID: &settlementID, BiomeID: string(model.BiomeGrassland),
		Quality:   model.ResourceQuality{Food: 50, Water: 50, Wood: 50, Stone: 50, Ore: 50},
		CreatedAt: now, UpdatedAt: now,
	}))
	settlement := model.Settlement{
		ID: settlementID, WorldID: world.ID, ProfileID: "profile-1", TileID: tileID,
		Name: "s", Tier: model.TierOutpost, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, persistence.CreateSettlement(ctx, ext, settlement,
		model.SettlementStorage{SettlementID: settlementID, Amounts: model.ResourceAmounts{Food: 100, Water: 100}, UpdatedAt: now},
		model.SettlementPopulation{SettlementID: settlementID, Current: 10, Happiness: 60, UpdatedAt: now, LastGrowthAt: now},
	))

	return world, settlement
}

func TestRunSettlementTickProducesAndPublishesState(t *testing.T) {
	store := newTestStore(t)
	world, settlement := seedWorldAndSettlement(t, store.DB())

	rooms := &fakeRooms{}
	domain := &fakeDomainBus{}
	loop := New(store, rooms, domain, time.Second, time.Second)

	require.NoError(t, loop.runSettlementTick(context.Background(), world, settlement))

	rooms.mu.Lock()
	defer rooms.mu.Unlock()
	assert.Contains(t, rooms.published, "settlement:settlement-1:resources-data")
	assert.Contains(t, rooms.published, "settlement:settlement-1:population-state")
}

func TestTickSkipsErroredSettlementAndClearsTheFlag(t *testing.T) {
	store := newTestStore(t)
	world, settlement := seedWorldAndSettlement(t, store.DB())
	require.NoError(t, persistence.MarkSettlementErrored(context.Background(), store.DB(), settlement.ID, true))

	rooms := &fakeRooms{}
	domain := &fakeDomainBus{}
	loop := New(store, rooms, domain, time.Second, time.Second)

	loop.tickWorld(context.Background(), world)

	rooms.mu.Lock()
	defer rooms.mu.Unlock()
	assert.Empty(t, rooms.published, "an errored settlement is skipped for one tick")

	reloaded, err := persistence.SettlementsByWorld(context.Background(), store.DB(), world.ID)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.False(t, reloaded[0].Errored, "the skip clears the flag so the next tick retries")
}

func TestTickWorldWritesAftermathHistoryOnlyForAffectedSettlement(t *testing.T) {
	store := newTestStore(t)
	world, settlement := seedWorldAndSettlement(t, store.DB())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, persistence.CreateDisaster(ctx, store.DB(), model.DisasterEvent{
		ID: "disaster-1", WorldID: world.ID, Type: model.DisasterWildfire, Severity: 60,
		SeverityLevel: model.SeverityMajor, AffectedBiomes: []model.BiomeID{model.BiomeGrassland},
		ScheduledAt: now.Add(-time.Hour), WarningTime: time.Minute, ImpactDuration: time.Second,
		Status: model.DisasterImpact, ImpactStartedAt: ptrTime(now.Add(-2 * time.Second)),
		CreatedAt: now, UpdatedAt: now,
	}))

	rooms := &fakeRooms{}
	domain := &fakeDomainBus{}
	loop := New(store, rooms, domain, time.Second, time.Second)
	loop.accumulateTally("disaster-1", settlement.ID, disaster.ImpactTally{StructuresDamaged: 2, StructuresDestroyed: 1, Casualties: 3})

	loop.tickWorld(ctx, world)

	history, err := persistence.DisasterHistoryBySettlement(ctx, store.DB(), settlement.ID)
	require.NoError(t, err)
	require.Len(t, history, 1, "the affected settlement gets a history row once the disaster reaches aftermath")
	assert.Equal(t, "disaster-1", history[0].DisasterID)
	assert.Equal(t, 3, history[0].Casualties)
	assert.Equal(t, 2, history[0].StructuresDamaged)
	assert.Positive(t, history[0].ResilienceGained)

	reloaded, err := persistence.SettlementsByWorld(ctx, store.DB(), world.ID)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Positive(t, reloaded[0].Resilience, "surviving the disaster raises resilience")
}

func ptrTime(t time.Time) *time.Time { return &t }
