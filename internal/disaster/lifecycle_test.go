package disaster

import (
	"context"
	"testing"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedSettlement(t *testing.T, ext persistence.Ext) string {
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
	settlementID := "settlement-1"
	require.NoError(t, persistence.CreateSettlement(ctx, ext,
		model.Settlement{ID: settlementID, WorldID: "world-1", ProfileID: "profile-1", TileID: "tile-1",
			Name: "s", Tier: model.TierOutpost, CreatedAt: now, UpdatedAt: now},
		model.SettlementStorage{SettlementID: settlementID, UpdatedAt: now},
		model.SettlementPopulation{SettlementID: settlementID, UpdatedAt: now, LastGrowthAt: now},
	))
	return settlementID
}

func activeImpactEvent(severity float64) model.DisasterEvent {
	now := time.Now()
	started := now.Add(-30 * time.Second)
	return model.DisasterEvent{
		ID: "disaster-1", WorldID: "world-1", Type: model.DisasterWildfire,
		Severity: severity, SeverityLevel: model.SeverityLevelFor(severity),
		ScheduledAt: now.Add(-time.Hour), WarningTime: time.Minute, ImpactDuration: time.Minute,
		Status: model.DisasterImpact, ImpactStartedAt: &started, CreatedAt: now, UpdatedAt: now,
	}
}

func TestImpactTickHigherResilienceYieldsFewerCasualties(t *testing.T) {
	store := newTestStore(t)
	settlementID := seedSettlement(t, store.DB())
	event := activeImpactEvent(80)
	ctx := context.Background()

	unguarded, err := ImpactTick(ctx, store.DB(), event, settlementID, 1000, 0, 0, 10*time.Second)
	require.NoError(t, err)

	resilient, err := ImpactTick(ctx, store.DB(), event, settlementID, 1000, 0, 100, 10*time.Second)
	require.NoError(t, err)

	require.Greater(t, unguarded.Casualties, resilient.Casualties,
		"full resilience halves the casualty fraction relative to zero resilience")
}

func TestImpactTickNoOpOutsideImpactStatus(t *testing.T) {
	store := newTestStore(t)
	settlementID := seedSettlement(t, store.DB())
	event := activeImpactEvent(80)
	event.Status = model.DisasterAftermath

	tally, err := ImpactTick(context.Background(), store.DB(), event, settlementID, 1000, 0, 0, 10*time.Second)
	require.NoError(t, err)
	require.Zero(t, tally.Casualties)
	require.Zero(t, tally.StructuresDamaged)
}
