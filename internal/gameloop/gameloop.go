// Package gameloop is the fixed-rate tick driver that runs production,
// population, construction, and disaster advancement over every ready
// world's settlements, each settlement ticked with its own panic isolation.
package gameloop

import (
	"context"
	"sort"
	"sync"
	"time"

	"terraforming-mars-backend/internal/construction"
	"terraforming-mars-backend/internal/disaster"
	"terraforming-mars-backend/internal/events"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/modifier"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/population"
	"terraforming-mars-backend/internal/production"

	"go.uber.org/zap"
)

// Loop drives the economic and disaster tick over every ready world.
type Loop struct {
	Store        *persistence.Store
	Rooms        disaster.Emitter
	Domain       events.EventBus
	TickInterval time.Duration
	SoftDeadline time.Duration

	talliesMu sync.Mutex
	tallies   map[string]disaster.ImpactTally // keyed by disasterID+"|"+settlementID, accumulated across the IMPACT phase
}

// New builds a Loop. softDeadline bounds how long a single settlement's
// tick may run before it is deferred to the next tick. rooms fans state
// out to connected clients; domain carries typed events to in-process
// listeners (e.g. an activity log).
func New(store *persistence.Store, rooms disaster.Emitter, domain events.EventBus, tickInterval, softDeadline time.Duration) *Loop {
	return &Loop{
		Store: store, Rooms: rooms, Domain: domain, TickInterval: tickInterval, SoftDeadline: softDeadline,
		tallies: make(map[string]disaster.ImpactTally),
	}
}

func tallyKey(disasterID, settlementID string) string { return disasterID + "|" + settlementID }

func (l *Loop) accumulateTally(disasterID, settlementID string, t disaster.ImpactTally) {
	l.talliesMu.Lock()
	defer l.talliesMu.Unlock()
	cur := l.tallies[tallyKey(disasterID, settlementID)]
	cur.StructuresDamaged += t.StructuresDamaged
	cur.StructuresDestroyed += t.StructuresDestroyed
	cur.Casualties += t.Casualties
	cur.ResourcesLost = cur.ResourcesLost.Add(t.ResourcesLost)
	l.tallies[tallyKey(disasterID, settlementID)] = cur
}

func (l *Loop) popTally(disasterID, settlementID string) disaster.ImpactTally {
	l.talliesMu.Lock()
	defer l.talliesMu.Unlock()
	key := tallyKey(disasterID, settlementID)
	tally := l.tallies[key]
	delete(l.tallies, key)
	return tally
}

// Run blocks, ticking every TickInterval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.TickInterval)
	defer ticker.Stop()

	logger.Info("game loop started", zap.Duration("interval", l.TickInterval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("game loop stopped")
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	worlds, err := persistence.ListWorldsByStatus(ctx, l.Store.DB(), model.WorldReady)
	if err != nil {
		logger.Error("tick: list worlds failed", zap.Error(err))
		return
	}

	for _, world := range worlds {
		l.tickWorld(ctx, world)
	}
}

func (l *Loop) tickWorld(ctx context.Context, world model.World) {
	disasters, err := persistence.ActiveDisastersByWorld(ctx, l.Store.DB(), world.ID)
	if err != nil {
		logger.Error("tick: list disasters failed", zap.String("world_id", world.ID), zap.Error(err))
		return
	}

	settlements, err := persistence.SettlementsByWorld(ctx, l.Store.DB(), world.ID)
	if err != nil {
		logger.Error("tick: list settlements failed", zap.String("world_id", world.ID), zap.Error(err))
		return
	}

	now := time.Now()
	for _, d := range disasters {
		prevStatus := d.Status
		var updated model.DisasterEvent
		if err := l.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
			var err error
			updated, err = disaster.Advance(ctx, tx.Ext(), d, now, l.Rooms)
			return err
		}); err != nil {
			logger.Error("tick: disaster advance failed",
				zap.String("world_id", world.ID), zap.String("disaster_id", d.ID), zap.Error(err))
			continue
		}
		if prevStatus == model.DisasterImpact && updated.Status == model.DisasterAftermath {
			l.finalizeAftermath(ctx, updated, settlements)
		}
	}

	// id-sorted so two overlapping ticks (e.g. a slow tick still running
	// when the ticker fires again) always acquire settlement rows in the
	// same order.
	sort.Slice(settlements, func(i, j int) bool { return settlements[i].ID < settlements[j].ID })

	for _, settlement := range settlements {
		if settlement.Errored {
			// skip one tick after a panic, then retry
			_ = persistence.MarkSettlementErrored(ctx, l.Store.DB(), settlement.ID, false)
			continue
		}
		l.tickSettlement(ctx, world, settlement)
	}
}

// finalizeAftermath writes the DisasterHistory row and resilience gain for
// every settlement the disaster reached, draining the tally accumulated
// across its IMPACT phase.
func (l *Loop) finalizeAftermath(ctx context.Context, d model.DisasterEvent, settlements []model.Settlement) {
	for _, s := range settlements {
		tile, err := persistence.TileByID(ctx, l.Store.DB(), s.TileID)
		if err != nil {
			logger.Warn("aftermath: tile lookup failed", zap.String("settlement_id", s.ID), zap.Error(err))
			continue
		}
		if !d.AffectsTile(tile.RegionID, model.BiomeID(tile.BiomeID)) {
			continue
		}

		tally := l.popTally(d.ID, s.ID)
		pop, err := persistence.PopulationBySettlement(ctx, l.Store.DB(), s.ID)
		if err != nil {
			logger.Warn("aftermath: population lookup failed", zap.String("settlement_id", s.ID), zap.Error(err))
			continue
		}
		prePopulation := pop.Current + tally.Casualties
		gain := disaster.ResilienceGain(d.Severity, tally.Casualties, prePopulation)

		err = l.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
			ext := tx.Ext()
			if err := disaster.WriteAftermathHistory(ctx, ext, d.ID, s.ID, tally, gain); err != nil {
				return err
			}
			resilience := s.Resilience + gain
			if resilience > 100 {
				resilience = 100
			}
			return persistence.UpdateSettlementTierAndResilience(ctx, ext, s.ID, s.Tier, resilience, time.Now())
		})
		if err != nil {
			logger.Error("aftermath: history write failed",
				zap.String("settlement_id", s.ID), zap.String("disaster_id", d.ID), zap.Error(err))
			continue
		}
		l.Rooms.Publish(settlementRoom(s.ID), "disaster-impact-end", map[string]any{
			"disasterId": d.ID, "casualties": tally.Casualties,
			"structuresDamaged": tally.StructuresDamaged, "structuresDestroyed": tally.StructuresDestroyed,
			"resourcesLost": tally.ResourcesLost,
		})
	}
}

func (l *Loop) tickSettlement(ctx context.Context, world model.World, settlement model.Settlement) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("settlement tick panicked",
					zap.String("settlement_id", settlement.ID), zap.Any("panic", r))
				_ = persistence.MarkSettlementErrored(ctx, l.Store.DB(), settlement.ID, true)
			}
		}()
		if err := l.runSettlementTick(ctx, world, settlement); err != nil {
			logger.Warn("settlement tick failed",
				zap.String("settlement_id", settlement.ID), zap.Error(err))
		}
	}()

	select {
	case <-done:
	case <-time.After(l.SoftDeadline):
		logger.Warn("settlement tick exceeded soft deadline, deferring",
			zap.String("settlement_id", settlement.ID))
	}
}

func (l *Loop) runSettlementTick(ctx context.Context, world model.World, settlement model.Settlement) error {
	return l.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		now := time.Now()

		tile, err := persistence.TileByID(ctx, ext, settlement.TileID)
		if err != nil {
			return err
		}
		biome, ok := model.BiomeByID(model.BiomeID(tile.BiomeID))
		if !ok {
			biome, _ = model.BiomeByID(model.BiomeGrassland)
		}

		structures, err := persistence.StructuresBySettlement(ctx, ext, settlement.ID)
		if err != nil {
			return err
		}

		activeDisasters, err := persistence.ActiveDisastersByWorld(ctx, ext, world.ID)
		if err != nil {
			return err
		}

		extractors := make([]production.Extractor, 0, len(structures))
		for _, s := range structures {
			def, err := persistence.StructureDefByID(ctx, ext, s.StructureID)
			if err != nil {
				return err
			}
			if def.Category != model.CategoryExtractor {
				continue
			}
			extractors = append(extractors, production.Extractor{
				StructureID: s.ID, Subtype: def.Subtype, Level: s.Level,
				Health: s.EffectiveHealth(), CreatedAt: s.CreatedAt.UnixNano(),
			})
		}

		outputs := production.Compute(extractors, tile, biome, activeDisasters, 1, world.Template.WorldMul())

		storageCapacity, err := modifier.StorageCapacity(ctx, ext, settlement.ID)
		if err != nil {
			return err
		}

		storage, err := persistence.StorageBySettlement(ctx, ext, settlement.ID)
		if err != nil {
			return err
		}
		before := storage.Amounts
		waste := applyProduction(&storage.Amounts, outputs, storageCapacity)

		pop, err := persistence.PopulationBySettlement(ctx, ext, settlement.ID)
		if err != nil {
			return err
		}
		consumeUpkeep(&storage.Amounts, pop.Current, l.TickInterval)

		capacity, happinessBonus, err := modifier.CapacityAndHappiness(ctx, ext, settlement.ID)
		if err != nil {
			return err
		}

		trauma := 0
		for _, d := range activeDisasters {
			if d.Status == model.DisasterImpact || d.Status == model.DisasterAftermath {
				trauma += 5
			}
		}

		delta := population.Compute(pop, settlement.Tier, capacity, happinessBonus, storage.Amounts, trauma, l.TickInterval)

		if err := persistence.UpdateStorage(ctx, ext, settlement.ID, storage.Amounts, now); err != nil {
			return err
		}
		l.emitStorageChange(ctx, world.ID, settlement.ID, before, storage.Amounts, storageCapacity, now)
		l.emitResourceWaste(ctx, world.ID, settlement.ID, waste, now)

		oldPop := pop.Current
		pop.Current = delta.NewCurrent
		pop.Happiness = delta.Happiness
		pop.UpdatedAt = now
		if err := persistence.UpdatePopulation(ctx, ext, pop); err != nil {
			return err
		}
		if pop.Current != oldPop {
			l.emitPopulationChange(ctx, world.ID, settlement.ID, oldPop, pop.Current, delta.Casualties, now)
		}

		completed, err := construction.Advance(ctx, tx, settlement.ID, now)
		if err != nil {
			return err
		}
		for _, s := range completed {
			l.Rooms.Publish(worldRoom(world.ID), "construction-complete", s)
		}
		if len(completed) > 0 {
			l.emitModifierRecompute(ctx, world.ID, settlement.ID, ext, capacity, happinessBonus, now)
		}

		for _, d := range activeDisasters {
			if d.Status != model.DisasterImpact {
				continue
			}
			if !d.AffectsTile(tile.RegionID, model.BiomeID(tile.BiomeID)) {
				continue
			}
			tally, err := disaster.ImpactTick(ctx, ext, d, settlement.ID, pop.Current, happinessBonus/100, settlement.Resilience, l.TickInterval)
			if err != nil {
				return err
			}
			l.accumulateTally(d.ID, settlement.ID, tally)
			if tally.StructuresDamaged > 0 || tally.Casualties > 0 {
				l.Rooms.Publish(settlementRoom(settlement.ID), "casualties-report", tally)
				l.emitDisasterImpact(ctx, world.ID, settlement.ID, d.ID, tally, now)
			}
		}

		l.Rooms.Publish(settlementRoom(settlement.ID), "resources-data", storage)
		l.Rooms.Publish(settlementRoom(settlement.ID), "population-state", pop)
		return nil
	})
}

// applyProduction folds outputs into amounts, capping each resource at
// capacity and returning whatever was discarded as waste (P4's overflow
// rule).
func applyProduction(amounts *model.ResourceAmounts, outputs []production.Output, capacity float64) model.ResourceAmounts {
	var waste model.ResourceAmounts
	ceiling := int(capacity)
	for _, o := range outputs {
		grown := amounts.Get(o.Resource) + roundAmount(o.Amount)
		if grown > ceiling {
			waste.Set(o.Resource, waste.Get(o.Resource)+(grown-ceiling))
			grown = ceiling
		}
		amounts.Set(o.Resource, grown)
	}
	return waste
}

// consumeUpkeep debits the per-capita food/water draw for elapsed, floored
// at zero since settlement storage never goes negative.
func consumeUpkeep(amounts *model.ResourceAmounts, current int, elapsed time.Duration) {
	need := roundAmount(float64(current) * 0.1 * elapsed.Hours())
	amounts.Food = maxInt(0, amounts.Food-need)
	amounts.Water = maxInt(0, amounts.Water-need)
}

func roundAmount(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// storageWarningThreshold is the fraction of capacity a resource must cross,
// rising, before a storage-warning fires.
const storageWarningThreshold = 0.9

func (l *Loop) emitStorageChange(ctx context.Context, worldID, settlementID string, before, after model.ResourceAmounts, capacity float64, now time.Time) {
	for _, k := range model.AllResources {
		oldAmount, newAmount := float64(before.Get(k)), float64(after.Get(k))
		if oldAmount == newAmount {
			continue
		}
		event := events.NewResourceStorageChangedEvent(worldID, events.ResourceStorageChangedEvent{
			SettlementID: settlementID, Resource: string(k),
			OldAmount: oldAmount, NewAmount: newAmount, Timestamp: now,
		})
		if err := l.Domain.Publish(ctx, &event); err != nil {
			logger.Warn("domain event publish failed", zap.Error(err))
		}

		threshold := capacity * storageWarningThreshold
		if newAmount >= threshold && oldAmount < threshold {
			payload := events.StorageWarningEvent{
				SettlementID: settlementID, Resource: string(k),
				Amount: newAmount, Capacity: capacity, Timestamp: now,
			}
			warning := events.NewStorageWarningEvent(worldID, payload)
			if err := l.Domain.Publish(ctx, &warning); err != nil {
				logger.Warn("domain event publish failed", zap.Error(err))
			}
			l.Rooms.Publish(settlementRoom(settlementID), "storage-warning", payload)
		}
	}
}

// emitResourceWaste reports production this tick discarded to a full
// storage bin (P4's overflow rule), once per resource that overflowed.
func (l *Loop) emitResourceWaste(ctx context.Context, worldID, settlementID string, waste model.ResourceAmounts, now time.Time) {
	for _, k := range model.AllResources {
		wasted := waste.Get(k)
		if wasted <= 0 {
			continue
		}
		payload := events.ResourceWasteEvent{
			SettlementID: settlementID, Resource: string(k),
			Wasted: float64(wasted), Timestamp: now,
		}
		event := events.NewResourceWasteEvent(worldID, payload)
		if err := l.Domain.Publish(ctx, &event); err != nil {
			logger.Warn("domain event publish failed", zap.Error(err))
		}
		l.Rooms.Publish(settlementRoom(settlementID), "resource-waste", payload)
	}
}

func (l *Loop) emitPopulationChange(ctx context.Context, worldID, settlementID string, oldCount, newCount, casualties int, now time.Time) {
	cause := "growth"
	if casualties > 0 {
		cause = "starvation"
	} else if newCount < oldCount {
		cause = "emigration"
	}
	event := events.NewPopulationChangedEvent(worldID, events.PopulationChangedEvent{
		SettlementID: settlementID, OldCount: oldCount, NewCount: newCount, Cause: cause, Timestamp: now,
	})
	if err := l.Domain.Publish(ctx, &event); err != nil {
		logger.Warn("domain event publish failed", zap.Error(err))
	}
}

// emitModifierRecompute re-derives a settlement's capacity/happiness
// modifiers after a construction completes and publishes a domain event
// for each one that actually changed, since a completed structure doesn't
// always move both aggregates.
func (l *Loop) emitModifierRecompute(ctx context.Context, worldID, settlementID string, ext persistence.Ext, oldCapacity, oldHappiness float64, now time.Time) {
	newCapacity, newHappiness, err := modifier.CapacityAndHappiness(ctx, ext, settlementID)
	if err != nil {
		logger.Warn("modifier recompute read failed", zap.Error(err))
		return
	}
	if newCapacity != oldCapacity {
		event := events.NewModifierRecomputedEvent(worldID, events.ModifierRecomputedEvent{
			SettlementID: settlementID, ModifierType: "capacity",
			OldValue: oldCapacity, NewValue: newCapacity, Timestamp: now,
		})
		if err := l.Domain.Publish(ctx, &event); err != nil {
			logger.Warn("domain event publish failed", zap.Error(err))
		}
	}
	if newHappiness != oldHappiness {
		event := events.NewModifierRecomputedEvent(worldID, events.ModifierRecomputedEvent{
			SettlementID: settlementID, ModifierType: "happiness",
			OldValue: oldHappiness, NewValue: newHappiness, Timestamp: now,
		})
		if err := l.Domain.Publish(ctx, &event); err != nil {
			logger.Warn("domain event publish failed", zap.Error(err))
		}
	}
}

func (l *Loop) emitDisasterImpact(ctx context.Context, worldID, settlementID, disasterID string, tally disaster.ImpactTally, now time.Time) {
	event := events.NewDisasterImpactEvent(worldID, events.DisasterImpactEvent{
		SettlementID: settlementID, DisasterID: disasterID,
		StructuresDamaged: tally.StructuresDamaged, Casualties: tally.Casualties, Timestamp: now,
	})
	if err := l.Domain.Publish(ctx, &event); err != nil {
		logger.Warn("domain event publish failed", zap.Error(err))
	}
}

func worldRoom(worldID string) string           { return "world:" + worldID }
func settlementRoom(settlementID string) string { return "settlement:" + settlementID }
