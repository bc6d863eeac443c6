package disaster

import (
	"context"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/google/uuid"
)

// Emitter is the minimal publish surface disaster needs from the event
// bus, kept as an interface so this package stays free of a websocket
// dependency.
type Emitter interface {
	Publish(room string, eventType string, payload any)
}

// Schedule creates a new SCHEDULED disaster for a biome present in
// worldID, drawing its type and severity from the seeded RNG.
func Schedule(ctx context.Context, ext persistence.Ext, worldID string, biome model.BiomeID, rng *counterRNG, templateSeverityMul float64, warningTime, impactDuration time.Duration, at time.Time) (model.DisasterEvent, error) {
	dtype := PickType(rng, biome)
	severity := PickSeverity(rng, templateSeverityMul)
	now := time.Now()

	event := model.DisasterEvent{
		ID: uuid.NewString(), WorldID: worldID, Type: dtype, Severity: severity,
		SeverityLevel: model.SeverityLevelFor(severity), AffectedBiomes: []model.BiomeID{biome},
		ScheduledAt: at, WarningTime: warningTime, ImpactDuration: impactDuration,
		Status: model.DisasterScheduled, CreatedAt: now, UpdatedAt: now,
	}
	if err := persistence.CreateDisaster(ctx, ext, event); err != nil {
		return model.DisasterEvent{}, err
	}
	return event, nil
}

// Advance runs one state-machine step for event against wall-clock now and
// persists the result. A status transition emits its lifecycle event; with
// no transition due, a WARNING event may still emit disaster-imminent once
// and an IMPACT event emits a disaster-damage-update.
func Advance(ctx context.Context, ext persistence.Ext, event model.DisasterEvent, now time.Time, emit Emitter) (model.DisasterEvent, error) {
	switch event.Status {
	case model.DisasterScheduled:
		if !now.Before(event.ScheduledAt.Add(-event.WarningTime)) {
			event.Status = model.DisasterWarning
			event.WarningStartedAt = &now
			event.UpdatedAt = now
			emit.Publish(worldRoom(event.WorldID), "disaster-warning", map[string]any{
				"disasterId": event.ID, "type": event.Type, "timeRemaining": event.ScheduledAt.Sub(now).Seconds(),
			})
		}

	case model.DisasterWarning:
		if !event.ImminentWarningIssued && !now.Before(event.ScheduledAt.Add(-model.ImminentWarningLeadTime)) {
			event.ImminentWarningIssued = true
			event.UpdatedAt = now
			emit.Publish(worldRoom(event.WorldID), "disaster-imminent", map[string]any{"disasterId": event.ID})
		}
		if !now.Before(event.ScheduledAt) {
			event.Status = model.DisasterImpact
			event.ImpactStartedAt = &now
			event.UpdatedAt = now
			emit.Publish(worldRoom(event.WorldID), "disaster-impact-start", map[string]any{"disasterId": event.ID})
		}

	case model.DisasterImpact:
		if !now.Before(event.ImpactStartedAt.Add(event.ImpactDuration)) {
			event.Status = model.DisasterAftermath
			event.ImpactEndedAt = &now
			event.UpdatedAt = now
			emit.Publish(worldRoom(event.WorldID), "disaster-aftermath", map[string]any{
				"disasterId": event.ID, "emergencyRepairDiscount": true,
			})
		} else {
			progress := now.Sub(*event.ImpactStartedAt).Seconds() / event.ImpactDuration.Seconds()
			emit.Publish(worldRoom(event.WorldID), "disaster-damage-update", map[string]any{
				"disasterId": event.ID, "progress": progress,
			})
		}

	case model.DisasterAftermath:
		if !now.Before(event.ImpactEndedAt.Add(model.ResolveDelay)) {
			event.Status = model.DisasterResolved
			event.UpdatedAt = now
			emit.Publish(worldRoom(event.WorldID), "disaster-resolved", map[string]any{"disasterId": event.ID})
		}
	}

	if err := persistence.UpdateDisaster(ctx, ext, event); err != nil {
		return model.DisasterEvent{}, err
	}
	return event, nil
}

func worldRoom(worldID string) string { return "world:" + worldID }

// ImpactTick applies one tick's worth of structure damage and population
// casualties to settlementID for an IMPACT-status event, writing
// structure health updates and returning the tally for the caller to fold
// into a DisasterHistory row at AFTERMATH.
type ImpactTally struct {
	StructuresDamaged   int
	StructuresDestroyed int
	Casualties          int
	ResourcesLost       model.ResourceAmounts
}

// ImpactTick takes resilience in [0,100]: a settlement that has survived
// disasters before takes fewer casualties on subsequent ones, halving the
// casualty fraction at resilience 100.
func ImpactTick(ctx context.Context, ext persistence.Ext, event model.DisasterEvent, settlementID string, population int, shelterBonus float64, resilience int, elapsed time.Duration) (ImpactTally, error) {
	var tally ImpactTally
	if event.Status != model.DisasterImpact {
		return tally, nil
	}

	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return tally, err
	}

	impact := event.SeverityLevel.Impact()
	fraction := impact * elapsed.Seconds() / event.ImpactDuration.Seconds()

	for _, s := range structures {
		health := s.EffectiveHealth()
		if health <= 0 {
			continue
		}
		damage := fraction * 50
		newHealth := health - damage
		if newHealth < 0 {
			newHealth = 0
		}
		if newHealth == 0 && health > 0 {
			tally.StructuresDestroyed++
		} else if newHealth < health {
			tally.StructuresDamaged++
		}
		now := time.Now()
		s.Health = &newHealth
		s.DamagedAt = &now
		s.UpdatedAt = now
		if err := persistence.UpdateSettlementStructure(ctx, ext, s); err != nil {
			return tally, err
		}
	}

	casualtyFraction := fraction * (1 - shelterBonus) * (1 - float64(resilience)/200)
	if casualtyFraction < 0 {
		casualtyFraction = 0
	}
	tally.Casualties = int(float64(population) * casualtyFraction * 0.05)
	if tally.Casualties > population {
		tally.Casualties = population
	}

	return tally, nil
}

// ResilienceGain computes the resilience score increase a settlement earns
// from a disaster when it enters AFTERMATH: severity/10, scaled down by the
// fraction of the pre-disaster population lost.
func ResilienceGain(severity float64, casualties, prePopulation int) int {
	if prePopulation == 0 {
		return 0
	}
	survivalRate := 1 - float64(casualties)/float64(prePopulation)
	gain := int(severity / 10 * survivalRate)
	if gain < 0 {
		return 0
	}
	return gain
}

// WriteAftermathHistory persists the permanent history record for one
// affected settlement at the moment a disaster transitions into AFTERMATH.
// Called once per
// settlement by the tick loop, which has been accumulating tally across
// every IMPACT-phase ImpactTick call for the settlement.
func WriteAftermathHistory(ctx context.Context, ext persistence.Ext, disasterID, settlementID string, tally ImpactTally, resilienceGained int) error {
	return persistence.CreateDisasterHistory(ctx, ext, model.DisasterHistory{
		SettlementID:        settlementID,
		DisasterID:          disasterID,
		Casualties:          tally.Casualties,
		StructuresDamaged:   tally.StructuresDamaged,
		StructuresDestroyed: tally.StructuresDestroyed,
		ResourcesLost:       tally.ResourcesLost,
		ResilienceGained:    resilienceGained,
		CreatedAt:           time.Now(),
	})
}
