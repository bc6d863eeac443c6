// Package construction is the per-settlement build queue: FIFO with
// position 0..9, emergency mode (2.5x cost, 2x speed, gated on an active
// AFTERMATH disaster), and the transactional Enqueue/Complete/Cancel
// operations.
package construction

import (
	"context"
	"sort"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/modifier"
	"terraforming-mars-backend/internal/persistence"

	"github.com/google/uuid"
)

// Cost computes the debited cost for a structure, applying the emergency
// multiplier when requested.
func Cost(base model.ResourceAmounts, emergency bool) model.ResourceAmounts {
	if !emergency {
		return base
	}
	return base.Scale(model.EmergencyCostMultiplier)
}

// Duration computes constructionTime under emergency speedup.
func Duration(base time.Duration, emergency bool) time.Duration {
	if !emergency {
		return base
	}
	return time.Duration(float64(base) / model.EmergencySpeedFactor)
}

// aftermathActive reports whether any AFTERMATH disaster is active for
// worldID, the gate on emergency mode.
func aftermathActive(ctx context.Context, ext persistence.Ext, worldID string) (bool, error) {
	disasters, err := persistence.ActiveDisastersByWorld(ctx, ext, worldID)
	if err != nil {
		return false, err
	}
	for _, d := range disasters {
		if d.Status == model.DisasterAftermath {
			return true, nil
		}
	}
	return false, nil
}

// Enqueue validates and inserts a new construction entry, running
// entirely inside tx.
func Enqueue(ctx context.Context, tx *persistence.Tx, settlementID, structureID string, emergency bool, worldID string) (model.ConstructionQueueEntry, error) {
	ext := tx.Ext()

	if emergency {
		active, err := aftermathActive(ctx, ext, worldID)
		if err != nil {
			return model.ConstructionQueueEntry{}, err
		}
		if !active {
			return model.ConstructionQueueEntry{}, apperrors.New(apperrors.KindDisasterInProgress,
				"emergency construction requires an active AFTERMATH disaster")
		}
	}

	def, err := persistence.StructureDefByID(ctx, ext, structureID)
	if err != nil {
		return model.ConstructionQueueEntry{}, err
	}

	if err := modifier.ValidatePrerequisites(ctx, ext, settlementID, structureID); err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	if err := modifier.ValidateTierGate(ctx, ext, settlementID, def); err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	if def.Category != model.CategoryExtractor {
		if err := modifier.ValidateArea(ctx, ext, settlementID, def.AreaCost); err != nil {
			return model.ConstructionQueueEntry{}, err
		}
	}

	existing, err := persistence.AllConstructionsBySettlement(ctx, ext, settlementID)
	if err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	active, total := countActive(existing)
	if total >= model.MaxTotalConstructions {
		return model.ConstructionQueueEntry{}, apperrors.New(apperrors.KindQueueFull, "construction queue full")
	}

	if def.UniquePerSettlement {
		if err := modifier.ValidateUnique(ctx, ext, settlementID, structureID); err != nil {
			return model.ConstructionQueueEntry{}, err
		}
	}

	reqs, err := persistence.RequirementsByStructure(ctx, ext, structureID)
	if err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	var base model.ResourceAmounts
	for _, r := range reqs {
		base.Set(r.Resource, r.Quantity)
	}
	cost := Cost(base, emergency)

	storage, err := persistence.StorageBySettlement(ctx, ext, settlementID)
	if err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	if shortages := storage.Amounts.Shortages(cost); len(shortages) > 0 {
		return model.ConstructionQueueEntry{}, apperrors.New(apperrors.KindInsufficientResources, "insufficient resources").
			WithDetails(map[string]any{"shortages": shortages})
	}

	now := time.Now()
	if err := persistence.UpdateStorage(ctx, ext, settlementID, storage.Amounts.Sub(cost), now); err != nil {
		return model.ConstructionQueueEntry{}, err
	}

	status := model.QueueQueued
	var startedAt, completesAt *time.Time
	if active < model.MaxActiveConstructions {
		status = model.QueueInProgress
		started := now
		finishes := now.Add(Duration(time.Duration(def.ConstructionTimeSeconds)*time.Second, emergency))
		startedAt, completesAt = &started, &finishes
	}

	entry := model.ConstructionQueueEntry{
		ID: uuid.NewString(), SettlementID: settlementID, StructureID: structureID, ResourcesCost: cost,
		Status: status, Position: nextPosition(existing), IsEmergency: emergency,
		StartedAt: startedAt, CompletesAt: completesAt, CreatedAt: now, UpdatedAt: now,
	}
	if err := persistence.CreateQueueEntry(ctx, ext, entry); err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	return entry, nil
}

func countActive(entries []model.ConstructionQueueEntry) (active, total int) {
	for _, e := range entries {
		if e.IsTerminal() {
			continue
		}
		total++
		if e.Status == model.QueueInProgress {
			active++
		}
	}
	return active, total
}

func nextPosition(entries []model.ConstructionQueueEntry) int {
	used := map[int]bool{}
	for _, e := range entries {
		if !e.IsTerminal() {
			used[e.Position] = true
		}
	}
	for p := 0; p < model.MaxTotalConstructions; p++ {
		if !used[p] {
			return p
		}
	}
	return model.MaxTotalConstructions
}

// Complete promotes entry to COMPLETE, inserts the resulting structure,
// recomputes modifiers, and promotes the next QUEUED entry to
// IN_PROGRESS. Returns the newly built structure.
func Complete(ctx context.Context, tx *persistence.Tx, entry model.ConstructionQueueEntry) (model.SettlementStructure, error) {
	ext := tx.Ext()
	now := time.Now()

	entry.Status = model.QueueComplete
	entry.UpdatedAt = now
	if err := persistence.UpdateQueueEntry(ctx, ext, entry); err != nil {
		return model.SettlementStructure{}, err
	}

	structure := model.SettlementStructure{
		ID: uuid.NewString(), SettlementID: entry.SettlementID, StructureID: entry.StructureID,
		Level: 1, CreatedAt: now, UpdatedAt: now,
	}
	if err := persistence.CreateSettlementStructure(ctx, ext, structure); err != nil {
		return model.SettlementStructure{}, err
	}
	if err := modifier.Recompute(ctx, ext, entry.SettlementID); err != nil {
		return model.SettlementStructure{}, err
	}

	if err := promoteNext(ctx, ext, entry.SettlementID); err != nil {
		return model.SettlementStructure{}, err
	}
	return structure, nil
}

func promoteNext(ctx context.Context, ext persistence.Ext, settlementID string) error {
	active, err := persistence.ActiveConstructionsBySettlement(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	inProgress := 0
	var nextQueued *model.ConstructionQueueEntry
	sort.Slice(active, func(i, j int) bool { return active[i].Position < active[j].Position })
	for i := range active {
		if active[i].Status == model.QueueInProgress {
			inProgress++
		}
		if active[i].Status == model.QueueQueued && nextQueued == nil {
			nextQueued = &active[i]
		}
	}
	if inProgress >= model.MaxActiveConstructions || nextQueued == nil {
		return nil
	}

	def, err := persistence.StructureDefByID(ctx, ext, nextQueued.StructureID)
	if err != nil {
		return err
	}
	now := time.Now()
	started := now
	finishes := now.Add(Duration(time.Duration(def.ConstructionTimeSeconds)*time.Second, nextQueued.IsEmergency))
	nextQueued.Status = model.QueueInProgress
	nextQueued.StartedAt = &started
	nextQueued.CompletesAt = &finishes
	nextQueued.UpdatedAt = now
	return persistence.UpdateQueueEntry(ctx, ext, *nextQueued)
}

// Cancel refunds CancelRefundFraction of the cost snapshot and compacts
// positions.
func Cancel(ctx context.Context, tx *persistence.Tx, entry model.ConstructionQueueEntry) error {
	ext := tx.Ext()
	now := time.Now()

	refund := entry.ResourcesCost.Scale(model.CancelRefundFraction)
	storage, err := persistence.StorageBySettlement(ctx, ext, entry.SettlementID)
	if err != nil {
		return err
	}
	if err := persistence.UpdateStorage(ctx, ext, entry.SettlementID, storage.Amounts.Add(refund), now); err != nil {
		return err
	}

	entry.Status = model.QueueCancelled
	entry.UpdatedAt = now
	if err := persistence.UpdateQueueEntry(ctx, ext, entry); err != nil {
		return err
	}

	if err := compactPositions(ctx, ext, entry.SettlementID); err != nil {
		return err
	}
	return promoteNext(ctx, ext, entry.SettlementID)
}

func compactPositions(ctx context.Context, ext persistence.Ext, settlementID string) error {
	entries, err := persistence.AllConstructionsBySettlement(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	var live []model.ConstructionQueueEntry
	for _, e := range entries {
		if !e.IsTerminal() {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Position < live[j].Position })
	for i := range live {
		if live[i].Position != i {
			live[i].Position = i
			live[i].UpdatedAt = time.Now()
			if err := persistence.UpdateQueueEntry(ctx, ext, live[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Advance completes every IN_PROGRESS entry whose completesAt has passed,
// called once per tick by the game loop.
func Advance(ctx context.Context, tx *persistence.Tx, settlementID string, now time.Time) ([]model.SettlementStructure, error) {
	ext := tx.Ext()
	active, err := persistence.ActiveConstructionsBySettlement(ctx, ext, settlementID)
	if err != nil {
		return nil, err
	}

	var completed []model.SettlementStructure
	for _, e := range active {
		if e.Status == model.QueueInProgress && e.CompletesAt != nil && !now.Before(*e.CompletesAt) {
			structure, err := Complete(ctx, tx, e)
			if err != nil {
				return completed, err
			}
			completed = append(completed, structure)
		}
	}
	return completed, nil
}
