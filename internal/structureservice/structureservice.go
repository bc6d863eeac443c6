// Package structureservice implements Build/Upgrade/Demolish against a
// settlement's structures, the transactional operation layer sitting on
// top of persistence, modifier, and construction. Build plays the same
// role construction.Complete plays for queued entries, minus the queue.
package structureservice

import (
	"context"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/modifier"
	"terraforming-mars-backend/internal/persistence"

	"github.com/google/uuid"
)

// Events is the minimal publish surface this service needs, satisfied by
// *eventbus.Hub without an import cycle.
type Events interface {
	Publish(room string, eventType string, payload any)
}

// Service wires a store and an event emitter for structure mutations.
type Service struct {
	Store *persistence.Store
	Bus   Events
}

// New builds a Service.
func New(store *persistence.Store, bus Events) *Service {
	return &Service{Store: store, Bus: bus}
}

// Build places a new structure instance in one transaction: ownership,
// prerequisite, area/uniqueness/tier, and (for extractors) slot occupancy
// validation, resource debit, insert, modifier recompute.
func (s *Service) Build(ctx context.Context, settlementID, structureID string, tileID *string, slot *int) (model.SettlementStructure, error) {
	var created model.SettlementStructure

	err := s.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()

		settlement, err := persistence.SettlementByID(ctx, ext, settlementID)
		if err != nil {
			return err
		}

		def, err := persistence.StructureDefByID(ctx, ext, structureID)
		if err != nil {
			return err
		}

		if err := modifier.ValidatePrerequisites(ctx, ext, settlementID, structureID); err != nil {
			return err
		}
		if err := modifier.ValidateTierGate(ctx, ext, settlementID, def); err != nil {
			return err
		}
		if def.UniquePerSettlement {
			if err := modifier.ValidateUnique(ctx, ext, settlementID, structureID); err != nil {
				return err
			}
		}

		if def.Category == model.CategoryExtractor {
			if tileID == nil || slot == nil {
				return apperrors.New(apperrors.KindInvalidSlot, "extractor requires a tile and slot")
			}
			tile, err := persistence.TileByID(ctx, ext, *tileID)
			if err != nil {
				return err
			}
			if tile.SettlementID == nil || *tile.SettlementID != settlementID {
				return apperrors.New(apperrors.KindTileNotFound, "tile does not belong to this settlement")
			}
		} else {
			if err := modifier.ValidateArea(ctx, ext, settlementID, def.AreaCost); err != nil {
				return err
			}
		}

		reqs, err := persistence.RequirementsByStructure(ctx, ext, structureID)
		if err != nil {
			return err
		}
		cost := costFromRequirements(reqs)

		storage, err := persistence.StorageBySettlement(ctx, ext, settlementID)
		if err != nil {
			return err
		}
		shortages := storage.Amounts.Shortages(cost)
		if len(shortages) > 0 {
			return apperrors.New(apperrors.KindInsufficientResources, "insufficient resources").WithDetails(map[string]any{"shortages": shortages})
		}

		now := time.Now()
		if err := persistence.UpdateStorage(ctx, ext, settlementID, storage.Amounts.Sub(cost), now); err != nil {
			return err
		}

		created = model.SettlementStructure{
			ID: uuid.NewString(), SettlementID: settlementID, StructureID: structureID,
			Level: 1, TileID: tileID, SlotPosition: slot, CreatedAt: now, UpdatedAt: now,
		}
		if err := persistence.CreateSettlementStructure(ctx, ext, created); err != nil {
			return err
		}

		oldCapacity, err := modifier.StorageCapacity(ctx, ext, settlementID)
		if err != nil {
			return err
		}
		if err := modifier.Recompute(ctx, ext, settlementID); err != nil {
			return err
		}
		if err := s.emitCapacityChange(ctx, ext, settlementID, oldCapacity); err != nil {
			return err
		}

		s.Bus.Publish(eventbusWorldRoom(settlement.WorldID), "structure:built", created)
		s.Bus.Publish(eventbusSettlementRoom(settlementID), "population-state", nil)
		return nil
	})

	return created, err
}

// Upgrade increments a structure's level by one, bounded by its
// definition's maxLevel, then recomputes modifiers.
func (s *Service) Upgrade(ctx context.Context, structureID string) (model.SettlementStructure, error) {
	var updated model.SettlementStructure

	err := s.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()

		structure, err := persistence.SettlementStructureByID(ctx, ext, structureID)
		if err != nil {
			return err
		}
		def, err := persistence.StructureDefByID(ctx, ext, structure.StructureID)
		if err != nil {
			return err
		}
		if structure.Level >= def.MaxLevel {
			return apperrors.New(apperrors.KindUpgradeFailed, "structure already at max level")
		}

		reqs, err := persistence.RequirementsByStructure(ctx, ext, structure.StructureID)
		if err != nil {
			return err
		}
		cost := costFromRequirements(reqs).Scale(float64(structure.Level + 1))

		storage, err := persistence.StorageBySettlement(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}
		shortages := storage.Amounts.Shortages(cost)
		if len(shortages) > 0 {
			return apperrors.New(apperrors.KindInsufficientResources, "insufficient resources").WithDetails(map[string]any{"shortages": shortages})
		}

		now := time.Now()
		if err := persistence.UpdateStorage(ctx, ext, structure.SettlementID, storage.Amounts.Sub(cost), now); err != nil {
			return err
		}

		oldCapacity, err := modifier.StorageCapacity(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}

		structure.Level++
		structure.UpdatedAt = now
		if err := persistence.UpdateSettlementStructure(ctx, ext, structure); err != nil {
			return err
		}
		if err := modifier.Recompute(ctx, ext, structure.SettlementID); err != nil {
			return err
		}
		if err := s.emitCapacityChange(ctx, ext, structure.SettlementID, oldCapacity); err != nil {
			return err
		}

		settlement, err := persistence.SettlementByID(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}

		updated = structure
		s.Bus.Publish(eventbusWorldRoom(settlement.WorldID), "structure:upgraded", structure)
		s.Bus.Publish(eventbusSettlementRoom(structure.SettlementID), "population-state", nil)
		return nil
	})

	return updated, err
}

// Demolish removes a structure instance, recomputing its settlement's
// modifier aggregates afterward.
func (s *Service) Demolish(ctx context.Context, structureID string) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()

		structure, err := persistence.SettlementStructureByID(ctx, ext, structureID)
		if err != nil {
			return err
		}
		settlement, err := persistence.SettlementByID(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}

		oldCapacity, err := modifier.StorageCapacity(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}

		if err := persistence.DeleteSettlementStructure(ctx, ext, structureID); err != nil {
			return err
		}
		if err := modifier.Recompute(ctx, ext, structure.SettlementID); err != nil {
			return err
		}
		if err := s.emitCapacityChange(ctx, ext, structure.SettlementID, oldCapacity); err != nil {
			return err
		}

		s.Bus.Publish(eventbusWorldRoom(settlement.WorldID), "structure:demolished", structure)
		s.Bus.Publish(eventbusSettlementRoom(structure.SettlementID), "population-state", nil)
		return nil
	})
}

// Repair restores a damaged structure to full health, charging a cost
// proportional to the health missing and discounted by
// model.EmergencyRepairDiscount while the structure's world has an active
// AFTERMATH disaster — the "emergency repair window" (disaster-aftermath,
// §6).
func (s *Service) Repair(ctx context.Context, structureID string) (model.SettlementStructure, error) {
	var repaired model.SettlementStructure

	err := s.Store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()

		structure, err := persistence.SettlementStructureByID(ctx, ext, structureID)
		if err != nil {
			return err
		}
		missing := 100 - structure.EffectiveHealth()
		if missing <= 0 {
			return apperrors.New(apperrors.KindUpgradeFailed, "structure is already at full health")
		}

		settlement, err := persistence.SettlementByID(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}

		reqs, err := persistence.RequirementsByStructure(ctx, ext, structure.StructureID)
		if err != nil {
			return err
		}
		cost := costFromRequirements(reqs).Scale(missing / 100)

		emergency, err := aftermathActive(ctx, ext, settlement.WorldID)
		if err != nil {
			return err
		}
		if emergency {
			cost = cost.Scale(model.EmergencyRepairDiscount)
		}

		storage, err := persistence.StorageBySettlement(ctx, ext, structure.SettlementID)
		if err != nil {
			return err
		}
		if shortages := storage.Amounts.Shortages(cost); len(shortages) > 0 {
			return apperrors.New(apperrors.KindInsufficientResources, "insufficient resources").WithDetails(map[string]any{"shortages": shortages})
		}

		now := time.Now()
		if err := persistence.UpdateStorage(ctx, ext, structure.SettlementID, storage.Amounts.Sub(cost), now); err != nil {
			return err
		}

		full := 100.0
		structure.Health = &full
		structure.DamagedAt = nil
		structure.UpdatedAt = now
		if err := persistence.UpdateSettlementStructure(ctx, ext, structure); err != nil {
			return err
		}

		repaired = structure
		s.Bus.Publish(eventbusSettlementRoom(structure.SettlementID), "structure-repaired", structure)
		return nil
	})

	return repaired, err
}

// aftermathActive reports whether worldID has a disaster currently in its
// AFTERMATH window, the gate on the discounted repair price (construction
// keeps its own copy of this check for emergency construction).
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

// emitCapacityChange publishes a resource-capacity-change frame per
// resource kind when a structure mutation moved the settlement's storage
// ceiling (model.ModifierAreaCapacity backed, via modifier.StorageCapacity).
func (s *Service) emitCapacityChange(ctx context.Context, ext persistence.Ext, settlementID string, oldCapacity float64) error {
	newCapacity, err := modifier.StorageCapacity(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	if newCapacity == oldCapacity {
		return nil
	}
	for _, k := range model.AllResources {
		s.Bus.Publish(eventbusSettlementRoom(settlementID), "resource-capacity-change", map[string]any{
			"resource":    string(k),
			"oldCapacity": oldCapacity,
			"newCapacity": newCapacity,
		})
	}
	return nil
}

func costFromRequirements(reqs []model.StructureRequirement) model.ResourceAmounts {
	var amounts model.ResourceAmounts
	for _, r := range reqs {
		amounts.Set(r.Resource, amounts.Get(r.Resource)+r.Quantity)
	}
	return amounts
}

func eventbusWorldRoom(worldID string) string      { return "world:" + worldID }
func eventbusSettlementRoom(settlementID string) string { return "settlement:" + settlementID }
