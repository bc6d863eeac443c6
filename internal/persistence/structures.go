package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

func StructureDefByID(ctx context.Context, ext Ext, id string) (model.StructureDef, error) {
	var def model.StructureDef
	if err := ext.GetContext(ctx, &def, `SELECT * FROM structure_defs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StructureDef{}, NotFound(apperrors.KindStructureNotFound, "structure definition", id)
		}
		return model.StructureDef{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup structure def", err)
	}
	return def, nil
}

// ListStructureDefs is the full catalog, cached by adminhttp for
// METADATA_CACHE_TTL_S since it changes only on deploy.
func ListStructureDefs(ctx context.Context, ext Ext) ([]model.StructureDef, error) {
	var defs []model.StructureDef
	if err := ext.SelectContext(ctx, &defs, `SELECT * FROM structure_defs ORDER BY tier, id`); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list structure defs", err)
	}
	return defs, nil
}

func RequirementsByStructure(ctx context.Context, ext Ext, structureID string) ([]model.StructureRequirement, error) {
	var reqs []model.StructureRequirement
	err := ext.SelectContext(ctx, &reqs, `SELECT * FROM structure_requirements WHERE structure_id = ?`, structureID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list structure requirements", err)
	}
	return reqs, nil
}

func PrerequisitesByStructure(ctx context.Context, ext Ext, structureID string) ([]model.StructurePrerequisite, error) {
	var prereqs []model.StructurePrerequisite
	err := ext.SelectContext(ctx, &prereqs, `SELECT * FROM structure_prerequisites WHERE structure_id = ?`, structureID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list structure prerequisites", err)
	}
	return prereqs, nil
}

func CreateSettlementStructure(ctx context.Context, ext Ext, s model.SettlementStructure) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO settlement_structures
			(id, settlement_id, structure_id, level, health, population_assigned, tile_id, slot_position,
			 damaged_at, repaired_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SettlementID, s.StructureID, s.Level, s.Health, s.PopulationAssigned, s.TileID, s.SlotPosition,
		s.DamagedAt, s.RepairedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.KindSlotOccupied, "slot already occupied")
		}
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert settlement structure", err)
	}
	return nil
}

func SettlementStructureByID(ctx context.Context, ext Ext, id string) (model.SettlementStructure, error) {
	var s model.SettlementStructure
	if err := ext.GetContext(ctx, &s, `SELECT * FROM settlement_structures WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SettlementStructure{}, NotFound(apperrors.KindStructureNotFound, "structure", id)
		}
		return model.SettlementStructure{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup structure", err)
	}
	return s, nil
}

// StructuresBySettlement is the other tick-critical indexed query: the
// production/population/modifier calculators all start from this set.
func StructuresBySettlement(ctx context.Context, ext Ext, settlementID string) ([]model.SettlementStructure, error) {
	var structures []model.SettlementStructure
	err := ext.SelectContext(ctx, &structures,
		`SELECT * FROM settlement_structures WHERE settlement_id = ? ORDER BY created_at`, settlementID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list settlement structures", err)
	}
	return structures, nil
}

func UpdateSettlementStructure(ctx context.Context, ext Ext, s model.SettlementStructure) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE settlement_structures
		SET level = ?, health = ?, population_assigned = ?, damaged_at = ?, repaired_at = ?, updated_at = ?
		WHERE id = ?`,
		s.Level, s.Health, s.PopulationAssigned, s.DamagedAt, s.RepairedAt, s.UpdatedAt, s.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update settlement structure", err)
	}
	return nil
}

func DeleteSettlementStructure(ctx context.Context, ext Ext, id string) error {
	_, err := ext.ExecContext(ctx, `DELETE FROM settlement_structures WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement structure", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
