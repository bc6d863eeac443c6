package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

func CreateSettlement(ctx context.Context, ext Ext, s model.Settlement, storage model.SettlementStorage, pop model.SettlementPopulation) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO settlements (id, world_id, profile_id, tile_id, name, tier, resilience, errored, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.WorldID, s.ProfileID, s.TileID, s.Name, s.Tier, s.Resilience, s.Errored, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert settlement", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO settlement_storage (settlement_id, food, water, wood, stone, ore, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		storage.SettlementID, storage.Amounts.Food, storage.Amounts.Water, storage.Amounts.Wood,
		storage.Amounts.Stone, storage.Amounts.Ore, storage.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert settlement storage", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO settlement_population (settlement_id, current, happiness, last_growth_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		pop.SettlementID, pop.Current, pop.Happiness, pop.LastGrowthAt, pop.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert settlement population", err)
	}
	return nil
}

func SettlementByID(ctx context.Context, ext Ext, id string) (model.Settlement, error) {
	var s model.Settlement
	if err := ext.GetContext(ctx, &s, `SELECT * FROM settlements WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Settlement{}, NotFound(apperrors.KindSettlementNotFound, "settlement", id)
		}
		return model.Settlement{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup settlement", err)
	}
	return s, nil
}

// SettlementByWorldAndProfile finds the settlement a profile already owns
// in worldID, used on join-world to decide whether to claim a new tile or
// resume an existing settlement.
func SettlementByWorldAndProfile(ctx context.Context, ext Ext, worldID, profileID string) (model.Settlement, error) {
	var s model.Settlement
	err := ext.GetContext(ctx, &s, `SELECT * FROM settlements WHERE world_id = ? AND profile_id = ?`, worldID, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Settlement{}, NotFound(apperrors.KindSettlementNotFound, "settlement", profileID)
		}
		return model.Settlement{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup settlement by profile", err)
	}
	return s, nil
}

func SettlementsByWorld(ctx context.Context, ext Ext, worldID string) ([]model.Settlement, error) {
	var settlements []model.Settlement
	if err := ext.SelectContext(ctx, &settlements, `SELECT * FROM settlements WHERE world_id = ? ORDER BY created_at`, worldID); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list settlements", err)
	}
	return settlements, nil
}

type storageRow struct {
	SettlementID string `db:"settlement_id"`
	model.ResourceAmounts
	UpdatedAt time.Time `db:"updated_at"`
}

func StorageBySettlement(ctx context.Context, ext Ext, settlementID string) (model.SettlementStorage, error) {
	var row storageRow
	if err := ext.GetContext(ctx, &row, `SELECT * FROM settlement_storage WHERE settlement_id = ?`, settlementID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SettlementStorage{}, NotFound(apperrors.KindSettlementNotFound, "settlement storage", settlementID)
		}
		return model.SettlementStorage{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup storage", err)
	}
	return model.SettlementStorage{SettlementID: row.SettlementID, Amounts: row.ResourceAmounts}, nil
}

// UpdateStorage overwrites a settlement's resource bank. Callers are
// responsible for clamping at zero beforehand; this is a straight write,
// not a delta.
func UpdateStorage(ctx context.Context, ext Ext, settlementID string, amounts model.ResourceAmounts, updatedAt time.Time) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE settlement_storage SET food = ?, water = ?, wood = ?, stone = ?, ore = ?, updated_at = ?
		WHERE settlement_id = ?`,
		amounts.Food, amounts.Water, amounts.Wood, amounts.Stone, amounts.Ore, updatedAt, settlementID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update storage", err)
	}
	return nil
}

func PopulationBySettlement(ctx context.Context, ext Ext, settlementID string) (model.SettlementPopulation, error) {
	var pop model.SettlementPopulation
	if err := ext.GetContext(ctx, &pop, `SELECT * FROM settlement_population WHERE settlement_id = ?`, settlementID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SettlementPopulation{}, NotFound(apperrors.KindSettlementNotFound, "settlement population", settlementID)
		}
		return model.SettlementPopulation{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup population", err)
	}
	return pop, nil
}

func UpdatePopulation(ctx context.Context, ext Ext, p model.SettlementPopulation) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE settlement_population SET current = ?, happiness = ?, last_growth_at = ?, updated_at = ?
		WHERE settlement_id = ?`,
		p.Current, p.Happiness, p.LastGrowthAt, p.UpdatedAt, p.SettlementID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update population", err)
	}
	return nil
}

func MarkSettlementErrored(ctx context.Context, ext Ext, id string, errored bool) error {
	_, err := ext.ExecContext(ctx, `UPDATE settlements SET errored = ? WHERE id = ?`, errored, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "mark settlement errored", err)
	}
	return nil
}

func UpdateSettlementTierAndResilience(ctx context.Context, ext Ext, id string, tier model.SettlementTier, resilience int, updatedAt time.Time) error {
	_, err := ext.ExecContext(ctx, `UPDATE settlements SET tier = ?, resilience = ?, updated_at = ? WHERE id = ?`,
		tier, resilience, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update settlement tier", err)
	}
	return nil
}

// CountSettlements is a dashboard aggregate.
func CountSettlements(ctx context.Context, ext Ext) (int, error) {
	var n int
	if err := ext.GetContext(ctx, &n, `SELECT COUNT(*) FROM settlements`); err != nil {
		return 0, apperrors.Wrap(apperrors.KindStoreUnavailable, "count settlements", err)
	}
	return n, nil
}
