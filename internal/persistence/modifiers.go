package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

type modifierRow struct {
	SettlementID       string    `db:"settlement_id"`
	ModifierType       string    `db:"modifier_type"`
	TotalValue         float64   `db:"total_value"`
	SourceCount        int       `db:"source_count"`
	ContributionsJSON  string    `db:"contributing_structures"`
	LastCalculatedAt   time.Time `db:"last_calculated_at"`
}

func modifierToRow(m model.SettlementModifier) (modifierRow, error) {
	data, err := json.Marshal(m.ContributingStructures)
	if err != nil {
		return modifierRow{}, err
	}
	return modifierRow{
		SettlementID: m.SettlementID, ModifierType: string(m.ModifierType), TotalValue: m.TotalValue,
		SourceCount: m.SourceCount, ContributionsJSON: string(data), LastCalculatedAt: m.LastCalculatedAt,
	}, nil
}

func rowToModifier(row modifierRow) (model.SettlementModifier, error) {
	m := model.SettlementModifier{
		SettlementID: row.SettlementID, ModifierType: model.ModifierType(row.ModifierType),
		TotalValue: row.TotalValue, SourceCount: row.SourceCount, LastCalculatedAt: row.LastCalculatedAt,
	}
	if err := json.Unmarshal([]byte(row.ContributionsJSON), &m.ContributingStructures); err != nil {
		return model.SettlementModifier{}, err
	}
	return m, nil
}

// UpsertModifier replaces the cached aggregate for one (settlement, type)
// pair; modifier.Recompute always writes a fresh row rather than patching.
func UpsertModifier(ctx context.Context, ext Ext, m model.SettlementModifier) error {
	row, err := modifierToRow(m)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "encode modifier", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO settlement_modifiers (settlement_id, modifier_type, total_value, source_count, contributing_structures, last_calculated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(settlement_id, modifier_type) DO UPDATE SET
			total_value = excluded.total_value,
			source_count = excluded.source_count,
			contributing_structures = excluded.contributing_structures,
			last_calculated_at = excluded.last_calculated_at`,
		row.SettlementID, row.ModifierType, row.TotalValue, row.SourceCount, row.ContributionsJSON, row.LastCalculatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "upsert modifier", err)
	}
	return nil
}

func ModifiersBySettlement(ctx context.Context, ext Ext, settlementID string) ([]model.SettlementModifier, error) {
	var rows []modifierRow
	err := ext.SelectContext(ctx, &rows, `SELECT * FROM settlement_modifiers WHERE settlement_id = ?`, settlementID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list modifiers", err)
	}
	modifiers := make([]model.SettlementModifier, 0, len(rows))
	for _, row := range rows {
		m, err := rowToModifier(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode modifier", err)
		}
		modifiers = append(modifiers, m)
	}
	return modifiers, nil
}

func ModifierByType(ctx context.Context, ext Ext, settlementID string, modType model.ModifierType) (model.SettlementModifier, bool, error) {
	var row modifierRow
	err := ext.GetContext(ctx, &row, `SELECT * FROM settlement_modifiers WHERE settlement_id = ? AND modifier_type = ?`,
		settlementID, modType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SettlementModifier{}, false, nil
		}
		return model.SettlementModifier{}, false, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup modifier", err)
	}
	m, err := rowToModifier(row)
	if err != nil {
		return model.SettlementModifier{}, false, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode modifier", err)
	}
	return m, true, nil
}
