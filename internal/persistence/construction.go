package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

type queueRow struct {
	model.ConstructionQueueEntry
	CostJSON string `db:"resources_cost"`
}

func queueToRow(e model.ConstructionQueueEntry) (queueRow, error) {
	cost, err := json.Marshal(e.ResourcesCost)
	if err != nil {
		return queueRow{}, err
	}
	return queueRow{ConstructionQueueEntry: e, CostJSON: string(cost)}, nil
}

func rowToQueueEntry(row queueRow) (model.ConstructionQueueEntry, error) {
	e := row.ConstructionQueueEntry
	if err := json.Unmarshal([]byte(row.CostJSON), &e.ResourcesCost); err != nil {
		return model.ConstructionQueueEntry{}, err
	}
	return e, nil
}

func CreateQueueEntry(ctx context.Context, ext Ext, e model.ConstructionQueueEntry) error {
	row, err := queueToRow(e)
	if err != nil {
		return apperrors.Wrap(apperrors.KindCreateFailed, "encode queue entry", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO construction_queue
			(id, settlement_id, structure_id, resources_cost, status, position, is_emergency, started_at, completes_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.SettlementID, row.StructureID, row.CostJSON, row.Status, row.Position, row.IsEmergency,
		row.StartedAt, row.CompletesAt, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert queue entry", err)
	}
	return nil
}

func QueueEntryByID(ctx context.Context, ext Ext, id string) (model.ConstructionQueueEntry, error) {
	var row queueRow
	if err := ext.GetContext(ctx, &row, `SELECT * FROM construction_queue WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ConstructionQueueEntry{}, NotFound(apperrors.KindStructureNotFound, "queue entry", id)
		}
		return model.ConstructionQueueEntry{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup queue entry", err)
	}
	return rowToQueueEntry(row)
}

// ActiveConstructionsBySettlement is the tick-critical indexed query
// construction.Advance drives its per-tick completion sweep off of: every
// QUEUED/IN_PROGRESS entry, ordered by position to preserve FIFO order.
func ActiveConstructionsBySettlement(ctx context.Context, ext Ext, settlementID string) ([]model.ConstructionQueueEntry, error) {
	var rows []queueRow
	err := ext.SelectContext(ctx, &rows, `
		SELECT * FROM construction_queue
		WHERE settlement_id = ? AND status IN (?, ?)
		ORDER BY position`, settlementID, model.QueueQueued, model.QueueInProgress)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list active constructions", err)
	}
	entries := make([]model.ConstructionQueueEntry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToQueueEntry(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode queue entry", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func AllConstructionsBySettlement(ctx context.Context, ext Ext, settlementID string) ([]model.ConstructionQueueEntry, error) {
	var rows []queueRow
	err := ext.SelectContext(ctx, &rows, `SELECT * FROM construction_queue WHERE settlement_id = ? ORDER BY position`, settlementID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list constructions", err)
	}
	entries := make([]model.ConstructionQueueEntry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToQueueEntry(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode queue entry", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func UpdateQueueEntry(ctx context.Context, ext Ext, e model.ConstructionQueueEntry) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE construction_queue
		SET status = ?, position = ?, started_at = ?, completes_at = ?, updated_at = ?
		WHERE id = ?`,
		e.Status, e.Position, e.StartedAt, e.CompletesAt, e.UpdatedAt, e.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update queue entry", err)
	}
	return nil
}
