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

// worldRow is the table shape: the three noise bundles and the template
// config are stored as JSON TEXT, marshaled by hand at this boundary rather
// than via a driver.Valuer/sql.Scanner (grounded on tobyjaguar-mini-world's
// internal/persistence/db.go, which does the same for its *_json columns).
type worldRow struct {
	ID             string `db:"id"`
	ServerID       string `db:"server_id"`
	Name           string `db:"name"`
	Status         string `db:"status"`
	FailureReason  string `db:"failure_reason"`
	WidthRegions   int    `db:"width_regions"`
	HeightRegions  int    `db:"height_regions"`
	Seed           int64  `db:"seed"`
	ElevationJSON  string `db:"elevation_noise"`
	PrecipJSON     string `db:"precipitation_noise"`
	TemperatureJSON string `db:"temperature_noise"`
	TemplateJSON   string    `db:"template_config"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func worldToRow(w model.World) (worldRow, error) {
	elev, err := json.Marshal(w.Elevation)
	if err != nil {
		return worldRow{}, err
	}
	precip, err := json.Marshal(w.Precipitation)
	if err != nil {
		return worldRow{}, err
	}
	temp, err := json.Marshal(w.Temperature)
	if err != nil {
		return worldRow{}, err
	}
	tmpl, err := json.Marshal(w.Template)
	if err != nil {
		return worldRow{}, err
	}
	return worldRow{
		ID: w.ID, ServerID: w.ServerID, Name: w.Name, Status: string(w.Status),
		FailureReason: w.FailureReason, WidthRegions: w.WidthRegions, HeightRegions: w.HeightRegions,
		Seed: w.Seed, ElevationJSON: string(elev), PrecipJSON: string(precip),
		TemperatureJSON: string(temp), TemplateJSON: string(tmpl),
		CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt,
	}, nil
}

func rowToWorld(r worldRow) (model.World, error) {
	w := model.World{
		ID: r.ID, ServerID: r.ServerID, Name: r.Name, Status: model.WorldStatus(r.Status),
		FailureReason: r.FailureReason, WidthRegions: r.WidthRegions, HeightRegions: r.HeightRegions,
		Seed: r.Seed, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.ElevationJSON), &w.Elevation); err != nil {
		return model.World{}, err
	}
	if err := json.Unmarshal([]byte(r.PrecipJSON), &w.Precipitation); err != nil {
		return model.World{}, err
	}
	if err := json.Unmarshal([]byte(r.TemperatureJSON), &w.Temperature); err != nil {
		return model.World{}, err
	}
	if err := json.Unmarshal([]byte(r.TemplateJSON), &w.Template); err != nil {
		return model.World{}, err
	}
	return w, nil
}

func CreateWorld(ctx context.Context, ext Ext, w model.World) error {
	row, err := worldToRow(w)
	if err != nil {
		return apperrors.Wrap(apperrors.KindCreateFailed, "encode world", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO worlds (id, server_id, name, status, failure_reason, width_regions, height_regions, seed,
			elevation_noise, precipitation_noise, temperature_noise, template_config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ServerID, row.Name, row.Status, row.FailureReason, row.WidthRegions, row.HeightRegions, row.Seed,
		row.ElevationJSON, row.PrecipJSON, row.TemperatureJSON, row.TemplateJSON, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert world", err)
	}
	return nil
}

func WorldByID(ctx context.Context, ext Ext, id string) (model.World, error) {
	var row worldRow
	if err := ext.GetContext(ctx, &row, `SELECT * FROM worlds WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.World{}, NotFound(apperrors.KindWorldNotFound, "world", id)
		}
		return model.World{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup world", err)
	}
	return rowToWorld(row)
}

func ListWorldsByServer(ctx context.Context, ext Ext, serverID string) ([]model.World, error) {
	var rows []worldRow
	if err := ext.SelectContext(ctx, &rows, `SELECT * FROM worlds WHERE server_id = ? ORDER BY created_at`, serverID); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list worlds", err)
	}
	worlds := make([]model.World, 0, len(rows))
	for _, r := range rows {
		w, err := rowToWorld(r)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode world", err)
		}
		worlds = append(worlds, w)
	}
	return worlds, nil
}

// ListWorldsByStatus returns every world in the given status, across all
// servers — the tick loop's per-tick world scan only ever wants `ready`
// worlds.
func ListWorldsByStatus(ctx context.Context, ext Ext, status model.WorldStatus) ([]model.World, error) {
	var rows []worldRow
	if err := ext.SelectContext(ctx, &rows, `SELECT * FROM worlds WHERE status = ? ORDER BY created_at`, status); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list worlds by status", err)
	}
	worlds := make([]model.World, 0, len(rows))
	for _, r := range rows {
		w, err := rowToWorld(r)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode world", err)
		}
		worlds = append(worlds, w)
	}
	return worlds, nil
}

func UpdateWorldStatus(ctx context.Context, ext Ext, id string, status model.WorldStatus, failureReason string, updatedAt time.Time) error {
	_, err := ext.ExecContext(ctx, `UPDATE worlds SET status = ?, failure_reason = ?, updated_at = ? WHERE id = ?`,
		status, failureReason, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update world status", err)
	}
	return nil
}

// DeleteWorld removes a world and every row that hangs off it: settlements
// (and their storage/population/structures), tiles, regions and disaster
// events. Run inside a Store.WithTx by the caller — deleting in dependency
// order rather than relying on FK ON DELETE CASCADE, since the schema
// doesn't declare one.
func DeleteWorld(ctx context.Context, ext Ext, worldID string) error {
	settlements, err := SettlementsByWorld(ctx, ext, worldID)
	if err != nil {
		return err
	}
	for _, s := range settlements {
		structures, err := StructuresBySettlement(ctx, ext, s.ID)
		if err != nil {
			return err
		}
		for _, st := range structures {
			if err := DeleteSettlementStructure(ctx, ext, st.ID); err != nil {
				return err
			}
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM construction_queue WHERE settlement_id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement queue", err)
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM settlement_modifiers WHERE settlement_id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement modifiers", err)
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM disaster_history WHERE settlement_id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement disaster history", err)
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM settlement_storage WHERE settlement_id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement storage", err)
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM settlement_population WHERE settlement_id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement population", err)
		}
		if _, err := ext.ExecContext(ctx, `DELETE FROM settlements WHERE id = ?`, s.ID); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete settlement", err)
		}
	}

	if _, err := ext.ExecContext(ctx, `DELETE FROM disaster_events WHERE world_id = ?`, worldID); err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete world disasters", err)
	}
	if _, err := ext.ExecContext(ctx, `DELETE FROM tiles WHERE world_id = ?`, worldID); err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete world tiles", err)
	}
	if _, err := ext.ExecContext(ctx, `DELETE FROM regions WHERE world_id = ?`, worldID); err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete world regions", err)
	}
	if _, err := ext.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, worldID); err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "delete world", err)
	}
	return nil
}

// CountWorlds is a dashboard aggregate.
func CountWorlds(ctx context.Context, ext Ext) (int, error) {
	var n int
	if err := ext.GetContext(ctx, &n, `SELECT COUNT(*) FROM worlds`); err != nil {
		return 0, apperrors.Wrap(apperrors.KindStoreUnavailable, "count worlds", err)
	}
	return n, nil
}
