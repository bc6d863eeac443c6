package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

type regionRow struct {
	ID            string `db:"id"`
	WorldID       string `db:"world_id"`
	X             int    `db:"x"`
	Y             int    `db:"y"`
	ElevationJSON string `db:"elevation_map"`
	PrecipJSON    string `db:"precipitation_map"`
	TemperatureJSON string `db:"temperature_map"`
}

func regionToRow(r model.Region) (regionRow, error) {
	elev, err := json.Marshal(r.ElevationMap)
	if err != nil {
		return regionRow{}, err
	}
	precip, err := json.Marshal(r.Precipitation)
	if err != nil {
		return regionRow{}, err
	}
	temp, err := json.Marshal(r.Temperature)
	if err != nil {
		return regionRow{}, err
	}
	return regionRow{ID: r.ID, WorldID: r.WorldID, X: r.X, Y: r.Y,
		ElevationJSON: string(elev), PrecipJSON: string(precip), TemperatureJSON: string(temp)}, nil
}

func rowToRegion(row regionRow) (model.Region, error) {
	r := model.Region{ID: row.ID, WorldID: row.WorldID, X: row.X, Y: row.Y}
	if err := json.Unmarshal([]byte(row.ElevationJSON), &r.ElevationMap); err != nil {
		return model.Region{}, err
	}
	if err := json.Unmarshal([]byte(row.PrecipJSON), &r.Precipitation); err != nil {
		return model.Region{}, err
	}
	if err := json.Unmarshal([]byte(row.TemperatureJSON), &r.Temperature); err != nil {
		return model.Region{}, err
	}
	return r, nil
}

func CreateRegion(ctx context.Context, ext Ext, r model.Region) error {
	row, err := regionToRow(r)
	if err != nil {
		return apperrors.Wrap(apperrors.KindCreateFailed, "encode region", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO regions (id, world_id, x, y, elevation_map, precipitation_map, temperature_map)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.WorldID, row.X, row.Y, row.ElevationJSON, row.PrecipJSON, row.TemperatureJSON)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert region", err)
	}
	return nil
}

func RegionByCoords(ctx context.Context, ext Ext, worldID string, x, y int) (model.Region, error) {
	var row regionRow
	err := ext.GetContext(ctx, &row, `SELECT * FROM regions WHERE world_id = ? AND x = ? AND y = ?`, worldID, x, y)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Region{}, NotFound(apperrors.KindWorldNotFound, "region", worldID)
		}
		return model.Region{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup region", err)
	}
	return rowToRegion(row)
}

func ListRegionsByWorld(ctx context.Context, ext Ext, worldID string) ([]model.Region, error) {
	var rows []regionRow
	if err := ext.SelectContext(ctx, &rows, `SELECT * FROM regions WHERE world_id = ? ORDER BY y, x`, worldID); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list regions", err)
	}
	regions := make([]model.Region, 0, len(rows))
	for _, row := range rows {
		r, err := rowToRegion(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode region", err)
		}
		regions = append(regions, r)
	}
	return regions, nil
}
