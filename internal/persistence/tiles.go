package persistence

import (
	"context"
	"database/sql"
	"errors"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

// tileRow flattens Tile.Quality (tagged db:"-" on the domain struct because
// ResourceQuality is reported as a nested JSON object to clients) back onto
// the five quality_* columns for scanning.
type tileRow struct {
	model.Tile
	model.ResourceQuality
}

func tileFromRow(row tileRow) model.Tile {
	t := row.Tile
	t.Quality = row.ResourceQuality
	return t
}

func CreateTile(ctx context.Context, ext Ext, t model.Tile) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO tiles (id, region_id, world_id, x, y, type, elevation, temperature, precipitation,
			quality_food, quality_water, quality_wood, quality_stone, quality_ore,
			special_resource, plot_slots, base_production_modifier, settlement_id, biome_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.RegionID, t.WorldID, t.X, t.Y, t.Type, t.Elevation, t.Temperature, t.Precipitation,
		t.Quality.Food, t.Quality.Water, t.Quality.Wood, t.Quality.Stone, t.Quality.Ore,
		t.SpecialResource, t.PlotSlots, t.BaseProductionModifier, t.SettlementID, t.BiomeID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert tile", err)
	}
	return nil
}

func TileByID(ctx context.Context, ext Ext, id string) (model.Tile, error) {
	var row tileRow
	if err := ext.GetContext(ctx, &row, `SELECT * FROM tiles WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tile{}, NotFound(apperrors.KindTileNotFound, "tile", id)
		}
		return model.Tile{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup tile", err)
	}
	return tileFromRow(row), nil
}

// TilesByRegion lists a region's tiles ordered by (y, x), backed by the
// idx_tiles_region index. Worldgen writes tiles without reading them back
// through it.
func TilesByRegion(ctx context.Context, ext Ext, regionID string) ([]model.Tile, error) {
	var rows []tileRow
	if err := ext.SelectContext(ctx, &rows, `SELECT * FROM tiles WHERE region_id = ? ORDER BY y, x`, regionID); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list tiles by region", err)
	}
	tiles := make([]model.Tile, 0, len(rows))
	for _, row := range rows {
		tiles = append(tiles, tileFromRow(row))
	}
	return tiles, nil
}

// AssignTileToSettlement stakes a claimed tile; the UNIQUE partial index on
// settlement_id enforces one settlement per tile at the storage layer too.
func AssignTileToSettlement(ctx context.Context, ext Ext, tileID, settlementID string) error {
	res, err := ext.ExecContext(ctx, `UPDATE tiles SET settlement_id = ? WHERE id = ? AND settlement_id IS NULL`,
		settlementID, tileID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "assign tile", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.New(apperrors.KindTileNotFound, "tile already claimed or missing")
	}
	return nil
}

func UnclaimedLandTilesByWorld(ctx context.Context, ext Ext, worldID string, limit int) ([]model.Tile, error) {
	var rows []tileRow
	err := ext.SelectContext(ctx, &rows, `
		SELECT * FROM tiles WHERE world_id = ? AND type = ? AND settlement_id IS NULL
		ORDER BY RANDOM() LIMIT ?`, worldID, model.TileLand, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list unclaimed tiles", err)
	}
	tiles := make([]model.Tile, 0, len(rows))
	for _, row := range rows {
		tiles = append(tiles, tileFromRow(row))
	}
	return tiles, nil
}
