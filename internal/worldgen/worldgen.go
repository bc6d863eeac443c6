package worldgen

import (
	"context"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNoiseBundle is used for all three climate axes unless a caller
// supplies its own (an operator could in principle vary them per axis;
// Spec's fractal-sum formula only asks that each axis have a bundle).
var DefaultNoiseBundle = model.NoiseBundle{Octaves: 4, Amplitude: 1.0, Frequency: 0.08, Persistence: 0.5, Scale: 1.0}

// Spec identifies, by id, a world row already inserted with status
// generating. Generate takes the world id directly rather than a Spec.
type Spec struct {
	WorldID string
}

// Generate lays out every region and tile for world, then flips the
// world's status to ready (or failed with a reason, on error). Run on a
// detached goroutine by the admin world-create handler — this function
// blocks for the full generation and owns no cancellation path of its own
// beyond ctx.
func Generate(ctx context.Context, store *persistence.Store, worldID string) {
	start := time.Now()
	world, err := persistence.WorldByID(ctx, store.DB(), worldID)
	if err != nil {
		logger.Error("worldgen: load world failed", zap.String("world_id", worldID), zap.Error(err))
		return
	}

	if err := generateRegions(ctx, store, world); err != nil {
		logger.Error("worldgen: generation failed", zap.String("world_id", worldID), zap.Error(err))
		_ = persistence.UpdateWorldStatus(ctx, store.DB(), worldID, model.WorldFailed, err.Error(), time.Now())
		return
	}

	if err := persistence.UpdateWorldStatus(ctx, store.DB(), worldID, model.WorldReady, "", time.Now()); err != nil {
		logger.Error("worldgen: mark ready failed", zap.String("world_id", worldID), zap.Error(err))
		return
	}
	logger.Info("worldgen: world ready",
		zap.String("world_id", worldID), zap.Duration("elapsed", time.Since(start)))
}

// generateRegions lays out WidthRegions x HeightRegions regions, each a
// RegionSize x RegionSize tile grid, writing each region and its tiles in
// its own transaction so a failure partway through still leaves earlier
// regions persisted (useful for diagnosing a bad seed).
func generateRegions(ctx context.Context, store *persistence.Store, world model.World) error {
	noise := newNoiseSet(world.Seed)

	for ry := 0; ry < world.HeightRegions; ry++ {
		for rx := 0; rx < world.WidthRegions; rx++ {
			if err := generateRegion(ctx, store, world, noise, rx, ry); err != nil {
				return apperrors.Wrap(apperrors.KindCreateFailed, "generate region", err)
			}
		}
	}
	return nil
}

func generateRegion(ctx context.Context, store *persistence.Store, world model.World, noise noiseSet, rx, ry int) error {
	return store.WithTx(ctx, func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		now := time.Now()

		elevMap := make([][]float64, model.RegionSize)
		precipMap := make([][]float64, model.RegionSize)
		tempMap := make([][]float64, model.RegionSize)
		for i := range elevMap {
			elevMap[i] = make([]float64, model.RegionSize)
			precipMap[i] = make([]float64, model.RegionSize)
			tempMap[i] = make([]float64, model.RegionSize)
		}

		region := model.Region{
			ID: uuid.NewString(), WorldID: world.ID, X: rx, Y: ry,
			ElevationMap: elevMap, Precipitation: precipMap, Temperature: tempMap,
		}

		tiles := make([]model.Tile, 0, model.RegionSize*model.RegionSize)
		for ty := 0; ty < model.RegionSize; ty++ {
			for tx := 0; tx < model.RegionSize; tx++ {
				worldX := rx*model.RegionSize + tx
				worldY := ry*model.RegionSize + ty

				elevation, precipitation, temperature := noise.sample(worldX, worldY, world)
				elevMap[ty][tx] = elevation
				precipMap[ty][tx] = precipitation
				tempMap[ty][tx] = temperature

				tileType := classifyTileType(elevation)
				biome := classifyBiome(tileType, precipitation, temperature)
				quality := resourceQuality(tileType, elevation, precipitation, temperature, biome, noise.elevation, worldX, worldY)

				tiles = append(tiles, model.Tile{
					ID: uuid.NewString(), RegionID: region.ID, WorldID: world.ID,
					X: worldX, Y: worldY, Type: tileType,
					Elevation: elevation, Temperature: temperature, Precipitation: precipitation,
					Quality: quality, PlotSlots: plotSlots(biome, noise.elevation, worldX, worldY),
					BaseProductionModifier: 1.0, BiomeID: string(biome.ID),
					CreatedAt: now, UpdatedAt: now,
				})
			}
		}

		if err := persistence.CreateRegion(ctx, ext, region); err != nil {
			return err
		}
		for _, t := range tiles {
			if err := persistence.CreateTile(ctx, ext, t); err != nil {
				return err
			}
		}
		return nil
	})
}
