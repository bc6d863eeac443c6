package worldgen

import (
	"testing"

	opensimplex "github.com/ojrac/opensimplex-go"

	"terraforming-mars-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTileTypeNegativeElevationIsOcean(t *testing.T) {
	assert.Equal(t, model.TileOcean, classifyTileType(-0.01))
	assert.Equal(t, model.TileLand, classifyTileType(0))
	assert.Equal(t, model.TileLand, classifyTileType(0.5))
}

func TestClassifyBiomeOceanBypassesClimateWindows(t *testing.T) {
	b := classifyBiome(model.TileOcean, 0.9, 0.9)
	assert.Equal(t, model.BiomeOcean, b.ID)
}

func TestClassifyBiomeLandFallsBackToGrasslandCatchAll(t *testing.T) {
	// precipitation/temperature outside every specific window but inside the
	// trailing {0,1,0,1} catch-all.
	b := classifyBiome(model.TileLand, 1.0, 1.0)
	assert.Equal(t, model.BiomeGrassland, b.ID)
}

func TestClassifyBiomeLandPicksFirstMatchingWindow(t *testing.T) {
	b := classifyBiome(model.TileLand, 0.1, -0.5)
	assert.Equal(t, model.BiomeTundra, b.ID, "tundra's window is ordinal 0 and claims cold, dry tiles first")
}

func TestResourceQualityOceanTileIsZero(t *testing.T) {
	noise := opensimplex.NewNormalized(1)
	q := resourceQuality(model.TileOcean, -0.5, 0.8, 0.5, model.Biome{}, noise, 3, 4)
	assert.Equal(t, model.ResourceQuality{}, q)
}

func TestResourceQualityLandStaysWithinBounds(t *testing.T) {
	noise := opensimplex.NewNormalized(1)
	biome, _ := model.BiomeByID(model.BiomeGrassland)
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			q := resourceQuality(model.TileLand, 0.4, 0.5, 0.5, biome, noise, x, y)
			for _, v := range []float64{q.Food, q.Water, q.Wood, q.Stone, q.Ore} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
		}
	}
}

func TestPlotSlotsStaysWithinBiomeRange(t *testing.T) {
	noise := opensimplex.NewNormalized(1)
	biome := model.Biome{PlotSlotsMin: 3, PlotSlotsMax: 6}
	for x := 0; x < 20; x++ {
		slots := plotSlots(biome, noise, x, x*7)
		assert.GreaterOrEqual(t, slots, biome.PlotSlotsMin)
		assert.LessOrEqual(t, slots, biome.PlotSlotsMax)
	}
}

func TestPlotSlotsDegenerateRangeReturnsMin(t *testing.T) {
	noise := opensimplex.NewNormalized(1)
	biome := model.Biome{PlotSlotsMin: 4, PlotSlotsMax: 4}
	assert.Equal(t, 4, plotSlots(biome, noise, 1, 1))
}
