package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"terraforming-mars-backend/internal/model"
)

// classifyTileType derives a tile's land/ocean type: elevation<0 is ocean,
// else land.
func classifyTileType(elevation float64) model.TileType {
	if elevation < 0 {
		return model.TileOcean
	}
	return model.TileLand
}

// classifyBiome picks the first biome (in catalog/Ordinal order) whose
// climate window contains (precipitation, temperature).
// Ocean tiles are assigned BiomeOcean directly rather than through climate
// classification, since no catalog window names it (the catalog's windows
// describe land climates only).
func classifyBiome(tileType model.TileType, precipitation, temperature float64) model.Biome {
	if tileType == model.TileOcean {
		b, _ := model.BiomeByID(model.BiomeOcean)
		return b
	}
	for _, b := range model.Biomes {
		if b.Climate.Contains(precipitation, temperature) {
			return b
		}
	}
	fallback, _ := model.BiomeByID(model.BiomeGrassland)
	return fallback
}

// resourceQuality derives the five [0,100] quality scalars: a
// climate-driven base per resource, the biome's multiplier, and a small
// deterministic per-resource perturbation. Ocean tiles carry zero quality
// for every land resource.
func resourceQuality(tileType model.TileType, elevation, precipitation, temperature float64, biome model.Biome, elevNoise opensimplex.Noise, x, y int) model.ResourceQuality {
	if tileType == model.TileOcean {
		return model.ResourceQuality{}
	}

	base := model.ResourceQuality{
		Food:  clamp01(precipitation*0.6+(1-absf(temperature-0.5))*0.4) * 100,
		Water: clamp01(precipitation) * 100,
		Wood:  clamp01(precipitation*0.5 + (1-elevation)*0.3) * 100,
		Stone: clamp01(elevation) * 100,
		Ore:   clamp01(elevation*0.8+0.1) * 100,
	}

	return model.ResourceQuality{
		Food:  clampQuality(base.Food*biome.ResourceMods.Food + perturb(elevNoise, x, y, 0, 10)),
		Water: clampQuality(base.Water*biome.ResourceMods.Water + perturb(elevNoise, x, y, 1, 10)),
		Wood:  clampQuality(base.Wood*biome.ResourceMods.Wood + perturb(elevNoise, x, y, 2, 10)),
		Stone: clampQuality(base.Stone*biome.ResourceMods.Stone + perturb(elevNoise, x, y, 3, 10)),
		Ore:   clampQuality(base.Ore*biome.ResourceMods.Ore + perturb(elevNoise, x, y, 4, 10)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampQuality(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// plotSlots samples uniformly from the biome's plot range using the
// elevation generator at a dedicated offset so the draw is deterministic
// per (seed, x, y) without a separate RNG.
func plotSlots(biome model.Biome, elevNoise opensimplex.Noise, x, y int) int {
	if biome.PlotSlotsMax <= biome.PlotSlotsMin {
		return biome.PlotSlotsMin
	}
	span := biome.PlotSlotsMax - biome.PlotSlotsMin + 1
	draw := (perturb(elevNoise, x, y, 9, 1) + 1) / 2 // [-1,1] -> [0,1]
	idx := int(draw * float64(span))
	if idx >= span {
		idx = span - 1
	}
	return biome.PlotSlotsMin + idx
}
