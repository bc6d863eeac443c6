package model

// BiomeID enumerates the eight biomes in the disaster table.
type BiomeID string

const (
	BiomeGrassland BiomeID = "GRASSLAND"
	BiomeForest    BiomeID = "FOREST"
	BiomeDesert    BiomeID = "DESERT"
	BiomeMountain  BiomeID = "MOUNTAIN"
	BiomeTundra    BiomeID = "TUNDRA"
	BiomeSwamp     BiomeID = "SWAMP"
	BiomeCoastal   BiomeID = "COASTAL"
	BiomeOcean     BiomeID = "OCEAN"
)

// ClimateWindow is the (precipitation, temperature) rectangle a biome
// claims during classification.
type ClimateWindow struct {
	PrecipitationMin float64
	PrecipitationMax float64
	TemperatureMin   float64
	TemperatureMax   float64
}

func (w ClimateWindow) Contains(precip, temp float64) bool {
	return precip >= w.PrecipitationMin && precip <= w.PrecipitationMax &&
		temp >= w.TemperatureMin && temp <= w.TemperatureMax
}

// ResourceModifiers is the per-resource multiplier a biome applies on top
// of raw tile quality.
type ResourceModifiers struct {
	Food  float64
	Water float64
	Wood  float64
	Stone float64
	Ore   float64
}

func (m ResourceModifiers) Get(r ResourceKind) float64 {
	switch r {
	case ResourceFood:
		return m.Food
	case ResourceWater:
		return m.Water
	case ResourceWood:
		return m.Wood
	case ResourceStone:
		return m.Stone
	case ResourceOre:
		return m.Ore
	default:
		return 1.0
	}
}

// Biome is a climate classification with derived production effects and a
// plot-slot range for newly generated tiles.
type Biome struct {
	ID             BiomeID
	// Ordinal breaks classification ties deterministically: the first biome
	// whose window contains the tile wins, lower Ordinal first.
	Ordinal        int
	Climate        ClimateWindow
	ResourceMods   ResourceModifiers
	PlotSlotsMin   int
	PlotSlotsMax   int
}

// Biomes is the fixed catalog, ordered by Ordinal, matching the
// biome-to-disaster table. Windows are deliberately non-exhaustive of the
// full (precip,temp) plane at the edges; OCEAN is assigned directly from
// tile type rather than climate classification (see worldgen.ClassifyBiome).
var Biomes = []Biome{
	{ID: BiomeTundra, Ordinal: 0, Climate: ClimateWindow{0, 1, -1, 0.15}, ResourceMods: ResourceModifiers{Food: 0.4, Water: 0.8, Wood: 0.3, Stone: 1.1, Ore: 1.2}, PlotSlotsMin: 3, PlotSlotsMax: 5},
	{ID: BiomeDesert, Ordinal: 1, Climate: ClimateWindow{0, 0.2, 0.6, 1}, ResourceMods: ResourceModifiers{Food: 0.3, Water: 0.2, Wood: 0.2, Stone: 1.0, Ore: 1.3}, PlotSlotsMin: 2, PlotSlotsMax: 4},
	{ID: BiomeMountain, Ordinal: 2, Climate: ClimateWindow{0, 1, -1, 0.4}, ResourceMods: ResourceModifiers{Food: 0.3, Water: 0.7, Wood: 0.4, Stone: 1.6, Ore: 1.8}, PlotSlotsMin: 2, PlotSlotsMax: 4},
	{ID: BiomeSwamp, Ordinal: 3, Climate: ClimateWindow{0.7, 1, 0.4, 0.8}, ResourceMods: ResourceModifiers{Food: 0.9, Water: 1.3, Wood: 1.1, Stone: 0.6, Ore: 0.6}, PlotSlotsMin: 3, PlotSlotsMax: 6},
	{ID: BiomeForest, Ordinal: 4, Climate: ClimateWindow{0.45, 1, 0.3, 0.75}, ResourceMods: ResourceModifiers{Food: 0.9, Water: 1.0, Wood: 1.6, Stone: 0.8, Ore: 0.7}, PlotSlotsMin: 4, PlotSlotsMax: 7},
	{ID: BiomeCoastal, Ordinal: 5, Climate: ClimateWindow{0.5, 1, 0.35, 0.85}, ResourceMods: ResourceModifiers{Food: 1.3, Water: 1.4, Wood: 0.8, Stone: 0.7, Ore: 0.6}, PlotSlotsMin: 4, PlotSlotsMax: 6},
	{ID: BiomeGrassland, Ordinal: 6, Climate: ClimateWindow{0.15, 0.65, 0.3, 0.75}, ResourceMods: ResourceModifiers{Food: 1.5, Water: 1.0, Wood: 0.7, Stone: 0.8, Ore: 0.8}, PlotSlotsMin: 4, PlotSlotsMax: 7},
	// Catch-all so classification always terminates: a wide window with
	// neutral modifiers, ordered last so every more specific biome wins
	// its claimed window first.
	{ID: BiomeGrassland, Ordinal: 7, Climate: ClimateWindow{0, 1, 0, 1}, ResourceMods: ResourceModifiers{Food: 1.0, Water: 1.0, Wood: 1.0, Stone: 1.0, Ore: 1.0}, PlotSlotsMin: 3, PlotSlotsMax: 6},
}

// BiomeByID looks up a biome's resource modifiers/plot range by ID (first
// match by Ordinal, consistent with classification order).
func BiomeByID(id BiomeID) (Biome, bool) {
	for _, b := range Biomes {
		if b.ID == id {
			return b, true
		}
	}
	return Biome{}, false
}
