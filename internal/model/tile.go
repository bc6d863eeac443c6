package model

import "time"

// TileType is the land/water classification derived from elevation.
type TileType string

const (
	TileLand  TileType = "LAND"
	TileOcean TileType = "OCEAN"
)

// ResourceKind enumerates the five producible resources.
type ResourceKind string

const (
	ResourceFood  ResourceKind = "food"
	ResourceWater ResourceKind = "water"
	ResourceWood  ResourceKind = "wood"
	ResourceStone ResourceKind = "stone"
	ResourceOre   ResourceKind = "ore"
)

// AllResources is the canonical iteration order used wherever resources are
// listed (storage rows, production output, shortages maps).
var AllResources = [5]ResourceKind{ResourceFood, ResourceWater, ResourceWood, ResourceStone, ResourceOre}

// ResourceQuality holds the five [0,100] scalars a tile offers each
// resource, before biome modifiers and disaster impact.
type ResourceQuality struct {
	Food  float64 `db:"quality_food" json:"food"`
	Water float64 `db:"quality_water" json:"water"`
	Wood  float64 `db:"quality_wood" json:"wood"`
	Stone float64 `db:"quality_stone" json:"stone"`
	Ore   float64 `db:"quality_ore" json:"ore"`
}

func (q ResourceQuality) Get(r ResourceKind) float64 {
	switch r {
	case ResourceFood:
		return q.Food
	case ResourceWater:
		return q.Water
	case ResourceWood:
		return q.Wood
	case ResourceStone:
		return q.Stone
	case ResourceOre:
		return q.Ore
	default:
		return 0
	}
}

// DefaultPlotSlots is used when a biome's plot range is degenerate.
const DefaultPlotSlots = 5

// Tile is one cell of a Region's grid.
type Tile struct {
	ID                     string     `db:"id" json:"id"`
	RegionID               string     `db:"region_id" json:"regionId"`
	WorldID                string     `db:"world_id" json:"worldId"`
	X                      int        `db:"x" json:"x"`
	Y                      int        `db:"y" json:"y"`
	Type                   TileType   `db:"type" json:"type"`
	Elevation              float64    `db:"elevation" json:"elevation"`
	Temperature            float64    `db:"temperature" json:"temperature"`
	Precipitation          float64    `db:"precipitation" json:"precipitation"`
	Quality                ResourceQuality `db:"-" json:"quality"`
	SpecialResource        string     `db:"special_resource" json:"specialResource,omitempty"`
	PlotSlots              int        `db:"plot_slots" json:"plotSlots"`
	BaseProductionModifier float64    `db:"base_production_modifier" json:"baseProductionModifier"`
	SettlementID           *string    `db:"settlement_id" json:"settlementId,omitempty"`
	BiomeID                string     `db:"biome_id" json:"biomeId"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updatedAt"`
}

// WaterQuality handles a tile with no explicit water quality sample
// (Quality.Water is zero) by deriving it from precipitation instead of
// treating 0 as authoritative.
func (t Tile) WaterQuality() float64 {
	if t.Quality.Water > 0 {
		return t.Quality.Water
	}
	derived := t.Precipitation * 100
	if derived < 0 {
		return 0
	}
	if derived > 100 {
		return 100
	}
	return derived
}

// EffectivePlotSlots returns PlotSlots, defaulting when unset (e.g. tiles
// decoded from legacy rows).
func (t Tile) EffectivePlotSlots() int {
	if t.PlotSlots <= 0 {
		return DefaultPlotSlots
	}
	return t.PlotSlots
}
