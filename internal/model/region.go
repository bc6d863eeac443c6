package model

// RegionSize is the fixed edge length of a region's tile grid: every
// region is a 10x10 tile grid.
const RegionSize = 10

// Region is a WidthRegions x HeightRegions grid cell of a World, itself
// holding a RegionSize x RegionSize grid of Tiles. The three noise maps are
// the raw fractal values sampled by worldgen before tile-level derivation
// (kept for regeneration/debugging, not read by the tick loop).
type Region struct {
	ID            string      `db:"id" json:"id"`
	WorldID       string      `db:"world_id" json:"worldId"`
	X             int         `db:"x" json:"x"`
	Y             int         `db:"y" json:"y"`
	ElevationMap  [][]float64 `db:"elevation_map" json:"-"`
	Precipitation [][]float64 `db:"precipitation_map" json:"-"`
	Temperature   [][]float64 `db:"temperature_map" json:"-"`
}
