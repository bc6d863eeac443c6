// Package production is the per-tick resource output calculator: a pure
// function of tile quality, biome, structure level/health, active
// disasters, and world template. Kept free of I/O so it is exhaustively
// unit-testable.
package production

import (
	"terraforming-mars-backend/internal/model"
)

// BaseRate is the per-resource, per-tick constant at quality=100 and
// tierMul=1, chosen so that base×tierMul(1)=1.0.
const BaseRate = 0.2

// TierMul is the step function over level bands; production scales in
// discrete jumps rather than linearly with level.
func TierMul(level int) float64 {
	switch {
	case level >= 10:
		return 40.0
	case level >= 7:
		return 20.0
	case level >= 4:
		return 10.0
	default:
		return 5.0
	}
}

// HealthEff is the structure-health efficiency step function. Nil health
// (represented by the caller as 100) falls into the ≥95 band.
func HealthEff(health float64) float64 {
	switch {
	case health >= 95:
		return 1.0
	case health >= 80:
		return 0.95
	case health >= 60:
		return 0.85
	case health >= 40:
		return 0.70
	case health >= 20:
		return 0.50
	case health >= 1:
		return 0.10
	default:
		return 0.0
	}
}

// DisasterImpact maps a severity level to its production impact fraction.
func DisasterImpact(level model.SeverityLevel) float64 {
	return level.Impact()
}

// DisasterMod multiplicatively stacks every active disaster affecting r,
// floored at 0.1. resistance is per-resource resilience in [0,1]; no
// structure currently contributes resistance, so callers pass 0.
func DisasterMod(disasters []model.DisasterEvent, r model.ResourceKind, resistance float64) float64 {
	mod := 1.0
	for _, d := range disasters {
		if d.Status != model.DisasterImpact {
			continue
		}
		if !d.AffectsResource(r) {
			continue
		}
		mod *= 1 - d.SeverityLevel.Impact()*(1-resistance)
	}
	if mod < 0.1 {
		return 0.1
	}
	return mod
}

// Extractor is the subset of a SettlementStructure production needs.
type Extractor struct {
	StructureID string
	Subtype     model.Subtype
	Level       int
	Health      float64
	CreatedAt   int64 // unix nanos, used only to break level ties deterministically
}

// DedupHighestLevel keeps, per extractor subtype, only the structure at
// the highest level; ties are broken by earliest CreatedAt, so the first
// one built is chosen and later duplicates are suppressed.
func DedupHighestLevel(extractors []Extractor) []Extractor {
	best := map[model.Subtype]Extractor{}
	seen := map[model.Subtype]bool{}
	for _, e := range extractors {
		cur, ok := best[e.Subtype]
		if !ok {
			best[e.Subtype] = e
			seen[e.Subtype] = true
			continue
		}
		if e.Level > cur.Level || (e.Level == cur.Level && e.CreatedAt < cur.CreatedAt) {
			best[e.Subtype] = e
		}
	}
	result := make([]Extractor, 0, len(best))
	for subtype := range seen {
		result = append(result, best[subtype])
	}
	return result
}

// Output is the produced amount for one resource, pre-rounding.
type Output struct {
	Resource model.ResourceKind
	Amount   float64
}

// Compute returns produced amounts for every resource an extractor set can
// yield, given the owning tile, active world disasters, elapsed ticks, and
// the world template multiplier. Linear in ticks: no branch here depends
// on ticks beyond the final multiply.
func Compute(extractors []Extractor, tile model.Tile, biome model.Biome, disasters []model.DisasterEvent, ticks float64, worldMul float64) []Output {
	deduped := DedupHighestLevel(extractors)

	totals := map[model.ResourceKind]float64{}
	for _, e := range deduped {
		resource, ok := model.ExtractorResource(e.Subtype)
		if !ok {
			continue
		}
		quality := tile.Quality.Get(resource)
		if resource == model.ResourceWater {
			quality = tile.WaterQuality()
		}
		biomeEff := biome.ResourceMods.Get(resource)
		amount := BaseRate * (quality / 100) * biomeEff * TierMul(e.Level) * HealthEff(e.Health) *
			DisasterMod(disasters, resource, 0) * tile.BaseProductionModifier * ticks * worldMul
		totals[resource] += amount
	}

	outputs := make([]Output, 0, len(totals))
	for _, r := range model.AllResources {
		if amount, ok := totals[r]; ok {
			outputs = append(outputs, Output{Resource: r, Amount: amount})
		}
	}
	return outputs
}
