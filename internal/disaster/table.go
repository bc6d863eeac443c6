package disaster

import "terraforming-mars-backend/internal/model"

// PickType draws a disaster type for biome using the weighted-bucket
// table: highRisk 60%, moderateRisk 30%, lowRisk 10%, then uniformly
// within whichever bucket the first roll lands in.
func PickType(rng *counterRNG, biome model.BiomeID) model.DisasterType {
	buckets, ok := model.BiomeDisasterTable[biome]
	if !ok {
		buckets = model.BiomeDisasterTable[model.BiomeGrassland]
	}

	roll := rng.Float64()
	var cumulative float64
	for _, bucket := range buckets {
		cumulative += bucket.Weight
		if roll <= cumulative && len(bucket.Types) > 0 {
			idx := int(rng.Float64() * float64(len(bucket.Types)))
			if idx >= len(bucket.Types) {
				idx = len(bucket.Types) - 1
			}
			return bucket.Types[idx]
		}
	}

	for _, bucket := range buckets {
		if len(bucket.Types) > 0 {
			return bucket.Types[0]
		}
	}
	return model.DisasterEarthquake
}

// PickSeverity draws a numeric severity in [0,100], biased toward the
// template's disaster-severity multiplier.
func PickSeverity(rng *counterRNG, templateSeverityMul float64) float64 {
	base := rng.Float64() * 100
	severity := base * templateSeverityMul
	if severity > 100 {
		return 100
	}
	return severity
}
