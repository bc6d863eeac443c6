package model

// RiskBucket is one of the three weighted draw buckets in the biome
// disaster table.
type RiskBucket struct {
	Types  []DisasterType
	Weight float64 // this bucket's own probability mass, e.g. 0.60 for highRisk; PickType accumulates them
}

// BiomeDisasterTable is the authoritative biome -> disaster mapping.
// Buckets are high (60%), moderate (30%), low (10%); disaster.PickType
// draws uniformly within whichever bucket the roll lands in, then
// uniformly among that bucket's types.
var BiomeDisasterTable = map[BiomeID][3]RiskBucket{
	BiomeGrassland: {
		{Types: []DisasterType{DisasterDrought, DisasterTornado, DisasterLocustSwarm}, Weight: 0.60},
		{Types: []DisasterType{DisasterFlood, DisasterWildfire, DisasterHeatwave}, Weight: 0.30},
		{Types: []DisasterType{DisasterEarthquake}, Weight: 0.10},
	},
	BiomeForest: {
		{Types: []DisasterType{DisasterWildfire, DisasterInsectPlague, DisasterBlight}, Weight: 0.60},
		{Types: []DisasterType{DisasterFlood, DisasterTornado, DisasterDrought}, Weight: 0.30},
		{Types: []DisasterType{DisasterEarthquake, DisasterHeatwave}, Weight: 0.10},
	},
	BiomeDesert: {
		{Types: []DisasterType{DisasterDrought, DisasterSandstorm, DisasterHeatwave, DisasterLocustSwarm}, Weight: 0.60},
		{Types: []DisasterType{DisasterWildfire}, Weight: 0.30},
		{Types: []DisasterType{DisasterFlood, DisasterBlizzard}, Weight: 0.10},
	},
	BiomeMountain: {
		{Types: []DisasterType{DisasterEarthquake, DisasterAvalanche, DisasterLandslide, DisasterVolcano}, Weight: 0.60},
		{Types: []DisasterType{DisasterBlizzard, DisasterWildfire}, Weight: 0.30},
		{Types: []DisasterType{DisasterFlood, DisasterTornado, DisasterDrought}, Weight: 0.10},
	},
	BiomeTundra: {
		{Types: []DisasterType{DisasterBlizzard, DisasterAvalanche}, Weight: 0.60},
		{Types: []DisasterType{DisasterEarthquake}, Weight: 0.30},
		{Types: []DisasterType{DisasterWildfire, DisasterDrought, DisasterHeatwave}, Weight: 0.10},
	},
	BiomeSwamp: {
		{Types: []DisasterType{DisasterFlood, DisasterInsectPlague, DisasterBlight}, Weight: 0.60},
		{Types: []DisasterType{DisasterWildfire, DisasterTornado}, Weight: 0.30},
		{Types: []DisasterType{DisasterDrought, DisasterEarthquake}, Weight: 0.10},
	},
	BiomeCoastal: {
		{Types: []DisasterType{DisasterHurricane, DisasterFlood}, Weight: 0.60},
		{Types: []DisasterType{DisasterEarthquake, DisasterTornado, DisasterWildfire}, Weight: 0.30},
		{Types: []DisasterType{DisasterDrought, DisasterBlizzard}, Weight: 0.10},
	},
	BiomeOcean: {
		{Types: nil, Weight: 0},
		{Types: []DisasterType{DisasterHurricane}, Weight: 1.0},
		{Types: nil, Weight: 0},
	},
}
