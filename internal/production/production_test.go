package production

import (
	"testing"

	"terraforming-mars-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestTierMulBands(t *testing.T) {
	assert.Equal(t, 5.0, TierMul(1))
	assert.Equal(t, 5.0, TierMul(3))
	assert.Equal(t, 10.0, TierMul(4))
	assert.Equal(t, 10.0, TierMul(6))
	assert.Equal(t, 20.0, TierMul(7))
	assert.Equal(t, 40.0, TierMul(10))
}

func TestHealthEffBands(t *testing.T) {
	assert.Equal(t, 1.0, HealthEff(100))
	assert.Equal(t, 0.95, HealthEff(80))
	assert.Equal(t, 0.85, HealthEff(60))
	assert.Equal(t, 0.70, HealthEff(40))
	assert.Equal(t, 0.50, HealthEff(20))
	assert.Equal(t, 0.10, HealthEff(1))
	assert.Equal(t, 0.0, HealthEff(0))
}

func TestDisasterModStacksAndFloors(t *testing.T) {
	disasters := []model.DisasterEvent{
		{Type: model.DisasterDrought, Status: model.DisasterImpact, SeverityLevel: model.SeverityCatastrophic},
		{Type: model.DisasterHeatwave, Status: model.DisasterImpact, SeverityLevel: model.SeverityCatastrophic},
	}
	mod := DisasterMod(disasters, model.ResourceWater, 0)
	assert.Equal(t, 0.1, mod, "stacked catastrophic disasters floor at 0.1")
}

func TestDisasterModIgnoresNonImpactAndUnrelated(t *testing.T) {
	disasters := []model.DisasterEvent{
		{Type: model.DisasterDrought, Status: model.DisasterWarning, SeverityLevel: model.SeverityCatastrophic},
		{Type: model.DisasterEarthquake, Status: model.DisasterImpact, SeverityLevel: model.SeverityCatastrophic},
	}
	mod := DisasterMod(disasters, model.ResourceWater, 0)
	assert.Equal(t, 1.0, mod)
}

func TestDedupHighestLevelKeepsBestPerSubtypeBreakingTiesByAge(t *testing.T) {
	extractors := []Extractor{
		{StructureID: "a", Subtype: model.SubtypeFarm, Level: 1, CreatedAt: 200},
		{StructureID: "b", Subtype: model.SubtypeFarm, Level: 1, CreatedAt: 100},
		{StructureID: "c", Subtype: model.SubtypeFarm, Level: 2, CreatedAt: 300},
		{StructureID: "d", Subtype: model.SubtypeWell, Level: 1, CreatedAt: 50},
	}
	result := DedupHighestLevel(extractors)
	assert.Len(t, result, 2)

	var farm, well Extractor
	for _, e := range result {
		switch e.Subtype {
		case model.SubtypeFarm:
			farm = e
		case model.SubtypeWell:
			well = e
		}
	}
	assert.Equal(t, "c", farm.StructureID, "higher level wins regardless of age")
	assert.Equal(t, "d", well.StructureID)
}

func TestComputeYieldsExpectedResourceSet(t *testing.T) {
	tile := model.Tile{
		Quality:                model.ResourceQuality{Food: 100, Water: 100, Wood: 0, Stone: 0, Ore: 0},
		BaseProductionModifier: 1.0,
	}
	biome := model.Biome{ResourceMods: model.ResourceModifiers{Food: 1, Water: 1}}
	extractors := []Extractor{
		{StructureID: "farm-1", Subtype: model.SubtypeFarm, Level: 1, Health: 100},
	}

	outputs := Compute(extractors, tile, biome, nil, 1, 1.0)
	assert.Len(t, outputs, 1)
	assert.Equal(t, model.ResourceFood, outputs[0].Resource)
	// BaseRate(0.2) * quality(1.0) * biome(1.0) * tierMul(5.0) * health(1.0) * disasterMod(1.0) * tileMod(1.0)
	assert.InDelta(t, 1.0, outputs[0].Amount, 0.0001)
}

func TestComputeWithNoExtractorsYieldsNoOutputs(t *testing.T) {
	outputs := Compute(nil, model.Tile{}, model.Biome{}, nil, 1, 1.0)
	assert.Empty(t, outputs)
}
