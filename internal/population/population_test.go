package population

import (
	"testing"
	"time"

	"terraforming-mars-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCapacityAddsHousingModifierToTierBaseline(t *testing.T) {
	assert.Equal(t, 20, Capacity(model.TierVillage, 10))
	assert.Equal(t, 10, Capacity(model.TierVillage, 0))
}

func TestGrowthRateBands(t *testing.T) {
	assert.Equal(t, 0.0, GrowthRate(50))
	assert.Equal(t, 0.0, GrowthRate(40))
	assert.InDelta(t, 0.5, GrowthRate(70), 0.0001)
	assert.InDelta(t, 0.7, GrowthRate(80), 0.0001)
	assert.InDelta(t, -0.52, GrowthRate(39), 0.0001)
	assert.InDelta(t, -1.3, GrowthRate(0), 0.0001)
}

func TestHappinessPenalizesShortagesAndRewardsSurplus(t *testing.T) {
	shortage := model.ResourceAmounts{Food: 0, Water: 0}
	h := Happiness(50, shortage, 10, 0, 0)
	assert.Equal(t, 40, h, "both food and water short: -5 each")

	surplus := model.ResourceAmounts{Food: 100, Water: 100}
	h = Happiness(50, surplus, 10, 0, 0)
	assert.Equal(t, 52, h, "both food and water abundant: +1 each")
}

func TestHappinessClampsToRange(t *testing.T) {
	shortage := model.ResourceAmounts{Food: 0, Water: 0}
	h := Happiness(0, shortage, 10, 0, 50)
	assert.Equal(t, 0, h)

	surplus := model.ResourceAmounts{Food: 1000, Water: 1000}
	h = Happiness(99, surplus, 1, 50, 0)
	assert.Equal(t, 100, h)
}

func TestComputeAppliesStarvationCasualtiesWhenFoodShort(t *testing.T) {
	pop := model.SettlementPopulation{Current: 100, Happiness: 50}
	storage := model.ResourceAmounts{Food: 0, Water: 1000}

	delta := Compute(pop, model.TierCity, 0, 0, storage, 0, time.Hour)
	assert.Greater(t, delta.Casualties, 0, "zero food storage against a 100-person need causes casualties")
	assert.LessOrEqual(t, delta.Casualties, pop.Current)
}

func TestComputeCapsGrowthAtCapacity(t *testing.T) {
	pop := model.SettlementPopulation{Current: 19, Happiness: 100}
	storage := model.ResourceAmounts{Food: 1000, Water: 1000}

	delta := Compute(pop, model.TierOutpost, 0, 0, storage, 0, 100*time.Hour)
	assert.LessOrEqual(t, delta.NewCurrent, Capacity(model.TierOutpost, 0))
}

func TestComputeNoCasualtiesWhenPopulationIsZero(t *testing.T) {
	pop := model.SettlementPopulation{Current: 0, Happiness: 50}
	storage := model.ResourceAmounts{Food: 0, Water: 0}

	delta := Compute(pop, model.TierOutpost, 0, 0, storage, 0, time.Hour)
	assert.Equal(t, 0, delta.Casualties)
}
