package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceAmountsGetSet(t *testing.T) {
	var r ResourceAmounts
	r.Set(ResourceFood, 10)
	r.Set(ResourceOre, 3)

	assert.Equal(t, 10, r.Get(ResourceFood))
	assert.Equal(t, 3, r.Get(ResourceOre))
	assert.Equal(t, 0, r.Get(ResourceWater))
}

func TestResourceAmountsAddSub(t *testing.T) {
	a := ResourceAmounts{Food: 10, Water: 5, Wood: 2, Stone: 1, Ore: 0}
	b := ResourceAmounts{Food: 3, Water: 1, Wood: 2, Stone: 1, Ore: 4}

	assert.Equal(t, ResourceAmounts{Food: 13, Water: 6, Wood: 4, Stone: 2, Ore: 4}, a.Add(b))
	assert.Equal(t, ResourceAmounts{Food: 7, Water: 4, Wood: 0, Stone: 0, Ore: -4}, a.Sub(b))
}

func TestResourceAmountsScaleRoundsToNearest(t *testing.T) {
	r := ResourceAmounts{Food: 10, Water: 3, Wood: 0, Stone: 0, Ore: 0}
	scaled := r.Scale(2.5)
	assert.Equal(t, 25, scaled.Food)
	assert.Equal(t, 8, scaled.Water) // 3*2.5 = 7.5 -> rounds to 8
}

func TestResourceAmountsShortages(t *testing.T) {
	have := ResourceAmounts{Food: 2, Water: 10, Wood: 0, Stone: 5, Ore: 1}
	need := ResourceAmounts{Food: 5, Water: 1, Wood: 3, Stone: 5, Ore: 0}

	shortages := have.Shortages(need)
	assert.Equal(t, map[string]int{"food": 3, "wood": 3}, shortages)
}

func TestResourceAmountsShortagesNoneWhenSufficient(t *testing.T) {
	have := ResourceAmounts{Food: 10, Water: 10, Wood: 10, Stone: 10, Ore: 10}
	need := ResourceAmounts{Food: 1, Water: 1, Wood: 1, Stone: 1, Ore: 1}

	assert.Empty(t, have.Shortages(need))
}
