package modifier

import (
	"testing"

	"terraforming-mars-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRuleValueLinear(t *testing.T) {
	r := Rule{Formula: FormulaLinear, Base: 5}
	assert.Equal(t, 0.0, r.Value(0))
	assert.Equal(t, 25.0, r.Value(5))
}

func TestRuleValueExponentialGrowsWithLevel(t *testing.T) {
	r := Rule{Formula: FormulaExponential, Base: 10}
	assert.Equal(t, 0.0, r.Value(0))
	v5 := r.Value(5)
	v10 := r.Value(10)
	assert.Greater(t, v10, v5, "exponential formula accelerates with level")
}

func TestRuleValueDiminishingApproachesAsymptote(t *testing.T) {
	r := Rule{Formula: FormulaDiminishing, Base: 1.0}
	low := r.Value(1)
	high := r.Value(1000)
	assert.Less(t, low, high)
	assert.Less(t, high, 1.0, "diminishing formula never reaches its Base asymptote")
}

func TestRulesForReturnsOnlyMatchingSubtype(t *testing.T) {
	matched := RulesFor(model.SubtypeHouse)
	assert.Len(t, matched, 1)
	assert.Equal(t, model.ModifierPopulationCapacity, matched[0].ModifierType)

	assert.Empty(t, RulesFor(model.SubtypeFarm), "extractors contribute no modifier")
}
