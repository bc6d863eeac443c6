// Package modifier is the settlement-level aggregate cache: a config-driven
// rule table maps (structure subtype, modifier type, level) to a
// contribution value, Recompute sums contributions into a SettlementModifier
// row per structure mutation, and CheckPrerequisites validates a
// build/upgrade against the structure catalog.
package modifier

import (
	"math"

	"terraforming-mars-backend/internal/model"
)

// FormulaKind is how a rule's value scales with level.
type FormulaKind string

const (
	FormulaLinear      FormulaKind = "linear"
	FormulaExponential FormulaKind = "exponential"
	FormulaDiminishing FormulaKind = "diminishing"
)

// Rule is one (subtype, modifierType) contribution formula.
type Rule struct {
	Subtype      model.Subtype
	ModifierType model.ModifierType
	Formula      FormulaKind
	Base         float64 // per-level linear step, exponential base-1 value, or diminishing asymptote scale
}

// Value returns this rule's contribution at the given structure level.
func (r Rule) Value(level int) float64 {
	l := float64(level)
	switch r.Formula {
	case FormulaExponential:
		return r.Base * (math.Pow(1.15, l) - 1)
	case FormulaDiminishing:
		return r.Base * (1 - 1/(1+0.5*l))
	default: // linear
		return r.Base * l
	}
}

// Rules is the versioned table driving every contribution. Housing and
// town-hall capacity are linear; workshop-style bonuses taper
// (diminishing) so stacking many upgrades doesn't dominate production.
var Rules = []Rule{
	{Subtype: model.SubtypeTownHall, ModifierType: model.ModifierPopulationCapacity, Formula: FormulaLinear, Base: 10},
	{Subtype: model.SubtypeHouse, ModifierType: model.ModifierPopulationCapacity, Formula: FormulaLinear, Base: 5},
	{Subtype: model.SubtypeGranary, ModifierType: model.ModifierHappinessBonus, Formula: FormulaLinear, Base: 2},
	{Subtype: model.SubtypeShelter, ModifierType: model.ModifierHappinessBonus, Formula: FormulaLinear, Base: 3},
	{Subtype: model.SubtypeWall, ModifierType: model.ModifierAreaCapacity, Formula: FormulaLinear, Base: 4},
	{Subtype: model.SubtypeWarehouse, ModifierType: model.ModifierAreaCapacity, Formula: FormulaLinear, Base: 6},
	{Subtype: model.SubtypeWorkshop, ModifierType: model.ModifierFoodProductionBonus, Formula: FormulaDiminishing, Base: 0.5},
}

// RulesFor returns every rule that applies to subtype.
func RulesFor(subtype model.Subtype) []Rule {
	var matched []Rule
	for _, r := range Rules {
		if r.Subtype == subtype {
			matched = append(matched, r)
		}
	}
	return matched
}
