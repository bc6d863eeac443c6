package model

import "time"

// ModifierType names a settlement-level aggregated dimension, e.g.
// "population_capacity" or "food_production_bonus". Kept as a string type
// (not an enum) because the modifier rule table (internal/modifier) is
// config-driven and may grow without a model-package change.
type ModifierType string

const (
	ModifierPopulationCapacity ModifierType = "population_capacity"
	ModifierHappinessBonus     ModifierType = "happiness_bonus"
	ModifierAreaCapacity       ModifierType = "area_capacity"
	ModifierFoodProductionBonus ModifierType = "food_production_bonus"
)

// ModifierContribution is one structure's contribution to an aggregate, kept
// so the total is explainable to the client.
type ModifierContribution struct {
	StructureID string  `json:"structureId"`
	Level       int     `json:"level"`
	Value       float64 `json:"value"`
}

// SettlementModifier is the cached aggregate of every structure's
// contribution to one dimension. LastCalculatedAt must stay >= the max
// UpdatedAt of any structure in the settlement; any structure mutation
// invalidates the row before the next tick reads it.
type SettlementModifier struct {
	SettlementID          string                  `db:"settlement_id" json:"settlementId"`
	ModifierType          ModifierType            `db:"modifier_type" json:"modifierType"`
	TotalValue            float64                 `db:"total_value" json:"totalValue"`
	SourceCount           int                     `db:"source_count" json:"sourceCount"`
	ContributingStructures []ModifierContribution `db:"contributing_structures" json:"contributingStructures"`
	LastCalculatedAt      time.Time               `db:"last_calculated_at" json:"lastCalculatedAt"`
}
