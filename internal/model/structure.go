package model

import "time"

// Category distinguishes resource-producing structures from everything
// else.
type Category string

const (
	CategoryExtractor Category = "EXTRACTOR"
	CategoryBuilding  Category = "BUILDING"
)

// Subtype names a concrete structure (FARM, WELL, SAWMILL, QUARRY, MINE for
// extractors; TOWN_HALL, HOUSE, WORKSHOP, GRANARY, WALL, SHELTER, WAREHOUSE
// for buildings — enumerated here rather than left an open string so
// production/modifier lookups stay exhaustive-checkable).
type Subtype string

const (
	SubtypeFarm    Subtype = "FARM"
	SubtypeWell    Subtype = "WELL"
	SubtypeSawmill Subtype = "SAWMILL"
	SubtypeQuarry  Subtype = "QUARRY"
	SubtypeMine    Subtype = "MINE"

	SubtypeTownHall  Subtype = "TOWN_HALL"
	SubtypeHouse     Subtype = "HOUSE"
	SubtypeWorkshop  Subtype = "WORKSHOP"
	SubtypeGranary   Subtype = "GRANARY"
	SubtypeWall      Subtype = "WALL"
	SubtypeShelter   Subtype = "SHELTER"
	SubtypeWarehouse Subtype = "WAREHOUSE"
)

// ExtractorResource maps an extractor subtype to the resource it produces.
func ExtractorResource(s Subtype) (ResourceKind, bool) {
	switch s {
	case SubtypeFarm:
		return ResourceFood, true
	case SubtypeWell:
		return ResourceWater, true
	case SubtypeSawmill:
		return ResourceWood, true
	case SubtypeQuarry:
		return ResourceStone, true
	case SubtypeMine:
		return ResourceOre, true
	default:
		return "", false
	}
}

// StructureDef is a structure's static definition (the catalog entry), as
// distinct from a SettlementStructure instance.
type StructureDef struct {
	ID                     string   `db:"id" json:"id"`
	Subtype                Subtype  `db:"subtype" json:"subtype"`
	Category               Category `db:"category" json:"category"`
	Tier                   int      `db:"tier" json:"tier"`
	MaxLevel               int      `db:"max_level" json:"maxLevel"`
	ConstructionTimeSeconds int     `db:"construction_time_seconds" json:"constructionTimeSeconds"`
	PopulationRequired     int      `db:"population_required" json:"populationRequired"`
	AreaCost               int      `db:"area_cost" json:"areaCost"`
	UniquePerSettlement    bool     `db:"unique_per_settlement" json:"uniquePerSettlement"`
	MinTownHallLevel       int      `db:"min_town_hall_level" json:"minTownHallLevel"`
}

// StructureRequirement is a base build-resource cost line.
type StructureRequirement struct {
	StructureID string       `db:"structure_id" json:"structureId"`
	Resource    ResourceKind `db:"resource" json:"resource"`
	Quantity    int          `db:"quantity" json:"quantity"`
}

// StructurePrerequisite requires either another structure at a level, or a
// research entry (the column exists for future use; no research logic
// runs yet).
type StructurePrerequisite struct {
	StructureID          string  `db:"structure_id" json:"structureId"`
	RequiredStructureID   *string `db:"required_structure_id" json:"requiredStructureId,omitempty"`
	RequiredResearchID    *string `db:"required_research_id" json:"requiredResearchId,omitempty"`
	RequiredLevel         int     `db:"required_level" json:"requiredLevel"`
}

// SettlementStructure is a built instance of a StructureDef inside a
// settlement.
type SettlementStructure struct {
	ID               string     `db:"id" json:"id"`
	SettlementID     string     `db:"settlement_id" json:"settlementId"`
	StructureID      string     `db:"structure_id" json:"structureId"`
	Level            int        `db:"level" json:"level"`
	// Health is nullable: nil means "never damaged", treated as 100 by
	// EffectiveHealth. A non-nil 0 is a genuine, distinct state (destroyed).
	Health           *float64   `db:"health" json:"health"`
	PopulationAssigned int      `db:"population_assigned" json:"populationAssigned"`
	TileID           *string    `db:"tile_id" json:"tileId,omitempty"`
	SlotPosition     *int       `db:"slot_position" json:"slotPosition,omitempty"`
	DamagedAt        *time.Time `db:"damaged_at" json:"damagedAt,omitempty"`
	RepairedAt       *time.Time `db:"repaired_at" json:"repairedAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// EffectiveHealth treats a nil health column as full health (100); a
// non-nil zero is genuine (destroyed).
func (s SettlementStructure) EffectiveHealth() float64 {
	if s.Health == nil {
		return 100
	}
	return *s.Health
}
