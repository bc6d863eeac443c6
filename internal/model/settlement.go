package model

import "time"

// SettlementTier is the settlement's growth stage, 1..4.
type SettlementTier int

const (
	TierOutpost SettlementTier = 1
	TierVillage SettlementTier = 2
	TierTown    SettlementTier = 3
	TierCity    SettlementTier = 4
)

// Settlement is the player-owned unit bound to exactly one LAND tile.
type Settlement struct {
	ID          string         `db:"id" json:"id"`
	WorldID     string         `db:"world_id" json:"worldId"`
	ProfileID   string         `db:"profile_id" json:"profileId"`
	TileID      string         `db:"tile_id" json:"tileId"`
	Name        string         `db:"name" json:"name"`
	Tier        SettlementTier `db:"tier" json:"tier"`
	Resilience  int            `db:"resilience" json:"resilience"`
	// Errored marks a settlement whose tick panicked; the tick driver skips
	// it for one tick and clears the flag as it does so.
	Errored     bool           `db:"errored" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// ResourceAmounts is an integer amount per resource, used both for storage
// balances and for cost/delta snapshots (construction costs, production
// output, shortages).
type ResourceAmounts struct {
	Food  int `db:"food" json:"food"`
	Water int `db:"water" json:"water"`
	Wood  int `db:"wood" json:"wood"`
	Stone int `db:"stone" json:"stone"`
	Ore   int `db:"ore" json:"ore"`
}

func (r ResourceAmounts) Get(k ResourceKind) int {
	switch k {
	case ResourceFood:
		return r.Food
	case ResourceWater:
		return r.Water
	case ResourceWood:
		return r.Wood
	case ResourceStone:
		return r.Stone
	case ResourceOre:
		return r.Ore
	default:
		return 0
	}
}

func (r *ResourceAmounts) Set(k ResourceKind, v int) {
	switch k {
	case ResourceFood:
		r.Food = v
	case ResourceWater:
		r.Water = v
	case ResourceWood:
		r.Wood = v
	case ResourceStone:
		r.Stone = v
	case ResourceOre:
		r.Ore = v
	}
}

// Add returns r + other, element-wise.
func (r ResourceAmounts) Add(other ResourceAmounts) ResourceAmounts {
	return ResourceAmounts{
		Food:  r.Food + other.Food,
		Water: r.Water + other.Water,
		Wood:  r.Wood + other.Wood,
		Stone: r.Stone + other.Stone,
		Ore:   r.Ore + other.Ore,
	}
}

// Sub returns r - other, element-wise, without clamping.
func (r ResourceAmounts) Sub(other ResourceAmounts) ResourceAmounts {
	return ResourceAmounts{
		Food:  r.Food - other.Food,
		Water: r.Water - other.Water,
		Wood:  r.Wood - other.Wood,
		Stone: r.Stone - other.Stone,
		Ore:   r.Ore - other.Ore,
	}
}

// Scale multiplies every amount by factor, rounding to nearest (used for
// the emergency construction cost multiplier and refund fraction).
func (r ResourceAmounts) Scale(factor float64) ResourceAmounts {
	return ResourceAmounts{
		Food:  roundInt(float64(r.Food) * factor),
		Water: roundInt(float64(r.Water) * factor),
		Wood:  roundInt(float64(r.Wood) * factor),
		Stone: roundInt(float64(r.Stone) * factor),
		Ore:   roundInt(float64(r.Ore) * factor),
	}
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// Shortages returns, for every resource where r < need, the deficit amount.
// Used to populate an insufficient-resources error's details.
func (r ResourceAmounts) Shortages(need ResourceAmounts) map[string]int {
	shortages := map[string]int{}
	for _, k := range AllResources {
		have, want := r.Get(k), need.Get(k)
		if have < want {
			shortages[string(k)] = want - have
		}
	}
	return shortages
}

// DefaultStartingResources is the resource bank a newly founded settlement
// starts with, including a nonzero starting ore allotment.
var DefaultStartingResources = ResourceAmounts{Food: 50, Water: 100, Wood: 50, Stone: 30, Ore: 10}

// SettlementStorage is a settlement's resource bank. Amounts never go
// negative: consumption clamps at zero.
type SettlementStorage struct {
	SettlementID string          `db:"settlement_id" json:"settlementId"`
	Amounts      ResourceAmounts `db:"-" json:"amounts"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// SettlementPopulation is a settlement's people.
type SettlementPopulation struct {
	SettlementID      string    `db:"settlement_id" json:"settlementId"`
	Current           int       `db:"current" json:"current"`
	Happiness         int       `db:"happiness" json:"happiness"`
	LastGrowthAt      time.Time `db:"last_growth_at" json:"lastGrowthAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
