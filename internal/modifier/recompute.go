package modifier

import (
	"context"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"
)

// Recompute reads every SettlementStructure in settlementID, sums each
// rule's per-level contribution into its modifier type, and writes one
// SettlementModifier row per modifier type touched. The caller must run
// this after any structure mutation commits, inside the same transaction,
// so lastCalculatedAt never lags the structures it summarizes.
func Recompute(ctx context.Context, ext persistence.Ext, settlementID string) error {
	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return err
	}

	defCache := map[string]model.StructureDef{}
	totals := map[model.ModifierType]*model.SettlementModifier{}

	for _, s := range structures {
		def, ok := defCache[s.StructureID]
		if !ok {
			def, err = persistence.StructureDefByID(ctx, ext, s.StructureID)
			if err != nil {
				return err
			}
			defCache[s.StructureID] = def
		}

		for _, rule := range RulesFor(def.Subtype) {
			agg, ok := totals[rule.ModifierType]
			if !ok {
				agg = &model.SettlementModifier{SettlementID: settlementID, ModifierType: rule.ModifierType}
				totals[rule.ModifierType] = agg
			}
			value := rule.Value(s.Level)
			agg.TotalValue += value
			agg.SourceCount++
			agg.ContributingStructures = append(agg.ContributingStructures, model.ModifierContribution{
				StructureID: s.ID, Level: s.Level, Value: value,
			})
		}
	}

	now := time.Now()
	for _, agg := range totals {
		agg.LastCalculatedAt = now
		if err := persistence.UpsertModifier(ctx, ext, *agg); err != nil {
			return err
		}
	}
	return nil
}

// CapacityAndHappiness reads the cached population_capacity and
// happiness_bonus aggregates for settlementID, defaulting to zero when no
// structure contributes yet.
func CapacityAndHappiness(ctx context.Context, ext persistence.Ext, settlementID string) (capacity, happinessBonus float64, err error) {
	capRow, ok, err := persistence.ModifierByType(ctx, ext, settlementID, model.ModifierPopulationCapacity)
	if err != nil {
		return 0, 0, err
	}
	if ok {
		capacity = capRow.TotalValue
	}
	hap, ok, err := persistence.ModifierByType(ctx, ext, settlementID, model.ModifierHappinessBonus)
	if err != nil {
		return 0, 0, err
	}
	if ok {
		happinessBonus = hap.TotalValue
	}
	return capacity, happinessBonus, nil
}

// BaseStorageCapacity is the per-resource cap every settlement starts with
// before any warehouse/wall contribution.
const BaseStorageCapacity = 200.0

// StorageCapacity is BaseStorageCapacity plus the cached area_capacity
// aggregate (warehouses, walls), the modifier row those structures already
// contribute to but that nothing previously read back out.
func StorageCapacity(ctx context.Context, ext persistence.Ext, settlementID string) (float64, error) {
	row, ok, err := persistence.ModifierByType(ctx, ext, settlementID, model.ModifierAreaCapacity)
	if err != nil {
		return 0, err
	}
	if !ok {
		return BaseStorageCapacity, nil
	}
	return BaseStorageCapacity + row.TotalValue*10, nil
}

// BaseAreaCapacity is the buildable area every settlement starts with
// before any wall/warehouse contribution — the bootstrap allowance that
// lets a freshly founded settlement place its first BUILDING.
const BaseAreaCapacity = 20.0

// AreaCapacity is BaseAreaCapacity plus the cached area_capacity aggregate
// (warehouses, walls).
func AreaCapacity(ctx context.Context, ext persistence.Ext, settlementID string) (float64, error) {
	row, ok, err := persistence.ModifierByType(ctx, ext, settlementID, model.ModifierAreaCapacity)
	if err != nil {
		return 0, err
	}
	if !ok {
		return BaseAreaCapacity, nil
	}
	return BaseAreaCapacity + row.TotalValue, nil
}

// AreaUsed sums settlementID's built structures' own AreaCost.
func AreaUsed(ctx context.Context, ext persistence.Ext, settlementID string) (int, error) {
	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return 0, err
	}
	defCache := map[string]model.StructureDef{}
	used := 0
	for _, s := range structures {
		def, ok := defCache[s.StructureID]
		if !ok {
			def, err = persistence.StructureDefByID(ctx, ext, s.StructureID)
			if err != nil {
				return 0, err
			}
			defCache[s.StructureID] = def
		}
		used += def.AreaCost
	}
	return used, nil
}

// ValidateArea returns KindAreaExceeded when adding a structure costing
// areaCost would exceed settlementID's buildable area.
func ValidateArea(ctx context.Context, ext persistence.Ext, settlementID string, areaCost int) error {
	capacity, err := AreaCapacity(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	used, err := AreaUsed(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	if float64(used+areaCost) > capacity {
		return apperrors.New(apperrors.KindAreaExceeded, "not enough settlement area")
	}
	return nil
}

// TownHallLevel is the level of settlementID's built TOWN_HALL, 0 if none
// has been built yet.
func TownHallLevel(ctx context.Context, ext persistence.Ext, settlementID string) (int, error) {
	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return 0, err
	}
	level := 0
	for _, s := range structures {
		def, err := persistence.StructureDefByID(ctx, ext, s.StructureID)
		if err != nil {
			return 0, err
		}
		if def.Subtype == model.SubtypeTownHall && s.Level > level {
			level = s.Level
		}
	}
	return level, nil
}

// ValidateTierGate returns KindMinTownHallLevel when settlementID's built
// TOWN_HALL level is below def.MinTownHallLevel.
func ValidateTierGate(ctx context.Context, ext persistence.Ext, settlementID string, def model.StructureDef) error {
	if def.MinTownHallLevel <= 0 {
		return nil
	}
	level, err := TownHallLevel(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	if level < def.MinTownHallLevel {
		return apperrors.New(apperrors.KindMinTownHallLevel, "town hall level too low for this structure")
	}
	return nil
}

// ValidateUnique returns KindUniqueStructureExists when structureID is
// already built in settlementID, or already holds a non-terminal
// construction queue entry there — a unique BUILDING can have at most one
// of either at a time (invariant 3).
func ValidateUnique(ctx context.Context, ext persistence.Ext, settlementID, structureID string) error {
	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	for _, s := range structures {
		if s.StructureID == structureID {
			return apperrors.New(apperrors.KindUniqueStructureExists, "structure already built")
		}
	}
	entries, err := persistence.AllConstructionsBySettlement(ctx, ext, settlementID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.StructureID == structureID && !e.IsTerminal() {
			return apperrors.New(apperrors.KindUniqueStructureExists, "structure already queued")
		}
	}
	return nil
}

// CheckPrerequisites validates that settlementID's structures satisfy every
// StructurePrerequisite of structureID, returning the missing requirement
// descriptions (empty slice means satisfied).
func CheckPrerequisites(ctx context.Context, ext persistence.Ext, settlementID, structureID string) ([]string, error) {
	prereqs, err := persistence.PrerequisitesByStructure(ctx, ext, structureID)
	if err != nil {
		return nil, err
	}
	if len(prereqs) == 0 {
		return nil, nil
	}

	structures, err := persistence.StructuresBySettlement(ctx, ext, settlementID)
	if err != nil {
		return nil, err
	}
	levelByStructure := map[string]int{}
	for _, s := range structures {
		if s.Level > levelByStructure[s.StructureID] {
			levelByStructure[s.StructureID] = s.Level
		}
	}

	var missing []string
	for _, p := range prereqs {
		if p.RequiredStructureID == nil {
			continue // research-gated prerequisites aren't modeled; only structure-level ones are
		}
		if levelByStructure[*p.RequiredStructureID] < p.RequiredLevel {
			missing = append(missing, *p.RequiredStructureID)
		}
	}
	return missing, nil
}

// ValidatePrerequisites is CheckPrerequisites plus the typed error a
// structure-service caller returns directly.
func ValidatePrerequisites(ctx context.Context, ext persistence.Ext, settlementID, structureID string) error {
	missing, err := CheckPrerequisites(ctx, ext, settlementID, structureID)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.KindPrerequisitesNotMet, "missing prerequisites").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}
