package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
)

// disasterRow maps the table's *_seconds integer columns onto
// model.DisasterEvent's time.Duration fields, and its affected_biomes TEXT
// column onto a []model.BiomeID, both by hand at this boundary.
type disasterRow struct {
	ID                    string         `db:"id"`
	WorldID               string         `db:"world_id"`
	Type                  string         `db:"type"`
	Severity              float64        `db:"severity"`
	SeverityLevel         string         `db:"severity_level"`
	AffectedRegionID      *string        `db:"affected_region_id"`
	AffectedBiomesJSON    string         `db:"affected_biomes"`
	ScheduledAt           time.Time      `db:"scheduled_at"`
	WarningTimeSeconds    int            `db:"warning_time_seconds"`
	ImpactDurationSeconds int            `db:"impact_duration_seconds"`
	Status                string         `db:"status"`
	WarningStartedAt      *time.Time     `db:"warning_started_at"`
	ImpactStartedAt       *time.Time     `db:"impact_started_at"`
	ImpactEndedAt         *time.Time     `db:"impact_ended_at"`
	ImminentWarningIssued bool           `db:"imminent_warning_issued"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func disasterToRow(d model.DisasterEvent) (disasterRow, error) {
	biomes, err := json.Marshal(d.AffectedBiomes)
	if err != nil {
		return disasterRow{}, err
	}
	return disasterRow{
		ID: d.ID, WorldID: d.WorldID, Type: string(d.Type), Severity: d.Severity,
		SeverityLevel: string(d.SeverityLevel), AffectedRegionID: d.AffectedRegionID,
		AffectedBiomesJSON: string(biomes), ScheduledAt: d.ScheduledAt,
		WarningTimeSeconds: int(d.WarningTime.Seconds()), ImpactDurationSeconds: int(d.ImpactDuration.Seconds()),
		Status: string(d.Status), WarningStartedAt: d.WarningStartedAt, ImpactStartedAt: d.ImpactStartedAt,
		ImpactEndedAt: d.ImpactEndedAt, ImminentWarningIssued: d.ImminentWarningIssued,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

func rowToDisaster(row disasterRow) (model.DisasterEvent, error) {
	d := model.DisasterEvent{
		ID: row.ID, WorldID: row.WorldID, Type: model.DisasterType(row.Type), Severity: row.Severity,
		SeverityLevel: model.SeverityLevel(row.SeverityLevel), AffectedRegionID: row.AffectedRegionID,
		ScheduledAt: row.ScheduledAt,
		WarningTime: time.Duration(row.WarningTimeSeconds) * time.Second,
		ImpactDuration: time.Duration(row.ImpactDurationSeconds) * time.Second,
		Status: model.DisasterStatus(row.Status), WarningStartedAt: row.WarningStartedAt,
		ImpactStartedAt: row.ImpactStartedAt, ImpactEndedAt: row.ImpactEndedAt,
		ImminentWarningIssued: row.ImminentWarningIssued, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
	if row.AffectedBiomesJSON != "" {
		if err := json.Unmarshal([]byte(row.AffectedBiomesJSON), &d.AffectedBiomes); err != nil {
			return model.DisasterEvent{}, err
		}
	}
	return d, nil
}

func CreateDisaster(ctx context.Context, ext Ext, d model.DisasterEvent) error {
	row, err := disasterToRow(d)
	if err != nil {
		return apperrors.Wrap(apperrors.KindCreateFailed, "encode disaster", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO disaster_events
			(id, world_id, type, severity, severity_level, affected_region_id, affected_biomes,
			 scheduled_at, warning_time_seconds, impact_duration_seconds, status,
			 warning_started_at, impact_started_at, impact_ended_at, imminent_warning_issued, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.WorldID, row.Type, row.Severity, row.SeverityLevel, row.AffectedRegionID, row.AffectedBiomesJSON,
		row.ScheduledAt, row.WarningTimeSeconds, row.ImpactDurationSeconds, row.Status,
		row.WarningStartedAt, row.ImpactStartedAt, row.ImpactEndedAt, row.ImminentWarningIssued, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert disaster", err)
	}
	return nil
}

func DisasterByID(ctx context.Context, ext Ext, id string) (model.DisasterEvent, error) {
	var row disasterRow
	if err := ext.GetContext(ctx, &row, `SELECT * FROM disaster_events WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DisasterEvent{}, NotFound(apperrors.KindWorldNotFound, "disaster", id)
		}
		return model.DisasterEvent{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "lookup disaster", err)
	}
	return rowToDisaster(row)
}

// ActiveDisastersByWorld is the tick-critical indexed query the disaster
// scheduler and the production calculator both drive off of: every disaster
// not yet RESOLVED.
func ActiveDisastersByWorld(ctx context.Context, ext Ext, worldID string) ([]model.DisasterEvent, error) {
	var rows []disasterRow
	err := ext.SelectContext(ctx, &rows, `
		SELECT * FROM disaster_events WHERE world_id = ? AND status != ? ORDER BY scheduled_at`,
		worldID, model.DisasterResolved)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list active disasters", err)
	}
	disasters := make([]model.DisasterEvent, 0, len(rows))
	for _, row := range rows {
		d, err := rowToDisaster(row)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode disaster", err)
		}
		disasters = append(disasters, d)
	}
	return disasters, nil
}

func UpdateDisaster(ctx context.Context, ext Ext, d model.DisasterEvent) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE disaster_events
		SET status = ?, warning_started_at = ?, impact_started_at = ?, impact_ended_at = ?,
			imminent_warning_issued = ?, updated_at = ?
		WHERE id = ?`,
		d.Status, d.WarningStartedAt, d.ImpactStartedAt, d.ImpactEndedAt, d.ImminentWarningIssued, d.UpdatedAt, d.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "update disaster", err)
	}
	return nil
}

func CreateDisasterHistory(ctx context.Context, ext Ext, h model.DisasterHistory) error {
	lost, err := json.Marshal(h.ResourcesLost)
	if err != nil {
		return apperrors.Wrap(apperrors.KindCreateFailed, "encode disaster history", err)
	}
	_, err = ext.ExecContext(ctx, `
		INSERT INTO disaster_history
			(settlement_id, disaster_id, casualties, structures_damaged, structures_destroyed, resources_lost, resilience_gained, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.SettlementID, h.DisasterID, h.Casualties, h.StructuresDamaged, h.StructuresDestroyed, string(lost), h.ResilienceGained, h.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "insert disaster history", err)
	}
	return nil
}

func DisasterHistoryBySettlement(ctx context.Context, ext Ext, settlementID string) ([]model.DisasterHistory, error) {
	type row struct {
		SettlementID      string    `db:"settlement_id"`
		DisasterID        string    `db:"disaster_id"`
		Casualties        int       `db:"casualties"`
		StructuresDamaged int       `db:"structures_damaged"`
		StructuresDestroyed int    `db:"structures_destroyed"`
		ResourcesLostJSON string    `db:"resources_lost"`
		ResilienceGained  int       `db:"resilience_gained"`
		CreatedAt         time.Time `db:"created_at"`
	}
	var rows []row
	err := ext.SelectContext(ctx, &rows, `SELECT * FROM disaster_history WHERE settlement_id = ? ORDER BY created_at DESC`, settlementID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "list disaster history", err)
	}
	history := make([]model.DisasterHistory, 0, len(rows))
	for _, r := range rows {
		h := model.DisasterHistory{
			SettlementID: r.SettlementID, DisasterID: r.DisasterID, Casualties: r.Casualties,
			StructuresDamaged: r.StructuresDamaged, StructuresDestroyed: r.StructuresDestroyed,
			ResilienceGained: r.ResilienceGained, CreatedAt: r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.ResourcesLostJSON), &h.ResourcesLost); err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "decode disaster history", err)
		}
		history = append(history, h)
	}
	return history, nil
}
