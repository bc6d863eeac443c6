package model

import "time"

// QueueStatus is a construction entry's lifecycle state.
type QueueStatus string

const (
	QueueQueued     QueueStatus = "QUEUED"
	QueueInProgress QueueStatus = "IN_PROGRESS"
	QueueComplete   QueueStatus = "COMPLETE"
	QueueCancelled  QueueStatus = "CANCELLED"
)

// MaxActiveConstructions and MaxTotalConstructions cap a settlement's build
// queue: only so many entries may be in progress at once, and only so
// many may be queued in total.
const (
	MaxActiveConstructions = 3
	MaxTotalConstructions  = 10
)

// ConstructionQueueEntry is one settlement's queued/active build.
type ConstructionQueueEntry struct {
	ID            string          `db:"id" json:"id"`
	SettlementID  string          `db:"settlement_id" json:"settlementId"`
	StructureID   string          `db:"structure_id" json:"structureId"`
	ResourcesCost ResourceAmounts `db:"-" json:"resourcesCost"`
	Status        QueueStatus     `db:"status" json:"status"`
	Position      int             `db:"position" json:"position"`
	IsEmergency   bool            `db:"is_emergency" json:"isEmergency"`
	StartedAt     *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	CompletesAt   *time.Time      `db:"completes_at" json:"completesAt,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether the entry no longer counts toward the queue
// caps.
func (e ConstructionQueueEntry) IsTerminal() bool {
	return e.Status == QueueComplete || e.Status == QueueCancelled
}

// EmergencyCostMultiplier and EmergencySpeedFactor scale an emergency
// build's cost and speed; CancelRefundFraction is the fraction of spent
// resources returned when a queued entry is cancelled.
const (
	EmergencyCostMultiplier = 2.5
	EmergencySpeedFactor    = 2.0
	CancelRefundFraction    = 0.5
)

// EmergencyRepairDiscount is the fraction of a structure's proportional
// repair cost charged while its world has an active AFTERMATH disaster.
const EmergencyRepairDiscount = 0.5
