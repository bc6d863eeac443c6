package adminhttp

import (
	"context"
	"net/http"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type triggerDisasterRequest struct {
	WorldID  string             `json:"worldId" binding:"required"`
	Type     model.DisasterType `json:"type" binding:"required"`
	Severity float64            `json:"severity"`
	Duration int                `json:"duration"` // impact duration, seconds
}

// triggerDisaster is the `/admin/disasters/trigger` test surface: it
// schedules a disaster directly from the given type/severity/duration
// rather than drawing one from the biome table, since an operator driving
// this endpoint wants a specific scenario, not a random one. Scheduled for
// now with no warning lead time, so the game loop moves it to WARNING on its
// next tick and to IMPACT on the tick after.
func (a *API) triggerDisaster(c *gin.Context) {
	var req triggerDisasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}
	if req.Severity <= 0 {
		req.Severity = 50
	}
	if req.Duration <= 0 {
		req.Duration = 300
	}

	if _, err := persistence.WorldByID(c.Request.Context(), a.Store.DB(), req.WorldID); err != nil {
		fail(c, err)
		return
	}

	now := time.Now()
	event := model.DisasterEvent{
		ID: uuid.NewString(), WorldID: req.WorldID, Type: req.Type, Severity: req.Severity,
		SeverityLevel: model.SeverityLevelFor(req.Severity), ScheduledAt: now,
		WarningTime: 0, ImpactDuration: time.Duration(req.Duration) * time.Second,
		Status: model.DisasterScheduled, CreatedAt: now, UpdatedAt: now,
	}

	err := a.Store.WithTx(c.Request.Context(), func(ctx context.Context, tx *persistence.Tx) error {
		return persistence.CreateDisaster(ctx, tx.Ext(), event)
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

type clearDisasterRequest struct {
	WorldID string `json:"worldId" binding:"required"`
}

// clearDisaster force-resolves every non-resolved disaster for a world,
// skipping the normal lifecycle timers — a test-only escape hatch, not
// something the tick loop ever does itself.
func (a *API) clearDisaster(c *gin.Context) {
	var req clearDisasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}

	err := a.Store.WithTx(c.Request.Context(), func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		active, err := persistence.ActiveDisastersByWorld(ctx, ext, req.WorldID)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, d := range active {
			d.Status = model.DisasterResolved
			d.ImpactEndedAt = &now
			d.UpdatedAt = now
			if err := persistence.UpdateDisaster(ctx, ext, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
