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

type createServerRequest struct {
	Name     string `json:"name" binding:"required"`
	Hostname string `json:"hostname" binding:"required"`
	Port     int    `json:"port" binding:"required"`
}

func (a *API) listServers(c *gin.Context) {
	servers, err := persistence.ListServers(c.Request.Context(), a.Store.DB())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (a *API) createServer(c *gin.Context) {
	var req createServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}

	now := time.Now()
	server := model.Server{
		ID: uuid.NewString(), Name: req.Name, Hostname: req.Hostname, Port: req.Port,
		Status: model.ServerOffline, CreatedAt: now, UpdatedAt: now,
	}
	if err := persistence.CreateServer(c.Request.Context(), a.Store.DB(), server); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, server)
}

func (a *API) getServer(c *gin.Context) {
	server, err := persistence.ServerByID(c.Request.Context(), a.Store.DB(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

type patchServerRequest struct {
	Name     *string             `json:"name"`
	Hostname *string             `json:"hostname"`
	Port     *int                `json:"port"`
	Status   *model.ServerStatus `json:"status"`
}

func (a *API) patchServer(c *gin.Context) {
	ext := a.Store.DB()
	server, err := persistence.ServerByID(c.Request.Context(), ext, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	var req patchServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}
	if req.Name != nil {
		server.Name = *req.Name
	}
	if req.Hostname != nil {
		server.Hostname = *req.Hostname
	}
	if req.Port != nil {
		server.Port = *req.Port
	}
	if req.Status != nil {
		server.Status = *req.Status
	}
	server.UpdatedAt = time.Now()

	if err := persistence.UpdateServer(c.Request.Context(), ext, server); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

// deleteServer removes a server and, since a world always belongs to
// exactly one server, every world it owns.
func (a *API) deleteServer(c *gin.Context) {
	id := c.Param("id")
	err := a.Store.WithTx(c.Request.Context(), func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		if _, err := persistence.ServerByID(ctx, ext, id); err != nil {
			return err
		}
		worlds, err := persistence.ListWorldsByServer(ctx, ext, id)
		if err != nil {
			return err
		}
		for _, w := range worlds {
			if err := persistence.DeleteWorld(ctx, ext, w.ID); err != nil {
				return err
			}
		}
		return persistence.DeleteServer(ctx, ext, id)
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
