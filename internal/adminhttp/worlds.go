package adminhttp

import (
	"context"
	"net/http"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/worldgen"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createWorldRequest struct {
	ServerID      string            `json:"serverId" binding:"required"`
	Name          string            `json:"name" binding:"required"`
	WidthRegions  int               `json:"widthRegions"`
	HeightRegions int               `json:"heightRegions"`
	Seed          int64             `json:"seed"`
	Template      model.TemplateType `json:"template"`
}

func (a *API) listWorlds(c *gin.Context) {
	serverID := c.Query("serverId")
	var (
		worlds []model.World
		err    error
	)
	if serverID != "" {
		worlds, err = persistence.ListWorldsByServer(c.Request.Context(), a.Store.DB(), serverID)
	} else {
		servers, serr := persistence.ListServers(c.Request.Context(), a.Store.DB())
		if serr != nil {
			fail(c, serr)
			return
		}
		for _, s := range servers {
			ws, werr := persistence.ListWorldsByServer(c.Request.Context(), a.Store.DB(), s.ID)
			if werr != nil {
				fail(c, werr)
				return
			}
			worlds = append(worlds, ws...)
		}
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, worlds)
}

// createWorld inserts a world row in status `generating` and kicks off
// worldgen on a detached goroutine. The handler returns as soon as the
// row is durable; the caller polls GET /worlds/{id} for status to flip
// to ready/failed.
func (a *API) createWorld(c *gin.Context) {
	var req createWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}
	if req.WidthRegions <= 0 {
		req.WidthRegions = 4
	}
	if req.HeightRegions <= 0 {
		req.HeightRegions = 4
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.Template == "" {
		req.Template = model.TemplateStandard
	}

	templates := a.Templates
	tmpl, ok := templates[req.Template]
	if !ok {
		fail(c, apperrors.New(apperrors.KindMissingFields, "unknown template"))
		return
	}

	now := time.Now()
	world := model.World{
		ID: uuid.NewString(), ServerID: req.ServerID, Name: req.Name, Status: model.WorldGenerating,
		WidthRegions: req.WidthRegions, HeightRegions: req.HeightRegions, Seed: req.Seed,
		Elevation: worldgen.DefaultNoiseBundle, Precipitation: worldgen.DefaultNoiseBundle, Temperature: worldgen.DefaultNoiseBundle,
		Template: tmpl, CreatedAt: now, UpdatedAt: now,
	}

	if _, err := persistence.ServerByID(c.Request.Context(), a.Store.DB(), req.ServerID); err != nil {
		fail(c, err)
		return
	}
	if err := persistence.CreateWorld(c.Request.Context(), a.Store.DB(), world); err != nil {
		fail(c, err)
		return
	}

	go worldgen.Generate(context.Background(), a.Store, world.ID)

	c.JSON(http.StatusCreated, world)
}

func (a *API) getWorld(c *gin.Context) {
	world, err := persistence.WorldByID(c.Request.Context(), a.Store.DB(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

// deleteWorld cascades to every settlement, tile, region and disaster
// hanging off the world.
func (a *API) deleteWorld(c *gin.Context) {
	id := c.Param("id")
	err := a.Store.WithTx(c.Request.Context(), func(ctx context.Context, tx *persistence.Tx) error {
		ext := tx.Ext()
		if _, err := persistence.WorldByID(ctx, ext, id); err != nil {
			return err
		}
		return persistence.DeleteWorld(ctx, ext, id)
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
