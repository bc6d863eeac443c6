package adminhttp

import (
	"net/http"
	"sync"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/gin-gonic/gin"
)

// metadataCache is the server-side cache of the structure catalog,
// invalidated only by TTL expiry since structure_defs changes only on
// deploy. A single read-mostly map, reloaded by the first request after the
// TTL has expired, doesn't need an external cache package.
type metadataCache struct {
	mu        sync.RWMutex
	defs      []model.StructureDef
	fetchedAt time.Time
}

func (m *metadataCache) fetchedAtSnapshot() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetchedAt
}

func (m *metadataCache) get(ctx *gin.Context, store *persistence.Store, ttl time.Duration) ([]model.StructureDef, bool, time.Duration, error) {
	m.mu.RLock()
	age := time.Since(m.fetchedAt)
	fresh := !m.fetchedAt.IsZero() && age < ttl
	defs := m.defs
	m.mu.RUnlock()
	if fresh {
		return defs, true, age, nil
	}

	defs, err := persistence.ListStructureDefs(ctx.Request.Context(), store.DB())
	if err != nil {
		return nil, false, 0, err
	}

	m.mu.Lock()
	m.defs = defs
	m.fetchedAt = time.Now()
	m.mu.Unlock()

	return defs, false, 0, nil
}

// structuresMetadata serves the cached catalog alongside `cached`,
// `cacheAge`, and `timestamp` fields describing the cache state.
func (a *API) structuresMetadata(c *gin.Context) {
	defs, cached, age, err := a.metadata.get(c, a.Store, a.Config.MetadataCacheTTL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"definitions": defs,
		"cached":      cached,
		"cacheAge":    age.Seconds(),
		"timestamp":   time.Now(),
	})
}

type createStructureRequest struct {
	SettlementID string  `json:"settlementId" binding:"required"`
	StructureID  string  `json:"structureId" binding:"required"`
	TileID       *string `json:"tileId"`
	Slot         *int    `json:"slot"`
}

// createStructure proxies to the structure service's Build.
func (a *API) createStructure(c *gin.Context) {
	var req createStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindMissingFields, err.Error()))
		return
	}
	created, err := a.Structures.Build(c.Request.Context(), req.SettlementID, req.StructureID, req.TileID, req.Slot)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// upgradeStructure proxies to the structure service's Upgrade.
func (a *API) upgradeStructure(c *gin.Context) {
	updated, err := a.Structures.Upgrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// repairStructure proxies to the structure service's Repair.
func (a *API) repairStructure(c *gin.Context) {
	repaired, err := a.Structures.Repair(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, repaired)
}

// deleteStructure proxies to the structure service's Demolish.
func (a *API) deleteStructure(c *gin.Context) {
	if err := a.Structures.Demolish(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// structuresBySettlement is the read-through listing of a settlement's
// built structures.
func (a *API) structuresBySettlement(c *gin.Context) {
	structures, err := persistence.StructuresBySettlement(c.Request.Context(), a.Store.DB(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, structures)
}
