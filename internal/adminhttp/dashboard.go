package adminhttp

import (
	"net/http"
	"time"

	"terraforming-mars-backend/internal/persistence"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// dashboard answers GET /admin/dashboard: entity counts plus a handful of
// display-friendly strings (go-humanize), since this endpoint backs an
// operator console rather than another service.
func (a *API) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	ext := a.Store.DB()

	servers, err := persistence.CountServers(ctx, ext)
	if err != nil {
		fail(c, err)
		return
	}
	worlds, err := persistence.CountWorlds(ctx, ext)
	if err != nil {
		fail(c, err)
		return
	}
	settlements, err := persistence.CountSettlements(ctx, ext)
	if err != nil {
		fail(c, err)
		return
	}
	accounts, err := persistence.CountAccounts(ctx, ext)
	if err != nil {
		fail(c, err)
		return
	}

	body := gin.H{
		"counts": gin.H{
			"servers":     servers,
			"worlds":      worlds,
			"settlements": settlements,
			"accounts":    accounts,
		},
		"settlementsDisplay": humanize.Comma(int64(settlements)),
		"uptime":             humanize.Time(a.startedAt),
		"metadataCacheAge":   humanize.RelTime(a.metadata.fetchedAtSnapshot(), time.Now(), "ago", "from now"),
	}
	if a.Connections != nil {
		body["connectedClients"] = a.Connections.ConnectionCount()
	}
	c.JSON(http.StatusOK, body)
}
