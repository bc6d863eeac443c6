package adminhttp

import (
	"net/http"
	"time"

	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"

	"github.com/gin-gonic/gin"
)

// elevateAdmin is the `/test/elevate-admin/{email}` escape hatch, mounted
// only when the server is running with NODE_ENV=test — it exists so
// integration tests can promote a freshly-seeded account without going
// through a separate administrative bootstrap flow.
func (a *API) elevateAdmin(c *gin.Context) {
	email := c.Param("email")
	account, err := persistence.AccountByEmail(c.Request.Context(), a.Store.DB(), email)
	if err != nil {
		fail(c, err)
		return
	}
	if err := persistence.UpdateAccountRole(c.Request.Context(), a.Store.DB(), account.ID, model.RoleAdministrator, time.Now()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}
