// Package adminhttp is the administrative REST surface: dashboard,
// server/world lifecycle, structure metadata and build/upgrade/demolish
// proxying, and the test-only disaster and role-elevation endpoints,
// gated by an ADMINISTRATOR session.
package adminhttp

import (
	"time"

	"terraforming-mars-backend/internal/config"
	"terraforming-mars-backend/internal/model"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/structureservice"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Connections reports live event-channel occupancy for the dashboard;
// satisfied by *eventbus.Hub without an import back into eventbus.
type Connections interface {
	RoomSize(room string) int
	ConnectionCount() int
}

// API wires the dependencies every admin handler needs.
type API struct {
	Store       *persistence.Store
	Structures  *structureservice.Service
	Config      config.Config
	Templates   map[model.TemplateType]model.TemplateConfig
	Connections Connections

	metadata  metadataCache
	startedAt time.Time
}

// New builds an API. templates is the world-template catalog (config.LoadTemplates()).
func New(store *persistence.Store, structures *structureservice.Service, cfg config.Config, templates map[model.TemplateType]model.TemplateConfig) *API {
	return &API{Store: store, Structures: structures, Config: cfg, Templates: templates, startedAt: time.Now()}
}

// Router assembles the gin engine: recovery, request logging, CORS, a
// rate limiter on the whole admin surface, auth resolution, then the
// route table.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(zapRecovery(), requestLogger)

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = a.Config.CORSOrigins
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.Use(rateLimit(20, 40))
	r.Use(resolveAuth(a.Store))

	admin := r.Group("/")
	admin.Use(requireAdmin)
	{
		admin.GET("/admin/dashboard", a.dashboard)

		admin.GET("/servers", a.listServers)
		admin.POST("/servers", a.createServer)
		admin.GET("/servers/:id", a.getServer)
		admin.PATCH("/servers/:id", a.patchServer)
		admin.DELETE("/servers/:id", a.deleteServer)

		admin.GET("/worlds", a.listWorlds)
		admin.POST("/worlds", a.createWorld)
		admin.GET("/worlds/:id", a.getWorld)
		admin.DELETE("/worlds/:id", a.deleteWorld)

		admin.GET("/structures/metadata", a.structuresMetadata)
		admin.POST("/structures/create", a.createStructure)
		admin.POST("/structures/:id/upgrade", a.upgradeStructure)
		admin.POST("/structures/:id/repair", a.repairStructure)
		admin.DELETE("/structures/:id", a.deleteStructure)
		admin.GET("/structures/by-settlement/:id", a.structuresBySettlement)

		admin.POST("/admin/disasters/trigger", a.triggerDisaster)
		admin.POST("/admin/disasters/clear", a.clearDisaster)
	}

	if a.Config.IsTest() {
		test := r.Group("/test")
		test.Use(requireTestEnv(true))
		test.PUT("/elevate-admin/:email", a.elevateAdmin)
	}

	return r
}
