package handlers

import (
	"ecopulse-analytics-api/middleware"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Analytics       *services.Analytics
	Cache           *services.CacheService
	Auth            *services.AuthService
	Records         RecordStore
	Peer            DocumentStore
	Recommendations DocumentStore
	// PeerFeedsCosts is set when recommendations read cost and rate rows
	// from the peer collection, so peer writes also stale them.
	PeerFeedsCosts  bool
}

// Register mounts the /api routes and the record feed on r. Mutating routes
// require an admin token when Auth is configured.
func Register(r gin.IRouter, d Deps) {
	predictions := NewPredictionHandler(d.Analytics, d.Cache)
	solar := NewRecommendationHandler(d.Analytics, d.Cache)
	records := NewRecordsHandler(d.Records, d.Cache)
	peerDocs := NewDocumentHandler(d.Peer, "Peer record", PeerRecordFilter, d.Cache, peerInvalidates(d)...)
	recDocs := NewDocumentHandler(d.Recommendations, "Recommendation", RecommendationFilter, d.Cache, recommendCachePrefix)

	admin := middleware.RequireRole(d.Auth, services.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/predictions/:target/", predictions.GetNational)
		api.GET("/peertopeer/", predictions.GetPeer)
		api.GET("/solar_recommendations/", solar.GetSolar)

		api.POST("/create/", admin, records.Create)
		api.PUT("/update/:year/", admin, records.Update)
		api.DELETE("/delete/:year/", admin, records.Delete)
		api.PUT("/recover/:year/", admin, records.Recover)

		api.POST("/create/peertopeer/", admin, peerDocs.Insert)
		mountDocuments(api.Group("/peertopeer/records"), peerDocs, admin)
		mountDocuments(api.Group("/add/recommendations"), recDocs, admin)
	}

	r.GET("/ws/records", RecordFeed(d.Cache, d.Auth))
}

// peerInvalidates lists the cached responses a peer record write makes stale.
func peerInvalidates(d Deps) []string {
	if d.PeerFeedsCosts {
		return []string{peerCachePrefix, recommendCachePrefix}
	}
	return []string{peerCachePrefix}
}

func mountDocuments(g *gin.RouterGroup, h *DocumentHandler, admin gin.HandlerFunc) {
	g.GET("", h.List)
	g.POST("", admin, h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", admin, h.Update)
	g.PATCH("/:id", admin, h.Update)
	g.DELETE("/:id", admin, h.Delete)
}

var (
	_ RecordStore   = (*store.Records)(nil)
	_ DocumentStore = (*store.Documents)(nil)
)
