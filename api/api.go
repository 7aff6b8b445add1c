package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloqit/lockerengine-backend/bloq"
	"github.com/bloqit/lockerengine-backend/internal/middleware"
	"github.com/bloqit/lockerengine-backend/internal/o11y"
	"github.com/bloqit/lockerengine-backend/locker"
	"github.com/bloqit/lockerengine-backend/rent"
)

type API struct {
	r   *gin.Engine
	blr *bloq.Repository
	lr  *locker.Repository
	rr  *rent.Repository
}

func New(blr *bloq.Repository, lr *locker.Repository, rr *rent.Repository,
	obs *o11y.Observability, metricsUsername, metricsPassword string) *API {
	a := &API{
		r:   gin.New(),
		blr: blr,
		lr:  lr,
		rr:  rr,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	metrics := gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))
	if metricsUsername != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{metricsUsername: metricsPassword}), metrics)
	} else {
		a.r.GET("/metrics", metrics)
	}

	g := a.r.Group("/api")
	{
		g.POST("/bloqs", a.createBloqHandler)
		g.GET("/bloqs", a.listBloqsHandler)
		g.GET("/bloqs/:id", a.getBloqHandler)
		g.PUT("/bloqs/:id", a.updateBloqHandler)
		g.DELETE("/bloqs/:id", a.deleteBloqHandler)
		g.PUT("/bloqs/:id/lockers/:lockerId", a.addLockerToBloqHandler)

		g.POST("/lockers/bloq/:bloqId", a.createLockerHandler)
		g.GET("/lockers/bloq/:bloqId", a.listLockersByBloqHandler)
		g.GET("/lockers/:id", a.getLockerHandler)
		g.PUT("/lockers/:id/status", a.updateLockerStatusHandler)
		g.PUT("/lockers/:id/occupy", a.occupyLockerHandler)
		g.GET("/lockers/:id/occupied", a.isLockerOccupiedHandler)
		g.GET("/lockers/:id/rents", a.listRentsByLockerHandler)
		g.DELETE("/lockers/:id", a.deleteLockerHandler)

		g.POST("/rents/locker/:lockerId", a.createRentHandler)
		g.GET("/rents/locker/:lockerId", a.listRentsForLockerHandler)
		g.GET("/rents/:id", a.getRentHandler)
		g.PUT("/rents/:id/status", a.updateRentStatusHandler)
		g.PUT("/rents/:id/mark-dropoff", a.markForDropoffHandler)
		g.PUT("/rents/:id/dropoff", a.recordDropoffHandler)
		g.PUT("/rents/:id/pickup", a.recordPickupHandler)
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}
