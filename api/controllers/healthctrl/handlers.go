package healthctrl

import (
	"context"
	"net/http"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

// Controller serves liveness and readiness probes.
type Controller struct {
	db    pinger
	cache pinger
	logg  *logger.Logger
}

func NewController(db, cache pinger, logg *logger.Logger) *Controller {
	return &Controller{db: db, cache: cache, logg: logg}
}

func (c *Controller) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.db.Ping(r.Context()); err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
		c.logg.Error(r.Context(), "database health check failed", err)
	}
	if c.cache != nil {
		if err := c.cache.Ping(r.Context()); err != nil {
			checks["cache"] = "unavailable"
			status = http.StatusServiceUnavailable
			c.logg.Error(r.Context(), "cache health check failed", err)
		}
	}
	responses.WriteJSON(w, status, checks)
}
