package apiv1

import (
	"net/http"

	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type HealthGroup struct {
	redisClient *common.RedisClient
	service     *metadata.Service
	routerGroup *echo.Group
}

// NewHealthGroup registers the health check. rdb is nil in local mode.
func NewHealthGroup(g *echo.Group, rdb *common.RedisClient, svc *metadata.Service) *HealthGroup {
	group := &HealthGroup{routerGroup: g, redisClient: rdb, service: svc}

	g.GET("", group.HealthCheck)

	return group
}

func (h *HealthGroup) HealthCheck(c echo.Context) error {
	if h.redisClient != nil {
		err := h.redisClient.Ping(c.Request().Context()).Err()
		if err != nil {
			log.Error().Err(err).Msg("health check failed")
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	resp := map[string]any{"status": "ok"}
	if h.service != nil {
		resp["epoch"] = h.service.Epoch()
	}
	return c.JSON(http.StatusOK, resp)
}
