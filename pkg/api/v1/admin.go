package apiv1

import (
	"net/http"
	"time"

	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/beam-cloud/s3meta/pkg/repository"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AdminGroup exposes cache control and permission management. Routes require
// the cluster admin token; the caller applies that middleware.
type AdminGroup struct {
	g           *echo.Group
	service     *metadata.Service
	bus         *common.EventBus
	redisClient *common.RedisClient
	permissions repository.PermissionAdmin
}

func NewAdminGroup(g *echo.Group, svc *metadata.Service, bus *common.EventBus, rdb *common.RedisClient, perms repository.PermissionAdmin) *AdminGroup {
	ag := &AdminGroup{g: g, service: svc, bus: bus, redisClient: rdb, permissions: perms}
	ag.g.GET("/status", ag.Status)
	ag.g.POST("/clear", ag.Clear)
	ag.g.POST("/users/:user_id/invalidate", ag.InvalidateUser)
	ag.g.GET("/permissions", ag.ListPermissions)
	ag.g.PUT("/permissions", ag.PutPermission)
	ag.g.DELETE("/permissions/:group/:bucket", ag.DeletePermission)
	return ag
}

type StatusResponse struct {
	Epoch         uint64   `json:"epoch"`
	CachedBuckets []string `json:"cached_buckets"`
	UserViews     int      `json:"user_views"`
	ReloadPeriod  string   `json:"reload_period"`
}

type ClearResponse struct {
	ClearCount int64 `json:"clear_count,omitempty"`
}

func (ag *AdminGroup) Status(c echo.Context) error {
	return SuccessResponse(c, StatusResponse{
		Epoch:         ag.service.Epoch(),
		CachedBuckets: ag.service.Global().Buckets(),
		UserViews:     ag.service.Users().Len(),
		ReloadPeriod:  ag.service.ReloadPeriod().String(),
	})
}

// Clear asks every gateway to drop its caches.
func (ag *AdminGroup) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	var resp ClearResponse
	if ag.redisClient != nil {
		count, err := ag.redisClient.Incr(ctx, common.Keys.MetadataClearCount()).Result()
		if err != nil {
			return ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		if err := ag.redisClient.Set(ctx, common.Keys.MetadataClearLast(), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to record clear time")
		}
		resp.ClearCount = count
	}

	if err := ag.bus.Emit(common.Event{Type: common.EventMetadataClear}); err != nil {
		log.Error().Err(err).Msg("failed to publish clear event")
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
	return SuccessResponse(c, resp)
}

func (ag *AdminGroup) InvalidateUser(c echo.Context) error {
	userId := c.Param("user_id")
	if userId == "" {
		return ErrorResponse(c, http.StatusBadRequest, "user_id required")
	}

	err := ag.bus.Emit(common.Event{
		Type: common.EventUserInvalidate,
		Data: map[string]any{"user_id": userId},
	})
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
	return SuccessResponse(c, nil)
}

func (ag *AdminGroup) ListPermissions(c echo.Context) error {
	perms, err := ag.permissions.ListPermissions(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
	return SuccessResponse(c, perms)
}

type PutPermissionRequest struct {
	Group     string `json:"group"`
	Bucket    string `json:"bucket"`
	AccessId  string `json:"access_id"`
	AccessKey string `json:"access_key"`
	Shareable bool   `json:"shareable"`
}

// PutPermission creates or replaces a grant. Cached views pick it up after
// the next clear.
func (ag *AdminGroup) PutPermission(c echo.Context) error {
	var req PutPermissionRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request")
	}
	if req.Group == "" || req.Bucket == "" {
		return ErrorResponse(c, http.StatusBadRequest, "group and bucket required")
	}
	if req.AccessId == "" || req.AccessKey == "" {
		return ErrorResponse(c, http.StatusBadRequest, "access_id and access_key required")
	}

	perm := types.BucketPermission{
		Group:     req.Group,
		Bucket:    req.Bucket,
		AccessId:  req.AccessId,
		AccessKey: req.AccessKey,
		Shareable: req.Shareable,
	}
	if err := ag.permissions.PutPermission(c.Request().Context(), perm); err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	log.Info().Str("group", perm.Group).Str("bucket", perm.Bucket).Bool("shareable", perm.Shareable).Msg("permission saved")
	return c.JSON(http.StatusCreated, Response{Success: true, Data: perm})
}

func (ag *AdminGroup) DeletePermission(c echo.Context) error {
	group, bucket := c.Param("group"), c.Param("bucket")
	if err := ag.permissions.DeletePermission(c.Request().Context(), group, bucket); err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}

	log.Info().Str("group", group).Str("bucket", bucket).Msg("permission deleted")
	return SuccessResponse(c, nil)
}
