package apiv1

import (
	"errors"
	"net/http"

	"github.com/beam-cloud/s3meta/pkg/auth"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MetadataGroup serves per-user bucket metadata. Every route requires a user
// token.
type MetadataGroup struct {
	g       *echo.Group
	service *metadata.Service
}

func NewMetadataGroup(g *echo.Group, svc *metadata.Service) *MetadataGroup {
	mg := &MetadataGroup{g: g, service: svc}
	mg.g.GET("/metadata", mg.GetMetadata)
	mg.g.GET("/buckets", mg.ListBuckets)
	mg.g.GET("/shareable-buckets", mg.ListShareableBuckets)
	return mg
}

type BucketsResponse struct {
	Buckets []string `json:"buckets"`
}

func (mg *MetadataGroup) GetMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return ErrorResponse(c, http.StatusUnauthorized, err.Error())
	}

	result, err := mg.service.GetMetadata(ctx, user)
	if err != nil {
		return metadataError(c, user, err)
	}

	log.Debug().
		Str("user_id", user.UserId).
		Int("trees", len(result.Trees)).
		Int("errors", len(result.Errors)).
		Msg("served metadata")
	return SuccessResponse(c, result)
}

func (mg *MetadataGroup) ListBuckets(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return ErrorResponse(c, http.StatusUnauthorized, err.Error())
	}

	buckets, err := mg.service.GetAllowedBuckets(ctx, user)
	if err != nil {
		return metadataError(c, user, err)
	}
	return SuccessResponse(c, BucketsResponse{Buckets: buckets})
}

func (mg *MetadataGroup) ListShareableBuckets(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return ErrorResponse(c, http.StatusUnauthorized, err.Error())
	}

	buckets, err := mg.service.GetShareableBuckets(ctx, user)
	if err != nil {
		return metadataError(c, user, err)
	}
	return SuccessResponse(c, BucketsResponse{Buckets: buckets})
}

func metadataError(c echo.Context, user types.UserIdentity, err error) error {
	var permErr *types.PermissionResolutionError
	if errors.As(err, &permErr) {
		log.Error().Err(err).Str("user_id", user.UserId).Msg("permission lookup failed")
		return ErrorResponse(c, http.StatusServiceUnavailable, "permission lookup failed")
	}

	log.Error().Err(err).Str("user_id", user.UserId).Msg("metadata request failed")
	return ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
