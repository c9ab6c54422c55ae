package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apiv1 "github.com/beam-cloud/s3meta/pkg/api/v1"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/beam-cloud/s3meta/pkg/types"
)

const defaultRequestTimeout = 2 * time.Minute

// Client calls the gateway HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(addr, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(addr, "/") + apiv1.HttpServerBaseRoute,
		token:   token,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

type apiResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("cannot reach gateway at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var out apiResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("gateway returned %s", resp.Status)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = resp.Status
		}
		return zero, fmt.Errorf("%s", out.Error)
	}
	return out.Data, nil
}

func (c *Client) Metadata(ctx context.Context) (*metadata.MetadataResult, error) {
	return do[*metadata.MetadataResult](ctx, c, http.MethodGet, "/s3/metadata", nil)
}

func (c *Client) Buckets(ctx context.Context) ([]string, error) {
	resp, err := do[apiv1.BucketsResponse](ctx, c, http.MethodGet, "/s3/buckets", nil)
	return resp.Buckets, err
}

func (c *Client) ShareableBuckets(ctx context.Context) ([]string, error) {
	resp, err := do[apiv1.BucketsResponse](ctx, c, http.MethodGet, "/s3/shareable-buckets", nil)
	return resp.Buckets, err
}

func (c *Client) Status(ctx context.Context) (apiv1.StatusResponse, error) {
	return do[apiv1.StatusResponse](ctx, c, http.MethodGet, "/s3/admin/status", nil)
}

func (c *Client) Clear(ctx context.Context) (apiv1.ClearResponse, error) {
	return do[apiv1.ClearResponse](ctx, c, http.MethodPost, "/s3/admin/clear", nil)
}

func (c *Client) InvalidateUser(ctx context.Context, userId string) error {
	_, err := do[any](ctx, c, http.MethodPost, "/s3/admin/users/"+userId+"/invalidate", nil)
	return err
}

func (c *Client) Permissions(ctx context.Context) ([]types.BucketPermission, error) {
	return do[[]types.BucketPermission](ctx, c, http.MethodGet, "/s3/admin/permissions", nil)
}

func (c *Client) PutPermission(ctx context.Context, req apiv1.PutPermissionRequest) error {
	_, err := do[any](ctx, c, http.MethodPut, "/s3/admin/permissions", req)
	return err
}

func (c *Client) DeletePermission(ctx context.Context, group, bucket string) error {
	_, err := do[any](ctx, c, http.MethodDelete, "/s3/admin/permissions/"+group+"/"+bucket, nil)
	return err
}
