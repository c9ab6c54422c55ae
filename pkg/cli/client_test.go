package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apiv1 "github.com/beam-cloud/s3meta/pkg/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesResponses(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiv1.Response{
			Success: true,
			Data:    apiv1.BucketsResponse{Buckets: []string{"data", "logs"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	buckets, err := c.Buckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "logs"}, buckets)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, apiv1.HttpServerBaseRoute+"/s3/buckets", gotPath)
}

func TestClientSurfacesGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(apiv1.Response{Error: "permission lookup failed"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok").Metadata(context.Background())
	assert.EqualError(t, err, "permission lookup failed")
}

func TestClientNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Status(context.Background())
	assert.ErrorContains(t, err, "502")
}
