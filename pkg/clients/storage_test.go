package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResultTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>photos</Name>
  <Prefix></Prefix>
  <KeyCount>%d</KeyCount>
  <MaxKeys>2</MaxKeys>
  <IsTruncated>%t</IsTruncated>
  %s
  %s
</ListBucketResult>`

func listResult(keys []string, next string) string {
	var contents strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&contents, "<Contents><Key>%s</Key><Size>1</Size></Contents>", k)
	}
	token := ""
	if next != "" {
		token = fmt.Sprintf("<NextContinuationToken>%s</NextContinuationToken>", next)
	}
	return fmt.Sprintf(listResultTemplate, len(keys), next != "", token, contents.String())
}

func TestS3BucketClientListPage(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/photos", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("list-type"))
		assert.Equal(t, "2", r.URL.Query().Get("max-keys"))

		w.Header().Set("Content-Type", "application/xml")
		switch r.URL.Query().Get("continuation-token") {
		case "":
			fmt.Fprint(w, listResult([]string{"docs/a.txt", "docs/b.txt"}, "page-2"))
		case "page-2":
			fmt.Fprint(w, listResult([]string{"readme.md"}, ""))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	cfg := types.MetadataConfig{
		Endpoint:     server.URL,
		Region:       "us-east-1",
		ListPageSize: 2,
	}
	client, err := NewS3BucketClient(context.Background(), cfg, types.BucketPermission{
		Bucket:    "photos",
		AccessId:  "id",
		AccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "photos", client.Bucket())

	page, err := client.ListPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt"}, page.Keys)
	assert.Equal(t, "page-2", page.NextToken)

	page, err = client.ListPage(context.Background(), page.NextToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.md"}, page.Keys)
	assert.Empty(t, page.NextToken)

	assert.Equal(t, int32(2), requests.Load())
}
