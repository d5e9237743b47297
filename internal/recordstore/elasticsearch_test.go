package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(t *testing.T, handler http.HandlerFunc) *ElasticsearchSearcher {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewElasticsearchSearcher(client, "trade_")
}

func TestElasticsearchSearcher_TextSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	searcher := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{
			"hits": {"hits": [
				{"_id": "11", "_source": {"item_name": "Basmati Rice", "current_stock": 4}},
				{"_id": "12", "_source": {"id": "custom", "item_name": "Brown Rice"}}
			]}
		}`))
	})

	recs, err := searcher.TextSearch(context.Background(), "items", "item_name", "rce", 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "/trade_items/_search", gotPath)
	match := gotBody["query"].(map[string]interface{})["match"].(map[string]interface{})
	assert.Equal(t, "rce", match["item_name"].(map[string]interface{})["query"])

	assert.Equal(t, "11", recs[0].String("id"))
	assert.Equal(t, float64(4), recs[0].Float("current_stock"))
	assert.Equal(t, "custom", recs[1].String("id"))
}

func TestElasticsearchSearcher_IndexMissing(t *testing.T) {
	searcher := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := searcher.TextSearch(context.Background(), "items", "item_name", "rice", 5)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.True(t, IsIndexNotFound(err))
}

func TestElasticsearchSearcher_ServerError(t *testing.T) {
	searcher := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad query"}`))
	})

	_, err := searcher.TextSearch(context.Background(), "items", "item_name", "rice", 5)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.False(t, IsIndexNotFound(err))
}
