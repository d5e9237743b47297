package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchSearcher serves TextSearch from indices named
// <prefix><table>, kept in sync with the relational tables elsewhere.
type ElasticsearchSearcher struct {
	client      *elasticsearch.Client
	indexPrefix string
}

func NewElasticsearchSearcher(client *elasticsearch.Client, indexPrefix string) *ElasticsearchSearcher {
	return &ElasticsearchSearcher{client: client, indexPrefix: indexPrefix}
}

func (s *ElasticsearchSearcher) IndexFor(table string) string {
	return s.indexPrefix + table
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// TextSearch runs a fuzzy match on column. Hits without an "id" field in
// their source get the document _id.
func (s *ElasticsearchSearcher) TextSearch(ctx context.Context, table, column, query string, limit int) ([]Record, error) {
	index := s.IndexFor(table)

	body, err := json.Marshal(buildMatchQuery(column, query))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSearchFailed, index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	if limit > 0 {
		req.Size = &limit
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSearchFailed, index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w: %s", ErrSearchFailed, ErrIndexNotFound, index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s: %s", ErrSearchFailed, index, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %w", ErrSearchFailed, index, err)
	}

	records := make([]Record, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		rec := Record(hit.Source)
		if rec == nil {
			rec = Record{}
		}
		if _, ok := rec["id"]; !ok {
			rec["id"] = hit.ID
		}
		records = append(records, rec)
	}
	return records, nil
}

func buildMatchQuery(column, query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				column: map[string]interface{}{
					"query":     query,
					"fuzziness": "AUTO",
					"operator":  "or",
				},
			},
		},
	}
}

// IsIndexNotFound reports whether err came from a missing search index.
func IsIndexNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}
