package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uni-directory/internal/common/database"
	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/observability"
	"uni-directory/internal/models"
	"uni-directory/internal/query"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// IndexSource serves the programme listing from an Elasticsearch index
// holding one document per programme.
type IndexSource struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
	obs      *observability.Observability
	logger   logger.Logger
}

func NewIndexSource(es *database.ElasticsearchClient, pageSize int, obs *observability.Observability, log logger.Logger) *IndexSource {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &IndexSource{
		client:   es.Client,
		index:    es.Index,
		pageSize: pageSize,
		obs:      obs,
		logger:   logger.OrNop(log).WithFields(map[string]interface{}{"component": "index-source", "index": es.Index}),
	}
}

// BuildSearchQuery renders the bool query for a state: multi_match on the
// search term, one term filter per set filter.
func BuildSearchQuery(s query.State) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if s.Search != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  s.Search,
				"fields": []string{"name^3", "university_name^2", "description"},
				"type":   "best_fields",
			},
		})
	}

	for _, key := range s.FilterKeys() {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{key: s.Filters[key]},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"name.keyword": "asc"}},
	}
}

// BuildSearchRequest pages the query with from/size.
func BuildSearchRequest(index string, s query.State, pageSize int) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	body, err := json.Marshal(BuildSearchQuery(s))
	if err != nil {
		return nil, err
	}
	from := (s.Page - 1) * pageSize
	size := pageSize
	return &esapi.SearchRequest{
		Index:          []string{index},
		Body:           bytes.NewReader(body),
		From:           &from,
		Size:           &size,
		TrackTotalHits: true,
	}, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ListProgrammes is a query.Fetcher backed by the index.
func (x *IndexSource) ListProgrammes(ctx context.Context, s query.State) (query.ResultPage[models.Programme], error) {
	var out query.ResultPage[models.Programme]

	req, err := BuildSearchRequest(x.index, s, x.pageSize)
	if err != nil {
		return out, apperrors.NewSearchQueryFailedError(x.index, err)
	}

	started := time.Now()
	ctx, span := x.obs.StartFetchSpan(ctx, CollectionProgrammes, x.index)
	res, err := req.Do(ctx, x.client)
	if err != nil {
		stdErr := apperrors.NewSearchQueryFailedError(x.index, err)
		x.obs.EndFetchSpan(ctx, span, CollectionProgrammes, started, stdErr)
		return out, stdErr
	}
	defer res.Body.Close()

	if res.IsError() {
		stdErr := apperrors.NewSearchQueryFailedError(x.index, fmt.Errorf("search query failed: %s", res.Status()))
		x.obs.EndFetchSpan(ctx, span, CollectionProgrammes, started, stdErr)
		return out, stdErr
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		stdErr := apperrors.NewDecodeError(err.Error())
		x.obs.EndFetchSpan(ctx, span, CollectionProgrammes, started, stdErr)
		return out, stdErr
	}
	x.obs.EndFetchSpan(ctx, span, CollectionProgrammes, started, nil)

	items := make([]models.Programme, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var p models.Programme
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			return out, apperrors.NewDecodeError(err.Error())
		}
		items = append(items, p)
	}

	x.logger.Debug("Index search completed", map[string]interface{}{
		"state":     s.String(),
		"totalHits": r.Hits.Total.Value,
		"tookMs":    time.Since(started).Milliseconds(),
	})

	return query.ResultPage[models.Programme]{
		Items:      items,
		TotalCount: r.Hits.Total.Value,
		PageSize:   x.pageSize,
		Page:       s.Page,
	}, nil
}
