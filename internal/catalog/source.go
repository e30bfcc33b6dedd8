package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"uni-directory/internal/common/config"
	apperrors "uni-directory/internal/common/errors"
	commonhttp "uni-directory/internal/common/http"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/observability"
	"uni-directory/internal/models"
	"uni-directory/internal/query"
)

// Collection names used in metrics, spans and logs.
const (
	CollectionProgrammes   = "programmes"
	CollectionUniversities = "universities"
)

// ProgrammeFilters are the discrete filters the programme listing accepts.
var ProgrammeFilters = []string{"university", "award_level", "study_mode"}

// APISource reads the directory from the REST API. Base URL and collection
// paths come from configuration.
type APISource struct {
	api    config.APIConfig
	http   *commonhttp.Client
	cache  *ResponseCache
	obs    *observability.Observability
	codec  *query.URLCodec
	logger logger.Logger
}

// SourceOption configures an APISource.
type SourceOption func(*APISource)

func WithCache(c *ResponseCache) SourceOption { return func(s *APISource) { s.cache = c } }

func WithObservability(o *observability.Observability) SourceOption {
	return func(s *APISource) { s.obs = o }
}

func WithHTTPClient(c *commonhttp.Client) SourceOption { return func(s *APISource) { s.http = c } }

func WithSourceLogger(l logger.Logger) SourceOption { return func(s *APISource) { s.logger = l } }

// WithFilterKeys replaces ProgrammeFilters, e.g. with the keys of a loaded
// filter registry.
func WithFilterKeys(keys ...string) SourceOption {
	return func(s *APISource) { s.codec = query.NewURLCodec(keys...) }
}

func NewAPISource(api config.APIConfig, opts ...SourceOption) *APISource {
	s := &APISource{
		api:   api,
		codec: query.NewURLCodec(ProgrammeFilters...),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = commonhttp.NewClient(config.GetDuration(api.Timeout), commonhttp.WithUserAgent(api.UserAgent))
	}
	if s.obs == nil {
		s.obs = observability.NewNoop()
	}
	s.logger = logger.OrNop(s.logger).WithFields(map[string]interface{}{"component": "api-source"})
	return s
}

// Codec returns the codec describing the programme listing's URL shape.
func (s *APISource) Codec() *query.URLCodec { return s.codec }

// ListProgrammes is a query.Fetcher for the programme listing.
func (s *APISource) ListProgrammes(ctx context.Context, st query.State) (query.ResultPage[models.Programme], error) {
	u := s.collectionURL(s.api.ProgrammesPath, s.codec.EncodeValues(st))
	body, err := s.get(ctx, CollectionProgrammes, u)
	if err != nil {
		return query.ResultPage[models.Programme]{}, err
	}
	return DecodePage[models.Programme](body, s.api.PageSize, st.Page)
}

// ListUniversities loads the whole, non-paginated university collection.
func (s *APISource) ListUniversities(ctx context.Context) ([]models.University, error) {
	u := s.collectionURL(s.api.UniversitiesPath, nil)
	body, err := s.get(ctx, CollectionUniversities, u)
	if err != nil {
		return nil, err
	}
	page, err := DecodePage[models.University](body, s.api.PageSize, 1)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ProgrammePreview returns the first size programmes of a university.
func (s *APISource) ProgrammePreview(ctx context.Context, universityID string, size int) ([]models.Programme, error) {
	params := url.Values{}
	params.Set("university", universityID)
	params.Set("page_size", strconv.Itoa(size))
	body, err := s.get(ctx, CollectionProgrammes, s.collectionURL(s.api.ProgrammesPath, params))
	if err != nil {
		return nil, err
	}
	page, err := DecodePage[models.Programme](body, size, 1)
	if err != nil {
		return nil, err
	}
	if len(page.Items) > size {
		page.Items = page.Items[:size]
	}
	return page.Items, nil
}

func (s *APISource) GetProgramme(ctx context.Context, id string) (*models.Programme, error) {
	return getRecord[models.Programme](ctx, s, CollectionProgrammes, "Programme", s.api.ProgrammesPath, id)
}

func (s *APISource) GetUniversity(ctx context.Context, id string) (*models.University, error) {
	return getRecord[models.University](ctx, s, CollectionUniversities, "University", s.api.UniversitiesPath, id)
}

func getRecord[T any](ctx context.Context, s *APISource, collection, resource, path, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return nil, apperrors.NewNotFoundError(resource, id)
	}
	u := s.collectionURL(path+url.PathEscape(id)+"/", nil)
	body, err := s.get(ctx, collection, u)
	if err != nil {
		if stdErr := apperrors.Normalize(err); stdErr.Metadata["status"] == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(resource, id)
		}
		return nil, err
	}
	return DecodeRecord[T](body)
}

func (s *APISource) collectionURL(path string, params url.Values) string {
	u := s.api.CollectionURL(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get fetches a body through the cache. Only 2xx bodies are cached.
func (s *APISource) get(ctx context.Context, collection, u string) ([]byte, error) {
	if s.cache != nil {
		if body, ok := s.cache.Get(ctx, u); ok {
			return body, nil
		}
	}

	started := time.Now()
	ctx, span := s.obs.StartFetchSpan(ctx, collection, u)
	resp, err := s.http.GetJSON(ctx, u)
	if err != nil {
		stdErr := apperrors.NewNetworkError(u, err)
		s.obs.EndFetchSpan(ctx, span, collection, started, stdErr)
		return nil, stdErr
	}
	if !resp.OK() {
		stdErr := apperrors.NewHTTPStatusError(u, resp.StatusCode).WithMetadata("requestId", resp.RequestID)
		s.obs.EndFetchSpan(ctx, span, collection, started, stdErr)
		return nil, stdErr
	}
	s.obs.EndFetchSpan(ctx, span, collection, started, nil)

	s.logger.Debug("Fetched", map[string]interface{}{
		"url":        u,
		"requestId":  resp.RequestID,
		"durationMs": time.Since(started).Milliseconds(),
	})

	if s.cache != nil {
		s.cache.Set(ctx, u, resp.Body)
	}
	return resp.Body, nil
}
