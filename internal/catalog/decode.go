// Package catalog talks to the programme/university directory: the REST API,
// the optional search index and the session response cache.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/validation"
	"uni-directory/internal/query"
)

// listingSchema accepts both listing shapes the API produces: a paginated
// envelope {count, results} or a bare array.
var listingSchema = validation.MustCompile("listing", `{
	"oneOf": [
		{"type": "array"},
		{
			"type": "object",
			"required": ["results"],
			"properties": {
				"count": {"type": "integer", "minimum": 0},
				"next": {"type": ["string", "null"]},
				"previous": {"type": ["string", "null"]},
				"results": {"type": "array"}
			}
		}
	]
}`)

var recordSchema = validation.MustCompile("record", `{
	"type": "object",
	"required": ["id"]
}`)

type envelope[T any] struct {
	Count   *int `json:"count"`
	Results []T  `json:"results"`
}

// DecodePage turns a listing body into a ResultPage. An envelope supplies
// the total count; a bare array is the whole collection on one page.
// pageSize is the configured server page size.
func DecodePage[T any](body []byte, pageSize, page int) (query.ResultPage[T], error) {
	var out query.ResultPage[T]
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	result, err := listingSchema.ValidateBytes(body)
	if err != nil {
		return out, apperrors.NewDecodeError(err.Error())
	}
	if !result.Valid {
		return out, apperrors.NewDecodeError(fmt.Sprintf("unexpected listing shape: %s", result.Summary()))
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return out, apperrors.NewDecodeError(err.Error())
		}
		size := len(items)
		if size == 0 {
			size = pageSize
		}
		return query.ResultPage[T]{Items: items, TotalCount: len(items), PageSize: size, Page: 1}, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return out, apperrors.NewDecodeError(err.Error())
	}
	total := len(env.Results)
	if env.Count != nil {
		total = *env.Count
	}
	if len(env.Results) > pageSize {
		pageSize = len(env.Results)
	}
	return query.ResultPage[T]{
		Items:      env.Results,
		TotalCount: total,
		PageSize:   pageSize,
		Page:       page,
	}, nil
}

// DecodeRecord decodes a single detail object.
func DecodeRecord[T any](body []byte) (*T, error) {
	result, err := recordSchema.ValidateBytes(body)
	if err != nil {
		return nil, apperrors.NewDecodeError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("unexpected record shape: %s", result.Summary()))
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, apperrors.NewDecodeError(err.Error())
	}
	return &v, nil
}
