// Package pagination provides limit/offset paging for the patient listing
// endpoint. The FHIR-style _count and _offset parameters are accepted as
// aliases of limit and offset so bulk-export clients can keep their query
// conventions when selecting a cohort.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is the page window extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads the page window from the query string. Out-of-range
// values are clamped rather than rejected.
func FromContext(c echo.Context) Params {
	limit := intParam(c, "limit", "_count")
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := intParam(c, "offset", "_offset")
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

func intParam(c echo.Context, name, alias string) int {
	v := c.QueryParam(name)
	if v == "" {
		v = c.QueryParam(alias)
	}
	n, _ := strconv.Atoi(v)
	return n
}

// Response is the envelope for one page of results.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

// NewResponse wraps one page of data with its window and the total count.
func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}
