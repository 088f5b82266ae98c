package response

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ===============================
// PAGINATION CONFIGURATION
// ===============================

// PaginationConfig holds pagination configuration
type PaginationConfig struct {
	DefaultLimit int    `json:"default_limit"`
	MaxLimit     int    `json:"max_limit"`
	PageParam    string `json:"page_param"`
	LimitParam   string `json:"limit_param"`
}

// DefaultPaginationConfig returns default pagination configuration
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultLimit: 20,
		MaxLimit:     100,
		PageParam:    "page",
		LimitParam:   "limit",
	}
}

// ===============================
// PAGINATION PARSER
// ===============================

// PaginationParams represents parsed pagination parameters
type PaginationParams struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PaginationParser parses pagination parameters from requests
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a new pagination parser
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromQuery parses pagination parameters from a query string
func (p *PaginationParser) ParseFromQuery(query url.Values) (*PaginationParams, error) {
	params := &PaginationParams{
		Page:  1,
		Limit: p.config.DefaultLimit,
	}

	if pageStr := query.Get(p.config.PageParam); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page parameter: %s", pageStr)
		}
		if page < 1 {
			return nil, fmt.Errorf("page must be greater than 0")
		}
		params.Page = page
	}

	if limitStr := query.Get(p.config.LimitParam); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %s", limitStr)
		}
		if limit < 1 {
			return nil, fmt.Errorf("limit must be greater than 0")
		}
		if limit > p.config.MaxLimit {
			return nil, fmt.Errorf("limit cannot exceed %d", p.config.MaxLimit)
		}
		params.Limit = limit
	}

	params.Offset = (params.Page - 1) * params.Limit

	return params, nil
}

// ParseFromRequest parses pagination parameters from an HTTP request
func (p *PaginationParser) ParseFromRequest(r *http.Request) (*PaginationParams, error) {
	return p.ParseFromQuery(r.URL.Query())
}

// BuildBlock computes a pagination block for a listing result. Route
// handlers use this before handing the block to WritePaginated, which
// passes it through as-is.
func BuildBlock(params *PaginationParams, total int64) Pagination {
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return Pagination{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
