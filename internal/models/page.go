package models

import (
	"fmt"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a validated, 0-based page window
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Sort is a validated sort key such as "createdAt,DESC"
type Sort struct {
	Field string
	Desc  bool
}

// String renders s back into its query-string form
func (s Sort) String() string {
	if s.Desc {
		return s.Field + ",DESC"
	}
	return s.Field + ",ASC"
}

// ParseSort parses "field[,ASC|DESC]". Direction defaults to DESC.
func ParseSort(raw string, allowed ...string) (Sort, error) {
	field, dir, _ := strings.Cut(raw, ",")
	dir = strings.ToUpper(strings.TrimSpace(dir))
	if dir == "" {
		dir = "DESC"
	}
	if dir != "ASC" && dir != "DESC" {
		return Sort{}, fmt.Errorf("invalid sort direction %q", dir)
	}

	field = strings.TrimSpace(field)
	for _, a := range allowed {
		if a == field {
			return Sort{Field: field, Desc: dir == "DESC"}, nil
		}
	}
	return Sort{}, fmt.Errorf("invalid sort field %q", field)
}

// Page is a paginated response
type Page[T any] struct {
	Content       []T    `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int    `json:"total_elements"`
	TotalPages    int    `json:"total_pages"`
	Sort          string `json:"sort"`
}

// NewPage builds a Page from one window of results
func NewPage[T any](content []T, req PageRequest, total int, sort Sort) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if total > 0 && req.Size > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Sort:          sort.String(),
	}
}
