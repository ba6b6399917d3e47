package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// PaginationParams is set only when the request asks for a page with limit
// or before. Requests without either get the full listing.
type PaginationParams struct {
	Enabled bool
	Limit   int
	Before  string
}

type CursorResponse struct {
	Status     string      `json:"status"`
	Records    interface{} `json:"records"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

func ParsePagination(c *gin.Context) PaginationParams {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		p.Enabled = true
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if before := c.Query("before"); before != "" {
		p.Enabled = true
		p.Before = before
	}

	return p
}
