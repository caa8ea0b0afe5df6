package request

import (
	"net/url"

	"yamdb/pkg/utils"
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
	// Search filters list endpoints that support ?search=.
	Search string `json:"search,omitempty"`
}

// NewPaginatedRequest reads page, per_page and search from a query string.
func NewPaginatedRequest(query url.Values) *PaginatedRequest {
	page, perPage := utils.PageParams(query)
	return &PaginatedRequest{
		Page:    page,
		PerPage: perPage,
		Search:  query.Get("search"),
	}
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.Limit())
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return utils.DefaultPerPage
	}
	if p.PerPage > utils.MaxPerPage {
		return utils.MaxPerPage
	}
	return p.PerPage
}
