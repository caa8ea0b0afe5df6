package utils

import "net/url"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageParams reads page and per_page from a query string, clamping per_page to MaxPerPage.
func PageParams(query url.Values) (page, perPage int) {
	page = ParseInt(query.Get("page"), 1)
	perPage = ParseInt(query.Get("per_page"), DefaultPerPage)
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}
