package shared

// DefaultPerPage applies when a listing request does not set a page size.
const DefaultPerPage = 20

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination normalizes the page parameters and derives the page count.
func NewPagination(page, perPage, total int) Pagination {
	p := Pagination{Page: page, PerPage: perPage, Total: total}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if total > 0 {
		p.TotalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return p
}

// Offset converts page parameters into a SQL offset.
func Offset(page, perPage int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * perPage
}
