package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/internportal/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

// ParsePage reads ?page= and ?size=. Invalid values fall back to the defaults.
func ParsePage(c *gin.Context) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n >= 1 {
		p.Number = n
	}
	if s, err := strconv.Atoi(c.Query("size")); err == nil && s >= 1 && s <= MaxPageSize {
		p.Size = s
	}
	return p
}

// Offset is the number of rows to skip
func (p Page) Offset() uint64 {
	if p.Number < 1 {
		return 0
	}
	return uint64(p.Number-1) * uint64(p.limit())
}

// Limit is the number of rows to return
func (p Page) Limit() int {
	return p.limit()
}

func (p Page) limit() int {
	if p.Size < 1 || p.Size > MaxPageSize {
		return DefaultPageSize
	}
	return p.Size
}

// Info describes this page of a listing with total rows. An empty listing
// still has one page.
func (p Page) Info(total int64) dto.PaginationInfo {
	size := int64(p.limit())
	pages := int((total + size - 1) / size)
	if pages == 0 {
		pages = 1
	}
	current := p.Number
	if current < 1 {
		current = 1
	}
	if current > pages {
		current = pages
	}
	return dto.PaginationInfo{
		CurrentPage: current,
		TotalPages:  pages,
		PageSize:    int(size),
		TotalItems:  total,
	}
}
