package database

import (
	"math"
	"strconv"
)

// Page holds a sanitized page/limit pair from the query string.
type Page struct {
	Number int
	Limit  int
}

// ParsePage falls back to page 1 and defaultLimit on missing or bad input.
func ParsePage(pageRaw, limitRaw string, defaultLimit int) Page {
	p := Page{Number: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(pageRaw); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(limitRaw); err == nil && n > 0 {
		if n > 200 {
			n = 200
		}
		p.Limit = n
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}
