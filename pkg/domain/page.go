package domain

import (
	"math"
	"strconv"

	dErrors "lifeline/pkg/domain-errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is offset pagination. Number is 1-indexed at the boundary; Skip
// converts it to the zero-based offset stores apply.
type Page struct {
	Number int
	Size   int
}

// FirstPage returns page 1 with the default size.
func FirstPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// ParsePage reads page/size query values. Empty values take the defaults.
func ParsePage(page, size string) (Page, error) {
	p := FirstPage()
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return Page{}, dErrors.New(dErrors.CodeBadRequest, "page must be a positive integer")
		}
		p.Number = n
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n < 1 {
			return Page{}, dErrors.New(dErrors.CodeBadRequest, "size must be a positive integer")
		}
		p.Size = min(n, MaxPageSize)
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return Page{}, dErrors.New(dErrors.CodeBadRequest, "page is out of range")
	}
	return p, nil
}

// Skip is the number of records preceding this page. It saturates at
// math.MaxInt for pages built without ParsePage.
func (p Page) Skip() int {
	if p.Number < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit() {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit()
}

// Limit is the page length, defaulted when unset.
func (p Page) Limit() int {
	if p.Size < 1 {
		return DefaultPageSize
	}
	return p.Size
}

// Window slices an already-filtered, ordered result set to this page.
func Window[T any](items []T, p Page) []T {
	skip := p.Skip()
	if skip >= len(items) {
		return []T{}
	}
	end := min(skip+p.Limit(), len(items))
	return items[skip:end]
}
