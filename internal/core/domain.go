package core

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// DefaultListMonth is applied to listings that carry no month parameter.
const DefaultListMonth = March

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

type (
	// Month is a calendar month, 1-12.
	Month int

	Transaction struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Price       float64 `json:"price"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Image       string  `json:"image"`
		Sold        bool    `json:"sold"`
		DateOfSale  string  `json:"dateOfSale"`
	}

	// Pagination is a 1-based page window.
	Pagination struct {
		Page    int
		PerPage int
	}

	// ListFilter selects the rows returned by a transaction listing.
	ListFilter struct {
		Month  Month
		Search string
		Pagination
	}
)

var (
	ErrInvalidMonth = errors.New("invalid month abbreviation")
)

var monthAbbreviations = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseMonth maps a three-letter abbreviation (Jan..Dec, case-sensitive) to its Month.
func ParseMonth(abbrev string) (Month, error) {
	for i, a := range monthAbbreviations {
		if a == abbrev {
			return Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, abbrev)
}

func (m Month) Validate() error {
	if m < January || m > December {
		return ErrInvalidMonth
	}
	return nil
}

// Numeric returns the two-digit form used to match stored timestamps ("01".."12").
func (m Month) Numeric() string {
	return fmt.Sprintf("%02d", int(m))
}

// Abbrev returns the three-letter abbreviation, or "" for an invalid month.
func (m Month) Abbrev() string {
	if m.Validate() != nil {
		return ""
	}
	return monthAbbreviations[m-1]
}

func (m Month) String() string {
	if a := m.Abbrev(); a != "" {
		return a
	}
	return fmt.Sprintf("Month(%d)", int(m))
}

// NewPagination replaces values below 1 with the defaults.
func NewPagination(page, perPage int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset is the number of rows skipped before the page. Offsets that do not
// fit in an int saturate at math.MaxInt, which lies past the last row.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

func (f ListFilter) Validate() error {
	if err := f.Month.Validate(); err != nil {
		return err
	}
	if f.Page < 1 || f.PerPage < 1 {
		return errors.New("pagination values must be positive")
	}
	return nil
}

// HasSearch reports whether the listing needs text filtering.
func (f ListFilter) HasSearch() bool {
	return f.Search != ""
}
