// Package library implements the book collection: the filter, search and
// sort pipeline with its statistics, and the mutations behind it.
package library

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sadopc/litera/internal/store"
)

// Filter selects books by type or by a derived property. Filters are
// alternatives; they do not combine.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterOnline      Filter = "online"
	FilterOffline     Filter = "offline"
	FilterHasReadDays Filter = "has-read-days"
	FilterNoReadDays  Filter = "no-read-days"
	FilterHasRating   Filter = "has-rating"
	FilterHasCover    Filter = "has-cover"
)

// Filters lists every filter in display order.
var Filters = []Filter{
	FilterAll, FilterOnline, FilterOffline,
	FilterHasReadDays, FilterNoReadDays, FilterHasRating, FilterHasCover,
}

type SortKey string

const (
	SortID            SortKey = "id"
	SortTitle         SortKey = "title"
	SortAuthor        SortKey = "author"
	SortPublishedYear SortKey = "publishedYear"
	SortRating        SortKey = "rating"
	SortCurrentPage   SortKey = "currentPage"
	SortReadDaysCount SortKey = "readDaysCount"
)

// SortKeys lists every sort key in display order.
var SortKeys = []SortKey{
	SortID, SortTitle, SortAuthor,
	SortPublishedYear, SortRating, SortCurrentPage, SortReadDaysCount,
}

type Params struct {
	Filter  Filter
	Keyword string
	Sort    SortKey
}

// DayCount is one bar of the read-days histogram.
type DayCount struct {
	Day   string
	Count int
}

type Stats struct {
	Total         int
	Online        int
	Offline       int
	RatedCount    int
	AvgRating     float64
	TotalReadDays int
	// Histogram counts read-day occurrences per date, oldest first.
	Histogram []DayCount
}

type Result struct {
	Books []store.Book
	Stats Stats
}

// Query filters, searches and sorts books and computes stats over the
// visible set. The input slice is not modified.
func Query(books []store.Book, p Params) Result {
	keyword := strings.ToLower(strings.TrimSpace(p.Keyword))

	visible := make([]store.Book, 0, len(books))
	for _, b := range books {
		if matchesFilter(b, p.Filter) && matchesKeyword(b, keyword) {
			visible = append(visible, b)
		}
	}
	slices.SortFunc(visible, comparator(p.Sort))

	return Result{Books: visible, Stats: computeStats(visible)}
}

func matchesFilter(b store.Book, f Filter) bool {
	switch f {
	case FilterOnline:
		return b.Type == store.TypeOnline
	case FilterOffline:
		return b.Type == store.TypeOffline
	case FilterHasReadDays:
		return len(b.ReadDays) > 0
	case FilterNoReadDays:
		return len(b.ReadDays) == 0
	case FilterHasRating:
		return b.Rating > 0
	case FilterHasCover:
		return strings.TrimSpace(b.CoverImageURL) != ""
	}
	return true
}

func matchesKeyword(b store.Book, keyword string) bool {
	if keyword == "" {
		return true
	}
	for _, field := range []string{b.Title, b.Author, b.ISBN, b.Notes} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// comparator orders by key, then by id descending. Ids are unique, so
// the order is total.
func comparator(key SortKey) func(a, b store.Book) int {
	byIDDesc := func(a, b store.Book) int { return cmp.Compare(b.ID, a.ID) }

	var primary func(a, b store.Book) int
	switch key {
	case SortTitle:
		primary = func(a, b store.Book) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortAuthor:
		primary = func(a, b store.Book) int {
			return strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
		}
	case SortPublishedYear:
		primary = func(a, b store.Book) int { return cmp.Compare(b.PublishedYear, a.PublishedYear) }
	case SortRating:
		primary = func(a, b store.Book) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortCurrentPage:
		primary = func(a, b store.Book) int { return cmp.Compare(b.CurrentPage, a.CurrentPage) }
	case SortReadDaysCount:
		primary = func(a, b store.Book) int { return cmp.Compare(len(b.ReadDays), len(a.ReadDays)) }
	default:
		return byIDDesc
	}

	return func(a, b store.Book) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return byIDDesc(a, b)
	}
}

func computeStats(books []store.Book) Stats {
	s := Stats{Total: len(books), Histogram: []DayCount{}}

	var ratingSum float64
	perDay := make(map[string]int)
	for _, b := range books {
		switch b.Type {
		case store.TypeOnline:
			s.Online++
		case store.TypeOffline:
			s.Offline++
		}
		if b.Rating > 0 {
			s.RatedCount++
			ratingSum += b.Rating
		}
		s.TotalReadDays += len(b.ReadDays)
		for _, d := range b.ReadDays {
			perDay[d]++
		}
	}
	if s.RatedCount > 0 {
		s.AvgRating = ratingSum / float64(s.RatedCount)
	}

	// ISO dates order chronologically as strings.
	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	slices.Sort(days)
	for _, d := range days {
		s.Histogram = append(s.Histogram, DayCount{Day: d, Count: perDay[d]})
	}
	return s
}
