package library

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sadopc/litera/internal/store"
)

func ids(books []store.Book) []int64 {
	out := []int64{}
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func shelf() []store.Book {
	return []store.Book{
		{ID: 1, Title: "alpha", Author: "Zed", Type: store.TypeOffline, PublishedYear: 1999, Rating: 3, CurrentPage: 10, ReadDays: []string{"2024-01-02"}},
		{ID: 2, Title: "Beta", Author: "yann", Type: store.TypeOnline, ISBN: "978-0-13", Rating: 5, CoverImageURL: "https://img/b.jpg", ReadDays: []string{"2024-01-01", "2024-01-02"}},
		{ID: 3, Title: "Gamma", Author: "Xavier", Type: store.TypeOffline, PublishedYear: 2010, Notes: "borrowed from LIBRARY", CoverImageURL: "   ", ReadDays: []string{}},
		{ID: 4, Title: "alpha", Author: "Wu", Type: store.TypeOnline, Rating: 3, CurrentPage: 300, ReadDays: []string{}},
	}
}

// ============================================================
// Filters
// ============================================================

func TestQueryFilters(t *testing.T) {
	tests := []struct {
		filter Filter
		want   []int64
	}{
		{FilterAll, []int64{4, 3, 2, 1}},
		{"", []int64{4, 3, 2, 1}},
		{"bogus", []int64{4, 3, 2, 1}},
		{FilterOnline, []int64{4, 2}},
		{FilterOffline, []int64{3, 1}},
		{FilterHasReadDays, []int64{2, 1}},
		{FilterNoReadDays, []int64{4, 3}},
		{FilterHasRating, []int64{4, 2, 1}},
		{FilterHasCover, []int64{2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := ids(Query(shelf(), Params{Filter: tt.filter}).Books)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestHasRatingExcludesUnrated(t *testing.T) {
	books := []store.Book{
		{ID: 1, Rating: 0},
		{ID: 2, Rating: 0.5},
		{ID: 3},
		{ID: 4, Rating: -1},
	}
	for _, b := range Query(books, Params{Filter: FilterHasRating}).Books {
		if b.Rating <= 0 {
			t.Fatalf("book %d with rating %v passed has-rating", b.ID, b.Rating)
		}
	}
}

// ============================================================
// Keyword search
// ============================================================

func TestQueryKeyword(t *testing.T) {
	tests := []struct {
		keyword string
		want    []int64
	}{
		{"", []int64{4, 3, 2, 1}},
		{"ALPHA", []int64{4, 1}},
		{"yan", []int64{2}},
		{"978-0", []int64{2}},
		{"library", []int64{3}},
		{"  gamma  ", []int64{3}},
		{"nothing matches", []int64{}},
	}
	for _, tt := range tests {
		got := ids(Query(shelf(), Params{Keyword: tt.keyword}).Books)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("keyword %q (-want +got):\n%s", tt.keyword, diff)
		}
	}
}

func TestQueryFilterAndKeyword(t *testing.T) {
	got := ids(Query(shelf(), Params{Filter: FilterOnline, Keyword: "alpha"}).Books)
	if diff := cmp.Diff([]int64{4}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

// ============================================================
// Sorting
// ============================================================

func TestQuerySort(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []int64
	}{
		{SortID, []int64{4, 3, 2, 1}},
		{SortTitle, []int64{4, 1, 2, 3}},
		{SortAuthor, []int64{4, 3, 2, 1}},
		{SortPublishedYear, []int64{3, 1, 4, 2}},
		{SortRating, []int64{2, 4, 1, 3}},
		{SortCurrentPage, []int64{4, 1, 3, 2}},
		{SortReadDaysCount, []int64{2, 1, 4, 3}},
		{"unknown", []int64{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := ids(Query(shelf(), Params{Sort: tt.key}).Books)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortRatingTieBreakByHigherID(t *testing.T) {
	books := []store.Book{
		{ID: 2, Title: "B", Rating: 4, ReadDays: []string{"2024-01-01"}},
		{ID: 1, Title: "A", Rating: 4, ReadDays: []string{}},
	}
	got := ids(Query(books, Params{Sort: SortRating}).Books)
	if diff := cmp.Diff([]int64{2, 1}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	// Input order does not matter.
	books[0], books[1] = books[1], books[0]
	got = ids(Query(books, Params{Sort: SortRating}).Books)
	if diff := cmp.Diff([]int64{2, 1}, got); diff != "" {
		t.Fatalf("reversed input (-want +got):\n%s", diff)
	}
}

func TestQueryDoesNotModifyInput(t *testing.T) {
	books := shelf()
	Query(books, Params{Sort: SortTitle})
	if diff := cmp.Diff(shelf(), books); diff != "" {
		t.Fatalf("input modified (-want +got):\n%s", diff)
	}
}

func TestQueryDeterministic(t *testing.T) {
	p := Params{Filter: FilterAll, Sort: SortRating}
	first := Query(shelf(), p)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Query(shelf(), p)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

// ============================================================
// Stats
// ============================================================

func TestQueryStats(t *testing.T) {
	got := Query(shelf(), Params{}).Stats
	want := Stats{
		Total:         4,
		Online:        2,
		Offline:       2,
		RatedCount:    3,
		AvgRating:     11.0 / 3.0,
		TotalReadDays: 3,
		Histogram: []DayCount{
			{Day: "2024-01-01", Count: 1},
			{Day: "2024-01-02", Count: 2},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryStatsFollowVisibleSet(t *testing.T) {
	got := Query(shelf(), Params{Filter: FilterOffline}).Stats
	want := Stats{
		Total:         2,
		Offline:       2,
		RatedCount:    1,
		AvgRating:     3,
		TotalReadDays: 1,
		Histogram:     []DayCount{{Day: "2024-01-02", Count: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryStatsEmpty(t *testing.T) {
	got := Query(nil, Params{}).Stats
	if got.Total != 0 || got.AvgRating != 0 || len(got.Histogram) != 0 {
		t.Fatalf("unexpected stats for empty input: %+v", got)
	}
}
