package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/store"
)

func sampleBooks() []store.Book {
	return []store.Book{
		{
			ID:            1,
			Title:         "Dune",
			Author:        "Frank Herbert",
			Type:          store.TypeOffline,
			ISBN:          "9780441013593",
			PublishedYear: 1965,
			Rating:        4.5,
			CurrentPage:   120,
			Notes:         "re-read",
			ReadDays:      []string{"2024-01-01", "2024-01-02"},
		},
		{
			ID:       2,
			Title:    "Web Novel",
			Type:     store.TypeOnline,
			ReadDays: []string{},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ============================================================
// Books CSV
// ============================================================

func TestBooksToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	if err := BooksToCSV(sampleBooks(), path); err != nil {
		t.Fatalf("BooksToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}
	if records[0][0] != "ID" || records[0][1] != "Title" {
		t.Fatalf("unexpected header %v", records[0])
	}

	row := records[1]
	want := []string{"1", "Dune", "Frank Herbert", "offline", "9780441013593", "1965", "4.5", "120", "2024-01-01;2024-01-02", "2", "re-read", ""}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
	if records[2][8] != "" || records[2][9] != "0" {
		t.Fatalf("book without read days: %v", records[2])
	}
}

func TestBooksToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := BooksToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestBooksToCSVSpecialCharacters(t *testing.T) {
	books := []store.Book{{ID: 1, Title: `The "Quoted", Book`, Notes: "line one\nline two", Type: store.TypeOffline}}
	path := filepath.Join(t.TempDir(), "special.csv")
	if err := BooksToCSV(books, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if records[1][1] != `The "Quoted", Book` {
		t.Fatalf("title mangled: %q", records[1][1])
	}
	if records[1][10] != "line one\nline two" {
		t.Fatalf("notes mangled: %q", records[1][10])
	}
}

func TestBooksToCSVBadPath(t *testing.T) {
	if err := BooksToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Expenses CSV
// ============================================================

func TestWriteExpensesCSV(t *testing.T) {
	expenses := []productivity.Expense{
		{ID: 1710000000000, Amount: 12.5, Description: "Lunch, with friends", Category: productivity.CategoryFood, Date: "2024-03-09"},
		{ID: 1710000000001, Amount: 3, Description: "Bus", Category: productivity.CategoryTransport, Date: "2024-03-10"},
	}
	var buf bytes.Buffer
	if err := WriteExpensesCSV(&buf, expenses); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"ID", "Date", "Category", "Description", "Amount"},
		{"1710000000000", "2024-03-09", "food", "Lunch, with friends", "12.50"},
		{"1710000000001", "2024-03-10", "transport", "Bus", "3.00"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestExpensesToCSVBadPath(t *testing.T) {
	if err := ExpensesToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Books JSON
// ============================================================

func TestBooksToJSON(t *testing.T) {
	books := sampleBooks()
	path := filepath.Join(t.TempDir(), DefaultBooksFile)
	if err := BooksToJSON(books, path); err != nil {
		t.Fatalf("BooksToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []store.Book
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if diff := cmp.Diff(books, got); diff != "" {
		t.Fatalf("books mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBooksJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBooksJSON(&buf, sampleBooks()[:1]); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, field := range []string{`"publishedYear"`, `"currentPage"`, `"coverImageUrl"`, `"readDays"`} {
		if !strings.Contains(out, field) {
			t.Errorf("missing field %s in %s", field, out)
		}
	}
}

func TestWriteBooksJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBooksJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("empty export = %q, want []", got)
	}
}

func TestBooksToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	BooksToJSON(sampleBooks(), path)

	data, _ := os.ReadFile(path)
	// Pretty-printed JSON should contain newlines and indentation
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  \"title\"") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestBooksToJSONBadPath(t *testing.T) {
	if err := BooksToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
