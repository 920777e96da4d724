package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// addBook is a test helper that inserts a book and returns its id.
func addBook(t *testing.T, s *Store, b Book) int64 {
	t.Helper()
	got, err := s.AddBook(b)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	return got.ID
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/litera.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	addBook(t, s, Book{Title: "Persisted", Type: TypeOffline})
	s.Close()

	// Reopen: should not re-migrate and the book should still be there.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	n, err := s2.CountBooks()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 book after reopen, got %d", n)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Books
// ============================================================

func TestAddAndGetBook(t *testing.T) {
	s := newTestStore(t)
	id := addBook(t, s, Book{
		ID:            42, // ignored
		Title:         "Dune",
		Author:        "Frank Herbert",
		Type:          TypeOffline,
		ISBN:          "9780441013593",
		PublishedYear: 1965,
		Rating:        4.5,
		CurrentPage:   120,
		Notes:         "spice",
		CoverImageURL: "https://example.com/dune.jpg",
	})
	if id == 42 {
		t.Fatal("AddBook should assign a fresh id")
	}

	b, err := s.GetBook(id)
	if err != nil {
		t.Fatal(err)
	}
	want := &Book{
		ID:            id,
		Title:         "Dune",
		Author:        "Frank Herbert",
		Type:          TypeOffline,
		ISBN:          "9780441013593",
		PublishedYear: 1965,
		Rating:        4.5,
		CurrentPage:   120,
		Notes:         "spice",
		CoverImageURL: "https://example.com/dune.jpg",
		ReadDays:      []string{},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("GetBook mismatch (-want +got):\n%s", diff)
	}
}

func TestAddBookIDsMonotonic(t *testing.T) {
	s := newTestStore(t)
	a := addBook(t, s, Book{Title: "A"})
	b := addBook(t, s, Book{Title: "B"})
	if b <= a {
		t.Fatalf("ids not increasing: %d then %d", a, b)
	}

	// Deleting the newest must not let its id be reused.
	if err := s.DeleteBook(b); err != nil {
		t.Fatal(err)
	}
	c := addBook(t, s, Book{Title: "C"})
	if c <= b {
		t.Fatalf("id %d reused after delete (last was %d)", c, b)
	}
}

func TestGetBookNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetBook(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBooksByType(t *testing.T) {
	s := newTestStore(t)
	addBook(t, s, Book{Title: "On", Type: TypeOnline})
	addBook(t, s, Book{Title: "Off", Type: TypeOffline})
	addBook(t, s, Book{Title: "On2", Type: TypeOnline})

	all, err := s.ListBooks("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 books, got %d", len(all))
	}

	online, err := s.ListBooks(TypeOnline)
	if err != nil {
		t.Fatal(err)
	}
	if len(online) != 2 {
		t.Fatalf("expected 2 online books, got %d", len(online))
	}
	for _, b := range online {
		if b.Type != TypeOnline {
			t.Fatalf("unexpected type %q", b.Type)
		}
	}
}

func TestListBooksEmpty(t *testing.T) {
	s := newTestStore(t)
	books, err := s.ListBooks("")
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 0 {
		t.Fatalf("expected no books, got %d", len(books))
	}
}

func TestAddReadDay(t *testing.T) {
	s := newTestStore(t)
	id := addBook(t, s, Book{Title: "Read me"})

	added, err := s.AddReadDay(id, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Fatal("first add should report true")
	}
	added, err = s.AddReadDay(id, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("duplicate day should report false")
	}
	s.AddReadDay(id, "2024-01-02")

	b, _ := s.GetBook(id)
	if diff := cmp.Diff([]string{"2024-01-01", "2024-01-02"}, b.ReadDays); diff != "" {
		t.Fatalf("read days mismatch (-want +got):\n%s", diff)
	}
}

func TestAddReadDayNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddReadDay(7, "2024-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutBookReplacesFields(t *testing.T) {
	s := newTestStore(t)
	id := addBook(t, s, Book{Title: "Old", Author: "Someone", Rating: 2, ReadDays: []string{"2024-02-01"}})

	err := s.PutBook(Book{ID: id, Title: "New", Type: TypeOnline, ReadDays: []string{"2024-02-01", "2024-02-03"}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.GetBook(id)
	if b.Title != "New" || b.Author != "" || b.Rating != 0 || b.Type != TypeOnline {
		t.Fatalf("fields not replaced: %+v", b)
	}
	if len(b.ReadDays) != 2 {
		t.Fatalf("expected 2 read days, got %v", b.ReadDays)
	}
}

func TestPutBookNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.PutBook(Book{ID: 5, Title: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	id := addBook(t, s, Book{Title: "Gone", ReadDays: []string{"2024-03-01"}})

	if err := s.DeleteBook(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetBook(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected book to be gone, got %v", err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM read_days`).Scan(&n)
	if n != 0 {
		t.Fatalf("read days should be removed with the book, %d left", n)
	}
}

func TestDeleteBookNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteBook(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceBooks(t *testing.T) {
	s := newTestStore(t)
	addBook(t, s, Book{Title: "Existing"})

	err := s.ReplaceBooks([]Book{
		{ID: 10, Title: "Ten", ReadDays: []string{"2024-01-01"}},
		{Title: "Fresh"},
	})
	if err != nil {
		t.Fatal(err)
	}

	books, _ := s.ListBooks("")
	if len(books) != 2 {
		t.Fatalf("expected 2 books after replace, got %d", len(books))
	}
	if books[0].ID != 10 || books[0].Title != "Ten" {
		t.Fatalf("explicit id not kept: %+v", books[0])
	}
	if books[1].ID <= 10 {
		t.Fatalf("fresh book should get an id after 10, got %d", books[1].ID)
	}
	if len(books[0].ReadDays) != 1 {
		t.Fatalf("read days not imported: %v", books[0].ReadDays)
	}
}

func TestReplaceBooksRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	addBook(t, s, Book{Title: "Keep me"})

	err := s.ReplaceBooks([]Book{
		{ID: 3, Title: "Dup A"},
		{ID: 3, Title: "Dup B"},
	})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}

	books, _ := s.ListBooks("")
	if len(books) != 1 || books[0].Title != "Keep me" {
		t.Fatalf("existing data should be untouched, got %+v", books)
	}
}

func TestCountBooks(t *testing.T) {
	s := newTestStore(t)
	n, _ := s.CountBooks()
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	addBook(t, s, Book{Title: "One"})
	n, _ = s.CountBooks()
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
}

// ============================================================
// Blobs
// ============================================================

func TestLoadBlobMissing(t *testing.T) {
	s := newTestStore(t)
	data, err := s.LoadBlob("nothing")
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Fatalf("expected nil for missing blob, got %q", data)
	}
}

func TestSaveAndLoadBlob(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveBlob("k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBlob("k", []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}
	data, err := s.LoadBlob("k")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":2}` {
		t.Fatalf("expected overwritten blob, got %s", data)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		SettingPomodoroWork:  "25",
		SettingPomodoroBreak: "5",
		SettingReminderTime:  "20:00",
		SettingTheme:         "light",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSetting(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting(SettingPomodoroWork, "50")
	val, _ := s.GetSetting(SettingPomodoroWork)
	if val != "50" {
		t.Fatalf("expected 50, got %s", val)
	}
}

func TestSeedSettingKeepsExisting(t *testing.T) {
	s := newTestStore(t)

	s.SeedSetting(SettingPomodoroWork, "40")
	if v := s.GetSettingOr(SettingPomodoroWork, ""); v != "25" {
		t.Fatalf("seed should not overwrite, got %s", v)
	}
	s.SeedSetting("fresh", "yes")
	if v := s.GetSettingOr("fresh", ""); v != "yes" {
		t.Fatalf("seed should set missing key, got %s", v)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v := s.GetSettingOr("nonexistent", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %s", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 4 {
		t.Fatalf("expected at least 4 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestCloseStore(t *testing.T) {
	s, _ := NewMemory()
	err := s.Close()
	if err != nil {
		t.Fatalf("first close: %v", err)
	}
}
