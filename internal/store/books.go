package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const bookColumns = `id, title, author, type, isbn, published_year, rating, current_page, notes, cover_image_url`

// AddBook inserts b under a fresh id and returns the stored record.
// Any ID set on b is ignored.
func (s *Store) AddBook(b Book) (*Book, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin add book: %w", err)
	}
	defer tx.Rollback()

	b.ID = 0
	id, err := insertBook(tx, b)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add book: %w", err)
	}
	return s.GetBook(id)
}

func (s *Store) GetBook(id int64) (*Book, error) {
	b := &Book{}
	err := s.db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ?`, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Type, &b.ISBN, &b.PublishedYear, &b.Rating, &b.CurrentPage, &b.Notes, &b.CoverImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}

	days, err := s.readDays(`WHERE book_id = ?`, id)
	if err != nil {
		return nil, err
	}
	b.ReadDays = days[id]
	if b.ReadDays == nil {
		b.ReadDays = []string{}
	}
	return b, nil
}

// ListBooks returns every book, or only books of type typ when it is
// non-empty. Results are ordered by id.
func (s *Store) ListBooks(typ string) ([]Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var args []any
	if typ != "" {
		query += ` WHERE type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Type, &b.ISBN, &b.PublishedYear, &b.Rating, &b.CurrentPage, &b.Notes, &b.CoverImageURL); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := s.readDays("")
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].ReadDays = days[books[i].ID]
		if books[i].ReadDays == nil {
			books[i].ReadDays = []string{}
		}
	}
	return books, nil
}

func (s *Store) readDays(where string, args ...any) (map[int64][]string, error) {
	rows, err := s.db.Query(`SELECT book_id, day FROM read_days `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("list read days: %w", err)
	}
	defer rows.Close()

	days := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var day string
		if err := rows.Scan(&id, &day); err != nil {
			return nil, err
		}
		days[id] = append(days[id], day)
	}
	return days, rows.Err()
}

func (s *Store) CountBooks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// PutBook replaces every field of the stored book with b, read days included.
func (s *Store) PutBook(b Book) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin put book: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE books SET title = ?, author = ?, type = ?, isbn = ?, published_year = ?, rating = ?,
		 current_page = ?, notes = ?, cover_image_url = ? WHERE id = ?`,
		b.Title, b.Author, b.Type, b.ISBN, b.PublishedYear, b.Rating, b.CurrentPage, b.Notes, b.CoverImageURL, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update book %d: %w", b.ID, ErrNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM read_days WHERE book_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear read days %d: %w", b.ID, err)
	}
	if err := insertReadDays(tx, b.ID, b.ReadDays); err != nil {
		return err
	}
	return tx.Commit()
}

// AddReadDay records day for the book. It reports false when the day was
// already recorded.
func (s *Store) AddReadDay(id int64, day string) (bool, error) {
	if _, err := s.GetBook(id); err != nil {
		return false, err
	}
	res, err := s.db.Exec(`INSERT OR IGNORE INTO read_days (book_id, day) VALUES (?, ?)`, id, day)
	if err != nil {
		return false, fmt.Errorf("add read day %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) DeleteBook(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete book: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM read_days WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("delete read days %d: %w", id, err)
	}
	res, err := tx.Exec(`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete book %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// ReplaceBooks clears the collection and inserts books in one transaction.
// Books with a positive ID keep it; the rest get fresh ids. On any failure
// the previous collection is left untouched.
func (s *Store) ReplaceBooks(books []Book) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace books: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM read_days`); err != nil {
		return fmt.Errorf("clear read days: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}
	for _, b := range books {
		if _, err := insertBook(tx, b); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace books: %w", err)
	}
	return nil
}

func insertBook(tx *sql.Tx, b Book) (int64, error) {
	cols := `title, author, type, isbn, published_year, rating, current_page, notes, cover_image_url`
	args := []any{b.Title, b.Author, b.Type, b.ISBN, b.PublishedYear, b.Rating, b.CurrentPage, b.Notes, b.CoverImageURL}
	if b.ID > 0 {
		cols = "id, " + cols
		args = append([]any{b.ID}, args...)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	res, err := tx.Exec(`INSERT INTO books (`+cols+`) VALUES (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := insertReadDays(tx, id, b.ReadDays); err != nil {
		return 0, err
	}
	return id, nil
}

func insertReadDays(tx *sql.Tx, id int64, days []string) error {
	for _, d := range days {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO read_days (book_id, day) VALUES (?, ?)`, id, d); err != nil {
			return fmt.Errorf("insert read day %d: %w", id, err)
		}
	}
	return nil
}
