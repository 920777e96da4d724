package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/store"
)

// WriteBooksCSV writes one row per book. Read-days are joined with ';'.
func WriteBooksCSV(out io.Writer, books []store.Book) error {
	w := csv.NewWriter(out)

	// Header
	if err := w.Write([]string{"ID", "Title", "Author", "Type", "ISBN", "Published Year", "Rating", "Current Page", "Read Days", "Days Read", "Notes", "Cover URL"}); err != nil {
		return err
	}

	for _, b := range books {
		row := []string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			b.Type,
			b.ISBN,
			strconv.Itoa(b.PublishedYear),
			strconv.FormatFloat(b.Rating, 'f', -1, 64),
			strconv.Itoa(b.CurrentPage),
			strings.Join(b.ReadDays, ";"),
			strconv.Itoa(len(b.ReadDays)),
			b.Notes,
			b.CoverImageURL,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func BooksToCSV(books []store.Book, path string) error {
	return toFile(path, func(f io.Writer) error { return WriteBooksCSV(f, books) })
}

// WriteExpensesCSV writes one row per expense with the amount in dollars.
func WriteExpensesCSV(out io.Writer, expenses []productivity.Expense) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"ID", "Date", "Category", "Description", "Amount"}); err != nil {
		return err
	}
	for _, e := range expenses {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date,
			string(e.Category),
			e.Description,
			formatAmount(e.Amount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ExpensesToCSV(expenses []productivity.Expense, path string) error {
	return toFile(path, func(f io.Writer) error { return WriteExpensesCSV(f, expenses) })
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func toFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	return nil
}
