package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/litera/internal/store"
)

// DefaultBooksFile is the file name used when no export path is given.
const DefaultBooksFile = "my_library.json"

// WriteBooksJSON writes books as a pretty-printed JSON array, the same
// format the importer reads back.
func WriteBooksJSON(w io.Writer, books []store.Book) error {
	if books == nil {
		books = []store.Book{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func BooksToJSON(books []store.Book, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	if err := WriteBooksJSON(f, books); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
