package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/export"
	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/store"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E8449"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
)

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the book library",
	}
	cmd.AddCommand(c.booksListCmd())
	cmd.AddCommand(c.booksAddCmd())
	cmd.AddCommand(c.booksReadCmd())
	cmd.AddCommand(c.booksDeleteCmd())
	cmd.AddCommand(c.booksImportCmd())
	cmd.AddCommand(c.booksExportCmd())
	return cmd
}

func (c *cli) booksListCmd() *cobra.Command {
	var filter, search, sortKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books with filter, search and sort",
		Long: `List the books matching the filter and search, sorted by the sort key,
followed by statistics over the listed books.

Filters: all, online, offline, has-read-days, no-read-days, has-rating, has-cover
Sort keys: id, title, author, publishedYear, rating, currentPage, readDaysCount`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.library.View(library.Params{
				Filter:  library.Filter(filter),
				Keyword: search,
				Sort:    library.SortKey(sortKey),
			})
			if err != nil {
				return err
			}
			printBooks(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(library.FilterAll), "type filter")
	cmd.Flags().StringVarP(&search, "search", "s", "", "keyword over title, author, isbn and notes")
	cmd.Flags().StringVarP(&sortKey, "sort", "o", string(library.SortID), "sort key")
	return cmd
}

func printBooks(cmd *cobra.Command, res library.Result) {
	out := cmd.OutOrStdout()
	if len(res.Books) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No books found."))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "Author", "Type", "Year", "Rating", "Page", "Days")
	for _, b := range res.Books {
		t.Row(
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			b.Type,
			optionalInt(b.PublishedYear),
			optionalRating(b.Rating),
			optionalInt(b.CurrentPage),
			strconv.Itoa(len(b.ReadDays)),
		)
	}
	fmt.Fprintln(out, t.String())

	s := res.Stats
	avg := "-"
	if s.RatedCount > 0 {
		avg = fmt.Sprintf("%.2f", s.AvgRating)
	}
	fmt.Fprintf(out, "%d books (%d online, %d offline), average rating %s, %d reading days\n",
		s.Total, s.Online, s.Offline, avg, s.TotalReadDays)
	for _, d := range s.Histogram {
		fmt.Fprintf(out, "  %s %s %d\n", d.Day, strings.Repeat("█", d.Count), d.Count)
	}
}

func optionalInt(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func optionalRating(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *cli) booksAddCmd() *cobra.Command {
	var f library.Fields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.library.Add(f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Added %q as book %d", b.Title, b.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&f.Author, "author", "", "author")
	cmd.Flags().StringVar(&f.Type, "type", store.TypeOffline, "online or offline")
	cmd.Flags().StringVar(&f.ISBN, "isbn", "", "ISBN")
	cmd.Flags().IntVar(&f.PublishedYear, "year", 0, "year published")
	cmd.Flags().Float64Var(&f.Rating, "rating", 0, "rating from 0 to 5")
	cmd.Flags().IntVar(&f.CurrentPage, "page", 0, "current page")
	cmd.Flags().StringVar(&f.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&f.CoverImageURL, "cover", "", "cover image URL")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func parseBookID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", arg)
	}
	return id, nil
}

func (c *cli) booksReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a book as read today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			err = c.library.MarkRead(id, c.now())
			if errors.Is(err, library.ErrAlreadyMarked) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Already marked as read today."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Marked as read today"))
			return nil
		},
	}
}

// confirm asks a yes/no question unless skip is set.
func confirm(skip bool, title string) (bool, error) {
	if skip {
		return true, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

func (c *cli) booksDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}

			var confirmErr error
			deleted, err := c.library.Delete(id, func(b store.Book) bool {
				ok, err := confirm(yes, fmt.Sprintf("Delete %q by %s?", b.Title, b.Author))
				confirmErr = err
				return ok
			})
			if err != nil {
				return err
			}
			if confirmErr != nil {
				return confirmErr
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation canceled.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Book %d deleted", id)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func (c *cli) booksImportCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the library with books from a JSON export",
		Long: `Import reads a JSON array of books, as written by "books export".
Fields are coerced to their expected types and every imported book
replaces the current collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			books, err := library.ParseImport(data)
			if err != nil {
				return err
			}

			var confirmErr error
			imported, err := c.library.Import(books, func(current, incoming int) bool {
				ok, err := confirm(yes, fmt.Sprintf("Replace %d books with %d imported books?", current, incoming))
				confirmErr = err
				return ok
			})
			if err != nil {
				return err
			}
			if confirmErr != nil {
				return confirmErr
			}
			if !imported {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation canceled.")
				return nil
			}
			c.logger.Info("books imported", zap.String("file", args[0]), zap.Int("count", len(books)))
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Imported %d books", len(books))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func (c *cli) booksExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the library as JSON or CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q (want json or csv)", format)
			}

			path := filepath.Join(c.cfg.ExportDir, export.DefaultBooksFile)
			if format == "csv" {
				path = strings.TrimSuffix(path, ".json") + ".csv"
			}
			if len(args) == 1 {
				path = args[0]
			}

			books, err := c.library.Export()
			if err != nil {
				return err
			}
			if format == "csv" {
				err = export.BooksToCSV(books, path)
			} else {
				err = export.BooksToJSON(books, path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Exported %d books to %s", len(books), path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or csv")
	return cmd
}
