package tui

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/export"
	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/store"
)

const (
	libFormAdd           = "add"
	libFormEdit          = "edit"
	libFormDelete        = "delete"
	libFormImportPath    = "import_path"
	libFormImportConfirm = "import_confirm"
)

type libraryModel struct {
	svc       *library.Service
	now       func() time.Time
	exportDir string
	width     int
	height    int

	filterIdx int
	sortIdx   int
	search    textinput.Model
	searching bool

	result library.Result
	cursor int
	detail bool

	formActive bool
	form       *huh.Form
	formType   string
	editingID  int64
	pending    []store.Book

	// Form field pointers (survive value copies)
	formTitle    *string
	formAuthor   *string
	formBookType *string
	formISBN     *string
	formYear     *string
	formRating   *string
	formPage     *string
	formNotes    *string
	formCover    *string
	formPath     *string
	formConfirm  *bool
}

func newLibraryModel(svc *library.Service, now func() time.Time, exportDir string) libraryModel {
	ti := textinput.New()
	ti.Placeholder = "title, author, isbn or notes"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	var (
		title, author, isbn, year, rating, page, notes, cover, path string
		confirm                                                     bool
	)
	typ := store.TypeOffline
	return libraryModel{
		svc:          svc,
		now:          now,
		exportDir:    exportDir,
		search:       ti,
		formTitle:    &title,
		formAuthor:   &author,
		formBookType: &typ,
		formISBN:     &isbn,
		formYear:     &year,
		formRating:   &rating,
		formPage:     &page,
		formNotes:    &notes,
		formCover:    &cover,
		formPath:     &path,
		formConfirm:  &confirm,
	}
}

func (l *libraryModel) setSize(w, h int) {
	l.width = w
	l.height = h
	l.search.Width = max(20, w-12)
}

// inputActive reports whether keystrokes belong to a form or the search box.
func (l libraryModel) inputActive() bool {
	return l.searching || (l.formActive && l.form != nil)
}

func (l libraryModel) params() library.Params {
	return library.Params{
		Filter:  library.Filters[l.filterIdx],
		Keyword: l.search.Value(),
		Sort:    library.SortKeys[l.sortIdx],
	}
}

type libraryDataMsg struct {
	result library.Result
	err    error
}

func (l libraryModel) refresh() tea.Cmd {
	p := l.params()
	return func() tea.Msg {
		res, err := l.svc.View(p)
		return libraryDataMsg{result: res, err: err}
	}
}

func (l libraryModel) selected() (store.Book, bool) {
	if l.cursor < 0 || l.cursor >= len(l.result.Books) {
		return store.Book{}, false
	}
	return l.result.Books[l.cursor], true
}

func (l libraryModel) update(msg tea.Msg) (libraryModel, tea.Cmd) {
	// Results can land while a form or the search box has focus.
	if msg, ok := msg.(libraryDataMsg); ok {
		if msg.err != nil {
			return l, errorCmd(msg.err)
		}
		l.result = msg.result
		if l.cursor >= len(l.result.Books) {
			l.cursor = max(0, len(l.result.Books)-1)
		}
		if len(l.result.Books) == 0 {
			l.detail = false
		}
		return l, nil
	}

	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}
	if l.searching {
		return l.updateSearch(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if l.detail {
			return l.updateDetail(msg)
		}
		return l.updateList(msg)
	}
	return l, nil
}

func (l libraryModel) updateSearch(msg tea.Msg) (libraryModel, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			l.search.SetValue("")
			l.search.Blur()
			l.searching = false
			l.cursor = 0
			return l, l.refresh()
		case "enter":
			l.search.Blur()
			l.searching = false
			return l, nil
		}
	}
	before := l.search.Value()
	var cmd tea.Cmd
	l.search, cmd = l.search.Update(msg)
	if l.search.Value() != before {
		l.cursor = 0
		return l, tea.Batch(cmd, l.refresh())
	}
	return l, cmd
}

func (l libraryModel) updateList(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < len(l.result.Books)-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if _, ok := l.selected(); ok {
			l.detail = true
		}
	case key.Matches(msg, keys.Search):
		l.searching = true
		return l, l.search.Focus()
	case key.Matches(msg, keys.Filter):
		l.filterIdx = (l.filterIdx + 1) % len(library.Filters)
		l.cursor = 0
		return l, l.refresh()
	case key.Matches(msg, keys.Sort):
		l.sortIdx = (l.sortIdx + 1) % len(library.SortKeys)
		l.cursor = 0
		return l, l.refresh()
	case key.Matches(msg, keys.New):
		return l.showBookForm(nil)
	case key.Matches(msg, keys.Import):
		return l.showImportPathForm()
	default:
		return l.updateSelected(msg)
	}
	return l, nil
}

func (l libraryModel) updateDetail(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Enter) {
		l.detail = false
		return l, nil
	}
	return l.updateSelected(msg)
}

// updateSelected handles the actions that target the book under the cursor.
func (l libraryModel) updateSelected(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	b, ok := l.selected()
	if !ok {
		return l, nil
	}
	switch {
	case key.Matches(msg, keys.Edit):
		return l.showBookForm(&b)
	case key.Matches(msg, keys.MarkRead):
		err := l.svc.MarkRead(b.ID, l.now())
		if errors.Is(err, library.ErrAlreadyMarked) {
			return l, statusCmd(fmt.Sprintf("%q is already marked as read today", b.Title))
		}
		if err != nil {
			return l, errorCmd(err)
		}
		return l, tea.Batch(
			statusCmd(fmt.Sprintf("Marked %q as read today", b.Title)),
			func() tea.Msg { return dataChangedMsg{} },
		)
	case key.Matches(msg, keys.Delete):
		return l.showConfirmForm(libFormDelete, fmt.Sprintf("Delete %q?", b.Title), b.ID)
	}
	return l, nil
}

func (l libraryModel) showBookForm(b *store.Book) (libraryModel, tea.Cmd) {
	f := library.Fields{Type: store.TypeOffline}
	l.formType = libFormAdd
	l.editingID = 0
	if b != nil {
		f = library.FieldsOf(*b)
		l.formType = libFormEdit
		l.editingID = b.ID
	}

	*l.formTitle = f.Title
	*l.formAuthor = f.Author
	*l.formBookType = f.Type
	*l.formISBN = f.ISBN
	*l.formYear = formatOptionalInt(f.PublishedYear)
	*l.formRating = formatOptionalFloat(f.Rating)
	*l.formPage = formatOptionalInt(f.CurrentPage)
	*l.formNotes = f.Notes
	*l.formCover = f.CoverImageURL

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(l.formTitle).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewInput().Title("Author").Value(l.formAuthor),
			huh.NewSelect[string]().Title("Type").Options(
				huh.NewOption("offline", store.TypeOffline),
				huh.NewOption("online", store.TypeOnline),
			).Value(l.formBookType),
			huh.NewInput().Title("ISBN").Value(l.formISBN),
		),
		huh.NewGroup(
			huh.NewInput().Title("Published year").Value(l.formYear).Validate(validateNonNegativeInt),
			huh.NewInput().Title("Rating (0-5)").Value(l.formRating).Validate(validateRating),
			huh.NewInput().Title("Current page").Value(l.formPage).Validate(validateNonNegativeInt),
			huh.NewText().Title("Notes").Value(l.formNotes),
			huh.NewInput().Title("Cover image URL").Value(l.formCover),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l libraryModel) showImportPathForm() (libraryModel, tea.Cmd) {
	*l.formPath = filepath.Join(l.exportDir, export.DefaultBooksFile)
	l.formType = libFormImportPath

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Import from JSON file").Value(l.formPath),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l libraryModel) showConfirmForm(formType, title string, id int64) (libraryModel, tea.Cmd) {
	*l.formConfirm = false
	l.formType = formType
	l.editingID = id

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(l.formConfirm),
		),
	).WithShowHelp(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l libraryModel) updateForm(msg tea.Msg) (libraryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			l.formActive = false
			l.form = nil
			l.pending = nil
			return l, nil
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.form = nil
		return l.submitForm()
	}
	return l, cmd
}

func (l libraryModel) submitForm() (libraryModel, tea.Cmd) {
	changed := func() tea.Msg { return dataChangedMsg{} }

	switch l.formType {
	case libFormAdd, libFormEdit:
		f, err := l.formFields()
		if err != nil {
			return l, errorCmd(err)
		}
		var b *store.Book
		if l.formType == libFormAdd {
			b, err = l.svc.Add(f)
		} else {
			b, err = l.svc.Edit(l.editingID, f)
		}
		if err != nil {
			return l, errorCmd(err)
		}
		return l, tea.Batch(statusCmd(fmt.Sprintf("Saved %q", b.Title)), changed)

	case libFormDelete:
		if !*l.formConfirm {
			return l, statusCmd("Delete cancelled")
		}
		deleted, err := l.svc.Delete(l.editingID, func(store.Book) bool { return true })
		if err != nil {
			return l, errorCmd(err)
		}
		if deleted {
			l.detail = false
		}
		return l, tea.Batch(statusCmd("Book deleted"), changed)

	case libFormImportPath:
		data, err := os.ReadFile(strings.TrimSpace(*l.formPath))
		if err != nil {
			return l, errorCmd(fmt.Errorf("read import file: %w", err))
		}
		books, err := library.ParseImport(data)
		if err != nil {
			return l, errorCmd(err)
		}
		current, err := l.svc.Count()
		if err != nil {
			return l, errorCmd(err)
		}
		l.pending = books
		return l.showConfirmForm(libFormImportConfirm,
			fmt.Sprintf("Replace %d books with %d imported books?", current, len(books)), 0)

	case libFormImportConfirm:
		books := l.pending
		l.pending = nil
		if !*l.formConfirm {
			return l, statusCmd("Import cancelled")
		}
		if _, err := l.svc.Import(books, func(int, int) bool { return true }); err != nil {
			return l, errorCmd(err)
		}
		l.cursor = 0
		return l, tea.Batch(statusCmd(fmt.Sprintf("Imported %d books", len(books))), changed)
	}
	return l, nil
}

// formFields converts the form strings into library fields. Validation of
// ranges is left to the service.
func (l libraryModel) formFields() (library.Fields, error) {
	year, err := parseOptionalInt(*l.formYear)
	if err != nil {
		return library.Fields{}, fmt.Errorf("%w: published year: %v", library.ErrValidation, err)
	}
	page, err := parseOptionalInt(*l.formPage)
	if err != nil {
		return library.Fields{}, fmt.Errorf("%w: current page: %v", library.ErrValidation, err)
	}
	rating, err := parseOptionalFloat(*l.formRating)
	if err != nil {
		return library.Fields{}, fmt.Errorf("%w: rating: %v", library.ErrValidation, err)
	}
	return library.Fields{
		Title:         *l.formTitle,
		Author:        *l.formAuthor,
		Type:          *l.formBookType,
		ISBN:          *l.formISBN,
		PublishedYear: year,
		Rating:        rating,
		CurrentPage:   page,
		Notes:         *l.formNotes,
		CoverImageURL: *l.formCover,
	}, nil
}

func parseOptionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatOptionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatOptionalFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validateNonNegativeInt(s string) error {
	n, err := parseOptionalInt(s)
	if err != nil || n < 0 {
		return errors.New("enter a whole number of 0 or more")
	}
	return nil
}

func validateRating(s string) error {
	v, err := parseOptionalFloat(s)
	if err != nil || math.IsNaN(v) || v < 0 || v > 5 {
		return errors.New("enter a rating between 0 and 5")
	}
	return nil
}

func (l libraryModel) view() string {
	w := l.width - 4

	if l.formActive && l.form != nil {
		var title string
		switch l.formType {
		case libFormAdd:
			title = "Add Book"
		case libFormEdit:
			title = "Edit Book"
		case libFormDelete:
			title = "Delete Book"
		default:
			title = "Import Library"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", l.form.View()),
		)
	}

	if l.detail {
		if b, ok := l.selected(); ok {
			return l.renderDetail(b, w)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		l.renderList(w),
		l.renderStats(w),
	)
}

func (l libraryModel) renderList(w int) string {
	p := l.params()
	header := fmt.Sprintf("%s   %s  %s",
		titleStyle.Render("Library"),
		mutedStyle.Render("filter: ")+accentStyle.Render(string(p.Filter)),
		mutedStyle.Render("sort: ")+accentStyle.Render(string(p.Sort)),
	)

	rows := []string{header}
	if l.searching || l.search.Value() != "" {
		rows = append(rows, l.search.View())
	}
	rows = append(rows, "")

	if len(l.result.Books) == 0 {
		msg := "No books yet. Press n to add one or i to import."
		if p.Filter != library.FilterAll || strings.TrimSpace(p.Keyword) != "" {
			msg = "No books match."
		}
		rows = append(rows, mutedStyle.Render(msg))
	} else {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-4s %-30s %-20s %-8s %6s %5s", "ID", "Title", "Author", "Type", "Rating", "Days")))

		// Keep the cursor inside a window that fits the panel.
		visible := len(l.result.Books)
		if l.height > 0 {
			visible = min(visible, max(3, l.height-22))
		}
		start := 0
		if l.cursor >= visible {
			start = l.cursor - visible + 1
		}
		for i := start; i < start+visible && i < len(l.result.Books); i++ {
			b := l.result.Books[i]
			cursor := "  "
			style := normalItemStyle
			if i == l.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rating := "-"
			if b.Rating > 0 {
				rating = fmt.Sprintf("%.1f★", b.Rating)
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%-4d %-30s %-20s %-8s %6s %5d",
				cursor, b.ID, truncate(b.Title, 30), truncate(b.Author, 20), b.Type, rating, len(b.ReadDays))))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  /: search  f: filter  o: sort  n: add  e: edit  r: read  d: delete  i: import  enter: details"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (l libraryModel) renderStats(w int) string {
	s := l.result.Stats
	avg := "-"
	if s.RatedCount > 0 {
		avg = fmt.Sprintf("%.2f", s.AvgRating)
	}
	line := fmt.Sprintf("%s books  %s online  %s offline  avg rating %s  %s reading days",
		highlightStyle.Render(fmt.Sprint(s.Total)),
		highlightStyle.Render(fmt.Sprint(s.Online)),
		highlightStyle.Render(fmt.Sprint(s.Offline)),
		highlightStyle.Render(avg),
		highlightStyle.Render(fmt.Sprint(s.TotalReadDays)),
	)

	rows := []string{titleStyle.Render("Statistics"), line, ""}
	rows = append(rows, renderHistogram(s.Histogram, w-4, 8))
	if peak := histogramPeak(s.Histogram); peak != "" {
		rows = append(rows, mutedStyle.Render("  "+peak))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (l libraryModel) renderDetail(b store.Book, w int) string {
	field := func(name, value string) string {
		if value == "" {
			value = mutedStyle.Render("-")
		}
		return fmt.Sprintf("  %-15s %s", mutedStyle.Render(name), value)
	}

	rating := ""
	if b.Rating > 0 {
		rating = fmt.Sprintf("%.1f / 5", b.Rating)
	}
	days := strings.Join(b.ReadDays, ", ")
	if len(b.ReadDays) > 0 {
		days = fmt.Sprintf("%d: %s", len(b.ReadDays), days)
	}

	rows := []string{
		titleStyle.Render(b.Title),
		subtitleStyle.Render(b.Author),
		"",
		field("ID", fmt.Sprint(b.ID)),
		field("Type", b.Type),
		field("ISBN", b.ISBN),
		field("Published", formatOptionalInt(b.PublishedYear)),
		field("Rating", rating),
		field("Current page", formatOptionalInt(b.CurrentPage)),
		field("Cover", b.CoverImageURL),
		field("Read days", days),
		"",
		subtitleStyle.Render("Notes"),
	}
	if b.Notes == "" {
		rows = append(rows, mutedStyle.Render("  none"))
	} else {
		rows = append(rows, "  "+b.Notes)
	}
	rows = append(rows, "", mutedStyle.Render("  e: edit  r: read today  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
