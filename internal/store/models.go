package store

type Setting struct {
	Key   string
	Value string
}

// Book is one record of the library collection. ReadDays holds distinct
// YYYY-MM-DD dates in the order they were added.
type Book struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Type          string   `json:"type"`
	ISBN          string   `json:"isbn"`
	PublishedYear int      `json:"publishedYear"`
	Rating        float64  `json:"rating"`
	CurrentPage   int      `json:"currentPage"`
	Notes         string   `json:"notes"`
	CoverImageURL string   `json:"coverImageUrl"`
	ReadDays      []string `json:"readDays"`
}

// Book types.
const (
	TypeOnline  = "online"
	TypeOffline = "offline"
)
