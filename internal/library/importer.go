package library

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sadopc/litera/internal/store"
)

// ParseImport decodes an exported collection. The top level must be a JSON
// array. Elements that are not objects are skipped and every field of the
// rest is coerced to its expected type, falling back to a zero value. An
// id that does not parse as a positive integer is dropped so the book gets
// a fresh one.
func ParseImport(data []byte) ([]store.Book, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedImport)
	}

	books := make([]store.Book, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		books = append(books, coerceBook(obj))
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: no valid books found", ErrMalformedImport)
	}
	return books, nil
}

func coerceBook(obj map[string]any) store.Book {
	b := store.Book{
		Title:         coerceString(obj["title"]),
		Author:        coerceString(obj["author"]),
		Type:          coerceString(obj["type"]),
		ISBN:          coerceString(obj["isbn"]),
		PublishedYear: int(coerceInt(obj["publishedYear"])),
		Rating:        coerceFloat(obj["rating"]),
		CurrentPage:   int(coerceInt(obj["currentPage"])),
		Notes:         coerceString(obj["notes"]),
		CoverImageURL: coerceString(obj["coverImageUrl"]),
		ReadDays:      coerceDays(obj["readDays"]),
	}
	if b.Type != store.TypeOnline {
		b.Type = store.TypeOffline
	}
	if v, ok := obj["id"]; ok {
		if id := coerceInt(v); id > 0 {
			b.ID = id
		}
	}
	return b
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
	}
	return ""
}

// coerceInt parses the leading integer of v. Numbers are truncated toward
// zero.
func coerceInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int64(x)
	case string:
		s := strings.TrimSpace(x)
		end := 0
		if end < len(s) && (s[end] == '-' || s[end] == '+') {
			end++
		}
		digits := end
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == digits {
			return 0
		}
		n, err := strconv.ParseInt(s[:end], 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// coerceFloat parses the longest leading decimal number of v.
func coerceFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		s := strings.TrimSpace(x)
		for end := len(s); end > 0; end-- {
			if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return 0
				}
				return f
			}
		}
	}
	return 0
}

// coerceDays keeps the string entries of an array, dropping repeats.
func coerceDays(v any) []string {
	days := []string{}
	arr, ok := v.([]any)
	if !ok {
		return days
	}
	seen := make(map[string]bool, len(arr))
	for _, d := range arr {
		s, ok := d.(string)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		days = append(days, s)
	}
	return days
}
