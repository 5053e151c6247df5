package taskquery

import "strings"

// IsValid reports whether f names a known field.
func (f SortField) IsValid() bool {
	switch f {
	case SortByTitle, SortByDueDate, SortByCreatedAt, SortByUpdatedAt, SortByCompleted:
		return true
	default:
		return false
	}
}

func (d SortDirection) IsValid() bool {
	return d == Ascending || d == Descending
}

// ParseSortField accepts wire names case-insensitively ("due_date", "DUE_DATE",
// "dueDate"). Unknown or empty values fall back to CREATED_AT.
func ParseSortField(s string) SortField {
	norm := strings.ToUpper(strings.TrimSpace(s))
	switch norm {
	case "DUEDATE":
		return SortByDueDate
	case "CREATEDAT":
		return SortByCreatedAt
	case "UPDATEDAT":
		return SortByUpdatedAt
	}
	if f := SortField(norm); f.IsValid() {
		return f
	}
	return DefaultSort().Field
}

// ParseSortDirection accepts asc/desc in any case; anything else yields DESC.
func ParseSortDirection(s string) SortDirection {
	if d := SortDirection(strings.ToUpper(strings.TrimSpace(s))); d.IsValid() {
		return d
	}
	return DefaultSort().Direction
}

// ParseSort combines ParseSortField and ParseSortDirection.
func ParseSort(field, direction string) Sort {
	return Sort{Field: ParseSortField(field), Direction: ParseSortDirection(direction)}
}
