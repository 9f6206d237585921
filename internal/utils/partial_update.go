package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyUpdate  = errors.New("no data to update")
	ErrUnknownField = errors.New("field not allowed in update")
)

// UnknownFieldError names the first field that is not in the allow-list.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("invalid column: %s", e.Field)
}

func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

// PartialUpdate is a SET fragment with positional placeholders.
// Columns[i] is bound to $i+1 and Args[i].
type PartialUpdate struct {
	Columns   []string
	SetClause string
	Args      []any
}

// NextPlaceholder is the index the caller uses for its own WHERE parameter.
func (p PartialUpdate) NextPlaceholder() int {
	return len(p.Args) + 1
}

// BuildPartialUpdate turns updates into "col=$1, col=$2" against allowList
// (field -> column). Keys are visited in sorted order so the output is stable.
func BuildPartialUpdate(updates map[string]any, allowList map[string]string) (PartialUpdate, error) {
	if len(updates) == 0 {
		return PartialUpdate{}, ErrEmptyUpdate
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := PartialUpdate{
		Columns: make([]string, 0, len(fields)),
		Args:    make([]any, 0, len(fields)),
	}
	sets := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		col, ok := allowList[field]
		if !ok || col == "" {
			return PartialUpdate{}, &UnknownFieldError{Field: field}
		}

		// two fields aliasing one column would bind it twice
		if _, dup := seen[col]; dup {
			return PartialUpdate{}, &UnknownFieldError{Field: field}
		}
		seen[col] = struct{}{}

		out.Columns = append(out.Columns, col)
		out.Args = append(out.Args, updates[field])
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(out.Args)))
	}

	out.SetClause = strings.Join(sets, ", ")

	return out, nil
}
