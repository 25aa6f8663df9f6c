package manifest

import (
	"fmt"
	"strings"

	"evmc/internal/diag"
	"evmc/internal/engine/collection"

	"github.com/google/uuid"
)

type located interface {
	comparable
	Loc() diag.Location
}

type symbolic interface {
	symbol() string
}

// unique attaches one uniqueness key. The previous definition's location is
// appended to the message when known.
func unique[T located, K comparable](
	c *collection.Collection[T],
	sink collection.Reporter,
	key func(T) K,
	skip func(T) bool,
	message string,
	args func(T) []any,
) {
	collection.Unique(c, collection.Constraint[T, K]{
		Key:     key,
		Skip:    skip,
		Message: message + "%s",
		Args: func(item, existing T) []any {
			return append(args(item), previously(existing.Loc()))
		},
		Location: func(item T) diag.Location { return item.Loc() },
		Sink:     sink,
	})
}

func previously(loc diag.Location) string {
	if loc.IsZero() {
		return ""
	}
	return fmt.Sprintf(" Previously defined at %s.", loc)
}

func noSymbol[T symbolic](item T) bool {
	return item.symbol() == ""
}

// FormatGUID renders a GUID in registry form: {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}.
func FormatGUID(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}

// ParseGUID accepts the registry form with or without braces.
func ParseGUID(s string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid guid %q: %w", s, err)
	}
	return id, nil
}
