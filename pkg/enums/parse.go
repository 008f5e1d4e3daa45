package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](kind, value string, members []T) (T, error) {
	if v := T(value); slices.Contains(members, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
