package radiator

import (
	"math"
	"strings"
)

// UngroupedKey is the group of entries whose name has no delimiter.
const UngroupedKey = "No Project"

var prefixDelimiters = []string{"_", "-", ":"}

// KeyFunc picks the group an entry belongs to.
type KeyFunc func(ViewEntry) string

type projectNamer interface {
	ProjectName() string
}

// PrefixKey uses the entry's assigned project name when it has one, otherwise
// the part of its name before the first "_", "-" or ":" (tried in that order).
func PrefixKey(e ViewEntry) string {
	if pn, ok := e.(projectNamer); ok {
		if name := strings.TrimSpace(pn.ProjectName()); name != "" {
			return name
		}
	}
	return NamePrefix(e.Name())
}

func NamePrefix(name string) string {
	for _, d := range prefixDelimiters {
		if before, _, ok := strings.Cut(name, d); ok {
			return before
		}
	}
	return UngroupedKey
}

// GroupBy collects entries into one group per key under a new root named
// root. Groups are created in the order their key is first seen.
func GroupBy(root string, entries []ViewEntry, key KeyFunc) (*Group, error) {
	if key == nil {
		key = PrefixKey
	}
	out := NewGroup(root)
	byKey := map[string]*Group{}
	for _, e := range entries {
		if isNilEntry(e) {
			return nil, ErrNilEntry
		}
		k := key(e)
		g, ok := byKey[k]
		if !ok {
			g = NewGroup(k)
			byKey[k] = g
			if err := out.Add(g); err != nil {
				return nil, err
			}
		}
		if err := g.Add(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GroupByPrefix regroups the children of a flat group by PrefixKey.
func GroupByPrefix(flat *Group) (*Group, error) {
	return GroupBy(flat.Name(), flat.Children(), PrefixKey)
}

// RowWidth is the number of tiles per row. Failing tiles are kept large while
// there are few of them.
func RowWidth(count int, failing bool) int {
	width := 1
	if failing {
		if count > 3 {
			width = 2
		}
		if count > 9 {
			width = 3
		}
		if count > 15 {
			width = 4
		}
		return width
	}
	width = int(math.Floor(math.Sqrt(float64(count)) / 1.5))
	if width < 1 {
		width = 1
	}
	return width
}

// LayoutRows splits entries into rows of RowWidth tiles.
func LayoutRows(entries []ViewEntry, failing bool) [][]ViewEntry {
	if len(entries) == 0 {
		return nil
	}
	width := RowWidth(len(entries), failing)
	rows := make([][]ViewEntry, 0, (len(entries)+width-1)/width)
	for start := 0; start < len(entries); start += width {
		end := min(start+width, len(entries))
		rows = append(rows, append([]ViewEntry(nil), entries[start:end]...))
	}
	return rows
}
