package model

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

// SortSpec selects the ordering of a presented collection.
type SortSpec struct {
	Field      Field
	Descending bool
}

// DefaultSort orders by file name ascending.
var DefaultSort = SortSpec{Field: FieldFilename}

// ParseSortSpec builds a spec from a field label and a direction
// ("ascending"/"descending", empty means ascending).
func ParseSortSpec(label, direction string) (SortSpec, error) {
	spec := DefaultSort
	if strings.TrimSpace(label) != "" {
		f, err := ParseField(label)
		if err != nil {
			return SortSpec{}, err
		}
		spec.Field = f
	}
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc", "ascending":
	case "desc", "descending":
		spec.Descending = true
	default:
		return SortSpec{}, fmt.Errorf("unknown sort direction %q", direction)
	}
	return spec, nil
}

type sortKey struct {
	unknown bool
	num     int64
	text    string
	tie     string
}

func (s SortSpec) key(r RomRecord) sortKey {
	k := sortKey{tie: strings.ToLower(r.FileName)}
	switch s.Field {
	case FieldSize:
		k.num = r.SizeBytes
		return k
	case FieldReleaseDate:
		if r.Info == nil || r.Info.SortDate == "" {
			k.unknown = true
			return k
		}
		k.text = r.Info.SortDate
		return k
	}
	v := s.Field.Value(r)
	if IsPlaceholder(v) {
		k.unknown = true
		return k
	}
	k.text = foldText(v)
	return k
}

// SortRecords orders records in place. Unresolved values are placed after
// every known value whatever the direction; ties fall back to the file name.
func SortRecords(records []RomRecord, spec SortSpec) {
	keys := make([]sortKey, len(records))
	for i := range records {
		keys[i] = spec.key(records[i])
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return spec.less(keys[idx[a]], keys[idx[b]])
	})
	sorted := make([]RomRecord, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

func (s SortSpec) less(a, b sortKey) bool {
	if a.unknown != b.unknown {
		return !a.unknown
	}
	if !a.unknown {
		c := compareKey(s.Field, a, b)
		if c != 0 {
			if s.Descending {
				return c > 0
			}
			return c < 0
		}
	}
	return a.tie < b.tie
}

func compareKey(f Field, a, b sortKey) int {
	if f == FieldSize {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text, b.text)
}

// foldText lowercases v and spells Han characters out in pinyin so mixed
// titles order alphabetically.
func foldText(v string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(v) {
		if unicode.Is(unicode.Han, r) {
			if py := pinyin.LazyConvert(string(r), nil); len(py) > 0 {
				sb.WriteString(strings.Join(py, ""))
				continue
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
