// Package query defines typed location filters evaluated against engine
// listings. Filters are plain data so they can travel over the protocol;
// Validate rejects unknown enum values before anything is evaluated.
package query

import "fmt"

// Status filters by current accessibility.
type Status string

const (
	StatusAll          Status = "all"
	StatusAccessible   Status = "accessible"
	StatusInaccessible Status = "inaccessible"
)

// Checked filters by checked state.
type Checked string

const (
	CheckedAny  Checked = "any"
	CheckedOnly Checked = "checked"
	CheckedNot  Checked = "unchecked"
)

// Filter selects locations from a listing. The zero value selects
// everything.
type Filter struct {
	// Regions restricts to locations owned by these regions; empty means
	// all regions.
	Regions []string `json:"regions,omitempty"`
	// Status restricts by accessibility; empty means StatusAll.
	Status Status `json:"status,omitempty"`
	// Checked restricts by checked state; empty means CheckedAny.
	Checked Checked `json:"checked,omitempty"`
	// Limit caps the result count; 0 means no cap.
	Limit int `json:"limit,omitempty"`
}

// Location is one row of a listing.
type Location struct {
	Name       string `json:"name"`
	Region     string `json:"region"`
	Accessible bool   `json:"accessible"`
	Checked    bool   `json:"checked"`
	// Item names the location's payload, "" when it has none.
	Item string `json:"item,omitempty"`
}

// Validate rejects filters with unknown enum values or a negative limit.
func (f Filter) Validate() error {
	switch f.Status {
	case "", StatusAll, StatusAccessible, StatusInaccessible:
	default:
		return fmt.Errorf("unknown status filter %q", f.Status)
	}
	switch f.Checked {
	case "", CheckedAny, CheckedOnly, CheckedNot:
	default:
		return fmt.Errorf("unknown checked filter %q", f.Checked)
	}
	if f.Limit < 0 {
		return fmt.Errorf("negative limit %d", f.Limit)
	}
	return nil
}

// Apply filters rows, preserving input order, and truncates to Limit.
func Apply(f Filter, rows []Location) ([]Location, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var regions map[string]struct{}
	if len(f.Regions) > 0 {
		regions = make(map[string]struct{}, len(f.Regions))
		for _, r := range f.Regions {
			regions[r] = struct{}{}
		}
	}

	out := make([]Location, 0, len(rows))
	for _, row := range rows {
		if regions != nil {
			if _, ok := regions[row.Region]; !ok {
				continue
			}
		}
		switch f.Status {
		case StatusAccessible:
			if !row.Accessible {
				continue
			}
		case StatusInaccessible:
			if row.Accessible {
				continue
			}
		}
		switch f.Checked {
		case CheckedOnly:
			if !row.Checked {
				continue
			}
		case CheckedNot:
			if row.Checked {
				continue
			}
		}
		out = append(out, row)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}
