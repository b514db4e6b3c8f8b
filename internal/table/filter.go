// Package table derives filter options from property rows, filters them and
// renders or exports the result.
package table

import "github.com/KaramelBytes/estatelens-cli/internal/model"

// FilterOptions lists the distinct values offered by the location and year
// selectors, in first-occurrence order.
type FilterOptions struct {
	Locations []string
	Years     []string
}

// DeriveFilterOptions scans rows once and collects distinct locations and
// years. Rows lacking a value contribute nothing to that list.
func DeriveFilterOptions(rows []model.PropertyRecord) FilterOptions {
	var opts FilterOptions
	seenLoc := make(map[string]struct{})
	seenYear := make(map[string]struct{})
	for _, r := range rows {
		if loc, ok := r.Location(); ok {
			if _, dup := seenLoc[loc]; !dup {
				seenLoc[loc] = struct{}{}
				opts.Locations = append(opts.Locations, loc)
			}
		}
		if y, ok := r.YearString(); ok {
			if _, dup := seenYear[y]; !dup {
				seenYear[y] = struct{}{}
				opts.Years = append(opts.Years, y)
			}
		}
	}
	return opts
}

// ApplyFilters returns the rows matching every set filter, keeping input
// order. The input slice is not modified.
func ApplyFilters(rows []model.PropertyRecord, f model.FilterState) []model.PropertyRecord {
	out := make([]model.PropertyRecord, 0, len(rows))
	for _, r := range rows {
		if Matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single row passes the filter.
func Matches(r model.PropertyRecord, f model.FilterState) bool {
	if f.Location != "" {
		loc, ok := r.Location()
		if !ok || loc != f.Location {
			return false
		}
	}
	if f.Year != "" {
		y, ok := r.YearString()
		if !ok || y != f.Year {
			return false
		}
	}
	return true
}
