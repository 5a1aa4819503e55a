// Package listview filters and paginates an already-fetched user listing.
//
// Recompute is a pure function of its inputs. Callers own the persisted
// models.ListState and are expected to reset the page to one whenever a filter
// changes; Recompute itself only clamps an out-of-range page and reports the
// correction.
package listview

import (
	"strings"

	"github.com/noah-isme/account-console/internal/models"
)

// Result is the outcome of one filter and paginate pass.
type Result struct {
	// Filtered holds every record matching the filters, in source order.
	Filtered []models.User
	// Visible is the page slice of Filtered.
	Visible []models.User
	// Page is the effective 1-based page after clamping.
	Page       int
	TotalPages int
	PageSize   int
	// Corrected is true when Page differs from the requested page.
	Corrected bool
	// From and To are the 1-based positions of the visible slice inside
	// Filtered, both zero when nothing matched.
	From int
	To   int
}

// Total is the number of records matching the filters.
func (r Result) Total() int {
	return len(r.Filtered)
}

// Pagination converts the result into response metadata.
func (r Result) Pagination() *models.Pagination {
	return &models.Pagination{
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalCount: len(r.Filtered),
		TotalPages: r.TotalPages,
	}
}

// Recompute applies filter and then slices out page of size pageSize.
// It panics when pageSize is not positive.
func Recompute(records []models.User, filter models.UserFilter, page, pageSize int) Result {
	if pageSize <= 0 {
		panic("listview: page size must be positive")
	}

	filtered := Filter(records, filter)

	totalPages := (len(filtered) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	effective := page
	if effective < 1 {
		effective = 1
	}
	if effective > totalPages {
		effective = totalPages
	}

	start := (effective - 1) * pageSize
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	res := Result{
		Filtered:   filtered,
		Visible:    filtered[start:end],
		Page:       effective,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Corrected:  effective != page,
	}
	if end > start {
		res.From = start + 1
		res.To = end
	}
	return res
}

// Filter returns the records matching every active predicate. The input slice
// is never modified; with no active predicate a copy of records is returned.
func Filter(records []models.User, filter models.UserFilter) []models.User {
	query := strings.ToLower(strings.TrimSpace(filter.NameQuery))

	var levels map[string]struct{}
	if len(filter.Levels) > 0 {
		levels = make(map[string]struct{}, len(filter.Levels))
		for _, l := range filter.Levels {
			levels[l] = struct{}{}
		}
	}

	out := make([]models.User, 0, len(records))
	for _, u := range records {
		if query != "" && !matchesQuery(u, query) {
			continue
		}
		if levels != nil {
			if !u.HasLevel() {
				continue
			}
			if _, ok := levels[u.LevelID]; !ok {
				continue
			}
		}
		switch filter.Status {
		case models.StatusActive:
			if u.Deactivated {
				continue
			}
		case models.StatusInactive:
			if !u.Deactivated {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func matchesQuery(u models.User, query string) bool {
	return strings.Contains(strings.ToLower(u.DisplayName), query) ||
		strings.Contains(strings.ToLower(u.Email), query)
}
