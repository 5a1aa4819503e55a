package listview

import "github.com/noah-isme/account-console/internal/models"

// Apply recomputes the listing for st and writes a clamped page back so the
// persisted page indicator matches the slice that is shown.
func Apply(st *models.ListState, records []models.User, defaultPageSize int) Result {
	if st.PageSize <= 0 {
		st.PageSize = defaultPageSize
	}
	res := Recompute(records, st.Filter, st.Page, st.PageSize)
	if res.Corrected {
		st.Page = res.Page
	}
	return res
}
