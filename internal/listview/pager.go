package listview

// compactThreshold is the page count up to which every page link is shown.
const compactThreshold = 5

// PageLink is one entry of the pagination bar. Gap entries render as an
// ellipsis and carry no page number.
type PageLink struct {
	Number int
	Active bool
	Gap    bool
}

// Pager describes the navigation controls for a result.
type Pager struct {
	Links   []PageLink
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
}

// NewPager builds the navigation for current out of total pages. Above
// compactThreshold pages only the first, the last and the neighbours of the
// current page are listed, separated by gaps.
func NewPager(current, total int) Pager {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	p := Pager{
		HasPrev: current > 1,
		HasNext: current < total,
		Prev:    current - 1,
		Next:    current + 1,
	}

	prev := 0
	for n := 1; n <= total; n++ {
		if total > compactThreshold && n != 1 && n != total && (n < current-1 || n > current+1) {
			continue
		}
		if prev != 0 && n-prev > 1 {
			p.Links = append(p.Links, PageLink{Gap: true})
		}
		p.Links = append(p.Links, PageLink{Number: n, Active: n == current})
		prev = n
	}
	return p
}
