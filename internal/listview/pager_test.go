package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbers(p Pager) []int {
	out := make([]int, 0, len(p.Links))
	for _, l := range p.Links {
		if l.Gap {
			out = append(out, 0)
			continue
		}
		out = append(out, l.Number)
	}
	return out
}

func TestPagerShowsAllPagesWhenFew(t *testing.T) {
	p := NewPager(2, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, numbers(p))
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.True(t, p.Links[1].Active)
}

func TestPagerCompactsWithGaps(t *testing.T) {
	assert.Equal(t, []int{1, 0, 4, 5, 6, 0, 10}, numbers(NewPager(5, 10)))
	assert.Equal(t, []int{1, 2, 0, 10}, numbers(NewPager(1, 10)))
	assert.Equal(t, []int{1, 0, 9, 10}, numbers(NewPager(10, 10)))
	assert.Equal(t, []int{1, 2, 3, 4, 0, 10}, numbers(NewPager(3, 10)))
}

func TestPagerSinglePage(t *testing.T) {
	p := NewPager(1, 1)
	assert.Equal(t, []int{1}, numbers(p))
	assert.False(t, p.HasPrev)
	assert.False(t, p.HasNext)

	clamped := NewPager(7, 0)
	assert.Equal(t, []int{1}, numbers(clamped))
}
