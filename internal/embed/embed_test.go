package embed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateSplitsItems(t *testing.T) {
	items := make([]Field, 23)
	for i := range items {
		items[i] = Field{Name: fmt.Sprintf("item %d", i+1), Value: "x"}
	}

	pages := Paginate(items, 3)

	require.Len(t, pages, 8)
	for i := 0; i < 7; i++ {
		assert.Len(t, pages[i].Fields, 3, "page %d", i)
	}
	assert.Len(t, pages[7].Fields, 2)
	assert.Equal(t, "item 23", pages[7].Fields[1].Name)
}

func TestPaginateEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		perPage   int
		wantPages int
		wantLast  int
	}{
		{name: "exact multiple", items: 9, perPage: 3, wantPages: 3, wantLast: 3},
		{name: "single item", items: 1, perPage: 5, wantPages: 1, wantLast: 1},
		{name: "per page below one clamps", items: 3, perPage: 0, wantPages: 3, wantLast: 1},
		{name: "no items no pages", items: 0, perPage: 3, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]Field, tt.items)
			pages := Paginate(items, tt.perPage)
			require.Len(t, pages, tt.wantPages)
			if tt.wantPages > 0 {
				assert.Len(t, pages[len(pages)-1].Fields, tt.wantLast)
			}
		})
	}
}

func TestSetAllAppliesOnlyToUnsetPages(t *testing.T) {
	a := NewPage().SetTitle("kept")
	b := NewPage()
	c := NewPage()

	Pages{a, b, c}.SetAllTitle("global").SetAllColor(0xFF0000)

	assert.Equal(t, "kept", a.Title)
	assert.Equal(t, "global", b.Title)
	assert.Equal(t, "global", c.Title)
	assert.Equal(t, 0xFF0000, a.Color)
}

func TestSetAllIsCallOrderSensitive(t *testing.T) {
	p := NewPage()
	pages := Pages{p}

	pages.SetAllFooter("global")
	p.SetFooter("page level")
	pages.SetAllFooter("later global")

	// A page-level write after an apply-to-all wins; the later apply-to-all
	// sees the page as already set and leaves it alone.
	assert.Equal(t, "page level", p.Footer)
}

func TestCloneDoesNotShareFields(t *testing.T) {
	p := NewPage().AddField("a", "1", false)
	c := p.Clone()
	c.SetFooter("copy only")
	c.Fields[0].Value = "2"

	assert.Empty(t, p.Footer)
	assert.Equal(t, "1", p.Fields[0].Value)
}
