package embed

// Field is a single name/value entry on a page.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Page represents one unit of paginated display content. The pager does not
// interpret its contents; it is marshaled as-is onto the gateway wire.
type Page struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{}
}

// Text creates a page carrying only a description, used for plain replies.
func Text(content string) *Page {
	return &Page{Description: content}
}

// SetTitle sets the page title.
func (p *Page) SetTitle(title string) *Page {
	p.Title = title
	return p
}

// SetDescription sets the page body text.
func (p *Page) SetDescription(desc string) *Page {
	p.Description = desc
	return p
}

// SetURL sets the page link.
func (p *Page) SetURL(url string) *Page {
	p.URL = url
	return p
}

// SetColor sets the page accent color.
func (p *Page) SetColor(color int) *Page {
	p.Color = color
	return p
}

// SetFooter sets the page footer text.
func (p *Page) SetFooter(footer string) *Page {
	p.Footer = footer
	return p
}

// AddField appends a field to the page.
func (p *Page) AddField(name, value string, inline bool) *Page {
	p.Fields = append(p.Fields, Field{Name: name, Value: value, Inline: inline})
	return p
}

// Clone returns a shallow copy with its own field slice, so a render can
// overwrite the footer without touching the stored page.
func (p *Page) Clone() *Page {
	out := *p
	out.Fields = make([]Field, len(p.Fields))
	copy(out.Fields, p.Fields)
	return &out
}

// Pages is an ordered page sequence with apply-to-all setters.
type Pages []*Page

// SetAllTitle assigns title to every page that has none. The assignment
// happens at call time: a page-level SetTitle made after this call wins, one
// made before it is kept.
func (ps Pages) SetAllTitle(title string) Pages {
	for _, p := range ps {
		if p.Title == "" {
			p.Title = title
		}
	}
	return ps
}

// SetAllColor assigns color to every page that has none; call-order wins,
// same as SetAllTitle.
func (ps Pages) SetAllColor(color int) Pages {
	for _, p := range ps {
		if p.Color == 0 {
			p.Color = color
		}
	}
	return ps
}

// SetAllFooter assigns footer to every page that has none; call-order wins,
// same as SetAllTitle.
func (ps Pages) SetAllFooter(footer string) Pages {
	for _, p := range ps {
		if p.Footer == "" {
			p.Footer = footer
		}
	}
	return ps
}

// Paginate splits items into pages of at most perPage fields each. perPage
// values below 1 are treated as 1.
func Paginate(items []Field, perPage int) Pages {
	if perPage < 1 {
		perPage = 1
	}
	var pages Pages
	for start := 0; start < len(items); start += perPage {
		end := start + perPage
		if end > len(items) {
			end = len(items)
		}
		page := NewPage()
		page.Fields = append(page.Fields, items[start:end]...)
		pages = append(pages, page)
	}
	return pages
}
