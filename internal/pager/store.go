package pager

import "EmbedPager/internal/embed"

// PageStore holds the ordered page sequence and the active index. It is not
// safe for concurrent use on its own; the owning session serializes access.
type PageStore struct {
	pages    embed.Pages
	index    int
	usePages bool
}

// NewPageStore creates an empty store. usePages mirrors the session setting:
// when false, an empty sequence is not an error.
func NewPageStore(usePages bool) *PageStore {
	return &PageStore{usePages: usePages}
}

// SetPages replaces the sequence wholesale. Returns ErrEmptySequence when
// pagination is enabled and pages is empty. The active index is kept when it
// still fits the new sequence and reset to 0 otherwise.
func (s *PageStore) SetPages(pages embed.Pages) error {
	if s.usePages && len(pages) == 0 {
		return ErrEmptySequence
	}
	s.pages = pages
	if s.index >= len(pages) {
		s.index = 0
	}
	return nil
}

// Append adds a page without disturbing the active index.
func (s *PageStore) Append(page *embed.Page) {
	s.pages = append(s.pages, page)
}

// AppendAll adds pages without disturbing the active index.
func (s *PageStore) AppendAll(pages embed.Pages) {
	s.pages = append(s.pages, pages...)
}

// SetIndex is the single guarded setter every navigation path goes through.
func (s *PageStore) SetIndex(i int) error {
	if i < 0 || i >= len(s.pages) {
		return ErrOutOfRange
	}
	s.index = i
	return nil
}

// Index returns the active index.
func (s *PageStore) Index() int {
	return s.index
}

// Len returns the number of pages.
func (s *PageStore) Len() int {
	return len(s.pages)
}

// Current returns the active page, or nil when the store is empty.
func (s *PageStore) Current() *embed.Page {
	if len(s.pages) == 0 {
		return nil
	}
	return s.pages[s.index]
}

// Pages returns the underlying sequence.
func (s *PageStore) Pages() embed.Pages {
	return s.pages
}
