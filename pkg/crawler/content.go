package crawler

import "sync"

// Page is one fetched document.
type Page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// ContentMap is the crawl deliverable: fetched content keyed by normalized
// URL, iterable in completion order. Completion order is nondeterministic
// across runs whenever more than one fetch permit is configured.
type ContentMap struct {
	mu    sync.RWMutex
	order []string
	pages map[string]string
}

// NewContentMap returns an empty ContentMap.
func NewContentMap() *ContentMap {
	return &ContentMap{pages: make(map[string]string)}
}

// add stores content under url. Re-adding an existing key replaces the
// content but keeps the key's original position, so no URL ever appears
// twice.
func (m *ContentMap) add(url, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pages[url]; !exists {
		m.order = append(m.order, url)
	}
	m.pages[url] = content
}

// Get returns the stored content for url.
func (m *ContentMap) Get(url string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.pages[url]
	return content, ok
}

// Len returns the number of stored pages.
func (m *ContentMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

// URLs returns the stored URLs in completion order.
func (m *ContentMap) URLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	urls := make([]string, len(m.order))
	copy(urls, m.order)
	return urls
}

// Pages returns all stored pages in completion order.
func (m *ContentMap) Pages() []Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pages := make([]Page, 0, len(m.order))
	for _, u := range m.order {
		pages = append(pages, Page{URL: u, Content: m.pages[u]})
	}
	return pages
}
