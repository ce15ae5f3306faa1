package ingestion

import (
	"context"
	"sync"
	"time"
)

// DefaultIngestTTL bounds how long a cached posting is served before it is
// fetched again. Postings rarely change, but they do get taken down.
const DefaultIngestTTL = 15 * time.Minute

// Ingester fetches and cleans a job posting from a URL.
type Ingester func(ctx context.Context, urlStr string, useBrowser bool, verbose bool) (string, *Metadata, error)

type cacheEntry struct {
	text      string
	meta      Metadata
	fetchedAt time.Time
}

// CachedIngester memoizes posting ingestion by URL. Several candidates
// interviewing for the same role would otherwise hit the job board once per
// session start. Failed ingestions are not cached, so transient fetch errors
// retry on the next call.
type CachedIngester struct {
	ingest Ingester
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedIngester wraps IngestJobPosting with a TTL cache. A non-positive
// ttl falls back to DefaultIngestTTL.
func NewCachedIngester(ttl time.Duration) *CachedIngester {
	return newCachedIngester(IngestJobPosting, ttl)
}

func newCachedIngester(ingest Ingester, ttl time.Duration) *CachedIngester {
	if ttl <= 0 {
		ttl = DefaultIngestTTL
	}
	return &CachedIngester{
		ingest:  ingest,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Ingest returns the cleaned posting for a URL, fetching it at most once per
// TTL window. Calls with and without browser rendering are cached separately,
// because a static fetch of an SPA yields different text than a rendered one.
func (c *CachedIngester) Ingest(ctx context.Context, urlStr string, useBrowser bool, verbose bool) (string, *Metadata, error) {
	key := urlStr
	if useBrowser {
		key += "|browser"
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		meta := entry.meta
		return entry.text, &meta, nil
	}

	text, meta, err := c.ingest(ctx, urlStr, useBrowser, verbose)
	if err != nil {
		return "", nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{text: text, meta: *meta, fetchedAt: c.now()}
	c.mu.Unlock()

	return text, meta, nil
}

// Invalidate drops the cached entries for a URL.
func (c *CachedIngester) Invalidate(urlStr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, urlStr)
	delete(c.entries, urlStr+"|browser")
}
