package ingestion

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingIngester(calls *int32, text string, err error) Ingester {
	return func(_ context.Context, urlStr string, _ bool, _ bool) (string, *Metadata, error) {
		atomic.AddInt32(calls, 1)
		if err != nil {
			return "", nil, err
		}
		return text, NewMetadata(text, urlStr), nil
	}
}

func TestCachedIngester_ServesFromCache(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "posting body", nil), time.Minute)

	text1, meta1, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)
	text2, meta2, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, text1, text2)
	assert.Equal(t, meta1.Hash, meta2.Hash)
}

func TestCachedIngester_ExpiresAfterTTL(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "posting body", nil), time.Minute)

	now := time.Now()
	cached.now = func() time.Time { return now }

	_, _, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, err = cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedIngester_DoesNotCacheErrors(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "", errors.New("connection refused")), time.Minute)

	_, _, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.Error(t, err)
	_, _, err = cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.Error(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedIngester_BrowserVariantCachedSeparately(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "posting body", nil), time.Minute)

	_, _, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)
	_, _, err = cached.Ingest(context.Background(), "https://example.com/job", true, false)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedIngester_Invalidate(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "posting body", nil), time.Minute)

	_, _, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)

	cached.Invalidate("https://example.com/job")

	_, _, err = cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedIngester_ReturnedMetadataIsACopy(t *testing.T) {
	var calls int32
	cached := newCachedIngester(countingIngester(&calls, "posting body", nil), time.Minute)

	_, meta1, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)
	meta1.Platform = "mutated"

	_, meta2, err := cached.Ingest(context.Background(), "https://example.com/job", false, false)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", meta2.Platform)
}
