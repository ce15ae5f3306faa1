// Package ingestion turns job postings into clean interview context. Postings
// arrive as URLs or local files; either way the output is normalized text plus
// provenance metadata, ready to seed an interview session.
package ingestion

import (
	"context"
	"fmt"
	"log"

	"github.com/Sukhwinder-i0/komyra-ai/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the HTTP request fails
	ErrHTTPRequestFailed = fmt.Errorf("HTTP request failed")
	// ErrContentExtractionFailed is returned when content extraction fails
	ErrContentExtractionFailed = fmt.Errorf("content extraction failed")
)

// IngestJobPosting fetches a job posting URL, extracts the posting body with
// platform-aware selectors, and returns cleaned text with metadata. When
// useBrowser is true and the static fetch comes back too thin, the page is
// re-rendered in a headless browser before extraction.
func IngestJobPosting(ctx context.Context, urlStr string, useBrowser bool, verbose bool) (string, *Metadata, error) {
	platform := fetch.DetectPlatform(urlStr)
	if verbose {
		log.Printf("[ingestion] url=%s platform=%s", urlStr, platform)
	}

	result, err := fetch.URL(ctx, urlStr, nil)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	if verbose {
		log.Printf("[ingestion] fetched %d bytes", len(result.HTML))
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	textContent, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	if verbose {
		log.Printf("[ingestion] extracted %d chars", len(textContent))
	}

	if useBrowser && fetch.ShouldUseBrowser(textContent) {
		if verbose {
			log.Printf("[ingestion] content too short (%d chars < %d), rendering in browser",
				len(textContent), fetch.MinContentLength)
		}

		browserHTML, browserErr := fetch.BrowserSimple(ctx, urlStr, verbose)
		if browserErr != nil {
			// Keep the static content; a thin posting beats no posting.
			log.Printf("[ingestion] browser rendering failed, keeping static content: %v", browserErr)
		} else if browserText, extractErr := fetch.ExtractMainText(browserHTML, contentSelectors, noiseSelectors...); extractErr == nil {
			textContent = browserText
			if verbose {
				log.Printf("[ingestion] browser extracted %d chars", len(textContent))
			}
		}
	}

	cleanedText := CleanText(textContent)

	metadata := NewMetadata(cleanedText, urlStr)
	metadata.Platform = string(platform)

	return cleanedText, metadata, nil
}
