package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// platformProfile captures what we know about scraping a board: how to
// recognize it from a hostname, where the posting body lives, and which
// page elements are noise (application forms, EEO boilerplate) that must
// not leak into the interview context.
type platformProfile struct {
	hostMarkers      []string
	contentSelectors []string
	noiseSelectors   []string
}

var platformProfiles = map[Platform]platformProfile{
	PlatformGreenhouse: {
		hostMarkers: []string{"greenhouse.io", "boards.greenhouse.io"},
		contentSelectors: []string{
			".job__description.body",    // Primary Greenhouse selector
			".job__description",         // Fallback
			".job-description__content", // Alternative
			"#content",                  // Generic fallback
			".job-post-container",       // Container level
		},
		noiseSelectors: []string{
			".application--wrapper",
			".voluntary-self-id",
			".voluntary-self-id-wrapper",
			"#usa_self_id_section",
			".post-apply",
		},
	},
	PlatformLever: {
		hostMarkers: []string{"lever.co", "jobs.lever.co"},
		contentSelectors: []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		},
		noiseSelectors: []string{
			".apply-section",
			".lever-application-form",
			".posting-apply",
		},
	},
	PlatformWorkday: {
		hostMarkers: []string{"workday.com", "myworkdayjobs.com"},
		contentSelectors: []string{
			"[data-automation-id='jobDescription']",
			".WDXK",
			".gwt-HTML",
			".job-description",
		},
		noiseSelectors: []string{
			"[data-automation-id='applyButton']",
			".application-section",
			".WDAF",
		},
	},
}

// commonNoiseSelectors are stripped on every platform: application forms,
// legal disclosures, share widgets, cookie banners.
var commonNoiseSelectors = []string{
	// Application forms
	"form",
	"#application-form",
	".application-form",
	".application--container",
	".apply-button-container",
	"[data-testid='application-form']",

	// EEO and legal
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	"[data-testid='eeo']",
	".legal-disclosure",
	".self-identification",

	// Social and share buttons
	".social-share",
	".share-buttons",
	".social-links",

	// Cookie and GDPR
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	for platform, profile := range platformProfiles {
		for _, marker := range profile.hostMarkers {
			if strings.Contains(host, marker) {
				return platform
			}
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	profile, ok := platformProfiles[platform]
	if !ok {
		return JobPostingSelectors()
	}
	return profile.contentSelectors
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	selectors := append([]string{}, commonNoiseSelectors...)
	if profile, ok := platformProfiles[platform]; ok {
		selectors = append(selectors, profile.noiseSelectors...)
	}
	return selectors
}
