package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known applicant tracking system.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformAshby is the Ashby ATS platform
	PlatformAshby Platform = "ashby"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

var platformHosts = []struct {
	platform Platform
	hosts    []string
}{
	{PlatformGreenhouse, []string{"greenhouse.io"}},
	{PlatformLever, []string{"lever.co"}},
	{PlatformWorkday, []string{"workday.com", "myworkdayjobs.com"}},
	{PlatformAshby, []string{"ashbyhq.com"}},
}

// DetectPlatform identifies the ATS from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	for _, p := range platformHosts {
		for _, h := range p.hosts {
			if strings.Contains(host, h) {
				return p.platform
			}
		}
	}
	return PlatformUnknown
}

// FormSelectors returns selectors for the application form container, most
// specific first. The generic "form" selector is always last.
func FormSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{"#application-form", "#application_form", ".application--form", "form"}
	case PlatformLever:
		return []string{".application-form", "#application-form", "form"}
	case PlatformWorkday:
		return []string{"[data-automation-id='applyFlowPage']", "[data-automation-id='applicationForm']", "form"}
	case PlatformAshby:
		return []string{".ashby-application-form-container", "form"}
	default:
		return []string{"form"}
	}
}

// NoiseSelectors returns containers whose controls are never part of the
// application (search boxes, newsletter signups, cookie dialogs).
func NoiseSelectors(platform Platform) []string {
	common := []string{
		"nav",
		"header",
		"footer",
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
		"[role='search']",
		".newsletter",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common, ".job__header", ".post-apply")
	case PlatformLever:
		return append(common, ".main-header", ".posting-header")
	case PlatformWorkday:
		return append(common, "[data-automation-id='utilityMenu']")
	default:
		return common
	}
}
