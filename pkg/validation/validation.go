package validation

import (
	"net/url"
	"strings"

	"profile-extract-go/pkg/models"
)

// Advisory messages attached to valid URLs. Exactly one is returned per input.
const (
	WarningLinkedIn = "LinkedIn profiles may require authentication for full data access"
	WarningGitHub   = "GitHub profiles provide excellent technical information"
	WarningSocial   = "Social media profiles may have limited professional information"
	WarningCustom   = "Custom websites may vary in data availability"
)

// Result is the outcome of validating one input string.
type Result struct {
	Valid      bool                  `json:"valid"`
	Reason     models.ErrorKind      `json:"reason,omitempty"`
	Message    string                `json:"message,omitempty"`
	Warnings   []string              `json:"warnings"`
	Category   models.SourceCategory `json:"category,omitempty"`
	Normalized string                `json:"normalized,omitempty"`
}

type platform struct {
	category models.SourceCategory
	domains  []string
	warning  string
}

// Order matters: the first matching platform wins.
var warningRules = []platform{
	{models.CategoryLinkedIn, []string{"linkedin.com"}, WarningLinkedIn},
	{models.CategoryGitHub, []string{"github.com"}, WarningGitHub},
	{models.CategoryTwitter, []string{"twitter.com", "x.com"}, WarningSocial},
}

var categoryRules = []platform{
	{category: models.CategoryLinkedIn, domains: []string{"linkedin.com"}},
	{category: models.CategoryIMDB, domains: []string{"imdb.com"}},
	{category: models.CategoryGitHub, domains: []string{"github.com"}},
	{category: models.CategoryTwitter, domains: []string{"twitter.com", "x.com"}},
}

// Validate trims and classifies raw as an absolute http(s) URL.
// It performs no I/O and is deterministic.
func Validate(raw string) Result {
	s := strings.TrimSpace(raw)
	if s == "" {
		return failure(models.KindEmptyInput)
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return failure(models.KindMalformedURL)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return failure(models.KindUnsupportedScheme)
	}
	if u.Hostname() == "" {
		return failure(models.KindMalformedURL)
	}

	host := strings.ToLower(u.Hostname())
	warning := WarningCustom
	for _, rule := range warningRules {
		if matchesHost(host, rule.domains) {
			warning = rule.warning
			break
		}
	}

	return Result{
		Valid:      true,
		Warnings:   []string{warning},
		Category:   categoryForHost(host),
		Normalized: s,
	}
}

// Categorize derives the source category of raw. Inputs that are not valid
// http(s) URLs are reported as generic.
func Categorize(raw string) models.SourceCategory {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return models.CategoryGeneric
	}
	return categoryForHost(strings.ToLower(u.Hostname()))
}

func categoryForHost(host string) models.SourceCategory {
	for _, rule := range categoryRules {
		if matchesHost(host, rule.domains) {
			return rule.category
		}
	}
	return models.CategoryGeneric
}

// matchesHost reports whether host is one of domains or a subdomain of one.
func matchesHost(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func failure(kind models.ErrorKind) Result {
	return Result{
		Valid:    false,
		Reason:   kind,
		Message:  kind.Message(),
		Warnings: []string{},
	}
}
