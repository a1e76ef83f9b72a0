package models

// SourceCategory labels the platform a URL belongs to.
type SourceCategory string

const (
	CategoryLinkedIn SourceCategory = "linkedin"
	CategoryIMDB     SourceCategory = "imdb"
	CategoryGitHub   SourceCategory = "github"
	CategoryTwitter  SourceCategory = "twitter"
	CategoryGeneric  SourceCategory = "generic"
)

// Label returns the display name used in tables and badges.
func (c SourceCategory) Label() string {
	switch c {
	case CategoryLinkedIn:
		return "LinkedIn"
	case CategoryIMDB:
		return "IMDB"
	case CategoryGitHub:
		return "GitHub"
	case CategoryTwitter:
		return "Twitter/X"
	case CategoryGeneric:
		return "Website"
	default:
		return ""
	}
}
