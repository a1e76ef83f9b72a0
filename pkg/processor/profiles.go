package processor

import (
	"time"

	"profile-extract-go/pkg/models"
)

var catalogue = []models.Profile{
	{
		Name:        "Sarah Johnson",
		JobTitle:    "Senior Software Engineer",
		Company:     "TechCorp Inc.",
		Location:    "San Francisco, CA",
		Description: "Experienced software engineer with a passion for building scalable web applications and mentoring junior developers. Specialized in React, Node.js, and cloud architecture.",
		Skills:      []string{"React", "TypeScript", "Node.js", "AWS", "Docker", "GraphQL", "Python", "MongoDB"},
	},
	{
		Name:        "Michael Chen",
		JobTitle:    "Senior Product Manager",
		Company:     "InnovateLabs",
		Location:    "New York, NY",
		Description: "Product manager with 8+ years of experience in B2B SaaS products. Expert in user research, product strategy, and cross-functional team leadership.",
		Skills:      []string{"Product Strategy", "User Research", "Agile", "SQL", "Analytics", "Figma", "Jira", "A/B Testing"},
	},
	{
		Name:        "Emily Rodriguez",
		JobTitle:    "Senior UX Designer",
		Company:     "DesignStudio Pro",
		Location:    "Austin, TX",
		Description: "Creative UI/UX designer focused on creating intuitive and accessible digital experiences. Passionate about design systems and user-centered design principles.",
		Skills:      []string{"UI/UX Design", "Figma", "Adobe Creative Suite", "Prototyping", "User Research", "Design Systems", "Sketch", "InVision"},
	},
}

// mockProfile picks a catalogue entry and tags it with the item's source.
func mockProfile(rng Rand, item models.Item, now time.Time) models.Profile {
	p := catalogue[rng.IntN(len(catalogue))].Clone()
	p.SourceURL = item.Input
	p.Source = item.SourceCategory
	p.GeneratedAt = now
	return p
}
