package tui

import (
	"fmt"
	"strings"
)

// exampleProfile is a sample URL the URL forms offer with Tab.
type exampleProfile struct {
	URL  string
	Name string
	Note string
}

var exampleProfiles = []exampleProfile{
	{URL: "https://www.imdb.com/name/nm0000982/", Name: "Jack Nicholson", Note: "Academy Award Winner"},
	{URL: "https://www.linkedin.com/in/satyanadella/", Name: "Satya Nadella", Note: "CEO of Microsoft"},
	{URL: "https://www.imdb.com/name/nm0000138/", Name: "Leonardo DiCaprio", Note: "Environmental Activist"},
	{URL: "https://www.linkedin.com/in/jeffweiner08/", Name: "Jeff Weiner", Note: "Former LinkedIn CEO"},
}

// renderExamples lists the sample profiles, marking selected (-1 for none).
func renderExamples(selected int) string {
	var b strings.Builder
	b.WriteString(mutedStyle.Render("Examples (Tab to pick):") + "\n")
	for i, ex := range exampleProfiles {
		marker := "  "
		name := ex.Name
		if i == selected {
			marker = selectedMarkerStyle.Render("▸ ")
			name = boldStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s%s  %s  %s\n",
			marker,
			name,
			mutedStyle.Render(ex.Note),
			itemURLStyle.Render(ex.URL),
		))
	}
	return b.String()
}
