package models

import "time"

// Profile is the mock extraction payload attached to a completed item.
type Profile struct {
	Name        string         `json:"name"`
	JobTitle    string         `json:"job_title"`
	Company     string         `json:"company"`
	Location    string         `json:"location,omitempty"`
	Description string         `json:"description,omitempty"`
	Skills      []string       `json:"skills,omitempty"`
	SourceURL   string         `json:"source_url"`
	Source      SourceCategory `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	if p.Skills != nil {
		out.Skills = append([]string(nil), p.Skills...)
	}
	return out
}
