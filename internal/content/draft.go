package content

import (
	"errors"

	"folioforge/internal/slug"
)

// ErrNoParsedData marks a resume that has no structured data yet and so
// cannot seed a portfolio or be optimized.
var ErrNoParsedData = errors.New("resume has no parsed data")

// PortfolioDraft is the in-memory object the wizard's Customize stage edits.
// Serialized verbatim into portfolios.content_data on save.
type PortfolioDraft struct {
	Title          string       `json:"title"`
	Subdomain      string       `json:"subdomain"`
	PersonalInfo   PersonalInfo `json:"personal_info"`
	Summary        string       `json:"summary"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Skills         []string     `json:"skills"`
	Projects       []string     `json:"projects"`
	Certifications []string     `json:"certifications"`
}

const fallbackName = "Professional"

// SeedDraft pre-populates a draft from parsed resume data: the title is
// "<name> Portfolio", the subdomain is the slugified name plus a random
// suffix, and every content section is copied by value with empty-container
// defaults. The subdomain falls back to "portfolio" when the parse produced
// no name, matching the title fallback "Professional Portfolio".
func SeedDraft(data *ResumeData) PortfolioDraft {
	name := data.PersonalInfo.Name
	titleName := name
	if titleName == "" {
		titleName = fallbackName
	}
	subdomainName := name
	if subdomainName == "" {
		subdomainName = "portfolio"
	}

	return PortfolioDraft{
		Title:          titleName + " Portfolio",
		Subdomain:      slug.WithSuffix(subdomainName),
		PersonalInfo:   data.PersonalInfo,
		Summary:        data.Summary,
		Experience:     copyExperience(data.Experience),
		Education:      append([]Education{}, data.Education...),
		Skills:         append([]string{}, data.Skills...),
		Projects:       []string{},
		Certifications: []string{},
	}
}

func copyExperience(entries []Experience) []Experience {
	out := make([]Experience, len(entries))
	for i, e := range entries {
		if e.Achievements != nil {
			e.Achievements = append([]string{}, e.Achievements...)
		}
		out[i] = e
	}
	return out
}
