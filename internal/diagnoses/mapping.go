package diagnoses

import (
	"net/url"

	"github.com/JaimeStill/verdant/pkg/query"
	"github.com/JaimeStill/verdant/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "diagnoses", "d").
	Project("id", "ID").
	Project("owner", "Owner").
	Project("image_id", "ImageID").
	Project("user_text", "UserText").
	Project("description", "Description").
	Project("score", "Score").
	Project("disease", "Disease").
	Project("advice", "Advice").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows a diagnosis listing. Nil fields are ignored. ImageID
// matches exactly; Disease is a case-insensitive contains match.
type Filters struct {
	ImageID *string `json:"image_id,omitempty"`
	Disease *string `json:"disease,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ImageID", f.ImageID).
		WhereContains("Disease", f.Disease)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if id := values.Get("image_id"); id != "" {
		f.ImageID = &id
	}

	if d := values.Get("disease"); d != "" {
		f.Disease = &d
	}

	return f
}

// sortAliases maps the sort names clients send to projected fields.
var sortAliases = map[string]string{
	"created_at": "CreatedAt",
	"score":      "Score",
	"image_id":   "ImageID",
	"disease":    "Disease",
}

func resolveSort(fields []query.SortField) []query.SortField {
	resolved := make([]query.SortField, 0, len(fields))
	for _, f := range fields {
		if name, ok := sortAliases[f.Field]; ok {
			f.Field = name
		}
		if projection.Has(f.Field) {
			resolved = append(resolved, f)
		}
	}
	return resolved
}

// scanDiagnosis reads the projected columns; owner is read and discarded.
func scanDiagnosis(s repository.Scanner) (Diagnosis, error) {
	var (
		d     Diagnosis
		owner string
	)
	err := s.Scan(
		&d.ID,
		&owner,
		&d.ImageID,
		&d.UserText,
		&d.Description,
		&d.Score,
		&d.Disease,
		&d.Advice,
		&d.CreatedAt,
	)
	return d, err
}
