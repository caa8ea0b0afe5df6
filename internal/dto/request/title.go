package request

// CreateTitleRequest references its category and genres by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        *int     `json:"year" validate:"required,pastyear"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=50,slug"`
	Genre       []string `json:"genre,omitempty" validate:"omitempty,dive,max=50,slug"`
}

// UpdateTitleRequest is a partial update. An empty category clears it; a
// present genre list replaces the current one.
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Year        *int      `json:"year,omitempty" validate:"omitempty,pastyear"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=50,optslug"`
	Genre       *[]string `json:"genre,omitempty" validate:"omitempty,dive,max=50,slug"`
}
