package view

// Layout lists the page elements a results page provides.
type Layout struct {
	RatingSelect   bool `json:"rating_select"`
	TypeFilters    bool `json:"type_filters"`
	ResultsList    bool `json:"results_list"`
	ResetButton    bool `json:"reset_button"`
	SortSelect     bool `json:"sort_select"`
	LocationButton bool `json:"location_button"`
	Map            bool `json:"map"`
	PanelToggle    bool `json:"panel_toggle"`
	PanelClose     bool `json:"panel_close"`
	PanelBackdrop  bool `json:"panel_backdrop"`
}

// FullLayout is the results page as served by this module.
func FullLayout() Layout {
	return Layout{
		RatingSelect: true, TypeFilters: true, ResultsList: true, ResetButton: true,
		SortSelect: true, LocationButton: true, Map: true,
		PanelToggle: true, PanelClose: true, PanelBackdrop: true,
	}
}

// MissingRequired names the absent elements without which the page cannot work.
func (l Layout) MissingRequired() []string {
	var out []string
	if !l.RatingSelect {
		out = append(out, "min-rating")
	}
	if !l.TypeFilters {
		out = append(out, "type-filters")
	}
	if !l.ResultsList {
		out = append(out, "results-list")
	}
	if !l.ResetButton {
		out = append(out, "reset-filters")
	}
	return out
}
