package models

// LWJSON is the subset of the CLI's lw-json report used for fix suggestions
type LWJSON struct {
	Artifacts      []Artifact      `json:"Artifacts,omitempty"`
	FixSuggestions []FixSuggestion `json:"FixSuggestions,omitempty"`
}

// Artifact is a scanned package in the lw-json report
type Artifact struct {
	Name    string `json:"Name,omitempty"`
	Version string `json:"Version,omitempty"`
}

// FixVersion is the version a fix suggestion upgrades to
type FixVersion struct {
	Type    string `json:"Type,omitempty"`
	Version string `json:"Version,omitempty"`
}

// FixInfo holds the details of a fix suggestion
type FixInfo struct {
	FixVersion *FixVersion `json:"fixVersion,omitempty"`
	Diffs      [][]string  `json:"Diffs,omitempty"`
}

// FixSuggestion is a single SmartFix proposed by the CLI
type FixSuggestion struct {
	FixID string  `json:"FixId"`
	Info  FixInfo `json:"Info"`
}
