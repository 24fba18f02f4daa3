package model

// IssueFinding is one issue flagged by the backlog audit because it lacks a
// description, a theme, or both.
type IssueFinding struct {
	IssueID            string
	Title              string
	Workspace          string
	Pillar             string
	MissingDescription bool
	MissingTheme       bool
}

// Problems lists what the issue is missing, in display order.
func (f IssueFinding) Problems() []string {
	var out []string
	if f.MissingDescription {
		out = append(out, "no description")
	}
	if f.MissingTheme {
		out = append(out, "no theme")
	}
	return out
}
