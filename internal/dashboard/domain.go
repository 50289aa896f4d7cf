// Package dashboard serves the per-school counters shown on the home screen.
package dashboard

import "time"

// Counts holds the raw figures. Raw counts only, no derived averages.
type Counts struct {
	Students        int `json:"students"`
	GradesToday     int `json:"grades_today"`
	SessionsToday   int `json:"sessions_today"`
	OpenAssignments int `json:"open_assignments"`

	GeneratedAt time.Time `json:"generated_at"`
}
