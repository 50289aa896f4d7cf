// Package students manages the school's student master data.
package students

import "time"

// Student is one enrolled pupil. Number is the matricule printed on the
// student card, unique across the school.
type Student struct {
	ID        int64
	Number    string
	FirstName string
	LastName  string
	BirthDate time.Time
	ClassName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentInput carries the mutable fields for create and update.
type StudentInput struct {
	Number    string
	FirstName string
	LastName  string
	BirthDate time.Time
	ClassName string
}

// ListFilter narrows and pages the student listing.
type ListFilter struct {
	ClassName string
	Search    string
	Page      int
	PerPage   int
}
