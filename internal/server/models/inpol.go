package models

import "time"

// Proceeding is one case record returned by inPOL, or its stored snapshot.
type Proceeding struct {
	ID         string
	CaseNumber string
	Status     string
	Raw        map[string]any
	UpdatedAt  time.Time
}

// ProceedingChange is a proceeding that is new or whose status moved.
// PreviousStatus is nil for proceedings seen for the first time.
type ProceedingChange struct {
	Proceeding     Proceeding
	PreviousStatus *string
}

// InpolAccount stores portal credentials used when no explicit ones are given.
type InpolAccount struct {
	ID        int64
	Name      string
	BaseURL   string
	Email     string
	Password  string
	IsActive  bool
	UpdatedAt time.Time
}
