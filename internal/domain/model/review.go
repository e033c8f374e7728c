package model

import "time"

// Review is a named review effort. Its comments are held in memory only while
// the review is open.
type Review struct {
	ID             string
	Description    string
	Reference      string // External reference, e.g. a ticket or pull request URL.
	PersonInCharge string
	IsOpen         bool
	CreatedAt      time.Time
}
