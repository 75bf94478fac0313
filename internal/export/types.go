// Package export renders dinner invitations as printable PDF cards.
package export

import (
	"errors"
	"time"
)

// Invitation is the data rendered onto the card.
type Invitation struct {
	Title    string
	Host     string
	Occasion string
	Date     time.Time
	Courses  []InviteCourse
	Note     string
}

// InviteCourse is one menu line on the card.
type InviteCourse struct {
	Name string
	Dish string
	Wine string
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless browser is not installed.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
