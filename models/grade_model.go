package models

import "github.com/google/uuid"

// Grade is the lookup table of letter-grade labels. Rows are seeded at
// startup; result grading resolves labels against this table and treats a
// missing row as "no grade" rather than an error.
type Grade struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Grade string    `gorm:"size:2;not null;unique" json:"grade"`
}

// GradeLabels lists every letter grade, best first. Used for seeding.
var GradeLabels = []string{"A+", "A", "A-", "B", "C", "D", "F"}
