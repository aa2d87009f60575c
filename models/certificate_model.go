package models

import (
	"time"
)

// CertificateSource records which store a certificate record came from.
// The remote store is authoritative; a local_fallback record exists only
// because the remote store could not be written to at issuance time.
type CertificateSource string

const (
	SourceRemote        CertificateSource = "remote"
	SourceLocalFallback CertificateSource = "local_fallback"
)

// CertificateMetadata snapshots course facts at issuance time so a later
// course edit cannot retroactively alter a historical certificate's claims.
type CertificateMetadata struct {
	Level            string `gorm:"size:50" json:"level"`
	Duration         string `gorm:"size:50" json:"duration"`
	TotalLessonCount int    `json:"total_lesson_count"`
}

type Certificate struct {
	ID                 string              `gorm:"size:64;primary_key" json:"id"`
	LearnerID          string              `gorm:"size:64;not null;index;uniqueIndex:idx_learner_course" json:"learner_id"`
	CourseID           string              `gorm:"size:100;not null;uniqueIndex:idx_learner_course" json:"course_id"`
	CourseSlug         string              `gorm:"size:100;not null" json:"course_slug"`
	CourseTitle        string              `gorm:"size:255;not null" json:"course_title"`
	LearnerDisplayName string              `gorm:"size:255;not null" json:"learner_display_name"`
	CertificateNumber  string              `gorm:"size:20;not null;unique" json:"certificate_number"`
	IssuedAt           time.Time           `gorm:"not null" json:"issued_at"`
	Metadata           CertificateMetadata `gorm:"embedded;embeddedPrefix:meta_" json:"metadata"`

	// Not a column: the remote adapter stamps it on reads and the local
	// store persists it inside its JSON payload.
	Source CertificateSource `gorm:"-" json:"source,omitempty"`
}
