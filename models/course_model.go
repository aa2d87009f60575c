package models

import (
	"time"
)

type Course struct {
	ID               string    `gorm:"size:100;primary_key" json:"id"`
	Slug             string    `gorm:"size:100;not null;unique" json:"slug"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Level            string    `gorm:"size:50" json:"level"`
	Duration         string    `gorm:"size:50" json:"duration"`
	TotalLessonCount int       `json:"total_lesson_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
