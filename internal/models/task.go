package models

import (
	"errors"
	"time"
)

const (
	StatusIncomplete = "incomplete"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

var (
	ErrTitleRequired   = errors.New("Please provide a task title")
	ErrTitleTooLong    = errors.New("Title cannot be more than 100 characters")
	ErrDescTooLong     = errors.New("Description cannot be more than 500 characters")
	ErrInvalidStatus   = errors.New("Status must be one of: incomplete, completed")
	ErrInvalidPriority = errors.New("Priority must be one of: low, medium, high")
)

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      string
	Priority    string
	Deadline    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ValidStatus(status string) bool {
	return status == StatusIncomplete || status == StatusCompleted
}

func ValidPriority(priority string) bool {
	return priority == PriorityLow ||
		priority == PriorityMedium ||
		priority == PriorityHigh
}

func ValidateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if len([]rune(title)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func ValidateDescription(description string) error {
	if len([]rune(description)) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	return nil
}
