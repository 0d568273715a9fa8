// Package tasks keeps a flat-file task list and predicts task priorities
// with a bag-of-words naive Bayes model retrained on every request.
package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDescription = errors.New("task description is empty")
	ErrInvalidPriority  = errors.New("priority must be one of Low, Medium, High")
	ErrTaskNotFound     = errors.New("no task with that description")
	ErrNotEnoughTasks   = errors.New("not enough data to train the model: add at least 2 tasks")
	ErrMalformedStore   = errors.New("task file is malformed")
)

// Priority is the label attached to a task.
type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// Priorities lists the labels in menu order.
func Priorities() []Priority {
	return []Priority{Low, Medium, High}
}

// ParsePriority accepts the exact label spelling.
func ParsePriority(value string) (Priority, error) {
	for _, p := range Priorities() {
		if string(p) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidPriority, value)
}

// Task is one row of the task file.
type Task struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Suggestion is a stored task picked at random with its predicted priority.
type Suggestion struct {
	Task      Task     `json:"task"`
	Predicted Priority `json:"predicted_priority"`
}

// IsValidationError reports input problems that are shown to the user as
// warnings.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyDescription) || errors.Is(err, ErrInvalidPriority)
}
