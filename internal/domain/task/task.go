package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"dueDate"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status   *string
	Priority *string
}

// Patch carries a partial update. The Set* flags distinguish a field that
// was sent as null (clear the stored value) from one absent from the body
// (keep the stored value).
type Patch struct {
	Title          *string
	Description    *string
	SetDescription bool
	Status         *string
	Priority       *string
	DueDate        *string
	SetDueDate     bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && !p.SetDescription && p.Status == nil && p.Priority == nil && !p.SetDueDate
}

func NewFromCreateRequest(ownerID string, req CreateTaskRequest) Task {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusPending
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	return Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
