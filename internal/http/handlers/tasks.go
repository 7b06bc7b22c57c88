package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/domain/task"
	"taskhub/internal/http/middlewares"
)

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id, ownerID string) (task.Task, error)
	ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, id, ownerID string, patch task.Patch) (task.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type TasksHandler struct {
	store TaskStore
}

func NewTasksHandler(store TaskStore) *TasksHandler {
	return &TasksHandler{store: store}
}

func (h *TasksHandler) owner(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Unauthorized", "Missing authenticated identity")
	}
	return id, ok
}

func (h *TasksHandler) List(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var filter task.ListFilter

	// filters are validated before any query runs
	if status := ctx.Query("status"); status != "" {
		if !task.ValidStatus(status) {
			RespondValidation(ctx, "status must be one of pending, in_progress, completed")
			return
		}
		filter.Status = &status
	}

	if priority := ctx.Query("priority"); priority != "" {
		if !task.ValidPriority(priority) {
			RespondValidation(ctx, "priority must be one of low, medium, high")
			return
		}
		filter.Priority = &priority
	}

	tasks, err := h.store.ListByOwner(ctx.Request.Context(), ownerID, filter)

	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	t, err := h.store.GetByID(ctx.Request.Context(), ctx.Param("id"), ownerID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": t})
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		RespondValidation(ctx, "title must not be empty")
		return
	}

	created, err := h.store.Create(ctx.Request.Context(), task.NewFromCreateRequest(ownerID, req))

	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    created,
	})
}

func (h *TasksHandler) Patch(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		RespondValidation(ctx, "Could not read request body")
		return
	}

	patch, perr := parsePatch(body)
	if perr != nil {
		RespondValidation(ctx, perr.Error())
		return
	}

	if patch.Empty() {
		RespondValidation(ctx, "at least one updatable field must be provided")
		return
	}

	updated, err := h.store.Update(ctx.Request.Context(), ctx.Param("id"), ownerID, patch)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    updated,
	})
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	err := h.store.Delete(ctx.Request.Context(), ctx.Param("id"), ownerID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// parsePatch keeps merge semantics: a key absent from the body leaves the
// stored field untouched, a key sent as null clears nullable fields.
func parsePatch(body []byte) (task.Patch, error) {
	var patch task.Patch

	fields := map[string]json.RawMessage{}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return patch, errors.New("Request body is not a valid JSON object")
		}
	}

	if raw, ok := fields["title"]; ok {
		var title *string
		if err := json.Unmarshal(raw, &title); err != nil {
			return patch, errors.New("title must be a string")
		}
		if title == nil || strings.TrimSpace(*title) == "" {
			return patch, errors.New("title must not be empty")
		}
		trimmed := strings.TrimSpace(*title)
		patch.Title = &trimmed
	}

	if raw, ok := fields["description"]; ok {
		var description *string
		if err := json.Unmarshal(raw, &description); err != nil {
			return patch, errors.New("description must be a string or null")
		}
		patch.Description = description
		patch.SetDescription = true
	}

	if raw, ok := fields["status"]; ok {
		var status *string
		if err := json.Unmarshal(raw, &status); err != nil {
			return patch, errors.New("status must be a string")
		}
		if status == nil || !task.ValidStatus(*status) {
			return patch, errors.New("status must be one of pending, in_progress, completed")
		}
		patch.Status = status
	}

	if raw, ok := fields["priority"]; ok {
		var priority *string
		if err := json.Unmarshal(raw, &priority); err != nil {
			return patch, errors.New("priority must be a string")
		}
		if priority == nil || !task.ValidPriority(*priority) {
			return patch, errors.New("priority must be one of low, medium, high")
		}
		patch.Priority = priority
	}

	if raw, ok := fields["dueDate"]; ok {
		var dueDate *string
		if err := json.Unmarshal(raw, &dueDate); err != nil {
			return patch, errors.New("dueDate must be a string or null")
		}
		patch.DueDate = dueDate
		patch.SetDueDate = true
	}

	return patch, nil
}
