package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

type TaskType string

const (
	// TaskGenerate runs story plus preview illustrations for a book.
	TaskGenerate TaskType = "generate"
	// TaskGenerateImages illustrates one batch of an existing story.
	TaskGenerateImages TaskType = "generate_images"
	// TaskSweep fails books whose run stopped making progress.
	TaskSweep TaskType = "sweep"
)

var ErrMalformedTask = errors.New("malformed task")

type Task struct {
	Type   TaskType              `json:"type"`
	BookID string                `json:"bookId,omitempty"`
	Mode   models.GenerationMode `json:"mode,omitempty"`
}

// Values flattens the task into stream fields.
func (t Task) Values() map[string]any {
	values := map[string]any{"type": string(t.Type)}
	if t.BookID != "" {
		values["bookId"] = t.BookID
	}
	if t.Mode != "" {
		values["mode"] = string(t.Mode)
	}
	return values
}

// ParseTask decodes and validates stream fields.
func ParseTask(values map[string]any) (Task, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Task{}, err
	}
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}

	switch t.Type {
	case TaskSweep:
		return t, nil
	case TaskGenerate:
		if t.BookID == "" {
			return Task{}, fmt.Errorf("%w: %s without bookId", ErrMalformedTask, t.Type)
		}
		return t, nil
	case TaskGenerateImages:
		if t.BookID == "" || !t.Mode.Valid() {
			return Task{}, fmt.Errorf("%w: %s needs bookId and mode", ErrMalformedTask, t.Type)
		}
		return t, nil
	}
	return Task{}, fmt.Errorf("%w: unknown type %q", ErrMalformedTask, t.Type)
}
