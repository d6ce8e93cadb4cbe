package models

import "strings"

type TodoStatus string

const (
	StatusPending    TodoStatus = "PENDING"
	StatusInProgress TodoStatus = "IN_PROGRESS"
	StatusDone       TodoStatus = "DONE"
	StatusArchived   TodoStatus = "ARCHIVED"
)

var todoStatuses = []TodoStatus{StatusPending, StatusInProgress, StatusDone, StatusArchived}

// TodoStatuses returns the enum values in lifecycle order.
func TodoStatuses() []TodoStatus {
	out := make([]TodoStatus, len(todoStatuses))
	copy(out, todoStatuses)
	return out
}

func (s TodoStatus) Valid() bool {
	for _, v := range todoStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTodoStatus normalizes case and surrounding space; ok is false for unknown values.
func ParseTodoStatus(s string) (TodoStatus, bool) {
	st := TodoStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}
