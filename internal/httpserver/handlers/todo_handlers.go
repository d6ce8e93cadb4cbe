package handlers

import (
	"net/http"

	"todorbac/internal/todos"
)

type todoReq struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

func ListTodos(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		list, err := d.Todos.List(r.Context(), p.UserID)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, list, "")
	}
}

func CreateTodo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		var req todoReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		t, err := d.Todos.Create(r.Context(), p.UserID, req.Title, req.Status)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusCreated, t, "todo created")
	}
}

func UpdateTodo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		id, err := int64Param(r, "id")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		var req todoReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		t, err := d.Todos.Update(r.Context(), id, p.UserID, req.Title)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, t, "todo updated")
	}
}

func ToggleTodo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		id, err := int64Param(r, "id")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		t, err := d.Todos.ToggleCompletion(r.Context(), id, p.UserID)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, t, "todo updated")
	}
}

func UpdateTodoStatus(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		id, err := int64Param(r, "id")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		var req todoReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		t, err := d.Todos.UpdateStatus(r.Context(), id, p.UserID, req.Status)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, t, "status updated")
	}
}

// DeleteTodo lets owners delete their own todos; holders of delete:todos may
// delete any todo.
func DeleteTodo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		id, err := int64Param(r, "id")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		canDeleteAny, err := d.Authz.HasCapability(r.Context(), p, todos.DeleteAnyCapability)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if err := d.Todos.Delete(r.Context(), id, p.UserID, canDeleteAny); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, nil, "todo deleted")
	}
}
