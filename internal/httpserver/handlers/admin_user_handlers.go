package handlers

import "net/http"

func ListUsers(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := d.Users.List(r.Context())
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, all, "users retrieved")
	}
}

func UserTodos(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chiParam(r, "id")
		if _, err := d.Users.Get(r.Context(), id); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		list, err := d.Todos.List(r.Context(), id)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, list, "user todos retrieved")
	}
}
