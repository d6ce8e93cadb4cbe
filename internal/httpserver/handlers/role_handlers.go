package handlers

import "net/http"

type nameReq struct {
	Name string `json:"name"`
}

func ListRoles(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := d.Graph.ListRoles(r.Context())
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, roles, "")
	}
}

func CreateRole(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		role, err := d.Graph.CreateRole(r.Context(), req.Name)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusCreated, role, "role created")
	}
}

func ListPermissions(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perms, err := d.Graph.ListPermissions(r.Context())
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, perms, "")
	}
}

func CreatePermission(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		perm, err := d.Graph.CreatePermission(r.Context(), req.Name)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusCreated, perm, "permission created")
	}
}

func GrantPermission(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, err := intParam(r, "roleId")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		permID, err := intParam(r, "permissionId")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if err := d.Graph.GrantPermissionToRole(r.Context(), roleID, permID); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, nil, "permission granted")
	}
}

func AssignRole(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, err := intParam(r, "roleId")
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if err := d.Graph.AssignRoleToUser(r.Context(), chiParam(r, "userId"), roleID); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, nil, "role assigned")
	}
}
