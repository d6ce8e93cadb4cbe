package handlers

import (
	"errors"
	"net/http"

	"todorbac/internal/apperr"
)

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRes struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func Signup(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		var roleIDs []int
		if d.DefaultRole != "" {
			role, err := d.Graph.RoleByName(r.Context(), d.DefaultRole)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				d.Log.Warnw("default role missing, signup without role", "role", d.DefaultRole)
			case err != nil:
				RespondError(w, r, d.Log, err)
				return
			default:
				roleIDs = append(roleIDs, role.ID)
			}
		}
		u, err := d.Users.Register(r.Context(), req.Name, req.Email, req.Password, roleIDs...)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusCreated, userRes{ID: u.ID, Name: u.Name, Email: u.Email}, "user created")
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		u, err := d.Users.Verify(r.Context(), req.Email, req.Password)
		if err != nil {
			// unknown email and wrong password look the same to the caller
			if errors.Is(err, apperr.ErrNotFound) {
				err = apperr.Wrap(apperr.KindInvalidSecret, "invalid credentials", err)
			}
			RespondError(w, r, d.Log, err)
			return
		}
		snap, err := d.Authz.SnapshotFor(r.Context(), u.ID)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		pair, err := d.Issuer.Issue(u.ID, snap)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		d.Log.Infow("login", "user_id", u.ID)
		respondOK(w, http.StatusOK, pair, "login successful")
	}
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new pair. With a denylist configured
// the presented refresh token is revoked so it cannot be replayed.
func Refresh(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshReq
		if err := decode(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		p, err := d.Issuer.ValidateRefresh(r.Context(), req.RefreshToken)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if _, err := d.Users.Get(r.Context(), p.UserID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				err = apperr.Wrap(apperr.KindUnauthenticated, "user no longer exists", err)
			}
			RespondError(w, r, d.Log, err)
			return
		}
		snap, err := d.Authz.SnapshotFor(r.Context(), p.UserID)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		pair, err := d.Issuer.Issue(p.UserID, snap)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if _, err := d.Issuer.Revoke(r.Context(), p); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, pair, "token refreshed")
	}
}

// Logout revokes the presented access token and the refresh token issued with
// it when revocation is enabled. A refresh token from another pair may be sent
// in the body to revoke it too. Without revocation tokens stay valid until
// they expire.
func Logout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		var req refreshReq
		if err := decodeOptional(w, r, &req); err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		revoked, err := d.Issuer.Revoke(r.Context(), p)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		if req.RefreshToken != "" {
			rp, err := d.Issuer.ValidateRefresh(r.Context(), req.RefreshToken)
			if err == nil && rp.UserID == p.UserID {
				if _, err := d.Issuer.Revoke(r.Context(), rp); err != nil {
					RespondError(w, r, d.Log, err)
					return
				}
			}
		}
		msg := "logged out"
		if !revoked {
			msg = "logged out; the token remains valid until it expires"
		}
		respondOK(w, http.StatusOK, map[string]any{"revoked": revoked, "expiresAt": p.ExpiresAt}, msg)
	}
}

func Me(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		u, err := d.Users.Me(r.Context(), p.UserID)
		if err != nil {
			RespondError(w, r, d.Log, err)
			return
		}
		respondOK(w, http.StatusOK, u, "")
	}
}
