package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"sqlapp/internal/adapters/http/middleware"
	"sqlapp/internal/adapters/storage"
	auditStore "sqlapp/internal/adapters/storage/audit"
	"sqlapp/internal/application/orchestrators"
	auditDomain "sqlapp/internal/domain/audit"
	dbprofileDomain "sqlapp/internal/domain/dbprofile"
	noticeDomain "sqlapp/internal/domain/notice"
	sqlmenuDomain "sqlapp/internal/domain/sqlmenu"
	userDomain "sqlapp/internal/domain/user"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err.Error())
	}
}

// writeError emits the uniform failure body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, noticeDomain.ErrEmptyTitle),
		errors.Is(err, userDomain.ErrEmptyUsername),
		errors.Is(err, userDomain.ErrEmptyPassword),
		errors.Is(err, userDomain.ErrInvalidStatus),
		errors.Is(err, dbprofileDomain.ErrMissingDatabase),
		errors.Is(err, sqlmenuDomain.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, userDomain.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, userDomain.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, noticeDomain.ErrNotFound),
		errors.Is(err, userDomain.ErrNotFound),
		errors.Is(err, sqlmenuDomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, userDomain.ErrAlreadyExists),
		errors.Is(err, dbprofileDomain.ErrDuplicateDatabase),
		errors.Is(err, sqlmenuDomain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, storage.ErrCorruptStore):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders a failed operation: known domain errors keep their
// message, everything else collapses to a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	writeError(w, status, err.Error())
}

// requireIdentity resolves the caller or rejects the request with 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok || identity.Username == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return middleware.Identity{}, false
	}
	return identity, true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- Sessions ---

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Username: input.Username,
		Password: input.Password,
	}, orchestrators.LoginDeps{
		UserStore:    stores.UserStore,
		Sessions:     opts.Sessions,
		AuditStore:   stores.AuditStore,
		Secret:       opts.UserSecret,
		SessionTTL:   opts.SessionTTL,
		NewSessionID: newSessionID,
		Now:          timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := auth.Codec.Mint(result.SessionID, result.Username, result.Role, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	auth.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": result.SessionID,
		"role":      result.Role,
	})
}

// requestSessionID finds the session id a request refers to: the explicit
// header wins, else the claims inside the signed cookie.
func requestSessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-Id"); id != "" {
		return id
	}
	raw := middleware.SessionCookie(r)
	if raw == "" {
		return ""
	}
	claims, err := auth.Codec.Decode(raw)
	if err != nil {
		return ""
	}
	return claims.SessionID
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{
		SessionID: requestSessionID(r),
	}, orchestrators.LogoutDeps{Sessions: opts.Sessions})
	if err != nil {
		internalError(w, err)
		return
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleSession(w http.ResponseWriter, r *http.Request) {
	if id := requestSessionID(r); id != "" {
		sess, ok, err := opts.Sessions.Get(r.Context(), id)
		if err != nil {
			internalError(w, err)
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"ok":        true,
				"sessionId": id,
				"username":  sess.Username,
				"role":      sess.Role,
			})
			return
		}
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": false})
}

// --- User directory ---

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := stores.UserStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	// Password material never leaves the server.
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]any{
			"username": u.Username,
			"status":   u.Status,
			"role":     u.Role,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	u, err := orchestrators.ExecuteCreateUser(r.Context(), orchestrators.CreateUserInput{
		Username: input.Username,
		Password: input.Password,
		Role:     input.Role,
		Actor:    identity.Username,
	}, userDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"username": u.Username,
		"role":     u.Role,
	})
}

func handleSetUserPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	err := orchestrators.ExecuteSetUserPassword(r.Context(), orchestrators.SetUserPasswordInput{
		Username: r.PathValue("name"),
		Password: input.Password,
		Actor:    identity.Username,
	}, userDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status int `json:"status"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	err := orchestrators.ExecuteSetUserStatus(r.Context(), orchestrators.SetUserStatusInput{
		Username: r.PathValue("name"),
		Status:   input.Status,
		Actor:    identity.Username,
	}, userDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Role string `json:"role"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	err := orchestrators.ExecuteSetUserRole(r.Context(), orchestrators.SetUserRoleInput{
		Username: r.PathValue("name"),
		Role:     input.Role,
		Actor:    identity.Username,
	}, userDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func userDeps() orchestrators.UserDeps {
	return orchestrators.UserDeps{
		UserStore:  stores.UserStore,
		AuditStore: stores.AuditStore,
		Secret:     opts.UserSecret,
		Now:        timeNow,
	}
}

// --- Audit trail ---

func handleListAudit(w http.ResponseWriter, r *http.Request) {
	var filter auditStore.Filter
	if v := r.URL.Query().Get("category"); v != "" {
		c := auditDomain.Category(v)
		filter.Category = &c
	}
	if v := r.URL.Query().Get("action"); v != "" {
		a := auditDomain.Action(v)
		filter.Action = &a
	}
	if v := r.URL.Query().Get("actor"); v != "" {
		filter.Actor = &v
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
