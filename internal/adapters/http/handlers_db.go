package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"sqlapp/internal/application/orchestrators"
	dbprofileDomain "sqlapp/internal/domain/dbprofile"
	sqlmenuDomain "sqlapp/internal/domain/sqlmenu"
)

// dbTimeout bounds every outbound MySQL call; profile endpoints are
// caller-supplied and may be unreachable.
const dbTimeout = 10 * time.Second

// --- Connection profiles ---

func handleListDBConfigs(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	profiles, err := stores.DBProfileStore.List(r.Context(), identity.Username)
	if err != nil {
		internalError(w, err)
		return
	}

	// Clients test missing truthily to prompt for a first profile.
	writeJSON(w, http.StatusOK, map[string]any{"configs": profiles, "missing": len(profiles) == 0})
}

func handleAddDBConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var profile dbprofileDomain.Profile
	if err := strictDecode(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := orchestrators.ExecuteAddDBProfile(r.Context(), orchestrators.AddDBProfileInput{
		Username: identity.Username,
		Profile:  profile,
	}, orchestrators.DBProfileDeps{ProfileStore: stores.DBProfileStore})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleDeleteDBConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input struct {
		Database string `json:"database"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := orchestrators.ExecuteDeleteDBProfile(r.Context(), orchestrators.DeleteDBProfileInput{
		Username: identity.Username,
		Database: input.Database,
	}, orchestrators.DBProfileDeps{ProfileStore: stores.DBProfileStore})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleDBHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	var profile dbprofileDomain.Profile
	if err := strictDecode(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := profile.MissingFields(); len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(fields, ", "))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	if err := opts.SQLExecutor.Ping(ctx, profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- SQL execution proxy ---

func handleExecuteSQL(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	var input struct {
		DBConfig *dbprofileDomain.Profile `json:"dbConfig"`
		SQL      string                   `json:"sql"`
		Params   map[string]any           `json:"params"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.DBConfig == nil || strings.TrimSpace(input.SQL) == "" {
		writeError(w, http.StatusBadRequest, "dbConfig and sql are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	results, err := opts.SQLExecutor.Execute(ctx, *input.DBConfig, input.SQL, input.Params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// --- SQL menu shortcuts ---

func handleListSQLConfigs(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	entries, err := stores.SQLMenuStore.List(r.Context(), identity.Username)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": entries})
}

func handleCreateSQLConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input struct {
		MenuName string `json:"menu_name"`
		SQL      string `json:"sql"`
		DBName   string `json:"dbname"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := orchestrators.ExecuteCreateSQLMenu(r.Context(), orchestrators.CreateSQLMenuInput{
		Username: identity.Username,
		MenuName: input.MenuName,
		SQL:      input.SQL,
		DBName:   input.DBName,
	}, sqlMenuDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": entry})
}

func handleGetSQLConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	entries, err := stores.SQLMenuStore.List(r.Context(), identity.Username)
	if err != nil {
		internalError(w, err)
		return
	}
	i := sqlmenuDomain.FindByID(entries, r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, sqlmenuDomain.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": entries[i]})
}

func handleUpdateSQLConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input struct {
		MenuName string `json:"menu_name"`
		SQL      string `json:"sql"`
		DBName   string `json:"dbname"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := orchestrators.ExecuteUpdateSQLMenu(r.Context(), orchestrators.UpdateSQLMenuInput{
		Username: identity.Username,
		EntryID:  r.PathValue("id"),
		MenuName: input.MenuName,
		SQL:      input.SQL,
		DBName:   input.DBName,
	}, sqlMenuDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": entry})
}

func handleDeleteSQLConfig(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteSQLMenu(r.Context(), orchestrators.DeleteSQLMenuInput{
		Username: identity.Username,
		EntryID:  r.PathValue("id"),
	}, sqlMenuDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func sqlMenuDeps() orchestrators.SQLMenuDeps {
	return orchestrators.SQLMenuDeps{
		MenuStore:  stores.SQLMenuStore,
		GenerateID: generateID,
		Now:        timeNow,
	}
}
