package web

import (
	"net/http"
	"strconv"

	"sqlapp/internal/adapters/http/middleware"
	"sqlapp/internal/application/orchestrators"
)

// noticeIDFromPath parses the {id} path segment.
func noticeIDFromPath(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func handleListNotices(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	views, err := orchestrators.ExecuteListNotices(r.Context(), orchestrators.ListNoticesInput{
		Username: identity.Username,
	}, orchestrators.ListNoticesDeps{
		NoticeStore: stores.NoticeStore,
		ReadStates:  stores.ReadStateStore,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": views})
}

func handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Footer string `json:"footer"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	n, err := orchestrators.ExecuteCreateNotice(r.Context(), orchestrators.CreateNoticeInput{
		Title:  input.Title,
		Body:   input.Body,
		Footer: input.Footer,
		Actor:  identity.Username,
	}, orchestrators.CreateNoticeDeps{
		NoticeStore: stores.NoticeStore,
		AuditStore:  stores.AuditStore,
		Now:         timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": n})
}

func handleBroadcastNotice(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Footer string `json:"footer"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	n, err := orchestrators.ExecuteBroadcastNotice(r.Context(), orchestrators.BroadcastNoticeInput{
		Title:  input.Title,
		Body:   input.Body,
		Footer: input.Footer,
		Actor:  identity.Username,
	}, orchestrators.BroadcastNoticeDeps{
		NoticeStore: stores.NoticeStore,
		ReadStates:  stores.ReadStateStore,
		AuditStore:  stores.AuditStore,
		Email:       opts.Email,
		Recipients:  opts.Recipients,
		Now:         timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": n})
}

func handlePushNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeIDFromPath(r)
	if !ok {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	n, err := orchestrators.ExecutePushNotice(r.Context(), orchestrators.PushNoticeInput{
		NoticeID: id,
		Actor:    identity.Username,
	}, orchestrators.PushNoticeDeps{
		NoticeStore: stores.NoticeStore,
		AuditStore:  stores.AuditStore,
		Email:       opts.Email,
		Recipients:  opts.Recipients,
		Now:         timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": n})
}

func handleMarkNoticeRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := noticeIDFromPath(r)
	if !ok {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}

	readAt, err := orchestrators.ExecuteMarkNoticeRead(r.Context(), orchestrators.MarkNoticeReadInput{
		Username: identity.Username,
		NoticeID: id,
	}, orchestrators.MarkNoticeReadDeps{
		NoticeStore: stores.NoticeStore,
		ReadStates:  stores.ReadStateStore,
		Now:         timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "noticeId": id, "readAt": readAt})
}

func handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeIDFromPath(r)
	if !ok {
		writeError(w, http.StatusNotFound, "notice not found")
		return
	}
	identity, _ := middleware.GetIdentity(r.Context())

	err := orchestrators.ExecuteDeleteNotice(r.Context(), orchestrators.DeleteNoticeInput{
		NoticeID: id,
		Actor:    identity.Username,
	}, orchestrators.DeleteNoticeDeps{
		NoticeStore: stores.NoticeStore,
		AuditStore:  stores.AuditStore,
		Now:         timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
