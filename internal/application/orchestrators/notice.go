package orchestrators

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"sqlapp/internal/adapters/email"
	auditstore "sqlapp/internal/adapters/storage/audit"
	"sqlapp/internal/adapters/storage/notice"
	"sqlapp/internal/adapters/storage/readstate"
	"sqlapp/internal/domain/audit"
	domain "sqlapp/internal/domain/notice"
)

// NoticeView is a notice enriched with the caller's read state.
type NoticeView struct {
	domain.Notice
	Read   bool   `json:"read"`
	ReadAt string `json:"readAt,omitempty"`
}

// recordAudit persists an audit event best-effort. Audit failures never fail
// the operation they describe.
func recordAudit(ctx context.Context, store auditstore.Store, event audit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, event); err != nil {
		slog.Warn("audit_save_failed", "error", err, "action", event.Action, "actor", event.Actor)
	}
}

// --- Create Notice ---

// CreateNoticeInput carries input for the create notice orchestrator.
type CreateNoticeInput struct {
	Title  string
	Body   string
	Footer string
	Actor  string // username of the admin creating the notice
}

// CreateNoticeDeps holds dependencies for CreateNotice.
type CreateNoticeDeps struct {
	NoticeStore notice.Store
	AuditStore  auditstore.Store
	Now         func() time.Time
}

// ExecuteCreateNotice appends a new notice to the shared list. New notices are
// visible immediately, so they are stamped pushed at creation time.
// PRE: Title must be non-empty after trimming
// POST: Notice appended with id max+1, pushed, pushedAt set
func ExecuteCreateNotice(ctx context.Context, input CreateNoticeInput, deps CreateNoticeDeps) (domain.Notice, error) {
	n := domain.Notice{
		Title:  input.Title,
		Body:   input.Body,
		Footer: input.Footer,
	}
	if err := n.Validate(); err != nil {
		return domain.Notice{}, err
	}

	var created domain.Notice
	_, err := deps.NoticeStore.Update(ctx, func(notices []domain.Notice) ([]domain.Notice, error) {
		n.ID = domain.NextID(notices)
		n.MarkPushed(deps.Now())
		created = n
		return append(notices, n), nil
	})
	if err != nil {
		return domain.Notice{}, err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryNotice, audit.ActionCreate).
		WithResource(strconv.Itoa(created.ID)).
		WithDetail(created.Title))
	slog.Info("notice_event", "event", "notice_created", "notice_id", created.ID, "actor", input.Actor)
	return created, nil
}

// --- Broadcast Notice ---

// BroadcastNoticeInput carries input for the broadcast notice orchestrator.
type BroadcastNoticeInput struct {
	Title  string
	Body   string
	Footer string
	Actor  string
}

// BroadcastNoticeDeps holds dependencies for BroadcastNotice.
type BroadcastNoticeDeps struct {
	NoticeStore notice.Store
	ReadStates  readstate.Store
	AuditStore  auditstore.Store
	Email       email.Sender // optional; nil skips mail
	Recipients  []string
	Now         func() time.Time
}

// ExecuteBroadcastNotice creates a notice and guarantees every known user sees
// it as unread by removing its id from each user's read map. Read-state resets
// that fail for one user are logged and do not abort the rest.
// PRE: Title must be non-empty after trimming
// POST: Notice appended; no user's read map contains the new id
func ExecuteBroadcastNotice(ctx context.Context, input BroadcastNoticeInput, deps BroadcastNoticeDeps) (domain.Notice, error) {
	created, err := ExecuteCreateNotice(ctx, CreateNoticeInput(input), CreateNoticeDeps{
		NoticeStore: deps.NoticeStore,
		Now:         deps.Now,
	})
	if err != nil {
		return domain.Notice{}, err
	}

	usernames, err := deps.ReadStates.Usernames(ctx)
	if err != nil {
		return domain.Notice{}, err
	}
	key := strconv.Itoa(created.ID)
	reset := 0
	for _, username := range usernames {
		err := deps.ReadStates.Update(ctx, username, func(read map[string]string) (map[string]string, error) {
			delete(read, key)
			return read, nil
		})
		if err != nil {
			slog.Warn("notice_event", "event", "read_reset_failed", "notice_id", created.ID, "username", username, "error", err)
			continue
		}
		reset++
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryNotice, audit.ActionBroadcast).
		WithResource(key).
		WithDetail(created.Title))
	slog.Info("notice_event", "event", "notice_broadcast", "notice_id", created.ID, "users_reset", reset, "actor", input.Actor)

	sendNoticeMail(ctx, deps.Email, deps.Recipients, created)
	return created, nil
}

// sendNoticeMail notifies the configured operations recipients. Best-effort:
// mail failures are logged, never surfaced to the caller.
func sendNoticeMail(ctx context.Context, sender email.Sender, recipients []string, n domain.Notice) {
	if sender == nil || len(recipients) == 0 {
		return
	}
	html, err := email.RenderMarkdown(n.Body)
	if err != nil {
		slog.Warn("notice_event", "event", "mail_render_failed", "notice_id", n.ID, "error", err)
		return
	}
	if n.Footer != "" {
		html += "<p>" + n.Footer + "</p>"
	}
	_, err = sender.Send(ctx, email.SendRequest{
		To:      recipients,
		Subject: n.Title,
		HTML:    html,
	})
	if err != nil {
		slog.Warn("notice_event", "event", "mail_send_failed", "notice_id", n.ID, "error", err)
	}
}

// --- Push Notice ---

// PushNoticeInput carries input for the push notice orchestrator.
type PushNoticeInput struct {
	NoticeID int
	Actor    string
}

// PushNoticeDeps holds dependencies for PushNotice.
type PushNoticeDeps struct {
	NoticeStore notice.Store
	AuditStore  auditstore.Store
	Email       email.Sender
	Recipients  []string
	Now         func() time.Time
}

// ExecutePushNotice marks an existing notice pushed. Idempotent: pushing an
// already pushed notice returns it unchanged and sends no mail.
// PRE: Notice with NoticeID must exist
// POST: Notice is pushed; pushedAt keeps its original value on repeat calls
func ExecutePushNotice(ctx context.Context, input PushNoticeInput, deps PushNoticeDeps) (domain.Notice, error) {
	var pushed domain.Notice
	var transitioned bool
	_, err := deps.NoticeStore.Update(ctx, func(notices []domain.Notice) ([]domain.Notice, error) {
		i := domain.FindByID(notices, input.NoticeID)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		transitioned = notices[i].MarkPushed(deps.Now())
		pushed = notices[i]
		return notices, nil
	})
	if err != nil {
		return domain.Notice{}, err
	}

	if transitioned {
		recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryNotice, audit.ActionPush).
			WithResource(strconv.Itoa(pushed.ID)))
		slog.Info("notice_event", "event", "notice_pushed", "notice_id", pushed.ID, "actor", input.Actor)
		sendNoticeMail(ctx, deps.Email, deps.Recipients, pushed)
	}
	return pushed, nil
}

// --- List Notices ---

// ListNoticesInput carries input for the list notices orchestrator.
type ListNoticesInput struct {
	Username string // empty when the caller's identity could not be resolved
}

// ListNoticesDeps holds dependencies for ListNotices.
type ListNoticesDeps struct {
	NoticeStore notice.Store
	ReadStates  readstate.Store
}

// ExecuteListNotices returns every notice in creation order. When the caller
// is known, each notice carries that user's read flag and timestamp; anonymous
// callers get every notice unread.
// POST: Result preserves stored order; read is set only for known callers
func ExecuteListNotices(ctx context.Context, input ListNoticesInput, deps ListNoticesDeps) ([]NoticeView, error) {
	notices, err := deps.NoticeStore.Load(ctx)
	if err != nil {
		return nil, err
	}

	read := map[string]string{}
	if input.Username != "" {
		read, err = deps.ReadStates.Load(ctx, input.Username)
		if err != nil {
			return nil, err
		}
	}

	views := make([]NoticeView, 0, len(notices))
	for _, n := range notices {
		readAt, ok := read[strconv.Itoa(n.ID)]
		views = append(views, NoticeView{Notice: n, Read: ok, ReadAt: readAt})
	}
	return views, nil
}

// --- Mark Notice Read ---

// MarkNoticeReadInput carries input for the mark read orchestrator.
type MarkNoticeReadInput struct {
	Username string
	NoticeID int
}

// MarkNoticeReadDeps holds dependencies for MarkNoticeRead.
type MarkNoticeReadDeps struct {
	NoticeStore notice.Store
	ReadStates  readstate.Store
	Now         func() time.Time
}

// ExecuteMarkNoticeRead records that a user has read a notice. First write
// wins: marking an already read notice keeps the original timestamp.
// PRE: Username is non-empty; notice with NoticeID must exist
// POST: User's read map contains the id; the stored timestamp never changes
func ExecuteMarkNoticeRead(ctx context.Context, input MarkNoticeReadInput, deps MarkNoticeReadDeps) (string, error) {
	notices, err := deps.NoticeStore.Load(ctx)
	if err != nil {
		return "", err
	}
	if domain.FindByID(notices, input.NoticeID) < 0 {
		return "", domain.ErrNotFound
	}

	key := strconv.Itoa(input.NoticeID)
	var readAt string
	err = deps.ReadStates.Update(ctx, input.Username, func(read map[string]string) (map[string]string, error) {
		if at, ok := read[key]; ok {
			readAt = at
			return read, nil
		}
		readAt = domain.FormatTime(deps.Now())
		read[key] = readAt
		return read, nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("notice_event", "event", "notice_read", "notice_id", input.NoticeID, "username", input.Username)
	return readAt, nil
}

// --- Delete Notice ---

// DeleteNoticeInput carries input for the delete notice orchestrator.
type DeleteNoticeInput struct {
	NoticeID int
	Actor    string
}

// DeleteNoticeDeps holds dependencies for DeleteNotice.
type DeleteNoticeDeps struct {
	NoticeStore notice.Store
	AuditStore  auditstore.Store
	Now         func() time.Time
}

// ExecuteDeleteNotice removes a notice from the shared list. Read-map entries
// referencing the id are left in place; they are harmless and the id is never
// reissued.
// PRE: Notice with NoticeID must exist
// POST: Notice removed; remaining notices keep their ids
func ExecuteDeleteNotice(ctx context.Context, input DeleteNoticeInput, deps DeleteNoticeDeps) error {
	_, err := deps.NoticeStore.Update(ctx, func(notices []domain.Notice) ([]domain.Notice, error) {
		i := domain.FindByID(notices, input.NoticeID)
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(notices[:i], notices[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Now(), input.Actor, audit.CategoryNotice, audit.ActionDelete).
		WithResource(strconv.Itoa(input.NoticeID)))
	slog.Info("notice_event", "event", "notice_deleted", "notice_id", input.NoticeID, "actor", input.Actor)
	return nil
}
