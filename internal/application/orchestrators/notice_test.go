package orchestrators

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	domain "sqlapp/internal/domain/notice"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memNoticeStore is an in-memory notice.Store for orchestrator tests.
type memNoticeStore struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (s *memNoticeStore) Load(context.Context) ([]domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notice, len(s.notices))
	copy(out, s.notices)
	return out, nil
}

func (s *memNoticeStore) Update(_ context.Context, mutate func([]domain.Notice) ([]domain.Notice, error)) ([]domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := make([]domain.Notice, len(s.notices))
	copy(work, s.notices)
	work, err := mutate(work)
	if err != nil {
		return nil, err
	}
	s.notices = work
	out := make([]domain.Notice, len(work))
	copy(out, work)
	return out, nil
}

// memReadStore is an in-memory readstate.Store for orchestrator tests.
type memReadStore struct {
	mu    sync.Mutex
	users map[string]map[string]string
}

func newMemReadStore() *memReadStore {
	return &memReadStore{users: make(map[string]map[string]string)}
}

func (s *memReadStore) Load(_ context.Context, username string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.users[username] {
		out[k] = v
	}
	return out, nil
}

func (s *memReadStore) Update(_ context.Context, username string, mutate func(map[string]string) (map[string]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := map[string]string{}
	for k, v := range s.users[username] {
		work[k] = v
	}
	work, err := mutate(work)
	if err != nil {
		return err
	}
	s.users[username] = work
	return nil
}

func (s *memReadStore) Usernames(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for u := range s.users {
		names = append(names, u)
	}
	return names, nil
}

func (s *memReadStore) seed(username string, read map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = read
}

// TestCreateAssignsStrictlyIncreasingIDs verifies ids are max+1 and never
// reused after deletion.
func TestCreateAssignsStrictlyIncreasingIDs(t *testing.T) {
	store := &memNoticeStore{}
	deps := CreateNoticeDeps{NoticeStore: store, Now: fixedClock}

	first, err := ExecuteCreateNotice(context.Background(), CreateNoticeInput{Title: "Maintenance", Body: "DB down 10pm"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != 1 || !first.Pushed || first.PushedAt == "" {
		t.Fatalf("unexpected first notice: %+v", first)
	}

	second, err := ExecuteCreateNotice(context.Background(), CreateNoticeInput{Title: "Update"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID != 2 {
		t.Fatalf("expected id 2, got %d", second.ID)
	}

	err = ExecuteDeleteNotice(context.Background(), DeleteNoticeInput{NoticeID: 2}, DeleteNoticeDeps{NoticeStore: store, Now: fixedClock})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := ExecuteCreateNotice(context.Background(), CreateNoticeInput{Title: "Again"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if third.ID != 3 {
		t.Fatalf("expected id 3 after deleting id 2, got %d", third.ID)
	}
}

// TestCreateRequiresTitle verifies validation runs before any write.
func TestCreateRequiresTitle(t *testing.T) {
	store := &memNoticeStore{}
	_, err := ExecuteCreateNotice(context.Background(), CreateNoticeInput{Title: "  "}, CreateNoticeDeps{NoticeStore: store, Now: fixedClock})
	if !errors.Is(err, domain.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if len(store.notices) != 0 {
		t.Fatal("expected no write on validation failure")
	}
}

// TestBroadcastResetsStaleReadState verifies a pre-seeded read entry for the
// new id is stripped so the notice lists as unread.
func TestBroadcastResetsStaleReadState(t *testing.T) {
	store := &memNoticeStore{}
	reads := newMemReadStore()
	// The next assigned id will be 1; seed a stale entry for it.
	reads.seed("ana", map[string]string{"1": "2020-01-01T00:00:00Z"})
	reads.seed("ben", map[string]string{})

	created, err := ExecuteBroadcastNotice(context.Background(), BroadcastNoticeInput{Title: "Fresh"}, BroadcastNoticeDeps{
		NoticeStore: store,
		ReadStates:  reads,
		Now:         fixedClock,
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	views, err := ExecuteListNotices(context.Background(), ListNoticesInput{Username: "ana"}, ListNoticesDeps{
		NoticeStore: store,
		ReadStates:  reads,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].Read {
		t.Fatalf("expected broadcast notice unread for ana, got %+v", views)
	}
}

// TestPushIdempotent verifies pushing twice keeps the original timestamp.
func TestPushIdempotent(t *testing.T) {
	store := &memNoticeStore{notices: []domain.Notice{{ID: 4, Title: "quiet"}}}
	deps := PushNoticeDeps{NoticeStore: store, Now: fixedClock}

	first, err := ExecutePushNotice(context.Background(), PushNoticeInput{NoticeID: 4}, deps)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !first.Pushed || first.PushedAt == "" {
		t.Fatalf("expected pushed notice, got %+v", first)
	}

	deps.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := ExecutePushNotice(context.Background(), PushNoticeInput{NoticeID: 4}, deps)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if second.PushedAt != first.PushedAt {
		t.Fatalf("pushedAt changed on repeat push: %q vs %q", second.PushedAt, first.PushedAt)
	}
}

// TestPushUnknownID verifies NotFound surfaces for absent ids.
func TestPushUnknownID(t *testing.T) {
	store := &memNoticeStore{}
	_, err := ExecutePushNotice(context.Background(), PushNoticeInput{NoticeID: 99}, PushNoticeDeps{NoticeStore: store, Now: fixedClock})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestMarkReadFirstWriteWins verifies repeat acknowledgments return the
// original timestamp.
func TestMarkReadFirstWriteWins(t *testing.T) {
	store := &memNoticeStore{notices: []domain.Notice{{ID: 1, Title: "t"}}}
	reads := newMemReadStore()
	deps := MarkNoticeReadDeps{NoticeStore: store, ReadStates: reads, Now: fixedClock}

	first, err := ExecuteMarkNoticeRead(context.Background(), MarkNoticeReadInput{Username: "ana", NoticeID: 1}, deps)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}

	deps.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := ExecuteMarkNoticeRead(context.Background(), MarkNoticeReadInput{Username: "ana", NoticeID: 1}, deps)
	if err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if second != first {
		t.Fatalf("readAt changed on repeat: %q vs %q", second, first)
	}
}

// TestMarkReadUnknownNotice verifies NotFound for ids absent from the store.
func TestMarkReadUnknownNotice(t *testing.T) {
	store := &memNoticeStore{}
	reads := newMemReadStore()
	_, err := ExecuteMarkNoticeRead(context.Background(), MarkNoticeReadInput{Username: "ana", NoticeID: 5}, MarkNoticeReadDeps{
		NoticeStore: store,
		ReadStates:  reads,
		Now:         fixedClock,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestConcurrentMarkReadNoLostUpdates verifies N concurrent acknowledgments
// of distinct ids all land in the read map.
func TestConcurrentMarkReadNoLostUpdates(t *testing.T) {
	const n = 25
	var notices []domain.Notice
	for i := 1; i <= n; i++ {
		notices = append(notices, domain.Notice{ID: i, Title: "t"})
	}
	store := &memNoticeStore{notices: notices}
	reads := newMemReadStore()
	deps := MarkNoticeReadDeps{NoticeStore: store, ReadStates: reads, Now: fixedClock}

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := ExecuteMarkNoticeRead(context.Background(), MarkNoticeReadInput{Username: "ana", NoticeID: id}, deps); err != nil {
				t.Errorf("mark read %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	read, err := reads.Load(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != n {
		t.Fatalf("lost updates: expected %d entries, got %d", n, len(read))
	}
	for i := 1; i <= n; i++ {
		if _, ok := read[strconv.Itoa(i)]; !ok {
			t.Fatalf("missing read entry for id %d", i)
		}
	}
}

// TestListAnonymousAllUnread verifies listing without identity never marks
// anything read.
func TestListAnonymousAllUnread(t *testing.T) {
	store := &memNoticeStore{notices: []domain.Notice{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}}
	reads := newMemReadStore()
	reads.seed("ana", map[string]string{"1": "2025-01-01T00:00:00Z"})

	views, err := ExecuteListNotices(context.Background(), ListNoticesInput{}, ListNoticesDeps{
		NoticeStore: store,
		ReadStates:  reads,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, v := range views {
		if v.Read || v.ReadAt != "" {
			t.Fatalf("anonymous list leaked read state: %+v", v)
		}
	}
}

// TestListEnrichesKnownCaller verifies read/readAt come from the caller's map.
func TestListEnrichesKnownCaller(t *testing.T) {
	store := &memNoticeStore{notices: []domain.Notice{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}}
	reads := newMemReadStore()
	reads.seed("ana", map[string]string{"2": "2025-01-01T00:00:00Z"})

	views, err := ExecuteListNotices(context.Background(), ListNoticesInput{Username: "ana"}, ListNoticesDeps{
		NoticeStore: store,
		ReadStates:  reads,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if views[0].Read {
		t.Fatalf("notice 1 should be unread: %+v", views[0])
	}
	if !views[1].Read || views[1].ReadAt != "2025-01-01T00:00:00Z" {
		t.Fatalf("notice 2 should carry the read timestamp: %+v", views[1])
	}
}

// TestDeleteUnknownIDLeavesStoreUnchanged verifies a failed delete mutates
// nothing.
func TestDeleteUnknownIDLeavesStoreUnchanged(t *testing.T) {
	store := &memNoticeStore{notices: []domain.Notice{{ID: 1, Title: "keep"}}}

	err := ExecuteDeleteNotice(context.Background(), DeleteNoticeInput{NoticeID: 9}, DeleteNoticeDeps{NoticeStore: store, Now: fixedClock})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.notices) != 1 || store.notices[0].Title != "keep" {
		t.Fatalf("store changed by failed delete: %+v", store.notices)
	}
}

// TestCreateRoundTrip verifies a created notice lists back with matching
// fields.
func TestCreateRoundTrip(t *testing.T) {
	store := &memNoticeStore{}
	created, err := ExecuteCreateNotice(context.Background(), CreateNoticeInput{Title: "Maintenance", Body: "DB down 10pm", Footer: "ops"}, CreateNoticeDeps{NoticeStore: store, Now: fixedClock})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := ExecuteListNotices(context.Background(), ListNoticesInput{}, ListNoticesDeps{NoticeStore: store, ReadStates: newMemReadStore()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(views))
	}
	got := views[0].Notice
	if got.ID != created.ID || got.Title != "Maintenance" || got.Body != "DB down 10pm" || got.Footer != "ops" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Pushed || got.PushedAt != domain.FormatTime(fixedNow) {
		t.Fatalf("expected pushed at creation time, got %+v", got)
	}
}
