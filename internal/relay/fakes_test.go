package relay

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"support-relay/internal/database"
)

// memStore is an in-memory database.Store for engine tests. All methods
// take the same lock the real store's single-writer connection implies,
// so assignment claims race the way they do against SQLite.
type memStore struct {
	mu sync.Mutex

	users        map[int64]*database.User
	messages     []*database.Message
	replies      []*database.Reply
	banEvents    []database.BanEvent
	correlations map[string]*database.Correlation
	broadcasts   map[string]*database.Broadcast
	outcomes     []*database.BroadcastOutcome

	nextMessageID int64
	nextReplyID   int64

	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]*database.User),
		correlations: make(map[string]*database.Correlation),
		broadcasts:   make(map[string]*database.Broadcast),
		failOn:       make(map[string]error),
	}
}

// failNext makes the named store operation return err.
func (s *memStore) failNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

func (s *memStore) fail(op string) error {
	if err, ok := s.failOn[op]; ok {
		return err
	}
	return nil
}

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func corrKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d/%d", chatID, messageID)
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) GetUser(_ context.Context, userID int64) (*database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *memStore) RecordUserActivity(_ context.Context, userID int64, displayName, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("record_user_activity"); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		u = &database.User{UserID: userID, FirstSeen: at, CreatedAt: at}
		s.users[userID] = u
	}
	u.DisplayName = displayName
	u.Username = username
	u.LastActivity = at
	u.MessageCount++
	u.UpdatedAt = at
	return nil
}

func (s *memStore) TouchUserActivity(_ context.Context, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LastActivity = at
	}
	return nil
}

func (s *memStore) ListUsers(context.Context) ([]database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memStore) ListBroadcastTargets(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list_broadcast_targets"); err != nil {
		return nil, err
	}
	var out []int64
	for id, u := range s.users {
		if !u.IsBanned {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) CountUsers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *memStore) CountBannedUsers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.IsBanned {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountMessages(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages)), nil
}

func (s *memStore) IsBanned(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("is_banned"); err != nil {
		return false, err
	}
	u, ok := s.users[userID]
	return ok && u.IsBanned, nil
}

func (s *memStore) BanUser(_ context.Context, userID int64, reason string, operatorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ban_user"); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	u, ok := s.users[userID]
	if !ok {
		u = &database.User{UserID: userID, FirstSeen: now, CreatedAt: now}
		s.users[userID] = u
	}
	if u.IsBanned {
		return false, nil
	}
	u.IsBanned = true
	u.BanReason = reason
	u.BannedAt = sql.NullTime{Time: now, Valid: true}
	s.banEvents = append(s.banEvents, database.BanEvent{
		ID: int64(len(s.banEvents) + 1), UserID: userID,
		Action: database.BanActionBan, Reason: reason, OperatorID: operatorID, CreatedAt: now,
	})
	return true, nil
}

func (s *memStore) UnbanUser(_ context.Context, userID int64, operatorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || !u.IsBanned {
		return false, nil
	}
	u.IsBanned = false
	u.BanReason = ""
	u.BannedAt = sql.NullTime{}
	s.banEvents = append(s.banEvents, database.BanEvent{
		ID: int64(len(s.banEvents) + 1), UserID: userID,
		Action: database.BanActionUnban, OperatorID: operatorID, CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (s *memStore) ListBannedUsers(context.Context) ([]database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []database.User
	for _, u := range s.users {
		if u.IsBanned {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *memStore) ListBanEvents(context.Context) ([]database.BanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.BanEvent(nil), s.banEvents...), nil
}

func (s *memStore) SaveMessage(_ context.Context, message *database.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("save_message"); err != nil {
		return err
	}
	s.nextMessageID++
	message.ID = s.nextMessageID
	clone := *message
	s.messages = append(s.messages, &clone)
	return nil
}

func (s *memStore) UpdateMessageDelivery(_ context.Context, messageRowID int64, delivery string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageRowID {
			m.Delivery = delivery
			return nil
		}
	}
	return fmt.Errorf("message %d not found", messageRowID)
}

func (s *memStore) ListMessages(context.Context) ([]database.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (s *memStore) SaveReply(_ context.Context, reply *database.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("save_reply"); err != nil {
		return err
	}
	s.nextReplyID++
	reply.ID = s.nextReplyID
	clone := *reply
	s.replies = append(s.replies, &clone)
	return nil
}

func (s *memStore) ListReplies(context.Context) ([]database.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Reply, 0, len(s.replies))
	for _, r := range s.replies {
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) SaveCorrelation(_ context.Context, corr *database.Correlation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("save_correlation"); err != nil {
		return err
	}
	clone := *corr
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.correlations[corrKey(corr.OperatorChatID, corr.ForwardedMessageID)] = &clone
	return nil
}

func (s *memStore) GetCorrelation(_ context.Context, operatorChatID int64, forwardedMessageID int) (*database.Correlation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get_correlation"); err != nil {
		return nil, err
	}
	c, ok := s.correlations[corrKey(operatorChatID, forwardedMessageID)]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (s *memStore) PruneCorrelations(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, c := range s.correlations {
		if c.CreatedAt.Before(before) {
			delete(s.correlations, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetAssignment(_ context.Context, userID int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || !u.AssignedOperatorID.Valid {
		return 0, false, nil
	}
	return u.AssignedOperatorID.Int64, true, nil
}

func (s *memStore) ClaimAssignment(_ context.Context, userID, operatorID int64, at time.Time) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("claim_assignment"); err != nil {
		return false, 0, err
	}
	u, ok := s.users[userID]
	if !ok {
		u = &database.User{UserID: userID, FirstSeen: at, CreatedAt: at}
		s.users[userID] = u
	}
	if u.AssignedOperatorID.Valid {
		return false, u.AssignedOperatorID.Int64, nil
	}
	u.AssignedOperatorID = sql.NullInt64{Int64: operatorID, Valid: true}
	u.AssignedAt = sql.NullTime{Time: at, Valid: true}
	return true, operatorID, nil
}

func (s *memStore) ReleaseAssignment(_ context.Context, userID, operatorID int64, force bool) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || !u.AssignedOperatorID.Valid {
		return false, 0, nil
	}
	current := u.AssignedOperatorID.Int64
	if current != operatorID && !force {
		return false, current, nil
	}
	u.AssignedOperatorID = sql.NullInt64{}
	u.AssignedAt = sql.NullTime{}
	return true, current, nil
}

func (s *memStore) CreateBroadcast(_ context.Context, b *database.Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("create_broadcast"); err != nil {
		return err
	}
	clone := *b
	s.broadcasts[b.ID] = &clone
	return nil
}

func (s *memStore) SaveBroadcastOutcome(_ context.Context, o *database.BroadcastOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *o
	clone.ID = int64(len(s.outcomes) + 1)
	s.outcomes = append(s.outcomes, &clone)
	return nil
}

func (s *memStore) FinishBroadcast(_ context.Context, id string, delivered, failed, skipped int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[id]
	if !ok {
		return fmt.Errorf("broadcast %s not found", id)
	}
	b.Delivered = delivered
	b.Failed = failed
	b.Skipped = skipped
	b.FinishedAt = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (s *memStore) BroadcastInProgress(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.broadcasts {
		if !b.FinishedAt.Valid {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) RunSQLMaintenance(context.Context) error { return nil }

// sentMessage records one Send or Copy issued against the fake transport.
type sentMessage struct {
	ChatID    int64
	Content   Content
	FromChat  int64
	MessageID int
	IsCopy    bool
}

// memTransport is an in-memory Transport with per-chat failure injection
// and a concurrency high-water mark for fan-out tests.
type memTransport struct {
	mu       sync.Mutex
	sent     []sentMessage
	failFor  map[int64]error
	nextID   int
	delay    time.Duration
	inFlight int
	maxSeen  int

	// sendHook, when set before use, runs at the start of every Send.
	sendHook func(chatID int64)
}

func newMemTransport() *memTransport {
	return &memTransport{failFor: make(map[int64]error)}
}

func (t *memTransport) failChat(chatID int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failFor[chatID] = err
}

func (t *memTransport) enter() {
	t.mu.Lock()
	t.inFlight++
	if t.inFlight > t.maxSeen {
		t.maxSeen = t.inFlight
	}
	t.mu.Unlock()
}

func (t *memTransport) exit() {
	t.mu.Lock()
	t.inFlight--
	t.mu.Unlock()
}

func (t *memTransport) Send(_ context.Context, chatID int64, content Content) (int, error) {
	if t.sendHook != nil {
		t.sendHook(chatID)
	}
	t.enter()
	defer t.exit()
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[chatID]; ok {
		return 0, err
	}
	t.nextID++
	t.sent = append(t.sent, sentMessage{ChatID: chatID, Content: content, MessageID: t.nextID})
	return t.nextID, nil
}

func (t *memTransport) Copy(_ context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	t.enter()
	defer t.exit()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[toChatID]; ok {
		return 0, err
	}
	t.nextID++
	t.sent = append(t.sent, sentMessage{ChatID: toChatID, FromChat: fromChatID, MessageID: t.nextID, IsCopy: true})
	return t.nextID, nil
}

func (t *memTransport) SendDocumentUpload(_ context.Context, chatID int64, filename string, data []byte, caption string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[chatID]; ok {
		return 0, err
	}
	t.nextID++
	t.sent = append(t.sent, sentMessage{ChatID: chatID, Content: Content{Kind: KindDocument, Text: caption, FileID: filename}, MessageID: t.nextID})
	return t.nextID, nil
}

func (t *memTransport) sentTo(chatID int64) []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentMessage
	for _, m := range t.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}
