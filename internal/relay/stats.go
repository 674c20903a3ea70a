package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"support-relay/internal/database"
)

// StatsService aggregates counters for the /stats command and the status
// endpoint, and renders the full-database export document.
type StatsService struct {
	store       database.Store
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewStatsService creates the stats and export façade.
func NewStatsService(store database.Store, broadcaster *Broadcaster, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StatsService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger.With("component", "stats"),
	}
}

// Stats returns the aggregate counters.
func (s *StatsService) Stats(ctx context.Context) (Stats, error) {
	var out Stats

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return out, persistence("count_users", err)
	}
	messages, err := s.store.CountMessages(ctx)
	if err != nil {
		return out, persistence("count_messages", err)
	}
	banned, err := s.store.CountBannedUsers(ctx)
	if err != nil {
		return out, persistence("count_banned_users", err)
	}

	out.Users = users
	out.Messages = messages
	out.Banned = banned
	out.BroadcastInProgress = s.broadcaster != nil && s.broadcaster.InProgress()
	return out, nil
}

// exportDocument is the JSON shape of the export snapshot.
type exportDocument struct {
	ExportedAt time.Time           `json:"exported_at"`
	Users      []database.User     `json:"users"`
	Messages   []database.Message  `json:"messages"`
	Replies    []database.Reply    `json:"replies"`
	BanEvents  []database.BanEvent `json:"ban_events"`
}

// Export renders a point-in-time JSON snapshot of users, messages,
// replies, and the ban audit trail.
func (s *StatsService) Export(ctx context.Context) ([]byte, error) {
	doc := exportDocument{ExportedAt: time.Now().UTC()}

	var err error
	if doc.Users, err = s.store.ListUsers(ctx); err != nil {
		return nil, persistence("list_users", err)
	}
	if doc.Messages, err = s.store.ListMessages(ctx); err != nil {
		return nil, persistence("list_messages", err)
	}
	if doc.Replies, err = s.store.ListReplies(ctx); err != nil {
		return nil, persistence("list_replies", err)
	}
	if doc.BanEvents, err = s.store.ListBanEvents(ctx); err != nil {
		return nil, persistence("list_ban_events", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	s.logger.InfoContext(ctx, "Export rendered",
		"users", len(doc.Users), "messages", len(doc.Messages), "replies", len(doc.Replies), "ban_events", len(doc.BanEvents))
	return data, nil
}
