package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-relay/internal/database"
)

func seedUsers(t *testing.T, store *memStore, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.RecordUserActivity(context.Background(), id, "User", "user", testNow()))
	}
}

func TestBroadcastDeliversToAllTargets(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	seedUsers(t, store, 1, 2, 3, 4, 5)
	engine := NewBroadcaster(store, transport, 4, nil)

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "maintenance at noon"}, 99)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Targets)
	assert.Equal(t, 5, report.Delivered)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)
	assert.NotEmpty(t, report.JobID)
	assert.False(t, report.Cancelled)

	for _, id := range []int64{1, 2, 3, 4, 5} {
		require.Len(t, transport.sentTo(id), 1)
	}
}

func TestBroadcastExcludesBannedUsers(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	seedUsers(t, store, 1, 2, 3)
	_, err := store.BanUser(context.Background(), 2, "spam", 99)
	require.NoError(t, err)
	engine := NewBroadcaster(store, transport, 4, nil)

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Targets)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, transport.sentTo(2), "banned users never receive broadcasts")

	// The banned user still gets a per-recipient record, both persisted
	// and in the report.
	var skippedRows []*database.BroadcastOutcome
	for _, o := range store.outcomes {
		if o.Outcome == database.OutcomeSkippedBanned {
			skippedRows = append(skippedRows, o)
		}
	}
	require.Len(t, skippedRows, 1)
	assert.Equal(t, int64(2), skippedRows[0].UserID)

	require.Len(t, report.Recipients, 3)
	var skippedRecipients []RecipientOutcome
	for _, r := range report.Recipients {
		if r.Outcome == OutcomeSkippedBanned {
			skippedRecipients = append(skippedRecipients, r)
		}
	}
	require.Len(t, skippedRecipients, 1)
	assert.Equal(t, int64(2), skippedRecipients[0].UserID)
}

func TestBroadcastSnapshotSurvivesLaterBan(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	seedUsers(t, store, 1, 2, 3)
	engine := NewBroadcaster(store, transport, 1, nil)

	// Ban one of the snapshotted targets while the fan-out is running.
	// The target set was committed at invocation, so the send still goes
	// out.
	var once sync.Once
	transport.sendHook = func(int64) {
		once.Do(func() {
			_, err := store.BanUser(context.Background(), 3, "banned mid-send", 99)
			assert.NoError(t, err)
		})
	}

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Targets)
	assert.Equal(t, 3, report.Delivered)
	assert.Zero(t, report.Skipped, "the ban landed after the snapshot")
	require.Len(t, transport.sentTo(3), 1, "a ban issued mid-broadcast must not revoke a committed send")
}

func TestBroadcastPartialFailures(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	seedUsers(t, store, 1, 2, 3, 4)
	transport.failChat(2, errors.New("user blocked the bot"))
	transport.failChat(4, errors.New("user blocked the bot"))
	engine := NewBroadcaster(store, transport, 4, nil)
	ctx := context.Background()

	report, err := engine.Broadcast(ctx, Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err, "per-recipient failures never fail the job")
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Recipients, 4)

	// Outcomes are persisted per recipient, failures with detail.
	failed := 0
	for _, o := range store.outcomes {
		if o.Outcome == database.OutcomeFailed {
			failed++
			assert.Contains(t, o.Detail, "blocked")
		}
	}
	assert.Equal(t, 2, failed)
}

func TestBroadcastBoundsInFlightSends(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	transport.delay = 5 * time.Millisecond
	var ids []int64
	for i := int64(1); i <= 20; i++ {
		ids = append(ids, i)
	}
	seedUsers(t, store, ids...)
	engine := NewBroadcaster(store, transport, 3, nil)

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Delivered)
	assert.LessOrEqual(t, transport.maxSeen, 3, "in-flight sends must respect the bound")
}

func TestBroadcastCancellationStopsNewSends(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	transport.delay = 10 * time.Millisecond
	var ids []int64
	for i := int64(1); i <= 50; i++ {
		ids = append(ids, i)
	}
	seedUsers(t, store, ids...)
	engine := NewBroadcaster(store, transport, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	report, err := engine.Broadcast(ctx, Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Less(t, report.Delivered, 50, "cancellation must stop issuing new sends")

	// Every send that was issued has a recorded outcome.
	assert.Equal(t, report.Delivered+report.Failed, len(report.Recipients))
	assert.Len(t, store.outcomes, len(report.Recipients))
}

func TestBroadcastSingleJobAtATime(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	transport.delay = 20 * time.Millisecond
	seedUsers(t, store, 1, 2, 3, 4)
	engine := NewBroadcaster(store, transport, 1, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "first"}, 99)
		assert.NoError(t, err)
	}()

	// Wait for the first job to take the slot.
	require.Eventually(t, engine.InProgress, time.Second, time.Millisecond)

	_, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "second"}, 99)
	assert.ErrorIs(t, err, ErrBroadcastInProgress)

	<-done
	assert.False(t, engine.InProgress())
}

func TestBroadcastRecordsJob(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	seedUsers(t, store, 1, 2)
	engine := NewBroadcaster(store, transport, 2, nil)

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)

	job, ok := store.broadcasts[report.JobID]
	require.True(t, ok)
	assert.Equal(t, int64(99), job.OperatorID)
	assert.Equal(t, 2, job.TargetCount)
	assert.Equal(t, 2, job.Delivered)
	assert.True(t, job.FinishedAt.Valid, "finished jobs must carry a completion time")
}

func TestBroadcastNoTargets(t *testing.T) {
	store := newMemStore()
	engine := NewBroadcaster(store, newMemTransport(), 2, nil)

	report, err := engine.Broadcast(context.Background(), Content{Kind: KindText, Text: "hi"}, 99)
	require.NoError(t, err)
	assert.Zero(t, report.Targets)
	assert.Zero(t, report.Delivered)
}
