package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-relay/internal/database"
)

func testInbound(userID int64, messageID int, text string) InboundMessage {
	return InboundMessage{
		UserID:      userID,
		DisplayName: "Alice",
		Username:    "alice",
		MessageID:   messageID,
		Content:     Content{Kind: KindText, Text: text},
		ReceivedAt:  testNow(),
	}
}

func TestInboundRouteForwardsAndCorrelates(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	router := NewInboundRouter(store, transport, NewGate(store, nil), []int64{-500}, nil)
	ctx := context.Background()

	result, err := router.Route(ctx, testInbound(100, 7, "hello"))
	require.NoError(t, err)
	assert.False(t, result.Suppressed)
	require.Len(t, result.Forwarded, 1)
	assert.Equal(t, int64(-500), result.Forwarded[0].OperatorChatID)

	// Header then copy land in the operator chat.
	sent := transport.sentTo(-500)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Content.Text, "Alice")
	assert.Contains(t, sent[0].Content.Text, "User ID: 100")
	assert.True(t, sent[1].IsCopy)

	// The copy resolves back to the origin.
	corr, err := store.GetCorrelation(ctx, -500, result.Forwarded[0].ForwardedMessageID)
	require.NoError(t, err)
	require.NotNil(t, corr)
	assert.Equal(t, int64(100), corr.UserID)
	assert.Equal(t, 7, corr.UserMessageID)

	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, database.DeliveryDelivered, messages[0].Delivery)
}

func TestInboundRouteFanOut(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	destinations := []int64{10, 20, 30}
	router := NewInboundRouter(store, transport, NewGate(store, nil), destinations, nil)

	result, err := router.Route(context.Background(), testInbound(100, 7, "hello"))
	require.NoError(t, err)
	require.Len(t, result.Forwarded, 3)

	// Each destination gets its own correlation entry keyed by its copy.
	for _, fwd := range result.Forwarded {
		corr, err := store.GetCorrelation(context.Background(), fwd.OperatorChatID, fwd.ForwardedMessageID)
		require.NoError(t, err)
		require.NotNil(t, corr)
		assert.Equal(t, int64(100), corr.UserID)
	}
}

func TestInboundRouteBannedSuppressed(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	gate := NewGate(store, nil)
	router := NewInboundRouter(store, transport, gate, []int64{-500}, nil)
	ctx := context.Background()

	require.NoError(t, gate.Ban(ctx, 100, "spam", 1))

	result, err := router.Route(ctx, testInbound(100, 7, "let me in"))
	require.NoError(t, err)
	assert.True(t, result.Suppressed)
	assert.Empty(t, result.Forwarded)
	assert.Empty(t, transport.sentTo(-500), "banned traffic must not reach operators")

	// Persisted for audit with the suppressed status.
	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, database.DeliverySuppressed, messages[0].Delivery)
}

func TestInboundRouteForwardsAgainAfterUnban(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	gate := NewGate(store, nil)
	router := NewInboundRouter(store, transport, gate, []int64{-500}, nil)
	ctx := context.Background()

	require.NoError(t, gate.Ban(ctx, 100, "spam", 1))

	result, err := router.Route(ctx, testInbound(100, 7, "let me in"))
	require.NoError(t, err)
	assert.True(t, result.Suppressed)
	assert.Empty(t, transport.sentTo(-500))

	require.NoError(t, gate.Unban(ctx, 100, 1))

	// A fresh message after the unban goes through normally.
	result, err = router.Route(ctx, testInbound(100, 8, "sorry about that"))
	require.NoError(t, err)
	assert.False(t, result.Suppressed)
	require.Len(t, result.Forwarded, 1)
	assert.NotEmpty(t, transport.sentTo(-500))

	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, database.DeliverySuppressed, messages[0].Delivery)
	assert.Equal(t, database.DeliveryDelivered, messages[1].Delivery)
}

func TestInboundRoutePartialDestinationFailure(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	transport.failChat(20, errors.New("chat unreachable"))
	router := NewInboundRouter(store, transport, NewGate(store, nil), []int64{10, 20, 30}, nil)

	result, err := router.Route(context.Background(), testInbound(100, 7, "hello"))
	require.NoError(t, err, "one unreachable destination must not fail the route")
	require.Len(t, result.Forwarded, 2)

	messages, err := store.ListMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, database.DeliveryDelivered, messages[0].Delivery)
}

func TestInboundRouteAllDestinationsFail(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	transport.failChat(-500, errors.New("chat unreachable"))
	router := NewInboundRouter(store, transport, NewGate(store, nil), []int64{-500}, nil)

	_, err := router.Route(context.Background(), testInbound(100, 7, "hello"))
	assert.ErrorIs(t, err, ErrTransport)

	// The message stays undelivered, never silently dropped.
	messages, lerr := store.ListMessages(context.Background())
	require.NoError(t, lerr)
	require.Len(t, messages, 1)
	assert.Equal(t, database.DeliveryUndelivered, messages[0].Delivery)
}

func TestInboundRouteTracksActivity(t *testing.T) {
	store := newMemStore()
	transport := newMemTransport()
	router := NewInboundRouter(store, transport, NewGate(store, nil), []int64{-500}, nil)
	ctx := context.Background()

	_, err := router.Route(ctx, testInbound(100, 7, "one"))
	require.NoError(t, err)
	_, err = router.Route(ctx, testInbound(100, 8, "two"))
	require.NoError(t, err)

	user, err := store.GetUser(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(2), user.MessageCount)
	assert.Equal(t, "Alice", user.DisplayName)
}

func TestInboundRoutePersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.failNext("save_message", errors.New("disk full"))
	router := NewInboundRouter(store, newMemTransport(), NewGate(store, nil), []int64{-500}, nil)

	_, err := router.Route(context.Background(), testInbound(100, 7, "hello"))
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save_message", pe.Op)
}
