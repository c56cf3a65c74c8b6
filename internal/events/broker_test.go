package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"krida.io/dealdesk/internal/domain"
	"krida.io/dealdesk/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "console"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func nextWithin(t *testing.T, sub *Subscription, d time.Duration) domain.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	return ev
}

func TestPublishReachesTopicSubscriber(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("d_1")
	defer sub.Close()

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentRequested})

	ev := nextWithin(t, sub, time.Second)
	require.Equal(t, domain.EventDocumentRequested, ev.Type)
}

func TestTopicIsolation(t *testing.T) {
	b := NewBroker()
	mine := b.Subscribe("d_1")
	defer mine.Close()
	other := b.Subscribe("d_2")
	defer other.Close()

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})

	ev := nextWithin(t, mine, time.Second)
	require.Equal(t, domain.EventDocumentReceived, ev.Type)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := other.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded,
		"a subscriber of another deal must not receive the event")
}

func TestFirehoseReceivesEveryDeal(t *testing.T) {
	b := NewBroker()
	all := b.Subscribe(TopicAllDeals)
	defer all.Close()

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})
	b.Publish("d_2", domain.Event{Type: domain.EventTermOptimized})

	require.Equal(t, domain.EventDocumentReceived, nextWithin(t, all, time.Second).Type)
	require.Equal(t, domain.EventTermOptimized, nextWithin(t, all, time.Second).Type)
}

func TestFanOutDeliversToEverySubscriber(t *testing.T) {
	b := NewBroker()
	subs := make([]*Subscription, 3)
	for i := range subs {
		subs[i] = b.Subscribe("d_1")
		defer subs[i].Close()
	}

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentVerified})

	for _, sub := range subs {
		require.Equal(t, domain.EventDocumentVerified, nextWithin(t, sub, time.Second).Type)
	}
}

func TestPerSubscriberFIFO(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("d_1")
	defer sub.Close()

	types := []domain.EventType{
		domain.EventDocumentRequested,
		domain.EventDocumentReceived,
		domain.EventDocumentVerificationStarted,
		domain.EventDocumentVerified,
	}
	for _, typ := range types {
		b.Publish("d_1", domain.Event{Type: typ})
	}

	for _, want := range types {
		require.Equal(t, want, nextWithin(t, sub, time.Second).Type)
	}
}

func TestSlowSubscriberDoesNotBlockSiblings(t *testing.T) {
	b := NewBroker()
	slow := b.Subscribe("d_1")
	defer slow.Close()
	fast := b.Subscribe("d_1")
	defer fast.Close()

	// The slow subscriber never drains; publishes must still complete and
	// reach the fast one.
	for i := 0; i < 100; i++ {
		b.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})
	}
	for i := 0; i < 100; i++ {
		require.Equal(t, domain.EventDocumentReceived, nextWithin(t, fast, time.Second).Type)
	}
}

func TestKeepaliveOnIdle(t *testing.T) {
	b := NewBroker()
	b.SetKeepaliveInterval(20 * time.Millisecond)
	sub := b.Subscribe("d_1")
	defer sub.Close()

	ev := nextWithin(t, sub, time.Second)
	require.Equal(t, domain.EventKeepalive, ev.Type)
	require.Nil(t, ev.Data)
}

func TestRealEventPreemptsKeepalive(t *testing.T) {
	b := NewBroker()
	b.SetKeepaliveInterval(500 * time.Millisecond)
	sub := b.Subscribe("d_1")
	defer sub.Close()

	b.Publish("d_1", domain.Event{Type: domain.EventTermOptimizeStarted})

	start := time.Now()
	ev := nextWithin(t, sub, time.Second)
	require.Equal(t, domain.EventTermOptimizeStarted, ev.Type)
	require.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestCloseDetachesAndDrains(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("d_1")

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})
	sub.Close()
	require.Zero(t, b.SubscriberCount())

	// Pending events stay readable after Close, then the sentinel error.
	ev := nextWithin(t, sub, time.Second)
	require.Equal(t, domain.EventDocumentReceived, ev.Type)

	_, err := sub.Next(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionClosed)

	// Idempotent.
	sub.Close()
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("d_1")
	sub.Close()

	b.Publish("d_1", domain.Event{Type: domain.EventDocumentReceived})

	_, err := sub.Next(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestNextHonorsContext(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("d_1")
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sub.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSubscriberCountPerTopic(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("d_1")
	c := b.Subscribe(TopicAllDeals)
	require.Equal(t, 2, b.SubscriberCount())

	a.Close()
	require.Equal(t, 1, b.SubscriberCount())
	c.Close()
	require.Zero(t, b.SubscriberCount())
}
