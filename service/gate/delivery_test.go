package gate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	Target string
	Title  string
	Body   string
	Meta   map[string]string
}

type fakeNotifier struct {
	calls chan notifyCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan notifyCall, 16)}
}

func (f *fakeNotifier) Notify(_ context.Context, target, title, body string, meta map[string]string) {
	f.calls <- notifyCall{Target: target, Title: title, Body: body, Meta: meta}
}

func (f *fakeNotifier) waitOne(t *testing.T) notifyCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification dispatch")
		return notifyCall{}
	}
}

func (f *fakeNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected notification dispatch: %+v", call)
	case <-time.After(100 * time.Millisecond):
	}
}

func drainEnvelope(t *testing.T, c *Client) *Envelope {
	t.Helper()
	select {
	case data := <-c.Send:
		env := &Envelope{}
		require.NoError(t, json.Unmarshal(data, env))
		return env
	default:
		t.Fatal("expected an enqueued envelope")
		return nil
	}
}

func requireEmptyQueue(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected enqueued payload: %s", data)
	default:
	}
}

func newTestEngine(clock *fakeClock, notifier Notifier) (*DeliveryEngine, *Registry, *SessionTracker) {
	reg := NewRegistry()
	tr := newTestTracker(clock)
	return NewDeliveryEngine(reg, tr, notifier), reg, tr
}

func testMessage() OutboundMessage {
	return OutboundMessage{
		ID:         "m1",
		SenderID:   "5",
		ReceiverID: "9",
		Body:       "hello",
		CreatedAt:  time.Now().UnixMilli(),
	}
}

// The full 2x2x2 decision table: mutual session always wins, bare
// presence still notifies, busy-with-a-third-party never changes the
// outcome.
func TestClassificationMatrix(t *testing.T) {
	cases := []struct {
		name              string
		receiverConnected bool
		mutualActive      bool
		busyElsewhere     bool
		want              Outcome
	}{
		{"offline_idle", false, false, false, NotifyOnly},
		{"offline_busy", false, false, true, NotifyOnly},
		{"offline_mutual", false, true, false, LiveOnly},
		{"offline_mutual_busy", false, true, true, LiveOnly},
		{"connected_idle", true, false, false, LiveAndNotify},
		{"connected_busy", true, false, true, LiveAndNotify},
		{"connected_mutual", true, true, false, LiveOnly},
		{"connected_mutual_busy", true, true, true, LiveOnly},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			engine, reg, tr := newTestEngine(clock, newFakeNotifier())
			defer tr.Close()

			if tc.receiverConnected {
				reg.Register("9", newTestClient("c9", "9"))
			}
			if tc.mutualActive {
				tr.MarkActive("5", "9")
			}
			if tc.busyElsewhere {
				tr.MarkActive("9", "7")
			}

			require.Equal(t, tc.want, engine.Classify("5", "9"))
		})
	}
}

func TestDeliverLiveOnlySuppressesPush(t *testing.T) {
	clock := newFakeClock()
	notifier := newFakeNotifier()
	engine, reg, tr := newTestEngine(clock, notifier)
	defer tr.Close()

	receiver := newTestClient("c9", "9")
	reg.Register("9", receiver)
	tr.MarkActive("5", "9")

	outcome := engine.Deliver(context.Background(), testMessage())
	require.Equal(t, LiveOnly, outcome)

	env := drainEnvelope(t, receiver)
	require.Equal(t, EventNewMessage, env.Event)
	data := env.Data.(map[string]any)
	require.Equal(t, true, data["isActiveChat"])
	require.Equal(t, false, data["showNotification"])

	notifier.expectNone(t)
}

func TestDeliverLiveAndNotify(t *testing.T) {
	clock := newFakeClock()
	notifier := newFakeNotifier()
	engine, reg, tr := newTestEngine(clock, notifier)
	defer tr.Close()

	receiver := newTestClient("c9", "9")
	reg.Register("9", receiver)

	outcome := engine.Deliver(context.Background(), testMessage())
	require.Equal(t, LiveAndNotify, outcome)

	env := drainEnvelope(t, receiver)
	require.Equal(t, EventNewMessage, env.Event)
	data := env.Data.(map[string]any)
	require.Equal(t, false, data["isActiveChat"])
	require.Equal(t, true, data["showNotification"])

	call := notifier.waitOne(t)
	require.Equal(t, "9", call.Target)
	require.Equal(t, "m1", call.Meta["messageId"])
	require.Equal(t, "5", call.Meta["senderId"])
}

func TestDeliverNotifyOnlyWhenOffline(t *testing.T) {
	clock := newFakeClock()
	notifier := newFakeNotifier()
	engine, _, tr := newTestEngine(clock, notifier)
	defer tr.Close()

	outcome := engine.Deliver(context.Background(), testMessage())
	require.Equal(t, NotifyOnly, outcome)

	call := notifier.waitOne(t)
	require.Equal(t, "9", call.Target)
	notifier.expectNone(t)
}

func TestDeliverDegradesOnStaleHandle(t *testing.T) {
	clock := newFakeClock()
	notifier := newFakeNotifier()
	engine, reg, tr := newTestEngine(clock, notifier)
	defer tr.Close()

	// Registered but already closed: registry out of sync with transport.
	receiver := newTestClient("c9", "9")
	receiver.Close()
	reg.Register("9", receiver)

	outcome := engine.Deliver(context.Background(), testMessage())
	require.Equal(t, NotifyOnly, outcome)
	notifier.waitOne(t)
}

func TestDeliverDegradesOnFullQueue(t *testing.T) {
	clock := newFakeClock()
	notifier := newFakeNotifier()
	engine, reg, tr := newTestEngine(clock, notifier)
	defer tr.Close()

	receiver := NewClient("c9", nil, 1)
	receiver.SetUser("9")
	require.NoError(t, receiver.Enqueue([]byte("x")))
	reg.Register("9", receiver)

	outcome := engine.Deliver(context.Background(), testMessage())
	require.Equal(t, NotifyOnly, outcome)
	notifier.waitOne(t)
}
