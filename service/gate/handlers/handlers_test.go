package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"PPresence/service/directory"
	"PPresence/service/gate"

	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	Target string
	Meta   map[string]string
}

type fakeNotifier struct {
	calls chan notifyCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan notifyCall, 16)}
}

func (f *fakeNotifier) Notify(_ context.Context, target, _, _ string, meta map[string]string) {
	f.calls <- notifyCall{Target: target, Meta: meta}
}

type fixture struct {
	t        *testing.T
	s        *gate.Server
	dir      *directory.LocalDirectory
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := directory.NewLocalDirectory([]byte("test-secret"))
	notifier := newFakeNotifier()
	s := gate.NewServer(gate.ServerConf{
		SendQueueSize: 32,
		SweepEvery:    time.Hour,
	}, dir, notifier, nil)
	t.Cleanup(s.Close)
	RegisterAll(s)
	return &fixture{t: t, s: s, dir: dir, notifier: notifier}
}

func (fx *fixture) dispatch(c *gate.Client, event string, data map[string]any) error {
	return fx.s.DispatchFrame(&gate.Frame{Event: event, Data: data}, c)
}

// join authenticates against the directory and registers the client.
func (fx *fixture) join(c *gate.Client, userID string) {
	fx.t.Helper()
	tok, err := fx.dir.IssueToken(userID)
	require.NoError(fx.t, err)
	require.NoError(fx.t, fx.dispatch(c, gate.EventJoin, map[string]any{
		"userId":    userID,
		"authToken": tok,
	}))
	env := fx.next(c)
	require.Equal(fx.t, gate.EventJoined, env.Event)
}

func (fx *fixture) next(c *gate.Client) *gate.Envelope {
	fx.t.Helper()
	select {
	case data := <-c.Send:
		env := &gate.Envelope{}
		require.NoError(fx.t, json.Unmarshal(data, env))
		return env
	case <-time.After(time.Second):
		fx.t.Fatal("expected an outbound event")
		return nil
	}
}

func (fx *fixture) expectNoPush() {
	fx.t.Helper()
	select {
	case call := <-fx.notifier.calls:
		fx.t.Fatalf("unexpected push dispatch: %+v", call)
	case <-time.After(100 * time.Millisecond):
	}
}

func (fx *fixture) expectOnePush(target string) notifyCall {
	fx.t.Helper()
	select {
	case call := <-fx.notifier.calls:
		require.Equal(fx.t, target, call.Target)
		return call
	case <-time.After(2 * time.Second):
		fx.t.Fatal("expected a push dispatch")
		return notifyCall{}
	}
}

func TestJoinValidation(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)

	err := fx.dispatch(c, gate.EventJoin, map[string]any{"userId": "5"})
	require.Error(t, err)
	require.False(t, fx.s.Registry().IsConnected("5"))
}

func TestJoinRejectsBadToken(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)

	err := fx.dispatch(c, gate.EventJoin, map[string]any{
		"userId":    "5",
		"authToken": "not-a-jwt",
	})
	require.Error(t, err)
	require.False(t, fx.s.Registry().IsConnected("5"))
}

func TestJoinAcceptsNumericUserID(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)

	tok, err := fx.dir.IssueToken("5")
	require.NoError(t, err)
	// Clients send ids as raw JSON numbers; they coerce to the same
	// identity.
	require.NoError(t, fx.dispatch(c, gate.EventJoin, map[string]any{
		"userId":    float64(5),
		"authToken": tok,
	}))
	require.True(t, fx.s.Registry().IsConnected("5"))
}

func TestJoinSupersedesEarlierConnection(t *testing.T) {
	fx := newFixture(t)
	first := gate.NewClient("c1", nil, 16)
	second := gate.NewClient("c2", nil, 16)

	fx.join(first, "5")
	fx.join(second, "5")

	got, ok := fx.s.Registry().Lookup("5")
	require.True(t, ok)
	require.Equal(t, "c2", got.ConnID)
}

func TestJoinChatAndLeaveChat(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)
	fx.join(c, "5")

	require.NoError(t, fx.dispatch(c, gate.EventJoinChat, map[string]any{
		"userA": "5", "userB": "9",
	}))
	require.Equal(t, gate.EventChatJoined, fx.next(c).Event)
	require.True(t, fx.s.Sessions().IsActiveBetween("9", "5"))

	require.NoError(t, fx.dispatch(c, gate.EventLeaveChat, map[string]any{
		"userA": "9", "userB": "5",
	}))
	require.Equal(t, gate.EventChatLeft, fx.next(c).Event)
	require.False(t, fx.s.Sessions().IsActiveBetween("5", "9"))
}

func TestSendMessageValidation(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)
	fx.join(c, "5")

	err := fx.dispatch(c, gate.EventSendMessage, map[string]any{
		"senderId": "5", "receiverId": "9",
	})
	require.Error(t, err)
}

// One-sided join_chat: receiver is connected but never joined the
// conversation, so the message goes live and still pushes.
func TestScenarioOneSidedJoinChat(t *testing.T) {
	fx := newFixture(t)
	sender := gate.NewClient("c5", nil, 16)
	receiver := gate.NewClient("c9", nil, 16)
	fx.join(sender, "5")
	fx.join(receiver, "9")

	require.NoError(t, fx.dispatch(sender, gate.EventJoinChat, map[string]any{
		"userA": "5", "userB": "9",
	}))
	fx.next(sender) // chat_joined

	require.NoError(t, fx.dispatch(sender, gate.EventSendMessage, map[string]any{
		"senderId": "5", "receiverId": "9", "body": "hi",
	}))

	ack := fx.next(sender)
	require.Equal(t, gate.EventMessageSent, ack.Event)
	require.Equal(t, string(gate.LiveAndNotify), ack.Data.(map[string]any)["classification"])

	msg := fx.next(receiver)
	require.Equal(t, gate.EventNewMessage, msg.Event)
	data := msg.Data.(map[string]any)
	require.Equal(t, false, data["isActiveChat"])
	require.Equal(t, true, data["showNotification"])

	fx.expectOnePush("9")
}

// Mutual join_chat: live only, no push.
func TestScenarioMutualJoinChat(t *testing.T) {
	fx := newFixture(t)
	sender := gate.NewClient("c5", nil, 16)
	receiver := gate.NewClient("c9", nil, 16)
	fx.join(sender, "5")
	fx.join(receiver, "9")

	require.NoError(t, fx.dispatch(sender, gate.EventJoinChat, map[string]any{
		"userA": "5", "userB": "9",
	}))
	fx.next(sender)
	require.NoError(t, fx.dispatch(receiver, gate.EventJoinChat, map[string]any{
		"userA": "9", "userB": "5",
	}))
	fx.next(receiver)

	require.NoError(t, fx.dispatch(sender, gate.EventSendMessage, map[string]any{
		"senderId": "5", "receiverId": "9", "body": "hi",
	}))

	ack := fx.next(sender)
	require.Equal(t, string(gate.LiveOnly), ack.Data.(map[string]any)["classification"])

	msg := fx.next(receiver)
	require.Equal(t, true, msg.Data.(map[string]any)["isActiveChat"])

	fx.expectNoPush()
}

// Receiver never connects: notification only, no live emit.
func TestScenarioOfflineReceiver(t *testing.T) {
	fx := newFixture(t)
	sender := gate.NewClient("c5", nil, 16)
	fx.join(sender, "5")

	require.NoError(t, fx.dispatch(sender, gate.EventSendMessage, map[string]any{
		"senderId": "5", "receiverId": "9", "body": "hi",
	}))

	ack := fx.next(sender)
	require.Equal(t, string(gate.NotifyOnly), ack.Data.(map[string]any)["classification"])

	fx.expectOnePush("9")
	fx.expectNoPush()
}

func TestTypingRelaysToReceiver(t *testing.T) {
	fx := newFixture(t)
	sender := gate.NewClient("c5", nil, 16)
	receiver := gate.NewClient("c9", nil, 16)
	fx.join(sender, "5")
	fx.join(receiver, "9")

	require.NoError(t, fx.dispatch(sender, gate.EventTyping, map[string]any{
		"receiverId": "9", "isTyping": true,
	}))

	env := fx.next(receiver)
	require.Equal(t, gate.EventUserTyping, env.Event)
	data := env.Data.(map[string]any)
	require.Equal(t, "5", data["userId"])
	require.Equal(t, true, data["isTyping"])
}

func TestTypingToOfflineReceiverIsNoop(t *testing.T) {
	fx := newFixture(t)
	sender := gate.NewClient("c5", nil, 16)
	fx.join(sender, "5")

	require.NoError(t, fx.dispatch(sender, gate.EventTyping, map[string]any{
		"receiverId": "404", "isTyping": true,
	}))
}

func TestUnknownEventRejected(t *testing.T) {
	fx := newFixture(t)
	c := gate.NewClient("c1", nil, 16)
	fx.join(c, "5")

	err := fx.dispatch(c, "teleport", nil)
	require.Error(t, err)
}
