package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var me = models.User{ID: "user-me", Name: models.CurrentUserName}

// fakeChatClient answers from swappable functions and counts calls
type fakeChatClient struct {
	mu         sync.Mutex
	getCalls   int
	sendCalls  int
	clearCalls int
	lastImage  string

	get   func(call int) ([]tripapi.RemoteMessage, error)
	send  func(userID, content string) (*tripapi.SendAck, error)
	clear func() error
}

func (f *fakeChatClient) GetMessages(ctx context.Context) ([]tripapi.RemoteMessage, error) {
	f.mu.Lock()
	f.getCalls++
	call := f.getCalls
	get := f.get
	f.mu.Unlock()
	if get == nil {
		return nil, nil
	}
	return get(call)
}

func (f *fakeChatClient) SendMessage(ctx context.Context, userID, content string) (*tripapi.SendAck, error) {
	f.mu.Lock()
	f.sendCalls++
	send := f.send
	f.mu.Unlock()
	if send == nil {
		return &tripapi.SendAck{Status: "success"}, nil
	}
	return send(userID, content)
}

func (f *fakeChatClient) SendMessageImage(ctx context.Context, userID, content, imageDataURL string) (*tripapi.SendAck, error) {
	f.mu.Lock()
	f.lastImage = imageDataURL
	f.mu.Unlock()
	return f.SendMessage(ctx, userID, content)
}

func (f *fakeChatClient) ClearChat(ctx context.Context) error {
	f.mu.Lock()
	f.clearCalls++
	clear := f.clear
	f.mu.Unlock()
	if clear == nil {
		return nil
	}
	return clear()
}

func (f *fakeChatClient) calls() (get, send, clear int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.sendCalls, f.clearCalls
}

func remote(id, userID, content string) tripapi.RemoteMessage {
	return tripapi.RemoteMessage{
		ID:        id,
		UserID:    userID,
		Content:   content,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func contents(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestFetchMessages_MapsOwnership(t *testing.T) {
	client := &fakeChatClient{
		get: func(int) ([]tripapi.RemoteMessage, error) {
			return []tripapi.RemoteMessage{
				remote("1", "user-other", "Where to?"),
				remote("2", me.ID, "Somewhere warm"),
			}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	require.NoError(t, s.FetchMessages(context.Background()))

	state := s.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.MemberName, state.Messages[0].User.Name)
	assert.False(t, state.Messages[0].IsCurrentUser)
	assert.Equal(t, models.CurrentUserName, state.Messages[1].User.Name)
	assert.True(t, state.Messages[1].IsCurrentUser)
	assert.False(t, state.Loading)
}

func TestFetchMessages_ErrorKeepsState(t *testing.T) {
	fail := false
	client := &fakeChatClient{
		get: func(int) ([]tripapi.RemoteMessage, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return []tripapi.RemoteMessage{remote("1", "user-other", "hi")}, nil
		},
	}
	s := New(client, me, time.Second, nil)
	require.NoError(t, s.FetchMessages(context.Background()))

	fail = true
	assert.Error(t, s.FetchMessages(context.Background()))
	assert.Equal(t, []string{"hi"}, contents(s.Snapshot().Messages))
}

func TestSendMessage_OptimisticBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		send: func(userID, content string) (*tripapi.SendAck, error) {
			<-release
			return &tripapi.SendAck{Status: "success", MessageID: "7"}, nil
		},
		get: func(int) ([]tripapi.RemoteMessage, error) {
			return []tripapi.RemoteMessage{remote("7", me.ID, "Hello")}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.SendMessage(context.Background(), "Hello", nil)
	}()

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)

	state := s.Snapshot()
	assert.True(t, state.Loading)
	assert.Equal(t, "Hello", state.Messages[0].Content)
	assert.True(t, state.Messages[0].IsCurrentUser)
	assert.True(t, state.Messages[0].Pending)
	assert.Equal(t, models.CurrentUserName, state.Messages[0].User.Name)

	close(release)
	require.NoError(t, <-done)

	state = s.Snapshot()
	assert.False(t, state.Loading)
	require.Len(t, state.Messages, 1, "confirmed message must not be duplicated")
	assert.Equal(t, "7", state.Messages[0].ID)
	assert.False(t, state.Messages[0].Pending)
}

func TestSendMessage_BlankIsNoop(t *testing.T) {
	client := &fakeChatClient{}
	s := New(client, me, time.Second, nil)

	require.NoError(t, s.SendMessage(context.Background(), "   ", nil))
	require.NoError(t, s.SendMessage(context.Background(), "", nil))

	assert.Empty(t, s.Snapshot().Messages)
	_, sends, _ := client.calls()
	assert.Zero(t, sends)
}

func TestSendMessage_ImageOnly(t *testing.T) {
	client := &fakeChatClient{}
	s := New(client, me, time.Second, nil)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	require.NoError(t, s.SendMessage(context.Background(), "", png))

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.sendCalls)
	assert.Contains(t, client.lastImage, "data:image/png;base64,")
}

func TestSendMessage_PendingSurvivesPoll(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		send: func(userID, content string) (*tripapi.SendAck, error) {
			<-release
			return &tripapi.SendAck{Status: "success", MessageID: "2"}, nil
		},
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			msgs := []tripapi.RemoteMessage{remote("1", "user-other", "first")}
			if call > 1 {
				msgs = append(msgs, remote("2", me.ID, "second"))
			}
			return msgs, nil
		},
	}
	s := New(client, me, time.Second, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.SendMessage(context.Background(), "second", nil)
	}()
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)

	// The poll does not include the send yet
	require.NoError(t, s.FetchMessages(context.Background()))
	state := s.Snapshot()
	assert.Equal(t, []string{"first", "second"}, contents(state.Messages))
	assert.True(t, state.Messages[1].Pending)

	close(release)
	require.NoError(t, <-done)

	state = s.Snapshot()
	assert.Equal(t, []string{"first", "second"}, contents(state.Messages))
	assert.False(t, state.Messages[1].Pending)
}

func TestSendMessage_InFlightMatchedByContent(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		send: func(userID, content string) (*tripapi.SendAck, error) {
			<-release
			return &tripapi.SendAck{Status: "success"}, nil
		},
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			if call == 1 {
				return []tripapi.RemoteMessage{}, nil
			}
			return []tripapi.RemoteMessage{remote("9", me.ID, "Hello")}, nil
		},
	}
	s := New(client, me, time.Second, nil)
	require.NoError(t, s.FetchMessages(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- s.SendMessage(context.Background(), "Hello", nil)
	}()
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)

	// Backend stored the message before acknowledging it
	require.NoError(t, s.FetchMessages(context.Background()))
	state := s.Snapshot()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "9", state.Messages[0].ID)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Messages, 1)
}

func TestSendMessage_EarlierIdenticalMessageKeepsPending(t *testing.T) {
	fetchRelease := make(chan struct{})
	sendRelease := make(chan struct{})
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			if call == 1 {
				<-fetchRelease
				return []tripapi.RemoteMessage{remote("1", me.ID, "ok")}, nil
			}
			return []tripapi.RemoteMessage{
				remote("1", me.ID, "ok"),
				remote("2", me.ID, "ok"),
			}, nil
		},
		send: func(userID, content string) (*tripapi.SendAck, error) {
			<-sendRelease
			return &tripapi.SendAck{Status: "success", MessageID: "2"}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	fetched := make(chan error, 1)
	go func() {
		fetched <- s.FetchMessages(context.Background())
	}()
	require.Eventually(t, func() bool {
		get, _, _ := client.calls()
		return get == 1
	}, time.Second, 5*time.Millisecond)

	sent := make(chan error, 1)
	go func() {
		sent <- s.SendMessage(context.Background(), "ok", nil)
	}()
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)

	// The first list already holds an "ok" from this user, sent long before
	close(fetchRelease)
	require.NoError(t, <-fetched)

	state := s.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "1", state.Messages[0].ID)
	assert.True(t, state.Messages[1].Pending, "new send must stay visible")

	close(sendRelease)
	require.NoError(t, <-sent)

	state = s.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "2", state.Messages[1].ID)
	assert.False(t, state.Messages[1].Pending)
}

func TestSendMessage_FailureRemovedByNextFetch(t *testing.T) {
	var mu sync.Mutex
	fetchFails := true
	client := &fakeChatClient{
		send: func(userID, content string) (*tripapi.SendAck, error) {
			return nil, &tripapi.StatusError{Method: "POST", Path: "/sendMessage", StatusCode: 500}
		},
		get: func(int) ([]tripapi.RemoteMessage, error) {
			mu.Lock()
			defer mu.Unlock()
			if fetchFails {
				return nil, errors.New("backend down")
			}
			return []tripapi.RemoteMessage{}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	err := s.SendMessage(context.Background(), "lost", nil)
	var statusErr *tripapi.StatusError
	require.ErrorAs(t, err, &statusErr)

	// The follow-up fetch failed too, so the phantom is still shown
	state := s.Snapshot()
	assert.False(t, state.Loading)
	assert.Equal(t, []string{"lost"}, contents(state.Messages))

	mu.Lock()
	fetchFails = false
	mu.Unlock()

	require.NoError(t, s.FetchMessages(context.Background()))
	assert.Empty(t, s.Snapshot().Messages)
}

func TestFetchMessages_DropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			if call == 1 {
				<-release
				return []tripapi.RemoteMessage{remote("1", "user-other", "old")}, nil
			}
			return []tripapi.RemoteMessage{
				remote("1", "user-other", "old"),
				remote("2", "user-other", "new"),
			}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.FetchMessages(context.Background())
	}()
	require.Eventually(t, func() bool {
		get, _, _ := client.calls()
		return get == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.FetchMessages(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"old", "new"}, contents(s.Snapshot().Messages))
}

func TestClearMessages(t *testing.T) {
	tests := []struct {
		name     string
		clearErr error
		want     []string
	}{
		{name: "success empties state", want: []string{}},
		{name: "failure keeps state", clearErr: errors.New("boom"), want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeChatClient{
				get: func(int) ([]tripapi.RemoteMessage, error) {
					return []tripapi.RemoteMessage{
						remote("1", "user-other", "a"),
						remote("2", me.ID, "b"),
					}, nil
				},
				clear: func() error { return tt.clearErr },
			}
			s := New(client, me, time.Second, nil)
			require.NoError(t, s.FetchMessages(context.Background()))

			err := s.ClearMessages(context.Background())
			if tt.clearErr != nil {
				assert.ErrorIs(t, err, tt.clearErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, contents(s.Snapshot().Messages))
		})
	}
}

func TestStart_PollsOnInterval(t *testing.T) {
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			return []tripapi.RemoteMessage{remote("1", "user-other", "ping")}, nil
		},
	}
	s := New(client, me, 10*time.Millisecond, nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		get, _, _ := client.calls()
		return get >= 3
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Wait()

	assert.Equal(t, []string{"ping"}, contents(s.Snapshot().Messages))
	_, open := <-s.Updates()
	assert.False(t, open, "updates should be closed after Stop")
}

func TestStart_SlowBackendStillApplies(t *testing.T) {
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			time.Sleep(30 * time.Millisecond)
			return []tripapi.RemoteMessage{remote("1", "user-other", "slow")}, nil
		},
	}
	s := New(client, me, 10*time.Millisecond, nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Messages) == 1
	}, 2*time.Second, 5*time.Millisecond, "responses slower than the interval must still be applied")

	s.Stop()
	s.Wait()

	assert.Equal(t, []string{"slow"}, contents(s.Snapshot().Messages))
}

func TestClearMessages_DropsResponseIssuedBefore(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			if call == 1 {
				<-release
				return []tripapi.RemoteMessage{remote("1", "user-other", "before clear")}, nil
			}
			return []tripapi.RemoteMessage{}, nil
		},
	}
	s := New(client, me, time.Second, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.FetchMessages(context.Background())
	}()
	require.Eventually(t, func() bool {
		get, _, _ := client.calls()
		return get == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.ClearMessages(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, s.Snapshot().Messages)
}

func TestStop_DiscardsLateResponse(t *testing.T) {
	release := make(chan struct{})
	client := &fakeChatClient{
		get: func(call int) ([]tripapi.RemoteMessage, error) {
			<-release
			return []tripapi.RemoteMessage{remote("1", "user-other", "late")}, nil
		},
	}
	s := New(client, me, time.Hour, nil)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		get, _, _ := client.calls()
		return get == 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	close(release)
	s.Wait()

	assert.Empty(t, s.Snapshot().Messages)
	assert.ErrorIs(t, s.FetchMessages(context.Background()), ErrStopped)
	assert.ErrorIs(t, s.SendMessage(context.Background(), "after", nil), ErrStopped)
}

func TestUpdates_Signalled(t *testing.T) {
	client := &fakeChatClient{
		get: func(int) ([]tripapi.RemoteMessage, error) {
			return []tripapi.RemoteMessage{remote("1", "user-other", "hi")}, nil
		},
	}
	s := New(client, me, time.Second, nil)
	defer s.Stop()

	require.NoError(t, s.FetchMessages(context.Background()))

	select {
	case _, ok := <-s.Updates():
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected an update signal")
	}
}
