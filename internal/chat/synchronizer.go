// Package chat keeps a local copy of the shared group thread in sync
// with the backend by polling, and sends messages optimistically.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/models"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the thread is refetched
const DefaultPollInterval = 2 * time.Second

// ErrStopped is returned by operations on a synchronizer after Stop
var ErrStopped = errors.New("chat synchronizer stopped")

// State is the observable chat state
type State struct {
	Messages []models.Message // display order
	Loading  bool             // a send is in flight
}

// pendingSend tracks a locally sent message until the backend confirms it
type pendingSend struct {
	msg      models.Message
	serverID string // from the ack, or matched from a fetched list
	acked    bool
	ackSeq   uint64 // latest fetch sequence issued when the ack arrived
	failed   bool
}

// Synchronizer owns the chat state for one consuming view.
// A fetch response is applied only if no later-issued fetch has been
// applied before it.
type Synchronizer struct {
	client   tripapi.ChatClient
	user     models.User
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	remote  []models.Message
	known   map[string]bool // ids in the last applied list
	pending []*pendingSend
	sending int
	issued  uint64
	applied uint64 // sequence of the last applied list, 0 before the first
	started bool
	stopped bool
	updates chan struct{}
	cancel  context.CancelFunc

	loopDone chan struct{}
	inflight sync.WaitGroup
}

// New creates a synchronizer for user. The user is fixed for the
// lifetime of the synchronizer.
func New(client tripapi.ChatClient, user models.User, interval time.Duration, logger *zap.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Synchronizer{
		client:   client,
		user:     user,
		interval: interval,
		logger:   logging.OrNop(logger).With(zap.String("component", "chat")),
		now:      time.Now,
		known:    make(map[string]bool),
		updates:  make(chan struct{}, 1),
	}
}

// Updates signals state changes. Signals coalesce, so read Snapshot
// after each one. The channel is closed by Stop.
func (s *Synchronizer) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns a copy of the current state
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Messages: s.viewLocked(),
		Loading:  s.sending > 0,
	}
}

// Start fetches immediately and then on every interval until Stop or
// ctx is done. Ticks do not wait for an earlier fetch to finish.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	go s.run(loopCtx)
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.loopDone)

	s.poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll issues one fetch in the background. Stopping the loop does not
// abort it; its result is discarded instead.
func (s *Synchronizer) poll(ctx context.Context) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.FetchMessages(context.WithoutCancel(ctx))
		if err != nil && !errors.Is(err, ErrStopped) {
			s.logger.Warn("poll failed", zap.Error(err))
		}
	}()
}

// Stop tears the synchronizer down. The poll loop ends, Updates is
// closed, and responses that arrive later are dropped.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	close(s.updates)
}

// Wait blocks until the poll loop and its in-flight fetches have finished
func (s *Synchronizer) Wait() {
	s.mu.Lock()
	done := s.loopDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	s.inflight.Wait()
}

// FetchMessages requests the full thread and applies it unless a fetch
// issued after it has already been applied.
func (s *Synchronizer) FetchMessages(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	remote, err := s.client.GetMessages(ctx)
	if err != nil {
		return err
	}

	s.apply(seq, remote)
	return nil
}

func (s *Synchronizer) apply(seq uint64, remote []tripapi.RemoteMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.logger.Debug("dropping response after teardown", zap.Uint64("seq", seq))
		return
	}
	if seq <= s.applied {
		s.logger.Debug("dropping stale response", zap.Uint64("seq", seq), zap.Uint64("applied", s.applied))
		return
	}

	// Before the first list there is nothing to tell new messages from
	// old ones, so content matching is skipped.
	var previous map[string]bool
	if s.applied > 0 {
		previous = s.known
	}
	s.applied = seq
	s.remote = make([]models.Message, 0, len(remote))
	s.known = make(map[string]bool, len(remote))
	for _, r := range remote {
		s.remote = append(s.remote, s.toMessage(r))
		s.known[r.ID] = true
	}

	s.reconcileLocked(seq, previous)
	s.notifyLocked()
}

// reconcileLocked drops pending sends the applied list accounts for.
// A pending entry is settled when its server id is present, when a
// fetch issued after its ack or failure has been applied, or (while
// still in flight) when a message with the same author and content has
// appeared that the previous list did not have. previous is nil for the
// first applied list.
func (s *Synchronizer) reconcileLocked(seq uint64, previous map[string]bool) {
	claimed := make(map[string]bool)
	for _, p := range s.pending {
		if p.serverID != "" {
			claimed[p.serverID] = true
		}
	}

	kept := s.pending[:0]
	for _, p := range s.pending {
		switch {
		case p.serverID != "" && s.known[p.serverID]:
			continue
		case (p.acked || p.failed) && seq > p.ackSeq:
			continue
		case !p.acked && !p.failed:
			if previous == nil {
				break
			}
			if id := s.matchNewLocked(p, previous, claimed); id != "" {
				p.serverID = id
				claimed[id] = true
				continue
			}
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.pending); i++ {
		s.pending[i] = nil
	}
	s.pending = kept
}

func (s *Synchronizer) matchNewLocked(p *pendingSend, previous, claimed map[string]bool) string {
	for _, m := range s.remote {
		if previous[m.ID] || claimed[m.ID] {
			continue
		}
		if m.IsCurrentUser && m.Content == p.msg.Content && m.Image == p.msg.Image {
			return m.ID
		}
	}
	return ""
}

// SendMessage appends an optimistic message and submits it. Blank
// content without an image is ignored. Whatever the outcome, a fetch
// follows to reconcile.
func (s *Synchronizer) SendMessage(ctx context.Context, content string, image []byte) error {
	if strings.TrimSpace(content) == "" && len(image) == 0 {
		return nil
	}

	var dataURL string
	if len(image) > 0 {
		dataURL = tripapi.DataURL(image)
	}

	p := &pendingSend{
		msg: models.Message{
			ID:            "local-" + uuid.NewString(),
			User:          models.User{ID: s.user.ID, Name: models.CurrentUserName},
			Content:       content,
			Image:         dataURL,
			Timestamp:     s.now(),
			IsCurrentUser: true,
			Pending:       true,
		},
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.pending = append(s.pending, p)
	s.sending++
	s.notifyLocked()
	s.mu.Unlock()

	var (
		ack *tripapi.SendAck
		err error
	)
	if dataURL != "" {
		ack, err = s.client.SendMessageImage(ctx, s.user.ID, content, dataURL)
	} else {
		ack, err = s.client.SendMessage(ctx, s.user.ID, content)
	}

	s.mu.Lock()
	s.sending--
	p.ackSeq = s.issued
	if err != nil {
		p.failed = true
	} else {
		p.acked = true
		if ack != nil && ack.MessageID != "" {
			p.serverID = ack.MessageID
		}
	}
	s.notifyLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("send failed", zap.Error(err), zap.Bool("image", dataURL != ""))
	}

	if ferr := s.FetchMessages(ctx); ferr != nil && !errors.Is(ferr, ErrStopped) {
		s.logger.Warn("fetch after send failed", zap.Error(ferr))
	}
	return err
}

// ClearMessages asks the backend to clear the thread and empties local
// state. On failure local state is left as it was.
func (s *Synchronizer) ClearMessages(ctx context.Context) error {
	if err := s.client.ClearChat(ctx); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.remote = nil
	s.known = make(map[string]bool)
	s.pending = nil
	// Responses to fetches issued before the clear would bring messages back
	s.issued++
	s.applied = s.issued
	s.notifyLocked()
	return nil
}

func (s *Synchronizer) toMessage(r tripapi.RemoteMessage) models.Message {
	mine := r.UserID == s.user.ID
	name := models.MemberName
	if mine {
		name = models.CurrentUserName
	}
	return models.Message{
		ID:            r.ID,
		User:          models.User{ID: r.UserID, Name: name},
		Content:       r.Content,
		Image:         r.Image,
		Timestamp:     r.Timestamp,
		IsCurrentUser: mine,
	}
}

func (s *Synchronizer) viewLocked() []models.Message {
	view := make([]models.Message, 0, len(s.remote)+len(s.pending))
	view = append(view, s.remote...)
	for _, p := range s.pending {
		view = append(view, p.msg)
	}
	return view
}

func (s *Synchronizer) notifyLocked() {
	if s.stopped {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
