package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
	"github.com/jaminalder/tictactoe-engine/internal/entity"
	"github.com/jaminalder/tictactoe-engine/internal/repository"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
	ErrClosed   = errors.New("service closed")
)

// computerTimeout bounds the storage round trip of a deferred computer move.
const computerTimeout = 5 * time.Second

// GameState is the session tracked per game.
type GameState = entity.Game

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// pending is a scheduled computer move, valid only while the game is still
// at version.
type pending struct {
	version uint64
	timer   *time.Timer
}

// Option configures a Service.
type Option func(*Service)

// WithComputerDelay defers computer replies by d. Zero replies within the
// same Play call.
func WithComputerDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithRenderer sets the function producing broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithRand sets the source used by easy opponents.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// Service manages games, their computer opponents and subscribers. All game
// access is serialised by mu.
type Service struct {
	mu      sync.Mutex
	logger  *slog.Logger
	repo    gameRepo
	subs    map[string]map[*subscriber]struct{}
	pending map[string]pending
	render  func(GameState) []byte
	delay   time.Duration
	rng     *rand.Rand
	now     func() time.Time
	closed  bool
}

// NewService returns a service storing games in repo. Without options the
// computer replies within the same Play call and broadcasts carry no payload.
func NewService(logger *slog.Logger, repo gameRepo, opts ...Option) *Service {
	s := &Service{
		logger:  logger.With("component", "app"),
		repo:    repo,
		subs:    make(map[string]map[*subscriber]struct{}),
		pending: make(map[string]pending),
		render:  func(GameState) []byte { return nil },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and stores a new game in mode with X to move.
func (s *Service) CreateGame(ctx context.Context, mode domain.Mode) (*GameState, error) {
	ctrl := s.controller(domain.State{})
	ctrl.Restart(mode)

	now := s.now()
	gs := &GameState{ID: uuid.NewString(), State: ctrl.State(), Created: now, Updated: now}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.repo.CreateOrUpdate(ctx, gs); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.logger.Debug("game created", "gameID", gs.ID, "mode", mode.String())
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state.
func (s *Service) Get(ctx context.Context, id string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, id)
}

// Restart clears the board of game id and switches it to mode. A pending
// computer move is cancelled.
func (s *Service) Restart(ctx context.Context, id string, mode domain.Mode) (*GameState, error) {
	s.mu.Lock()
	gs, err := s.loadLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	ctrl := s.controller(gs.State)
	ctrl.Restart(mode)
	s.cancelLocked(id)

	if err = s.saveLocked(ctx, gs, ctrl); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	cp := *gs
	s.broadcastLocked(id, s.render(cp))
	s.mu.Unlock()

	s.logger.Debug("game restarted", "gameID", id, "mode", mode.String())
	return &cp, nil
}

// Play submits a human move to game id. Illegal moves come back as a
// Rejected outcome with a nil error; errors report a missing game or a
// storage failure.
func (s *Service) Play(ctx context.Context, id string, index int) (domain.Outcome, *GameState, error) {
	log := s.logger.With("method", "Play", "gameID", id)

	s.mu.Lock()
	gs, err := s.loadLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return domain.Outcome{}, nil, err
	}

	ctrl := s.controller(gs.State)
	// a game loaded from storage may still owe a computer move nobody scheduled
	var caughtUp bool
	if ctrl.ComputerPending() {
		if s.delay == 0 {
			_, caughtUp = ctrl.ComputerMove(gs.State.Version)
		} else if _, ok := s.pending[id]; !ok && !s.closed {
			s.scheduleLocked(id, gs.State.Version)
		}
	}

	var out domain.Outcome
	if s.delay > 0 {
		out = ctrl.Play(index)
	} else {
		out = ctrl.SubmitMove(index)
	}

	if out.Kind == domain.Rejected {
		// the owed reply stands even when the human move does not
		if caughtUp {
			if err = s.saveLocked(ctx, gs, ctrl); err != nil {
				s.mu.Unlock()
				return domain.Outcome{}, nil, err
			}
			s.broadcastLocked(id, s.render(*gs))
		}
		cp := *gs
		s.mu.Unlock()
		log.Debug("move rejected", "cell", index, "reason", out.Reason)
		return out, &cp, nil
	}

	if err = s.saveLocked(ctx, gs, ctrl); err != nil {
		s.mu.Unlock()
		return domain.Outcome{}, nil, err
	}

	if ctrl.ComputerPending() && !s.closed {
		s.scheduleLocked(id, gs.State.Version)
	}

	cp := *gs
	s.broadcastLocked(id, s.render(cp))
	s.mu.Unlock()

	log.Debug("move accepted", "cell", index, "computer", out.Computer, "outcome", out.Kind.String())
	return out, &cp, nil
}

// Delete removes game id. Its pending computer move is cancelled and its
// subscriptions are closed.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrGameNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	s.cancelLocked(id)
	for sub := range s.subs[id] {
		sub.close()
	}
	delete(s.subs, id)

	s.logger.Debug("game deleted", "gameID", id)
	return nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{ch: make(chan []byte, 1)}
	if s.closed {
		sub.close()
		return sub.ch, func() {}
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			s.removeSubLocked(id, sub)
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

// Close stops pending computer moves and closes every subscription.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id := range s.pending {
		s.cancelLocked(id)
	}
	for id, set := range s.subs {
		for sub := range set {
			sub.close()
		}
		delete(s.subs, id)
	}
}

// computerMove runs when a deferred reply fires. It is a no-op when the game
// moved past version in the meantime.
func (s *Service) computerMove(id string, version uint64) {
	log := s.logger.With("method", "computerMove", "gameID", id)

	ctx, cancel := context.WithTimeout(context.Background(), computerTimeout)
	defer cancel()

	s.mu.Lock()
	if p, ok := s.pending[id]; ok && p.version == version {
		delete(s.pending, id)
	}
	if s.closed {
		s.mu.Unlock()
		return
	}

	gs, err := s.loadLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		log.Warn("failed to load game", "error", err)
		return
	}

	ctrl := s.controller(gs.State)
	out, ok := ctrl.ComputerMove(version)
	if !ok {
		s.mu.Unlock()
		log.Debug("stale computer move discarded", "version", version)
		return
	}

	if err = s.saveLocked(ctx, gs, ctrl); err != nil {
		s.mu.Unlock()
		log.Error("failed to save computer move", "error", err)
		return
	}

	s.broadcastLocked(id, s.render(*gs))
	s.mu.Unlock()

	log.Debug("computer moved", "cell", out.Computer, "outcome", out.Kind.String())
}

func (s *Service) controller(st domain.State) *domain.Controller {
	return domain.Restore(st, domain.WithRand(s.rng))
}

func (s *Service) loadLocked(ctx context.Context, id string) (*GameState, error) {
	gs, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return gs, nil
}

func (s *Service) saveLocked(ctx context.Context, gs *GameState, ctrl *domain.Controller) error {
	gs.State = ctrl.State()
	gs.Updated = s.now()
	if err := s.repo.CreateOrUpdate(ctx, gs); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (s *Service) scheduleLocked(id string, version uint64) {
	s.cancelLocked(id)
	s.pending[id] = pending{
		version: version,
		timer:   time.AfterFunc(s.delay, func() { s.computerMove(id, version) }),
	}
}

func (s *Service) cancelLocked(id string) {
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// broadcastLocked fans payload out without blocking; slow subscribers are
// closed and dropped.
func (s *Service) broadcastLocked(id string, payload []byte) {
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			s.removeSubLocked(id, sub)
		}
	}
}

func (s *Service) removeSubLocked(id string, sub *subscriber) {
	if set, ok := s.subs[id]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(s.subs, id)
		}
	}
}
