// Package minigame implements "Jump the Wave": three rounds, each a wave that
// comes in high or low. Jumping clears a low wave, diving goes under a high one.
package minigame

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/tidepet/internal/pet"
)

// Rounds per game.
const Rounds = 3

var (
	ErrGameOver = errors.New("minigame: game is over")
	ErrNoGame   = errors.New("minigame: no game in progress")
)

type Wave uint8

const (
	WaveLow Wave = iota
	WaveHigh
)

func (w Wave) String() string {
	if w == WaveHigh {
		return "high"
	}
	return "low"
}

type Move uint8

const (
	MoveJump Move = iota
	MoveDive
)

func (m Move) String() string {
	if m == MoveDive {
		return "dive"
	}
	return "jump"
}

// ParseMove maps "jump" or "dive" to a Move.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jump":
		return MoveJump, nil
	case "dive":
		return MoveDive, nil
	}
	return MoveJump, fmt.Errorf("unknown move %q", s)
}

func beats(m Move, w Wave) bool {
	return (m == MoveJump && w == WaveLow) || (m == MoveDive && w == WaveHigh)
}

// RoundResult describes one finished round.
type RoundResult struct {
	Round   int
	Wave    Wave
	Move    Move
	Success bool
}

// Game is one session. It only reports the outcome; the caller passes Won()
// to pet.PlayComplete.
type Game struct {
	rng       pet.Rand
	round     int // 1-based, current round
	successes int
	failures  int
	wave      Wave
	history   []RoundResult
}

// New starts a game at round 1 with its first wave already rolling in.
func New(rng pet.Rand) *Game {
	g := &Game{rng: rng, round: 1}
	g.nextWave()
	return g
}

func (g *Game) nextWave() {
	g.wave = Wave(g.rng.Intn(2))
}

// Wave is the wave of the current round.
func (g *Game) Wave() Wave { return g.wave }

// Round is the current 1-based round, or Rounds once the game is over.
func (g *Game) Round() int { return min(g.round, Rounds) }

func (g *Game) Successes() int { return g.successes }
func (g *Game) Failures() int  { return g.failures }

func (g *Game) History() []RoundResult { return append([]RoundResult(nil), g.history...) }

// Done reports whether all rounds have been played.
func (g *Game) Done() bool { return g.round > Rounds }

// Won reports whether the player had more successes than failures.
func (g *Game) Won() bool { return g.successes > g.failures }

// Play answers the current wave and advances to the next round.
func (g *Game) Play(m Move) (RoundResult, error) {
	if g.Done() {
		return RoundResult{}, ErrGameOver
	}
	r := RoundResult{Round: g.round, Wave: g.wave, Move: m, Success: beats(m, g.wave)}
	if r.Success {
		g.successes++
	} else {
		g.failures++
	}
	g.history = append(g.history, r)
	g.round++
	if !g.Done() {
		g.nextWave()
	}
	return r, nil
}

// Sessions tracks games in progress by key (a Discord user ID, for one).
// Games idle longer than ttl are forgotten.
type Sessions struct {
	mu    sync.Mutex
	games map[string]*session
	ttl   time.Duration
	rng   pet.Rand
	now   func() time.Time
}

type session struct {
	game    *Game
	touched time.Time
}

func NewSessions(rng pet.Rand, ttl time.Duration) *Sessions {
	return &Sessions{
		games: make(map[string]*session),
		ttl:   ttl,
		rng:   rng,
		now:   time.Now,
	}
}

// Start replaces any game under key with a new one.
func (s *Sessions) Start(key string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	g := New(s.rng)
	s.games[key] = &session{game: g, touched: s.now()}
	return g
}

// Play answers the current wave of the game under key. When the game
// finishes it is removed and returned with done=true.
func (s *Sessions) Play(key string, m Move) (g *Game, r RoundResult, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	sess, ok := s.games[key]
	if !ok {
		return nil, RoundResult{}, false, ErrNoGame
	}
	r, err = sess.game.Play(m)
	if err != nil {
		return sess.game, r, false, err
	}
	sess.touched = s.now()
	if sess.game.Done() {
		delete(s.games, key)
		return sess.game, r, true, nil
	}
	return sess.game, r, false, nil
}

// Abandon drops the game under key, reporting whether there was one.
func (s *Sessions) Abandon(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.games[key]
	delete(s.games, key)
	return ok
}

func (s *Sessions) sweep() {
	now := s.now()
	for k, sess := range s.games {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.games, k)
		}
	}
}
