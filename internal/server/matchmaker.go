package server

import (
	rand "math/rand/v2"
	"sync"

	"github.com/lox/gammond/internal/randutil"
)

// MatchStatus is the outcome of a matchmaking request.
type MatchStatus int

const (
	// AlreadyQueued means the socket was waiting before this request.
	AlreadyQueued MatchStatus = iota
	// Queued means the socket joined the queue and waits for a partner.
	Queued
	// Matched means a partner was found; the Match carries the seats.
	Matched
)

// Match pairs two sockets for a new PvP game. Colors are already assigned.
type Match struct {
	WhiteSID string
	BlackSID string
}

// Matchmaker pairs searching players strictly first-come first-served. No
// skill matching: the head of the queue takes the next arrival.
type Matchmaker struct {
	mu      sync.Mutex
	waiting []string
	rand    *rand.Rand
}

// NewMatchmaker creates a matchmaker using rng for color assignment.
func NewMatchmaker(rng *rand.Rand) *Matchmaker {
	return &Matchmaker{rand: rng}
}

// FindOrQueue pairs sid with the longest-waiting socket, or queues it. On
// Matched, a fair coin decides which seat plays white.
func (m *Matchmaker) FindOrQueue(sid string) (MatchStatus, Match) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.waiting {
		if w == sid {
			return AlreadyQueued, Match{}
		}
	}

	if len(m.waiting) == 0 {
		m.waiting = append(m.waiting, sid)
		return Queued, Match{}
	}

	partner := m.waiting[0]
	m.waiting = m.waiting[1:]

	match := Match{WhiteSID: partner, BlackSID: sid}
	if randutil.CoinFlip(m.rand) {
		match = Match{WhiteSID: sid, BlackSID: partner}
	}
	return Matched, match
}

// Requeue puts sid back at the head of the queue. Used when a freshly
// popped partner turned out to be gone.
func (m *Matchmaker) Requeue(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waiting {
		if w == sid {
			return
		}
	}
	m.waiting = append([]string{sid}, m.waiting...)
}

// Cancel removes sid from the queue. It reports whether sid was waiting,
// so callers can decide whether a cancellation notice is due.
func (m *Matchmaker) Cancel(sid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.waiting {
		if w == sid {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting returns the queue length.
func (m *Matchmaker) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}
