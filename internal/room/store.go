// internal/room/store.go
package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxRoomAge is how long an inactive room survives before a purge
// sweep reclaims its code.
const MaxRoomAge = time.Hour

// Store manages the live rooms in memory, keyed by their numeric code
// index.
type Store struct {
	mu    sync.Mutex
	rooms map[uint32]*Room
	rng   *rand.Rand
}

// NewStore initializes an empty Store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[uint32]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a fresh code and opens a room under it. Allocation
// starts from a random code and probes forward so codes stay hard to
// guess while allocation stays O(1) until the space is nearly full.
// The new room's OnEmpty is wired to Remove.
func (s *Store) Create() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) >= CodeSpace {
		return nil, fmt.Errorf("room code space exhausted")
	}
	start := uint32(s.rng.Intn(CodeSpace))
	idx := start
	for {
		if _, taken := s.rooms[idx]; !taken {
			break
		}
		idx = (idx + 1) % CodeSpace
		if idx == start {
			return nil, fmt.Errorf("room code space exhausted")
		}
	}

	code, err := CodeFromInt(idx)
	if err != nil {
		return nil, err
	}
	r := NewRoom(code)
	r.OnEmpty = func(c Code) { s.Remove(c) }
	s.rooms[idx] = r
	logrus.Infof("room store: created room %s (%d active)", code, len(s.rooms))
	return r, nil
}

// Get returns the room under code, if any.
func (s *Store) Get(code Code) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code.Int()]
	return r, ok
}

// Remove closes the room under code and frees it for reuse.
func (s *Store) Remove(code Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code.Int()]; ok {
		delete(s.rooms, code.Int())
		logrus.Infof("room store: removed room %s (%d active)", code, len(s.rooms))
	}
}

// Len returns the number of active rooms.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Public lists the codes of rooms the hosts have listed publicly.
func (s *Store) Public() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]Code, 0)
	for idx, r := range s.rooms {
		if !r.Public() || r.Started() {
			continue
		}
		if code, err := CodeFromInt(idx); err == nil {
			codes = append(codes, code)
		}
	}
	return codes
}

// Purge drops rooms idle longer than maxAge and returns how many were
// dropped.
func (s *Store) Purge(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for idx, r := range s.rooms {
		if time.Since(r.Updated()) < maxAge {
			continue
		}
		delete(s.rooms, idx)
		purged++
	}
	if purged > 0 {
		logrus.Infof("room store: purged %d idle rooms (%d active)", purged, len(s.rooms))
	}
	return purged
}

// StartPurgeLoop sweeps idle rooms on the given interval until stop is
// closed.
func (s *Store) StartPurgeLoop(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Purge(MaxRoomAge)
			case <-stop:
				return
			}
		}
	}()
}
