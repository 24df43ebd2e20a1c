package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/yarango582/tunesplit-web/api"
)

// Store holds every song processed during this run, in upload order.
// It is deliberately not persisted: its lifetime is the application
// session. Construct one and inject it; there is no package singleton.
type Store struct {
	mu    sync.RWMutex
	songs map[string]*api.Song
	order []string
}

// New creates an empty store
func New() *Store {
	return &Store{
		songs: make(map[string]*api.Song),
	}
}

// NewSong builds a Song with a fresh client-side id. Two uploads of a
// file with the same name produce two distinct songs.
func NewSong(name string, tracks []api.Track) *api.Song {
	return &api.Song{
		ID:     uuid.NewString(),
		Name:   name,
		Tracks: tracks,
	}
}

// AddSong appends a song. No de-duplication by name.
func (s *Store) AddSong(song *api.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.songs[song.ID] = song
	s.order = append(s.order, song.ID)
}

// GetSong returns the song with the given id, or false if it is unknown.
func (s *Store) GetSong(id string) (*api.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	return song, ok
}

// Songs returns all songs in upload order.
func (s *Store) Songs() []*api.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.Song, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.songs[id])
	}
	return out
}

// Len returns the number of stored songs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
