package store

import (
	"testing"

	"github.com/yarango582/tunesplit-web/api"
)

func testTracks() []api.Track {
	return []api.Track{
		{Name: "vocals", Volume: 100, Source: "/stems/vocals.mp3"},
		{Name: "drums", Volume: 100, Source: "/stems/drums.mp3"},
	}
}

func TestAddAndGetSong(t *testing.T) {
	s := New()
	song := NewSong("demo.mp3", testTracks())
	s.AddSong(song)

	got, ok := s.GetSong(song.ID)
	if !ok {
		t.Fatalf("GetSong(%q) not found", song.ID)
	}
	if got.Name != "demo.mp3" {
		t.Errorf("Name = %q, want demo.mp3", got.Name)
	}
	if len(got.Tracks) != 2 {
		t.Errorf("len(Tracks) = %d, want 2", len(got.Tracks))
	}
}

func TestGetSongUnknownID(t *testing.T) {
	s := New()
	if _, ok := s.GetSong("nope"); ok {
		t.Error("GetSong on empty store should report not found")
	}
}

func TestDuplicateNamesAreDistinctSongs(t *testing.T) {
	s := New()
	a := NewSong("same.mp3", testTracks())
	b := NewSong("same.mp3", testTracks())
	s.AddSong(a)
	s.AddSong(b)

	if a.ID == b.ID {
		t.Fatal("two songs share an id")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSongsPreserveUploadOrder(t *testing.T) {
	s := New()
	names := []string{"one.mp3", "two.mp3", "three.mp3"}
	for _, n := range names {
		s.AddSong(NewSong(n, testTracks()))
	}

	songs := s.Songs()
	if len(songs) != len(names) {
		t.Fatalf("len(Songs) = %d, want %d", len(songs), len(names))
	}
	for i, n := range names {
		if songs[i].Name != n {
			t.Errorf("Songs()[%d].Name = %q, want %q", i, songs[i].Name, n)
		}
	}
}
