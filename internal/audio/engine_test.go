package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/yarango582/tunesplit-web/api"
	tserrors "github.com/yarango582/tunesplit-web/pkg/errors"
)

const (
	testRate   = beep.SampleRate(100)
	testLength = 20000 // samples, 200s at testRate
)

// fakeSource is a seekable silent stream standing in for a decoded stem.
type fakeSource struct {
	length int
	pos    int
	closed bool
}

func (s *fakeSource) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.length {
		return 0, false
	}
	n := len(samples)
	if rest := s.length - s.pos; n > rest {
		n = rest
	}
	for i := 0; i < n; i++ {
		samples[i] = [2]float64{}
	}
	s.pos += n
	return n, true
}

func (s *fakeSource) Err() error    { return nil }
func (s *fakeSource) Len() int      { return s.length }
func (s *fakeSource) Position() int { return s.pos }

func (s *fakeSource) Seek(p int) error {
	if p < 0 || p > s.length {
		return fmt.Errorf("seek out of range: %d", p)
	}
	s.pos = p
	return nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// blockGate stalls a load until released, signalling entry so tests
// can order concurrent loads deterministically.
type blockGate struct {
	entered chan struct{}
	release chan struct{}
}

// fakeLoader hands out fakeSources and can fail or stall per locator.
type fakeLoader struct {
	mu      sync.Mutex
	fail    map[string]bool
	block   map[string]*blockGate
	sources map[string][]*fakeSource
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		fail:    make(map[string]bool),
		block:   make(map[string]*blockGate),
		sources: make(map[string][]*fakeSource),
	}
}

func (l *fakeLoader) Load(ctx context.Context, locator string) (beep.StreamSeekCloser, beep.Format, error) {
	l.mu.Lock()
	gate := l.block[locator]
	l.mu.Unlock()
	if gate != nil {
		gate.entered <- struct{}{}
		<-gate.release
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail[locator] {
		return nil, beep.Format{}, errors.New("bad locator")
	}
	src := &fakeSource{length: testLength}
	l.sources[locator] = append(l.sources[locator], src)
	return src, beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}, nil
}

func (l *fakeLoader) sourcesFor(locator string) []*fakeSource {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeSource(nil), l.sources[locator]...)
}

// fakeOutput records device interactions instead of opening a speaker.
type fakeOutput struct {
	mu      sync.Mutex
	initErr error
	inits   int
	played  int
	clears  int
}

func (o *fakeOutput) Init(rate beep.SampleRate, bufferSize int) error {
	if o.initErr != nil {
		return o.initErr
	}
	o.inits++
	return nil
}

func (o *fakeOutput) Play(s beep.Streamer) { o.played++ }
func (o *fakeOutput) Lock()                { o.mu.Lock() }
func (o *fakeOutput) Unlock()              { o.mu.Unlock() }
func (o *fakeOutput) Clear()               { o.clears++ }

func testSong(id string, stems ...string) *api.Song {
	tracks := make([]api.Track, len(stems))
	for i, name := range stems {
		tracks[i] = api.Track{Name: name, Volume: 100, Source: "/" + id + "/" + name + ".mp3"}
	}
	return &api.Song{ID: id, Name: id + ".mp3", Tracks: tracks}
}

func newTestEngine() (*Engine, *fakeLoader, *fakeOutput) {
	loader := newFakeLoader()
	out := &fakeOutput{}
	return New(loader, out, time.Second), loader, out
}

func loadOrFatal(t *testing.T, e *Engine, song *api.Song) {
	t.Helper()
	if err := e.LoadSong(context.Background(), song); err != nil {
		t.Fatalf("LoadSong: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLoadSongBuildsParallelGains(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()

	loadOrFatal(t, e, testSong("a", "vocals", "drums", "bass", "other"))

	state := e.State()
	if state.Status != api.StatusReady {
		t.Fatalf("Status = %v, want ready", state.Status)
	}
	if len(state.Tracks) != 4 {
		t.Fatalf("len(Tracks) = %d, want 4", len(state.Tracks))
	}
	wantOrder := []string{"vocals", "drums", "bass", "other"}
	for i, name := range wantOrder {
		if state.Tracks[i].Name != name {
			t.Errorf("Tracks[%d].Name = %q, want %q", i, state.Tracks[i].Name, name)
		}
		g, err := e.TrackGain(i)
		if err != nil {
			t.Errorf("TrackGain(%d): %v", i, err)
		}
		if !almostEqual(g, 1.0) {
			t.Errorf("TrackGain(%d) = %f, want 1.0", i, g)
		}
	}
	if g := e.MasterGain(); !almostEqual(g, 1.0) {
		t.Errorf("MasterGain = %f, want 1.0", g)
	}
	if _, dur := e.Position(); dur != 200*time.Second {
		t.Errorf("duration = %v, want 200s", dur)
	}
}

func TestSetTrackVolume(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals", "drums"))

	if err := e.SetTrackVolume(1, 37); err != nil {
		t.Fatalf("SetTrackVolume: %v", err)
	}

	if g, _ := e.TrackGain(1); !almostEqual(g, 0.37) {
		t.Errorf("TrackGain(1) = %f, want 0.37", g)
	}
	if g, _ := e.TrackGain(0); !almostEqual(g, 1.0) {
		t.Errorf("TrackGain(0) = %f, other track changed", g)
	}
	if vol := e.State().Tracks[1].Volume; vol != 37 {
		t.Errorf("stored Volume = %d, want 37", vol)
	}
}

func TestSetTrackVolumeClamps(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	tests := []struct {
		in   int
		want float64
	}{
		{-5, 0},
		{0, 0},
		{150, 1},
		{100, 1},
	}
	for _, tt := range tests {
		if err := e.SetTrackVolume(0, tt.in); err != nil {
			t.Fatalf("SetTrackVolume(0, %d): %v", tt.in, err)
		}
		if g, _ := e.TrackGain(0); !almostEqual(g, tt.want) {
			t.Errorf("TrackGain after volume %d = %f, want %f", tt.in, g, tt.want)
		}
	}
}

func TestSetTrackVolumeIndexOutOfRange(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals", "drums"))

	for _, index := range []int{-1, 2, 99} {
		err := e.SetTrackVolume(index, 50)
		if !errors.Is(err, tserrors.ErrIndexOutOfRange) {
			t.Errorf("SetTrackVolume(%d) = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

func TestMasterVolumeIndependentOfTrackVolume(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals", "drums"))

	if err := e.SetTrackVolume(0, 50); err != nil {
		t.Fatal(err)
	}
	if err := e.SetMasterVolume(40); err != nil {
		t.Fatal(err)
	}

	// Effective loudness is the product of the two stages.
	tg, _ := e.TrackGain(0)
	mg := e.MasterGain()
	if !almostEqual(tg, 0.5) {
		t.Errorf("TrackGain = %f, want 0.5", tg)
	}
	if !almostEqual(mg, 0.4) {
		t.Errorf("MasterGain = %f, want 0.4", mg)
	}
	if eff := tg * mg; !almostEqual(eff, 0.2) {
		t.Errorf("effective = %f, want 0.2", eff)
	}

	// Untouched track only scaled by the master stage.
	if g, _ := e.TrackGain(1); !almostEqual(g, 1.0) {
		t.Errorf("TrackGain(1) = %f, want 1.0", g)
	}
}

func TestMasterVolumePersistsAcrossSessions(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	if err := e.SetMasterVolume(25); err != nil {
		t.Fatal(err)
	}
	loadOrFatal(t, e, testSong("b", "vocals"))

	if g := e.MasterGain(); !almostEqual(g, 0.25) {
		t.Errorf("MasterGain after reload = %f, want 0.25", g)
	}
}

func TestSeekClampsToBounds(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	tests := []struct {
		target time.Duration
		want   time.Duration
	}{
		{-5 * time.Second, 0},
		{1000 * time.Second, 200 * time.Second},
		{42 * time.Second, 42 * time.Second},
	}
	for _, tt := range tests {
		if err := e.Seek(tt.target); err != nil {
			t.Fatalf("Seek(%v): %v", tt.target, err)
		}
		if pos, _ := e.Position(); pos != tt.want {
			t.Errorf("Seek(%v): position = %v, want %v", tt.target, pos, tt.want)
		}
	}
}

func TestSeekMovesAllStemsTogether(t *testing.T) {
	e, loader, _ := newTestEngine()
	defer e.Close()
	song := testSong("a", "vocals", "drums", "bass")
	loadOrFatal(t, e, song)

	if err := e.Seek(90 * time.Second); err != nil {
		t.Fatal(err)
	}

	want := testRate.N(90 * time.Second)
	for _, tr := range song.Tracks {
		for _, src := range loader.sourcesFor(tr.Source) {
			if src.pos != want {
				t.Errorf("stem %s at sample %d, want %d", tr.Name, src.pos, want)
			}
		}
	}
}

func TestAdvanceRewindRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	for _, start := range []time.Duration{0, 42 * time.Second, 190 * time.Second} {
		if err := e.Seek(start); err != nil {
			t.Fatal(err)
		}
		if err := e.Advance(10 * time.Second); err != nil {
			t.Fatal(err)
		}
		if err := e.Rewind(10 * time.Second); err != nil {
			t.Fatal(err)
		}
		if pos, _ := e.Position(); pos != start {
			t.Errorf("round trip from %v ended at %v", start, pos)
		}
	}
}

func TestPlayResetsToZeroResumeKeepsPosition(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	// Explicit play from stop starts at time zero even after a seek.
	if err := e.Seek(30 * time.Second); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if state := e.State(); state.Status != api.StatusPlaying {
		t.Fatalf("Status = %v, want playing", state.Status)
	}
	if pos, _ := e.Position(); pos != 0 {
		t.Errorf("position after play = %v, want 0", pos)
	}

	// Pause keeps the position; resume does not reset it.
	if err := e.Seek(55 * time.Second); err != nil {
		t.Fatal(err)
	}
	if err := e.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if state := e.State(); state.Status != api.StatusPaused {
		t.Fatalf("Status = %v, want paused", state.Status)
	}
	if pos, _ := e.Position(); pos != 55*time.Second {
		t.Errorf("position after pause = %v, want 55s", pos)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if pos, _ := e.Position(); pos != 55*time.Second {
		t.Errorf("position after resume = %v, want 55s", pos)
	}
}

func TestLoadSongStopsPreviousSession(t *testing.T) {
	e, loader, out := newTestEngine()
	defer e.Close()

	songA := testSong("a", "vocals", "drums")
	loadOrFatal(t, e, songA)
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}

	loadOrFatal(t, e, testSong("b", "vocals", "drums"))

	for _, tr := range songA.Tracks {
		for _, src := range loader.sourcesFor(tr.Source) {
			if !src.closed {
				t.Errorf("stem %s of song a still open", tr.Name)
			}
		}
	}
	if out.clears == 0 {
		t.Error("output was never cleared")
	}
	state := e.State()
	if state.SongID != "b" {
		t.Errorf("SongID = %q, want b", state.SongID)
	}
	if state.Status != api.StatusReady {
		t.Errorf("Status = %v, want ready", state.Status)
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	e, loader, _ := newTestEngine()
	defer e.Close()

	songA := testSong("a", "vocals")
	songB := testSong("b", "vocals")

	gate := &blockGate{entered: make(chan struct{}), release: make(chan struct{})}
	loader.mu.Lock()
	loader.block[songA.Tracks[0].Source] = gate
	loader.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- e.LoadSong(context.Background(), songA)
	}()
	<-gate.entered

	// Supersede song a while its stem load is still in flight.
	loadOrFatal(t, e, songB)
	close(gate.release)

	if err := <-done; err != nil {
		t.Fatalf("stale LoadSong returned %v", err)
	}
	if state := e.State(); state.SongID != "b" {
		t.Errorf("SongID = %q, want b (stale load mutated state)", state.SongID)
	}
	for _, src := range loader.sourcesFor(songA.Tracks[0].Source) {
		if !src.closed {
			t.Error("stale load leaked its source")
		}
	}
}

func TestPartialStemFailureDegradesSession(t *testing.T) {
	e, loader, _ := newTestEngine()
	defer e.Close()

	song := testSong("a", "vocals", "drums", "bass")
	loader.mu.Lock()
	loader.fail[song.Tracks[0].Source] = true
	loader.mu.Unlock()

	loadOrFatal(t, e, song)

	state := e.State()
	if state.Status != api.StatusReady {
		t.Fatalf("Status = %v, want ready", state.Status)
	}
	if len(state.Tracks) != 3 {
		t.Fatalf("len(Tracks) = %d, want 3 (slots must stay aligned)", len(state.Tracks))
	}
	if !state.Tracks[0].Failed {
		t.Error("Tracks[0].Failed = false, want true")
	}
	if state.Tracks[1].Failed || state.Tracks[2].Failed {
		t.Error("healthy tracks flagged as failed")
	}

	// Remaining stems stay playable and report duration.
	if _, dur := e.Position(); dur != 200*time.Second {
		t.Errorf("duration = %v, want 200s", dur)
	}
	if err := e.Play(); err != nil {
		t.Errorf("Play on degraded session: %v", err)
	}
	// Volume changes on the failed slot are still accepted.
	if err := e.SetTrackVolume(0, 20); err != nil {
		t.Errorf("SetTrackVolume on failed slot: %v", err)
	}
	if g, _ := e.TrackGain(0); !almostEqual(g, 0.2) {
		t.Errorf("TrackGain(0) = %f, want 0.2", g)
	}
}

func TestLoadSongAllStemsFailed(t *testing.T) {
	e, loader, _ := newTestEngine()
	defer e.Close()

	song := testSong("a", "vocals", "drums")
	loader.mu.Lock()
	for _, tr := range song.Tracks {
		loader.fail[tr.Source] = true
	}
	loader.mu.Unlock()

	err := e.LoadSong(context.Background(), song)
	var loadErr *tserrors.TrackLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want TrackLoadError", err)
	}
	if state := e.State(); state.Status != api.StatusEmpty {
		t.Errorf("Status = %v, want empty", state.Status)
	}
}

func TestOperationsWithoutSession(t *testing.T) {
	e, _, _ := newTestEngine()
	defer e.Close()

	if err := e.Play(); !errors.Is(err, tserrors.ErrNoSession) {
		t.Errorf("Play = %v, want ErrNoSession", err)
	}
	if err := e.Pause(); !errors.Is(err, tserrors.ErrNoSession) {
		t.Errorf("Pause = %v, want ErrNoSession", err)
	}
	if err := e.Seek(time.Second); !errors.Is(err, tserrors.ErrNoSession) {
		t.Errorf("Seek = %v, want ErrNoSession", err)
	}
	if err := e.SetTrackVolume(0, 50); !errors.Is(err, tserrors.ErrNoSession) {
		t.Errorf("SetTrackVolume = %v, want ErrNoSession", err)
	}
	// Master volume is engine-level; it works with no session loaded.
	if err := e.SetMasterVolume(50); err != nil {
		t.Errorf("SetMasterVolume = %v, want nil", err)
	}
}

func TestOutputFailureIsRecoverable(t *testing.T) {
	e, _, out := newTestEngine()
	defer e.Close()
	loadOrFatal(t, e, testSong("a", "vocals"))

	out.initErr = errors.New("no device")
	err := e.Play()
	if !errors.Is(err, tserrors.ErrAudioOutput) {
		t.Fatalf("Play = %v, want ErrAudioOutput", err)
	}
	if state := e.State(); state.Status != api.StatusReady {
		t.Fatalf("Status = %v, want ready after output failure", state.Status)
	}

	// Retrying play is the recovery path.
	out.initErr = nil
	if err := e.Play(); err != nil {
		t.Fatalf("retry Play: %v", err)
	}
	if state := e.State(); state.Status != api.StatusPlaying {
		t.Errorf("Status = %v, want playing", state.Status)
	}
}
