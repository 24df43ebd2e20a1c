package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/yarango582/tunesplit-web/api"
	tserrors "github.com/yarango582/tunesplit-web/pkg/errors"
	"github.com/yarango582/tunesplit-web/pkg/events"
)

// Ensure Engine implements the Mixer interface at compile time
var _ api.Mixer = (*Engine)(nil)

// stem is one track's slice of the playback graph. The stems slice is
// parallel to the session song's Tracks; a stem whose source failed to
// load keeps its slot so indices stay aligned.
type stem struct {
	source beep.StreamSeekCloser
	gain   *effects.Gain
	err    error
}

// session is the live playback graph for one song:
// source -> loop -> track gain -> mix -> master gain -> ctrl -> output.
// It is rebuilt wholesale on every load; there is no incremental
// mutation of sources across songs.
type session struct {
	song    *api.Song
	stems   []*stem
	master  *effects.Gain
	ctrl    *beep.Ctrl
	format  beep.Format
	started bool // ctrl has been handed to the output
}

// Engine is the multi-stem playback and mixing engine. Every stem is
// pulled through a single mixed stream, which is what keeps them
// sample-locked; transport changes are applied under the output lock so
// they land on all stems at once.
type Engine struct {
	mu           sync.RWMutex
	loader       StemLoader
	out          Output
	poll         time.Duration
	bus          *events.Bus
	generation   uint64
	sess         *session
	status       api.Status
	masterVolume int
	outInited    bool
	outRate      beep.SampleRate
}

// New creates an engine. poll is the position reporting interval.
func New(loader StemLoader, out Output, poll time.Duration) *Engine {
	if poll <= 0 {
		poll = time.Second
	}
	return &Engine{
		loader:       loader,
		out:          out,
		poll:         poll,
		bus:          events.NewBus(),
		status:       api.StatusEmpty,
		masterVolume: 100,
	}
}

// Start begins the position reporting goroutine.
func (e *Engine) Start(ctx context.Context) {
	go e.pollPosition(ctx)
}

// Events returns a channel receiving all engine events.
func (e *Engine) Events() <-chan api.Event {
	return e.bus.SubscribeAll()
}

// LoadSong tears down any current session, then builds sources and gain
// stages for every track of song, in track order. A stem that fails to
// load degrades the session instead of failing it; LoadSong returns an
// error only when no stem at all could be built. A load that is
// superseded by a newer LoadSong before it completes is discarded
// without touching the newer session.
func (e *Engine) LoadSong(ctx context.Context, song *api.Song) error {
	if song == nil || len(song.Tracks) == 0 {
		return tserrors.ErrNoSession
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.teardownLocked()
	e.status = api.StatusLoading
	master := e.masterVolume
	e.mu.Unlock()
	e.publishState()

	// Engine-owned copy: volume updates must not alias caller memory.
	own := &api.Song{
		ID:     song.ID,
		Name:   song.Name,
		Tracks: append([]api.Track(nil), song.Tracks...),
	}

	stems := make([]*stem, len(own.Tracks))
	var format beep.Format
	loaded := 0
	for i := range own.Tracks {
		st := &stem{}
		stems[i] = st

		src, f, err := e.loader.Load(ctx, own.Tracks[i].Source)
		if err != nil {
			st.err = &tserrors.TrackLoadError{Track: own.Tracks[i].Name, Err: err}
			e.bus.Publish(api.Event{Type: api.EventTrackFailed, Payload: st.err})
			continue
		}
		if loaded == 0 {
			format = f
		}
		st.source = src
		loaded++
	}

	e.mu.Lock()
	if gen != e.generation {
		// Superseded while loading; this session must never become audible.
		e.mu.Unlock()
		closeStems(stems)
		return nil
	}

	if loaded == 0 {
		e.status = api.StatusEmpty
		e.mu.Unlock()
		e.publishState()
		for _, st := range stems {
			if st.err != nil {
				return st.err
			}
		}
		return tserrors.ErrNoSession
	}

	sess := &session{song: own, stems: stems, format: format}
	var parts []beep.Streamer
	for i, st := range stems {
		if st.source == nil {
			continue
		}
		st.gain = &effects.Gain{
			Streamer: beep.Loop(-1, st.source),
			Gain:     gainFor(own.Tracks[i].Volume),
		}
		parts = append(parts, st.gain)
	}
	sess.master = &effects.Gain{Streamer: beep.Mix(parts...), Gain: gainFor(master)}
	sess.ctrl = &beep.Ctrl{Streamer: sess.master, Paused: true}
	e.sess = sess
	e.status = api.StatusReady
	e.mu.Unlock()

	e.bus.Publish(api.Event{Type: api.EventSongLoaded, Payload: own.ID})
	e.publishState()
	return nil
}

// Play starts playback. An explicit play from Ready starts at time
// zero; resuming from Paused keeps the current position. Output device
// failures are recoverable: the engine stays in its current state and a
// later Play retries.
func (e *Engine) Play() error {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return tserrors.ErrNoSession
	}

	switch e.status {
	case api.StatusPlaying:
		e.mu.Unlock()
		return nil

	case api.StatusReady:
		if err := e.ensureOutputLocked(); err != nil {
			e.mu.Unlock()
			return err
		}
		e.seekLocked(0)
		if !e.sess.started {
			e.out.Play(e.sess.ctrl)
			e.sess.started = true
		}
		e.out.Lock()
		e.sess.ctrl.Paused = false
		e.out.Unlock()
		e.status = api.StatusPlaying

	case api.StatusPaused:
		if err := e.ensureOutputLocked(); err != nil {
			e.mu.Unlock()
			return err
		}
		e.out.Lock()
		e.sess.ctrl.Paused = false
		e.out.Unlock()
		e.status = api.StatusPlaying

	default:
		e.mu.Unlock()
		return tserrors.ErrNoSession
	}

	e.mu.Unlock()
	e.publishState()
	return nil
}

// Pause pauses every stem at once. Position is retained.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return tserrors.ErrNoSession
	}
	if e.status != api.StatusPlaying {
		e.mu.Unlock()
		return nil
	}

	e.out.Lock()
	e.sess.ctrl.Paused = true
	e.out.Unlock()
	e.status = api.StatusPaused
	e.mu.Unlock()

	e.publishState()
	return nil
}

// SetTrackVolume updates one stem's gain, audible immediately, and
// records the volume on the session's track. volume is clamped to
// [0,100]. Other stems are unaffected.
func (e *Engine) SetTrackVolume(index, volume int) error {
	volume = clampVolume(volume)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		return tserrors.ErrNoSession
	}
	if index < 0 || index >= len(e.sess.stems) {
		return fmt.Errorf("%w: %d", tserrors.ErrIndexOutOfRange, index)
	}

	e.sess.song.Tracks[index].Volume = volume
	if g := e.sess.stems[index].gain; g != nil {
		e.out.Lock()
		g.Gain = gainFor(volume)
		e.out.Unlock()
	}
	return nil
}

// SetMasterVolume scales the post-mix output. It combines
// multiplicatively with per-track gains and persists across sessions.
func (e *Engine) SetMasterVolume(volume int) error {
	volume = clampVolume(volume)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.masterVolume = volume
	if e.sess != nil {
		e.out.Lock()
		e.sess.master.Gain = gainFor(volume)
		e.out.Unlock()
	}
	return nil
}

// Seek repositions every stem to the same sample in one batch under the
// output lock. pos is clamped to [0, duration].
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return tserrors.ErrNoSession
	}

	if pos < 0 {
		pos = 0
	}
	if dur := e.durationLocked(); pos > dur {
		pos = dur
	}
	e.seekLocked(pos)
	e.mu.Unlock()

	// Report the new position without waiting for the next poll tick.
	e.bus.Publish(api.Event{Type: api.EventPositionUpdate, Payload: pos})
	return nil
}

// Advance seeks forward by delta, clamped to the song's end.
func (e *Engine) Advance(delta time.Duration) error {
	pos, _, err := e.position()
	if err != nil {
		return err
	}
	return e.Seek(pos + delta)
}

// Rewind seeks backward by delta, clamped to zero.
func (e *Engine) Rewind(delta time.Duration) error {
	pos, _, err := e.position()
	if err != nil {
		return err
	}
	return e.Seek(pos - delta)
}

// Position returns the current position and total duration, sampled
// from the first loaded stem only. The other stems are driven by the
// same mixed stream and are not individually polled.
func (e *Engine) Position() (time.Duration, time.Duration) {
	pos, dur, err := e.position()
	if err != nil {
		return 0, 0
	}
	return pos, dur
}

func (e *Engine) position() (time.Duration, time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.sess == nil {
		return 0, 0, tserrors.ErrNoSession
	}
	return e.positionLocked(), e.durationLocked(), nil
}

// TrackGain returns the linear scalar currently applied to the stem at
// index (volume / 100).
func (e *Engine) TrackGain(index int) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.sess == nil {
		return 0, tserrors.ErrNoSession
	}
	if index < 0 || index >= len(e.sess.stems) {
		return 0, fmt.Errorf("%w: %d", tserrors.ErrIndexOutOfRange, index)
	}
	if g := e.sess.stems[index].gain; g != nil {
		return 1 + g.Gain, nil
	}
	return float64(e.sess.song.Tracks[index].Volume) / 100, nil
}

// MasterGain returns the linear scalar of the post-mix gain stage.
func (e *Engine) MasterGain() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.sess != nil {
		return 1 + e.sess.master.Gain
	}
	return float64(e.masterVolume) / 100
}

// State returns a snapshot of the engine for the control surface.
func (e *Engine) State() api.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stateLocked()
}

// Close stops playback, releases all sources and closes the event bus.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.generation++
	e.teardownLocked()
	e.mu.Unlock()

	e.bus.Close()
	return nil
}

// teardownLocked silences and releases the current session. Called with
// e.mu held. After it returns no stem of the old session is connected
// to the output.
func (e *Engine) teardownLocked() {
	if e.sess == nil {
		e.status = api.StatusEmpty
		return
	}

	e.out.Lock()
	e.sess.ctrl.Paused = true
	e.out.Unlock()
	e.out.Clear()

	for _, st := range e.sess.stems {
		if st.source != nil {
			st.source.Close()
		}
	}
	e.sess = nil
	e.status = api.StatusEmpty
}

// ensureOutputLocked lazily initializes the audio device for the
// current session's sample rate. Failure leaves the engine state
// untouched so the user can retry Play.
func (e *Engine) ensureOutputLocked() error {
	rate := e.sess.format.SampleRate
	if e.outInited && e.outRate == rate {
		return nil
	}
	if err := e.out.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("%w: %v", tserrors.ErrAudioOutput, err)
	}
	e.outInited = true
	e.outRate = rate
	return nil
}

// seekLocked repositions all loaded stems to pos in one output lock.
func (e *Engine) seekLocked(pos time.Duration) {
	n := e.sess.format.SampleRate.N(pos)

	e.out.Lock()
	for _, st := range e.sess.stems {
		if st.source != nil {
			st.source.Seek(n)
		}
	}
	e.out.Unlock()
}

func (e *Engine) firstLoadedLocked() *stem {
	for _, st := range e.sess.stems {
		if st.source != nil {
			return st
		}
	}
	return nil
}

func (e *Engine) positionLocked() time.Duration {
	st := e.firstLoadedLocked()
	if st == nil {
		return 0
	}
	e.out.Lock()
	n := st.source.Position()
	e.out.Unlock()
	return e.sess.format.SampleRate.D(n)
}

func (e *Engine) durationLocked() time.Duration {
	st := e.firstLoadedLocked()
	if st == nil {
		return 0
	}
	return e.sess.format.SampleRate.D(st.source.Len())
}

func (e *Engine) stateLocked() api.EngineState {
	s := api.EngineState{
		Status:       e.status,
		MasterVolume: e.masterVolume,
	}
	if e.sess != nil {
		s.SongID = e.sess.song.ID
		s.SongName = e.sess.song.Name
		s.Tracks = make([]api.TrackState, len(e.sess.stems))
		for i, st := range e.sess.stems {
			tr := e.sess.song.Tracks[i]
			s.Tracks[i] = api.TrackState{
				Name:   tr.Name,
				Volume: tr.Volume,
				Failed: st.err != nil,
			}
		}
		s.Position = e.positionLocked()
		s.Duration = e.durationLocked()
	}
	return s
}

func (e *Engine) publishState() {
	e.bus.Publish(api.Event{Type: api.EventStateChange, Payload: e.State()})
}

// pollPosition reports the position on a fixed interval while playing.
// Sub-second accuracy is not required for a mixer readout.
func (e *Engine) pollPosition(ctx context.Context) {
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.RLock()
			playing := e.status == api.StatusPlaying
			var pos time.Duration
			if playing {
				pos = e.positionLocked()
			}
			e.mu.RUnlock()

			if playing {
				e.bus.Publish(api.Event{Type: api.EventPositionUpdate, Payload: pos})
			}
		}
	}
}

// gainFor converts a 0-100 volume to the effects.Gain parameter, whose
// output is sample * (1 + Gain).
func gainFor(volume int) float64 {
	return float64(volume)/100 - 1
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func closeStems(stems []*stem) {
	for _, st := range stems {
		if st.source != nil {
			st.source.Close()
		}
	}
}
