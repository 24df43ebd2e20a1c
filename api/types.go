package api

import (
	"context"
	"time"
)

// Track is one isolated instrument stem produced by the separation service.
// Volume is the user-facing level in [0,100]; Source is the path of the
// stem's audio bytes relative to the service base URL.
type Track struct {
	Name   string `json:"name"`
	Volume int    `json:"volume"`
	Source string `json:"file"`
}

// Song is one uploaded audio file plus the stems it was separated into.
// Track order is stable: the playback engine builds its source and gain
// chains positionally from this slice.
type Song struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Instrument is one stem descriptor as returned by the service.
type Instrument struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Volume *int   `json:"volume,omitempty"`
}

// AnalyzeResponse is the separation service's reply to POST /analyze.
type AnalyzeResponse struct {
	Instruments []Instrument `json:"instruments"`
}

// Status represents the playback engine state machine.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
	StatusPlaying
	StatusPaused
)

// String returns a human-readable representation of the Status
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackState is the per-stem readout exposed to the control surface.
type TrackState struct {
	Name   string
	Volume int
	Failed bool
}

// EngineState is a point-in-time snapshot of the playback engine.
type EngineState struct {
	Status       Status
	SongID       string
	SongName     string
	Tracks       []TrackState
	MasterVolume int
	Position     time.Duration
	Duration     time.Duration
}

// EventType identifies engine events delivered to subscribers.
type EventType int

const (
	EventSongLoaded EventType = iota
	EventStateChange
	EventPositionUpdate
	EventTrackFailed
	EventError
)

// Event is an engine notification.
type Event struct {
	Type    EventType
	Payload interface{}
}

// Mixer is the playback engine contract used by the control surface.
// All methods are safe to call from the UI goroutine; none of them block
// on audio I/O.
type Mixer interface {
	LoadSong(ctx context.Context, song *Song) error
	Play() error
	Pause() error
	SetTrackVolume(index, volume int) error
	SetMasterVolume(volume int) error
	Seek(pos time.Duration) error
	Advance(delta time.Duration) error
	Rewind(delta time.Duration) error
	Position() (pos, dur time.Duration)
	State() EngineState
	Events() <-chan Event
	Close() error
}
