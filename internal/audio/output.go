package audio

import (
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output abstracts the audio device so the engine can run against a
// stub in tests. Lock/Unlock bracket any mutation of streamers the
// device is currently pulling from; that bracket is what makes
// transport changes land on every stem at once.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
}

// Speaker plays through the default audio device via beep's speaker.
type Speaker struct{}

// NewSpeaker creates the production output.
func NewSpeaker() *Speaker {
	return &Speaker{}
}

func (*Speaker) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

func (*Speaker) Play(s beep.Streamer) { speaker.Play(s) }
func (*Speaker) Lock()                { speaker.Lock() }
func (*Speaker) Unlock()              { speaker.Unlock() }
func (*Speaker) Clear()               { speaker.Clear() }
