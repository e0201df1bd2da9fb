package tts

import (
	"context"
	"fmt"
	"regexp"
)

// EventType identifies what a Stream event carries.
type EventType int

const (
	// EventAudio carries a frame of encoded audio in Data.
	EventAudio EventType = iota

	// EventEnd marks the normal end of a synthesis turn.
	EventEnd

	// EventError carries a service-reported failure in Message.
	EventError
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EventAudio:
		return "audio"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item of a synthesis stream.
type Event struct {
	Type    EventType
	Data    []byte
	Message string
}

// Stream yields the events of a single synthesis turn in order. Recv honors
// the context's deadline and cancellation; after EventEnd or an error the
// stream is exhausted and must be closed.
type Stream interface {
	Recv(ctx context.Context) (Event, error)
	Close() error
}

// Engine opens synthesis streams. Implementations must be safe for use
// from a single producer goroutine; a new Stream is opened per text chunk.
type Engine interface {
	Name() string
	Open(ctx context.Context, text string) (Stream, error)
}

// Prosody strings follow the readaloud service's grammar: signed percent
// for rate and volume, signed hertz for pitch.
var (
	percentRe = regexp.MustCompile(`^[+-]\d+%$`)
	hertzRe   = regexp.MustCompile(`^[+-]\d+Hz$`)
)

// Options are the per-voice synthesis parameters shared by all engines.
type Options struct {
	Voice  string
	Rate   string
	Volume string
	Pitch  string
}

// DefaultOptions returns neutral prosody with the fallback voice.
func DefaultOptions() Options {
	return Options{
		Voice:  DefaultVoice,
		Rate:   "+0%",
		Volume: "+0%",
		Pitch:  "+0Hz",
	}
}

// Validate checks the prosody strings and reports the first offender.
func (o Options) Validate() error {
	if o.Voice == "" {
		return fmt.Errorf("%w: empty voice", ErrInvalidOptions)
	}
	if !percentRe.MatchString(o.Rate) {
		return fmt.Errorf("%w: rate %q (want e.g. \"+50%%\")", ErrInvalidOptions, o.Rate)
	}
	if !percentRe.MatchString(o.Volume) {
		return fmt.Errorf("%w: volume %q (want e.g. \"-10%%\")", ErrInvalidOptions, o.Volume)
	}
	if !hertzRe.MatchString(o.Pitch) {
		return fmt.Errorf("%w: pitch %q (want e.g. \"+0Hz\")", ErrInvalidOptions, o.Pitch)
	}
	return nil
}

// withDefaults fills empty fields from DefaultOptions and resolves the
// "auto" voice against the system locale.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Voice == "" || o.Voice == "auto" {
		o.Voice = ResolveVoice(o.Voice)
	}
	if o.Rate == "" {
		o.Rate = def.Rate
	}
	if o.Volume == "" {
		o.Volume = def.Volume
	}
	if o.Pitch == "" {
		o.Pitch = def.Pitch
	}
	return o
}
