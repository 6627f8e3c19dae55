package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"reptimer/internal/core/timekeeper"
	"reptimer/internal/core/tone"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Output is the sink a Player mixes into.
type Output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(streamer beep.Streamer)
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerOutput) Play(streamer beep.Streamer) { speaker.Play(streamer) }
func (speakerOutput) Lock()                       { speaker.Lock() }
func (speakerOutput) Unlock()                     { speaker.Unlock() }

// Player plays WAV buffers, one at a time.
type Player struct {
	mu      sync.Mutex
	output  Output
	logger  *slog.Logger
	ready   bool
	rate    beep.SampleRate
	current *beep.Ctrl
}

// NewPlayer returns a player on the system speaker.
func NewPlayer(logger *slog.Logger) *Player {
	return NewPlayerWithOutput(speakerOutput{}, logger)
}

// NewPlayerWithOutput returns a player mixing into output.
func NewPlayerWithOutput(output Output, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{output: output, logger: logger}
}

// Play stops any prior playback and plays buf at volume in [0, 1].
// The speaker is initialized on first use at the buffer's sample rate.
func (player *Player) Play(buf []byte, volume float64) error {
	streamer, format, err := wav.Decode(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}

	player.mu.Lock()
	defer player.mu.Unlock()

	if !player.ready {
		if err := player.output.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		player.ready = true
		player.rate = format.SampleRate
		player.logger.Debug("speaker initialized", "sample_rate", int(format.SampleRate))
	}

	var source beep.Streamer = streamer
	if format.SampleRate != player.rate {
		source = beep.Resample(4, format.SampleRate, player.rate, streamer)
	}

	player.stopLocked()
	ctrl := &beep.Ctrl{Streamer: withVolume(source, volume)}
	player.current = ctrl
	player.output.Play(ctrl)
	return nil
}

// Stop silences the current playback, if any.
func (player *Player) Stop() {
	player.mu.Lock()
	defer player.mu.Unlock()
	player.stopLocked()
}

func (player *Player) stopLocked() {
	if player.current == nil {
		return
	}
	player.output.Lock()
	player.current.Streamer = nil
	player.output.Unlock()
	player.current = nil
}

// Preview synthesizes and plays a catalog tone.
func (player *Player) Preview(toneID string, volume float64) error {
	// Synthesis already applies volume, so playback runs at unity gain.
	return player.Play(tone.Synthesize(toneID, volume), 1)
}

// ToneHook adapts the player to the engine's rep-completion hook.
func ToneHook(player *Player) timekeeper.ToneFunc {
	return player.Preview
}

func withVolume(streamer beep.Streamer, volume float64) beep.Streamer {
	if math.IsNaN(volume) || volume <= 0 {
		return &effects.Volume{Streamer: streamer, Base: 2, Silent: true}
	}
	if volume > 1 {
		volume = 1
	}
	return &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   math.Log2(volume),
	}
}
