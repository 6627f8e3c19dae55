package audio

import (
	"errors"
	"math"
	"sync"
	"testing"

	"reptimer/internal/core/tone"

	"github.com/faiface/beep"
)

type fakeOutput struct {
	mu      sync.Mutex
	inits   []beep.SampleRate
	initErr error
	played  []beep.Streamer
	locks   int
}

func (output *fakeOutput) Init(sampleRate beep.SampleRate, _ int) error {
	output.inits = append(output.inits, sampleRate)
	return output.initErr
}

func (output *fakeOutput) Play(streamer beep.Streamer) {
	output.played = append(output.played, streamer)
}

func (output *fakeOutput) Lock() {
	output.mu.Lock()
	output.locks++
}

func (output *fakeOutput) Unlock() { output.mu.Unlock() }

func drain(streamer beep.Streamer) (int, float64) {
	buf := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestPlayInitializesSpeakerOnce(t *testing.T) {
	output := &fakeOutput{}
	player := NewPlayerWithOutput(output, nil)

	if err := player.Preview("beep", 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if err := player.Preview("chime", 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if len(output.inits) != 1 || output.inits[0] != tone.SampleRate {
		t.Fatalf("expected a single init at %d, got %v", tone.SampleRate, output.inits)
	}
	if len(output.played) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(output.played))
	}
}

func TestPlayStopsPriorPlayback(t *testing.T) {
	output := &fakeOutput{}
	player := NewPlayerWithOutput(output, nil)

	if err := player.Preview("bell", 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if err := player.Preview("beep", 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if n, _ := drain(output.played[0]); n != 0 {
		t.Fatalf("prior playback should be silenced, streamed %d samples", n)
	}
	if n, _ := drain(output.played[1]); n != 17640 {
		t.Fatalf("current playback should stream the full beep, got %d samples", n)
	}
	if output.locks != 1 {
		t.Fatalf("expected speaker lock around stop, got %d", output.locks)
	}
}

func TestPlayAppliesVolume(t *testing.T) {
	output := &fakeOutput{}
	player := NewPlayerWithOutput(output, nil)
	buf := tone.Synthesize("buzz", 1)

	if err := player.Play(buf, 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	_, fullPeak := drain(output.played[0])

	if err := player.Play(buf, 0.25); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	_, quarterPeak := drain(output.played[1])

	if err := player.Play(buf, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	silentSamples, silentPeak := drain(output.played[2])

	if fullPeak < 0.9 {
		t.Fatalf("unexpected full-volume peak %v", fullPeak)
	}
	if math.Abs(quarterPeak-fullPeak/4) > 1e-3 {
		t.Fatalf("quarter volume peak %v, want about %v", quarterPeak, fullPeak/4)
	}
	if silentSamples == 0 || silentPeak != 0 {
		t.Fatalf("volume 0 should stream silence, got %d samples peak %v", silentSamples, silentPeak)
	}
}

func TestPlayRejectsInvalidBuffer(t *testing.T) {
	output := &fakeOutput{}
	player := NewPlayerWithOutput(output, nil)
	if err := player.Play([]byte("not a wav file"), 1); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(output.inits) != 0 {
		t.Fatalf("speaker should not initialize for invalid input")
	}
}

func TestPlayReportsInitFailure(t *testing.T) {
	output := &fakeOutput{initErr: errors.New("no device")}
	player := NewPlayerWithOutput(output, nil)
	if err := ToneHook(player)("alarm", 0.5); err == nil {
		t.Fatalf("expected init error from hook")
	}
	if len(output.played) != 0 {
		t.Fatalf("nothing should play after init failure")
	}
}

func TestStop(t *testing.T) {
	output := &fakeOutput{}
	player := NewPlayerWithOutput(output, nil)
	player.Stop()
	if output.locks != 0 {
		t.Fatalf("stop without playback should not touch the speaker")
	}

	if err := player.Preview("gentle", 1); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	player.Stop()
	if n, _ := drain(output.played[0]); n != 0 {
		t.Fatalf("stopped playback streamed %d samples", n)
	}
}
