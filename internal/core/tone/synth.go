package tone

import (
	"math"
	"time"
)

const (
	SampleRate    = 44100
	Channels      = 1
	BitsPerSample = 16

	fadeDuration = 10 * time.Millisecond
)

// Synthesize renders the named tone at volume into a complete WAV file.
// Unknown ids render DefaultID. The output is deterministic.
func Synthesize(id string, volume float64) []byte {
	return EncodeWAV(Render(Resolve(id), volume))
}

// Render produces the signed 16-bit sample sequence for t.
func Render(t Tone, volume float64) []int16 {
	volume = clampUnit(volume)
	segment := renderSegment(t, volume)
	repeats := t.repeats()
	if repeats == 1 {
		return segment
	}

	gap := make([]int16, sampleCount(t.Gap))
	samples := make([]int16, 0, repeats*len(segment)+(repeats-1)*len(gap))
	for rep := 0; rep < repeats; rep++ {
		if rep > 0 {
			samples = append(samples, gap...)
		}
		samples = append(samples, segment...)
	}
	return samples
}

func renderSegment(t Tone, volume float64) []int16 {
	total := sampleCount(t.Segment)
	samples := make([]int16, total)
	seconds := t.Segment.Seconds()

	fade := 0
	if t.Shape == ShapeSine || t.Shape == ShapeSawtooth {
		fade = sampleCount(fadeDuration)
		if fade > total/2 {
			fade = total / 2
		}
	}

	for i := range samples {
		at := float64(i) / SampleRate
		var value float64
		switch t.Shape {
		case ShapeSawtooth:
			phase := at * t.Frequency
			value = 2 * (phase - math.Floor(phase+0.5))
		case ShapeFastDecay:
			value = sine(t.Frequency, at) * math.Exp(-3*at/seconds)
		case ShapeSlowDecay:
			value = sine(t.Frequency, at) * math.Exp(-2*at/seconds)
		case ShapeHann:
			window := 1.0
			if total > 1 {
				window = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(total-1)))
			}
			value = sine(t.Frequency, at) * window
		default:
			value = sine(t.Frequency, at)
		}
		value *= fadeGain(i, total, fade)
		samples[i] = quantize(value, volume)
	}
	return samples
}

func sine(frequency, at float64) float64 {
	return math.Sin(2 * math.Pi * frequency * at)
}

// fadeGain ramps 0->1 over the first fade samples and 1->0 over the last.
func fadeGain(i, total, fade int) float64 {
	if fade <= 0 {
		return 1
	}
	if i < fade {
		return float64(i) / float64(fade)
	}
	if tail := total - 1 - i; tail < fade {
		return float64(tail) / float64(fade)
	}
	return 1
}

func quantize(value, volume float64) int16 {
	scaled := math.Round(value * volume * math.MaxInt16)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

func sampleCount(duration time.Duration) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Round(duration.Seconds() * SampleRate))
}

func clampUnit(volume float64) float64 {
	if math.IsNaN(volume) || volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
