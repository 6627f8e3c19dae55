package tone

import "time"

// Shape selects the waveform and envelope of a tone segment.
type Shape int

const (
	// ShapeSine is a plain sine with linear fade in/out.
	ShapeSine Shape = iota
	// ShapeSawtooth is a band-unlimited sawtooth with linear fade in/out.
	ShapeSawtooth
	// ShapeFastDecay is a sine under exp(-3t/d).
	ShapeFastDecay
	// ShapeSlowDecay is a sine under exp(-2t/d).
	ShapeSlowDecay
	// ShapeHann is a sine under a raised-cosine window.
	ShapeHann
)

// DefaultID is the tone used for unknown identifiers.
const DefaultID = "beep"

// Tone describes a named catalog entry. Repeats > 1 concatenates the
// segment with Gap silence between repetitions.
type Tone struct {
	ID        string
	Frequency float64
	Segment   time.Duration
	Shape     Shape
	Repeats   int
	Gap       time.Duration
}

var catalog = []Tone{
	{ID: "beep", Frequency: 880, Segment: 400 * time.Millisecond, Shape: ShapeSine, Repeats: 1},
	{ID: "chime", Frequency: 660, Segment: 800 * time.Millisecond, Shape: ShapeFastDecay, Repeats: 1},
	{ID: "bell", Frequency: 528, Segment: time.Second, Shape: ShapeSlowDecay, Repeats: 1},
	{ID: "alarm", Frequency: 1000, Segment: 300 * time.Millisecond, Shape: ShapeSine, Repeats: 3, Gap: 100 * time.Millisecond},
	{ID: "gentle", Frequency: 440, Segment: 600 * time.Millisecond, Shape: ShapeHann, Repeats: 1},
	{ID: "buzz", Frequency: 220, Segment: 500 * time.Millisecond, Shape: ShapeSawtooth, Repeats: 1},
	{ID: "digital", Frequency: 1200, Segment: 200 * time.Millisecond, Shape: ShapeSine, Repeats: 5, Gap: 50 * time.Millisecond},
}

// IDs returns the catalog identifiers in display order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		ids = append(ids, entry.ID)
	}
	return ids
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Tone, bool) {
	for _, entry := range catalog {
		if entry.ID == id {
			return entry, true
		}
	}
	return Tone{}, false
}

// Resolve returns the entry for id, falling back to DefaultID.
func Resolve(id string) Tone {
	if entry, ok := Lookup(id); ok {
		return entry
	}
	entry, _ := Lookup(DefaultID)
	return entry
}

// Duration returns the total playing time including gaps.
func (t Tone) Duration() time.Duration {
	repeats := t.repeats()
	return time.Duration(repeats)*t.Segment + time.Duration(repeats-1)*t.Gap
}

func (t Tone) repeats() int {
	if t.Repeats < 1 {
		return 1
	}
	return t.Repeats
}
