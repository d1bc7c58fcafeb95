package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringroad/pkg/model"
)

type fakePlayer struct {
	looped []string
	stops  int
	err    error
	vol    float64
}

func (f *fakePlayer) Loop(path string) error {
	f.looped = append(f.looped, path)
	return f.err
}
func (f *fakePlayer) Stop()                 { f.stops++ }
func (f *fakePlayer) SetVolume(vol float64) { f.vol = vol }
func (f *fakePlayer) Volume() float64       { return f.vol }

var testTracks = map[string]string{
	"waterfall":  "water.mp3",
	"geothermal": "steam.mp3",
	"town":       "",
}

func TestAmbience_OnCategory(t *testing.T) {
	p := &fakePlayer{}
	var cues []Cue
	a := NewAmbience(testTracks, "web/audio", "/audio", p, func(c Cue) { cues = append(cues, c) })

	a.OnCategory(model.CategoryWaterfall)
	a.OnCategory(model.CategoryWaterfall) // same track, ignored
	a.OnCategory(model.CategoryGeothermal)

	assert.Equal(t, []string{filepath.Join("web/audio", "water.mp3"), filepath.Join("web/audio", "steam.mp3")}, p.looped)
	require.Len(t, cues, 2)
	assert.Equal(t, Cue{Category: model.CategoryWaterfall, Track: "water.mp3", URL: "/audio/water.mp3"}, cues[0])
	assert.Equal(t, "steam.mp3", a.Current())
}

func TestAmbience_UnmappedCategorySilences(t *testing.T) {
	p := &fakePlayer{}
	var cues []Cue
	a := NewAmbience(testTracks, "dir", "/audio", p, func(c Cue) { cues = append(cues, c) })

	a.OnCategory(model.CategoryWaterfall)
	a.OnCategory(model.CategoryTown)
	a.OnCategory(model.CategoryPark)

	assert.Equal(t, 1, p.stops, "silence is emitted once")
	require.Len(t, cues, 2)
	assert.Equal(t, Cue{}, cues[1])
	assert.Empty(t, a.Current())
}

func TestAmbience_PlayerErrorSwallowed(t *testing.T) {
	p := &fakePlayer{err: errors.New("no audio device")}
	var cues []Cue
	a := NewAmbience(testTracks, "dir", "/audio", p, func(c Cue) { cues = append(cues, c) })

	assert.NotPanics(t, func() { a.OnCategory(model.CategoryWaterfall) })
	assert.Len(t, cues, 1, "renderer still gets the cue")
}

func TestAmbience_Disabled(t *testing.T) {
	p := &fakePlayer{}
	a := NewAmbience(testTracks, "dir", "/audio", p, nil)
	a.OnCategory(model.CategoryWaterfall)

	a.SetEnabled(false)
	assert.Equal(t, 1, p.stops)
	a.OnCategory(model.CategoryGeothermal)
	assert.Len(t, p.looped, 1)

	a.SetEnabled(true)
	a.OnCategory(model.CategoryGeothermal)
	assert.Len(t, p.looped, 2)
}

func TestAmbience_NoPlayer(t *testing.T) {
	a := NewAmbience(testTracks, "dir", "/audio", nil, nil)
	assert.NotPanics(t, func() {
		a.OnCategory(model.CategoryWaterfall)
		a.Silence()
	})
}

func TestBeepPlayer_Volume(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{2, 1},
	}
	for _, tt := range tests {
		p := NewBeepPlayer(1)
		p.SetVolume(tt.in)
		assert.Equal(t, tt.want, p.Volume())
	}
}

func TestBeepPlayer_LoopBadFile(t *testing.T) {
	p := NewBeepPlayer(0.4)
	assert.Error(t, p.Loop(filepath.Join(t.TempDir(), "missing.mp3")))

	junk := filepath.Join(t.TempDir(), "junk.mp3")
	require.NoError(t, os.WriteFile(junk, []byte("not audio"), 0o644))
	assert.Error(t, p.Loop(junk))

	assert.NotPanics(t, p.Stop)
}

func TestGain(t *testing.T) {
	tests := []struct {
		name       string
		vol        float64
		wantPower  float64
		wantSilent bool
	}{
		{name: "Full", vol: 1, wantPower: 0},
		{name: "Half", vol: 0.5, wantPower: -1},
		{name: "Quarter", vol: 0.25, wantPower: -2},
		{name: "Zero", vol: 0, wantPower: -10, wantSilent: true},
		{name: "BelowThreshold", vol: 0.005, wantPower: -10, wantSilent: true},
		{name: "AboveOneClamps", vol: 3, wantPower: 0},
		{name: "Negative", vol: -0.5, wantPower: -10, wantSilent: true},
		{name: "NaN", vol: math.NaN(), wantPower: -10, wantSilent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			power, silent := gain(tt.vol)
			assert.Equal(t, tt.wantPower, power)
			assert.Equal(t, tt.wantSilent, silent)
		})
	}
}
