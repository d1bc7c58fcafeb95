// Package audio selects and plays category ambience.
package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Player loops one track at a time.
type Player interface {
	// Loop replaces the current track with path, repeating until Stop.
	Loop(path string) error
	Stop()
	SetVolume(vol float64)
	Volume() float64
}

// BeepPlayer implements Player on the local sound device using gopxl/beep.
type BeepPlayer struct {
	mu                 sync.Mutex
	volume             float64
	speakerInitialized bool
	sampleRate         beep.SampleRate
	streamer           *effects.Volume
	track              beep.StreamSeekCloser
}

// NewBeepPlayer creates a player. The speaker is opened on first use.
func NewBeepPlayer(volume float64) *BeepPlayer {
	return &BeepPlayer{volume: clampVolume(volume)}
}

// Loop starts looping the file at path.
func (p *BeepPlayer) Loop(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	track, format, err := decodeStreamer(path)
	if err != nil {
		return err
	}
	if err := p.ensureSpeakerInitialized(); err != nil {
		track.Close()
		return err
	}

	looped := beep.Loop(-1, track)
	resampled := beep.Resample(3, format.SampleRate, p.sampleRate, looped)

	power, silent := gain(p.volume)
	p.streamer = &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   power,
		Silent:   silent,
	}
	p.track = track
	speaker.Play(p.streamer)

	slog.Debug("Ambience playing", "path", path)
	return nil
}

// Stop silences playback and releases the file.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *BeepPlayer) stopLocked() {
	if p.streamer != nil {
		speaker.Clear()
		p.streamer = nil
	}
	if p.track != nil {
		p.track.Close()
		p.track = nil
	}
}

// SetVolume sets the level (0.0 to 1.0), applying it to live playback.
func (p *BeepPlayer) SetVolume(vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(vol)
	if p.streamer != nil {
		power, silent := gain(p.volume)
		speaker.Lock()
		p.streamer.Volume = power
		p.streamer.Silent = silent
		speaker.Unlock()
	}
}

// Volume returns the current level.
func (p *BeepPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *BeepPlayer) ensureSpeakerInitialized() error {
	const targetSampleRate = 48000
	if p.speakerInitialized {
		return nil
	}
	sr := beep.SampleRate(targetSampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		slog.Error("Failed to initialize speaker", "error", err)
		return err
	}
	p.speakerInitialized = true
	p.sampleRate = sr
	return nil
}

// decodeStreamer tries MP3, then WAV.
func decodeStreamer(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err := mp3.Decode(f)
	if err == nil {
		return streamer, format, nil
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err = wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}
