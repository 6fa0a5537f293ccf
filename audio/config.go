package audio

import "time"

// Cue envelopes
const (
	ThudDuration = 90 * time.Millisecond
	ThudAttack   = 4 * time.Millisecond
	ThudRelease  = 60 * time.Millisecond

	KnellDuration = 400 * time.Millisecond
	KnellAttack   = 10 * time.Millisecond
	KnellRelease  = 300 * time.Millisecond

	// CueCooldown drops cues that arrive faster than this per sound type
	CueCooldown = 60 * time.Millisecond
)

// AudioConfig holds playback parameters
type AudioConfig struct {
	Enabled       bool
	MasterVolume  float64 // 0.0 - 1.0
	SampleRate    int
	EffectVolumes [soundTypeCount]float64
}

// DefaultAudioConfig returns audio disabled at moderate volume
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Enabled:      false,
		MasterVolume: 0.5,
		SampleRate:   44100,
		EffectVolumes: [soundTypeCount]float64{
			SoundThud:  0.6,
			SoundKnell: 0.8,
		},
	}
}
