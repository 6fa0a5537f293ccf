package audio

import "errors"

// SoundType represents the cue played for a wall hit
type SoundType int

const (
	SoundThud SoundType = iota // Hit with health remaining
	SoundKnell                 // Hit that reached or stayed at zero health
	soundTypeCount
)

// Sentinel errors
var (
	ErrAudioDisabled = errors.New("audio disabled")
)
