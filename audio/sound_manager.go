package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/tickpipe/system"
)

// CueFor selects the sound for a hit
func CueFor(h system.Hit) SoundType {
	if h.After == 0 {
		return SoundKnell
	}
	return SoundThud
}

// SoundManager plays hit cues through the beep speaker
// Implements system.HitNotifier; NotifyHit never blocks on audio output
type SoundManager struct {
	mu          sync.Mutex
	cfg         *AudioConfig
	mixer       *beep.Mixer
	initialized bool
	lastPlayed  [soundTypeCount]time.Time
	now         func() time.Time

	// play hands a cue to the output, replaced in tests
	play func(beep.Streamer)
}

// NewSoundManager creates a manager; call Initialize to open the speaker
func NewSoundManager(cfg *AudioConfig) *SoundManager {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	sm := &SoundManager{
		cfg:   cfg,
		mixer: &beep.Mixer{},
		now:   time.Now,
	}
	sm.play = sm.playSpeaker
	return sm
}

// Initialize opens the speaker at the configured sample rate and starts the mixer
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.cfg.Enabled {
		return ErrAudioDisabled
	}
	if sm.initialized {
		return nil
	}

	rate := beep.SampleRate(sm.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup stops all sounds and closes the speaker
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	sm.initialized = false
}

// NotifyHit plays the cue for h, dropping it if the same cue played within CueCooldown
func (sm *SoundManager) NotifyHit(h system.Hit) {
	sm.Play(CueFor(h))
}

// Play queues one cue of the given type
func (sm *SoundManager) Play(t SoundType) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || t < 0 || t >= soundTypeCount {
		return false
	}
	now := sm.now()
	if now.Sub(sm.lastPlayed[t]) < CueCooldown {
		return false
	}
	s := Cue(t, sm.cfg)
	if s == nil {
		return false
	}
	sm.lastPlayed[t] = now
	sm.play(s)
	return true
}

func (sm *SoundManager) playSpeaker(s beep.Streamer) {
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}
