// Package settings holds the user-tunable visual options.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olivier-w/lyricviz/internal/analysis"
)

// Blend modes for the background layer.
const (
	BlendNormal   = "normal"
	BlendMultiply = "multiply"
	BlendScreen   = "screen"
	BlendOverlay  = "overlay"
)

// Text animation presets.
const (
	AnimKeyframes  = "keyframes"
	AnimFade       = "fade"
	AnimSlide      = "slide"
	AnimPop        = "pop"
	AnimTypewriter = "typewriter"
)

// Visual is the full set of options that shape a render.
type Visual struct {
	Style                string           `json:"style"`
	ParticleSpeed        float64          `json:"particleSpeed"`
	ParticleCount        int              `json:"particleCount"`
	Intensity            float64          `json:"intensity"`
	Palette              string           `json:"palette"`
	FrequencyMapping     analysis.Routing `json:"frequencyMapping"`
	TrailsEnabled        bool             `json:"trailsEnabled"`
	CameraShake          bool             `json:"cameraShake"`
	CameraShakeIntensity float64          `json:"cameraShakeIntensity"`
	ShakeThreshold       float64          `json:"shakeThreshold"`
	Background           string           `json:"background,omitempty"`
	BackgroundBlendMode  string           `json:"backgroundBlendMode"`
	TextAnimation        string           `json:"textAnimation"`
	FontFamily           string           `json:"fontFamily,omitempty"`
	FontSize             float64          `json:"fontSize"`
	TextRevealDuration   float64          `json:"textRevealDuration"`
	FadeDuration         float64          `json:"fadeDuration"`
	Karaoke              bool             `json:"karaoke"`
	FPS                  int              `json:"fps"`
	Width                int              `json:"width"`
	Height               int              `json:"height"`
}

// Default returns the settings used when no file is given.
func Default() Visual {
	return Visual{
		Style:                "particles",
		ParticleSpeed:        1,
		ParticleCount:        150,
		Intensity:            1,
		Palette:              "neon",
		FrequencyMapping:     analysis.DefaultRouting(),
		TrailsEnabled:        true,
		CameraShake:          true,
		CameraShakeIntensity: 1,
		ShakeThreshold:       180,
		BackgroundBlendMode:  BlendNormal,
		TextAnimation:        AnimKeyframes,
		FontSize:             48,
		TextRevealDuration:   0.6,
		FadeDuration:         0.5,
		Karaoke:              true,
		FPS:                  30,
		Width:                1280,
		Height:               720,
	}
}

// Load reads settings from path, starting from Default so missing keys keep
// their defaults. A missing file is not an error.
func Load(path string) (Visual, error) {
	v := Default()
	if path == "" {
		return v, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	v.Sanitize()
	return v, nil
}

// Save writes settings as indented JSON.
func Save(path string, v Visual) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// FadeOut returns FadeDuration as a time.Duration.
func (v Visual) FadeOut() time.Duration {
	return time.Duration(v.FadeDuration * float64(time.Second))
}

// Sanitize clamps every field into a usable range and replaces unknown
// names with defaults.
func (v *Visual) Sanitize() {
	d := Default()

	v.Style = strings.ToLower(strings.TrimSpace(v.Style))
	if v.Style == "" {
		v.Style = d.Style
	}
	v.ParticleSpeed = positiveOr(v.ParticleSpeed, 5, d.ParticleSpeed)
	v.Intensity = positiveOr(v.Intensity, 3, d.Intensity)
	if v.ParticleCount < 0 {
		v.ParticleCount = 0
	}
	if v.ParticleCount > 2000 {
		v.ParticleCount = 2000
	}
	if strings.TrimSpace(v.Palette) == "" {
		v.Palette = d.Palette
	}
	v.FrequencyMapping = v.FrequencyMapping.Sanitize()
	v.CameraShakeIntensity = clampOr(v.CameraShakeIntensity, 0, 5, d.CameraShakeIntensity)
	v.ShakeThreshold = clampOr(v.ShakeThreshold, 0, 255, d.ShakeThreshold)

	switch v.BackgroundBlendMode {
	case BlendNormal, BlendMultiply, BlendScreen, BlendOverlay:
	default:
		v.BackgroundBlendMode = d.BackgroundBlendMode
	}
	switch v.TextAnimation {
	case AnimKeyframes, AnimFade, AnimSlide, AnimPop, AnimTypewriter:
	default:
		v.TextAnimation = d.TextAnimation
	}

	v.FontSize = clampOr(v.FontSize, 8, 400, d.FontSize)
	v.TextRevealDuration = clampOr(v.TextRevealDuration, 0, 10, d.TextRevealDuration)
	v.FadeDuration = clampOr(v.FadeDuration, 0, 10, d.FadeDuration)

	if v.FPS <= 0 || v.FPS > 120 {
		v.FPS = d.FPS
	}
	if v.Width < 16 || v.Width > 7680 {
		v.Width = d.Width
	}
	if v.Height < 16 || v.Height > 4320 {
		v.Height = d.Height
	}
	// Most encoders want even dimensions.
	v.Width &^= 1
	v.Height &^= 1
}

func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

// positiveOr is clampOr for values that must stay above zero: zero or
// negative input takes the fallback.
func positiveOr(v, hi, fallback float64) float64 {
	if !(v > 0) {
		return fallback
	}
	return clampOr(v, 0, hi, fallback)
}
