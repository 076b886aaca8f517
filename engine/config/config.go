// Package config loads the YAML file that configures the VR preview host.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/hmd"
	"github.com/Carmen-Shannon/oxy-vr/engine/rift"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

var logger = log.WithPrefix("config")

// DefaultFilename is the config file the preview host looks for in its working directory.
const DefaultFilename = "oxy-vr.yml"

// Config is the root of the configuration file. Keys missing from the file keep the values
// of Default.
type Config struct {
	LogLevel  string         `yaml:"log_level"`
	Window    WindowConfig   `yaml:"window"`
	HMD       HMDConfig      `yaml:"hmd"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Bindings  BindingsConfig `yaml:"bindings"`
	Profiling bool           `yaml:"profiling"`
}

// WindowConfig sizes the preview window, which is also the distortion output.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int32  `yaml:"width"`
	Height int32  `yaml:"height"`
}

// HMDConfig selects the tracking driver and describes the lens for generated meshes.
type HMDConfig struct {
	Driver         string           `yaml:"driver"`
	Library        string           `yaml:"library"`
	MeshResolution int              `yaml:"mesh_resolution"`
	Workers        int              `yaml:"workers"`
	Distortion     DistortionConfig `yaml:"distortion"`
}

// DistortionConfig overrides the lens description. Zero fields keep the built-in lens.
type DistortionConfig struct {
	K                [4]float32 `yaml:"k"`
	ChromaR          float32    `yaml:"chroma_r"`
	ChromaB          float32    `yaml:"chroma_b"`
	LensCenterOffset float32    `yaml:"lens_center_offset"`
}

// PipelineConfig holds the initial toggles and the scene capture resolution.
type PipelineConfig struct {
	SideBySide    bool    `yaml:"side_by_side"`
	Rotate        bool    `yaml:"rotate"`
	DepthOffset   float32 `yaml:"depth_offset"`
	Scale         float32 `yaml:"scale"`
	CaptureWidth  int32   `yaml:"capture_width"`
	CaptureHeight int32   `yaml:"capture_height"`
}

// BindingsConfig holds one key chord per toggle command, written like "super+5".
type BindingsConfig struct {
	ToggleSideBySide string `yaml:"toggle_side_by_side"`
	ToggleRotate     string `yaml:"toggle_rotate"`
	DepthIn          string `yaml:"depth_in"`
	DepthOut         string `yaml:"depth_out"`
	ScaleUp          string `yaml:"scale_up"`
	ScaleDown        string `yaml:"scale_down"`
}

// Default returns the configuration used when no file is present.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	toggles := rift.DefaultToggles()
	return Config{
		LogLevel: "info",
		Window: WindowConfig{
			Title:  "oxy-vr",
			Width:  1920,
			Height: 1080,
		},
		HMD: HMDConfig{
			Driver:         "none",
			Library:        hmd.DefaultOpenHMDLibrary,
			MeshResolution: hmd.DefaultDistortionParams().Resolution,
			Workers:        2,
		},
		Pipeline: PipelineConfig{
			SideBySide:    toggles.SideBySide,
			Rotate:        toggles.Rotate,
			DepthOffset:   toggles.DepthOffset,
			Scale:         toggles.Scale,
			CaptureWidth:  1920,
			CaptureHeight: 1080,
		},
		Bindings: BindingsConfig{
			ToggleSideBySide: "super+5",
			ToggleRotate:     "super+6",
			DepthIn:          "super+7",
			DepthOut:         "super+8",
			ScaleUp:          "super+9",
			ScaleDown:        "super+0",
		},
	}
}

// Load reads a config file over the defaults. A missing file is not an error.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err = Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	logger.Info("config loaded", "path", path, "driver", cfg.HMD.Driver)
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged configuration
//   - error: a YAML syntax error or the first invalid value
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks every value that is parsed later on.
//
// Returns:
//   - error: the first invalid value
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := hmd.ParseDriverType(c.HMD.Driver); err != nil {
		return err
	}
	if c.HMD.MeshResolution < 0 {
		return fmt.Errorf("mesh_resolution must not be negative, got %d", c.HMD.MeshResolution)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := c.Bindings.KeyBindings(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
//
// Returns:
//   - log.Level: the level
//   - error: an error if the level name is unknown
func (c Config) Level() (log.Level, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

func (w WindowConfig) Size() common.Size {
	return common.Size{Width: w.Width, Height: w.Height}
}

// DriverType parses Driver. Call Validate first; an unknown name yields DriverTypeNone.
func (h HMDConfig) DriverType() hmd.DriverType {
	d, _ := hmd.ParseDriverType(h.Driver)
	return d
}

// Options builds the HMD options for this config.
//
// Parameters:
//   - displaySize: the output size used when the driver does not report one
//
// Returns:
//   - []hmd.HMDBuilderOption: the options to pass to hmd.NewHMD
func (h HMDConfig) Options(displaySize common.Size) []hmd.HMDBuilderOption {
	defaults := hmd.DefaultDistortionParams()
	params := hmd.DistortionParams{
		K:                common.Coalesce(h.Distortion.K, defaults.K),
		ChromaR:          common.Coalesce(h.Distortion.ChromaR, defaults.ChromaR),
		ChromaB:          common.Coalesce(h.Distortion.ChromaB, defaults.ChromaB),
		LensCenterOffset: common.Coalesce(h.Distortion.LensCenterOffset, defaults.LensCenterOffset),
		Resolution:       common.Coalesce(h.MeshResolution, defaults.Resolution),
	}
	return []hmd.HMDBuilderOption{
		hmd.WithLibraryPath(common.Coalesce(h.Library, hmd.DefaultOpenHMDLibrary)),
		hmd.WithDisplaySize(displaySize),
		hmd.WithDistortionParams(params),
		hmd.WithMeshWorkers(common.Coalesce(h.Workers, 2)),
	}
}

// Toggles returns the initial pipeline toggles. A zero scale keeps the default so the scene
// never collapses to nothing.
func (p PipelineConfig) Toggles() rift.Toggles {
	defaults := rift.DefaultToggles()
	return rift.Toggles{
		SideBySide:  p.SideBySide,
		Rotate:      p.Rotate,
		DepthOffset: p.DepthOffset,
		Scale:       common.Coalesce(p.Scale, defaults.Scale),
	}
}

func (p PipelineConfig) CaptureSize() common.Size {
	return common.Size{Width: p.CaptureWidth, Height: p.CaptureHeight}
}

// KeyBindings parses every chord.
//
// Returns:
//   - rift.KeyBindings: the parsed chords
//   - error: the first chord that fails to parse, named by its key
func (b BindingsConfig) KeyBindings() (rift.KeyBindings, error) {
	var out rift.KeyBindings
	for _, f := range []struct {
		name  string
		value string
		dst   *common.KeyChord
	}{
		{"toggle_side_by_side", b.ToggleSideBySide, &out.ToggleSideBySide},
		{"toggle_rotate", b.ToggleRotate, &out.ToggleRotate},
		{"depth_in", b.DepthIn, &out.DepthIn},
		{"depth_out", b.DepthOut, &out.DepthOut},
		{"scale_up", b.ScaleUp, &out.ScaleUp},
		{"scale_down", b.ScaleDown, &out.ScaleDown},
	} {
		chord, err := common.ParseKeyChord(f.value)
		if err != nil {
			return rift.KeyBindings{}, fmt.Errorf("bindings.%s: %w", f.name, err)
		}
		*f.dst = chord
	}
	return out, nil
}
