package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/radiator"
)

const (
	DefaultViewName    = "radiator"
	DefaultCaptionSize = 36
)

type File struct {
	Version int    `yaml:"version" json:"version"`
	View    View   `yaml:"view" json:"view"`
	Claims  Claims `yaml:"claims" json:"claims"`
}

type View struct {
	Name               string            `yaml:"name" json:"name"`
	CaptionText        string            `yaml:"caption_text,omitempty" json:"caption_text,omitempty"`
	CaptionSize        int               `yaml:"caption_size,omitempty" json:"caption_size,omitempty"`
	ShowStable         bool              `yaml:"show_stable" json:"show_stable"`
	ShowStableDetail   bool              `yaml:"show_stable_detail" json:"show_stable_detail"`
	ShowBuildStability bool              `yaml:"show_build_stability" json:"show_build_stability"`
	HighVis            *bool             `yaml:"high_vis,omitempty" json:"high_vis,omitempty"`
	GroupByPrefix      *bool             `yaml:"group_by_prefix,omitempty" json:"group_by_prefix,omitempty"`
	ExcludeRegex       string            `yaml:"exclude_regex,omitempty" json:"exclude_regex,omitempty"`
	Include            []string          `yaml:"include,omitempty" json:"include,omitempty"`
	Colors             Colors            `yaml:"colors,omitempty" json:"colors,omitempty"`
	BackgroundImages   map[string]string `yaml:"background_images,omitempty" json:"background_images,omitempty"`
}

type Colors struct {
	OkBackground     string `yaml:"ok_background,omitempty" json:"ok_background,omitempty"`
	OkText           string `yaml:"ok_text,omitempty" json:"ok_text,omitempty"`
	FailedBackground string `yaml:"failed_background,omitempty" json:"failed_background,omitempty"`
	FailedText       string `yaml:"failed_text,omitempty" json:"failed_text,omitempty"`
	BrokenBackground string `yaml:"broken_background,omitempty" json:"broken_background,omitempty"`
	BrokenText       string `yaml:"broken_text,omitempty" json:"broken_text,omitempty"`
	OtherBackground  string `yaml:"other_background,omitempty" json:"other_background,omitempty"`
	OtherText        string `yaml:"other_text,omitempty" json:"other_text,omitempty"`
}

type Claims struct {
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Default is the configuration used when no config file exists.
func Default() File {
	return File{Version: 1, View: View{Name: DefaultViewName}}
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	return Parse(data, path)
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (File, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func Parse(data []byte, source string) (File, error) {
	var cfg File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (cfg File) Validate() []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if cfg.View.CaptionSize < 0 {
		errs = append(errs, "view.caption_size must be >= 0")
	}
	if _, err := radiator.CompileExclude(cfg.View.ExcludeRegex); err != nil {
		errs = append(errs, fmt.Sprintf("view.exclude_regex: %v", err))
	}
	for i, pattern := range cfg.View.Include {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Sprintf("view.include[%d] must not be empty", i))
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("view.include[%d] invalid pattern %q", i, pattern))
		}
	}
	for status := range cfg.View.BackgroundImages {
		if !knownStatus(status) {
			errs = append(errs, fmt.Sprintf("view.background_images has unknown status %q", status))
		}
	}

	return errs
}

func knownStatus(s string) bool {
	switch s {
	case radiator.StatusNeverBuilt, radiator.StatusSuccessful, radiator.StatusClaimed,
		radiator.StatusFailing, radiator.StatusUnstable:
		return true
	}
	return false
}

func (v View) name() string {
	if strings.TrimSpace(v.Name) == "" {
		return DefaultViewName
	}
	return v.Name
}

func (v View) captionSize() int {
	if v.CaptionSize == 0 {
		return DefaultCaptionSize
	}
	return v.CaptionSize
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (c Colors) Palette() radiator.Palette {
	return radiator.Palette{
		OkBG:     c.OkBackground,
		OkFG:     c.OkText,
		FailedBG: c.FailedBackground,
		FailedFG: c.FailedText,
		BrokenBG: c.BrokenBackground,
		BrokenFG: c.BrokenText,
		OtherBG:  c.OtherBackground,
		OtherFG:  c.OtherText,
	}.WithDefaults()
}

func (cfg File) ClaimsEnabled() bool {
	return boolOrDefault(cfg.Claims.Enabled, true)
}

// RadiatorView builds the render configuration. claims is dropped when claim
// tracking is switched off.
func (cfg File) RadiatorView(claims radiator.ClaimService) (*radiator.View, error) {
	exclude, err := radiator.CompileExclude(cfg.View.ExcludeRegex)
	if err != nil {
		return nil, err
	}
	if !cfg.ClaimsEnabled() {
		claims = nil
	}
	return &radiator.View{
		Name:          cfg.View.name(),
		Palette:       cfg.View.Colors.Palette(),
		Exclude:       exclude,
		Include:       append([]string(nil), cfg.View.Include...),
		GroupByPrefix: boolOrDefault(cfg.View.GroupByPrefix, true),
		Claims:        claims,
	}, nil
}

// Settings is the display part of the view that is echoed in each snapshot.
func (cfg File) Settings() protocol.ViewSettings {
	return protocol.ViewSettings{
		Name:               cfg.View.name(),
		CaptionText:        cfg.View.CaptionText,
		CaptionSize:        cfg.View.captionSize(),
		ShowStable:         cfg.View.ShowStable,
		ShowStableDetail:   cfg.View.ShowStableDetail,
		ShowBuildStability: cfg.View.ShowBuildStability,
		HighVis:            boolOrDefault(cfg.View.HighVis, true),
		GroupByPrefix:      boolOrDefault(cfg.View.GroupByPrefix, true),
		ExcludeRegex:       cfg.View.ExcludeRegex,
		BackgroundImages:   cfg.View.BackgroundImages,
	}
}
