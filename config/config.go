package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the optional project configuration file.
const FileName = ".clazylsp.toml"

// Config holds the options passed to clazy, and the server's own toggles.
type Config struct {
	// Executable is the clazy binary, usually clazy-standalone.
	Executable string `toml:"executable" json:"executable"`
	// Checks is passed as --checks, e.g. ["level1", "no-qproperty-without-notify"].
	Checks              []string `toml:"checks" json:"checks"`
	ExtraArg            []string `toml:"extraArg" json:"extraArg"`
	ExtraArgBefore      []string `toml:"extraArgBefore" json:"extraArgBefore"`
	HeaderFilter        string   `toml:"headerFilter" json:"headerFilter"`
	IgnoreDirs          string   `toml:"ignoreDirs" json:"ignoreDirs"`
	IgnoreIncludedFiles bool     `toml:"ignoreIncludedFiles" json:"ignoreIncludedFiles"`
	OnlyQt              bool     `toml:"onlyQt" json:"onlyQt"`
	QtDeveloper         bool     `toml:"qtDeveloper" json:"qtDeveloper"`
	VFSOverlay          string   `toml:"vfsoverlay" json:"vfsoverlay"`
	VisitImplicitCode   bool     `toml:"visitImplicitCode" json:"visitImplicitCode"`
	// BuildPath is the directory containing compile_commands.json, passed as -p.
	BuildPath  string `toml:"buildPath" json:"buildPath"`
	LintOnSave bool   `toml:"lintOnSave" json:"lintOnSave"`
	FixOnSave  bool   `toml:"fixOnSave" json:"fixOnSave"`
	// Blacklist holds glob patterns of files that are never linted.
	Blacklist []string `toml:"blacklist" json:"blacklist"`
	// Encoding is the IANA name of the encoding source files are stored in.
	Encoding string `toml:"encoding" json:"encoding"`
}

func Default() Config {
	return Config{
		Executable: "clazy-standalone",
		LintOnSave: true,
		Encoding:   "utf-8",
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error.
func Load(fileName string) (c Config, err error) {
	c = Default()
	if fileName == "" {
		return c, nil
	}
	if _, err = toml.DecodeFile(fileName, &c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read config %q: %w", fileName, err)
	}
	return c, nil
}

// settings mirrors Config with pointer fields, so that settings sent by the
// client only override the options that are present.
type settings struct {
	Executable          *string   `json:"executable"`
	Checks              *[]string `json:"checks"`
	ExtraArg            *[]string `json:"extraArg"`
	ExtraArgBefore      *[]string `json:"extraArgBefore"`
	HeaderFilter        *string   `json:"headerFilter"`
	IgnoreDirs          *string   `json:"ignoreDirs"`
	IgnoreIncludedFiles *bool     `json:"ignoreIncludedFiles"`
	OnlyQt              *bool     `json:"onlyQt"`
	QtDeveloper         *bool     `json:"qtDeveloper"`
	VFSOverlay          *string   `json:"vfsoverlay"`
	VisitImplicitCode   *bool     `json:"visitImplicitCode"`
	BuildPath           *string   `json:"buildPath"`
	LintOnSave          *bool     `json:"lintOnSave"`
	FixOnSave           *bool     `json:"fixOnSave"`
	Blacklist           *[]string `json:"blacklist"`
	Encoding            *string   `json:"encoding"`
}

// Merge overlays settings sent by an LSP client. The settings may be the
// options themselves, or nested under a "clazy" key, as VSCode sends them.
func (c Config) Merge(raw json.RawMessage) (merged Config, err error) {
	merged = c
	if len(raw) == 0 || string(raw) == "null" {
		return merged, nil
	}
	var wrapper struct {
		Clazy json.RawMessage `json:"clazy"`
	}
	if err = json.Unmarshal(raw, &wrapper); err != nil {
		return c, fmt.Errorf("invalid settings: %w", err)
	}
	if len(wrapper.Clazy) > 0 {
		raw = wrapper.Clazy
	}
	var s settings
	if err = json.Unmarshal(raw, &s); err != nil {
		return c, fmt.Errorf("invalid settings: %w", err)
	}
	set(&merged.Executable, s.Executable)
	set(&merged.Checks, s.Checks)
	set(&merged.ExtraArg, s.ExtraArg)
	set(&merged.ExtraArgBefore, s.ExtraArgBefore)
	set(&merged.HeaderFilter, s.HeaderFilter)
	set(&merged.IgnoreDirs, s.IgnoreDirs)
	set(&merged.IgnoreIncludedFiles, s.IgnoreIncludedFiles)
	set(&merged.OnlyQt, s.OnlyQt)
	set(&merged.QtDeveloper, s.QtDeveloper)
	set(&merged.VFSOverlay, s.VFSOverlay)
	set(&merged.VisitImplicitCode, s.VisitImplicitCode)
	set(&merged.BuildPath, s.BuildPath)
	set(&merged.LintOnSave, s.LintOnSave)
	set(&merged.FixOnSave, s.FixOnSave)
	set(&merged.Blacklist, s.Blacklist)
	set(&merged.Encoding, s.Encoding)
	return merged, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Blacklisted reports whether fileName matches one of the blacklist patterns.
// Patterns are matched against the whole slash separated path, and against
// the base name.
func (c Config) Blacklisted(fileName string) bool {
	slashed := filepath.ToSlash(fileName)
	base := path.Base(slashed)
	for _, pattern := range c.Blacklist {
		if ok, _ := path.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
