// Package kvconfig loads the simulator's configuration from an optional
// YAML document, the way the teacher project's embedded documents are
// unmarshaled with gopkg.in/yaml.v3, and applies it on top of CLI flag
// defaults.
package kvconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kvcachesim/internal/backend"
)

// File is the on-disk shape of a configuration document. Every field is a
// pointer so that an absent key leaves the corresponding flag default (or
// an earlier-loaded value) untouched.
type File struct {
	NumLayers *int `yaml:"num_layers"`
	NumHeads  *int `yaml:"num_heads"`
	HeadDim   *int `yaml:"head_dim"`

	TokensPerPage *int `yaml:"tokens_per_page"`
	ArenaBytes    *int `yaml:"arena_bytes"`

	MaxContextTokens *int `yaml:"max_context_tokens"`
	NumSequences     *int `yaml:"num_sequences"`
	NumGroups        *int `yaml:"num_groups"`

	MaxPromptExtra *int `yaml:"max_prompt_extra"`
	MinGenTokens   *int `yaml:"min_gen_tokens"`
	MaxGenTokens   *int `yaml:"max_gen_tokens"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kvconfig: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("kvconfig: parsing %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the file's present fields onto cfg, returning the result.
func (f *File) Apply(cfg backend.Config) backend.Config {
	if f == nil {
		return cfg
	}
	setInt(&cfg.NumLayers, f.NumLayers)
	setInt(&cfg.NumHeads, f.NumHeads)
	setInt(&cfg.HeadDim, f.HeadDim)
	setInt(&cfg.TokensPerPage, f.TokensPerPage)
	setInt(&cfg.ArenaBytes, f.ArenaBytes)
	setInt(&cfg.MaxContextTokens, f.MaxContextTokens)
	setInt(&cfg.NumSequences, f.NumSequences)
	setInt(&cfg.NumGroups, f.NumGroups)
	setInt(&cfg.MaxPromptExtra, f.MaxPromptExtra)
	setInt(&cfg.MinGenTokens, f.MinGenTokens)
	setInt(&cfg.MaxGenTokens, f.MaxGenTokens)
	return cfg
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
