// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package text renders the player-facing message catalog.
package text

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/muesli/termenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Message categories.
const (
	CategoryAuth   = "auth"
	CategorySystem = "system"
)

//go:embed messages.yaml
var defaultCatalog []byte

// Segment is a run of text sharing one style.
type Segment struct {
	Text string `yaml:"text"`
	FG   string `yaml:"fg,omitempty"`
	Bold bool   `yaml:"bold,omitempty"`
}

// Catalog maps category to message id to segments.
type Catalog map[string]map[string][]Segment

// ansiColors maps catalog color names to ANSI color indexes.
var ansiColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// Renderer produces wire bytes for catalog messages. Messages are styled
// once at construction; Render is safe for concurrent use.
type Renderer struct {
	rendered map[string]map[string]string
}

// New builds a renderer from the embedded catalog. When plain is set the
// output carries no ANSI escape sequences.
func New(plain bool) (*Renderer, error) {
	return Parse(defaultCatalog, plain)
}

// Parse builds a renderer from YAML catalog data.
func Parse(data []byte, plain bool) (*Renderer, error) {
	if len(data) == 0 {
		return nil, oops.Code("TEXT_EMPTY_CATALOG").Errorf("message catalog is empty")
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, oops.Code("TEXT_INVALID_CATALOG").Wrapf(err, "parse message catalog")
	}

	profile := termenv.ANSI
	if plain {
		profile = termenv.Ascii
	}

	rendered := make(map[string]map[string]string, len(catalog))
	for category, messages := range catalog {
		out := make(map[string]string, len(messages))
		for id, segments := range messages {
			s, err := style(profile, segments)
			if err != nil {
				return nil, oops.Code("TEXT_INVALID_CATALOG").
					With("category", category).
					With("id", id).
					Wrap(err)
			}
			out[id] = s
		}
		rendered[category] = out
	}
	return &Renderer{rendered: rendered}, nil
}

func style(profile termenv.Profile, segments []Segment) (string, error) {
	var b strings.Builder
	for _, seg := range segments {
		st := profile.String(seg.Text)
		if seg.FG != "" {
			idx, ok := ansiColors[seg.FG]
			if !ok {
				return "", fmt.Errorf("unknown color %q", seg.FG)
			}
			st = st.Foreground(profile.Color(idx))
		}
		if seg.Bold {
			st = st.Bold()
		}
		b.WriteString(st.String())
	}
	return b.String(), nil
}

// Render returns the message for category and id. Arguments, if any, fill
// the message's printf verbs.
func (r *Renderer) Render(category, id string, args ...any) ([]byte, error) {
	msg, ok := r.rendered[category][id]
	if !ok {
		return nil, oops.Code("TEXT_UNKNOWN_MESSAGE").
			With("category", category).
			With("id", id).
			Errorf("unknown message %s.%s", category, id)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return []byte(msg), nil
}

// Has reports whether the catalog defines category.id.
func (r *Renderer) Has(category, id string) bool {
	_, ok := r.rendered[category][id]
	return ok
}
