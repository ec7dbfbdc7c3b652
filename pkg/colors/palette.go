package colors

import (
	"github.com/fatih/color"

	"github.com/harrisonrobin/organizer/pkg/model"
)

// Fixed colors for the built-in task categories.
var categoryAttrs = map[string]color.Attribute{
	model.CategoryPersonal: color.FgBlue,
	model.CategoryWork:     color.FgMagenta,
	model.CategoryShopping: color.FgGreen,
	model.CategoryHealth:   color.FgRed,
	model.CategoryFinance:  color.FgYellow,
}

var defaultAttrs = []color.Attribute{
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiCyan,
	color.FgHiRed,
}

type slot struct {
	attr     color.Attribute
	lastUsed int
}

// Palette hands out a limited set of terminal colors to free-form labels such
// as grocery categories. When every color is taken, the least recently used
// label gives its color up.
type Palette struct {
	attrs  []color.Attribute
	labels map[string]*slot
	tick   int
}

// NewPalette uses attrs, or a default set of bright colors when none are given.
func NewPalette(attrs ...color.Attribute) *Palette {
	if len(attrs) == 0 {
		attrs = defaultAttrs
	}
	return &Palette{attrs: attrs, labels: make(map[string]*slot)}
}

// Attr returns the color attribute for label. Built-in task categories always
// get their fixed color; an empty label is white.
func (p *Palette) Attr(label string) color.Attribute {
	if label == "" {
		return color.FgWhite
	}
	if a, ok := categoryAttrs[label]; ok {
		return a
	}

	p.tick++
	if s, ok := p.labels[label]; ok {
		s.lastUsed = p.tick
		return s.attr
	}
	return p.assign(label)
}

func (p *Palette) Color(label string) *color.Color {
	return color.New(p.Attr(label))
}

func (p *Palette) assign(label string) color.Attribute {
	used := make(map[color.Attribute]bool, len(p.labels))
	for _, s := range p.labels {
		used[s.attr] = true
	}
	for _, a := range p.attrs {
		if !used[a] {
			p.labels[label] = &slot{attr: a, lastUsed: p.tick}
			return a
		}
	}

	// Full: recycle the least recently used color.
	var oldest string
	for l, s := range p.labels {
		if oldest == "" || s.lastUsed < p.labels[oldest].lastUsed {
			oldest = l
		}
	}
	attr := p.labels[oldest].attr
	delete(p.labels, oldest)
	p.labels[label] = &slot{attr: attr, lastUsed: p.tick}
	return attr
}
