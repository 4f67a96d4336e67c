// Package scrub provides the content cleaning pipeline for posts imported from
// legacy WordPress exports. It decodes entities, strips shortcodes and unsafe
// markup, removes platform artifacts, repairs structure and guarantees that the
// result is wrapped in block-level markup.
package scrub

// DefaultMaxShortcodeSpan bounds how far a paired shortcode may reach for its
// closing token.
const DefaultMaxShortcodeSpan = 64 * 1024

// LegacyPlaceholder is the empty-content placeholder used by the legacy preset.
const LegacyPlaceholder = "<p>Content not available.</p>"

// Config defines all configuration options for the scrub cleaner.
type Config struct {
	// === Stages ===

	// DecodeEntities converts named, numeric and hex entities to text.
	DecodeEntities bool `json:"decode_entities" yaml:"decode_entities" mapstructure:"decode_entities"`

	// StripShortcodes removes [bracket] shortcodes.
	StripShortcodes bool `json:"strip_shortcodes" yaml:"strip_shortcodes" mapstructure:"strip_shortcodes"`

	// StripUnsafe removes script, style, iframe, object, form, input controls,
	// meta, link, embed and comments.
	StripUnsafe bool `json:"strip_unsafe" yaml:"strip_unsafe" mapstructure:"strip_unsafe"`

	// StripArtifacts removes WordPress alignment/size/id classes and
	// responsive image attributes.
	StripArtifacts bool `json:"strip_artifacts" yaml:"strip_artifacts" mapstructure:"strip_artifacts"`

	// RepairStructure collapses whitespace and removes empty or duplicated markup.
	RepairStructure bool `json:"repair_structure" yaml:"repair_structure" mapstructure:"repair_structure"`

	// NormalizeSemantics maps b/i/u to strong/em and reduces attributes on
	// anchors, headings and images.
	NormalizeSemantics bool `json:"normalize_semantics" yaml:"normalize_semantics" mapstructure:"normalize_semantics"`

	// WrapBlocks wraps content that does not start with a block element in <p>.
	WrapBlocks bool `json:"wrap_blocks" yaml:"wrap_blocks" mapstructure:"wrap_blocks"`

	// === Unsafe stage options ===

	// StripEventHandlers removes on* attributes from remaining tags.
	StripEventHandlers bool `json:"strip_event_handlers" yaml:"strip_event_handlers" mapstructure:"strip_event_handlers"`

	// StripInlineStyles removes style="" attributes.
	StripInlineStyles bool `json:"strip_inline_styles" yaml:"strip_inline_styles" mapstructure:"strip_inline_styles"`

	// StripCSSResidue removes @keyframes blocks and bare CSS rules that leaked
	// into post text.
	StripCSSResidue bool `json:"strip_css_residue" yaml:"strip_css_residue" mapstructure:"strip_css_residue"`

	// === Shortcode options ===

	// MaxShortcodeSpan is the maximum number of bytes between an opening
	// shortcode and its closing token. Default: 64 KiB.
	MaxShortcodeSpan int `json:"max_shortcode_span" yaml:"max_shortcode_span" mapstructure:"max_shortcode_span"`

	// ExtraShortcodes adds names to the known shortcode vocabulary.
	ExtraShortcodes []string `json:"extra_shortcodes" yaml:"extra_shortcodes" mapstructure:"extra_shortcodes"`

	// === Output ===

	// EmptyPlaceholder is returned when cleaning leaves nothing behind.
	// Empty by default, which leaves the empty-content policy to the caller.
	EmptyPlaceholder string `json:"empty_placeholder" yaml:"empty_placeholder" mapstructure:"empty_placeholder"`
}

// DefaultConfig returns the configuration used by CleanContent: every stage
// enabled, together with the inline style, event handler and CSS residue rules.
func DefaultConfig() *Config {
	return &Config{
		DecodeEntities:     true,
		StripShortcodes:    true,
		StripUnsafe:        true,
		StripArtifacts:     true,
		RepairStructure:    true,
		NormalizeSemantics: true,
		WrapBlocks:         true,

		StripEventHandlers: true,
		StripInlineStyles:  true,
		StripCSSResidue:    true,

		MaxShortcodeSpan: DefaultMaxShortcodeSpan,
	}
}

// PresetMinimal only decodes entities, removes unsafe markup, repairs
// structure and wraps the result. Shortcodes, classes and presentational tags
// are left alone.
func PresetMinimal() *Config {
	return &Config{
		DecodeEntities:     true,
		StripUnsafe:        true,
		StripEventHandlers: true,
		RepairStructure:    true,
		WrapBlocks:         true,
		MaxShortcodeSpan:   DefaultMaxShortcodeSpan,
	}
}

// PresetLegacy matches the behaviour of the WordPress import scripts, which
// substituted a placeholder paragraph for posts that cleaned down to nothing.
func PresetLegacy() *Config {
	cfg := DefaultConfig()
	cfg.EmptyPlaceholder = LegacyPlaceholder
	return cfg
}

// Preset returns the named preset, or nil if the name is unknown.
func Preset(name string) *Config {
	switch name {
	case "", "default":
		return DefaultConfig()
	case "minimal":
		return PresetMinimal()
	case "legacy":
		return PresetLegacy()
	default:
		return nil
	}
}

// PresetNames lists the names accepted by Preset.
func PresetNames() []string {
	return []string{"default", "minimal", "legacy"}
}

// Merge merges another config into this one.
// Enabled toggles from other win, non-zero values override and
// extra shortcodes are appended without duplicates.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c
	merged.ExtraShortcodes = append([]string(nil), c.ExtraShortcodes...)

	if other.DecodeEntities {
		merged.DecodeEntities = true
	}
	if other.StripShortcodes {
		merged.StripShortcodes = true
	}
	if other.StripUnsafe {
		merged.StripUnsafe = true
	}
	if other.StripArtifacts {
		merged.StripArtifacts = true
	}
	if other.RepairStructure {
		merged.RepairStructure = true
	}
	if other.NormalizeSemantics {
		merged.NormalizeSemantics = true
	}
	if other.WrapBlocks {
		merged.WrapBlocks = true
	}
	if other.StripEventHandlers {
		merged.StripEventHandlers = true
	}
	if other.StripInlineStyles {
		merged.StripInlineStyles = true
	}
	if other.StripCSSResidue {
		merged.StripCSSResidue = true
	}

	if other.MaxShortcodeSpan > 0 {
		merged.MaxShortcodeSpan = other.MaxShortcodeSpan
	}
	if other.EmptyPlaceholder != "" {
		merged.EmptyPlaceholder = other.EmptyPlaceholder
	}

	if len(other.ExtraShortcodes) > 0 {
		seen := make(map[string]bool)
		for _, s := range merged.ExtraShortcodes {
			seen[s] = true
		}
		for _, s := range other.ExtraShortcodes {
			if !seen[s] {
				merged.ExtraShortcodes = append(merged.ExtraShortcodes, s)
				seen[s] = true
			}
		}
	}

	return &merged
}

// maxSpan returns the configured shortcode span or the default.
func (c *Config) maxSpan() int {
	if c.MaxShortcodeSpan <= 0 {
		return DefaultMaxShortcodeSpan
	}
	return c.MaxShortcodeSpan
}
