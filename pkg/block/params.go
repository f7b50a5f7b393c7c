package block

import (
	"maps"
	"slices"
	"strings"
)

// Params is the per-type parameter set of a block.
//
// Set never rejects a key: unknown keys are stored in the variant's Extra
// map and ignored by Tokens. This keeps parameter updates permissive so
// callers can round-trip fields the compiler does not understand.
type Params interface {
	// Type returns the block type the params belong to.
	Type() Type
	// Set stores value under key.
	Set(key, value string)
	// Get returns the value stored under key.
	Get(key string) (string, bool)
	// Values returns every stored field, including Extra, for display.
	Values() map[string]any
	// Tokens compiles the params into URL tokens.
	Tokens() []string
	// Clone returns a deep copy.
	Clone() Params
}

// Parameter keys.
const (
	KeyMode        = "mode"
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyAspectRatio = "aspectRatio"
	KeyGravity     = "gravity"
	KeyTolerance   = "tolerance"
	KeyColor       = "color"
	KeySide        = "side"
	KeyIntensity   = "intensity"
	KeyStrength    = "strength"
	KeyEffects     = "effects"
	KeyQuality     = "quality"
	KeyFormat      = "format"
	KeyDpr         = "dpr"
)

// Gradient sides.
const (
	SideTop        = "top"
	SideBottom     = "bottom"
	SideLeft       = "left"
	SideRight      = "right"
	SideHorizontal = "horizontal"
	SideVertical   = "vertical"
)

// Effect names, in emission order.
const (
	EffectGrayscale = "grayscale"
	EffectSharpen   = "sharpen"
	EffectUpscale   = "upscale"
)

// KnownEffects lists the effects an Effects block offers, in emission order.
var KnownEffects = []string{EffectGrayscale, EffectSharpen, EffectUpscale}

// Choices lists the values offered for enumerated keys. The compiler does
// not enforce them.
var Choices = map[string][]string{
	KeyMode:    {"fill", "crop", "scale", "fit", "pad"},
	KeySide:    {SideTop, SideBottom, SideLeft, SideRight, SideHorizontal, SideVertical},
	KeyQuality: {"auto", "auto:best", "auto:good", "auto:eco"},
	KeyFormat:  {"auto", "jpg", "png", "webp", "avif"},
	KeyDpr:     {"1.0", "1.5", "2.0", "3.0", "auto"},
	KeyGravity: {
		"auto", "auto:subject", "auto:classic", "auto:face", "auto:faces",
		"face", "faces",
		"center", "north", "south", "east", "west",
		"north_east", "north_west", "south_east", "south_west",
	},
}

// Defaults returns the initial params for a new block of type t.
// Unknown types get an empty parameter bag that compiles to nothing.
func Defaults(t Type) Params {
	switch t {
	case Crop:
		return &CropParams{Mode: "fill"}
	case Trim:
		return &TrimParams{}
	case Gradient:
		return &GradientParams{Side: SideTop, Intensity: "0.5", Strength: "20"}
	case Effects:
		return &EffectsParams{}
	case Quality:
		return &QualityParams{Quality: "auto"}
	case Format:
		return &FormatParams{Format: "auto"}
	case Dpr:
		return &DprParams{Dpr: "2.0"}
	default:
		return &RawParams{Kind: t}
	}
}

// Extra holds keys a params variant does not model.
type Extra map[string]string

func (e *Extra) set(key, value string) {
	if *e == nil {
		*e = make(Extra)
	}
	(*e)[key] = value
}

func (e Extra) get(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

func (e Extra) fill(m map[string]any) map[string]any {
	for k, v := range e {
		m[k] = v
	}
	return m
}

// field pairs a known key with a pointer to its storage.
type field struct {
	key string
	ptr *string
}

func setField(fields []field, extra *Extra, key, value string) {
	for _, f := range fields {
		if f.key == key {
			*f.ptr = value
			return
		}
	}
	extra.set(key, value)
}

func getField(fields []field, extra Extra, key string) (string, bool) {
	for _, f := range fields {
		if f.key == key {
			return *f.ptr, true
		}
	}
	return extra.get(key)
}

func fieldValues(fields []field, extra Extra) map[string]any {
	m := make(map[string]any, len(fields)+len(extra))
	for _, f := range fields {
		m[f.key] = *f.ptr
	}
	return extra.fill(m)
}

// token returns prefix+value, or nothing when value is unset.
func token(prefix, value string) []string {
	if value == "" {
		return nil
	}
	return []string{prefix + value}
}

// =============================================================================
// Crop
// =============================================================================

// CropParams resizes or crops the image.
type CropParams struct {
	Mode        string
	Width       string
	Height      string
	AspectRatio string
	Gravity     string
	Extra       Extra
}

func (p *CropParams) fields() []field {
	return []field{
		{KeyMode, &p.Mode},
		{KeyWidth, &p.Width},
		{KeyHeight, &p.Height},
		{KeyAspectRatio, &p.AspectRatio},
		{KeyGravity, &p.Gravity},
	}
}

func (p *CropParams) Type() Type                    { return Crop }
func (p *CropParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *CropParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *CropParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }

func (p *CropParams) Tokens() []string {
	var out []string
	out = append(out, token("c_", p.Mode)...)
	out = append(out, token("w_", p.Width)...)
	out = append(out, token("h_", p.Height)...)
	out = append(out, token("ar_", p.AspectRatio)...)
	out = append(out, token("g_", p.Gravity)...)
	return out
}

func (p *CropParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// =============================================================================
// Trim
// =============================================================================

// TrimParams trims solid borders. Tolerance and Color are both optional.
type TrimParams struct {
	Tolerance string
	Color     string
	Extra     Extra
}

func (p *TrimParams) fields() []field {
	return []field{{KeyTolerance, &p.Tolerance}, {KeyColor, &p.Color}}
}

func (p *TrimParams) Type() Type                    { return Trim }
func (p *TrimParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *TrimParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *TrimParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }

// Tokens emits a single e_trim token. A color without a tolerance keeps the
// empty tolerance slot ("e_trim::white") so the color is not read as one.
func (p *TrimParams) Tokens() []string {
	switch {
	case p.Tolerance != "" && p.Color != "":
		return []string{"e_trim:" + p.Tolerance + ":" + p.Color}
	case p.Tolerance != "":
		return []string{"e_trim:" + p.Tolerance}
	case p.Color != "":
		return []string{"e_trim::" + p.Color}
	default:
		return []string{"e_trim"}
	}
}

func (p *TrimParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// =============================================================================
// Gradient
// =============================================================================

// GradientParams fades one side (or both sides of an axis) of the image.
// Strength is stored for callers but is not emitted.
type GradientParams struct {
	Side      string
	Intensity string
	Strength  string
	Extra     Extra
}

func (p *GradientParams) fields() []field {
	return []field{{KeySide, &p.Side}, {KeyIntensity, &p.Intensity}, {KeyStrength, &p.Strength}}
}

func (p *GradientParams) Type() Type                    { return Gradient }
func (p *GradientParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *GradientParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *GradientParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }

// Tokens dispatches on Side. An unrecognized side emits nothing.
func (p *GradientParams) Tokens() []string {
	switch p.Side {
	case SideTop:
		return []string{"e_gradient_fade", "y_" + p.Intensity}
	case SideBottom:
		return []string{"e_gradient_fade", "y_-" + p.Intensity}
	case SideLeft:
		return []string{"e_gradient_fade", "x_" + p.Intensity}
	case SideRight:
		return []string{"e_gradient_fade", "x_-" + p.Intensity}
	case SideHorizontal:
		return []string{"e_gradient_fade:symmetric", "x_" + p.Intensity}
	case SideVertical:
		return []string{"e_gradient_fade:symmetric", "y_" + p.Intensity}
	default:
		return nil
	}
}

func (p *GradientParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// =============================================================================
// Effects
// =============================================================================

// EffectsParams is a set of named effects. Membership order does not
// matter: known effects are emitted in [KnownEffects] order, followed by
// any other names in the order they were enabled.
type EffectsParams struct {
	enabled []string
	Extra   Extra
}

// Has reports whether the effect is enabled.
func (p *EffectsParams) Has(name string) bool {
	return slices.Contains(p.enabled, name)
}

// Enable adds name to the set. Enabling a present effect is a no-op.
func (p *EffectsParams) Enable(name string) {
	if name == "" || p.Has(name) {
		return
	}
	p.enabled = append(p.enabled, name)
}

// Disable removes name from the set. Disabling an absent effect is a no-op.
func (p *EffectsParams) Disable(name string) {
	p.enabled = slices.DeleteFunc(p.enabled, func(e string) bool { return e == name })
}

// Toggle enables or disables name.
func (p *EffectsParams) Toggle(name string, enabled bool) {
	if enabled {
		p.Enable(name)
	} else {
		p.Disable(name)
	}
}

// Names returns the enabled effects in emission order.
func (p *EffectsParams) Names() []string {
	out := make([]string, 0, len(p.enabled))
	for _, name := range KnownEffects {
		if p.Has(name) {
			out = append(out, name)
		}
	}
	for _, name := range p.enabled {
		if !slices.Contains(KnownEffects, name) {
			out = append(out, name)
		}
	}
	return out
}

func (p *EffectsParams) Type() Type { return Effects }

// Set with the "effects" key replaces the whole set from a comma-separated
// list. Other keys go to Extra.
func (p *EffectsParams) Set(key, value string) {
	if key != KeyEffects {
		p.Extra.set(key, value)
		return
	}
	p.enabled = nil
	for _, name := range strings.Split(value, ",") {
		p.Enable(strings.TrimSpace(name))
	}
}

func (p *EffectsParams) Get(key string) (string, bool) {
	if key == KeyEffects {
		return strings.Join(p.Names(), ","), true
	}
	return p.Extra.get(key)
}

func (p *EffectsParams) Values() map[string]any {
	return p.Extra.fill(map[string]any{KeyEffects: p.Names()})
}

func (p *EffectsParams) Tokens() []string {
	names := p.Names()
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = "e_" + name
	}
	return out
}

func (p *EffectsParams) Clone() Params {
	return &EffectsParams{enabled: slices.Clone(p.enabled), Extra: maps.Clone(p.Extra)}
}

// =============================================================================
// Quality, Format, Dpr
// =============================================================================

// QualityParams sets the compression quality.
type QualityParams struct {
	Quality string
	Extra   Extra
}

func (p *QualityParams) fields() []field               { return []field{{KeyQuality, &p.Quality}} }
func (p *QualityParams) Type() Type                    { return Quality }
func (p *QualityParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *QualityParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *QualityParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }
func (p *QualityParams) Tokens() []string              { return token("q_", p.Quality) }

func (p *QualityParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// FormatParams sets the delivery format.
type FormatParams struct {
	Format string
	Extra  Extra
}

func (p *FormatParams) fields() []field               { return []field{{KeyFormat, &p.Format}} }
func (p *FormatParams) Type() Type                    { return Format }
func (p *FormatParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *FormatParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *FormatParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }
func (p *FormatParams) Tokens() []string              { return token("f_", p.Format) }

func (p *FormatParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// DprParams sets the device pixel ratio.
type DprParams struct {
	Dpr   string
	Extra Extra
}

func (p *DprParams) fields() []field               { return []field{{KeyDpr, &p.Dpr}} }
func (p *DprParams) Type() Type                    { return Dpr }
func (p *DprParams) Set(key, value string)         { setField(p.fields(), &p.Extra, key, value) }
func (p *DprParams) Get(key string) (string, bool) { return getField(p.fields(), p.Extra, key) }
func (p *DprParams) Values() map[string]any        { return fieldValues(p.fields(), p.Extra) }
func (p *DprParams) Tokens() []string              { return token("dpr_", p.Dpr) }

func (p *DprParams) Clone() Params {
	c := *p
	c.Extra = maps.Clone(p.Extra)
	return &c
}

// =============================================================================
// Raw
// =============================================================================

// RawParams backs blocks of an unknown type. It stores every key and
// compiles to nothing.
type RawParams struct {
	Kind  Type
	Extra Extra
}

func (p *RawParams) Type() Type                    { return p.Kind }
func (p *RawParams) Set(key, value string)         { p.Extra.set(key, value) }
func (p *RawParams) Get(key string) (string, bool) { return p.Extra.get(key) }
func (p *RawParams) Values() map[string]any        { return p.Extra.fill(map[string]any{}) }
func (p *RawParams) Tokens() []string              { return nil }

func (p *RawParams) Clone() Params {
	return &RawParams{Kind: p.Kind, Extra: maps.Clone(p.Extra)}
}
