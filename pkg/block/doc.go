// Package block defines typed transformation blocks and compiles each one
// into URL tokens.
//
// # Blocks and Params
//
// A [Block] is one step of a transformation pipeline. Its [Params] value is
// a sum type with one concrete struct per [Type]:
//
//	Crop     *CropParams     c_<mode>, w_<width>, h_<height>, ar_<ratio>, g_<gravity>
//	Trim     *TrimParams     e_trim[:<tolerance>][:<color>]
//	Gradient *GradientParams e_gradient_fade[:symmetric], x_/y_<intensity>
//	Effects  *EffectsParams  e_grayscale, e_sharpen, e_upscale
//	Quality  *QualityParams  q_<quality>
//	Format   *FormatParams   f_<format>
//	Dpr      *DprParams      dpr_<dpr>
//
// Parameter values are kept as the strings the caller supplied. Nothing is
// validated: a width of "abc" is emitted as "w_abc". Unset optional fields
// emit no token.
//
// # Unknown keys
//
// Set accepts any key. Keys a variant does not know are kept in its Extra
// map so callers can round-trip them, but they never reach [Compile].
//
// # Compilation
//
// [Compile] returns the ordered token list for one block and [Segment]
// joins it with ",". The pipeline compiler and any live preview both go
// through these two functions, so a preview always equals the segment the
// block contributes to the full URL.
package block
