package shader

import (
	"strconv"

	"Glint/internal/logger"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// toneMappingFunction emits the fragment-stage toneMapping() body for the
// configured operator. Every operator reads the toneMappingExposure uniform
// so a program's exposure can change without a recompile.
func toneMappingFunction(tm ToneMapping) string {
	head := "uniform float toneMappingExposure;\n"
	switch tm {
	case LinearToneMapping:
		return head + `vec3 toneMapping(vec3 color) {
	return saturateRGB(toneMappingExposure * color);
}`
	case ReinhardToneMapping:
		return head + `vec3 toneMapping(vec3 color) {
	color *= toneMappingExposure;
	return saturateRGB(color / (vec3(1.0) + color));
}`
	case CineonToneMapping:
		// Optimized filmic operator by Jim Hejl and Richard Burgess-Dawson.
		return head + `vec3 toneMapping(vec3 color) {
	color *= toneMappingExposure;
	color = max(vec3(0.0), color - 0.004);
	return pow((color * (6.2 * color + 0.5)) / (color * (6.2 * color + 1.7) + 0.06), vec3(2.2));
}`
	case ACESFilmicToneMapping:
		return head + `vec3 toneMapping(vec3 color) {
	color *= toneMappingExposure / 0.6;
	color = (color * (2.51 * color + 0.03)) / (color * (2.43 * color + 0.59) + 0.14);
	return saturateRGB(color);
}`
	default:
		return head + `vec3 toneMapping(vec3 color) {
	return color;
}`
	}
}

// colorSpaceFunction emits linearToOutputTexel() converting the linear
// working space to the configured output transfer function.
func colorSpaceFunction(out ColorSpace) string {
	if out == SRGBColorSpace {
		return `vec4 linearToOutputTexel(vec4 value) {
	vec3 lo = value.rgb * 12.92;
	vec3 hi = pow(value.rgb, vec3(0.41666)) * 1.055 - vec3(0.055);
	return vec4(mix(lo, hi, vec3(greaterThan(value.rgb, vec3(0.0031308)))), value.a);
}`
	}
	return `vec4 linearToOutputTexel(vec4 value) {
	return value;
}`
}

var warnedCubeUVHeights = map[int]bool{}

// cubeUVDefineLines derives the prefiltered-environment-map constants from
// the cube image height. The mip chain formula assumes a power-of-two
// height; non-power-of-two heights round the mip count to nearest, and
// heights below one texel emit nothing (the map is unusable).
func cubeUVDefineLines(height int) []string {
	if height < 1 {
		if !warnedCubeUVHeights[height] {
			warnedCubeUVHeights[height] = true
			logger.Log.Warn("Ignoring degenerate environment map height",
				zap.Int("height", height))
		}
		return nil
	}
	maxMip := math32.Round(math32.Log2(float32(height))) - 2
	texelHeight := 1.0 / float32(height)
	texelWidth := 1.0 / (3 * math32.Max(math32.Pow(2, maxMip), 7*16))
	return []string{
		"#define CUBEUV_TEXEL_WIDTH " + formatFloat(texelWidth),
		"#define CUBEUV_TEXEL_HEIGHT " + formatFloat(texelHeight),
		"#define CUBEUV_MAX_MIP " + formatFloat(maxMip),
	}
}

// formatFloat renders a float32 as a GLSL literal with a decimal point.
func formatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	for _, c := range s {
		if c == '.' || c == 'e' {
			return s
		}
	}
	return s + ".0"
}
