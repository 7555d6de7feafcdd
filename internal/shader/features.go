package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// ToneMapping selects the operator applied by the generated toneMapping()
// fragment function.
type ToneMapping int

const (
	NoToneMapping ToneMapping = iota
	LinearToneMapping
	ReinhardToneMapping
	CineonToneMapping
	ACESFilmicToneMapping
)

// ColorSpace selects the transfer function of the generated
// linearToOutputTexel() fragment function. Working space is always linear.
type ColorSpace int

const (
	LinearColorSpace ColorSpace = iota
	SRGBColorSpace
)

// Define is one custom preprocessor define. An empty Value emits a bare
// "#define NAME".
type Define struct {
	Name  string
	Value string
}

// FeatureConfiguration is the flat flag set a template is specialized
// against. Two configurations with equal fields produce byte-identical
// preprocessed source and share one compiled program.
type FeatureConfiguration struct {
	Name string // program name, for diagnostics only

	// GLSLVersion is the #version line content, e.g. "330 core" or "300 es".
	// Empty means "330 core".
	GLSLVersion string
	// Precision is the default float precision for ES targets ("lowp",
	// "mediump", "highp"). Ignored for desktop core profiles.
	Precision string

	Instancing   bool
	VertexColors bool
	FlatShading  bool
	DoubleSided  bool
	UseMap       bool
	UseFog       bool
	FogExp2      bool

	ToneMapping      ToneMapping
	OutputColorSpace ColorSpace

	NumDirLights   int
	NumPointLights int
	NumSpotLights  int
	NumHemiLights  int

	NumClippingPlanes   int
	NumClipIntersection int

	// EnvMapCubeUVHeight, when positive, derives the cube-UV mip constants
	// for prefiltered environment maps.
	EnvMapCubeUVHeight int

	// Defines are appended after the built-in gates, in order.
	Defines []Define
}

func (cfg *FeatureConfiguration) version() string {
	if cfg.GLSLVersion == "" {
		return "330 core"
	}
	return cfg.GLSLVersion
}

func (cfg *FeatureConfiguration) precision() string {
	if cfg.Precision == "" {
		return "highp"
	}
	return cfg.Precision
}

func (cfg *FeatureConfiguration) isES() bool {
	return strings.HasSuffix(cfg.version(), "es")
}

// DeriveKey returns a deterministic cache key: equal configurations yield
// equal keys, and any recognized flag difference changes the key.
func (cfg *FeatureConfiguration) DeriveKey() string {
	var b strings.Builder
	b.WriteString(cfg.Name)
	b.WriteByte('/')
	b.WriteString(cfg.version())
	b.WriteByte('/')
	b.WriteString(cfg.precision())
	for _, flag := range []bool{
		cfg.Instancing, cfg.VertexColors, cfg.FlatShading, cfg.DoubleSided,
		cfg.UseMap, cfg.UseFog, cfg.FogExp2,
	} {
		if flag {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	fmt.Fprintf(&b, "/%d%d/%d,%d,%d,%d/%d-%d/%d",
		cfg.ToneMapping, cfg.OutputColorSpace,
		cfg.NumDirLights, cfg.NumPointLights, cfg.NumSpotLights, cfg.NumHemiLights,
		cfg.NumClippingPlanes, cfg.NumClipIntersection,
		cfg.EnvMapCubeUVHeight)
	for _, d := range cfg.Defines {
		b.WriteByte('/')
		b.WriteString(d.Name)
		b.WriteByte('=')
		b.WriteString(d.Value)
	}
	return b.String()
}

// defineLines emits the #define block for one stage. Only truthy flags emit
// anything; order is fixed so output is reproducible.
func (cfg *FeatureConfiguration) defineLines(stage Stage) []string {
	var lines []string
	add := func(name string) {
		lines = append(lines, "#define "+name)
	}
	if cfg.Instancing {
		add("USE_INSTANCING")
	}
	if cfg.VertexColors {
		add("USE_COLOR")
	}
	if cfg.FlatShading {
		add("FLAT_SHADED")
	}
	if cfg.DoubleSided {
		add("DOUBLE_SIDED")
	}
	if cfg.UseMap {
		add("USE_MAP")
	}
	if cfg.UseFog {
		add("USE_FOG")
	}
	if cfg.FogExp2 {
		add("FOG_EXP2")
	}
	if stage == FragmentStage {
		if cfg.ToneMapping != NoToneMapping {
			add("TONE_MAPPING")
		}
		if cfg.EnvMapCubeUVHeight > 0 {
			lines = append(lines, cubeUVDefineLines(cfg.EnvMapCubeUVHeight)...)
		}
	}
	for _, d := range cfg.Defines {
		if d.Value == "" {
			add(d.Name)
		} else {
			lines = append(lines, "#define "+d.Name+" "+d.Value)
		}
	}
	return lines
}

// replaceCounts substitutes the symbolic light and clipping counts with
// concrete integers so array sizes are compile-time constants. The union
// count is the planes not participating in the intersection.
func (cfg *FeatureConfiguration) replaceCounts(src string) string {
	r := strings.NewReplacer(
		"NUM_DIR_LIGHTS", strconv.Itoa(cfg.NumDirLights),
		"NUM_POINT_LIGHTS", strconv.Itoa(cfg.NumPointLights),
		"NUM_SPOT_LIGHTS", strconv.Itoa(cfg.NumSpotLights),
		"NUM_HEMI_LIGHTS", strconv.Itoa(cfg.NumHemiLights),
		"NUM_CLIPPING_PLANES", strconv.Itoa(cfg.NumClippingPlanes),
		"UNION_CLIPPING_PLANES", strconv.Itoa(cfg.NumClippingPlanes-cfg.NumClipIntersection),
	)
	return r.Replace(src)
}
