package shader

import (
	"Glint/internal/logger"

	"go.uber.org/zap"
)

// ChunkLibrary holds named GLSL fragments referenced by #include <name>
// markers, plus a table of deprecated names that still resolve with a
// one-time warning. Libraries are typically built once at startup and shared
// by every template.
type ChunkLibrary struct {
	chunks  map[string]string
	aliases map[string]string
	warned  map[string]bool
}

// NewChunkLibrary returns a library seeded with the built-in chunks.
func NewChunkLibrary() *ChunkLibrary {
	lib := &ChunkLibrary{
		chunks:  make(map[string]string, len(builtinChunks)),
		aliases: make(map[string]string, len(deprecatedChunks)),
		warned:  make(map[string]bool),
	}
	for name, src := range builtinChunks {
		lib.chunks[name] = src
	}
	for old, replacement := range deprecatedChunks {
		lib.aliases[old] = replacement
	}
	return lib
}

// Register adds or replaces a chunk.
func (l *ChunkLibrary) Register(name, source string) {
	l.chunks[name] = source
}

// Resolve looks up a chunk by name, falling back to the deprecated-alias
// table. The second result is false when neither lookup succeeds.
func (l *ChunkLibrary) Resolve(name string) (string, bool) {
	if src, ok := l.chunks[name]; ok {
		return src, true
	}
	if replacement, ok := l.aliases[name]; ok {
		if !l.warned[name] {
			l.warned[name] = true
			logger.Log.Warn("Shader chunk name is deprecated",
				zap.String("name", name),
				zap.String("use", replacement))
		}
		if src, ok := l.chunks[replacement]; ok {
			return src, true
		}
	}
	return "", false
}

// deprecatedChunks maps retired chunk names to their replacements.
var deprecatedChunks = map[string]string{
	"encodings_fragment": "colorspace_fragment",
	"output_fragment":    "opaque_fragment",
}

// builtinChunks is the standard chunk set. Kept deliberately small; engines
// layer their own chunks on top via Register.
var builtinChunks = map[string]string{
	"common": `#define PI 3.141592653589793
#define RECIPROCAL_PI 0.3183098861837907
#define EPSILON 1e-6
float pow2(const in float x) { return x * x; }
float saturate2(const in float x) { return clamp(x, 0.0, 1.0); }`,

	"uv_pars_vertex": `#ifdef USE_MAP
out vec2 vUv;
#endif`,

	"uv_vertex": `#ifdef USE_MAP
vUv = uv;
#endif`,

	"uv_pars_fragment": `#ifdef USE_MAP
in vec2 vUv;
uniform sampler2D map;
#endif`,

	"map_fragment": `#ifdef USE_MAP
diffuseColor *= texture2D(map, vUv);
#endif`,

	"begin_vertex": `vec3 transformed = vec3(position);`,

	"beginnormal_vertex": `vec3 objectNormal = vec3(normal);`,

	"project_vertex": `vec4 mvPosition = vec4(transformed, 1.0);
#ifdef USE_INSTANCING
mvPosition = instanceMatrix * mvPosition;
#endif
mvPosition = modelViewMatrix * mvPosition;
gl_Position = projectionMatrix * mvPosition;`,

	"fog_pars_vertex": `#ifdef USE_FOG
out float vFogDepth;
#endif`,

	"fog_vertex": `#ifdef USE_FOG
vFogDepth = -mvPosition.z;
#endif`,

	"fog_pars_fragment": `#ifdef USE_FOG
uniform vec3 fogColor;
in float vFogDepth;
#ifdef FOG_EXP2
uniform float fogDensity;
#else
uniform float fogNear;
uniform float fogFar;
#endif
#endif`,

	"fog_fragment": `#ifdef USE_FOG
#ifdef FOG_EXP2
float fogFactor = 1.0 - exp(-fogDensity * fogDensity * vFogDepth * vFogDepth);
#else
float fogFactor = smoothstep(fogNear, fogFar, vFogDepth);
#endif
gl_FragColor.rgb = mix(gl_FragColor.rgb, fogColor, fogFactor);
#endif`,

	"lights_pars": `struct DirectionalLight {
	vec3 direction;
	vec3 color;
};
struct PointLight {
	vec3 position;
	vec3 color;
	float distance;
	float decay;
};
#if NUM_DIR_LIGHTS > 0
uniform DirectionalLight directionalLights[NUM_DIR_LIGHTS];
#endif
#if NUM_POINT_LIGHTS > 0
uniform PointLight pointLights[NUM_POINT_LIGHTS];
#endif`,

	"lights_fragment": `vec3 directLight = vec3(0.0);
#if NUM_DIR_LIGHTS > 0
#pragma unroll_loop_start
for (int i = 0; i < NUM_DIR_LIGHTS; i++) {
	directLight += max(dot(normal, -directionalLights[i].direction), 0.0) * directionalLights[i].color;
}
#pragma unroll_loop_end
#endif
#if NUM_POINT_LIGHTS > 0
#pragma unroll_loop_start
for (int i = 0; i < NUM_POINT_LIGHTS; i++) {
	directLight += max(dot(normal, normalize(pointLights[i].position - vWorldPosition)), 0.0) * pointLights[i].color;
}
#pragma unroll_loop_end
#endif`,

	"clipping_planes_pars_fragment": `#if NUM_CLIPPING_PLANES > 0
uniform vec4 clippingPlanes[NUM_CLIPPING_PLANES];
in vec3 vClipPosition;
#endif`,

	"clipping_planes_fragment": `#if NUM_CLIPPING_PLANES > 0
vec4 plane;
#pragma unroll_loop_start
for (int i = 0; i < UNION_CLIPPING_PLANES; i++) {
	plane = clippingPlanes[i];
	if (dot(vClipPosition, plane.xyz) > plane.w) discard;
}
#pragma unroll_loop_end
#endif`,

	"colorspace_fragment": `gl_FragColor = linearToOutputTexel(gl_FragColor);`,

	"tonemapping_fragment": `#if defined(TONE_MAPPING)
gl_FragColor.rgb = toneMapping(gl_FragColor.rgb);
#endif`,

	"opaque_fragment": `gl_FragColor = vec4(outgoingLight, diffuseColor.a);`,
}
