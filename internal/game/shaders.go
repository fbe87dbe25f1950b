package game

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Scene vertex shader: position, normal, uv per vertex (8 floats).
const sceneVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProj;
uniform mat4 uLightSpace;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;
out vec4 vLightPos;
out float vViewDepth;

void main() {
    vec4 world = uModel * vec4(aPos, 1.0);
    vec4 view = uView * world;
    vWorldPos = world.xyz;
    vNormal = mat3(transpose(inverse(uModel))) * aNormal;
    vUV = aUV;
    vLightPos = uLightSpace * world;
    vViewDepth = -view.z;
    gl_Position = uProj * view;
}
` + "\x00"

// Scene fragment shader: ambient + shadowed directional + two spot lights,
// lambert diffuse with a blinn highlight, linear fog. Output is linear HDR.
const sceneFragSrc = `#version 410 core

const float PI = 3.14159265;

uniform vec4 uBaseColor;
uniform bool uHasTex;
uniform sampler2D uTex;
uniform sampler2D uShadowMap;
uniform vec3 uCameraPos;

uniform vec3 uAmbient;
uniform vec3 uSunDir;   // towards the light
uniform vec3 uSunColor;

uniform vec3 uSpotPos[2];
uniform vec3 uSpotDir[2];
uniform vec3 uSpotColor[2];
uniform float uSpotCos;

uniform vec3 uFogColor;
uniform float uFogNear;
uniform float uFogFar;

in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;
in vec4 vLightPos;
in float vViewDepth;

out vec4 FragColor;

float shadowFactor(vec3 n) {
    vec3 p = vLightPos.xyz / vLightPos.w * 0.5 + 0.5;
    if (p.z > 1.0 || p.x < 0.0 || p.x > 1.0 || p.y < 0.0 || p.y > 1.0) {
        return 1.0;
    }
    float bias = max(0.002 * (1.0 - dot(n, uSunDir)), 0.0005);
    vec2 texel = 1.0 / vec2(textureSize(uShadowMap, 0));
    float lit = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            float d = texture(uShadowMap, p.xy + vec2(x, y) * texel).r;
            lit += p.z - bias > d ? 0.0 : 1.0;
        }
    }
    return lit / 9.0;
}

vec3 shade(vec3 albedo, vec3 n, vec3 v, vec3 l, vec3 irradiance) {
    float ndl = max(dot(n, l), 0.0);
    vec3 h = normalize(l + v);
    float spec = pow(max(dot(n, h), 0.0), 32.0) * 0.04;
    return irradiance * ndl * (albedo / PI + spec);
}

void main() {
    vec4 base = uBaseColor;
    if (uHasTex) {
        base *= texture(uTex, vUV);
    }
    if (base.a < 0.01) {
        discard;
    }
    vec3 albedo = base.rgb;
    vec3 n = normalize(vNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 v = normalize(uCameraPos - vWorldPos);

    vec3 color = uAmbient * albedo / PI;
    color += shade(albedo, n, v, uSunDir, uSunColor) * shadowFactor(n);

    for (int i = 0; i < 2; i++) {
        vec3 toLight = uSpotPos[i] - vWorldPos;
        float dist = length(toLight);
        vec3 l = toLight / dist;
        if (dot(-l, uSpotDir[i]) < uSpotCos) {
            continue;
        }
        float falloff = 1.0 / max(dist * dist, 0.01);
        color += shade(albedo, n, v, l, uSpotColor[i] * falloff);
    }

    float fog = smoothstep(uFogNear, uFogFar, vViewDepth);
    FragColor = vec4(mix(color, uFogColor, fog), base.a);
}
` + "\x00"

// Depth-only pass into the sun's shadow map.
const depthVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;

uniform mat4 uModel;
uniform mat4 uLightSpace;

void main() {
    gl_Position = uLightSpace * uModel * vec4(aPos, 1.0);
}
` + "\x00"

const depthFragSrc = `#version 410 core

void main() {}
` + "\x00"

// Sky dome: unlit, fogged like the rest of the scene.
const skyVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 2) in vec2 aUV;

uniform mat4 uView;
uniform mat4 uProj;

out vec2 vUV;
out float vViewDepth;

void main() {
    vec4 view = uView * vec4(aPos, 1.0);
    vUV = aUV;
    vViewDepth = -view.z;
    gl_Position = uProj * view;
}
` + "\x00"

const skyFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform vec3 uFogColor;
uniform float uFogNear;
uniform float uFogFar;

in vec2 vUV;
in float vViewDepth;
out vec4 FragColor;

void main() {
    vec3 c = texture(uTex, vUV).rgb;
    float fog = smoothstep(uFogNear, uFogFar, vViewDepth);
    FragColor = vec4(mix(c, uFogColor, fog), 1.0);
}
` + "\x00"

// Fullscreen triangle from gl_VertexID; draw 3 vertices with an empty VAO.
const screenVertSrc = `#version 410 core

out vec2 vUV;

void main() {
    vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = p;
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

// Depth of field from the scene depth buffer.
const bokehFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform sampler2D tDepth;
uniform float focus;
uniform float aperture;
uniform float maxblur;
uniform float aspect;
uniform float nearClip;
uniform float farClip;

in vec2 vUV;
out vec4 FragColor;

float viewZ(float depth) {
    float z = depth * 2.0 - 1.0;
    return (2.0 * nearClip * farClip) / (farClip + nearClip - z * (farClip - nearClip));
}

void main() {
    vec2 aspectCorrection = vec2(1.0, aspect);
    float factor = viewZ(texture(tDepth, vUV).r) - focus;
    vec2 dofblur = vec2(clamp(factor * aperture, -maxblur, maxblur));

    vec4 col = texture(tColor, vUV);
    float weight = 1.0;
    const float rings[3] = float[](0.4, 0.7, 1.0);
    for (int r = 0; r < 3; r++) {
        for (int i = 0; i < 12; i++) {
            float a = float(i) * 0.5235988 + float(r) * 0.2617994;
            vec2 off = vec2(cos(a), sin(a)) * aspectCorrection * dofblur * rings[r];
            col += texture(tColor, vUV + off);
            weight += 1.0;
        }
    }
    FragColor = vec4(col.rgb / weight, 1.0);
}
` + "\x00"

const vignetteFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform float offset;
uniform float darkness;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 texel = texture(tColor, vUV);
    vec2 uv = (vUV - vec2(0.5)) * vec2(offset);
    FragColor = vec4(mix(texel.rgb, vec3(1.0 - darkness), dot(uv, uv)), texel.a);
}
` + "\x00"

// Bloom high pass with a soft knee.
const brightFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform float threshold;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 texel = texture(tColor, vUV);
    float lum = dot(texel.rgb, vec3(0.299, 0.587, 0.114));
    float alpha = smoothstep(threshold, threshold + 0.01, lum);
    FragColor = mix(vec4(0.0), texel, alpha);
}
` + "\x00"

// Separable gaussian, sigma equal to the kernel radius.
const blurFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform vec2 invSize;
uniform vec2 direction;
uniform int kernelRadius;

in vec2 vUV;
out vec4 FragColor;

float gaussianPdf(float x, float sigma) {
    return 0.39894 * exp(-0.5 * x * x / (sigma * sigma)) / sigma;
}

void main() {
    float sigma = float(kernelRadius);
    float weightSum = gaussianPdf(0.0, sigma);
    vec3 sum = texture(tColor, vUV).rgb * weightSum;
    for (int i = 1; i < kernelRadius; i++) {
        float w = gaussianPdf(float(i), sigma);
        vec2 off = direction * invSize * float(i);
        sum += (texture(tColor, vUV + off).rgb + texture(tColor, vUV - off).rgb) * w;
        weightSum += 2.0 * w;
    }
    FragColor = vec4(sum / weightSum, 1.0);
}
` + "\x00"

// Adds the blurred mips back onto the scene.
const bloomCompositeFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform sampler2D tBlur[5];
uniform float bloomFactors[5];
uniform float strength;
uniform float radius;

in vec2 vUV;
out vec4 FragColor;

float lerpBloomFactor(float factor) {
    return mix(factor, 1.2 - factor, radius);
}

void main() {
    vec3 bloom = vec3(0.0);
    bloom += lerpBloomFactor(bloomFactors[0]) * texture(tBlur[0], vUV).rgb;
    bloom += lerpBloomFactor(bloomFactors[1]) * texture(tBlur[1], vUV).rgb;
    bloom += lerpBloomFactor(bloomFactors[2]) * texture(tBlur[2], vUV).rgb;
    bloom += lerpBloomFactor(bloomFactors[3]) * texture(tBlur[3], vUV).rgb;
    bloom += lerpBloomFactor(bloomFactors[4]) * texture(tBlur[4], vUV).rgb;
    vec4 scene = texture(tColor, vUV);
    FragColor = vec4(scene.rgb + strength * bloom, scene.a);
}
` + "\x00"

const fxaaFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform vec2 resolution; // 1 / drawing buffer size

in vec2 vUV;
out vec4 FragColor;

const float FXAA_REDUCE_MIN = 1.0 / 128.0;
const float FXAA_REDUCE_MUL = 1.0 / 8.0;
const float FXAA_SPAN_MAX = 8.0;

void main() {
    vec3 rgbNW = texture(tColor, vUV + vec2(-1.0, -1.0) * resolution).rgb;
    vec3 rgbNE = texture(tColor, vUV + vec2(1.0, -1.0) * resolution).rgb;
    vec3 rgbSW = texture(tColor, vUV + vec2(-1.0, 1.0) * resolution).rgb;
    vec3 rgbSE = texture(tColor, vUV + vec2(1.0, 1.0) * resolution).rgb;
    vec4 texM = texture(tColor, vUV);
    vec3 rgbM = texM.rgb;

    vec3 luma = vec3(0.299, 0.587, 0.114);
    float lumaNW = dot(rgbNW, luma);
    float lumaNE = dot(rgbNE, luma);
    float lumaSW = dot(rgbSW, luma);
    float lumaSE = dot(rgbSE, luma);
    float lumaM = dot(rgbM, luma);
    float lumaMin = min(lumaM, min(min(lumaNW, lumaNE), min(lumaSW, lumaSE)));
    float lumaMax = max(lumaM, max(max(lumaNW, lumaNE), max(lumaSW, lumaSE)));

    vec2 dir = vec2(-((lumaNW + lumaNE) - (lumaSW + lumaSE)), (lumaNW + lumaSW) - (lumaNE + lumaSE));
    float dirReduce = max((lumaNW + lumaNE + lumaSW + lumaSE) * 0.25 * FXAA_REDUCE_MUL, FXAA_REDUCE_MIN);
    float rcpDirMin = 1.0 / (min(abs(dir.x), abs(dir.y)) + dirReduce);
    dir = clamp(dir * rcpDirMin, vec2(-FXAA_SPAN_MAX), vec2(FXAA_SPAN_MAX)) * resolution;

    vec3 rgbA = 0.5 * (
        texture(tColor, vUV + dir * (1.0 / 3.0 - 0.5)).rgb +
        texture(tColor, vUV + dir * (2.0 / 3.0 - 0.5)).rgb);
    vec3 rgbB = rgbA * 0.5 + 0.25 * (
        texture(tColor, vUV + dir * -0.5).rgb +
        texture(tColor, vUV + dir * 0.5).rgb);

    float lumaB = dot(rgbB, luma);
    if (lumaB < lumaMin || lumaB > lumaMax) {
        FragColor = vec4(rgbA, texM.a);
    } else {
        FragColor = vec4(rgbB, texM.a);
    }
}
` + "\x00"

// ACES filmic tone map, exposure, sRGB encode.
const outputFragSrc = `#version 410 core

uniform sampler2D tColor;
uniform float exposure;

in vec2 vUV;
out vec4 FragColor;

vec3 RRTAndODTFit(vec3 v) {
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return a / b;
}

vec3 ACESFilmicToneMapping(vec3 color) {
    const mat3 ACESInputMat = mat3(
        vec3(0.59719, 0.07600, 0.02840),
        vec3(0.35458, 0.90834, 0.13383),
        vec3(0.04823, 0.01566, 0.83777));
    const mat3 ACESOutputMat = mat3(
        vec3( 1.60475, -0.10208, -0.00327),
        vec3(-0.53108,  1.10813, -0.07276),
        vec3(-0.07367, -0.00605,  1.07602));
    color *= exposure / 0.6;
    color = ACESInputMat * color;
    color = RRTAndODTFit(color);
    color = ACESOutputMat * color;
    return clamp(color, 0.0, 1.0);
}

vec3 linearToSRGB(vec3 c) {
    return mix(c * 12.92, pow(c, vec3(1.0 / 2.4)) * 1.055 - 0.055, step(vec3(0.0031308), c));
}

void main() {
    vec4 texel = texture(tColor, vUV);
    FragColor = vec4(linearToSRGB(ACESFilmicToneMapping(texel.rgb)), 1.0);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}
