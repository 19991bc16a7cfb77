package opengl

// Lambert shading: ambient fill plus one directional light. Colours arrive
// in linear space; the sRGB framebuffer encodes on write.
const meshVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 mvp;
uniform mat3 normalMatrix;

out vec3 fragNormal;
out vec2 fragUV;
out vec4 fragColor;

void main() {
    gl_Position = mvp * vec4(inPosition, 1.0);
    fragNormal  = normalMatrix * inNormal;
    fragUV      = inUV;
    fragColor   = inColor;
}
` + "\x00"

const meshFragSrc = `
#version 410 core
in vec3 fragNormal;
in vec2 fragUV;
in vec4 fragColor;

uniform vec4      albedo;
uniform bool      hasTexture;
uniform sampler2D albedoTex;
uniform bool      unlit;

uniform vec3 ambientRadiance;
uniform vec3 sunDirection; // direction the light travels
uniform vec3 sunRadiance;

out vec4 outColor;

void main() {
    vec4 base = albedo * fragColor;
    if (hasTexture) {
        base *= texture(albedoTex, fragUV);
    }
    if (unlit) {
        outColor = base;
        return;
    }

    vec3 n = normalize(fragNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    float diff = max(dot(n, -sunDirection), 0.0);
    vec3 lit = base.rgb * (ambientRadiance + sunRadiance * diff);
    outColor = vec4(lit, base.a);
}
` + "\x00"
