package core

import "math"

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// ColorFromHex converts a 0xRRGGBB value to an opaque Color.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
		A: 1,
	}
}

// Hex packs the RGB channels back into 0xRRGGBB.
func (c Color) Hex() uint32 {
	return uint32(channelByte(c.R))<<16 | uint32(channelByte(c.G))<<8 | uint32(channelByte(c.B))
}

// Scale multiplies the RGB channels by s, leaving alpha untouched.
func (c Color) Scale(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// Linear converts an sRGB-encoded colour to linear space. Clear colours go
// through the sRGB framebuffer encode, so they must be linearised first.
func (c Color) Linear() Color {
	return Color{R: srgbToLinear(c.R), G: srgbToLinear(c.G), B: srgbToLinear(c.B), A: c.A}
}

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

func channelByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Key identifies the keyboard keys the viewer reacts to. Everything else
// maps to KeyUnknown.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyW:
		return "KeyW"
	case KeyA:
		return "KeyA"
	case KeyS:
		return "KeyS"
	case KeyD:
		return "KeyD"
	case KeyEscape:
		return "Escape"
	}
	return "Unknown"
}

// Action is the transition reported with a key event.
type Action int

const (
	Release Action = iota
	Press
	Repeat
)
