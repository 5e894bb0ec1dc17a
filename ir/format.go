package ir

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// FormatComponents returns how many components a store to an image of
// format f writes, or 0 when the format is undefined or not usable as a
// storage image (depth, stencil and block-compressed formats).
func FormatComponents(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm,
		gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint,
		gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatR16Unorm,
		gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint,
		gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float,
		gputypes.TextureFormatR32Float,
		gputypes.TextureFormatR32Uint,
		gputypes.TextureFormatR32Sint:
		return 1
	case gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm,
		gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint,
		gputypes.TextureFormatRG16Unorm,
		gputypes.TextureFormatRG16Snorm,
		gputypes.TextureFormatRG16Uint,
		gputypes.TextureFormatRG16Sint,
		gputypes.TextureFormatRG16Float,
		gputypes.TextureFormatRG32Float,
		gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint:
		return 2
	case gputypes.TextureFormatRG11B10Ufloat,
		gputypes.TextureFormatRGB9E5Ufloat:
		return 3
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatRGBA8Snorm,
		gputypes.TextureFormatRGBA8Uint,
		gputypes.TextureFormatRGBA8Sint,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGB10A2Uint,
		gputypes.TextureFormatRGB10A2Unorm,
		gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm,
		gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRGBA32Float,
		gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 4
	default:
		return 0
	}
}

// lastTextureFormat bounds the format name scan.
const lastTextureFormat = gputypes.TextureFormatASTC12x12UnormSrgb

// FormatName returns the lower-case textual name of f ("rgba8unorm").
func FormatName(f gputypes.TextureFormat) string {
	return strings.ToLower(f.String())
}

// ParseFormat maps a name produced by FormatName back to a format.
func ParseFormat(name string) (gputypes.TextureFormat, bool) {
	for f := gputypes.TextureFormatUndefined; f <= lastTextureFormat; f++ {
		if FormatName(f) == name {
			return f, true
		}
	}
	return gputypes.TextureFormatUndefined, false
}

var accessNames = map[gputypes.StorageTextureAccess]string{
	gputypes.StorageTextureAccessUndefined: "none",
	gputypes.StorageTextureAccessWriteOnly: "write",
	gputypes.StorageTextureAccessReadOnly:  "read",
	gputypes.StorageTextureAccessReadWrite: "read_write",
}

// AccessName returns the textual name of an image access mode.
func AccessName(a gputypes.StorageTextureAccess) string {
	if n, ok := accessNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAccess maps a name produced by AccessName back to an access mode.
func ParseAccess(name string) (gputypes.StorageTextureAccess, bool) {
	for a, n := range accessNames {
		if n == name {
			return a, true
		}
	}
	return gputypes.StorageTextureAccessUndefined, false
}

// StageName returns the textual name of a shader stage ("fragment").
func StageName(s gputypes.ShaderStage) string {
	return strings.ToLower(s.String())
}

// ParseStage maps vertex, fragment, compute or none to a stage.
func ParseStage(name string) (gputypes.ShaderStage, bool) {
	for _, s := range []gputypes.ShaderStage{
		gputypes.ShaderStageNone,
		gputypes.ShaderStageVertex,
		gputypes.ShaderStageFragment,
		gputypes.ShaderStageCompute,
	} {
		if StageName(s) == name {
			return s, true
		}
	}
	return gputypes.ShaderStageNone, false
}
