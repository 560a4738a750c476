// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// NewTextureStagingData converts any image into RGBA staging data, optionally resampled to width x height.
// A zero width or height keeps the source size.
//
// Parameters:
//   - img: the source image
//   - width: the target width in pixels, or 0
//   - height: the target height in pixels, or 0
//
// Returns:
//   - TextureStagingData: the RGBA pixels ready for upload
func NewTextureStagingData(img image.Image, width, height uint32) TextureStagingData {
	bounds := img.Bounds()
	if width == 0 || height == 0 {
		width, height = uint32(bounds.Dx()), uint32(bounds.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	if uint32(bounds.Dx()) == width && uint32(bounds.Dy()) == height {
		xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	} else {
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	}
	return TextureStagingData{Pixels: dst.Pix, Width: width, Height: height}
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressMode applies to U, V and W.
	AddressMode device.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter device.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter device.FilterMode
	// LodMaxClamp limits the sampled mip level.
	LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping.
	Compare device.CompareFunction
}

// Descriptor converts the staging data into a sampler descriptor.
func (s SamplerStagingData) Descriptor(label string) device.SamplerDescriptor {
	return device.SamplerDescriptor{
		Label:        label,
		AddressMode:  s.AddressMode,
		MagFilter:    s.MagFilter,
		MinFilter:    s.MinFilter,
		MipmapFilter: s.MipmapFilter,
		LodMaxClamp:  Coalesce(s.LodMaxClamp, 32),
		Compare:      s.Compare,
	}
}

// CubeStagingData holds the six RGBA8 faces of a cube map pending GPU upload.
// Faces are ordered +X, -X, +Y, -Y, +Z, -Z.
type CubeStagingData struct {
	Faces [6][]byte
	Size  uint32
}

// NewCubeStagingData allocates black faces of the given edge size.
func NewCubeStagingData(size uint32) *CubeStagingData {
	c := &CubeStagingData{Size: size}
	for i := range c.Faces {
		c.Faces[i] = make([]byte, int(size*size*4))
	}
	return c
}

// NewCubeStagingDataFromImages resamples six face images into a cube of the given edge size.
//
// Parameters:
//   - faces: the face images ordered +X, -X, +Y, -Y, +Z, -Z
//   - size: the edge size of every output face
//
// Returns:
//   - *CubeStagingData: the resampled cube
//   - error: error if any face is missing
func NewCubeStagingDataFromImages(faces [6]image.Image, size uint32) (*CubeStagingData, error) {
	c := &CubeStagingData{Size: size}
	for i, img := range faces {
		if img == nil {
			return nil, fmt.Errorf("cube face %d is nil", i)
		}
		c.Faces[i] = NewTextureStagingData(img, size, size).Pixels
	}
	return c, nil
}

// Fill evaluates radiance for the direction through every texel center of every face.
// Radiance channels are clamped to [0, 1] and stored with alpha 255.
func (c *CubeStagingData) Fill(radiance func(dir mgl32.Vec3) mgl32.Vec3) {
	n := int(c.Size)
	for face := 0; face < 6; face++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				c.Set(face, x, y, radiance(CubeTexelDirection(face, x, y, n)))
			}
		}
	}
}

// Set stores a normalized RGB value into one texel, clamped to [0, 1] with alpha 255.
func (c *CubeStagingData) Set(face, x, y int, col mgl32.Vec3) {
	o := (y*int(c.Size) + x) * 4
	p := c.Faces[face]
	p[o+0] = toUnorm8(col[0])
	p[o+1] = toUnorm8(col[1])
	p[o+2] = toUnorm8(col[2])
	p[o+3] = 255
}

// At returns the normalized RGB value of one texel.
func (c *CubeStagingData) At(face, x, y int) mgl32.Vec3 {
	o := (y*int(c.Size) + x) * 4
	p := c.Faces[face]
	return mgl32.Vec3{float32(p[o]) / 255, float32(p[o+1]) / 255, float32(p[o+2]) / 255}
}

// Sample returns the nearest texel value in the given direction.
func (c *CubeStagingData) Sample(dir mgl32.Vec3) mgl32.Vec3 {
	face, x, y := CubeDirectionTexel(dir, int(c.Size))
	return c.At(face, x, y)
}

// Layers returns the faces concatenated in layer order, ready for a single layered upload.
func (c *CubeStagingData) Layers() []byte {
	out := make([]byte, 0, len(c.Faces[0])*6)
	for _, f := range c.Faces {
		out = append(out, f...)
	}
	return out
}

func toUnorm8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
