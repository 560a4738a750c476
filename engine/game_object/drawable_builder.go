package game_object

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// drawableConfig collects the options shared by every drawable variant.
type drawableConfig struct {
	castsShadow bool
}

func newDrawableConfig(options ...DrawableOption) *drawableConfig {
	cfg := &drawableConfig{castsShadow: true}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// DrawableOption is a functional option used to configure a drawable during construction.
type DrawableOption func(*drawableConfig)

// WithCastsShadow sets whether the drawable records into the shadow pass. Meshes cast shadows by default.
//
// Parameters:
//   - casts: whether to record shadow draws
//
// Returns:
//   - DrawableOption: a function that sets the shadow flag
func WithCastsShadow(casts bool) DrawableOption {
	return func(c *drawableConfig) {
		c.castsShadow = casts
	}
}

// uploadMap creates a sampled RGBA8 texture and uploads the staged pixels into it.
func uploadMap(dev device.Device, label string, data *common.TextureStagingData) (device.Texture, error) {
	if data == nil || data.Width == 0 || data.Height == 0 {
		return nil, fmt.Errorf("texture %s has no pixels", label)
	}
	size := device.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1}
	tex, err := dev.CreateTexture(device.TextureDescriptor{
		Label:         label,
		Size:          size,
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		Usage:         device.TextureUsageTextureBinding | device.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}
	if err := dev.WriteTexture(
		device.TextureCopy{Texture: tex},
		data.Pixels,
		device.TextureDataLayout{BytesPerRow: 4 * data.Width, RowsPerImage: data.Height},
		size,
	); err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to upload texture %s: %w", label, err)
	}
	return tex, nil
}
