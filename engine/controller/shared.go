package controller

import (
	"fmt"
	"math/bits"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/light"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/ibl"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
)

var (
	shadowSampler = common.SamplerStagingData{
		AddressMode:  device.AddressModeClampToEdge,
		MagFilter:    device.FilterModeLinear,
		MinFilter:    device.FilterModeLinear,
		MipmapFilter: device.FilterModeNearest,
		Compare:      device.CompareFunctionLess,
	}
	textureSampler = common.SamplerStagingData{
		AddressMode:  device.AddressModeRepeat,
		MagFilter:    device.FilterModeLinear,
		MinFilter:    device.FilterModeLinear,
		MipmapFilter: device.FilterModeLinear,
	}
	envSampler = common.SamplerStagingData{
		AddressMode:  device.AddressModeClampToEdge,
		MagFilter:    device.FilterModeLinear,
		MinFilter:    device.FilterModeLinear,
		MipmapFilter: device.FilterModeLinear,
	}
)

// sharedResources are the scene-wide resources every drawable binds.
type sharedResources struct {
	cameraBuffer       device.Buffer
	lightBuffer        device.Buffer
	shadowCameraBuffer device.Buffer

	shadowMap     device.Texture
	shadowMapView device.TextureView

	shadowSampler  device.Sampler
	textureSampler device.Sampler
	envSampler     device.Sampler

	envMap        device.Texture
	diffuseEnvMap device.Texture
	brdfLut       device.Texture
}

// newSharedResources creates the shared uniforms, samplers, the shadow map and the
// environment maps, uploading env into mip 0 of the environment map. The returned
// value is never nil, so the caller can release whatever was created before a failure.
func newSharedResources(dev device.Device, cam camera.Camera, l light.Light, env *common.CubeStagingData, maxMips uint32) (*sharedResources, error) {
	s := &sharedResources{}
	var err error

	uniform := func(label string, size uint64) (device.Buffer, error) {
		buf, err := dev.CreateBuffer(device.BufferDescriptor{Label: label, Size: size, Usage: device.BufferUsageUniform | device.BufferUsageCopyDst})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s buffer: %w", label, err)
		}
		return buf, nil
	}
	if s.cameraBuffer, err = uniform(resource.Camera, resource.CameraSize); err != nil {
		return s, err
	}
	if s.lightBuffer, err = uniform(resource.Light, resource.LightSize); err != nil {
		return s, err
	}
	if s.shadowCameraBuffer, err = uniform(resource.ShadowCamera, resource.ShadowCameraSize); err != nil {
		return s, err
	}
	if err := s.write(dev, cam, l); err != nil {
		return s, fmt.Errorf("failed to write shared uniforms: %w", err)
	}

	res := l.ShadowResolution()
	if s.shadowMap, err = dev.CreateTexture(device.TextureDescriptor{
		Label:         resource.ShadowMap,
		Size:          device.Extent3D{Width: res, Height: res, DepthOrArrayLayers: 1},
		Format:        DepthFormat,
		MipLevelCount: 1,
		Usage:         device.TextureUsageRenderAttachment | device.TextureUsageTextureBinding,
	}); err != nil {
		return s, fmt.Errorf("failed to create shadow map: %w", err)
	}
	if s.shadowMapView, err = s.shadowMap.CreateView(&device.TextureViewDescriptor{
		Label:     "shadow attachment",
		Format:    DepthFormat,
		Dimension: device.TextureViewDimension2D,
	}); err != nil {
		return s, fmt.Errorf("failed to create shadow map view: %w", err)
	}

	for _, smp := range []struct {
		dst  *device.Sampler
		data common.SamplerStagingData
		name string
	}{
		{&s.shadowSampler, shadowSampler, resource.ShadowMapSampler},
		{&s.textureSampler, textureSampler, resource.TextureSampler},
		{&s.envSampler, envSampler, resource.EnvSampler},
	} {
		if *smp.dst, err = dev.CreateSampler(smp.data.Descriptor(smp.name)); err != nil {
			return s, fmt.Errorf("failed to create %s: %w", smp.name, err)
		}
	}

	size := env.Size
	mips := min(maxMips, uint32(bits.Len32(size)))
	extent := device.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 6}
	if s.envMap, err = dev.CreateTexture(device.TextureDescriptor{
		Label:         resource.EnvMap,
		Size:          extent,
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: max(mips, 1),
		Usage: device.TextureUsageTextureBinding | device.TextureUsageStorageBinding |
			device.TextureUsageCopyDst | device.TextureUsageCopySrc,
	}); err != nil {
		return s, fmt.Errorf("failed to create environment map: %w", err)
	}
	if err := dev.WriteTexture(
		device.TextureCopy{Texture: s.envMap},
		env.Layers(),
		device.TextureDataLayout{BytesPerRow: 4 * size, RowsPerImage: size},
		extent,
	); err != nil {
		return s, fmt.Errorf("failed to upload environment map: %w", err)
	}

	if s.diffuseEnvMap, err = dev.CreateTexture(device.TextureDescriptor{
		Label:         resource.DiffuseEnvMap,
		Size:          device.Extent3D{Width: ibl.DiffuseEnvMapResolution, Height: ibl.DiffuseEnvMapResolution, DepthOrArrayLayers: 6},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		Usage:         device.TextureUsageTextureBinding | device.TextureUsageStorageBinding,
	}); err != nil {
		return s, fmt.Errorf("failed to create diffuse environment map: %w", err)
	}
	return s, nil
}

// write refreshes the camera, light and shadow camera uniforms.
func (s *sharedResources) write(dev device.Device, cam camera.Camera, l light.Light) error {
	l.Update()
	if err := dev.WriteBuffer(s.cameraBuffer, 0, cam.Uniform()); err != nil {
		return err
	}
	if err := dev.WriteBuffer(s.lightBuffer, 0, l.Uniform()); err != nil {
		return err
	}
	return dev.WriteBuffer(s.shadowCameraBuffer, 0, l.ShadowUniform())
}

// resources maps the shared handles to their resource names.
func (s *sharedResources) resources() bgp.Resources {
	return bgp.Resources{
		resource.Camera:           s.cameraBuffer,
		resource.Light:            s.lightBuffer,
		resource.ShadowCamera:     s.shadowCameraBuffer,
		resource.ShadowMapSampler: s.shadowSampler,
		resource.TextureSampler:   s.textureSampler,
		resource.EnvSampler:       s.envSampler,
		resource.ShadowMap:        s.shadowMap,
		resource.EnvMap:           s.envMap,
		resource.DiffuseEnvMap:    s.diffuseEnvMap,
		resource.BRDFLut:          s.brdfLut,
	}
}

func (s *sharedResources) release() {
	for _, r := range []device.Releasable{
		s.cameraBuffer, s.lightBuffer, s.shadowCameraBuffer,
		s.shadowMapView, s.shadowMap,
		s.shadowSampler, s.textureSampler, s.envSampler,
		s.envMap, s.diffuseEnvMap, s.brdfLut,
	} {
		if r != nil {
			r.Release()
		}
	}
}
