package game_object

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/google/uuid"
)

// Kind identifies the drawable variant.
type Kind int

const (
	KindStaticMesh Kind = iota
	KindSkinnedMesh
	KindBackdrop
)

func (k Kind) String() string {
	switch k {
	case KindStaticMesh:
		return "static mesh"
	case KindSkinnedMesh:
		return "skinned mesh"
	case KindBackdrop:
		return "backdrop"
	default:
		return "unknown"
	}
}

// GroupContext carries the shared state drawables build their group resources against.
// InitGroupResource may run concurrently for many drawables sharing one context; the
// factory, composer and pipeline cache are safe for that. The pipeline cache must build
// without a pool when InitGroupResource itself runs on a pool, since drawables await
// their pipelines.
type GroupContext struct {
	Device    device.Device
	Factory   *bgp.Factory
	Composer  *shader.Composer
	Pipelines *pipeline.Cache
	Logger    logging.Logger

	// Shared holds the scene-wide resources: camera, light and shadow camera uniforms,
	// samplers, the shadow map and the environment maps.
	Shared bgp.Resources

	// Features are the scene-wide program features, such as the light kind.
	Features shader.FeatureSet

	ColorFormat device.TextureFormat
	DepthFormat device.TextureFormat
}

func (c *GroupContext) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Default()
	}
	return c.Logger
}

// Drawable defines the interface for one entry of the render controller's object list.
//
// Lifecycle:
//  1. InitVertexBuffer uploads geometry
//  2. InitGroupResource builds bind groups and pipelines; it may run on a worker pool
//  3. RecordShadow and RecordColor append draw commands to the pass bundles
//  4. Update refreshes per-frame uniforms once per displayed frame
//  5. Release frees everything the drawable created
type Drawable interface {
	// ID returns the unique identifier, shared with the scene node for meshes.
	//
	// Returns:
	//   - uuid.UUID: the identifier
	ID() uuid.UUID

	// Name returns the debug name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Kind returns the drawable variant.
	//
	// Returns:
	//   - Kind: the variant
	Kind() Kind

	// Features returns the program features, complete once InitGroupResource has run.
	//
	// Returns:
	//   - shader.FeatureSet: the features
	Features() shader.FeatureSet

	// InitVertexBuffer creates and fills the vertex and index buffers.
	//
	// Parameters:
	//   - dev: the device
	//
	// Returns:
	//   - error: error if a buffer cannot be created or the geometry cannot be packed
	InitVertexBuffer(dev device.Device) error

	// InitGroupResource creates the per-object uniforms, textures, bind groups and pipelines.
	//
	// Parameters:
	//   - ctx: the shared group context
	//
	// Returns:
	//   - error: the first resolution, composition or device failure
	InitGroupResource(ctx *GroupContext) error

	// RecordShadow appends the shadow-pass draw commands. Drawables that cast no shadow append nothing.
	//
	// Parameters:
	//   - enc: the shadow bundle encoder
	RecordShadow(enc device.RenderBundleEncoder)

	// RecordColor appends the color-pass draw commands.
	//
	// Parameters:
	//   - enc: the color bundle encoder
	RecordColor(enc device.RenderBundleEncoder)

	// Update writes the per-frame uniform data.
	//
	// Parameters:
	//   - dev: the device whose queue receives the writes
	//
	// Returns:
	//   - error: error if a write cannot be applied
	Update(dev device.Device) error

	// Release frees the buffers, textures and bind groups the drawable created.
	// Pipelines belong to the pipeline cache.
	Release()
}
