package game_object

import (
	"fmt"
	"sync"

	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/google/uuid"
)

// BackdropName is the name of the environment backdrop drawable.
const BackdropName = "backdrop"

// backdrop draws the environment map behind every other drawable with one full-screen
// triangle. It passes the depth test only where nothing else was drawn and never
// writes depth, so it is recorded last in the color pass and not at all in the shadow pass.
type backdrop struct {
	mu       sync.Mutex
	id       uuid.UUID
	group    bgp.BindGroupProvider
	pipeline pipeline.Pipeline
}

// NewBackdrop creates the environment backdrop.
//
// Returns:
//   - Drawable: the backdrop
func NewBackdrop() Drawable {
	return &backdrop{id: uuid.New()}
}

func (b *backdrop) ID() uuid.UUID               { return b.id }
func (b *backdrop) Name() string                { return BackdropName }
func (b *backdrop) Kind() Kind                  { return KindBackdrop }
func (b *backdrop) Features() shader.FeatureSet { return shader.FeatureSet{} }

// InitVertexBuffer is a no-op: the triangle is generated from the vertex index.
func (b *backdrop) InitVertexBuffer(device.Device) error {
	return nil
}

func (b *backdrop) InitGroupResource(ctx *GroupContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, err := ctx.Composer.ComposeBackdrop()
	if err != nil {
		return fmt.Errorf("failed to compose backdrop: %w", err)
	}
	layout, err := ctx.Factory.SharedLayout(prog.ColorBindings)
	if err != nil {
		return fmt.Errorf("failed to create backdrop layout: %w", err)
	}
	if b.group, err = ctx.Factory.Create(prog.ColorBindings, ctx.Shared, layout, BackdropName); err != nil {
		return fmt.Errorf("failed to create backdrop bind group: %w", err)
	}

	pending := ctx.Pipelines.Submit(prog.Key, func() (pipeline.Pipeline, error) {
		p := pipeline.NewPipeline(prog.Key, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(prog.Vertex),
			pipeline.WithFragmentShader(prog.Fragment),
			pipeline.WithColorFormats(ctx.ColorFormat),
			pipeline.WithDepthFormat(ctx.DepthFormat),
			pipeline.WithDepthCompare(device.CompareFunctionLessEqual),
			pipeline.WithDepthWriteEnabled(false),
		)
		if err := p.Build(ctx.Device, layout.Handle()); err != nil {
			return nil, err
		}
		return p, nil
	})
	if b.pipeline, err = pending.Await(); err != nil {
		return fmt.Errorf("failed to build backdrop pipeline: %w", err)
	}
	return nil
}

// RecordShadow appends nothing: the backdrop casts no shadow.
func (b *backdrop) RecordShadow(device.RenderBundleEncoder) {}

func (b *backdrop) RecordColor(enc device.RenderBundleEncoder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipeline == nil || b.group == nil {
		return
	}
	enc.SetPipeline(b.pipeline.Render())
	enc.SetBindGroup(0, b.group.BindGroup())
	enc.Draw(3, 1)
}

// Update is a no-op: the backdrop reads only the shared camera uniform.
func (b *backdrop) Update(device.Device) error {
	return nil
}

func (b *backdrop) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.group != nil {
		b.group.Release()
		b.group = nil
	}
	b.pipeline = nil
}

var (
	_ Drawable = &mesh{}
	_ Drawable = &backdrop{}
)
