package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// FlushWrites applies the writes in order through the device queue.
//
// Parameters:
//   - dev: the device whose queue receives the writes
//   - writes: the writes to apply
//
// Returns:
//   - error: error if a write targets a binding without a buffer or the device rejects it
func FlushWrites(dev device.Device, writes []BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding)
		}
		if err := dev.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return fmt.Errorf("%s: binding %d: %w", w.Provider.Label(), w.Binding, err)
		}
	}
	return nil
}
