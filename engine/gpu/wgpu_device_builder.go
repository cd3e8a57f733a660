package gpu

type WGPUDeviceBuilderOption func(*wgpuDeviceImpl)

// WithDefaultSize sets the size of the offscreen default framebuffer.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that sets the default framebuffer size
func WithDefaultSize(width, height int) WGPUDeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.width = width
		d.height = height
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that sets the adapter preference
func WithForceFallbackAdapter(force bool) WGPUDeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the WebGPU device label.
func WithDeviceLabel(label string) WGPUDeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.label = label
	}
}
