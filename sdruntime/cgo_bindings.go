package sdruntime

// StubBackendInfo is what GetBackendInfo reports in stub builds.
const StubBackendInfo = "stub (no stable-diffusion.cpp library linked)"

// SDContext is an opaque handle to a loaded stable-diffusion.cpp model.
// The stub implementation only tracks an id.
type SDContext struct {
	id        uint64
	modelPath string
	valid     bool
}

// IsValid reports whether the context can still generate.
func (c *SDContext) IsValid() bool {
	return c != nil && c.valid
}

// ModelPath returns the model path used to create this context.
func (c *SDContext) ModelPath() string {
	if c == nil {
		return ""
	}
	return c.modelPath
}

// LoadOptions are passed to the native context constructor.
type LoadOptions struct {
	Threads int // <= 0 lets the library pick
}

// GenerateResult holds the result of one native generation.
type GenerateResult struct {
	ImageData []byte // PNG
	Width     int
	Height    int
	Seed      int64
}

// LoadModel loads a model file and returns a context for generation.
// The context must be released with FreeContext.
//
// Errors:
//   - ErrModelNotFound: modelPath does not exist
//   - ErrModelLoadFailed: the native library rejected the model
func LoadModel(modelPath string, opts LoadOptions) (*SDContext, error) {
	return loadModelImpl(modelPath, opts)
}

// GenerateImage validates params and runs txt2img, or img2img when
// params.InitImage is set. A mask restricts img2img to its white area.
func GenerateImage(ctx *SDContext, params GenerateParams) (*GenerateResult, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return generateImageImpl(ctx, params)
}

// FreeContext releases a context. Nil and already freed contexts are a no-op.
func FreeContext(ctx *SDContext) {
	freeContextImpl(ctx)
}

// GetBackendInfo describes the compute backend the library was built with.
func GetBackendInfo() string {
	return getBackendInfoImpl()
}
