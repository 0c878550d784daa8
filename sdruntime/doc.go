// Package sdruntime runs Stable Diffusion locally through stable-diffusion.cpp.
//
// The package exposes an Engine that satisfies engine.Engine. A model is
// resolved once, optionally checksum verified, and loaded into a single
// native context that lives until Close.
//
//   - Atoms: ValidateParams, ValidatePrompt, ApplyPromptParser, SamplerFor,
//     CalculateChecksum, IsPNG
//   - Molecules: Registry, LoadModel, GenerateImage
//   - Organism: Engine
//
// # Model resolution
//
// The model identifier given at startup is looked up in this order:
//
//  1. an entry in <models-dir>/models.yaml matching id and revision
//  2. an existing file at the identifier itself
//  3. a file named after the identifier under <models-dir>
//
// Example models.yaml:
//
//	models:
//	  - id: bes-dev/stable-diffusion-v1-4-openvino
//	    file: sd-v1-4.safetensors
//	    sha256: fe4efff1e174c627256e44ec2991ba279b3816e364b49f9be2abc0b3ff3f8556
//	  - id: runwayml/stable-diffusion-v1-5
//	    revision: fp16
//	    file: v1-5-pruned-emaonly-fp16.safetensors
//
// # Configuration
//
// LoadSDConfig reads:
//
//	SD_IMAGE_SIZE=512          # output width and height
//	SD_THREADS=0               # CPU threads, 0 picks the number of cores
//	SD_VERIFY_CHECKSUM=false   # verify sha256 from models.yaml before loading
//
// # Build tags
//
//   - Stub mode (default): go build
//     Models are resolved and "loaded", generation returns ErrGenerationFailed.
//
//   - Native mode: CGO_ENABLED=1 go build -tags sd
//     Requires stable-diffusion.cpp built as a shared library.
package sdruntime
