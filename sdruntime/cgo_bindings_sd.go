//go:build sd && cgo && !stub

// Native bindings for stable-diffusion.cpp.
//
//   CGO_CFLAGS="-I${SD_CPP_PATH}" \
//   CGO_LDFLAGS="-L${SD_CPP_PATH}/build -lstable-diffusion -Wl,-rpath,${SD_CPP_PATH}/build" \
//   go build -tags sd

package sdruntime

/*
#cgo CFLAGS: -I${SRCDIR}/../vendor/stable-diffusion.cpp
#cgo LDFLAGS: -L${SRCDIR}/../vendor/stable-diffusion.cpp/build -lstable-diffusion

#include <stdlib.h>
#include <stdint.h>

// Until stable-diffusion.h is vendored the context is opaque and the calls
// below stay commented out:
//
// #include <stable-diffusion.h>
//
// sd_ctx_t* new_sd_ctx(const char* model_path, ..., int n_threads, ...);
// void free_sd_ctx(sd_ctx_t* ctx);
// sd_image_t* txt2img(sd_ctx_t* ctx, const char* prompt, const char* negative_prompt,
//                     int clip_skip, float cfg_scale, float eta, int width, int height,
//                     enum sample_method_t method, int steps, int64_t seed, int batch_count, ...);
// sd_image_t* img2img(sd_ctx_t* ctx, sd_image_t init_image, sd_image_t mask_image,
//                     const char* prompt, const char* negative_prompt, int clip_skip,
//                     float cfg_scale, float eta, int width, int height,
//                     enum sample_method_t method, int steps, float strength, int64_t seed, ...);
// const char* sd_get_system_info();
typedef struct sd_ctx_t sd_ctx_t;
*/
import "C"

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"
)

var sdContextCounter uint64

// contexts maps SDContext.id to the native pointer.
var contexts sync.Map

func loadModelImpl(modelPath string, opts LoadOptions) (*SDContext, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, modelPath, err)
	}

	cModelPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	// TODO: call new_sd_ctx with opts.Threads once stable-diffusion.h is vendored.
	var cCtx *C.sd_ctx_t
	if cCtx == nil {
		return nil, fmt.Errorf("%w: native context creation is not wired (threads=%d)", ErrModelLoadFailed, opts.Threads)
	}

	id := atomic.AddUint64(&sdContextCounter, 1)
	contexts.Store(id, cCtx)
	return &SDContext{id: id, modelPath: modelPath, valid: true}, nil
}

func generateImageImpl(ctx *SDContext, params GenerateParams) (*GenerateResult, error) {
	if !ctx.IsValid() {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrGenerationFailed)
	}
	if _, ok := contexts.Load(ctx.id); !ok {
		return nil, fmt.Errorf("%w: no native context for id %d", ErrGenerationFailed, ctx.id)
	}

	cPrompt := C.CString(params.Prompt)
	defer C.free(unsafe.Pointer(cPrompt))
	cNegPrompt := C.CString(params.NegativePrompt)
	defer C.free(unsafe.Pointer(cNegPrompt))
	cSampler := C.CString(string(params.Sampler))
	defer C.free(unsafe.Pointer(cSampler))

	var initRGB, maskBytes []byte
	if params.InitImage != nil {
		initRGB = RGBBytes(params.InitImage)
		if params.Mask != nil {
			maskBytes = GrayBytes(params.Mask)
		}
	}

	// The native call returns width*height*3 RGB bytes which are copied out
	// with C.GoBytes, freed, and handed to EncodeToPNG(pixels, w, h, 3).
	return nil, fmt.Errorf("%w: native generation is not wired (sampler=%s init=%d mask=%d)",
		ErrGenerationFailed, params.Sampler, len(initRGB), len(maskBytes))
}

func freeContextImpl(ctx *SDContext) {
	if ctx == nil {
		return
	}
	// free_sd_ctx on the stored pointer once the header is vendored
	contexts.Delete(ctx.id)
	ctx.valid = false
}

func getBackendInfoImpl() string {
	return "stable-diffusion.cpp (cgo)"
}
