package sdruntime

import (
	"fmt"

	"sdprompt/scheduler"
)

// Sampler is a stable-diffusion.cpp sample method name.
type Sampler string

const (
	SamplerEuler Sampler = "euler"
	SamplerDDIM  Sampler = "ddim_trailing"
	SamplerIPNDM Sampler = "ipndm"
)

// SamplerFor maps a scheduler to the native sampler that runs it.
//
// stable-diffusion.cpp has no LMS sampler; euler is the closest
// deterministic first order method. PNDM with skipped Runge-Kutta steps is
// the improved pseudo numerical method, ipndm.
func SamplerFor(cfg scheduler.Config) (Sampler, error) {
	switch cfg.Kind {
	case scheduler.LMS:
		return SamplerEuler, nil
	case scheduler.DDIM:
		return SamplerDDIM, nil
	case scheduler.PNDM:
		if cfg.SkipPRKSteps {
			return SamplerIPNDM, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSampler, cfg)
}
