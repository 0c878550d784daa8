package runloop

import (
	"strconv"
	"strings"
)

// SeedPlaceholder is replaced with the run's seed in the output template.
const SeedPlaceholder = "{seed}"

// ResolveOutputPath substitutes seed into every {seed} of template. Other
// placeholders, {step} included, are left untouched.
//
// Example:
//
//	ResolveOutputPath("img_{seed}.png", 42) // "img_42.png"
func ResolveOutputPath(template string, seed int64) string {
	return strings.ReplaceAll(template, SeedPlaceholder, strconv.FormatInt(seed, 10))
}
