package imagegen

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// SupportedSizes are the square sizes the image APIs accept.
var SupportedSizes = []string{"256x256", "512x512", "1024x1024"}

// IsAzureEndpoint reports whether endpoint is an Azure OpenAI resource.
//
// Example:
//
//	IsAzureEndpoint("https://myresource.openai.azure.com")             // true
//	IsAzureEndpoint("https://myresource.cognitiveservices.azure.com")  // true
//	IsAzureEndpoint("https://api.openai.com")                          // false
func IsAzureEndpoint(endpoint string) bool {
	host := hostOf(endpoint)
	return strings.HasSuffix(host, ".openai.azure.com") ||
		strings.HasSuffix(host, ".cognitiveservices.azure.com")
}

// IsOpenAIEndpoint reports whether endpoint is the public OpenAI API.
func IsOpenAIEndpoint(endpoint string) bool {
	return hostOf(endpoint) == "api.openai.com"
}

// IsLocalEndpoint reports whether endpoint points at a loopback or private
// address. Such endpoints are chat servers, not image APIs.
//
// Example:
//
//	IsLocalEndpoint("http://localhost:1234")      // true
//	IsLocalEndpoint("http://192.168.1.100:5000")  // true
//	IsLocalEndpoint("https://api.openai.com")     // false
func IsLocalEndpoint(endpoint string) bool {
	host := hostOf(endpoint)
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified())
}

// ParseSize parses a "WxH" size and checks it against SupportedSizes.
// This is a pure function with no side effects.
func ParseSize(size string) (int, int, error) {
	size = strings.ToLower(strings.TrimSpace(size))
	if !lo.Contains(SupportedSizes, size) {
		return 0, 0, fmt.Errorf("imagegen: unsupported image size %q (must be one of %s)",
			size, strings.Join(SupportedSizes, ", "))
	}

	var w, h int
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("imagegen: invalid image size %q: %w", size, err)
	}
	return w, h, nil
}

func hostOf(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
