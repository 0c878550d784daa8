// Package imagegen provides the remote engine.Engine backed by the OpenAI
// image API or an Azure OpenAI image deployment.
//
// engine.go implements OpenAIEngine, which maps an engine.Request onto the
// image API:
//   - text2img: CreateImage with a base64 response
//   - img2img and inpaint: CreateEditImage with the init image and an alpha mask
//
// This molecule composes:
//   - atoms.go: endpoint classification and ParseSize
//   - imageio: resizing, mask conversion and PNG output
//   - go-openai client: for API calls
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"sdprompt/core"
	"sdprompt/engine"
	"sdprompt/imageio"
	"sdprompt/logging"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

const tempDirBase = "sdprompt-edit-"

// TempDirPrefix names the scratch directories this process's edit requests
// write their PNG uploads to. They are removed after each request. The pid
// keeps concurrent sessions from matching each other's directories.
func TempDirPrefix() string {
	return fmt.Sprintf("%s%d-", tempDirBase, os.Getpid())
}

// Errors returned by OpenAIEngine.
var (
	ErrEmptyResponse = errors.New("imagegen: API returned no image data")
	ErrEngineClosed  = errors.New("imagegen: engine is closed")
)

// OpenAIEngine implements engine.Engine on top of the image API.
//
// The API has no notion of seed, step count, guidance scale or eta. Those
// request fields are logged at debug level and otherwise ignored.
type OpenAIEngine struct {
	client  *openai.Client
	model   string
	size    string
	width   int
	height  int
	backend string
	logger  *logging.Logger
	closed  bool
}

var _ engine.Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine creates an engine for the public OpenAI API, or for the
// OpenAI-compatible endpoint in IMAGE_LLM_URL.
//
// Returns an error if the API key is empty, the size is unsupported, or the
// endpoint is local (localhost, private addresses), since local chat servers
// do not serve the image API.
func NewOpenAIEngine(cfg *core.Config, opts engine.Options, logger *logging.Logger) (*OpenAIEngine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("imagegen: OpenAI API key is required for image generation")
	}

	endpoint := cfg.ImageLLMURL
	if endpoint == "" {
		endpoint = defaultOpenAIBaseURL
	}
	if IsLocalEndpoint(endpoint) {
		return nil, fmt.Errorf("imagegen: local endpoint (%s) does not support image generation; "+
			"configure IMAGE_LLM_URL to use OpenAI or Azure", endpoint)
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = endpoint
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.AITimeout)

	eng, err := newEngine(openai.NewClientWithConfig(clientConfig), core.BackendOpenAI,
		imageModel(cfg, opts), cfg.OpenAIImageSize, logger)
	if err != nil {
		return nil, err
	}
	switch {
	case IsOpenAIEndpoint(endpoint):
	case IsAzureEndpoint(endpoint):
		eng.logger.Warn("IMAGE_LLM_URL is an Azure OpenAI resource; use --backend azure",
			zap.String("endpoint", endpoint))
	default:
		eng.logger.Info("using OpenAI-compatible image endpoint",
			zap.String("endpoint", endpoint))
	}
	return eng, nil
}

// NewAzureEngine creates an engine for an Azure OpenAI image deployment.
// Requests are routed to AZURE_OPENAI_DEPLOYMENT whatever model name they carry.
func NewAzureEngine(cfg *core.Config, logger *logging.Logger) (*OpenAIEngine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if cfg.AzureOpenAIKey == "" {
		return nil, fmt.Errorf("imagegen: Azure OpenAI key is required for image generation")
	}
	if cfg.AzureOpenAIEndpoint == "" {
		return nil, fmt.Errorf("imagegen: Azure OpenAI endpoint is required for image generation")
	}
	if cfg.AzureOpenAIDeployment == "" {
		return nil, fmt.Errorf("imagegen: Azure OpenAI deployment is required for image generation")
	}
	clientConfig := openai.DefaultAzureConfig(cfg.AzureOpenAIKey, cfg.AzureOpenAIEndpoint)
	if cfg.AzureOpenAIAPIVersion != "" {
		clientConfig.APIVersion = cfg.AzureOpenAIAPIVersion
	}
	deployment := cfg.AzureOpenAIDeployment
	clientConfig.AzureModelMapperFunc = func(string) string {
		return deployment
	}
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.AITimeout)

	eng, err := newEngine(openai.NewClientWithConfig(clientConfig), core.BackendAzure,
		deployment, cfg.OpenAIImageSize, logger)
	if err != nil {
		return nil, err
	}
	if !IsAzureEndpoint(cfg.AzureOpenAIEndpoint) {
		eng.logger.Warn("endpoint does not look like an Azure OpenAI resource",
			zap.String("endpoint", cfg.AzureOpenAIEndpoint))
	}
	return eng, nil
}

func newEngine(client *openai.Client, backend, model, size string, logger *logging.Logger) (*OpenAIEngine, error) {
	if size == "" {
		size = core.DefaultImageSize
	}
	w, h, err := ParseSize(size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &OpenAIEngine{
		client:  client,
		model:   model,
		size:    fmt.Sprintf("%dx%d", w, h),
		width:   w,
		height:  h,
		backend: backend,
		logger:  logger.Named("imagegen").With(zap.String("backend", backend)),
	}, nil
}

// imageModel picks the API model. The --model flag names a diffusion
// checkpoint for the local backend, so it only wins when it looks like an
// image API model.
func imageModel(cfg *core.Config, opts engine.Options) string {
	switch opts.Model {
	case openai.CreateImageModelDallE2, openai.CreateImageModelDallE3:
		return opts.Model
	}
	if cfg.OpenAIImageModel != "" {
		return cfg.OpenAIImageModel
	}
	return core.DefaultImageModel
}

// Backend returns "openai" or "azure".
func (e *OpenAIEngine) Backend() string {
	return e.backend
}

// Generate produces one image for req and writes it as PNG to req.OutputPath.
func (e *OpenAIEngine) Generate(ctx context.Context, req engine.Request) error {
	if e.closed {
		return ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Debug("ignoring parameters the image API does not support",
		zap.Int64("seed", req.Seed),
		zap.Int("steps", req.Steps),
		zap.Float64("guidance_scale", req.GuidanceScale),
		zap.Float64("eta", req.Eta),
		zap.Bool("negative_prompt", req.NegativePrompt != ""),
		zap.String("prompt_parser", req.PromptParser),
	)

	start := time.Now()
	var (
		b64 string
		err error
	)
	switch req.Mode() {
	case engine.ModeText2Img:
		b64, err = e.createImage(ctx, req.Prompt)
	default:
		b64, err = e.editImage(ctx, req)
	}
	if err != nil {
		return err
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("imagegen: failed to decode image data: %w", err)
	}
	if _, err := imageio.Decode(data); err != nil {
		return fmt.Errorf("imagegen: API returned an unreadable image: %w", err)
	}
	if err := imageio.WriteFile(req.OutputPath, data); err != nil {
		return err
	}

	e.logger.Info("image written",
		zap.String("mode", string(req.Mode())),
		zap.String("output", req.OutputPath),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (e *OpenAIEngine) createImage(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          e.model,
		N:              1,
		Size:           e.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("imagegen: image request failed: %w", err)
	}
	return firstImage(resp)
}

func (e *OpenAIEngine) editImage(ctx context.Context, req engine.Request) (string, error) {
	src, err := imageio.Resize(req.InitImage, e.width, e.height)
	if err != nil {
		return "", err
	}

	var edit *image.NRGBA
	if req.Mask != nil {
		edit, err = imageio.MaskToAlpha(src, req.Mask)
		if err != nil {
			return "", err
		}
	} else {
		edit = uniformAlpha(src, req.Strength)
	}

	dir, err := os.MkdirTemp("", TempDirPrefix())
	if err != nil {
		return "", fmt.Errorf("imagegen: failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	imageFile, err := writeTempPNG(dir, "image.png", src)
	if err != nil {
		return "", err
	}
	defer imageFile.Close()

	maskFile, err := writeTempPNG(dir, "mask.png", edit)
	if err != nil {
		return "", err
	}
	defer maskFile.Close()

	resp, err := e.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          imageFile,
		Mask:           maskFile,
		Prompt:         req.Prompt,
		Model:          e.model,
		N:              1,
		Size:           e.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("imagegen: image edit request failed: %w", err)
	}
	return firstImage(resp)
}

// Close marks the engine closed. The HTTP client holds nothing to release.
func (e *OpenAIEngine) Close() error {
	e.closed = true
	return nil
}

func firstImage(resp openai.ImageResponse) (string, error) {
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", ErrEmptyResponse
	}
	return resp.Data[0].B64JSON, nil
}

// uniformAlpha approximates img2img strength for an API that only knows
// masks: every pixel gets alpha 255*(1-strength), so strength 1 repaints
// everything and strength 0 keeps the image.
func uniformAlpha(img *image.NRGBA, strength float64) *image.NRGBA {
	strength = math.Max(0, math.Min(1, strength))
	alpha := uint8(math.Round(255 * (1 - strength)))

	out := image.NewNRGBA(img.Bounds())
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha})
		}
	}
	return out
}

func writeTempPNG(dir, name string, img image.Image) (*os.File, error) {
	data, err := imageio.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("imagegen: failed to write %s: %w", name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to open %s: %w", name, err)
	}
	return f, nil
}
