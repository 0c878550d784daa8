package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sdprompt/core"
	"sdprompt/engine"
	"sdprompt/imageio"
	"sdprompt/logging"
)

// apiCall captures what the fake image API received.
type apiCall struct {
	path   string
	body   map[string]interface{}
	fields map[string]string
	image  image.Image
	mask   image.Image
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	data, err := imageio.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	return data
}

func newTestServer(t *testing.T, status int, payload string, calls *[]apiCall) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := apiCall{path: r.URL.Path, fields: map[string]string{}}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			for k, v := range r.MultipartForm.Value {
				call.fields[k] = v[0]
			}
			call.image = formImage(t, r, "image")
			call.mask = formImage(t, r, "mask")
		} else {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &call.body)
		}
		*calls = append(*calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func formImage(t *testing.T, r *http.Request, field string) image.Image {
	t.Helper()
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Errorf("%s is not a PNG: %v", field, err)
		return nil
	}
	return img
}

func successPayload(t *testing.T) string {
	return `{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(testPNG(t)) + `"}]}`
}

func newTestEngine(t *testing.T, server *httptest.Server) *OpenAIEngine {
	t.Helper()
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	eng, err := newEngine(openai.NewClientWithConfig(cfg), core.BackendOpenAI, "dall-e-2", "256x256", nil)
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}
	return eng
}

func TestGenerate_Text2Img(t *testing.T) {
	var calls []apiCall
	server := newTestServer(t, http.StatusOK, successPayload(t), &calls)
	eng := newTestEngine(t, server)

	out := filepath.Join(t.TempDir(), "nested", "out.png")
	err := eng.Generate(context.Background(), engine.Request{
		OutputPath: out,
		Prompt:     "a red fox",
		Seed:       42,
		Steps:      30,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("API calls = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.path != "/v1/images/generations" {
		t.Errorf("path = %q, want /v1/images/generations", call.path)
	}
	if call.body["prompt"] != "a red fox" {
		t.Errorf("prompt = %v", call.body["prompt"])
	}
	if call.body["response_format"] != "b64_json" {
		t.Errorf("response_format = %v, want b64_json", call.body["response_format"])
	}
	if call.body["size"] != "256x256" {
		t.Errorf("size = %v, want 256x256", call.body["size"])
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if _, err := imageio.Decode(data); err != nil {
		t.Errorf("output is not an image: %v", err)
	}
}

func TestGenerate_Inpaint(t *testing.T) {
	var calls []apiCall
	server := newTestServer(t, http.StatusOK, successPayload(t), &calls)
	eng := newTestEngine(t, server)

	initImg := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	mask := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}

	out := filepath.Join(t.TempDir(), "inpaint.png")
	err := eng.Generate(context.Background(), engine.Request{
		OutputPath: out,
		Prompt:     "a cat",
		InitImage:  initImg,
		Mask:       mask,
		Strength:   0.5,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("API calls = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.path != "/v1/images/edits" {
		t.Errorf("path = %q, want /v1/images/edits", call.path)
	}
	if call.fields["prompt"] != "a cat" {
		t.Errorf("prompt = %q", call.fields["prompt"])
	}
	if call.image == nil || call.mask == nil {
		t.Fatal("image and mask must both be uploaded")
	}
	if got := call.image.Bounds().Dx(); got != 256 {
		t.Errorf("image width = %d, want 256", got)
	}
	_, _, _, a := call.mask.At(10, 10).RGBA()
	if a != 0 {
		t.Errorf("white mask pixel alpha = %d, want 0 (repaint)", a)
	}
}

func TestGenerate_Img2ImgStrengthAlpha(t *testing.T) {
	var calls []apiCall
	server := newTestServer(t, http.StatusOK, successPayload(t), &calls)
	eng := newTestEngine(t, server)

	err := eng.Generate(context.Background(), engine.Request{
		OutputPath: filepath.Join(t.TempDir(), "img2img.png"),
		Prompt:     "watercolor",
		InitImage:  image.NewNRGBA(image.Rect(0, 0, 32, 32)),
		Strength:   0.25,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(calls) != 1 || calls[0].mask == nil {
		t.Fatal("expected one edit call with a mask")
	}
	got := color.NRGBAModel.Convert(calls[0].mask.At(0, 0)).(color.NRGBA).A
	if got != 191 {
		t.Errorf("alpha = %d, want 191", got)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("empty data", func(t *testing.T) {
		var calls []apiCall
		server := newTestServer(t, http.StatusOK, `{"created":1,"data":[]}`, &calls)
		eng := newTestEngine(t, server)

		err := eng.Generate(context.Background(), engine.Request{
			OutputPath: filepath.Join(t.TempDir(), "x.png"),
			Prompt:     "p",
		})
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
		}
	})

	t.Run("api error", func(t *testing.T) {
		var calls []apiCall
		server := newTestServer(t, http.StatusBadRequest,
			`{"error":{"message":"content policy","type":"invalid_request_error"}}`, &calls)
		eng := newTestEngine(t, server)

		out := filepath.Join(t.TempDir(), "x.png")
		err := eng.Generate(context.Background(), engine.Request{OutputPath: out, Prompt: "p"})
		if err == nil {
			t.Fatal("Generate() expected error")
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Error("no output should be written on failure")
		}
	})

	t.Run("garbage image", func(t *testing.T) {
		var calls []apiCall
		payload := `{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString([]byte("nope")) + `"}]}`
		server := newTestServer(t, http.StatusOK, payload, &calls)
		eng := newTestEngine(t, server)

		err := eng.Generate(context.Background(), engine.Request{
			OutputPath: filepath.Join(t.TempDir(), "x.png"),
			Prompt:     "p",
		})
		if err == nil {
			t.Error("Generate() expected error for undecodable image")
		}
	})

	t.Run("closed", func(t *testing.T) {
		var calls []apiCall
		server := newTestServer(t, http.StatusOK, successPayload(t), &calls)
		eng := newTestEngine(t, server)
		if err := eng.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		err := eng.Generate(context.Background(), engine.Request{OutputPath: "x.png", Prompt: "p"})
		if !errors.Is(err, ErrEngineClosed) {
			t.Errorf("Generate() error = %v, want ErrEngineClosed", err)
		}
		if len(calls) != 0 {
			t.Errorf("closed engine made %d API calls", len(calls))
		}
	})
}

func TestNewOpenAIEngine(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *core.Config
		wantErr bool
	}{
		{"nil config", nil, true},
		{"missing key", &core.Config{}, true},
		{"local endpoint", &core.Config{OpenAIAPIKey: "sk-test", ImageLLMURL: "http://localhost:1234/v1"}, true},
		{"bad size", &core.Config{OpenAIAPIKey: "sk-test", OpenAIImageSize: "640x480"}, true},
		{"default endpoint", &core.Config{OpenAIAPIKey: "sk-test"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := NewOpenAIEngine(tt.cfg, engine.Options{}, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewOpenAIEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && eng.Backend() != core.BackendOpenAI {
				t.Errorf("Backend() = %q", eng.Backend())
			}
		})
	}
}

func TestNewOpenAIEngine_EndpointNotice(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantMsg  string
		wantLvl  zapcore.Level
	}{
		{"public api", "https://api.openai.com/v1", "", zapcore.InfoLevel},
		{"compatible proxy", "https://images.example.com/v1", "using OpenAI-compatible image endpoint", zapcore.InfoLevel},
		{"azure resource", "https://res.openai.azure.com", "IMAGE_LLM_URL is an Azure OpenAI resource; use --backend azure", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obsCore, logs := observer.New(zapcore.InfoLevel)
			cfg := &core.Config{OpenAIAPIKey: "sk-test", ImageLLMURL: tt.endpoint}
			if _, err := NewOpenAIEngine(cfg, engine.Options{}, logging.NewLoggerFromCore(obsCore)); err != nil {
				t.Fatalf("NewOpenAIEngine() error = %v", err)
			}

			if tt.wantMsg == "" {
				if logs.Len() != 0 {
					t.Errorf("unexpected log entries: %v", logs.All())
				}
				return
			}
			entries := logs.FilterMessage(tt.wantMsg).All()
			if len(entries) != 1 || entries[0].Level != tt.wantLvl {
				t.Errorf("entries for %q = %v, want one at %s", tt.wantMsg, entries, tt.wantLvl)
			}
		})
	}
}

func TestTempDirPrefix(t *testing.T) {
	prefix := TempDirPrefix()
	if want := fmt.Sprintf("sdprompt-edit-%d-", os.Getpid()); prefix != want {
		t.Errorf("TempDirPrefix() = %q, want %q", prefix, want)
	}

	// Another process's directory must not match this process's prefix.
	other := fmt.Sprintf("sdprompt-edit-%d1-x", os.Getpid())
	if strings.HasPrefix(other, prefix) {
		t.Errorf("%q matches prefix %q", other, prefix)
	}
}

func TestNewAzureEngine(t *testing.T) {
	base := core.Config{
		AzureOpenAIKey:        "azure-key",
		AzureOpenAIEndpoint:   "https://res.openai.azure.com",
		AzureOpenAIDeployment: "dalle",
	}

	eng, err := NewAzureEngine(&base, nil)
	if err != nil {
		t.Fatalf("NewAzureEngine() error = %v", err)
	}
	if eng.Backend() != core.BackendAzure || eng.model != "dalle" {
		t.Errorf("engine = %s/%s, want azure/dalle", eng.Backend(), eng.model)
	}

	missing := base
	missing.AzureOpenAIDeployment = ""
	if _, err := NewAzureEngine(&missing, nil); err == nil {
		t.Error("NewAzureEngine() expected error without deployment")
	}
}

func TestImageModel(t *testing.T) {
	cfg := &core.Config{}
	if got := imageModel(cfg, engine.Options{Model: "runwayml/stable-diffusion-v1-5"}); got != core.DefaultImageModel {
		t.Errorf("imageModel() = %q, want %q", got, core.DefaultImageModel)
	}
	if got := imageModel(cfg, engine.Options{Model: "dall-e-3"}); got != "dall-e-3" {
		t.Errorf("imageModel() = %q, want dall-e-3", got)
	}
	cfg.OpenAIImageModel = "gpt-image-1"
	if got := imageModel(cfg, engine.Options{}); got != "gpt-image-1" {
		t.Errorf("imageModel() = %q, want gpt-image-1", got)
	}
}

func TestUniformAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	tests := []struct {
		strength float64
		want     uint8
	}{
		{0, 255},
		{1, 0},
		{0.5, 128},
		{2, 0},
		{-1, 255},
	}
	for _, tt := range tests {
		got := uniformAlpha(img, tt.strength).NRGBAAt(0, 0)
		if got.A != tt.want {
			t.Errorf("uniformAlpha(%v) alpha = %d, want %d", tt.strength, got.A, tt.want)
		}
		if got.R != 10 || got.G != 20 || got.B != 30 {
			t.Errorf("uniformAlpha(%v) changed color to %v", tt.strength, got)
		}
	}
}
