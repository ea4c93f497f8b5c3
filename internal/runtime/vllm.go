package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// VLLMClient implements Runtime against a vLLM-style HTTP server: model and
// adapter management endpoints plus OpenAI-compatible completions. Adapters
// applied to a generation travel in the X-LoRA-Adapters header.
type VLLMClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	// Per-call timeouts for control operations; generation is bounded only
	// by the caller's context.
	loadTimeout   time.Duration
	unloadTimeout time.Duration
}

type VLLMConfig struct {
	BaseURL        string
	APIKey         string
	ConnectTimeout time.Duration
	LoadTimeout    time.Duration
	UnloadTimeout  time.Duration
}

func NewVLLMClient(cfg VLLMConfig) *VLLMClient {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Client timeout stays 0: every request carries a context deadline where
	// one applies, and streamed generations must be allowed to run long.
	cli := &http.Client{Transport: tr, Timeout: 0}
	load := cfg.LoadTimeout
	if load <= 0 {
		load = 5 * time.Minute
	}
	unload := cfg.UnloadTimeout
	if unload <= 0 {
		unload = 30 * time.Second
	}
	return &VLLMClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		httpClient:    cli,
		loadTimeout:   load,
		unloadTimeout: unload,
	}
}

func (c *VLLMClient) postJSON(ctx context.Context, path string, payload any, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New("runtime http error: " + resp.Status + ": " + string(b))
	}
	return nil
}

func (c *VLLMClient) LoadBaseModel(ctx context.Context, name, weightsRef string) error {
	return c.postJSON(ctx, "/v1/models/load", map[string]any{
		"model":         name,
		"model_path":    weightsRef,
		"enable_lora":   true,
		"max_lora_rank": 64,
	}, c.loadTimeout)
}

func (c *VLLMClient) LoadLoRAAdapter(ctx context.Context, baseModel, adapterName, weightsPath string) error {
	return c.postJSON(ctx, "/v1/adapters/load", map[string]any{
		"model":        baseModel,
		"adapter_name": adapterName,
		"adapter_path": weightsPath,
	}, c.loadTimeout)
}

func (c *VLLMClient) UnloadLoRAAdapter(ctx context.Context, baseModel, adapterName string) error {
	return c.postJSON(ctx, "/v1/adapters/unload", map[string]any{
		"model":        baseModel,
		"adapter_name": adapterName,
	}, c.unloadTimeout)
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Stream      bool    `json:"stream"`
}

type completionChoice struct {
	Text string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

func (c *VLLMClient) completionReq(ctx context.Context, p InferParams, stream bool) (*http.Response, error) {
	payload := completionRequest{
		Model:       p.Model,
		Prompt:      p.Prompt,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Stream:      stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if len(p.AdapterNames) > 0 {
		req.Header.Set("X-LoRA-Adapters", strings.Join(p.AdapterNames, ","))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, errors.New("runtime http error: " + resp.Status + ": " + string(b))
	}
	return resp, nil
}

func (c *VLLMClient) Infer(ctx context.Context, p InferParams) (string, error) {
	resp, err := c.completionReq(ctx, p, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("runtime returned no choices")
	}
	return out.Choices[0].Text, nil
}

// InferStream parses the server's SSE stream, forwarding each text increment
// to onToken. Consumer cancellation propagates through ctx; the request body
// is closed on return, which stops the runtime-side pull best-effort.
func (c *VLLMClient) InferStream(ctx context.Context, p InferParams, onToken func(string) error) error {
	resp, err := c.completionReq(ctx, p, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSpace(line)
			if line != "" && strings.HasPrefix(strings.ToLower(line), "data:") {
				data := strings.TrimSpace(line[len("data:"):])
				if data == "[DONE]" {
					return nil
				}
				var msg completionResponse
				if jerr := json.Unmarshal([]byte(data), &msg); jerr == nil && len(msg.Choices) > 0 {
					frag := msg.Choices[0].Text
					if frag == "" {
						frag = msg.Choices[0].Delta.Content
					}
					if frag != "" {
						if cbErr := onToken(frag); cbErr != nil {
							return cbErr
						}
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}
