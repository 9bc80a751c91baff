// Package ai is the completion gateway. It abstracts over the two wire
// protocols the app can talk to, an OpenAI-compatible chat-completions
// endpoint and the managed generateContent protocol (raw HTTP behind a
// custom base URL, or the vendor SDK without one), and normalizes request
// and response shapes for the rest of the engine.
package ai

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"strawberryphone/pkg/cache"
	"strawberryphone/pkg/errors"
	"strawberryphone/pkg/logger"
)

// openAIFamilies are third-party model family names that imply the
// OpenAI-compatible wire protocol. Matching is case-insensitive substring.
var openAIFamilies = []string{"gpt", "claude", "llama"}

// Gateway routes completion requests to the right wire protocol. It performs
// no retries; a failed call surfaces as-is and retry is a user decision.
type Gateway struct {
	httpClient *http.Client
	log        *logger.Logger
	modelCache *cache.Cache
}

// NewGateway creates a gateway with the given per-call timeout
func NewGateway(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.GetGlobal().WithComponent("ai"),
		modelCache: cache.NewCache(),
	}
}

// isOpenAIStyle reports whether the model name belongs to a family served
// over the OpenAI-compatible protocol.
func isOpenAIStyle(model string) bool {
	lower := strings.ToLower(model)
	for _, family := range openAIFamilies {
		if strings.Contains(lower, family) {
			return true
		}
	}
	return false
}

// Complete sends one completion request and returns the reply text.
//
// Protocol selection mirrors the settings surface: an OpenAI-family model
// requires a custom base URL and goes to {base}/v1/chat/completions; every
// other model uses the managed protocol, raw HTTP when a base URL is
// configured and the vendor SDK otherwise.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", errors.NewConfigurationError("API key is not configured")
	}
	if len(req.Turns) == 0 {
		return "", errors.NewEmptyResponseError()
	}

	base := CleanBaseURL(req.BaseURL)
	if isOpenAIStyle(req.Model) {
		if base == "" {
			return "", errors.NewConfigurationError(
				"a custom API base URL is required for non-managed models")
		}
		return g.completeOpenAI(ctx, base, req)
	}
	if base != "" {
		return g.completeManagedHTTP(ctx, base, req)
	}
	return g.completeManagedSDK(ctx, req)
}

// wrapTransportError classifies a failed HTTP round trip
func wrapTransportError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("completion request timed out")
	}
	return errors.NewRemoteError(err.Error())
}
