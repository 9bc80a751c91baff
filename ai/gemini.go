package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/genai"

	"strawberryphone/pkg/errors"
)

type managedPart struct {
	Text string `json:"text"`
}

type managedContent struct {
	Role  string        `json:"role,omitempty"`
	Parts []managedPart `json:"parts"`
}

type managedRequest struct {
	Contents          []managedContent `json:"contents"`
	SystemInstruction managedContent   `json:"systemInstruction"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type managedResponse struct {
	Candidates []struct {
		Content struct {
			Parts []managedPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// completeManagedHTTP posts the managed wire protocol to a user-configured
// proxy: {base}/v1beta/models/{model}:generateContent?key={key}.
func (g *Gateway) completeManagedHTTP(ctx context.Context, base string, req Request) (string, error) {
	payload := managedRequest{
		SystemInstruction: managedContent{Parts: []managedPart{{Text: req.System}}},
	}
	payload.GenerationConfig.Temperature = req.Temperature
	for _, turn := range req.Turns {
		payload.Contents = append(payload.Contents, managedContent{
			Role:  string(turn.Role),
			Parts: []managedPart{{Text: turn.Text}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, req.Model, req.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", wrapTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewRemoteError(err.Error())
	}

	var parsed managedResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", errors.NewRemoteError(parsed.Error.Message)
		}
		return "", errors.Newf(errors.KindRemote, "HTTP Error %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.NewRemoteError("malformed completion response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", errors.NewRemoteError(parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.NewEmptyResponseError()
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// completeManagedSDK calls the vendor SDK directly; used when no custom base
// URL is configured.
func (g *Gateway) completeManagedSDK(ctx context.Context, req Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: req.APIKey})
	if err != nil {
		return "", errors.NewConfigurationError(err.Error())
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(turn.Role)))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", wrapTransportError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.NewEmptyResponseError()
	}
	return text, nil
}
