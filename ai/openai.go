package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"strawberryphone/pkg/errors"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// completeOpenAI posts to {base}/v1/chat/completions with the system
// instruction flattened into the messages array.
func (g *Gateway) completeOpenAI(ctx context.Context, base string, req Request) (string, error) {
	messages := make([]openAIMessage, 0, len(req.Turns)+1)
	messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	for _, turn := range req.Turns {
		role := "assistant"
		if turn.Role == RoleUser {
			role = "user"
		}
		messages = append(messages, openAIMessage{Role: role, Content: turn.Text})
	}

	body, err := json.Marshal(openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", wrapTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewRemoteError(err.Error())
	}

	var parsed openAIResponse
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
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.NewEmptyResponseError()
	}
	return parsed.Choices[0].Message.Content, nil
}
