package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"strawberryphone/pkg/errors"
)

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries {base}/v1/models and returns the advertised model ids.
// Both the OpenAI-compatible shape (data[].id) and the managed shape
// (models[].name, with a "models/" prefix) are accepted. Results are cached
// per base URL.
func (g *Gateway) ListModels(ctx context.Context, baseURL, apiKey string) ([]string, error) {
	base := CleanBaseURL(baseURL)
	if base == "" {
		return nil, errors.NewConfigurationError("a base URL is required to list models")
	}
	base = strings.TrimSuffix(base, "/v1")

	if cached, ok := g.modelCache.Get(base); ok {
		if names, ok := cached.([]string); ok {
			return names, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewRemoteError(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.KindRemote, "HTTP Error %d", resp.StatusCode)
	}

	var parsed modelListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewRemoteError("malformed model list response")
	}

	var names []string
	for _, m := range parsed.Data {
		if m.ID != "" {
			names = append(names, m.ID)
		}
	}
	for _, m := range parsed.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, errors.NewRemoteError("model list was empty")
	}
	sort.Strings(names)

	g.modelCache.Set(base, names)
	return names, nil
}
