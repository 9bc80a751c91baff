package ai

import "strawberryphone/pkg/logger"

// DefaultModel replaces deny-listed model identifiers
const DefaultModel = "gemini-3-flash-preview"

// prohibitedModels are retired identifiers the backend no longer serves.
var prohibitedModels = map[string]bool{
	"gemini-pro":              true,
	"gemini-1.5-pro":          true,
	"gemini-1.5-flash":        true,
	"gemini-1.5-flash-latest": true,
}

// SanitizeModel rewrites deprecated model identifiers to the current default,
// logging a warning so the user knows their saved setting was upgraded.
func SanitizeModel(model string) string {
	if prohibitedModels[model] {
		logger.GetGlobal().Warn("deprecated model upgraded",
			"model", model, "replacement", DefaultModel)
		return DefaultModel
	}
	return model
}
