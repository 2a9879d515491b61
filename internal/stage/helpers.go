package stage

import (
	"encoding/json"
	"strings"

	"docket/internal/classify"
	"docket/internal/services"
)

// ParseClassification decodes the classification result stored on a queue item.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseClassification(raw string) (classify.Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return classify.Result{}, services.Wrap(
			services.ErrValidation, "stage", "parse classification",
			"Classification result missing; rerun classification", nil)
	}
	var result classify.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return classify.Result{}, services.Wrap(
			services.ErrValidation, "stage", "parse classification",
			"Classification result invalid; rerun classification", err)
	}
	result.Normalize()
	return result, nil
}
