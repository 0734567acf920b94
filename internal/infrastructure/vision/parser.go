package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/templify/templify/internal/domain"
)

// rawElement deliberately has no url field: location fields coming from the
// model are dropped at the unmarshal boundary, only descriptive ones survive.
type rawElement struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type rawPayload struct {
	Elements map[string][]rawElement `json:"elements"`
	Fonts    []domain.Font           `json:"fonts"`
	Colors   []domain.Color          `json:"colors"`
}

// ParseResponse extracts the JSON object from the model's free-text reply
// and normalizes it. Missing fonts/colors/elements keys default to empty;
// a reply with no parseable JSON object is a malformed-response error.
func ParseResponse(content string) (*domain.RawAnalysis, error) {
	payload := extractJSON(content)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrModelMalformed)
	}

	var raw rawPayload
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelMalformed, err)
	}

	analysis := &domain.RawAnalysis{
		Elements: make(map[string][]domain.Element, len(raw.Elements)),
		Fonts:    raw.Fonts,
		Colors:   raw.Colors,
	}
	if analysis.Fonts == nil {
		analysis.Fonts = []domain.Font{}
	}
	if analysis.Colors == nil {
		analysis.Colors = []domain.Color{}
	}

	for category, items := range raw.Elements {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		elements := make([]domain.Element, 0, len(items))
		for _, item := range items {
			elType := item.Type
			if elType == "" {
				elType = category
			}
			elements = append(elements, domain.Element{
				Type:        elType,
				Name:        item.Name,
				Description: item.Description,
			})
		}
		analysis.Elements[category] = elements
	}

	return analysis, nil
}

// extractJSON returns the outermost {...} region of the reply, tolerating
// markdown code fences and surrounding prose.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			content = rest[:end]
		} else {
			content = rest
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
