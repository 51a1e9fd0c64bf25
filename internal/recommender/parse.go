package recommender

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hobbymatch/backend/internal/hobby"
)

// wrapperKeys are the object fields checked, in order, for the hobby list.
var wrapperKeys = []string{"recommendations", "hobbies"}

// ParseRecommendations turns the model reply into recommendations. It never
// fails the caller: on any problem it returns hobby.Fallback() together with
// the reason, for logging.
func ParseRecommendations(content string) (hobby.Recommendations, error) {
	raw, err := extractList(strings.TrimSpace(content))
	if err != nil {
		return hobby.Fallback(), err
	}

	items := make([]hobby.Recommendation, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			return hobby.Fallback(), fmt.Errorf("recommendation %d is null", i)
		}
		var rec hobby.Recommendation
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &rec,
		})
		if err != nil {
			return hobby.Fallback(), err
		}
		if err := dec.Decode(r); err != nil {
			return hobby.Fallback(), fmt.Errorf("recommendation %d: %w", i, err)
		}
		items = append(items, rec)
	}
	return hobby.Parsed(items), nil
}

func extractList(content string) ([]any, error) {
	if content == "" {
		return nil, errors.New("empty response")
	}

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, k := range wrapperKeys {
			if list, ok := v[k].([]any); ok {
				return list, nil
			}
		}
		var found []any
		count := 0
		for _, field := range v {
			if list, ok := field.([]any); ok {
				found = list
				count++
			}
		}
		if count == 1 {
			return found, nil
		}
		// A single hobby object on its own.
		if _, ok := v["name"]; ok {
			return []any{v}, nil
		}
		return nil, errors.New("no recommendation list in JSON object")
	default:
		return nil, fmt.Errorf("unexpected JSON type %T", doc)
	}
}
