package hobby

// Recommendation is a single hobby suggestion as returned to clients.
type Recommendation struct {
	Name           string `json:"name" mapstructure:"name"`
	Description    string `json:"description" mapstructure:"description"`
	WhyGoodFit     string `json:"whyGoodFit" mapstructure:"whyGoodFit"`
	EstimatedCost  string `json:"estimatedCost" mapstructure:"estimatedCost"`
	TimeCommitment string `json:"timeCommitment" mapstructure:"timeCommitment"`
	Difficulty     string `json:"difficulty" mapstructure:"difficulty"`
}

// FallbackRecommendation is served whenever the model reply cannot be parsed.
var FallbackRecommendation = Recommendation{
	Name:           "Photography",
	Description:    "Capture moments and express creativity through images",
	WhyGoodFit:     "Combines technical skills with artistic expression",
	EstimatedCost:  "$200-500",
	TimeCommitment: "5-10 hours/week",
	Difficulty:     "beginner",
}

// Recommendations is either the parsed model output or the fixed fallback.
type Recommendations struct {
	Items    []Recommendation
	Fallback bool
}

// Parsed wraps a model-produced list. A nil list becomes empty.
func Parsed(items []Recommendation) Recommendations {
	if items == nil {
		items = []Recommendation{}
	}
	return Recommendations{Items: items}
}

// Fallback is the single fixed recommendation served when the reply is unusable.
func Fallback() Recommendations {
	return Recommendations{Items: []Recommendation{FallbackRecommendation}, Fallback: true}
}
