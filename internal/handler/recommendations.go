package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hobbymatch/backend/internal/hobby"
)

// UserReader fetches a stored user; a missing user is nil, nil.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (*hobby.User, error)
}

// Recommender produces hobby suggestions for a set of interests.
type Recommender interface {
	Recommend(ctx context.Context, interests []string, prefs hobby.Preferences) (hobby.Recommendations, error)
}

type recommendationsRequest struct {
	UserID      string             `json:"userId"`
	Interests   []string           `json:"interests"`
	Preferences *hobby.Preferences `json:"preferences"`
}

type basedOn struct {
	Interests   []string          `json:"interests"`
	Preferences hobby.Preferences `json:"preferences"`
}

type recommendationsResponse struct {
	Recommendations []hobby.Recommendation `json:"recommendations"`
	BasedOn         basedOn                `json:"basedOn"`
}

// Recommendations suggests hobbies from a stored profile or the request body.
type Recommendations struct {
	Users       UserReader
	Recommender Recommender
}

// Handle answers POST /recommendations.
func (h *Recommendations) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logEvent(req)

	var body recommendationsRequest
	if err := decodeBody(req, &body); err != nil {
		return respondError(err, "Error generating recommendations", true)
	}
	if body.UserID == "" && len(body.Interests) == 0 {
		return badRequest("Either userId or interests array is required")
	}

	interests := body.Interests
	var prefs hobby.Preferences
	if body.Preferences != nil {
		prefs = hobby.Preferences{
			TimeAvailable: body.Preferences.TimeAvailable,
			Budget:        body.Preferences.Budget,
			SkillLevel:    body.Preferences.SkillLevel,
		}
	}

	// A stored profile takes precedence over whatever the body supplied.
	if body.UserID != "" {
		user, err := h.Users.GetUser(ctx, body.UserID)
		if err != nil {
			return respondError(&hobby.DependencyError{Op: "get user", Err: err}, "Error generating recommendations", true)
		}
		if user != nil {
			interests = user.Preferences.Interests
			prefs = hobby.Preferences{
				TimeAvailable: user.Preferences.TimeAvailable,
				Budget:        user.Preferences.Budget,
				SkillLevel:    user.Preferences.SkillLevel,
			}
		}
	}
	if interests == nil {
		interests = []string{}
	}

	recs, err := h.Recommender.Recommend(ctx, interests, prefs)
	if err != nil {
		return respondError(err, "Error generating recommendations", true)
	}

	return respond(http.StatusOK, recommendationsResponse{
		Recommendations: recs.Items,
		BasedOn: basedOn{
			Interests:   interests,
			Preferences: prefs,
		},
	})
}
