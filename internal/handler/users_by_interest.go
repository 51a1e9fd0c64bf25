package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hobbymatch/backend/internal/hobby"
	"github.com/hobbymatch/backend/internal/store"
)

const defaultInterestLimit = 50

// InterestReader looks up index rows for one normalized interest.
type InterestReader interface {
	UsersByInterest(ctx context.Context, interest string, limit int32) (store.Page, error)
}

type usersByInterestResponse struct {
	Interest string                `json:"interest"`
	Users    []hobby.InterestEntry `json:"users"`
	Count    int                   `json:"count"`
	HasMore  bool                  `json:"hasMore"`
}

// UsersByInterest lists the users who share an interest.
type UsersByInterest struct {
	Interests   InterestReader
	Limit       int32
	// Development includes the underlying error text in 500 responses.
	Development bool
}

// Handle answers GET /users/interest/{interest}.
func (h *UsersByInterest) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logEvent(req)

	interest := req.PathParameters["interest"]
	if interest == "" {
		return badRequest("Interest parameter is required")
	}
	normalized := hobby.NormalizeInterest(interest)

	limit := h.Limit
	if limit <= 0 {
		limit = defaultInterestLimit
	}
	page, err := h.Interests.UsersByInterest(ctx, normalized, limit)
	if err != nil {
		return respondError(&hobby.DependencyError{Op: "query users by interest", Err: err}, "Error retrieving users", h.Development)
	}

	return respond(http.StatusOK, usersByInterestResponse{
		Interest: normalized,
		Users:    page.Entries,
		Count:    len(page.Entries),
		HasMore:  page.HasMore,
	})
}
