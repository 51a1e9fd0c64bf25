package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hobbymatch/backend/internal/hobby"
)

// UserWriter persists a new user together with its interest index rows and
// reports how many index rows were written.
type UserWriter interface {
	CreateUser(ctx context.Context, u hobby.User) (int, error)
}

type createUserRequest struct {
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Preferences *hobby.Preferences `json:"preferences"`
}

type createUserResponse struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	InterestsAdded int    `json:"interestsAdded"`
}

// CreateUser registers a user and indexes their interests.
type CreateUser struct {
	Users UserWriter
	Now   func() time.Time
}

// Handle answers POST /users.
func (h *CreateUser) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logEvent(req)

	var body createUserRequest
	if err := decodeBody(req, &body); err != nil {
		return respondError(err, "Error creating user", true)
	}
	if body.Email == "" || body.Name == "" {
		return badRequest("Email and name are required")
	}

	var prefs hobby.Preferences
	if body.Preferences != nil {
		prefs = *body.Preferences
	}
	// A JSON null element decodes to "", which is no usable index key.
	for _, interest := range prefs.Interests {
		if interest == "" {
			return badRequest("Interests must be non-empty strings")
		}
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	user := hobby.NewUser(body.Email, body.Name, prefs, now())

	added, err := h.Users.CreateUser(ctx, user)
	if err != nil {
		return respondError(&hobby.DependencyError{Op: "create user", Err: err}, "Error creating user", true)
	}

	return respond(http.StatusOK, createUserResponse{
		Message:        "User created successfully",
		UserID:         user.UserID,
		Email:          user.Email,
		InterestsAdded: added,
	})
}
