package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hobbymatch/backend/internal/hobby"
)

const APIVersion = "1.0.0"

type welcomeResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Welcome answers any event with a static greeting.
func Welcome(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logEvent(req)
	return respond(http.StatusOK, welcomeResponse{
		Message:   "Welcome to HobbyMatch AI!",
		Timestamp: hobby.FormatTime(time.Now()),
		Version:   APIVersion,
	})
}
