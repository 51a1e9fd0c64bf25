// Package handler implements the HobbyMatch API Gateway proxy handlers.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/hobbymatch/backend/internal/hobby"
)

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// respond encodes body as the JSON payload of a proxy response. Handlers
// always return a nil error so the runtime never sees a failed invocation.
func respond(status int, body any) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
		status = http.StatusInternalServerError
		b = []byte(`{"message":"Internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers(),
		Body:       string(b),
	}, nil
}

func badRequest(message string) (events.APIGatewayProxyResponse, error) {
	return respond(http.StatusBadRequest, messageBody{Message: message})
}

// respondError maps validation failures to 400 and everything else to 500
// with the given message. detail controls whether the text of err's root
// cause is included; the full chain is only logged.
func respondError(err error, message string, detail bool) (events.APIGatewayProxyResponse, error) {
	var verr *hobby.ValidationError
	if errors.As(err, &verr) {
		return badRequest(verr.Message)
	}
	log.Printf("Error: %v", err)
	body := messageBody{Message: message}
	if detail {
		body.Error = rootCause(err).Error()
	}
	return respond(http.StatusInternalServerError, body)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func logEvent(req events.APIGatewayProxyRequest) {
	b, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		log.Printf("Event received (unencodable): %v", err)
		return
	}
	log.Printf("Event received: %s", b)
}

// decodeBody parses the JSON request body into v. An absent body decodes as
// an empty object; malformed JSON or mistyped fields are a ValidationError.
func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return hobby.Invalid("Request body is not valid base64")
		}
		raw = decoded
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return hobby.Invalid("Invalid type for field %s", typeErr.Field)
		}
		return hobby.Invalid("Request body must be a JSON object")
	}
	return nil
}
