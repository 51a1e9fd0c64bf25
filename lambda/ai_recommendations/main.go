package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hobbymatch/backend/internal/config"
	"github.com/hobbymatch/backend/internal/handler"
	"github.com/hobbymatch/backend/internal/recommender"
	"github.com/hobbymatch/backend/internal/secrets"
	"github.com/hobbymatch/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := store.NewDynamoClient(context.Background(), cfg.Region, cfg.DynamoDBEndpoint)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	// The OpenAI key is resolved per request so a missing key fails the
	// request with a 500 instead of the cold start.
	keys := &secrets.OpenAIKey{Region: cfg.Region, SecretArn: cfg.OpenAISecretArn}

	h := &handler.Recommendations{
		Users:       store.New(db, store.Tables{Users: cfg.UsersTable, UserInterests: cfg.UserInterestsTable}),
		Recommender: recommender.New(keys, cfg.OpenAIModel, cfg.OpenAIBaseURL),
	}
	lambda.Start(h.Handle)
}
