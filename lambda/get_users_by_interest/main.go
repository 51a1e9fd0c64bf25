package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hobbymatch/backend/internal/config"
	"github.com/hobbymatch/backend/internal/handler"
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

	h := &handler.UsersByInterest{
		Interests:   store.New(db, store.Tables{Users: cfg.UsersTable, UserInterests: cfg.UserInterestsTable}),
		Limit:       cfg.InterestQueryLimit,
		Development: cfg.IsDevelopment(),
	}
	lambda.Start(h.Handle)
}
