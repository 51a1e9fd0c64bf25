// Command devserver serves the HobbyMatch handlers over plain HTTP for local
// development, typically against DynamoDB Local.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hobbymatch/backend/internal/config"
	"github.com/hobbymatch/backend/internal/handler"
	"github.com/hobbymatch/backend/internal/recommender"
	"github.com/hobbymatch/backend/internal/secrets"
	"github.com/hobbymatch/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := store.NewDynamoClient(ctx, cfg.Region, cfg.DynamoDBEndpoint)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	st := store.New(db, store.Tables{Users: cfg.UsersTable, UserInterests: cfg.UserInterestsTable})
	keys := &secrets.OpenAIKey{Region: cfg.Region, SecretArn: cfg.OpenAISecretArn}

	router := NewRouter(Handlers{
		Welcome:         handler.Welcome,
		CreateUser:      (&handler.CreateUser{Users: st, Now: time.Now}).Handle,
		UsersByInterest: (&handler.UsersByInterest{Interests: st, Limit: cfg.InterestQueryLimit, Development: cfg.IsDevelopment()}).Handle,
		Recommendations: (&handler.Recommendations{Users: st, Recommender: recommender.New(keys, cfg.OpenAIModel, cfg.OpenAIBaseURL)}).Handle,
	})

	srv := &http.Server{
		Addr:              cfg.DevServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("devserver listening on %s (users table %s)", cfg.DevServerAddr, cfg.UsersTable)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
