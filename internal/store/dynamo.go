// Package store persists users and their interest index in DynamoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hobbymatch/backend/internal/hobby"
)

// batchWriteLimit is DynamoDB's cap on requests per BatchWriteItem call.
const batchWriteLimit = 25

// maxUnprocessedAttempts bounds how often a chunk's UnprocessedItems are resubmitted.
const maxUnprocessedAttempts = 3

// unprocessedBackoff is the wait before the first resubmission; it doubles
// on every further attempt.
var unprocessedBackoff = 100 * time.Millisecond

// DynamoAPI captures the subset of the DynamoDB client API we use. This enables unit testing with a mock.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDynamoClient builds the process-wide client. A non-empty endpoint points
// it at DynamoDB Local.
var NewDynamoClient = func(ctx context.Context, region, endpoint string) (DynamoAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Tables names the two DynamoDB tables.
type Tables struct {
	Users         string
	UserInterests string
}

// Store reads and writes HobbyMatch records. It holds no per-request state
// and is safe to share between invocations.
type Store struct {
	db     DynamoAPI
	tables Tables
}

// New returns a Store over db.
func New(db DynamoAPI, tables Tables) *Store {
	return &Store{db: db, tables: tables}
}

// PartialWriteError is returned by CreateUser when the user row was written
// but its interest index rows were not.
type PartialWriteError struct {
	UserID     string
	// RolledBack reports whether the user row was deleted again.
	RolledBack bool
	Err        error
}

func (e *PartialWriteError) Error() string {
	state := "user row left without interest index"
	if e.RolledBack {
		state = "user row rolled back"
	}
	return fmt.Sprintf("write interests for %s (%s): %v", e.UserID, state, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}

// GetUser fetches a user by id. A missing user is reported as nil, nil.
func (s *Store) GetUser(ctx context.Context, userID string) (*hobby.User, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key:       userKey(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var u hobby.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &u, nil
}

// CreateUser writes the user row and then its interest index rows. The two
// writes are not atomic: if the index write fails the user row is deleted
// again and a *PartialWriteError is returned. It returns the number of index
// rows written.
func (s *Store) CreateUser(ctx context.Context, u hobby.User) (int, error) {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return 0, fmt.Errorf("encode user: %w", err)
	}
	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Users),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(userId)"),
	}); err != nil {
		return 0, fmt.Errorf("put user %s: %w", u.UserID, err)
	}

	entries := u.InterestEntries()
	if len(entries) == 0 {
		return 0, nil
	}
	if err := s.putInterestEntries(ctx, entries); err != nil {
		perr := &PartialWriteError{UserID: u.UserID, Err: err}
		// The rollback runs even when the request context is already done.
		if _, derr := s.db.DeleteItem(context.WithoutCancel(ctx), &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tables.Users),
			Key:       userKey(u.UserID),
		}); derr != nil {
			log.Printf("error: failed to roll back user %s after interest write failure: %v", u.UserID, derr)
		} else {
			perr.RolledBack = true
		}
		return 0, perr
	}
	return len(entries), nil
}

func (s *Store) putInterestEntries(ctx context.Context, entries []hobby.InterestEntry) error {
	requests := make([]types.WriteRequest, 0, len(entries))
	for _, e := range entries {
		item, err := attributevalue.MarshalMap(e)
		if err != nil {
			return fmt.Errorf("encode interest %q: %w", e.Interest, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for start := 0; start < len(requests); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(requests))
		if err := s.batchWrite(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.tables.UserInterests: requests}
	for attempt := 1; ; attempt++ {
		out, err := s.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write interests: %w", err)
		}
		left := out.UnprocessedItems[s.tables.UserInterests]
		if len(left) == 0 {
			return nil
		}
		if attempt >= maxUnprocessedAttempts {
			return fmt.Errorf("batch write interests: %d items still unprocessed after %d attempts", len(left), attempt)
		}
		delay := unprocessedBackoff << (attempt - 1)
		log.Printf("warn: %d interest rows unprocessed, resubmitting in %v", len(left), delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("batch write interests: %w", ctx.Err())
		case <-time.After(delay):
		}
		pending = map[string][]types.WriteRequest{s.tables.UserInterests: left}
	}
}

// Page is one result page of an interest lookup.
type Page struct {
	Entries []hobby.InterestEntry
	// HasMore reports that the store returned a continuation cursor.
	HasMore bool
}

// UsersByInterest returns up to limit index rows for the lowercased interest,
// in the table's sort key order.
func (s *Store) UsersByInterest(ctx context.Context, interest string, limit int32) (Page, error) {
	if interest == "" {
		return Page{}, errors.New("interest is required")
	}
	keyCond := expression.Key("interest").Equal(expression.Value(hobby.NormalizeInterest(interest)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return Page{}, fmt.Errorf("build interest query: %w", err)
	}

	log.Printf("Querying %s for interest %q (limit %d)", s.tables.UserInterests, hobby.NormalizeInterest(interest), limit)
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.UserInterests),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return Page{}, fmt.Errorf("query interest %q: %w", interest, err)
	}

	entries := []hobby.InterestEntry{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return Page{}, fmt.Errorf("decode interest rows: %w", err)
	}
	if entries == nil {
		entries = []hobby.InterestEntry{}
	}
	return Page{Entries: entries, HasMore: len(out.LastEvaluatedKey) > 0}, nil
}
