package db

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

// mockMongoDuplicateKeyError creates an error that IsMongoDuplicateKeyError will recognize.
func mockMongoDuplicateKeyError(key string) error {
	mongoErr := mongo.WriteError{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.properties index: slug_1 dup key: { : \"%s\" }", key),
	}
	return mongo.WriteException{WriteErrors: []mongo.WriteError{mongoErr}}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var opCalled int
	operation := func() error {
		opCalled++
		return nil
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_FailureNonDuplicateKey(t *testing.T) {
	var opCalled int
	expectedErr := errors.New("some other error")
	operation := func() error {
		opCalled++
		return expectedErr
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var opCalled int
	operation := func() error {
		opCalled++
		return mockMongoDuplicateKeyError("lake-house-1712000000000")
	}

	maxRetries := 3
	err := WithRetries(operation, maxRetries, IsMongoDuplicateKeyError)

	if err == nil {
		t.Fatal("Expected a duplicate key error, got nil")
	}
	if !IsMongoDuplicateKeyError(err) {
		t.Errorf("Expected a Mongo duplicate key error, got %T: %v", err, err)
	}

	expectedOpCalls := maxRetries + 1
	if opCalled != expectedOpCalls {
		t.Errorf("Expected operation to be called %d times, got %d", expectedOpCalls, opCalled)
	}
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	// Simulate a slug collision that resolves on the second attempt, the way
	// slug regeneration does with a fresh timestamp suffix.
	inserted := map[string]bool{"lake-house-1": true}
	slugs := []string{"lake-house-1", "lake-house-2"}

	var opCalled int
	operation := func() error {
		slug := slugs[opCalled]
		opCalled++
		if inserted[slug] {
			return mockMongoDuplicateKeyError(slug)
		}
		inserted[slug] = true
		return nil
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Fatalf("Expected no error as collision should resolve, got: %v", err)
	}
	if opCalled != 2 {
		t.Errorf("Expected operation to be called 2 times, got %d", opCalled)
	}
	if !inserted["lake-house-2"] {
		t.Error("Expected retried slug to be inserted")
	}
}
