package profile

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
	appID  string
}

// NewFirestoreRepository creates a Firestore-backed repository scoped to the
// given application namespace.
func NewFirestoreRepository(client *firestore.Client, appID string) Repository {
	return &firestoreRepository{client: client, appID: appID}
}

// doc addresses artifacts/{appID}/users/{uid}/users/{uid}. The double users
// segment keeps each record under its owner's private subtree so per-user
// security rules apply.
func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection("artifacts").Doc(r.appID).
		Collection("users").Doc(userID).
		Collection("users").Doc(userID)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (*Record, error) {
	doc, err := r.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("unmarshal profile record: %w", err)
	}
	return &rec, nil
}

// Set overwrites the record. Last write wins, which makes concurrent
// get-or-create races an idempotent overwrite rather than an inconsistency.
func (r *firestoreRepository) Set(ctx context.Context, userID string, rec Record) error {
	_, err := r.doc(userID).Set(ctx, rec)
	return err
}

func (r *firestoreRepository) ListPendingDrivers(ctx context.Context, limit int) ([]PendingDriver, error) {
	query := r.client.CollectionGroup("users").
		Where("role", "==", string(RoleDriver)).
		Where("isVerified", "==", false)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var pending []PendingDriver
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var rec Record
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("unmarshal driver record: %w", err)
		}
		pending = append(pending, PendingDriver{UserID: doc.Ref.ID, Record: rec})
	}
	return pending, nil
}
