package firestore

import (
	"cloud.google.com/go/firestore"
	"context"
	"errors"
	"fmt"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errNotFound = errors.New("document not found")

func create[T any](ctx context.Context, client *firestore.Client, documentPath string, t *T) error {
	dr := client.Doc(documentPath)
	if dr == nil {
		return fmt.Errorf("invalid document path, %s", documentPath)
	}

	if _, err := dr.Create(ctx, t); err != nil {
		return fmt.Errorf("error creating document, %w", err)
	}

	return nil
}

// get returns errNotFound when the document does not exist.
func get[T any](ctx context.Context, client *firestore.Client, documentPath string) (*T, error) {
	dr := client.Doc(documentPath)
	if dr == nil {
		return nil, fmt.Errorf("invalid document path, %s", documentPath)
	}

	ds, err := dr.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting document, %w", err)
	}

	t := new(T)
	if err = ds.DataTo(t); err != nil {
		return nil, fmt.Errorf("error decoding document, %w", err)
	}

	return t, nil
}

func set[T any](ctx context.Context, client *firestore.Client, documentPath string, t *T) error {
	dr := client.Doc(documentPath)
	if dr == nil {
		return fmt.Errorf("invalid document path, %s", documentPath)
	}

	if _, err := dr.Set(ctx, t); err != nil {
		return fmt.Errorf("error setting document contents, %w", err)
	}

	return nil
}

// removeIf deletes the document inside a transaction when matches reports true for its current contents.
// A missing document is not an error.
func removeIf[T any](ctx context.Context, client *firestore.Client, documentPath string, matches func(*T) bool) error {
	dr := client.Doc(documentPath)
	if dr == nil {
		return fmt.Errorf("invalid document path, %s", documentPath)
	}

	return client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ds, err := tx.Get(dr)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error getting document, %w", err)
		}

		t := new(T)
		if err = ds.DataTo(t); err != nil {
			return fmt.Errorf("error decoding document, %w", err)
		}

		if !matches(t) {
			return nil
		}

		return tx.Delete(dr)
	})
}

func list[T any](ctx context.Context, client *firestore.Client, collectionPath string) ([]*T, error) {
	cr := client.Collection(collectionPath)
	if cr == nil {
		return nil, fmt.Errorf("invalid collection path, %s", collectionPath)
	}

	iter := cr.Documents(ctx)
	defer iter.Stop()

	documents := make([]*T, 0)
	for {
		ds, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing documents, %w", err)
		}

		t := new(T)
		if err = ds.DataTo(t); err != nil {
			return nil, fmt.Errorf("error decoding document, %w", err)
		}
		documents = append(documents, t)
	}

	return documents, nil
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
