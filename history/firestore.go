package history

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreCollection backs the feed with one messages collection per
// identity. Creation times are server-assigned, so ordering survives
// multi-writer synchronization across clients.
type FirestoreCollection struct {
	client *firestore.Client
	userID string
}

func NewFirestoreCollection(ctx context.Context, projectID, userID string) (*FirestoreCollection, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for the Firestore collection")
	}
	if userID == "" {
		return nil, fmt.Errorf("userID is required for the Firestore collection")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreCollection{client: client, userID: userID}, nil
}

func (c *FirestoreCollection) Close() error { return c.client.Close() }

func (c *FirestoreCollection) messages() *firestore.CollectionRef {
	return c.client.Collection("users").Doc(c.userID).Collection("messages")
}

func (c *FirestoreCollection) Subscribe(ctx context.Context, fn func([]Record), errFn func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := c.messages().OrderBy("createdAt", firestore.Asc).Snapshots(ctx)

	go func() {
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return
				}
				if errFn != nil {
					errFn(fmt.Errorf("firestore feed: %w", err))
				}
				return
			}
			records, err := collectRecords(snap.Documents)
			if err != nil {
				if errFn != nil {
					errFn(err)
				}
				continue
			}
			fn(records)
		}
	}()

	return func() {
		cancel()
		snaps.Stop()
	}, nil
}

func collectRecords(docs *firestore.DocumentIterator) ([]Record, error) {
	defer docs.Stop()
	records := []Record{}
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("firestore feed snapshot: %w", err)
		}
		fields := doc.Data()
		createdAt, _ := fields["createdAt"].(time.Time)
		records = append(records, Record{
			ID:        doc.Ref.ID,
			CreatedAt: createdAt,
			Fields:    fields,
		})
	}
}

func (c *FirestoreCollection) Add(ctx context.Context, id string, fields map[string]any) error {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["createdAt"] = firestore.ServerTimestamp
	if _, err := c.messages().Doc(id).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore add: %w", err)
	}
	return nil
}

func (c *FirestoreCollection) Update(ctx context.Context, id string, updates map[string]any) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for k, v := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{Path: k, Value: v})
	}
	if _, err := c.messages().Doc(id).Update(ctx, fsUpdates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("firestore update: no document %q", id)
		}
		return fmt.Errorf("firestore update: %w", err)
	}
	return nil
}

func (c *FirestoreCollection) DocumentIDs(ctx context.Context) ([]string, error) {
	docs := c.messages().OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer docs.Stop()
	var ids []string
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return ids, nil
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
}

func (c *FirestoreCollection) Delete(ctx context.Context, id string) error {
	if _, err := c.messages().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete: %w", err)
	}
	return nil
}
