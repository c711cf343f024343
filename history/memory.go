package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryCollection is an in-process Collection used in tests and when no
// Firestore project is configured. It mirrors the remote store's contract:
// assigned timestamps are strictly monotonic and every mutation re-emits a
// full snapshot to all subscribers.
type MemoryCollection struct {
	mu      sync.Mutex
	records []Record
	subs    map[int]func([]Record)
	nextSub int
	seq     int64
	base    time.Time

	// Fault injection for tests.
	AddErr       error
	UpdateErr    error
	DeleteErr    error
	FailDeleteAt int // fail the Nth Delete call (1-based); 0 disables
	deletes      int
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{
		subs: make(map[int]func([]Record)),
		base: time.Now(),
	}
}

func (c *MemoryCollection) Subscribe(ctx context.Context, fn func([]Record), errFn func(error)) (func(), error) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	snap := c.snapshotLocked()
	c.mu.Unlock()

	fn(snap)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}, nil
}

func (c *MemoryCollection) Add(_ context.Context, id string, fields map[string]any) error {
	c.mu.Lock()
	if c.AddErr != nil {
		c.mu.Unlock()
		return c.AddErr
	}
	c.seq++
	c.records = append(c.records, Record{
		ID:        id,
		CreatedAt: c.base.Add(time.Duration(c.seq) * time.Millisecond),
		Fields:    cloneFields(fields),
	})
	c.mu.Unlock()
	c.emit()
	return nil
}

func (c *MemoryCollection) Update(_ context.Context, id string, updates map[string]any) error {
	c.mu.Lock()
	if c.UpdateErr != nil {
		c.mu.Unlock()
		return c.UpdateErr
	}
	found := false
	for i := range c.records {
		if c.records[i].ID == id {
			for k, v := range updates {
				c.records[i].Fields[k] = v
			}
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("memory collection: no document %q", id)
	}
	c.emit()
	return nil
}

func (c *MemoryCollection) DocumentIDs(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.records))
	for i, r := range c.records {
		ids[i] = r.ID
	}
	return ids, nil
}

func (c *MemoryCollection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	c.deletes++
	if c.DeleteErr != nil || (c.FailDeleteAt > 0 && c.deletes == c.FailDeleteAt) {
		err := c.DeleteErr
		if err == nil {
			err = fmt.Errorf("memory collection: injected delete failure")
		}
		c.mu.Unlock()
		return err
	}
	for i := range c.records {
		if c.records[i].ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.emit()
	return nil
}

// EmitCurrent redelivers the current snapshot, simulating an
// eventually-consistent feed repeating itself.
func (c *MemoryCollection) EmitCurrent() { c.emit() }

// Len reports the current record count.
func (c *MemoryCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *MemoryCollection) emit() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	fns := make([]func([]Record), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *MemoryCollection) snapshotLocked() []Record {
	snap := make([]Record, len(c.records))
	for i, r := range c.records {
		snap[i] = Record{ID: r.ID, CreatedAt: r.CreatedAt, Fields: cloneFields(r.Fields)}
	}
	return snap
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
