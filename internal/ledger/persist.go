package ledger

import (
	"context"
	"errors"

	"github.com/newthinker/trendbot/internal/storage/blob"
	"go.uber.org/zap"
)

// DefaultSnapshotKey is the blob key used when none is configured
const DefaultSnapshotKey = "wallet.json"

// Persister stores the encoded ledger snapshot
type Persister interface {
	Save(ctx context.Context, data []byte) error
	// Load returns blob.ErrNotFound when nothing has been saved yet
	Load(ctx context.Context) ([]byte, error)
}

// BlobPersister keeps the snapshot under a single key of a blob.Storage
type BlobPersister struct {
	storage blob.Storage
	key     string
}

// NewBlobPersister creates a persister writing to key
func NewBlobPersister(storage blob.Storage, key string) *BlobPersister {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &BlobPersister{storage: storage, key: key}
}

func (p *BlobPersister) Save(ctx context.Context, data []byte) error {
	return p.storage.Write(ctx, p.key, data)
}

func (p *BlobPersister) Load(ctx context.Context) ([]byte, error) {
	return p.storage.Read(ctx, p.key)
}

// Reset removes the stored snapshot
func (p *BlobPersister) Reset(ctx context.Context) error {
	return p.storage.Delete(ctx, p.key)
}

// Key returns the blob key
func (p *BlobPersister) Key() string {
	return p.key
}

// Restore loads the ledger from persister. A missing, unreadable, corrupt
// or unknown-version snapshot is discarded in favour of a fresh ledger with
// startingBalance; the returned error reports why, and is nil when the
// snapshot was restored or none existed. The ledger is never nil.
func Restore(ctx context.Context, persister Persister, startingBalance float64, opts ...Option) (*Ledger, error) {
	opts = append([]Option{WithPersister(persister)}, opts...)
	fresh := func() *Ledger { return New(startingBalance, opts...) }

	if persister == nil {
		return fresh(), nil
	}

	data, err := persister.Load(ctx)
	if errors.Is(err, blob.ErrNotFound) {
		return fresh(), nil
	}
	if err != nil {
		l := fresh()
		l.logger.Warn("ledger snapshot unreadable, starting fresh",
			zap.Float64("balance", startingBalance), zap.Error(err))
		return l, err
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		l := fresh()
		l.logger.Warn("ledger snapshot discarded, starting fresh",
			zap.Float64("balance", startingBalance), zap.Error(err))
		return l, err
	}

	l, err := FromSnapshot(snap, opts...)
	if err != nil {
		return fresh(), err
	}
	l.logger.Info("ledger restored",
		zap.Float64("balance", snap.Balance),
		zap.Int("positions", len(snap.Positions)),
		zap.Time("saved_at", snap.SavedAt),
	)
	return l, nil
}
