// Package blob is content-addressed byte storage: the key is the SHA-256 of
// the content, so identical bytes always share one blob.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/veritex-io/veritex/internal/db"
)

// store is the consumer interface for blob storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// ErrBlobNotFound signals a missing blob.
var ErrBlobNotFound = errors.New("blob not found")

// Repo implements usecase/anchor.BlobStore.
type Repo struct {
	store store
}

// New creates a blob repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put stores data under its content hash and returns the CID. Writing an
// already-stored blob is a no-op since the bytes are identical.
func (r *Repo) Put(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	cid := hex.EncodeToString(sum[:])

	if _, err := r.store.SetNX(ctx, key(cid), data); err != nil {
		return "", fmt.Errorf("put blob %s: %w", cid, err)
	}
	return cid, nil
}

// Get loads a blob by CID and verifies the bytes still hash to it.
func (r *Repo) Get(ctx context.Context, cid string) ([]byte, error) {
	data, err := r.store.Get(ctx, key(cid))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("get blob %s: %w", cid, err)
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != cid {
		return nil, fmt.Errorf("blob %s: stored bytes do not match their address", cid)
	}
	return data, nil
}

func key(cid string) string {
	return "blob:" + cid
}
