// Package ledger is the durable record store for issued certificates. The
// fallback order on both the read and the write path is an explicit ordered
// list of storage tiers, each bounded by a timeout, instead of incidental
// control flow.
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/syedismail7230/Authai/internal/models"
)

// Store is one storage tier for certificates.
type Store interface {
	Name() string
	Put(ctx context.Context, cert models.Certificate) error
	// Get returns models.ErrNotFound (wrapped) on a miss.
	Get(ctx context.Context, id string) (models.Certificate, error)
	Close() error
}

// MemoryStore is the in-process shadow cache: read-only from the ledger's
// point of view except for opportunistic fills, never authoritative.
type MemoryStore struct {
	mu    sync.RWMutex
	certs map[string]models.Certificate
}

// NewMemoryStore creates an empty in-process cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{certs: make(map[string]models.Certificate)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Put(_ context.Context, cert models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[cert.ID] = cert
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[id]
	if !ok {
		return models.Certificate{}, models.ErrNotFound
	}
	return cert, nil
}

func (s *MemoryStore) Close() error { return nil }

// demoIDPrefix is the documented placeholder pattern. Only identifiers with
// this prefix may resolve to a degraded backup-ledger record; arbitrary
// unknown ids always return NotFound.
const demoIDPrefix = "AUTH-DEMO"

func demoCertificate(id string) (models.Certificate, bool) {
	if !strings.HasPrefix(id, demoIDPrefix) {
		return models.Certificate{}, false
	}
	return models.Certificate{
		ID:             id,
		IssueDate:      time.Now().UTC(),
		ContentHash:    "SHA256-DEMO-HASH",
		Owner:          "DEMO_USER",
		Verdict:        models.VerdictHuman,
		ContentPreview: "This is a demo artifact retrieved from the backup ledger.",
		ContentType:    models.ContentTypeText,
	}, true
}
