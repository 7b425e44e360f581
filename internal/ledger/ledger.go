package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	retry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

const (
	defaultOpTimeout     = 3 * time.Second
	defaultWriteAttempts = 3
	defaultWriteBackoff  = 200 * time.Millisecond

	maxPreviewLen    = 280
	anonymousOwner   = "ANONYMOUS"
	emptyPreviewNote = "[NO_CONTENT_STORED]"
)

// Options tune the ledger's tier behavior.
type Options struct {
	// OpTimeout bounds each individual store operation.
	OpTimeout time.Duration
	// WriteAttempts is the number of tries against each durable tier.
	WriteAttempts uint64
	// WriteBackoff is the initial backoff between write retries.
	WriteBackoff time.Duration
}

// Ledger issues and resolves certificates over an ordered list of storage
// tiers. The first durable tier is the source of truth; later tiers are
// fallbacks and advisory caches.
type Ledger struct {
	durable []Store
	caches  []Store
	opts    Options
	logger  *zap.Logger
}

// New creates a ledger. durable tiers are tried in order on the write path
// until one accepts the record; caches are filled opportunistically and
// consulted on reads after every durable tier missed.
func New(durable []Store, caches []Store, logger *zap.Logger, opts Options) *Ledger {
	if opts.OpTimeout == 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.WriteAttempts == 0 {
		opts.WriteAttempts = defaultWriteAttempts
	}
	if opts.WriteBackoff == 0 {
		opts.WriteBackoff = defaultWriteBackoff
	}
	return &Ledger{durable: durable, caches: caches, opts: opts, logger: logger}
}

// Issue mints a new certificate from a completed analysis. It is append-only:
// re-certifying the same content produces a distinct record. The write must
// land in a durable tier; when every tier refuses, the error propagates to
// the caller instead of fabricating success.
func (l *Ledger) Issue(ctx context.Context, result *models.AnalysisResult, preview string, ct models.ContentType, owner string) (models.Certificate, error) {
	if result == nil {
		return models.Certificate{}, &models.ValidationError{Reason: "missing analysis result"}
	}

	if owner == "" {
		owner = anonymousOwner
	}
	if preview == "" {
		preview = emptyPreviewNote
	} else if len(preview) > maxPreviewLen {
		preview = truncateOnRune(preview, maxPreviewLen)
	}

	cert := models.Certificate{
		ID:             newCertificateID(),
		IssueDate:      time.Now().UTC(),
		ContentHash:    result.ContentHash,
		Owner:          owner,
		Verdict:        result.Verdict,
		ContentPreview: preview,
		ContentType:    ct,
	}

	var lastErr error
	for _, store := range l.durable {
		if err := l.putWithRetry(ctx, store, cert); err != nil {
			lastErr = err
			l.logger.Warn("Durable certificate write failed, trying next tier",
				zap.String("store", store.Name()),
				zap.String("certificate_id", cert.ID),
				zap.Error(err))
			continue
		}

		l.fillCaches(ctx, cert)
		l.logger.Info("Certificate issued",
			zap.String("certificate_id", cert.ID),
			zap.String("store", store.Name()),
			zap.String("content_hash", cert.ContentHash))
		return cert, nil
	}

	return models.Certificate{}, &models.PersistenceError{Op: "issue", Err: lastErr}
}

// Resolve looks a certificate up tier by tier: durable stores, then caches,
// then the documented demo placeholder pattern. Unknown non-placeholder ids
// return NotFound, never a fabricated record. A NotFound answer requires at
// least one tier to actually report a miss; when every tier errors out the
// outage propagates instead of masquerading as nonexistence.
func (l *Ledger) Resolve(ctx context.Context, id string) (models.Certificate, error) {
	var (
		sawMiss bool
		lastErr error
	)
	for _, store := range append(append([]Store{}, l.durable...), l.caches...) {
		opCtx, cancel := context.WithTimeout(ctx, l.opts.OpTimeout)
		cert, err := store.Get(opCtx, id)
		cancel()

		if err == nil {
			return cert, nil
		}
		if errors.Is(err, models.ErrNotFound) {
			sawMiss = true
			continue
		}
		lastErr = err
		l.logger.Warn("Certificate read tier failed, trying next",
			zap.String("store", store.Name()),
			zap.String("certificate_id", id),
			zap.Error(err))
	}

	if cert, ok := demoCertificate(id); ok {
		l.logger.Info("Serving degraded demo certificate",
			zap.String("certificate_id", id))
		return cert, nil
	}

	if lastErr != nil && !sawMiss {
		return models.Certificate{}, &models.PersistenceError{Op: "resolve", Err: lastErr}
	}
	return models.Certificate{}, fmt.Errorf("certificate %s: %w", id, models.ErrNotFound)
}

// Count reports the number of certificates in the first durable tier that can
// count, for operational stats.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	type counter interface {
		Count(ctx context.Context) (int64, error)
	}
	for _, store := range l.durable {
		if c, ok := store.(counter); ok {
			opCtx, cancel := context.WithTimeout(ctx, l.opts.OpTimeout)
			n, err := c.Count(opCtx)
			cancel()
			return n, err
		}
	}
	return 0, fmt.Errorf("no countable store configured")
}

// Close closes every tier; the first error wins.
func (l *Ledger) Close() error {
	var firstErr error
	for _, store := range append(append([]Store{}, l.durable...), l.caches...) {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *Ledger) putWithRetry(ctx context.Context, store Store, cert models.Certificate) error {
	backoff := retry.WithMaxRetries(l.opts.WriteAttempts-1, retry.NewExponential(l.opts.WriteBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		opCtx, cancel := context.WithTimeout(ctx, l.opts.OpTimeout)
		defer cancel()
		if err := store.Put(opCtx, cert); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (l *Ledger) fillCaches(ctx context.Context, cert models.Certificate) {
	for _, cache := range l.caches {
		opCtx, cancel := context.WithTimeout(ctx, l.opts.OpTimeout)
		if err := cache.Put(opCtx, cert); err != nil {
			l.logger.Warn("Certificate cache fill failed",
				zap.String("store", cache.Name()),
				zap.String("certificate_id", cert.ID),
				zap.Error(err))
		}
		cancel()
	}
}

// truncateOnRune cuts s to at most max bytes without splitting a multi-byte
// rune at the boundary.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func newCertificateID() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "AUTH-" + token[:9]
}
