package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

// flakyStore fails the first failures Puts, then behaves like a MemoryStore.
type flakyStore struct {
	*MemoryStore
	name     string
	failures int
	putCalls int
}

func (s *flakyStore) Name() string { return s.name }

func (s *flakyStore) Put(ctx context.Context, cert models.Certificate) error {
	s.putCalls++
	if s.putCalls <= s.failures {
		return errors.New("tier unavailable")
	}
	return s.MemoryStore.Put(ctx, cert)
}

func newFlakyStore(name string, failures int) *flakyStore {
	return &flakyStore{MemoryStore: NewMemoryStore(), name: name, failures: failures}
}

// brokenStore fails every operation.
type brokenStore struct{ name string }

func (s *brokenStore) Name() string                              { return s.name }
func (s *brokenStore) Put(context.Context, models.Certificate) error { return errors.New("down") }
func (s *brokenStore) Get(context.Context, string) (models.Certificate, error) {
	return models.Certificate{}, errors.New("down")
}
func (s *brokenStore) Close() error { return nil }

func fastOptions() Options {
	return Options{OpTimeout: time.Second, WriteAttempts: 2, WriteBackoff: time.Millisecond}
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Verdict:          models.VerdictHuman,
		AIProbability:    5,
		HumanProbability: 95,
		ContentHash:      "deadbeef",
	}
}

func TestIssueAndResolve(t *testing.T) {
	primary := NewMemoryStore()
	l := New([]Store{primary}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Issue(context.Background(), sampleResult(), "a short preview", models.ContentTypeText, "alice")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cert.ID, "AUTH-"))
	assert.Len(t, cert.ID, len("AUTH-")+9)
	assert.Equal(t, "deadbeef", cert.ContentHash)
	assert.Equal(t, "alice", cert.Owner)
	assert.Equal(t, models.VerdictHuman, cert.Verdict)
	assert.False(t, cert.IssueDate.IsZero())

	got, err := l.Resolve(context.Background(), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert, got)
}

func TestIssueDefaults(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)

	assert.Equal(t, "ANONYMOUS", cert.Owner)
	assert.Equal(t, "[NO_CONTENT_STORED]", cert.ContentPreview)
}

func TestIssueTruncatesPreview(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	long := strings.Repeat("x", maxPreviewLen+100)
	cert, err := l.Issue(context.Background(), sampleResult(), long, models.ContentTypeText, "")
	require.NoError(t, err)

	assert.Len(t, cert.ContentPreview, maxPreviewLen)
}

func TestIssueTruncatesPreviewOnRuneBoundary(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	// 3-byte runes sized so the byte limit lands mid-rune.
	long := strings.Repeat("語", maxPreviewLen)
	cert, err := l.Issue(context.Background(), sampleResult(), long, models.ContentTypeText, "")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(cert.ContentPreview), maxPreviewLen)
	assert.True(t, utf8.ValidString(cert.ContentPreview), "truncation must not split a rune")
	assert.NotEmpty(t, cert.ContentPreview)
}

func TestIssueNilResult(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	_, err := l.Issue(context.Background(), nil, "", models.ContentTypeText, "")

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestIssueAppendOnly(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	first, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)
	second, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "re-certifying identical content mints a new record")
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestIssueRetriesTransientFailure(t *testing.T) {
	primary := newFlakyStore("primary", 1)
	l := New([]Store{primary}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)
	assert.Equal(t, 2, primary.putCalls)

	_, err = primary.Get(context.Background(), cert.ID)
	assert.NoError(t, err, "record must land in the primary after the retry")
}

func TestIssueFallsBackToNextTier(t *testing.T) {
	secondary := NewMemoryStore()
	l := New([]Store{&brokenStore{name: "primary"}, secondary}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)

	_, err = secondary.Get(context.Background(), cert.ID)
	assert.NoError(t, err, "record must land in the fallback tier")
}

func TestIssueAllTiersDown(t *testing.T) {
	l := New([]Store{&brokenStore{name: "primary"}, &brokenStore{name: "secondary"}}, nil, zap.NewNop(), fastOptions())

	_, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")

	var perr *models.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "issue", perr.Op)
}

func TestIssueFillsCaches(t *testing.T) {
	cache := NewMemoryStore()
	l := New([]Store{NewMemoryStore()}, []Store{cache}, zap.NewNop(), fastOptions())

	cert, err := l.Issue(context.Background(), sampleResult(), "", models.ContentTypeText, "")
	require.NoError(t, err)

	got, err := cache.Get(context.Background(), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert, got)
}

func TestResolveSkipsFailingTier(t *testing.T) {
	cache := NewMemoryStore()
	l := New([]Store{&brokenStore{name: "primary"}}, []Store{cache}, zap.NewNop(), fastOptions())

	want := models.Certificate{ID: "AUTH-CACHED123", Verdict: models.VerdictHuman}
	require.NoError(t, cache.Put(context.Background(), want))

	got, err := l.Resolve(context.Background(), "AUTH-CACHED123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveDemoPlaceholder(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Resolve(context.Background(), "AUTH-DEMO-2024")
	require.NoError(t, err)

	assert.Equal(t, "AUTH-DEMO-2024", cert.ID)
	assert.Equal(t, "DEMO_USER", cert.Owner)
	assert.Equal(t, "SHA256-DEMO-HASH", cert.ContentHash)
	assert.Equal(t, models.VerdictHuman, cert.Verdict)
}

func TestResolveTotalOutageIsNotANotFound(t *testing.T) {
	l := New(
		[]Store{&brokenStore{name: "primary"}, &brokenStore{name: "secondary"}},
		[]Store{&brokenStore{name: "cache"}},
		zap.NewNop(), fastOptions(),
	)

	_, err := l.Resolve(context.Background(), "AUTH-REALCERT1")

	var perr *models.PersistenceError
	require.ErrorAs(t, err, &perr, "an outage must not be reported as nonexistence")
	assert.Equal(t, "resolve", perr.Op)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestResolveMissWithFailingTierStaysNotFound(t *testing.T) {
	// One healthy tier answered "no such record"; a sibling outage does not
	// upgrade that miss to a persistence failure.
	l := New([]Store{&brokenStore{name: "primary"}, NewMemoryStore()}, nil, zap.NewNop(), fastOptions())

	_, err := l.Resolve(context.Background(), "AUTH-UNKNOWN99")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveDemoPlaceholderSurvivesOutage(t *testing.T) {
	l := New([]Store{&brokenStore{name: "primary"}}, nil, zap.NewNop(), fastOptions())

	cert, err := l.Resolve(context.Background(), "AUTH-DEMO-42")
	require.NoError(t, err)
	assert.Equal(t, "DEMO_USER", cert.Owner)
}

func TestResolveUnknownID(t *testing.T) {
	l := New([]Store{NewMemoryStore()}, []Store{NewMemoryStore()}, zap.NewNop(), fastOptions())

	_, err := l.Resolve(context.Background(), "AUTH-UNKNOWN99")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolvePrefersDurableOverCache(t *testing.T) {
	primary := NewMemoryStore()
	cache := NewMemoryStore()
	l := New([]Store{primary}, []Store{cache}, zap.NewNop(), fastOptions())

	id := "AUTH-SHARED001"
	require.NoError(t, primary.Put(context.Background(), models.Certificate{ID: id, Owner: "durable"}))
	require.NoError(t, cache.Put(context.Background(), models.Certificate{ID: id, Owner: "stale-cache"}))

	got, err := l.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Owner)
}

func TestDemoCertificateRequiresPrefix(t *testing.T) {
	_, ok := demoCertificate("AUTH-REALID123")
	assert.False(t, ok)

	_, ok = demoCertificate("AUTH-DEMO")
	assert.True(t, ok)
}
