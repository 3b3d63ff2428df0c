package store

import (
	"testing"
	"time"

	"joingate/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndLatest(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "tok-1", time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingLanguage, req.Status)
	require.NotNil(t, req.LanguageToken)
	assert.Equal(t, "tok-1", *req.LanguageToken)
	assert.Nil(t, req.VerificationToken)

	latest, err := l.Latest(10, -100)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, req.ID, latest.ID)

	// A second row supersedes the first for latest-lookups.
	req2, err := l.Create(10, -100, "tok-2", time.Now().Add(2*time.Minute))
	require.NoError(t, err)

	latest, err = l.Latest(10, -100)
	require.NoError(t, err)
	assert.Equal(t, req2.ID, latest.ID)

	none, err := l.Latest(10, -999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTokenLookupsMatchClass(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "lang-token", time.Now().Add(time.Minute))
	require.NoError(t, err)

	byLang, err := l.ByLanguageToken("lang-token")
	require.NoError(t, err)
	require.NotNil(t, byLang)
	assert.Equal(t, req.ID, byLang.ID)

	// A language token never resolves through the verification index.
	byVer, err := l.ByVerificationToken("lang-token")
	require.NoError(t, err)
	assert.Nil(t, byVer)

	unknown, err := l.ByLanguageToken("nope")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	empty, err := l.ByLanguageToken("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestTransitionComparesStatus(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	applied, err := l.Transition(req.ID, model.StatusAwaitingVerification, map[string]any{
		"status": model.StatusVerified,
	})
	require.NoError(t, err)
	assert.False(t, applied, "mismatched expected status must not apply")

	applied, err = l.Transition(req.ID, model.StatusAwaitingLanguage, map[string]any{
		"status": model.StatusExpired,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// Second caller observing the stale status loses the race.
	applied, err = l.Transition(req.ID, model.StatusAwaitingLanguage, map[string]any{
		"status": model.StatusFailed,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := l.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
}

func TestSetLanguageSwapsTokens(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "lang-tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	applied, err := l.SetLanguage(req.ID, "hi", "ver-tok", time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	require.True(t, applied)

	got, err := l.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingVerification, got.Status)
	assert.Equal(t, "hi", got.Language)
	assert.Nil(t, got.LanguageToken, "consumed token must be cleared")
	assert.Nil(t, got.LanguageExpiresAt)
	require.NotNil(t, got.VerificationToken)
	assert.Equal(t, "ver-tok", *got.VerificationToken)

	// The consumed token is gone from the index for good.
	stale, err := l.ByLanguageToken("lang-tok")
	require.NoError(t, err)
	assert.Nil(t, stale)

	// Replaying the transition is a no-op.
	applied, err = l.SetLanguage(req.ID, "en", "other", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestMarkVerifiedClearsEverything(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "lang-tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = l.SetLanguage(req.ID, "en", "ver-tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	applied, err := l.MarkVerified(req.ID, model.StatusAwaitingVerification)
	require.NoError(t, err)
	require.True(t, applied)

	got, err := l.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, got.Status)
	assert.Nil(t, got.LanguageToken)
	assert.Nil(t, got.VerificationToken)
	assert.Nil(t, got.VerificationExpiresAt)
}

func TestFailIsIdempotent(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	applied, err := l.Fail(req.ID, model.StatusAwaitingLanguage, model.StatusExpired)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = l.Fail(req.ID, model.StatusAwaitingLanguage, model.StatusExpired)
	require.NoError(t, err)
	assert.False(t, applied, "second finalization must observe the changed status")
}

func TestIncrementAttemptsOnlyWhileAwaiting(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = l.SetLanguage(req.ID, "en", "ver-tok", time.Now().Add(time.Minute))
	require.NoError(t, err)

	attempts, applied, err := l.IncrementAttempts(req.ID)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 1, attempts)

	attempts, applied, err = l.IncrementAttempts(req.ID)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 2, attempts)

	_, err = l.Fail(req.ID, model.StatusAwaitingVerification, model.StatusFailed)
	require.NoError(t, err)

	_, applied, err = l.IncrementAttempts(req.ID)
	require.NoError(t, err)
	assert.False(t, applied, "terminal rows never gain attempts")
}

func TestApprovalPendingRoundTrip(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.Create(10, -100, "tok", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = l.SetLanguage(req.ID, "en", "ver", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = l.MarkVerified(req.ID, model.StatusAwaitingVerification)
	require.NoError(t, err)

	applied, err := l.MarkApprovalPending(req.ID)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = l.PromotePending(req.ID)
	require.NoError(t, err)
	require.True(t, applied)

	got, err := l.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, got.Status)

	applied, err = l.PromotePending(req.ID)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestExpiryScans(t *testing.T) {
	l := NewLedger(testDB(t))
	now := time.Now()

	stale, err := l.Create(1, -100, "stale-lang", now.Add(-time.Minute))
	require.NoError(t, err)

	fresh, err := l.Create(2, -100, "fresh-lang", now.Add(time.Hour))
	require.NoError(t, err)

	staleVer, err := l.Create(3, -100, "lang-3", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = l.SetLanguage(staleVer.ID, "en", "stale-ver", now.Add(-time.Second))
	require.NoError(t, err)

	langRows, err := l.ExpiredLanguage(now)
	require.NoError(t, err)
	require.Len(t, langRows, 1)
	assert.Equal(t, stale.ID, langRows[0].ID)

	verRows, err := l.ExpiredVerification(now)
	require.NoError(t, err)
	require.Len(t, verRows, 1)
	assert.Equal(t, staleVer.ID, verRows[0].ID)

	_ = fresh
}

func TestPendingForUserAndCounts(t *testing.T) {
	l := NewLedger(testDB(t))
	now := time.Now().Add(time.Hour)

	a, err := l.Create(7, -1, "t1", now)
	require.NoError(t, err)

	b, err := l.Create(7, -2, "t2", now)
	require.NoError(t, err)
	_, err = l.SetLanguage(b.ID, "en", "v2", now)
	require.NoError(t, err)

	c, err := l.Create(7, -3, "t3", now)
	require.NoError(t, err)
	_, err = l.Fail(c.ID, model.StatusAwaitingLanguage, model.StatusExpired)
	require.NoError(t, err)

	pending, err := l.PendingForUser(7)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	counts, err := l.StatusCounts(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.StatusAwaitingLanguage])
	assert.Equal(t, int64(1), counts[model.StatusAwaitingVerification])
	assert.Equal(t, int64(1), counts[model.StatusExpired])

	chat := int64(-1)
	scoped, err := l.StatusCounts(&chat)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped[model.StatusAwaitingLanguage])
	assert.Len(t, scoped, 1)

	_ = a
}

func TestCreateBlockedHasNoToken(t *testing.T) {
	l := NewLedger(testDB(t))

	req, err := l.CreateBlocked(10, -100)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlocked, req.Status)
	assert.Nil(t, req.LanguageToken)
	assert.Nil(t, req.VerificationToken)
}
