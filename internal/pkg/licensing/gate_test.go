package licensing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/abuse"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/ratelimit"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, s string) bucket.Day {
	t.Helper()
	d, err := bucket.ParseDay(s)
	require.NoError(t, err)
	return d
}

type gateFixture struct {
	gate    *Gate
	ledger  *usage.Ledger
	limiter *ratelimit.Limiter
}

func newGate(t *testing.T, opts ...GateOption) gateFixture {
	t.Helper()
	reg, err := NewStaticRegistry(DefaultKeys)
	require.NoError(t, err)

	ledger := usage.NewLedger(usage.NewMemoryStore())
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), entitlements.DefaultTable())
	return gateFixture{
		gate:    NewGate(reg, ledger, abuse.NewDetector(abuse.DefaultThresholds), limiter, opts...),
		ledger:  ledger,
		limiter: limiter,
	}
}

// spread returns a time in hour i/10 of the day so the hourly ceiling never
// interferes with daily assertions.
func spread(day time.Time, i int) time.Time {
	return day.Add(time.Duration(i/10) * time.Hour)
}

func TestAnonymousCaller(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	caller := Caller{SessionID: "sess-1", Fingerprint: "fp"}

	for i := 0; i < 5; i++ {
		d, err := f.gate.Authorize(ctx, caller, spread(day, i*10))
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.False(t, d.IsPremium)
		assert.Equal(t, "anon:sess-1", d.Identity)
	}

	d, err := f.gate.Authorize(ctx, caller, spread(day, 60))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)
	assert.Equal(t, ratelimit.WindowDay, d.Verdict.Window)

	other, err := f.gate.Authorize(ctx, Caller{SessionID: "sess-2"}, spread(day, 60))
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	p, err := f.ledger.Get(ctx, "anon:sess-1")
	require.NoError(t, err)
	assert.Nil(t, p, "anonymous use is not recorded in the ledger")
}

func TestAnonymousIdentityFallback(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()

	d, err := f.gate.Authorize(ctx, Caller{Fingerprint: "abc"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "anon:abc", d.Identity)

	_, err = f.gate.Authorize(ctx, Caller{}, time.Now())
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestClientSessionDoesNotResetQuota(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		caller := Caller{SessionID: fmt.Sprintf("rotated-%d", i), Fingerprint: "fp-api", ClientSession: true}
		d, err := f.gate.Authorize(ctx, caller, spread(day, i*10))
		require.NoError(t, err)
		require.True(t, d.Allowed)
		assert.Equal(t, "anon:fp-api", d.Identity)
	}

	d, err := f.gate.Authorize(ctx, Caller{SessionID: "fresh", Fingerprint: "fp-api", ClientSession: true}, spread(day, 60))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonDailyLimit, d.Reason)

	s, err := f.gate.Status(ctx, Caller{SessionID: "another", Fingerprint: "fp-api", ClientSession: true}, spread(day, 60))
	require.NoError(t, err)
	assert.Equal(t, "anon:fp-api", s.Identity)
	assert.Equal(t, int64(5), s.Usage.DailyUsed)

	d, err = f.gate.Authorize(ctx, Caller{SessionID: "only", ClientSession: true}, spread(day, 60))
	require.NoError(t, err)
	assert.Equal(t, "anon:only", d.Identity, "session is the last resort")
}

func TestInvalidFormat(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()

	d, err := f.gate.Authorize(ctx, Caller{LicenseKey: "BADKEY", SessionID: "s"}, time.Now())
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInvalidLicense, d.Reason)

	p, err := f.ledger.Get(ctx, "BADKEY")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLifetimeKey(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	key := "PROPOSAL-2024-LIFE-WF5SFN"

	d, err := f.gate.Authorize(ctx, Caller{LicenseKey: key, Fingerprint: "fp"}, time.Date(2099, 12, 30, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.IsPremium)
	assert.Equal(t, entitlements.PlanPremium, d.Plan)
	require.NotNil(t, d.License)
	assert.Equal(t, TierLifetime, d.License.Tier)

	d, err = f.gate.Authorize(ctx, Caller{LicenseKey: key, Fingerprint: "fp"}, time.Date(2100, 1, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, d.IsPremium)
	assert.Equal(t, entitlements.PlanFree, d.Plan)
}

func TestYearlyKeyLimitedAtHundred(t *testing.T) {
	tbl := entitlements.DefaultTable()
	reg, err := NewStaticRegistry(DefaultKeys)
	require.NoError(t, err)
	// Daily-volume abuse would fire above 50 uses, so lift it for this test.
	detector := abuse.NewDetector(abuse.Thresholds{MaxFingerprints: 3, MaxDailyUsage: 1000, VelocityWindowDays: 2, VelocityMaxTotal: 1000})
	gate := NewGate(reg, usage.NewLedger(usage.NewMemoryStore()), detector,
		ratelimit.NewLimiter(ratelimit.NewMemoryStore(), tbl))

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	caller := Caller{LicenseKey: "PROPOSAL-2024-YEAR-K7M2QX", Fingerprint: "fp"}

	for i := 0; i < 100; i++ {
		d, err := gate.Authorize(ctx, caller, spread(day, i))
		require.NoError(t, err)
		require.True(t, d.Allowed, "call %d", i+1)
		require.True(t, d.IsPremium)
	}

	d, err := gate.Authorize(ctx, caller, spread(day, 100))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.False(t, d.IsPremium)
	assert.Equal(t, ReasonDailyLimit, d.Reason)
}

func TestSharedLicenseIsAbusive(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	key := "PROPOSAL-2024-LIFE-WF5SFN"

	for i := 0; i < 3; i++ {
		d, err := f.gate.Authorize(ctx, Caller{LicenseKey: key, Fingerprint: fmt.Sprintf("fp-%d", i)}, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := f.gate.Authorize(ctx, Caller{LicenseKey: key, Fingerprint: "fp-3"}, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAbuse, d.Reason)
	assert.Equal(t, []abuse.Flag{abuse.FlagSharedLicense}, d.Flags)

	u, err := f.limiter.Snapshot(ctx, key, entitlements.PlanPremium, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.DailyUsed, "abusive calls are not counted against the limiter")
}

func TestDailyVolumeIsAbusive(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	key := "PROPOSAL-2024-LIFE-WF5SFN"

	for i := 0; i < 50; i++ {
		_, err := f.ledger.RecordUse(ctx, key, "fp", now)
		require.NoError(t, err)
	}

	d, err := f.gate.Authorize(ctx, Caller{LicenseKey: key, Fingerprint: "fp"}, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAbuse, d.Reason)
	assert.Contains(t, d.Flags, abuse.FlagDailyVolume)
}

func TestUnregisteredKey(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	caller := Caller{LicenseKey: "PROPOSAL-2024-MONTH-ABC123", Fingerprint: "fp"}

	d, err := newGate(t).gate.Authorize(ctx, caller, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.False(t, d.IsPremium)
	assert.Nil(t, d.License)
	assert.Equal(t, "PROPOSAL-2024-MONTH-ABC123", d.Identity)

	d, err = newGate(t, WithRejectUnregistered(true)).gate.Authorize(ctx, caller, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnregisteredLicense, d.Reason)
}

func TestStatusDoesNotMutate(t *testing.T) {
	f := newGate(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	caller := Caller{LicenseKey: "proposal-2024-year-k7m2qx", Fingerprint: "fp"}

	_, err := f.gate.Authorize(ctx, caller, now)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s, err := f.gate.Status(ctx, caller, now)
		require.NoError(t, err)
		assert.Equal(t, entitlements.PlanPremium, s.Plan)
		assert.True(t, s.FormatValid)
		assert.False(t, s.Expired)
		assert.Equal(t, int64(1), s.Usage.DailyUsed)
		assert.Equal(t, int64(100), s.Usage.DailyLimit)
	}

	p, err := f.ledger.Get(ctx, "PROPOSAL-2024-YEAR-K7M2QX")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.TotalUsage)

	expired, err := f.gate.Status(ctx, caller, time.Date(2026, 11, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, expired.Expired)
	assert.Equal(t, entitlements.PlanFree, expired.Plan)

	anon, err := f.gate.Status(ctx, Caller{SessionID: "s"}, now)
	require.NoError(t, err)
	assert.True(t, anon.Anonymous)
	assert.Equal(t, int64(5), anon.Usage.DailyLimit)

	bad, err := f.gate.Status(ctx, Caller{LicenseKey: "nope"}, now)
	require.NoError(t, err)
	assert.False(t, bad.FormatValid)
}
