package services

import (
	"context"
	"testing"

	"thunderbloop/config"
	"thunderbloop/models"
	"thunderbloop/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewLedgerService(db, config.DefaultLedger), db
}

func signup(t *testing.T, l *LedgerService, id, ref string) *models.UserProfile {
	t.Helper()
	p, err := l.CreateAccount(context.Background(), SignupRequest{UserID: id, Email: id + "@example.com", ReferralToken: ref})
	require.NoError(t, err)
	return p
}

func TestCreateAccount_WithoutReferral(t *testing.T) {
	ledger, _ := newLedger(t)

	p := signup(t, ledger, "alice", "")

	assert.Equal(t, int64(0), p.Points)
	assert.Equal(t, int64(0), p.ReferralCount)
	assert.Nil(t, p.ReferredBy)
	assert.Equal(t, "alice", p.ReferralCode)
	assert.Equal(t, "alice@example.com", p.Email)
}

func TestCreateAccount_WithValidReferral(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()

	signup(t, ledger, "alice", "")
	bob := signup(t, ledger, "bob", "alice")

	require.NotNil(t, bob.ReferredBy)
	assert.Equal(t, "alice", *bob.ReferredBy)
	assert.Equal(t, int64(0), bob.Points)

	alice, err := ledger.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ReferralCount)
	assert.Equal(t, config.DefaultLedger.SignupReferralBonus, alice.Points)

	var events []models.ReferralEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.ReferralSourceSignup, events[0].Source)
	assert.Equal(t, "alice", events[0].OwnerID)
	require.NotNil(t, events[0].ReferredID)
	assert.Equal(t, "bob", *events[0].ReferredID)

	history, err := ledger.PointHistory(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PointSourceReferral, history[0].Source)
	assert.Equal(t, config.DefaultLedger.SignupReferralBonus, history[0].Delta)
}

func TestCreateAccount_UnknownReferralIsIgnored(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()

	signup(t, ledger, "alice", "")
	carol := signup(t, ledger, "carol", "nobody")

	assert.Nil(t, carol.ReferredBy)
	assert.Equal(t, int64(0), carol.Points)

	alice, err := ledger.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.Points)
	assert.Equal(t, int64(0), alice.ReferralCount)

	var events int64
	require.NoError(t, db.Model(&models.ReferralEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestCreateAccount_SelfReferralIsIgnored(t *testing.T) {
	ledger, _ := newLedger(t)

	p := signup(t, ledger, "dave", "dave")

	assert.Nil(t, p.ReferredBy)
	assert.Equal(t, int64(0), p.ReferralCount)
	assert.Equal(t, int64(0), p.Points)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	ledger, _ := newLedger(t)
	signup(t, ledger, "alice", "")
	signup(t, ledger, "bob", "")

	_, err := ledger.CreateAccount(context.Background(), SignupRequest{UserID: "alice", ReferralToken: "bob"})
	assert.ErrorIs(t, err, ErrProfileExists)

	bob, err := ledger.GetProfile(context.Background(), "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.ReferralCount, "a rejected signup must not credit the referrer")
}

func TestCreateAccount_MissingID(t *testing.T) {
	ledger, _ := newLedger(t)
	_, err := ledger.CreateAccount(context.Background(), SignupRequest{UserID: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateAccount_ConfiguredBonus(t *testing.T) {
	ledger, _ := newLedger(t)
	ledger.Config.SignupReferralBonus = 45

	signup(t, ledger, "alice", "")
	signup(t, ledger, "bob", "alice")

	alice, err := ledger.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(45), alice.Points)
}

func TestRedeemCode_CreditsEveryVisit(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	signup(t, ledger, "alice", "")

	for i := 0; i < 3; i++ {
		res, err := ledger.RedeemCode(ctx, RedeemRequest{Code: "alice", VisitorID: "browser-1"})
		require.NoError(t, err)
		assert.Equal(t, RedeemCredited, res.Status)
		assert.Equal(t, "alice", res.OwnerID)
	}

	alice, err := ledger.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), alice.ReferralCount)
	assert.Equal(t, 3*config.DefaultLedger.RedemptionBonus, alice.Points)
}

func TestRedeemCode_OncePerVisitor(t *testing.T) {
	ledger, _ := newLedger(t)
	ledger.Config.RedeemOncePerVisitor = true
	ctx := context.Background()
	signup(t, ledger, "alice", "")

	first, err := ledger.RedeemCode(ctx, RedeemRequest{Code: "alice", VisitorID: "browser-1"})
	require.NoError(t, err)
	assert.Equal(t, RedeemCredited, first.Status)

	second, err := ledger.RedeemCode(ctx, RedeemRequest{Code: "alice", VisitorID: "browser-1"})
	require.NoError(t, err)
	assert.Equal(t, RedeemDuplicate, second.Status)

	other, err := ledger.RedeemCode(ctx, RedeemRequest{Code: "alice", VisitorID: "browser-2"})
	require.NoError(t, err)
	assert.Equal(t, RedeemCredited, other.Status)

	alice, err := ledger.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.ReferralCount)
}

func TestRedeemCode_ShareCode(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	signup(t, ledger, "alice", "")
	require.NoError(t, db.Create(&models.Share{ID: "s1", ShareID: "Ab12Cd34", VideoID: "dQw4w9WgXcQ", ReferrerUID: "alice"}).Error)

	res, err := ledger.RedeemCode(ctx, RedeemRequest{Code: "Ab12Cd34"})
	require.NoError(t, err)
	assert.Equal(t, RedeemCredited, res.Status)
	assert.Equal(t, "alice", res.OwnerID)
	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)

	var ev models.ReferralEvent
	require.NoError(t, db.Take(&ev).Error)
	assert.Equal(t, models.ReferralSourceShare, ev.Source)

	var share models.Share
	require.NoError(t, db.Where("id = ?", "s1").Take(&share).Error)
	assert.Zero(t, share.ClickCount, "redemption credits the referrer but does not count a click")
}

func TestRedeemCode_Invalid(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	signup(t, ledger, "alice", "")

	for _, code := range []string{"", "missing"} {
		res, err := ledger.RedeemCode(ctx, RedeemRequest{Code: code})
		require.NoError(t, err)
		assert.Equal(t, RedeemInvalid, res.Status)
	}

	alice, err := ledger.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, alice.Points)
}

func TestAdjustPoints(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	admin := Identity{UserID: "root", Roles: []string{RoleAdmin}}
	signup(t, ledger, "alice", "")

	p, err := ledger.AdjustPoints(ctx, admin, "alice", 25, "bonus")
	require.NoError(t, err)
	assert.Equal(t, int64(25), p.Points)

	p, err = ledger.AdjustPoints(ctx, admin, "alice", -40, "correction")
	require.NoError(t, err)
	assert.Equal(t, int64(-15), p.Points, "balances are not floored at zero")

	history, err := ledger.PointHistory(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, models.PointSourceAdmin, h.Source)
		assert.Equal(t, "root", h.ActorID)
	}

	_, err = ledger.AdjustPoints(ctx, admin, "ghost", 5, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ledger.AdjustPoints(ctx, admin, "alice", 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaderboardAndListUsers(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	admin := Identity{UserID: "root"}

	for id, pts := range map[string]int64{"a": 5, "b": 50, "c": 20, "d": 0} {
		signup(t, ledger, id, "")
		if pts != 0 {
			_, err := ledger.AdjustPoints(ctx, admin, id, pts, "")
			require.NoError(t, err)
		}
	}

	top, err := ledger.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{top[0].ID, top[1].ID, top[2].ID})

	all, err := ledger.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Points, all[i].Points)
	}

	capped, err := ledger.Leaderboard(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, capped, 4)
}

func TestRefreshLeaderboardAndRankOf(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	admin := Identity{UserID: "root"}

	signup(t, ledger, "a", "")
	signup(t, ledger, "b", "")
	signup(t, ledger, "c", "")
	_, err := ledger.AdjustPoints(ctx, admin, "a", 10, "")
	require.NoError(t, err)
	_, err = ledger.AdjustPoints(ctx, admin, "b", 10, "")
	require.NoError(t, err)

	n, err := ledger.RefreshLeaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	a, err := ledger.RankOf(ctx, "a")
	require.NoError(t, err)
	b, err := ledger.RankOf(ctx, "b")
	require.NoError(t, err)
	c, err := ledger.RankOf(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 1, b.Rank)
	assert.Equal(t, 3, c.Rank)

	// a second refresh replaces rather than appends
	n, err = ledger.RefreshLeaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ledger.RankOf(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
