package monitor_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/database"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/model"
	"github.com/blues/launchpad/internal/monitor"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000fac70")
	lockAddr    = common.HexToAddress("0x000000000000000000000000000000000001ec70")
	owner       = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice       = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob         = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

const start = int64(1_700_000_100)

type stack struct {
	ctx   context.Context
	now   time.Time
	db    *gorm.DB
	mon   *monitor.EventMonitor
	base  *asset.Ledger
	token *asset.Ledger
	f     *factory.Factory
	locks *tokenlock.Factory
}

func (s *stack) clock() time.Time { return s.now }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())))
	require.NoError(t, err)
	return db
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{
		ctx:   context.Background(),
		now:   time.Unix(start-100, 0),
		db:    openDB(t),
		base:  asset.NewLedger(common.HexToAddress("0xba5e"), "USDT", 18),
		token: asset.NewLedger(common.HexToAddress("0x70ce"), "TKN", 9),
	}
	mon, err := monitor.NewEventMonitor(s.db, 4)
	require.NoError(t, err)
	t.Cleanup(mon.Stop)
	s.mon = mon

	agg := fee.NewTally(common.HexToAddress("0xa66"))
	s.f, err = factory.New(factory.Settings{
		Address:           factoryAddr,
		Admin:             owner,
		StableCoin:        s.base,
		FeeAggregator:     agg,
		Router:            dex.NewExchange(common.HexToAddress("0xde4"), s.clock),
		TokenFeeBP:        50,
		BaseFeeBP:         100,
		LiquidityDeadline: 300,
		Publisher:         mon,
		Now:               s.clock,
	})
	require.NoError(t, err)
	s.locks = tokenlock.New(tokenlock.Settings{
		Address:       lockAddr,
		Admin:         owner,
		StableCoin:    s.base,
		FeeAggregator: agg,
		Fee:           new(big.Int),
		Publisher:     mon,
		Now:           s.clock,
	})
	mon.Attach(monitor.NewProjector(s.f, s.locks))

	require.NoError(t, s.token.Mint(owner, asset.Units(10_000, 9)))
	for _, a := range []common.Address{alice, bob} {
		require.NoError(t, s.base.Mint(a, asset.Units(50, 18)))
	}
	return s
}

func (s *stack) createCampaign(t *testing.T) (uint64, *campaign.Campaign) {
	t.Helper()
	p := campaign.Params{
		SoftCap:       asset.Units(10, 18),
		HardCap:       asset.Units(20, 18),
		StartDate:     start,
		EndDate:       start + 3600,
		Rate:          asset.Units(100, 9),
		MinAllowed:    big.NewInt(1e17),
		MaxAllowed:    asset.Units(10, 18),
		PoolRate:      asset.Units(60, 9),
		LockDuration:  600,
		LiquidityRate: 7500,
	}
	needed, err := s.f.TokensNeeded(p, 0)
	require.NoError(t, err)
	require.NoError(t, s.token.Approve(s.ctx, owner, factoryAddr, needed))
	id, c, err := s.f.CreateCampaign(s.ctx, owner, factory.CreateRequest{Params: p, Token: s.token})
	require.NoError(t, err)
	return id, c
}

func TestMonitorProjectsCampaignLifecycle(t *testing.T) {
	s := newStack(t)
	id, c := s.createCampaign(t)

	var row model.CampaignModel
	require.NoError(t, s.db.Where("campaign_id = ?", id).First(&row).Error)
	require.Equal(t, c.Address().Hex(), row.Address)
	require.Equal(t, model.CampaignStatusPending, row.Status)
	require.Equal(t, "20000000000000000000", row.HardCap)

	s.now = time.Unix(start, 0)
	require.NoError(t, c.BuyTokens(s.ctx, alice, asset.Units(10, 18)))
	require.NoError(t, c.BuyTokens(s.ctx, bob, asset.Units(5, 18)))

	require.NoError(t, s.db.Where("campaign_id = ?", id).First(&row).Error)
	require.Equal(t, "15000000000000000000", row.Collected)
	require.Equal(t, int64(2), row.Participants)
	require.Equal(t, model.CampaignStatusLive, row.Status)

	var contributions []model.ContributeRecordModel
	require.NoError(t, s.db.Order("seq").Find(&contributions).Error)
	require.Len(t, contributions, 2)
	require.Equal(t, alice.Hex(), contributions[0].Address)
	require.Equal(t, "5000000000000000000", contributions[1].Amount)

	s.now = time.Unix(start+3600, 0)
	_, err := s.f.Lock(s.ctx, owner, id)
	require.NoError(t, err)

	var settlement model.SettlementRecordModel
	require.NoError(t, s.db.Where("campaign_id = ?", id).First(&settlement).Error)
	require.Equal(t, model.SettlementTypeLiquidity, settlement.SettlementType)
	require.Equal(t, "150000000000000000", settlement.BaseFee)
	require.Equal(t, "11250000000000000000", settlement.LiquidityBase)

	require.NoError(t, s.db.Where("campaign_id = ?", id).First(&row).Error)
	require.Equal(t, model.CampaignStatusLocked, row.Status)
	require.True(t, row.Locked)

	var events []model.EventModel
	require.NoError(t, s.db.Order("seq").Find(&events).Error)
	require.Len(t, events, 4)
	for i, e := range events {
		require.Equal(t, uint64(i+1), e.Seq)
		require.True(t, e.Processed)
	}
	require.Equal(t, "CampaignLocked", events[3].EventType)
	require.Equal(t, factoryAddr.Hex(), events[3].ContractAddress)
}

func TestMonitorProjectsRefunds(t *testing.T) {
	s := newStack(t)
	id, c := s.createCampaign(t)
	s.now = time.Unix(start, 0)
	require.NoError(t, c.BuyTokens(s.ctx, alice, asset.Units(3, 18)))

	s.now = time.Unix(start+3600, 0)
	_, err := c.WithdrawFunds(s.ctx, alice)
	require.NoError(t, err)

	var refunds []model.RefundRecordModel
	require.NoError(t, s.db.Find(&refunds).Error)
	require.Len(t, refunds, 1)
	require.Equal(t, int64(id), refunds[0].CampaignId)
	require.Equal(t, "3000000000000000000", refunds[0].Amount)

	var row model.CampaignModel
	require.NoError(t, s.db.Where("campaign_id = ?", id).First(&row).Error)
	require.Equal(t, model.CampaignStatusRefunding, row.Status)
	require.Equal(t, int64(0), row.Participants)
}

func TestMonitorProjectsTokenLocks(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.token.Approve(s.ctx, owner, lockAddr, asset.Units(100, 9)))
	id, err := s.locks.Lock(s.ctx, owner, tokenlock.LockRequest{
		Token:     s.token,
		Amount:    asset.Units(100, 9),
		StartTime: start,
		Duration:  60,
		Releases:  4,
		Payment:   new(big.Int),
	})
	require.NoError(t, err)

	s.now = time.Unix(start+30, 0)
	require.NoError(t, s.locks.Unlock(s.ctx, owner, id, asset.Units(20, 9)))
	require.NoError(t, s.locks.ChangeOwner(s.ctx, owner, id, alice))

	var row model.TokenLockModel
	require.NoError(t, s.db.Where("lock_id = ?", id).First(&row).Error)
	require.Equal(t, alice.Hex(), row.Owner)
	require.Equal(t, "20000000000", row.Released)
	require.Equal(t, "50000000000", row.Unlocked)
	require.Equal(t, "30000000000", row.Available)

	var count int64
	require.NoError(t, s.db.Model(&model.TokenLockModel{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestMonitorDispatchesToSubscribers(t *testing.T) {
	s := newStack(t)

	var mu sync.Mutex
	var names []string
	s.mon.Subscribe(func(d *event.Decoded) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, d.Name)
	})

	_, c := s.createCampaign(t)
	s.now = time.Unix(start, 0)
	require.NoError(t, c.BuyTokens(s.ctx, alice, asset.Units(1, 18)))
	s.mon.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"CampaignAdded", "TokensBought"}, names)
}

func TestMonitorResumesSequence(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&model.EventModel{ContractAddress: "0x0", EventType: "TokensBought", Seq: 41}).Error)

	mon, err := monitor.NewEventMonitor(db, 1)
	require.NoError(t, err)
	defer mon.Stop()

	mon.Publish(context.Background(), event.CampaignRefunded{Campaign: common.HexToAddress("0xca3")})

	var last model.EventModel
	require.NoError(t, db.Order("seq DESC").First(&last).Error)
	require.Equal(t, uint64(42), last.Seq)
	require.False(t, last.Processed)
}
