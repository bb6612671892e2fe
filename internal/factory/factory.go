package factory

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/errcode"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrSoftcapHigherThenHardcap        = errcode.New(errcode.KindValidation, "SOFTCAP_HIGHER_THEN_HARDCAP")
	ErrStartdateHigherThenEnddate      = errcode.New(errcode.KindValidation, "STARTDATE_HIGHER_THEN_ENDDATE")
	ErrEnddateHigherThenCurrentdate    = errcode.New(errcode.KindValidation, "ENDDATE_HIGHER_THEN_CURRENTDATE")
	ErrMinimumAllowedHigherThenHardcap = errcode.New(errcode.KindValidation, "MINIMUM_ALLOWED_HIGHER_THEN_HARDCAP")
	ErrRateIsZero                      = errcode.New(errcode.KindValidation, "RATE_IS_ZERO")
	ErrLiquidityRate0To10000           = errcode.New(errcode.KindValidation, "LIQUIDITY_RATE_0_10000")
	ErrTransferFee0To10000             = errcode.New(errcode.KindValidation, "TRANSFER_FEE_0_10000")
	ErrFee0To10000                     = errcode.New(errcode.KindValidation, "FEE_0_10000")
	ErrInvalidParams                   = errcode.New(errcode.KindValidation, "INVALID_PARAMS")
	ErrCampaignDoesNotExist            = errcode.New(errcode.KindNotFound, "CAMPAIGN_DOES_NOT_EXIST")
	ErrUnauthorized                    = errcode.New(errcode.KindAuth, "UNAUTHORIZED")
)

// Settings 工厂初始化配置
type Settings struct {
	Address           common.Address
	Admin             common.Address
	StableCoin        asset.Token
	FeeAggregator     fee.Aggregator
	Router            dex.Router
	Tokens            campaign.TokenResolver
	TokenFeeBP        uint64
	BaseFeeBP         uint64
	LiquidityDeadline int64
	Publisher         event.Publisher
	Now               func() time.Time
}

// CreateRequest 创建募资请求
type CreateRequest struct {
	Params                campaign.Params
	Token                 asset.Token
	TransferFeePercentage uint64     // 代币转账税，万分比
	Router                dex.Router // 为空时使用默认路由
}

// Factory 募资工厂：参数校验、托管计算、募资注册与锁定编排
type Factory struct {
	mu sync.RWMutex

	address    common.Address
	admin      common.Address
	stableCoin asset.Token
	aggregator fee.Aggregator
	router     dex.Router
	tokens     campaign.TokenResolver
	tokenFee   uint64
	baseFee    uint64
	deadline   int64
	ctor       campaign.Constructor

	campaigns []*campaign.Campaign
	ids       map[common.Address]uint64
	byUser    map[common.Address][]uint64

	publisher event.Publisher
	now       func() time.Time
}

// New 创建工厂
func New(s Settings) (*Factory, error) {
	if s.TokenFeeBP > bpDenominator || s.BaseFeeBP > bpDenominator {
		return nil, ErrFee0To10000
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Publisher == nil {
		s.Publisher = event.Nop{}
	}
	return &Factory{
		address:    s.Address,
		admin:      s.Admin,
		stableCoin: s.StableCoin,
		aggregator: s.FeeAggregator,
		router:     s.Router,
		tokens:     s.Tokens,
		tokenFee:   s.TokenFeeBP,
		baseFee:    s.BaseFeeBP,
		deadline:   s.LiquidityDeadline,
		ctor:       campaign.New,
		ids:        make(map[common.Address]uint64),
		byUser:     make(map[common.Address][]uint64),
		publisher:  s.Publisher,
		now:        s.Now,
	}, nil
}

// Address 工厂地址
func (f *Factory) Address() common.Address { return f.address }

func (f *Factory) unit() *big.Int {
	return asset.Pow10(f.stableCoin.Decimals())
}

// TokensNeeded 按当前代币手续费计算托管数量
func (f *Factory) TokensNeeded(p campaign.Params, transferFeeBP uint64) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return TokensNeeded(p, f.unit(), f.tokenFee, transferFeeBP)
}

// CreateCampaign 校验参数，从创建者拉取托管代币并注册新募资
func (f *Factory) CreateCampaign(ctx context.Context, creator common.Address, req CreateRequest) (uint64, *campaign.Campaign, error) {
	id, c, err := f.createCampaign(ctx, creator, req)
	if err != nil {
		logger.Debug("Create campaign by %s rejected: %v", creator.Hex(), err)
		return 0, nil, err
	}
	f.publisher.Publish(ctx, event.CampaignAdded{
		Factory:  f.address,
		Campaign: c.Address(),
		Token:    req.Token.Address(),
		Creator:  creator,
	})
	return id, c, nil
}

func (f *Factory) createCampaign(ctx context.Context, creator common.Address, req CreateRequest) (uint64, *campaign.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Token == nil {
		return 0, nil, asset.ErrUnknownToken
	}
	if err := Validate(req.Params, f.now().Unix()); err != nil {
		return 0, nil, err
	}
	unit := f.unit()
	needed, err := TokensNeeded(req.Params, unit, f.tokenFee, req.TransferFeePercentage)
	if err != nil {
		return 0, nil, err
	}

	router := req.Router
	if router == nil {
		router = f.router
	}
	tokenFee, baseFee := f.tokenFee, f.baseFee
	id := uint64(len(f.campaigns))
	addr := crypto.CreateAddress(f.address, id)
	c := f.ctor(campaign.Config{
		Address:       addr,
		Owner:         creator,
		Launchpad:     f.address,
		DEXFactory:    router.Address(),
		Token:         req.Token,
		Base:          f.stableCoin,
		Router:        router,
		FeeAggregator: f.FeeAggregator,
		Split: func(p campaign.Params, collected *big.Int) campaign.Settlement {
			return Split(p, collected, unit, tokenFee, baseFee)
		},
		Tokens:            f.tokens,
		LiquidityDeadline: f.deadline,
		Publisher:         f.publisher,
		Now:               f.now,
	}, req.Params)

	if err := req.Token.TransferFrom(ctx, f.address, creator, addr, needed); err != nil {
		return 0, nil, err
	}

	f.campaigns = append(f.campaigns, c)
	f.ids[addr] = id
	f.byUser[creator] = append(f.byUser[creator], id)
	logger.Info("Campaign %d created at %s by %s, escrow %s", id, addr.Hex(), creator.Hex(), needed)
	return id, c, nil
}

// Campaign 按编号查找募资
func (f *Factory) Campaign(id uint64) (*campaign.Campaign, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id >= uint64(len(f.campaigns)) {
		return nil, ErrCampaignDoesNotExist
	}
	return f.campaigns[id], nil
}

// CampaignByAddress 按地址查找募资及其编号
func (f *Factory) CampaignByAddress(addr common.Address) (uint64, *campaign.Campaign, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.ids[addr]
	if !ok {
		return 0, nil, ErrCampaignDoesNotExist
	}
	return id, f.campaigns[id], nil
}

// Campaigns 全部募资，下标即编号
func (f *Factory) Campaigns() []*campaign.Campaign {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*campaign.Campaign, len(f.campaigns))
	copy(out, f.campaigns)
	return out
}

// CampaignCount 募资数量
func (f *Factory) CampaignCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.campaigns)
}

// GetUserCampaigns 用户创建的募资编号
func (f *Factory) GetUserCampaigns(user common.Address) []uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := f.byUser[user]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

func (f *Factory) ownedCampaign(caller common.Address, id uint64) (*campaign.Campaign, error) {
	c, err := f.Campaign(id)
	if err != nil {
		return nil, err
	}
	if caller != c.Owner() {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Lock 募资结束后由发起人通过工厂添加流动性并锁定
func (f *Factory) Lock(ctx context.Context, caller common.Address, id uint64) (*campaign.Settlement, error) {
	c, err := f.ownedCampaign(caller, id)
	if err != nil {
		return nil, err
	}
	s, err := c.Lock(ctx, f.address)
	if err != nil {
		logger.Debug("Lock campaign %d rejected: %v", id, err)
		return nil, err
	}
	if !s.Refunded {
		f.publisher.Publish(ctx, event.CampaignLocked{
			Factory:      f.address,
			Campaign:     c.Address(),
			Token:        c.Token().Address(),
			AmountLocked: new(big.Int).Set(s.LPAmount),
		})
	}
	return s, nil
}

// Unlock 锁定期满后由发起人解锁 LP
func (f *Factory) Unlock(ctx context.Context, caller common.Address, id uint64) error {
	c, err := f.ownedCampaign(caller, id)
	if err != nil {
		return err
	}
	if err := c.Unlock(ctx, f.address); err != nil {
		logger.Debug("Unlock campaign %d rejected: %v", id, err)
		return err
	}
	f.publisher.Publish(ctx, event.CampaignUnlocked{
		Factory:  f.address,
		Campaign: c.Address(),
		Token:    c.Token().Address(),
	})
	return nil
}
