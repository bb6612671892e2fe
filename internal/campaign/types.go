package campaign

import (
	"math/big"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/errcode"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/fee"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorized          = errcode.New(errcode.KindAuth, "UNAUTHORIZED")
	ErrCampaignNotLive       = errcode.New(errcode.KindState, "CAMPAIGN_NOT_LIVE")
	ErrNotWhitelisted        = errcode.New(errcode.KindAuth, "NOT_WHITELISTED")
	ErrAmountZero            = errcode.New(errcode.KindValidation, "AMOUNT_ZERO")
	ErrBelowMinAmount        = errcode.New(errcode.KindValidation, "BELOW_MIN_AMOUNT")
	ErrAboveMaxAmount        = errcode.New(errcode.KindValidation, "ABOVE_MAX_AMOUNT")
	ErrInsufficientTokens    = errcode.New(errcode.KindResource, "CONTRACT_INSUFFICIENT_TOKENS")
	ErrCampaignNotStarted    = errcode.New(errcode.KindState, "CAMPAIGN_NOT_STARTED")
	ErrCampaignStillLive     = errcode.New(errcode.KindState, "CAMPAIGN_STILL_LIVE")
	ErrCampaignFailed        = errcode.New(errcode.KindState, "CAMPAIGN_FAILED")
	ErrLiquidityAlreadyAdded = errcode.New(errcode.KindState, "LIQUIDITY_ALREADY_ADDED")
	ErrLiquidityNotLocked    = errcode.New(errcode.KindState, "LIQUIDITY_NOT_LOCKED")
	ErrTokensAreLocked       = errcode.New(errcode.KindState, "TOKENS_ARE_LOCKED")
	ErrLiquidityNotAdded     = errcode.New(errcode.KindState, "LIQUIDITY_NOT_ADDED")
	ErrNoParticipant         = errcode.New(errcode.KindState, "NO_PARTICIPANT")
	ErrCampaignNotFailed     = errcode.New(errcode.KindState, "CAMPAIGN_NOT_FAILED")
	ErrUnknownLPToken        = errcode.New(errcode.KindNotFound, "LP_TOKEN_DOES_NOT_EXIST")
	ErrInsufficientFunds     = errcode.New(errcode.KindResource, "CONTRACT_INSUFFICIENT_FUNDS")
	ErrReentrantCall         = errcode.New(errcode.KindState, "REENTRANT_CALL")
)

// Status 募资状态，按当前时间惰性计算
type Status string

const (
	StatusPending   Status = "pending"   // 未开始
	StatusLive      Status = "live"      // 进行中
	StatusFinalized Status = "finalized" // 达到硬顶或结束时达到软顶
	StatusFailed    Status = "failed"    // 结束时未达软顶
	StatusLocked    Status = "locked"    // 流动性已锁定
	StatusUnlocked  Status = "unlocked"  // 流动性已解锁
	StatusRefunding Status = "refunding" // 退款中
)

// Params 创建募资时确定、之后不可变的参数
type Params struct {
	SoftCap          *big.Int `json:"softCap"`
	HardCap          *big.Int `json:"hardCap"`
	StartDate        int64    `json:"startDate"`
	EndDate          int64    `json:"endDate"`
	Rate             *big.Int `json:"rate"`       // 每单位基础货币兑换的代币（代币最小单位）
	MinAllowed       *big.Int `json:"minAllowed"` // 单地址累计最小认购
	MaxAllowed       *big.Int `json:"maxAllowed"` // 单地址累计最大认购
	PoolRate         *big.Int `json:"poolRate"`   // 每单位基础货币注入流动性的代币
	LockDuration     int64    `json:"lockDuration"`
	LiquidityRate    uint64   `json:"liquidityRate"` // 万分比
	WhitelistEnabled bool     `json:"whitelistEnabled"`
}

// Clone 深拷贝
func (p Params) Clone() Params {
	out := p
	out.SoftCap = cloneInt(p.SoftCap)
	out.HardCap = cloneInt(p.HardCap)
	out.Rate = cloneInt(p.Rate)
	out.MinAllowed = cloneInt(p.MinAllowed)
	out.MaxAllowed = cloneInt(p.MaxAllowed)
	out.PoolRate = cloneInt(p.PoolRate)
	return out
}

// Settlement 锁定流动性时的资金划分
type Settlement struct {
	Collected       *big.Int `json:"collected"`
	SaleTokens      *big.Int `json:"saleTokens"`
	LiquidityBase   *big.Int `json:"liquidityBase"`
	LiquidityTokens *big.Int `json:"liquidityTokens"`
	BaseFee         *big.Int `json:"baseFee"`
	TokenFee        *big.Int `json:"tokenFee"`
	Proceeds        *big.Int `json:"proceeds"` // 支付给发起人的基础货币
	LPAmount        *big.Int `json:"lpAmount"`
	Refunded        bool     `json:"refunded"`
}

func (s *Settlement) clone() *Settlement {
	if s == nil {
		return nil
	}
	return &Settlement{
		Collected:       cloneInt(s.Collected),
		SaleTokens:      cloneInt(s.SaleTokens),
		LiquidityBase:   cloneInt(s.LiquidityBase),
		LiquidityTokens: cloneInt(s.LiquidityTokens),
		BaseFee:         cloneInt(s.BaseFee),
		TokenFee:        cloneInt(s.TokenFee),
		Proceeds:        cloneInt(s.Proceeds),
		LPAmount:        cloneInt(s.LPAmount),
		Refunded:        s.Refunded,
	}
}

// Splitter 根据募集金额计算资金划分，由工厂提供
type Splitter func(p Params, collected *big.Int) Settlement

// TokenResolver 按地址查找代币
type TokenResolver interface {
	Get(addr common.Address) (asset.Token, error)
}

// Config 工厂注入的运行配置
type Config struct {
	Address           common.Address
	Owner             common.Address
	Launchpad         common.Address // 唯一可调用 Lock/Unlock 的工厂地址
	DEXFactory        common.Address
	Token             asset.Token
	Base              asset.Token
	Router            dex.Router
	FeeAggregator     func() fee.Aggregator // 锁定时读取当前手续费归集地址
	Split             Splitter
	Tokens            TokenResolver
	LiquidityDeadline int64
	Publisher         event.Publisher
	Now               func() time.Time
}

// State 募资快照
type State struct {
	Address          common.Address `json:"address"`
	Owner            common.Address `json:"owner"`
	Token            common.Address `json:"token"`
	Base             common.Address `json:"base"`
	FactoryAddress   common.Address `json:"factoryAddress"`
	RouterAddress    common.Address `json:"routerAddress"`
	Params           Params         `json:"params"`
	CreatedAt        int64          `json:"createdAt"`
	Collected        *big.Int       `json:"collected"`
	Participants     int            `json:"participants"`
	Finalized        bool           `json:"finalized"`
	Locked           bool           `json:"locked"`
	UnlockDate       int64          `json:"unlockDate"`
	LPAddress        common.Address `json:"lpAddress"`
	WhitelistEnabled bool           `json:"whitelistEnabled"`
	OwedTokens       *big.Int       `json:"owedTokens"`
	Status           Status         `json:"status"`
	Settlement       *Settlement    `json:"settlement,omitempty"`
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
