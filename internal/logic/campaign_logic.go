package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// CampaignLogic 募资业务逻辑：写操作交给引擎，读操作查询读模型
type CampaignLogic struct {
	db      *gorm.DB
	factory *factory.Factory
	tokens  *asset.Registry
	writes  sync.Map // 募资编号 -> *sync.Mutex
}

// NewCampaignLogic 创建募资业务逻辑
func NewCampaignLogic(db *gorm.DB, f *factory.Factory, tokens *asset.Registry) *CampaignLogic {
	return &CampaignLogic{db: db, factory: f, tokens: tokens}
}

// CampaignInput 创建募资参数，金额均为最小单位
type CampaignInput struct {
	Token                 string `json:"token" binding:"required"`
	SoftCap               string `json:"softCap" binding:"required"`
	HardCap               string `json:"hardCap" binding:"required"`
	StartDate             int64  `json:"startDate" binding:"required"`
	EndDate               int64  `json:"endDate" binding:"required"`
	Rate                  string `json:"rate" binding:"required"`
	MinAllowed            string `json:"minAllowed" binding:"required"`
	MaxAllowed            string `json:"maxAllowed" binding:"required"`
	PoolRate              string `json:"poolRate" binding:"required"`
	LockDuration          int64  `json:"lockDuration"`
	LiquidityRate         uint64 `json:"liquidityRate"`
	WhitelistEnabled      bool   `json:"whitelistEnabled"`
	TransferFeePercentage uint64 `json:"transferFeePercentage"`
}

func (in CampaignInput) params() (campaign.Params, error) {
	p := campaign.Params{
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		LockDuration:     in.LockDuration,
		LiquidityRate:    in.LiquidityRate,
		WhitelistEnabled: in.WhitelistEnabled,
	}
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"softCap", in.SoftCap, &p.SoftCap},
		{"hardCap", in.HardCap, &p.HardCap},
		{"rate", in.Rate, &p.Rate},
		{"minAllowed", in.MinAllowed, &p.MinAllowed},
		{"maxAllowed", in.MaxAllowed, &p.MaxAllowed},
		{"poolRate", in.PoolRate, &p.PoolRate},
	}
	for _, f := range fields {
		v, err := ParseAmount(f.name, f.raw)
		if err != nil {
			return campaign.Params{}, err
		}
		*f.dst = v
	}
	return p, nil
}

// TokensNeeded 计算创建募资需要托管的代币数量
func (l *CampaignLogic) TokensNeeded(in CampaignInput) (*big.Int, error) {
	p, err := in.params()
	if err != nil {
		return nil, err
	}
	return l.factory.TokensNeeded(p, in.TransferFeePercentage)
}

// CreateCampaign 创建募资
func (l *CampaignLogic) CreateCampaign(ctx context.Context, caller common.Address, in CampaignInput) (uint64, common.Address, error) {
	p, err := in.params()
	if err != nil {
		return 0, common.Address{}, err
	}
	tokenAddr, err := ParseAddress("token", in.Token)
	if err != nil {
		return 0, common.Address{}, err
	}
	token, err := l.tokens.Get(tokenAddr)
	if err != nil {
		return 0, common.Address{}, err
	}
	id, c, err := l.factory.CreateCampaign(ctx, caller, factory.CreateRequest{
		Params:                p,
		Token:                 token,
		TransferFeePercentage: in.TransferFeePercentage,
	})
	if err != nil {
		return 0, common.Address{}, err
	}
	return id, c.Address(), nil
}

// serialize 同一募资的资金操作排队执行，引擎对并发进入直接返回 REENTRANT_CALL
func (l *CampaignLogic) serialize(id uint64) func() {
	v, _ := l.writes.LoadOrStore(id, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Buy 认购
func (l *CampaignLogic) Buy(ctx context.Context, caller common.Address, id uint64, amount string) error {
	v, err := ParseAmount("amount", amount)
	if err != nil {
		return err
	}
	c, err := l.factory.Campaign(id)
	if err != nil {
		return err
	}
	defer l.serialize(id)()
	return c.BuyTokens(ctx, caller, v)
}

// Lock 添加流动性并锁定
func (l *CampaignLogic) Lock(ctx context.Context, caller common.Address, id uint64) (*campaign.Settlement, error) {
	defer l.serialize(id)()
	return l.factory.Lock(ctx, caller, id)
}

// Unlock 解锁流动性
func (l *CampaignLogic) Unlock(ctx context.Context, caller common.Address, id uint64) error {
	defer l.serialize(id)()
	return l.factory.Unlock(ctx, caller, id)
}

// WithdrawTokens 领取代币
func (l *CampaignLogic) WithdrawTokens(ctx context.Context, caller common.Address, id uint64) (*big.Int, error) {
	c, err := l.factory.Campaign(id)
	if err != nil {
		return nil, err
	}
	defer l.serialize(id)()
	return c.WithdrawTokens(ctx, caller)
}

// WithdrawFunds 取回资金
func (l *CampaignLogic) WithdrawFunds(ctx context.Context, caller common.Address, id uint64) (*big.Int, error) {
	c, err := l.factory.Campaign(id)
	if err != nil {
		return nil, err
	}
	defer l.serialize(id)()
	return c.WithdrawFunds(ctx, caller)
}

// SetWhitelist 批量设置白名单
func (l *CampaignLogic) SetWhitelist(caller common.Address, id uint64, addresses []string, allowed bool) error {
	addrs := make([]common.Address, 0, len(addresses))
	for _, a := range addresses {
		addr, err := ParseAddress("addresses", a)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}
	c, err := l.factory.Campaign(id)
	if err != nil {
		return err
	}
	return c.AddWhitelist(caller, addrs, allowed)
}

// SetWhitelistEnabled 开关白名单
func (l *CampaignLogic) SetWhitelistEnabled(caller common.Address, id uint64, enabled bool) error {
	c, err := l.factory.Campaign(id)
	if err != nil {
		return err
	}
	return c.SetWhitelistEnabled(caller, enabled)
}

// SetLPAddress 修正 LP 地址
func (l *CampaignLogic) SetLPAddress(caller common.Address, id uint64, lp string) error {
	addr, err := ParseAddress("lpAddress", lp)
	if err != nil {
		return err
	}
	c, err := l.factory.Campaign(id)
	if err != nil {
		return err
	}
	return c.SetLPAddress(caller, addr)
}

// Snapshot 引擎中的实时状态
func (l *CampaignLogic) Snapshot(id uint64) (campaign.State, error) {
	c, err := l.factory.Campaign(id)
	if err != nil {
		return campaign.State{}, err
	}
	return c.Snapshot(), nil
}

// BaseDecimals 基础货币精度
func (l *CampaignLogic) BaseDecimals() uint8 {
	return l.factory.StableCoin().Decimals()
}

// GetCampaigns 分页查询募资列表
func (l *CampaignLogic) GetCampaigns(status, owner string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := l.db.Model(&model.CampaignModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if owner != "" {
		query = query.Where("owner = ?", common.HexToAddress(owner).Hex())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取募资总数失败: %w", err)
	}

	var campaigns []model.CampaignModel
	if err := query.Order("campaign_id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取募资列表失败: %w", err)
	}
	return campaigns, total, nil
}

// GetCampaign 查询单个募资
func (l *CampaignLogic) GetCampaign(id uint64) (*model.CampaignModel, error) {
	var row model.CampaignModel
	if err := l.db.Where("campaign_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, factory.ErrCampaignDoesNotExist
		}
		return nil, fmt.Errorf("获取募资详情失败: %w", err)
	}
	return &row, nil
}

// GetUserCampaigns 按工厂索引返回用户创建的募资
func (l *CampaignLogic) GetUserCampaigns(user common.Address) ([]model.CampaignModel, error) {
	ids := l.factory.GetUserCampaigns(user)
	if len(ids) == 0 {
		return []model.CampaignModel{}, nil
	}
	var rows []model.CampaignModel
	if err := l.db.Where("campaign_id IN ?", ids).Order("campaign_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取用户募资失败: %w", err)
	}
	return rows, nil
}

// GetSettlement 查询结算记录
func (l *CampaignLogic) GetSettlement(id uint64) (*model.SettlementRecordModel, error) {
	var row model.SettlementRecordModel
	if err := l.db.Where("campaign_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}
	return &row, nil
}
