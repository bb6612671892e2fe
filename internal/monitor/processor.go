package monitor

import (
	"fmt"
	"math/big"
	"time"

	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/model"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignSource 按地址查找募资
type CampaignSource interface {
	CampaignByAddress(addr common.Address) (uint64, *campaign.Campaign, error)
}

// LockSource 锁仓查询
type LockSource interface {
	GetLock(id uint64) (tokenlock.Lock, error)
	UnlockedAmount(id uint64) (*big.Int, error)
	AmountToUnlock(id uint64) (*big.Int, error)
}

// Projector 将引擎状态投影到读模型
type Projector struct {
	campaigns CampaignSource
	locks     LockSource
}

// NewProjector 创建投影器
func NewProjector(campaigns CampaignSource, locks LockSource) *Projector {
	return &Projector{campaigns: campaigns, locks: locks}
}

// Process 处理一条已解码事件
func (p *Projector) Process(tx *gorm.DB, seq uint64, d *event.Decoded) error {
	switch d.Name {
	case "TokenLocked", "TokenUnlocked", "OwnerChanged":
		id, ok := d.Fields["lockId"].(*big.Int)
		if !ok {
			return fmt.Errorf("%s without lockId", d.Name)
		}
		return p.SyncLock(tx, id.Uint64())
	}

	addr := d.Address
	if v, ok := d.Fields["campaign"].(common.Address); ok {
		addr = v
	}
	id, c, err := p.campaigns.CampaignByAddress(addr)
	if err != nil {
		return fmt.Errorf("resolve campaign %s: %w", addr.Hex(), err)
	}
	state := c.Snapshot()
	if err := p.SyncCampaign(tx, id, state); err != nil {
		return err
	}

	switch d.Name {
	case "TokensBought":
		return tx.Create(&model.ContributeRecordModel{
			CampaignId:      int64(id),
			CampaignAddress: addr.Hex(),
			Address:         fieldAddress(d, "buyer").Hex(),
			Amount:          fieldAmount(d),
			Seq:             seq,
		}).Error
	case "FundsWithdrawn":
		return tx.Create(&model.RefundRecordModel{
			CampaignId: int64(id),
			Address:    fieldAddress(d, "participant").Hex(),
			Amount:     fieldAmount(d),
			Seq:        seq,
		}).Error
	case "CampaignLocked", "CampaignRefunded":
		return p.syncSettlement(tx, id, state)
	}
	return nil
}

func fieldAddress(d *event.Decoded, name string) common.Address {
	v, _ := d.Fields[name].(common.Address)
	return v
}

func fieldAmount(d *event.Decoded) string {
	if v, ok := d.Fields["amount"].(*big.Int); ok {
		return v.String()
	}
	return "0"
}

func str(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// SyncCampaign 写入募资快照
func (p *Projector) SyncCampaign(tx *gorm.DB, id uint64, s campaign.State) error {
	row := model.CampaignModel{
		CampaignId:       int64(id),
		Address:          s.Address.Hex(),
		Owner:            s.Owner.Hex(),
		Token:            s.Token.Hex(),
		Base:             s.Base.Hex(),
		Router:           s.RouterAddress.Hex(),
		SoftCap:          str(s.Params.SoftCap),
		HardCap:          str(s.Params.HardCap),
		Rate:             str(s.Params.Rate),
		PoolRate:         str(s.Params.PoolRate),
		MinAllowed:       str(s.Params.MinAllowed),
		MaxAllowed:       str(s.Params.MaxAllowed),
		LiquidityRate:    int64(s.Params.LiquidityRate),
		LockDuration:     s.Params.LockDuration,
		StartDate:        s.Params.StartDate,
		EndDate:          s.Params.EndDate,
		WhitelistEnabled: s.WhitelistEnabled,
		Collected:        str(s.Collected),
		Participants:     int64(s.Participants),
		Status:           model.CampaignStatus(s.Status),
		Locked:           s.Locked,
		UnlockDate:       s.UnlockDate,
		LPAddress:        s.LPAddress.Hex(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (p *Projector) syncSettlement(tx *gorm.DB, id uint64, s campaign.State) error {
	if s.Settlement == nil {
		logger.Warn("Campaign %d has no settlement to project", id)
		return nil
	}
	now := time.Now()
	row := model.SettlementRecordModel{
		CampaignId:      int64(id),
		Collected:       str(s.Settlement.Collected),
		SaleTokens:      str(s.Settlement.SaleTokens),
		LiquidityBase:   str(s.Settlement.LiquidityBase),
		LiquidityTokens: str(s.Settlement.LiquidityTokens),
		BaseFee:         str(s.Settlement.BaseFee),
		TokenFee:        str(s.Settlement.TokenFee),
		Proceeds:        str(s.Settlement.Proceeds),
		LPAmount:        str(s.Settlement.LPAmount),
		LPAddress:       s.LPAddress.Hex(),
		SettlementType:  model.SettlementTypeLiquidity,
		SettlementTime:  &now,
	}
	if s.Settlement.Refunded {
		row.SettlementType = model.SettlementTypeRefund
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

// SyncLock 写入锁仓及其当前可提取数量
func (p *Projector) SyncLock(tx *gorm.DB, id uint64) error {
	l, err := p.locks.GetLock(id)
	if err != nil {
		return err
	}
	unlocked, err := p.locks.UnlockedAmount(id)
	if err != nil {
		return err
	}
	available, err := p.locks.AmountToUnlock(id)
	if err != nil {
		return err
	}
	row := model.TokenLockModel{
		LockId:    int64(id),
		Owner:     l.Owner.Hex(),
		Token:     l.Token.Hex(),
		Amount:    str(l.Amount),
		StartTime: l.StartTime,
		Duration:  l.Duration,
		Releases:  int64(l.Releases),
		Released:  str(l.Released),
		Unlocked:  unlocked.String(),
		Available: available.String(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lock_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}
