package logic

import (
	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/common"
)

// SettingsLogic 工厂手续费设置
type SettingsLogic struct {
	factory *factory.Factory
	locks   *tokenlock.Factory
}

// NewSettingsLogic 创建设置逻辑
func NewSettingsLogic(f *factory.Factory, locks *tokenlock.Factory) *SettingsLogic {
	return &SettingsLogic{factory: f, locks: locks}
}

// Settings 当前设置
type Settings struct {
	Factory       string `json:"factory"`
	LockFactory   string `json:"lock_factory"`
	Admin         string `json:"admin"`
	StableCoin    string `json:"stable_coin"`
	BaseDecimals  uint8  `json:"base_decimals"`
	FeeAggregator string `json:"fee_aggregator"`
	Router        string `json:"router"`
	TokenFee      uint64 `json:"token_fee"`
	BaseFee       uint64 `json:"base_fee"`
	LockFee       string `json:"lock_fee"`
	CampaignCount int    `json:"campaign_count"`
	LockCount     int    `json:"lock_count"`
}

// GetSettings 获取当前设置
func (s *SettingsLogic) GetSettings() Settings {
	base := s.factory.StableCoin()
	return Settings{
		Factory:       s.factory.Address().Hex(),
		LockFactory:   s.locks.Address().Hex(),
		Admin:         s.factory.Admin().Hex(),
		StableCoin:    base.Address().Hex(),
		BaseDecimals:  base.Decimals(),
		FeeAggregator: s.factory.FeeAggregator().Address().Hex(),
		Router:        s.factory.DefaultRouter().Address().Hex(),
		TokenFee:      s.factory.TokenFee(),
		BaseFee:       s.factory.BaseFee(),
		LockFee:       s.locks.StableCoinFee().String(),
		CampaignCount: s.factory.CampaignCount(),
		LockCount:     s.locks.LockCount(),
	}
}

// SetTokenFee 设置代币手续费
func (s *SettingsLogic) SetTokenFee(caller common.Address, points uint64) error {
	return s.factory.SetTokenFee(caller, points)
}

// SetBaseFee 设置基础货币手续费
func (s *SettingsLogic) SetBaseFee(caller common.Address, points uint64) error {
	return s.factory.SetBaseFee(caller, points)
}

// SetLockFee 设置锁仓手续费
func (s *SettingsLogic) SetLockFee(caller common.Address, amount string) error {
	v, err := ParseAmount("amount", amount)
	if err != nil {
		return err
	}
	return s.locks.SetStableCoinFee(caller, v)
}
