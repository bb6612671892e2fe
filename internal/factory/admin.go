package factory

import (
	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

func (f *Factory) adminOnly(caller common.Address) error {
	if caller != f.admin {
		return ErrUnauthorized
	}
	return nil
}

// Admin 管理员地址
func (f *Factory) Admin() common.Address { return f.admin }

// SetFeeAggregator 设置手续费归集地址，之后的每次锁定都使用新地址
func (f *Factory) SetFeeAggregator(caller common.Address, agg fee.Aggregator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.aggregator = agg
	logger.Info("Fee aggregator set to %s", agg.Address().Hex())
	return nil
}

// SetStableCoin 仅影响之后创建的募资
func (f *Factory) SetStableCoin(caller common.Address, token asset.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.stableCoin = token
	logger.Info("Stable coin set to %s", token.Address().Hex())
	return nil
}

// SetTokenFee 设置代币手续费（万分比），已创建的募资保持创建时的费率
func (f *Factory) SetTokenFee(caller common.Address, points uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	if points > bpDenominator {
		return ErrFee0To10000
	}
	f.tokenFee = points
	return nil
}

// SetBaseFee 设置基础货币手续费（万分比）
func (f *Factory) SetBaseFee(caller common.Address, points uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	if points > bpDenominator {
		return ErrFee0To10000
	}
	f.baseFee = points
	return nil
}

// SetDefaultRouter 设置默认路由
func (f *Factory) SetDefaultRouter(caller common.Address, router dex.Router) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.router = router
	return nil
}

// SetCampaignImplementation 替换募资实现，已创建的募资不受影响
func (f *Factory) SetCampaignImplementation(caller common.Address, ctor campaign.Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.ctor = ctor
	return nil
}

// DefaultRouter 默认路由
func (f *Factory) DefaultRouter() dex.Router {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.router
}

// FeeAggregator 当前手续费归集地址
func (f *Factory) FeeAggregator() fee.Aggregator {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.aggregator
}

// StableCoin 基础货币
func (f *Factory) StableCoin() asset.Token {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stableCoin
}

// TokenFee 代币手续费
func (f *Factory) TokenFee() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tokenFee
}

// BaseFee 基础货币手续费
func (f *Factory) BaseFee() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.baseFee
}
