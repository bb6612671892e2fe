package factory

import (
	"math/big"

	"github.com/blues/launchpad/internal/campaign"
)

const bpDenominator = 10000

var bpBase = big.NewInt(bpDenominator)

// bp 按万分比取值，向下取整
func bp(amount *big.Int, points uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(points))
	return out.Quo(out, bpBase)
}

// scale amount*rate/unit，unit 为基础货币的 10^decimals
func scale(amount, rate, unit *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, rate)
	return out.Quo(out, unit)
}

// TokensNeeded 计算发起人需要托管的代币数量：硬顶出售量 + 流动性储备 + 代币手续费，
// 若代币转账收税则按税率向上取整补足。
func TokensNeeded(p campaign.Params, unit *big.Int, tokenFeeBP, transferFeeBP uint64) (*big.Int, error) {
	if transferFeeBP >= bpDenominator {
		return nil, ErrTransferFee0To10000
	}
	sale := scale(p.HardCap, p.Rate, unit)
	liquidity := scale(bp(p.HardCap, p.LiquidityRate), p.PoolRate, unit)
	base := new(big.Int).Add(sale, liquidity)
	total := new(big.Int).Add(base, bp(base, tokenFeeBP))
	if transferFeeBP == 0 {
		return total, nil
	}

	// ceil(total * 10000 / (10000 - fee))
	num := new(big.Int).Mul(total, bpBase)
	den := new(big.Int).SetUint64(bpDenominator - transferFeeBP)
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// Split 锁定时按募集金额 collected 计算资金划分
func Split(p campaign.Params, collected, unit *big.Int, tokenFeeBP, baseFeeBP uint64) campaign.Settlement {
	sale := scale(collected, p.Rate, unit)
	baseFee := bp(collected, baseFeeBP)
	liqBase := bp(collected, p.LiquidityRate)
	// 基础货币手续费优先，流动性份额不超过扣除手续费后的余额
	if room := new(big.Int).Sub(collected, baseFee); liqBase.Cmp(room) > 0 {
		liqBase = room
	}
	liqTokens := scale(liqBase, p.PoolRate, unit)
	tokenFee := bp(new(big.Int).Add(sale, liqTokens), tokenFeeBP)

	proceeds := new(big.Int).Sub(collected, liqBase)
	proceeds.Sub(proceeds, baseFee)
	return campaign.Settlement{
		Collected:       new(big.Int).Set(collected),
		SaleTokens:      sale,
		LiquidityBase:   liqBase,
		LiquidityTokens: liqTokens,
		BaseFee:         baseFee,
		TokenFee:        tokenFee,
		Proceeds:        proceeds,
	}
}

// Validate 校验创建参数，按固定顺序返回第一个违反的规则
func Validate(p campaign.Params, now int64) error {
	for _, v := range []*big.Int{p.SoftCap, p.HardCap, p.Rate, p.MinAllowed, p.MaxAllowed, p.PoolRate} {
		if v == nil || v.Sign() < 0 {
			return ErrInvalidParams
		}
	}
	switch {
	case p.SoftCap.Cmp(p.HardCap) >= 0:
		return ErrSoftcapHigherThenHardcap
	case p.StartDate >= p.EndDate:
		return ErrStartdateHigherThenEnddate
	case p.EndDate <= now:
		return ErrEnddateHigherThenCurrentdate
	case p.MinAllowed.Cmp(p.HardCap) > 0:
		return ErrMinimumAllowedHigherThenHardcap
	case p.Rate.Sign() == 0:
		return ErrRateIsZero
	case p.LiquidityRate > bpDenominator:
		return ErrLiquidityRate0To10000
	}
	return nil
}
