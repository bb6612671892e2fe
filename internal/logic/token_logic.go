package logic

import (
	"context"
	"math/big"
	"sync"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TokenLogic 沙盒代币：部署、授权、查询余额，均作用于内存账本
type TokenLogic struct {
	tokens   *asset.Registry
	deployer common.Address

	mu    sync.Mutex
	nonce uint64
}

// NewTokenLogic 创建沙盒代币逻辑，deployer 用于推导代币地址
func NewTokenLogic(tokens *asset.Registry, deployer common.Address) *TokenLogic {
	return &TokenLogic{tokens: tokens, deployer: deployer}
}

// DeployInput 部署代币参数
type DeployInput struct {
	Symbol      string `json:"symbol" binding:"required"`
	Decimals    uint8  `json:"decimals"`
	Supply      string `json:"supply" binding:"required"`
	TransferTax uint64 `json:"transferTax"` // 转账税，万分比
}

// Deploy 部署代币并将初始供应铸造给调用方
func (t *TokenLogic) Deploy(caller common.Address, in DeployInput) (common.Address, error) {
	if in.Decimals > 36 {
		return common.Address{}, ErrInvalidDecimals
	}
	if in.TransferTax >= 10000 {
		return common.Address{}, ErrInvalidAmount
	}
	supply, err := ParseAmount("supply", in.Supply)
	if err != nil {
		return common.Address{}, err
	}

	t.mu.Lock()
	addr := crypto.CreateAddress(t.deployer, t.nonce)
	t.nonce++
	t.mu.Unlock()

	ledger := asset.NewLedger(addr, in.Symbol, in.Decimals)
	if in.TransferTax > 0 {
		ledger.WithTransferTax(in.TransferTax)
	}
	if err := ledger.Mint(caller, supply); err != nil {
		return common.Address{}, err
	}
	t.tokens.Register(ledger)
	logger.Info("Sandbox token %s deployed at %s, supply %s to %s", in.Symbol, addr.Hex(), supply, caller.Hex())
	return addr, nil
}

// Approve 授权
func (t *TokenLogic) Approve(ctx context.Context, caller common.Address, token, spender, amount string) error {
	tokenAddr, err := ParseAddress("token", token)
	if err != nil {
		return err
	}
	spenderAddr, err := ParseAddress("spender", spender)
	if err != nil {
		return err
	}
	v, err := ParseAmount("amount", amount)
	if err != nil {
		return err
	}
	tk, err := t.tokens.Get(tokenAddr)
	if err != nil {
		return err
	}
	return tk.Approve(ctx, caller, spenderAddr, v)
}

// Balance 查询余额
func (t *TokenLogic) Balance(token, owner string) (asset.Token, *big.Int, error) {
	tokenAddr, err := ParseAddress("token", token)
	if err != nil {
		return nil, nil, err
	}
	ownerAddr, err := ParseAddress("owner", owner)
	if err != nil {
		return nil, nil, err
	}
	tk, err := t.tokens.Get(tokenAddr)
	if err != nil {
		return nil, nil, err
	}
	return tk, tk.BalanceOf(ownerAddr), nil
}

// Mint 为账户铸造代币
func (t *TokenLogic) Mint(token, to, amount string) error {
	tokenAddr, err := ParseAddress("token", token)
	if err != nil {
		return err
	}
	toAddr, err := ParseAddress("to", to)
	if err != nil {
		return err
	}
	v, err := ParseAmount("amount", amount)
	if err != nil {
		return err
	}
	ledger, err := t.tokens.Ledger(tokenAddr)
	if err != nil {
		return err
	}
	return ledger.Mint(toAddr, v)
}
