package logic

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/model"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// LockLogic 锁仓业务逻辑
type LockLogic struct {
	db     *gorm.DB
	locks  *tokenlock.Factory
	tokens *asset.Registry
	writes sync.Mutex // 托管余额变动的操作排队执行
}

// NewLockLogic 创建锁仓业务逻辑
func NewLockLogic(db *gorm.DB, locks *tokenlock.Factory, tokens *asset.Registry) *LockLogic {
	return &LockLogic{db: db, locks: locks, tokens: tokens}
}

// LockInput 创建锁仓参数
type LockInput struct {
	Token     string `json:"token" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	StartTime int64  `json:"startTime"`
	Duration  int64  `json:"duration"`
	Releases  uint64 `json:"releases"`
	Payment   string `json:"payment"`
}

// LockView 锁仓详情及实时可解锁数量
type LockView struct {
	tokenlock.Lock
	Unlocked  *big.Int `json:"unlocked"`
	Available *big.Int `json:"available"`
}

// CreateLock 创建锁仓
func (l *LockLogic) CreateLock(ctx context.Context, caller common.Address, in LockInput) (uint64, error) {
	tokenAddr, err := ParseAddress("token", in.Token)
	if err != nil {
		return 0, err
	}
	amount, err := ParseAmount("amount", in.Amount)
	if err != nil {
		return 0, err
	}
	payment := new(big.Int)
	if in.Payment != "" {
		if payment, err = ParseAmount("payment", in.Payment); err != nil {
			return 0, err
		}
	}
	token, err := l.tokens.Get(tokenAddr)
	if err != nil {
		return 0, err
	}
	l.writes.Lock()
	defer l.writes.Unlock()
	return l.locks.Lock(ctx, caller, tokenlock.LockRequest{
		Token:     token,
		Amount:    amount,
		StartTime: in.StartTime,
		Duration:  in.Duration,
		Releases:  in.Releases,
		Payment:   payment,
	})
}

// GetLock 锁仓详情
func (l *LockLogic) GetLock(id uint64) (*LockView, error) {
	lock, err := l.locks.GetLock(id)
	if err != nil {
		return nil, err
	}
	unlocked, err := l.locks.UnlockedAmount(id)
	if err != nil {
		return nil, err
	}
	available, err := l.locks.AmountToUnlock(id)
	if err != nil {
		return nil, err
	}
	return &LockView{Lock: lock, Unlocked: unlocked, Available: available}, nil
}

// GetUserLocks 从读模型获取用户持有的锁仓
func (l *LockLogic) GetUserLocks(owner common.Address) ([]model.TokenLockModel, error) {
	var rows []model.TokenLockModel
	if err := l.db.Where("owner = ?", owner.Hex()).Order("lock_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取用户锁仓失败: %w", err)
	}
	return rows, nil
}

// Unlock 提取指定数量
func (l *LockLogic) Unlock(ctx context.Context, caller common.Address, id uint64, amount string) error {
	v, err := ParseAmount("amount", amount)
	if err != nil {
		return err
	}
	l.writes.Lock()
	defer l.writes.Unlock()
	return l.locks.Unlock(ctx, caller, id, v)
}

// UnlockAvailable 提取全部可解锁数量
func (l *LockLogic) UnlockAvailable(ctx context.Context, caller common.Address, id uint64) (*big.Int, error) {
	l.writes.Lock()
	defer l.writes.Unlock()
	return l.locks.UnlockAvailable(ctx, caller, id)
}

// ChangeOwner 转移锁仓所有权
func (l *LockLogic) ChangeOwner(ctx context.Context, caller common.Address, id uint64, newOwner string) error {
	addr, err := ParseAddress("newOwner", newOwner)
	if err != nil {
		return err
	}
	return l.locks.ChangeOwner(ctx, caller, id, addr)
}
