package client

import (
	"sync"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
)

// ErrMutationInFlight 同一订单已有进行中的变更操作。
// 防止用户快速双击造成并发提交。错误码用 INVALID_STATE（订单正忙），
// 与服务端查重守卫的 DUPLICATE_PAYMENT 区分开。
var ErrMutationInFlight = errs.New(errs.CodeInvalidState, "another operation on this order is in flight")

// keyedMutex 按订单 ID 串行化变更操作：拿不到锁立即失败而不是排队，
// 第二次点击直接得到提示。
type keyedMutex struct {
	mu   sync.Mutex
	keys map[int64]struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{keys: make(map[int64]struct{})}
}

// TryLock 尝试占用 key，已被占用返回 false。
func (km *keyedMutex) TryLock(key int64) bool {
	km.mu.Lock()
	defer km.mu.Unlock()
	if _, busy := km.keys[key]; busy {
		return false
	}
	km.keys[key] = struct{}{}
	return true
}

func (km *keyedMutex) Unlock(key int64) {
	km.mu.Lock()
	defer km.mu.Unlock()
	delete(km.keys, key)
}
