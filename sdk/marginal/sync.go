package marginal

import (
	"sync/atomic"
)

// SyncDispenser 是平行 threshold driver 的共享計數器：對最外層維度的
// 每個邊際組態 index 做一次性發放，讓每個 worker 拿到互不重疊的外層值。
//
// 與 Precalc 一樣為唯讀共享設計；唯一的可變狀態是兩個 atomic 欄位。
type SyncDispenser struct {
	next       atomic.Int64
	limit      int64
	terminated atomic.Bool
}

// NewSyncDispenser 建立發放上限為 limit（= 外層邊際的組態數）的 dispenser。
func NewSyncDispenser(limit int) *SyncDispenser {
	d := &SyncDispenser{limit: int64(limit)}
	return d
}

// Next 取得下一個未發放的外層 index。發完或已終止時 ok=false。
func (d *SyncDispenser) Next() (idx int, ok bool) {
	if d.terminated.Load() {
		return 0, false
	}
	v := d.next.Add(1) - 1
	if v >= d.limit {
		return 0, false
	}
	return int(v), true
}

// Terminate 讓後續所有 Next 直接失敗；已取走的 index 不受影響。
func (d *SyncDispenser) Terminate() {
	d.terminated.Store(true)
}

// Terminated 回報是否已終止。
func (d *SyncDispenser) Terminated() bool {
	return d.terminated.Load()
}
