// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package marginal

import (
	"container/heap"
	"math"

	"github.com/zintix-labs/isolab/corefmt"
)

// Trek 依機率遞減逐一實體化 slot 的組態。
//
// 演算法：priority queue 從眾數出發。每 pop 一個組態就寫進平行表
// （conf/lprob/mass/eprob），並把它的一步鄰居（任一對同位素間搬移
// 一顆原子，共至多 k·(k−1) 個）推進 queue；visited set 以打包後的
// 組態向量為 key 擋重複。
//
// 已實體化的前綴永遠依 lprob 非遞增排序；表只增不縮，回傳的 slice
// 在 Trek 存活期間有效。
//
// 複雜度：實體化 M 個組態為 O(M·k²·log M)。
type Trek struct {
	slot    *Slot
	pq      confHeap
	visited map[string]struct{}
	keyBuf  []byte
	seq     int

	confs  [][]int
	lProbs []float64
	masses []float64
	eProbs []float64
}

// confEntry 是 queue 內的候選組態。seq 為插入序，lprob 相同時
// 以先插入者優先，確保同輸入跨執行結果一致。
type confEntry struct {
	lProb float64
	conf  []int
	seq   int
}

type confHeap []confEntry

func (h confHeap) Len() int { return len(h) }
func (h confHeap) Less(i, j int) bool {
	if h[i].lProb != h[j].lProb {
		return h[i].lProb > h[j].lProb
	}
	return h[i].seq < h[j].seq
}
func (h confHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *confHeap) Push(x any)  { *h = append(*h, x.(confEntry)) }
func (h *confHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = confEntry{}
	*h = old[:n-1]
	return it
}

// NewTrek 建立 Trek。tabSize 為表的初始容量、hashSize 為 visited set
// 的初始桶數（只是 hint，皆可為 0）。
func NewTrek(slot *Slot, tabSize, hashSize int) *Trek {
	if tabSize < 1 {
		tabSize = 16
	}
	if hashSize < 1 {
		hashSize = 16
	}
	t := &Trek{
		slot:    slot,
		visited: make(map[string]struct{}, hashSize),
		confs:   make([][]int, 0, tabSize),
		lProbs:  make([]float64, 0, tabSize),
		masses:  make([]float64, 0, tabSize),
		eProbs:  make([]float64, 0, tabSize),
	}
	mode := slot.ModeConf()
	key, buf := corefmt.ConfKey(mode, t.keyBuf)
	t.keyBuf = buf
	t.visited[key] = struct{}{}
	heap.Push(&t.pq, confEntry{lProb: slot.ModeLProb(), conf: mode, seq: t.seq})
	t.seq++
	return t
}

// Extend 實體化下一個（機率次高的）組態。組態空間耗盡時回傳 false。
func (t *Trek) Extend() bool {
	if t.pq.Len() == 0 {
		return false
	}
	top := heap.Pop(&t.pq).(confEntry)

	t.confs = append(t.confs, top.conf)
	t.lProbs = append(t.lProbs, top.lProb)
	t.masses = append(t.masses, t.slot.MassOf(top.conf))
	t.eProbs = append(t.eProbs, math.Exp(top.lProb))

	k := t.slot.IsotopeNumber()
	for from := 0; from < k; from++ {
		if top.conf[from] == 0 {
			continue
		}
		for to := 0; to < k; to++ {
			if to == from {
				continue
			}
			nb := make([]int, k)
			copy(nb, top.conf)
			nb[from]--
			nb[to]++

			key, buf := corefmt.ConfKey(nb, t.keyBuf)
			t.keyBuf = buf
			if _, ok := t.visited[key]; ok {
				continue
			}
			t.visited[key] = struct{}{}
			heap.Push(&t.pq, confEntry{lProb: t.slot.LProbOf(nb), conf: nb, seq: t.seq})
			t.seq++
		}
	}
	return true
}

// Ensure 實體化到至少 i+1 個組態。空間不足 i+1 個時回傳 false。
func (t *Trek) Ensure(i int) bool {
	for len(t.lProbs) <= i {
		if !t.Extend() {
			return false
		}
	}
	return true
}

// PeekLProb 回傳下一個待實體化組態的 lprob；queue 空時 ok=false。
func (t *Trek) PeekLProb() (lProb float64, ok bool) {
	if t.pq.Len() == 0 {
		return 0, false
	}
	return t.pq[0].lProb, true
}

// Len 回傳已實體化的組態數。
func (t *Trek) Len() int { return len(t.lProbs) }

func (t *Trek) Conf(i int) []int     { return t.confs[i] }
func (t *Trek) LProb(i int) float64  { return t.lProbs[i] }
func (t *Trek) Mass(i int) float64   { return t.masses[i] }
func (t *Trek) EProb(i int) float64  { return t.eProbs[i] }

func (t *Trek) Slot() *Slot { return t.slot }
