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

package isolab

import (
	"container/heap"

	"github.com/zintix-labs/isolab/corefmt"
	"github.com/zintix-labs/isolab/sdk/marginal"
)

// OrderedGenerator 依機率嚴格非遞增輸出 isotopologue，從聯合眾數出發。
//
// 組態以「D 維邊際 index 向量」表示：idx[d] 指向第 d 個元素邊際分布中
// 第 idx[d] 高機率的組態。priority queue 以 index 向量的 lprob 總和為 key；
// 每 pop 一個組態，推入它的 forward 鄰居（每一維 index +1，各成一個鄰居），
// visited set 以打包後的 index 向量擋重複。邊際分布用 Trek 隨需成長。
//
// lprob 相同的組態輸出順序未定義，但同輸入跨執行一致（heap 以插入序破平）。
// 輸出 N 個 isotopologue 需 O(N·D·log N)。
type OrderedGenerator struct {
	dim            int
	isotopeNumbers []int
	marginals      []*marginal.Trek
	pq             idxHeap
	visited        map[string]struct{}
	keyBuf         []byte
	seq            int

	cur        []int32
	curLProb   float64
	curMass    float64
	curEProb   float64
	terminated bool
}

type idxEntry struct {
	lProb float64
	idx   []int32
	seq   int
}

type idxHeap []idxEntry

func (h idxHeap) Len() int { return len(h) }
func (h idxHeap) Less(i, j int) bool {
	if h[i].lProb != h[j].lProb {
		return h[i].lProb > h[j].lProb
	}
	return h[i].seq < h[j].seq
}
func (h idxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *idxHeap) Push(x any)   { *h = append(*h, x.(idxEntry)) }
func (h *idxHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = idxEntry{}
	*h = old[:n-1]
	return it
}

// NewOrderedGenerator 建立 ordered driver 並吸收 mol（見 Molecule 所有權合約）。
func NewOrderedGenerator(mol *Molecule) (*OrderedGenerator, error) {
	return NewOrderedGeneratorSized(mol, defaultTabSize, defaultHashSize)
}

// NewOrderedGeneratorSized 同上，可指定表延伸容量與 visited set 容量 hint。
func NewOrderedGeneratorSized(mol *Molecule, tabSize, hashSize int) (*OrderedGenerator, error) {
	slots, err := mol.takeSlots()
	if err != nil {
		return nil, err
	}
	g := &OrderedGenerator{
		dim:            mol.DimNumber(),
		isotopeNumbers: mol.IsotopeNumbers(),
		marginals:      make([]*marginal.Trek, mol.DimNumber()),
		visited:        make(map[string]struct{}, hashSize),
	}
	for d, s := range slots {
		g.marginals[d] = marginal.NewTrek(s, tabSize, hashSize)
		g.marginals[d].Ensure(0)
	}

	mode := make([]int32, g.dim)
	key, buf := corefmt.ConfKeyIdx(mode, g.keyBuf)
	g.keyBuf = buf
	g.visited[key] = struct{}{}
	heap.Push(&g.pq, idxEntry{lProb: g.sumLProb(mode), idx: mode, seq: g.seq})
	g.seq++
	return g, nil
}

// sumLProb 由高維往低維整和，與 threshold driver 的前綴和同序，
// 讓兩種 driver 對同一組態回報逐位元一致的 lprob。
func (g *OrderedGenerator) sumLProb(idx []int32) float64 {
	lp := 0.0
	for e := g.dim - 1; e >= 0; e-- {
		lp += g.marginals[e].LProb(int(idx[e]))
	}
	return lp
}

// Advance 前進到機率次高、尚未輸出的 isotopologue。
func (g *OrderedGenerator) Advance() bool {
	if g.terminated || g.pq.Len() == 0 {
		return false
	}
	top := heap.Pop(&g.pq).(idxEntry)
	g.cur = top.idx
	g.curLProb = top.lProb

	mass := 0.0
	eProb := 1.0
	for d := 0; d < g.dim; d++ {
		i := int(top.idx[d])
		mass += g.marginals[d].Mass(i)
		eProb *= g.marginals[d].EProb(i)
	}
	g.curMass = mass
	g.curEProb = eProb

	// forward 鄰居：每一維 +1。超出邊際組態空間的維度直接略過。
	for d := 0; d < g.dim; d++ {
		next := int(top.idx[d]) + 1
		if !g.marginals[d].Ensure(next) {
			continue
		}
		nb := make([]int32, g.dim)
		copy(nb, top.idx)
		nb[d] = int32(next)

		key, buf := corefmt.ConfKeyIdx(nb, g.keyBuf)
		g.keyBuf = buf
		if _, ok := g.visited[key]; ok {
			continue
		}
		g.visited[key] = struct{}{}

		// 重新整和而非增量更新：避免跨長鄰居鏈累積捨入差，
		// 保證輸出序列非遞增（同序下鄰居 lprob ≤ 父節點 lprob）。
		heap.Push(&g.pq, idxEntry{lProb: g.sumLProb(nb), idx: nb, seq: g.seq})
		g.seq++
	}
	return true
}

func (g *OrderedGenerator) LProb() float64 { return g.curLProb }
func (g *OrderedGenerator) Mass() float64  { return g.curMass }
func (g *OrderedGenerator) EProb() float64 { return g.curEProb }

// ConfSignature 把目前組態的逐同位素原子數串接寫入 space。
func (g *OrderedGenerator) ConfSignature(space []int32) {
	at := 0
	for d := 0; d < g.dim; d++ {
		conf := g.marginals[d].Conf(int(g.cur[d]))
		for _, c := range conf {
			space[at] = int32(c)
			at++
		}
	}
}

// Terminate 讓後續 Advance 直接失敗。
func (g *OrderedGenerator) Terminate() {
	g.terminated = true
}
