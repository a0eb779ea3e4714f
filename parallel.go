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
	"github.com/zintix-labs/isolab/sdk/marginal"
)

// ParallelThresholdGenerator 是 threshold 走訪的多 worker 版本。
//
// 分工方式：最外層維度（dim−1）切成工作範圍——共享的 SyncDispenser
// 一次發放一個外層邊際 index；worker 固定外層值後，在內層 D−1 維上
// 跑單執行緒走訪。共享狀態只有 dispenser（atomic）與建構後唯讀的
// Precalc 邊際表；每個 worker 自有前綴和 scratchpad，結構尾端補
// 64 bytes 避免 false sharing。
//
// 不保證任何跨 worker 的輸出順序。Terminate 之後所有 worker 的下一次
// Advance 回傳 false；進行中的呼叫會跑完。
type ParallelThresholdGenerator struct {
	dim            int
	isotopeNumbers []int
	lCutoff        float64
	marginals      []*marginal.Precalc
	maxConfsLPSum  []float64
	dispenser      *marginal.SyncDispenser
	empty          bool
}

// NewParallelThresholdGenerator 建立平行 threshold driver 並吸收 mol。
// 之後以 NewWorker 為每條 goroutine 取一個 worker。
func NewParallelThresholdGenerator(mol *Molecule, threshold float64, absolute bool) (*ParallelThresholdGenerator, error) {
	modeLProb := mol.ModeLProb()
	lCutoff, err := resolveCutoff(threshold, absolute, modeLProb)
	if err != nil {
		return nil, err
	}
	slots, err := mol.takeSlots()
	if err != nil {
		return nil, err
	}

	dim := mol.DimNumber()
	p := &ParallelThresholdGenerator{
		dim:            dim,
		isotopeNumbers: mol.IsotopeNumbers(),
		lCutoff:        lCutoff,
		marginals:      make([]*marginal.Precalc, dim),
		maxConfsLPSum:  make([]float64, dim),
	}
	for d, s := range slots {
		maxOther := modeLProb - s.ModeLProb()
		p.marginals[d] = marginal.NewPrecalc(s, lCutoff-maxOther, defaultTabSize, defaultHashSize)
		if p.marginals[d].Len() == 0 {
			p.empty = true
		}
	}
	if p.empty {
		p.dispenser = marginal.NewSyncDispenser(0)
		return p, nil
	}

	p.maxConfsLPSum[0] = p.marginals[0].GetLProb(0)
	for d := 1; d < dim; d++ {
		p.maxConfsLPSum[d] = p.maxConfsLPSum[d-1] + p.marginals[d].GetLProb(0)
	}
	p.dispenser = marginal.NewSyncDispenser(p.marginals[dim-1].Len())
	return p, nil
}

// Terminate 讓所有 worker 的下一次 Advance 回傳 false。
func (p *ParallelThresholdGenerator) Terminate() {
	p.dispenser.Terminate()
}

// NewWorker 建立一個 worker。worker 不可跨 goroutine 共用。
func (p *ParallelThresholdGenerator) NewWorker() *ThresholdWorker {
	w := &ThresholdWorker{
		p:             p,
		counter:       make([]int, p.dim),
		partialLProbs: make([]float64, p.dim+1),
		partialMasses: make([]float64, p.dim+1),
		partialEProbs: make([]float64, p.dim+1),
	}
	w.partialLProbs[p.dim] = 0
	w.partialMasses[p.dim] = 0
	w.partialEProbs[p.dim] = 1
	return w
}

// ThresholdWorker 持有一個 worker 的全部可變狀態。
// 讀值介面與單執行緒 driver 相同（Generator）。
type ThresholdWorker struct {
	p             *ParallelThresholdGenerator
	counter       []int
	partialLProbs []float64
	partialMasses []float64
	partialEProbs []float64
	active        bool

	_ [64]byte // false-sharing padding：worker 彼此相鄰配置時隔開 cache line
}

func (w *ThresholdWorker) recalc(idx int) {
	for ; idx >= 0; idx-- {
		w.partialLProbs[idx] = w.partialLProbs[idx+1] + w.p.marginals[idx].GetLProb(w.counter[idx])
		w.partialMasses[idx] = w.partialMasses[idx+1] + w.p.marginals[idx].GetMass(w.counter[idx])
		w.partialEProbs[idx] = w.partialEProbs[idx+1] * w.p.marginals[idx].GetEProb(w.counter[idx])
	}
}

// Advance 前進到此 worker 的下一個輸出；外層 index 用完時回傳 false。
func (w *ThresholdWorker) Advance() bool {
	p := w.p
	dim := p.dim
	for {
		if !w.active {
			idx, ok := p.dispenser.Next()
			if !ok {
				return false
			}

			if dim == 1 {
				// 單維：precalc 內每一筆都已達標，逐筆直接輸出。
				w.counter[0] = idx
				w.partialLProbs[0] = p.marginals[0].GetLProb(idx)
				w.partialMasses[0] = p.marginals[0].GetMass(idx)
				w.partialEProbs[0] = p.marginals[0].GetEProb(idx)
				return true
			}

			outerLP := p.marginals[dim-1].GetLProb(idx)
			if outerLP+p.maxConfsLPSum[dim-2] < p.lCutoff {
				// 外層依 lprob 遞減：這個外層值配滿眾數都不達標，
				// 之後發放的外層值只會更差，整體可以收工。
				p.dispenser.Terminate()
				return false
			}
			w.counter[dim-1] = idx
			w.partialLProbs[dim-1] = outerLP
			w.partialMasses[dim-1] = p.marginals[dim-1].GetMass(idx)
			w.partialEProbs[dim-1] = p.marginals[dim-1].GetEProb(idx)
			for d := 0; d < dim-1; d++ {
				w.counter[d] = 0
			}
			w.recalc(dim - 2)
			w.counter[0] = -1
			w.active = true
		}

		// 內層走訪：維度 0..dim−2，外層值固定。
		w.counter[0]++
		w.partialLProbs[0] = w.partialLProbs[1] + p.marginals[0].GetLProb(w.counter[0])
		if w.partialLProbs[0] >= p.lCutoff {
			w.partialMasses[0] = w.partialMasses[1] + p.marginals[0].GetMass(w.counter[0])
			w.partialEProbs[0] = w.partialEProbs[1] * p.marginals[0].GetEProb(w.counter[0])
			return true
		}

		carried := false
		idx := 0
		for idx < dim-2 {
			w.counter[idx] = 0
			idx++
			w.counter[idx]++
			w.partialLProbs[idx] = w.partialLProbs[idx+1] + p.marginals[idx].GetLProb(w.counter[idx])
			if w.partialLProbs[idx]+p.maxConfsLPSum[idx-1] >= p.lCutoff {
				w.partialMasses[idx] = w.partialMasses[idx+1] + p.marginals[idx].GetMass(w.counter[idx])
				w.partialEProbs[idx] = w.partialEProbs[idx+1] * p.marginals[idx].GetEProb(w.counter[idx])
				w.recalc(idx - 1)
				carried = true
				break
			}
		}
		if carried {
			return true
		}
		// 內層耗盡：放掉這個外層值，回頭領下一個。
		w.active = false
	}
}

func (w *ThresholdWorker) LProb() float64 { return w.partialLProbs[0] }
func (w *ThresholdWorker) Mass() float64  { return w.partialMasses[0] }
func (w *ThresholdWorker) EProb() float64 { return w.partialEProbs[0] }

// ConfSignature 把目前組態的逐同位素原子數串接寫入 space。
func (w *ThresholdWorker) ConfSignature(space []int32) {
	at := 0
	for d := 0; d < w.p.dim; d++ {
		conf := w.p.marginals[d].GetConf(w.counter[d])
		for _, c := range conf {
			space[at] = int32(c)
			at++
		}
	}
}

// Terminate 等同對共享 driver 呼叫 Terminate。
func (w *ThresholdWorker) Terminate() {
	w.p.Terminate()
}
