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
	"math"

	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/sdk/marginal"
)

// LayeredGenerator 以 log-機率分層輸出 isotopologue。
//
// 每一層是一個 slab：[curCutoff, lastCutoff)。層內用與 threshold driver
// 相同的多進位走訪（截斷值 = curCutoff），但 lprob ≥ lastCutoff 的組態
// 在前一層已經輸出過，走到時直接濾掉。層耗盡時：
//
//   - 有武裝覆蓋目標（target > 0）：自動 NextLayer(delta) 繼續，
//     直到累積機率 ≥ target 或組態空間耗盡。
//   - 手動模式（target ≤ 0）：Advance 回傳 false，由呼叫端決定是否
//     NextLayer 後再繼續。
//
// 邊際分布用 Layered（底層 Trek 續跑，跨層不重算）。
// 單層內與跨層的輸出順序都未定義，但同輸入跨執行一致。
type LayeredGenerator struct {
	dim            int
	isotopeNumbers []int
	marginals      []*marginal.Layered
	counter        []int
	maxConfsLPSum  []float64
	partialLProbs  []float64
	partialMasses  []float64
	partialEProbs  []float64

	modeLProb        float64
	delta            float64
	curCutoff        float64
	lastCutoff       float64
	target           float64
	sumEProb         float64
	emittedThisLayer int
	terminated       bool
}

// NewLayeredGenerator 建立 layered driver 並吸收 mol。
//
// delta 為每層下降的 log-機率量，必須為負。target 為累積機率覆蓋目標
// （例如 0.999）；target ≤ 0 表示手動控層。
func NewLayeredGenerator(mol *Molecule, delta, target float64) (*LayeredGenerator, error) {
	return NewLayeredGeneratorSized(mol, delta, target, defaultTabSize, defaultHashSize)
}

// NewLayeredGeneratorSized 同上，可指定表容量 hint。
func NewLayeredGeneratorSized(mol *Molecule, delta, target float64, tabSize, hashSize int) (*LayeredGenerator, error) {
	if delta >= 0 || math.IsNaN(delta) {
		return nil, errs.Warnf("layer delta must be negative, got %v", delta)
	}
	if target >= 1 {
		return nil, errs.Warnf("coverage target must be below 1, got %v", target)
	}
	slots, err := mol.takeSlots()
	if err != nil {
		return nil, err
	}

	dim := mol.DimNumber()
	g := &LayeredGenerator{
		dim:            dim,
		isotopeNumbers: mol.IsotopeNumbers(),
		marginals:      make([]*marginal.Layered, dim),
		counter:        make([]int, dim),
		maxConfsLPSum:  make([]float64, dim),
		partialLProbs:  make([]float64, dim+1),
		partialMasses:  make([]float64, dim+1),
		partialEProbs:  make([]float64, dim+1),
		modeLProb:      mol.ModeLProb(),
		delta:          delta,
		curCutoff:      mol.ModeLProb() + delta,
		lastCutoff:     math.Inf(1),
		target:         target,
	}
	for d, s := range slots {
		g.marginals[d] = marginal.NewLayered(s, tabSize, hashSize)
	}
	if err := g.extendMarginals(); err != nil {
		return nil, err
	}

	g.maxConfsLPSum[0] = g.marginals[0].GetLProb(0)
	for d := 1; d < dim; d++ {
		g.maxConfsLPSum[d] = g.maxConfsLPSum[d-1] + g.marginals[d].GetLProb(0)
	}
	g.startWalk()
	return g, nil
}

// extendMarginals 把每個邊際分布延伸到本層的元素級截斷值：
// curCutoff − (聯合眾數 lprob − 該維眾數 lprob)。
func (g *LayeredGenerator) extendMarginals() error {
	for _, m := range g.marginals {
		maxOther := g.modeLProb - m.Slot().ModeLProb()
		if err := m.Extend(g.curCutoff - maxOther); err != nil {
			return err
		}
	}
	return nil
}

// startWalk 重置多進位計數器，準備掃一整層。
func (g *LayeredGenerator) startWalk() {
	for d := range g.counter {
		g.counter[d] = 0
	}
	g.partialLProbs[g.dim] = 0
	g.partialMasses[g.dim] = 0
	g.partialEProbs[g.dim] = 1
	g.recalc(g.dim - 1)
	g.counter[0] = -1
	g.emittedThisLayer = 0
}

// lProbAt 取邊際 lprob；超出已實體化前綴視為 −Inf（必觸發進位）。
func (g *LayeredGenerator) lProbAt(d, i int) float64 {
	if i >= g.marginals[d].Len() {
		return math.Inf(-1)
	}
	return g.marginals[d].GetLProb(i)
}

func (g *LayeredGenerator) recalc(idx int) {
	for ; idx >= 0; idx-- {
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.lProbAt(idx, g.counter[idx])
		g.partialMasses[idx] = g.partialMasses[idx+1] + g.marginals[idx].GetMass(g.counter[idx])
		g.partialEProbs[idx] = g.partialEProbs[idx+1] * g.marginals[idx].GetEProb(g.counter[idx])
	}
}

// advanceInternal 在本層截斷值下前進一步（不做前層過濾）。
func (g *LayeredGenerator) advanceInternal() bool {
	g.counter[0]++
	g.partialLProbs[0] = g.partialLProbs[1] + g.lProbAt(0, g.counter[0])
	if g.partialLProbs[0] >= g.curCutoff {
		g.partialMasses[0] = g.partialMasses[1] + g.marginals[0].GetMass(g.counter[0])
		g.partialEProbs[0] = g.partialEProbs[1] * g.marginals[0].GetEProb(g.counter[0])
		return true
	}
	idx := 0
	for idx < g.dim-1 {
		g.counter[idx] = 0
		idx++
		g.counter[idx]++
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.lProbAt(idx, g.counter[idx])
		if g.partialLProbs[idx]+g.maxConfsLPSum[idx-1] >= g.curCutoff {
			g.partialMasses[idx] = g.partialMasses[idx+1] + g.marginals[idx].GetMass(g.counter[idx])
			g.partialEProbs[idx] = g.partialEProbs[idx+1] * g.marginals[idx].GetEProb(g.counter[idx])
			g.recalc(idx - 1)
			return true
		}
	}
	return false
}

// Advance 前進到本層（必要時自動加層）的下一個輸出。
func (g *LayeredGenerator) Advance() bool {
	if g.terminated {
		return false
	}
	for {
		for g.advanceInternal() {
			if g.partialLProbs[0] >= g.lastCutoff {
				continue // 前層已輸出
			}
			g.sumEProb += g.partialEProbs[0]
			g.emittedThisLayer++
			return true
		}

		// 本層耗盡
		if g.target > 0 && g.sumEProb >= g.target {
			g.terminated = true
			return false
		}
		if g.target <= 0 {
			return false // 手動模式：等呼叫端 NextLayer
		}
		if g.emittedThisLayer == 0 && g.allExhausted() {
			// 整層空轉且邊際分布已全數實體化：組態空間走完了。
			g.terminated = true
			return false
		}
		if err := g.NextLayer(g.delta); err != nil {
			g.terminated = true
			return false
		}
	}
}

func (g *LayeredGenerator) allExhausted() bool {
	for _, m := range g.marginals {
		if !m.Exhausted() {
			return false
		}
	}
	return true
}

// NextLayer 把截斷值往下移 delta（必須為負）並重新武裝層內走訪。
func (g *LayeredGenerator) NextLayer(delta float64) error {
	if g.terminated {
		return errs.NewWarn("layered generator already terminated")
	}
	if delta >= 0 || math.IsNaN(delta) {
		return errs.Warnf("layer delta must be negative, got %v", delta)
	}
	g.lastCutoff = g.curCutoff
	g.curCutoff += delta
	if err := g.extendMarginals(); err != nil {
		return err
	}
	g.startWalk()
	return nil
}

func (g *LayeredGenerator) LProb() float64 { return g.partialLProbs[0] }
func (g *LayeredGenerator) Mass() float64  { return g.partialMasses[0] }
func (g *LayeredGenerator) EProb() float64 { return g.partialEProbs[0] }

// Coverage 回傳目前為止輸出組態的累積機率。
func (g *LayeredGenerator) Coverage() float64 { return g.sumEProb }

// LCutoff 回傳本層的 log-截斷值。
func (g *LayeredGenerator) LCutoff() float64 { return g.curCutoff }

// ConfSignature 把目前組態的逐同位素原子數串接寫入 space。
func (g *LayeredGenerator) ConfSignature(space []int32) {
	at := 0
	for d := 0; d < g.dim; d++ {
		conf := g.marginals[d].GetConf(g.counter[d])
		for _, c := range conf {
			space[at] = int32(c)
			at++
		}
	}
}

// Terminate 讓後續 Advance 直接失敗。
func (g *LayeredGenerator) Terminate() {
	g.terminated = true
}
