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

// thresholdBase 是三個 threshold 變體共用的狀態與建構邏輯。
//
// 走訪把 D 個排序後的邊際分布當成一個「多進位計數器」：counter[d] 是
// 第 d 維的邊際 index，低位溢出就向高位進位。剪枝不變式：
//
//	維度 d 的前綴 lprob + maxConfsLPSum[d−1] < lCutoff
//	⇒ 低維怎麼補都到不了截斷值，整段可跳過（進位直接串級）。
//
// maxConfsLPSum[d] = Σ_{e≤d} 第 e 維眾數 lprob，是「低維全取眾數」的
// 最佳補完；邊際分布依 lprob 遞減排序，所以每一維的掃描首次失敗即可收手。
//
// partialX[d] 是維度 d..D−1 的前綴和（機率為前綴積）：partialX[D] 為
// 單位元素，partialX[d] = partialX[d+1] ⊕ marginal_d[counter[d]]。
type thresholdBase struct {
	dim            int
	isotopeNumbers []int
	lCutoff        float64
	marginals      []*marginal.Precalc
	counter        []int
	maxConfsLPSum  []float64
	partialLProbs  []float64
	partialMasses  []float64
	partialEProbs  []float64
	terminated     bool
}

// newThresholdBase 建構共用狀態並吸收 mol。
//
// 每一維的邊際截斷值取 lCutoff − (聯合眾數 lprob − 該維眾數 lprob)：
// 這是「其餘維度全取眾數」時仍可達標的最弱條件，保證不漏任何
// 總 lprob ≥ lCutoff 的組態。
func newThresholdBase(mol *Molecule, threshold float64, absolute bool, tabSize, hashSize int) (*thresholdBase, error) {
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
	g := &thresholdBase{
		dim:            dim,
		isotopeNumbers: mol.IsotopeNumbers(),
		lCutoff:        lCutoff,
		marginals:      make([]*marginal.Precalc, dim),
		counter:        make([]int, dim),
		maxConfsLPSum:  make([]float64, dim),
		partialLProbs:  make([]float64, dim+1),
		partialMasses:  make([]float64, dim+1),
		partialEProbs:  make([]float64, dim+1),
	}
	for d, s := range slots {
		maxOther := modeLProb - s.ModeLProb()
		g.marginals[d] = marginal.NewPrecalc(s, lCutoff-maxOther, tabSize, hashSize)
		if g.marginals[d].Len() == 0 {
			// 截斷值高過聯合眾數：整個空間無一達標。
			g.terminated = true
		}
	}
	if g.terminated {
		return g, nil
	}

	g.maxConfsLPSum[0] = g.marginals[0].GetLProb(0)
	for d := 1; d < dim; d++ {
		g.maxConfsLPSum[d] = g.maxConfsLPSum[d-1] + g.marginals[d].GetLProb(0)
	}

	g.partialLProbs[dim] = 0
	g.partialMasses[dim] = 0
	g.partialEProbs[dim] = 1
	g.recalc(dim - 1)
	// 預先退一步：第一次 Advance 的 counter[0]++ 會落在眾數上。
	g.counter[0] = -1
	return g, nil
}

// recalc 由高維往低維重算前綴和（進位落地後的收尾）。
func (g *thresholdBase) recalc(idx int) {
	for ; idx >= 0; idx-- {
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.marginals[idx].GetLProb(g.counter[idx])
		g.partialMasses[idx] = g.partialMasses[idx+1] + g.marginals[idx].GetMass(g.counter[idx])
		g.partialEProbs[idx] = g.partialEProbs[idx+1] * g.marginals[idx].GetEProb(g.counter[idx])
	}
}

func (g *thresholdBase) LProb() float64 { return g.partialLProbs[0] }
func (g *thresholdBase) Mass() float64  { return g.partialMasses[0] }
func (g *thresholdBase) EProb() float64 { return g.partialEProbs[0] }

// ConfSignature 把目前組態的逐同位素原子數串接寫入 space。
func (g *thresholdBase) ConfSignature(space []int32) {
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
func (g *thresholdBase) Terminate() {
	g.terminated = true
}

// carry 處理低位溢出：逐維進位直到剪枝不變式重新成立或高位耗盡。
// 成功時低維（0..idx−1）全部歸零回眾數並重算前綴和。
func (g *thresholdBase) carry() bool {
	idx := 0
	for idx < g.dim-1 {
		g.counter[idx] = 0
		idx++
		g.counter[idx]++
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.marginals[idx].GetLProb(g.counter[idx])
		if g.partialLProbs[idx]+g.maxConfsLPSum[idx-1] >= g.lCutoff {
			g.partialMasses[idx] = g.partialMasses[idx+1] + g.marginals[idx].GetMass(g.counter[idx])
			g.partialEProbs[idx] = g.partialEProbs[idx+1] * g.marginals[idx].GetEProb(g.counter[idx])
			g.recalc(idx - 1)
			return true
		}
	}
	g.terminated = true
	return false
}

// ThresholdGenerator 輸出所有 lprob ≥ 截斷值的 isotopologue。
//
// 輸出順序除「同輸入跨執行一致」外未定義；複雜度為 O(輸出大小)，
// 與聯合組態空間的大小無關。
type ThresholdGenerator struct {
	*thresholdBase
}

// NewThresholdGenerator 建立 threshold driver 並吸收 mol。
// absolute=true 時 threshold 為機率絕對值；false 時為相對眾數高度的比例。
func NewThresholdGenerator(mol *Molecule, threshold float64, absolute bool) (*ThresholdGenerator, error) {
	return NewThresholdGeneratorSized(mol, threshold, absolute, defaultTabSize, defaultHashSize)
}

// NewThresholdGeneratorSized 同上，可指定表容量 hint。
func NewThresholdGeneratorSized(mol *Molecule, threshold float64, absolute bool, tabSize, hashSize int) (*ThresholdGenerator, error) {
	base, err := newThresholdBase(mol, threshold, absolute, tabSize, hashSize)
	if err != nil {
		return nil, err
	}
	return &ThresholdGenerator{thresholdBase: base}, nil
}

// Advance 前進到下一個達標組態。
func (g *ThresholdGenerator) Advance() bool {
	if g.terminated {
		return false
	}
	g.counter[0]++
	// 第 0 維表尾的 −Inf 哨兵保證這裡不需邊界檢查：走到表尾必觸發進位。
	g.partialLProbs[0] = g.partialLProbs[1] + g.marginals[0].GetLProb(g.counter[0])
	if g.partialLProbs[0] >= g.lCutoff {
		g.partialMasses[0] = g.partialMasses[1] + g.marginals[0].GetMass(g.counter[0])
		g.partialEProbs[0] = g.partialEProbs[1] * g.marginals[0].GetEProb(g.counter[0])
		return true
	}
	return g.carry()
}
