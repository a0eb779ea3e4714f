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

// Package isolab 提供同位素精細結構（isotopic fine structure）列舉引擎的
// 「組裝入口（assembler）」與各種列舉 driver。
//
// 你可以把 isolab 視為一個「可被後端/CLI 使用的計算核心」，它把三層地基
// 組裝在一起，並提供建立 driver 的入口：
//  1. sdk/chem：化學式解析與元素表（SSOT），決定每個元素的同位素組成。
//  2. sdk/marginal：單一元素的邊際分布引擎（Trek / Precalc / Layered）。
//  3. driver 層（本包）：在 D 個邊際分布的乘積空間上列舉 isotopologue。
//
// 一個分子若每個元素有 nᵢ 顆原子、kᵢ 種同位素，isotopologue 總數為
// ∏ C(nᵢ+kᵢ−1, kᵢ−1)——天文數字。driver 只產出「有趣」的子集：
//
//   - OrderedGenerator：依機率嚴格非遞增輸出（priority queue 乘積擴張）。
//   - ThresholdGenerator：輸出所有機率 ≥ τ 的組態（多進位計數器走訪，
//     複雜度 O(輸出大小)）；另有 Fast 與 Count 兩個等價變體。
//   - LayeredGenerator：以 log-機率分層向下擴張，直到累積機率
//     覆蓋到指定目標。
//   - ParallelThresholdGenerator：threshold 走訪的多 worker 版本。
//
// 典型使用情境：
//
//	mol, _ := isolab.NewMolecule("C100H202")
//	gen, _ := isolab.NewThresholdGenerator(mol, 0.01, false)
//	for gen.Advance() {
//	    _ = gen.Mass()
//	    _ = gen.EProb()
//	}
package isolab

import (
	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/sdk/chem"
	"github.com/zintix-labs/isolab/sdk/marginal"
)

// 預設的表延伸容量與 visited set 容量 hint，與歷史預設值對齊。
const (
	defaultTabSize  = 1000
	defaultHashSize = 1000
)

// Molecule 是分子的完整描述：每個元素一個 slot（原子數 + 同位素表）。
//
// 所有權合約：driver 的建構函數會「吸收」Molecule——第一次建構成功後
// Molecule 標記為 disowned，其 slot 歸 driver 所有；再用同一個 Molecule
// 建 driver 是 Fatal 錯誤。要重複使用請 Clone()。
type Molecule struct {
	dimNumber      int
	isotopeNumbers []int
	atomCounts     []int
	slots          []*marginal.Slot
	modeLProb      float64
	allDim         int
	disowned       bool
}

// NewMolecule 以內建週期表解析化學式並建立 Molecule。
func NewMolecule(formula string) (*Molecule, error) {
	return NewMoleculeWith(formula, chem.Default())
}

// NewMoleculeWith 與 NewMolecule 相同，但查指定的元素表。
func NewMoleculeWith(formula string, reg *chem.Registry) (*Molecule, error) {
	comp, err := chem.ParseFormulaWith(formula, reg)
	if err != nil {
		return nil, err
	}
	masses := make([][]float64, comp.DimNumber())
	probs := make([][]float64, comp.DimNumber())
	for i, e := range comp.Elements {
		masses[i] = e.Masses
		probs[i] = e.Probs
	}
	return NewMoleculeRaw(comp.AtomCounts, masses, probs)
}

// NewMoleculeRaw 直接以同位素表建構，繞過元素表查詢。
// masses/probs 為平行的二維表：masses[d][i] 是第 d 個元素第 i 個
// 同位素的質量。豐度假設已正規化（總和 = 1），這裡不再重驗。
func NewMoleculeRaw(atomCounts []int, masses, probs [][]float64) (*Molecule, error) {
	dim := len(atomCounts)
	if dim == 0 {
		return nil, errs.NewWarn("molecule needs at least one element slot")
	}
	if len(masses) != dim || len(probs) != dim {
		return nil, errs.NewWarn("masses/probs must be parallel to atom counts")
	}

	m := &Molecule{
		dimNumber:      dim,
		isotopeNumbers: make([]int, dim),
		atomCounts:     make([]int, dim),
		slots:          make([]*marginal.Slot, dim),
	}
	copy(m.atomCounts, atomCounts)
	for d := 0; d < dim; d++ {
		if atomCounts[d] < 1 {
			return nil, errs.Warnf("slot %d: atom count must be positive", d)
		}
		if len(masses[d]) == 0 || len(masses[d]) != len(probs[d]) {
			return nil, errs.Warnf("slot %d: masses/probs must be non-empty and parallel", d)
		}
		m.isotopeNumbers[d] = len(masses[d])
		m.allDim += len(masses[d])
		m.slots[d] = marginal.NewSlot(atomCounts[d], masses[d], probs[d])
		m.modeLProb += m.slots[d].ModeLProb()
	}
	return m, nil
}

// DimNumber 回傳元素 slot 數。
func (m *Molecule) DimNumber() int { return m.dimNumber }

// AllDim 回傳所有元素的同位素總數（= conf signature 的長度）。
// 例：H2O 為 2+3 = 5。
func (m *Molecule) AllDim() int { return m.allDim }

// IsotopeNumbers 回傳每個 slot 的同位素數（複本）。
func (m *Molecule) IsotopeNumbers() []int {
	out := make([]int, len(m.isotopeNumbers))
	copy(out, m.isotopeNumbers)
	return out
}

// AtomCounts 回傳每個 slot 的原子數（複本）。
func (m *Molecule) AtomCounts() []int {
	out := make([]int, len(m.atomCounts))
	copy(out, m.atomCounts)
	return out
}

// ModeLProb 回傳聯合眾數的 log-機率（各 slot 眾數 lprob 之和）。
func (m *Molecule) ModeLProb() float64 { return m.modeLProb }

// LightestPeakMass 回傳最輕峰質量（每個元素全取最輕同位素）。
func (m *Molecule) LightestPeakMass() float64 {
	sum := 0.0
	for _, s := range m.slots {
		sum += s.LightestMass()
	}
	return sum
}

// HeaviestPeakMass 回傳最重峰質量。
func (m *Molecule) HeaviestPeakMass() float64 {
	sum := 0.0
	for _, s := range m.slots {
		sum += s.HeaviestMass()
	}
	return sum
}

// Clone 回傳一個可再被 driver 吸收的獨立複本。
// Slot 建構後唯讀，複本與原件共享 Slot 本體是安全的。
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		dimNumber:      m.dimNumber,
		isotopeNumbers: append([]int(nil), m.isotopeNumbers...),
		atomCounts:     append([]int(nil), m.atomCounts...),
		slots:          append([]*marginal.Slot(nil), m.slots...),
		modeLProb:      m.modeLProb,
		allDim:         m.allDim,
	}
	return c
}

// takeSlots 把 slot 所有權移交給 driver；第二次呼叫失敗。
func (m *Molecule) takeSlots() ([]*marginal.Slot, error) {
	if m.disowned {
		return nil, errs.NewFatal("molecule already consumed by a driver (use Clone)")
	}
	m.disowned = true
	return m.slots, nil
}
