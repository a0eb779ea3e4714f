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

// Package marginal 實作單一元素 slot 的邊際（subisotopologue）分布。
//
// 一個 slot 描述「某元素的 n 顆原子怎麼分給它的 k 種同位素」：
// 組態 (c₁,…,c_k)、Σcᵢ = n，機率為多項式項 n!·∏pᵢ^cᵢ/∏cᵢ!。
// 組態空間大小 C(n+k−1, k−1)，不可全列舉；本包提供四種取用方式：
//
//   - Slot：只算眾數（mode）與質量上下界，不列舉（基底）。
//   - Trek：priority queue 擴張，依機率遞減逐一實體化（隨需成長）。
//   - Precalc：一次取出所有 lprob ≥ 截斷值的組態，排序後凍結（唯讀可共享）。
//   - Layered：以遞減的截斷值分層延伸，底層 Trek 狀態續用、不重算。
package marginal

import (
	"math"
	"sort"

	"github.com/zintix-labs/isolab/sdk/isomath"
)

// Slot 是一個元素 slot 的邊際分布基底：持有同位素表與眾數組態。
// 所有欄位建構後唯讀。
type Slot struct {
	atomCnt   int
	isotopeNo int
	masses    []float64
	probs     []float64
	lProbs    []float64 // ln pᵢ，預先取好，熱路徑不再呼叫 math.Log
	modeConf  []int
	modeLProb float64
	lightest  float64
	heaviest  float64
}

// NewSlot 建立元素 slot 並計算眾數。
//
// 眾數不列舉求得：cᵢ 先取 floor(n·pᵢ)，餘數依小數部位由大到小補 1
// （同小數部位時 index 小者優先，確保 determinism）。取整結果在邊界
// 情形不是 argmax（例：C50 取整得 [49 1]，眾數為 [50 0]），所以再以
// 一步搬移爬坡，直到沒有更高的鄰居；多項式分布 log-凹，局部最大即全域最大。
// 因此 index 0 一定是眾數，Trek 的輸出從第一筆起就是非遞增。
func NewSlot(atomCnt int, masses, probs []float64) *Slot {
	k := len(masses)
	s := &Slot{
		atomCnt:   atomCnt,
		isotopeNo: k,
		masses:    masses,
		probs:     probs,
		lProbs:    make([]float64, k),
		modeConf:  make([]int, k),
	}

	minMass, maxMass := masses[0], masses[0]
	for i := 0; i < k; i++ {
		s.lProbs[i] = math.Log(probs[i])
		if masses[i] < minMass {
			minMass = masses[i]
		}
		if masses[i] > maxMass {
			maxMass = masses[i]
		}
	}
	s.lightest = float64(atomCnt) * minMass
	s.heaviest = float64(atomCnt) * maxMass

	type fracIdx struct {
		frac float64
		idx  int
	}
	rem := atomCnt
	fracs := make([]fracIdx, k)
	for i := 0; i < k; i++ {
		exact := float64(atomCnt) * probs[i]
		base := int(math.Floor(exact))
		s.modeConf[i] = base
		rem -= base
		fracs[i] = fracIdx{frac: exact - float64(base), idx: i}
	}
	sort.SliceStable(fracs, func(a, b int) bool { return fracs[a].frac > fracs[b].frac })
	for i := 0; i < rem; i++ {
		s.modeConf[fracs[i].idx]++
	}

	s.modeLProb = isomath.LogMultinomial(atomCnt, s.modeConf, s.lProbs)
	for improved := true; improved; {
		improved = false
		for from := 0; from < k; from++ {
			for to := 0; to < k; to++ {
				if to == from || s.modeConf[from] == 0 {
					continue
				}
				s.modeConf[from], s.modeConf[to] = s.modeConf[from]-1, s.modeConf[to]+1
				if lp := isomath.LogMultinomial(atomCnt, s.modeConf, s.lProbs); lp > s.modeLProb {
					s.modeLProb, improved = lp, true
				} else {
					s.modeConf[from], s.modeConf[to] = s.modeConf[from]+1, s.modeConf[to]-1
				}
			}
		}
	}
	return s
}

func (s *Slot) AtomCount() int     { return s.atomCnt }
func (s *Slot) IsotopeNumber() int { return s.isotopeNo }

func (s *Slot) Masses() []float64 { return s.masses }
func (s *Slot) Probs() []float64  { return s.probs }
func (s *Slot) LProbs() []float64 { return s.lProbs }

// ModeConf 回傳眾數組態的複本。
func (s *Slot) ModeConf() []int {
	out := make([]int, len(s.modeConf))
	copy(out, s.modeConf)
	return out
}

// ModeLProb 回傳眾數組態的 log-機率（上界偏置，見 isomath）。
func (s *Slot) ModeLProb() float64 { return s.modeLProb }

// LightestMass / HeaviestMass 是理論質量界：全部原子取最輕/最重同位素。
func (s *Slot) LightestMass() float64 { return s.lightest }
func (s *Slot) HeaviestMass() float64 { return s.heaviest }

// LProbOf 計算任一組態的 log-機率（上界偏置）。
func (s *Slot) LProbOf(conf []int) float64 {
	return isomath.LogMultinomial(s.atomCnt, conf, s.lProbs)
}

// MassOf 計算任一組態的質量。
func (s *Slot) MassOf(conf []int) float64 {
	return isomath.Mass(conf, s.masses)
}
