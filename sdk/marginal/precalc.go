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
	"math"
)

// Precalc 一次取出 slot 上所有 lprob ≥ lCutoff 的組態，依 lprob 遞減
// 排序後凍結。建構完成後全程唯讀，可被多個 driver / goroutine 共享。
//
// 內部表的長度為 Len()+1：lprob 表尾端帶一個 −Inf 哨兵，讓 threshold
// driver 最內圈的掃描走到表尾時自然觸發進位，不必逐步做邊界檢查。
// mass/eprob 表同長（哨兵位為 0），確保同 index 存取永遠在界內。
type Precalc struct {
	slot   *Slot
	confs  [][]int
	lProbs []float64
	masses []float64
	eProbs []float64
	n      int
}

// NewPrecalc 建構。內部用一個 Trek 依序抽出組態，第一次遇到
// lprob < lCutoff 就停（Trek 輸出單調遞減，之後不可能再達標）。
func NewPrecalc(slot *Slot, lCutoff float64, tabSize, hashSize int) *Precalc {
	t := NewTrek(slot, tabSize, hashSize)
	for {
		lp, ok := t.PeekLProb()
		if !ok || lp < lCutoff {
			break
		}
		t.Extend()
	}

	n := t.Len()
	p := &Precalc{
		slot:   slot,
		confs:  make([][]int, n),
		lProbs: make([]float64, n+1),
		masses: make([]float64, n+1),
		eProbs: make([]float64, n+1),
		n:      n,
	}
	for i := 0; i < n; i++ {
		p.confs[i] = t.Conf(i)
		p.lProbs[i] = t.LProb(i)
		p.masses[i] = t.Mass(i)
		p.eProbs[i] = t.EProb(i)
	}
	p.lProbs[n] = math.Inf(-1)
	return p
}

// Len 回傳達標組態數（不含哨兵）。
func (p *Precalc) Len() int { return p.n }

func (p *Precalc) GetConf(i int) []int    { return p.confs[i] }
func (p *Precalc) GetLProb(i int) float64 { return p.lProbs[i] }
func (p *Precalc) GetMass(i int) float64  { return p.masses[i] }
func (p *Precalc) GetEProb(i int) float64 { return p.eProbs[i] }

// LProbs 回傳含哨兵的 lprob 表，給熱迴圈直接走訪。呼叫端不得修改。
func (p *Precalc) LProbs() []float64 { return p.lProbs }
func (p *Precalc) Masses() []float64 { return p.masses }
func (p *Precalc) EProbs() []float64 { return p.eProbs }

func (p *Precalc) Slot() *Slot { return p.slot }
