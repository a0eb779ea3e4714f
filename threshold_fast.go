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

// FastThresholdGenerator 與 ThresholdGenerator 輸出完全相同的集合，
// 但把第 0 維（熱維度）的三張邊際表快取成本地 slice，最內圈只推進
// lprob 前綴；mass/eprob 延後到確定要輸出才補。
//
// Advance 幾乎總是以 while(gen.Advance()) 緊迴圈呼叫，第 0 維的命中率
// 遠高於進位，本地 slice + 單一 index 讓邊界檢查與間接定址降到最低。
type FastThresholdGenerator struct {
	*thresholdBase
	lProbs0 []float64
	masses0 []float64
	eProbs0 []float64
}

// NewFastThresholdGenerator 建立 fast threshold driver 並吸收 mol。
func NewFastThresholdGenerator(mol *Molecule, threshold float64, absolute bool) (*FastThresholdGenerator, error) {
	return NewFastThresholdGeneratorSized(mol, threshold, absolute, defaultTabSize, defaultHashSize)
}

// NewFastThresholdGeneratorSized 同上，可指定表容量 hint。
func NewFastThresholdGeneratorSized(mol *Molecule, threshold float64, absolute bool, tabSize, hashSize int) (*FastThresholdGenerator, error) {
	base, err := newThresholdBase(mol, threshold, absolute, tabSize, hashSize)
	if err != nil {
		return nil, err
	}
	g := &FastThresholdGenerator{thresholdBase: base}
	if !base.terminated {
		g.lProbs0 = base.marginals[0].LProbs()
		g.masses0 = base.marginals[0].Masses()
		g.eProbs0 = base.marginals[0].EProbs()
	}
	return g, nil
}

// Advance 前進到下一個達標組態。
func (g *FastThresholdGenerator) Advance() bool {
	if g.terminated {
		return false
	}
	g.counter[0]++
	i0 := g.counter[0]
	lp := g.partialLProbs[1] + g.lProbs0[i0]
	g.partialLProbs[0] = lp
	if lp >= g.lCutoff {
		g.partialMasses[0] = g.partialMasses[1] + g.masses0[i0]
		g.partialEProbs[0] = g.partialEProbs[1] * g.eProbs0[i0]
		return true
	}
	return g.carry()
}

// CountThresholdGenerator 與 ThresholdGenerator 走訪同一個集合，
// 但不維護 mass 與 eprob 前綴，給只需要組態總數的呼叫端。
// Mass/EProb/ConfSignature 無定義（回傳零值 / 不寫入）。
type CountThresholdGenerator struct {
	*thresholdBase
	lProbs0 []float64
}

// NewCountThresholdGenerator 建立 count-only threshold driver 並吸收 mol。
func NewCountThresholdGenerator(mol *Molecule, threshold float64, absolute bool) (*CountThresholdGenerator, error) {
	base, err := newThresholdBase(mol, threshold, absolute, defaultTabSize, defaultHashSize)
	if err != nil {
		return nil, err
	}
	g := &CountThresholdGenerator{thresholdBase: base}
	if !base.terminated {
		g.lProbs0 = base.marginals[0].LProbs()
	}
	return g, nil
}

// Advance 前進到下一個達標組態（只推進 lprob 前綴）。
func (g *CountThresholdGenerator) Advance() bool {
	if g.terminated {
		return false
	}
	g.counter[0]++
	lp := g.partialLProbs[1] + g.lProbs0[g.counter[0]]
	g.partialLProbs[0] = lp
	if lp >= g.lCutoff {
		return true
	}
	return g.carryCount()
}

// carryCount 是 carry 的免 mass/eprob 版本。
func (g *CountThresholdGenerator) carryCount() bool {
	idx := 0
	for idx < g.dim-1 {
		g.counter[idx] = 0
		idx++
		g.counter[idx]++
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.marginals[idx].GetLProb(g.counter[idx])
		if g.partialLProbs[idx]+g.maxConfsLPSum[idx-1] >= g.lCutoff {
			for i := idx - 1; i >= 0; i-- {
				g.partialLProbs[i] = g.partialLProbs[i+1] + g.marginals[i].GetLProb(g.counter[i])
			}
			return true
		}
	}
	g.terminated = true
	return false
}

func (g *CountThresholdGenerator) Mass() float64  { return 0 }
func (g *CountThresholdGenerator) EProb() float64 { return 0 }

func (g *CountThresholdGenerator) ConfSignature(space []int32) {}

// Count 跑到耗盡並回傳輸出總數。呼叫後 driver 進入終態。
func (g *CountThresholdGenerator) Count() int {
	n := 0
	for g.Advance() {
		n++
	}
	return n
}
