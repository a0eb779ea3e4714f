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

	"github.com/zintix-labs/isolab/errs"
)

// Layered 是可分層延伸的邊際分布：Extend(L) 把已實體化前綴補到
// 「所有 lprob ≥ L 的組態」，L 必須嚴格小於上一次的截斷值。
//
// 底層 Trek（含其 priority queue 與 visited set）在兩次 Extend 之間
// 原地保留，延伸從上次停住的 queue 狀態續跑，不重複任何工作。
// Layered 會被 driver 懶成長，必須由單一 driver 獨占（或由外部上鎖）。
type Layered struct {
	trek    *Trek
	lCutoff float64
}

func NewLayered(slot *Slot, tabSize, hashSize int) *Layered {
	return &Layered{
		trek:    NewTrek(slot, tabSize, hashSize),
		lCutoff: math.Inf(1),
	}
}

// Extend 把前綴延伸到涵蓋所有 lprob ≥ lCutoff 的組態。
func (l *Layered) Extend(lCutoff float64) error {
	if lCutoff >= l.lCutoff {
		return errs.Warnf("layered marginal: cutoff must strictly decrease (have %v, got %v)", l.lCutoff, lCutoff)
	}
	l.lCutoff = lCutoff
	for {
		lp, ok := l.trek.PeekLProb()
		if !ok || lp < lCutoff {
			return nil
		}
		l.trek.Extend()
	}
}

// Len 回傳目前前綴長度。
func (l *Layered) Len() int { return l.trek.Len() }

// Exhausted 回報組態空間是否已全數實體化（再 Extend 也不會變長）。
func (l *Layered) Exhausted() bool {
	_, ok := l.trek.PeekLProb()
	return !ok
}

// LCutoff 回傳目前的截斷值。
func (l *Layered) LCutoff() float64 { return l.lCutoff }

func (l *Layered) GetConf(i int) []int    { return l.trek.Conf(i) }
func (l *Layered) GetLProb(i int) float64 { return l.trek.LProb(i) }
func (l *Layered) GetMass(i int) float64  { return l.trek.Mass(i) }
func (l *Layered) GetEProb(i int) float64 { return l.trek.EProb(i) }

func (l *Layered) Slot() *Slot { return l.trek.Slot() }
