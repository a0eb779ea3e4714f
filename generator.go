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
)

// Generator 是所有列舉 driver 的共同介面。
//
// 使用型態固定為：
//
//	for gen.Advance() {
//	    gen.Mass() / gen.LProb() / gen.EProb() / gen.ConfSignature(buf)
//	}
//
// Advance 回傳 false 後進入穩定終態，之後每次呼叫都回傳 false。
// 讀值方法只在最近一次 Advance 回傳 true 之後有定義。
type Generator interface {
	// Advance 前進到下一個 isotopologue；沒有下一個時回傳 false。
	Advance() bool

	// LProb 回傳目前 isotopologue 的 log-機率。
	LProb() float64

	// Mass 回傳目前 isotopologue 的質量（Da）。
	Mass() float64

	// EProb 回傳目前 isotopologue 的機率（exp(LProb) 的平行快取）。
	EProb() float64

	// ConfSignature 把目前組態的逐同位素原子數寫進 space，
	// 長度必須 ≥ Molecule.AllDim()。
	ConfSignature(space []int32)

	// Terminate 讓後續所有 Advance 直接回傳 false；進行中的呼叫不中斷。
	Terminate()
}

// resolveCutoff 把使用者閾值換算成 log-截斷值。
//
//   - absolute=true：截斷值為 ln(threshold)。
//   - absolute=false：threshold 為相對於眾數高度的比例，
//     截斷值為 ln(threshold) + 聯合眾數 lprob。
//
// threshold ≤ 0，或相對模式下 > 1，皆為 InvalidThreshold
// （相對比例超過 1 必然空集合，視為呼叫端錯誤而非靜默回空）。
func resolveCutoff(threshold float64, absolute bool, modeLProb float64) (float64, error) {
	if threshold <= 0 || math.IsNaN(threshold) {
		return 0, errs.Kindf(errs.KindInvalidThreshold, "threshold must be positive, got %v", threshold)
	}
	if !absolute && threshold > 1 {
		return 0, errs.Kindf(errs.KindInvalidThreshold, "relative threshold must not exceed 1, got %v", threshold)
	}
	lCutoff := math.Log(threshold)
	if !absolute {
		lCutoff += modeLProb
	}
	return lCutoff, nil
}
