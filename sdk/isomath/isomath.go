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

// Package isomath 提供列舉引擎需要的數值基礎：log-階乘、log-二項式係數，
// 以及帶方向性偏置的 log-多項式機率。
//
// 方向性偏置（directional bias）說明：
//   - 列舉器用 log-機率做剪枝：lprob < 閾值 的組態直接跳過。
//   - 若 lprob 被浮點誤差低估，合法組態會被錯殺；被高估則只會多走幾步、結果仍正確。
//   - C/C++ 實作用 fesetround 切換 FPU 捨入方向達成「永遠高估」；Go 沒有
//     捨入模式控制，這裡以 math.Nextafter 在每一步累加後往 +Inf 推一個 ulp，
//     效果等價：負向貢獻被推向較小絕對值、正向貢獻被往上推，總和是真值的上界。
//
// 代價是每一步累加多推一個 ulp，一個 lprob 至多推 3k 次（k = 同位素數），遠小於剪枝閾值的尺度。
package isomath

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// logFactorialTableSize 為預算表大小。化學式常見的原子數多落在表內；
// 超出表的值走 math.Lgamma（Stirling 級數在大引數下高度精確）。
const logFactorialTableSize = 1024

var logFactorialTable [logFactorialTableSize]float64

func init() {
	logFactorialTable[0] = 0
	for i := 1; i < logFactorialTableSize; i++ {
		lg, _ := math.Lgamma(float64(i + 1))
		logFactorialTable[i] = lg
	}
}

// LogFactorial 回傳 ln(n!)。n < 0 視為呼叫端錯誤，回傳 NaN 讓比較運算失敗。
func LogFactorial(n int) float64 {
	if n < 0 {
		return math.NaN()
	}
	if n < logFactorialTableSize {
		return logFactorialTable[n]
	}
	lg, _ := math.Lgamma(float64(n) + 1)
	return lg
}

// LogBinomial 回傳 ln C(n, k)。實作委給 gonum 的 generalized binomial，
// 其內部同樣以 log-gamma 計算，適用大 n。
func LogBinomial(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	return combin.LogGeneralizedBinomial(float64(n), float64(k))
}

// upOne 把 x 往 +Inf 推一個 ulp。
// 用於補償前一步加法/乘法的捨入：真值 ≤ upOne(捨入後結果)。
func upOne(x float64) float64 {
	return math.Nextafter(x, math.Inf(1))
}

// LogMultinomial 回傳 ln( n! · ∏ pᵢ^cᵢ / ∏ cᵢ! ) 的上界。
//
// 兩段式累加，對應 C 實作的 FE_TOWARDZERO / FE_UPWARD 兩個 pass：
//  1. 先累加 -ln cᵢ!（負值；往 +Inf 推 = 往較小絕對值推）
//  2. 再累加 cᵢ·ln pᵢ（負值；往 +Inf 推 = 往上推）
//
// conf 的元素和必須等於 n，lProbs[i] 必須是 ln(pᵢ)；皆由呼叫端保證。
func LogMultinomial(n int, conf []int, lProbs []float64) float64 {
	res := LogFactorial(n)

	for _, c := range conf {
		res = upOne(res - LogFactorial(c))
	}
	for i, c := range conf {
		if c == 0 {
			continue
		}
		res = upOne(res + upOne(float64(c)*lProbs[i]))
	}
	return res
}

// Mass 回傳 ∑ cᵢ·mᵢ。質量不參與剪枝，普通累加即可。
func Mass(conf []int, masses []float64) float64 {
	res := 0.0
	for i, c := range conf {
		res += float64(c) * masses[i]
	}
	return res
}
