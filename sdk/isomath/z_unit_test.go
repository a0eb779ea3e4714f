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

package isomath

import (
	"math"
	"testing"
)

func TestLogFactorialSmall(t *testing.T) {
	want := []float64{0, 0, math.Log(2), math.Log(6), math.Log(24), math.Log(120)}
	for n, w := range want {
		got := LogFactorial(n)
		if math.Abs(got-w) > 1e-12 {
			t.Fatalf("LogFactorial(%d) = %v, want %v", n, got, w)
		}
	}
}

func TestLogFactorialTableBoundary(t *testing.T) {
	// 表內最後一格與表外第一格必須與 Lgamma 一致（無縫接軌）
	for _, n := range []int{logFactorialTableSize - 1, logFactorialTableSize, logFactorialTableSize + 1} {
		lg, _ := math.Lgamma(float64(n) + 1)
		got := LogFactorial(n)
		if math.Abs(got-lg) > 1e-9 {
			t.Fatalf("LogFactorial(%d) = %v, want %v", n, got, lg)
		}
	}
}

func TestLogFactorialNegative(t *testing.T) {
	if !math.IsNaN(LogFactorial(-1)) {
		t.Fatalf("LogFactorial(-1) should be NaN")
	}
}

func TestLogBinomial(t *testing.T) {
	// C(10,3) = 120
	got := LogBinomial(10, 3)
	if math.Abs(got-math.Log(120)) > 1e-9 {
		t.Fatalf("LogBinomial(10,3) = %v, want %v", got, math.Log(120))
	}
	if !math.IsInf(LogBinomial(3, 5), -1) {
		t.Fatalf("LogBinomial(3,5) should be -Inf")
	}
}

// 上界性質：偏置後的 lprob 不得低於無偏計算超過數個 ulp，
// 也不得高出太多（只差方向性的 ulp 推移）。
func TestLogMultinomialUpperBias(t *testing.T) {
	probs := []float64{0.989212, 0.010788}
	lProbs := []float64{math.Log(probs[0]), math.Log(probs[1])}

	for a := 0; a <= 100; a++ {
		conf := []int{a, 100 - a}
		biased := LogMultinomial(100, conf, lProbs)

		plain := LogFactorial(100) - LogFactorial(a) - LogFactorial(100-a) +
			float64(a)*lProbs[0] + float64(100-a)*lProbs[1]

		if biased < plain-1e-12 {
			t.Fatalf("conf %v: biased %v below plain %v", conf, biased, plain)
		}
		if biased > plain+1e-10 {
			t.Fatalf("conf %v: biased %v too far above plain %v", conf, biased, plain)
		}
	}
}

// 二項式機率總和 = 1（多項式定理）
func TestLogMultinomialSumsToOne(t *testing.T) {
	probs := []float64{0.7576, 0.2424} // Cl
	lProbs := []float64{math.Log(probs[0]), math.Log(probs[1])}

	n := 10
	sum := 0.0
	for a := 0; a <= n; a++ {
		sum += math.Exp(LogMultinomial(n, []int{a, n - a}, lProbs))
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("binomial probabilities sum to %v, want 1", sum)
	}
}

func TestMass(t *testing.T) {
	got := Mass([]int{2, 1}, []float64{12.0, 13.0033548378})
	want := 2*12.0 + 13.0033548378
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("Mass = %v, want %v", got, want)
	}
}
