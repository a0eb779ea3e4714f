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
	"sort"
	"testing"

	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/sdk/chem"
	"github.com/zintix-labs/isolab/sdk/marginal"
)

func mustMolecule(t *testing.T, formula string) *Molecule {
	t.Helper()
	mol, err := NewMolecule(formula)
	if err != nil {
		t.Fatalf("molecule %s: %v", formula, err)
	}
	return mol
}

type peak struct {
	mass  float64
	lprob float64
	eprob float64
}

func drain(t *testing.T, gen Generator, limit int) []peak {
	t.Helper()
	out := []peak{}
	for gen.Advance() {
		out = append(out, peak{mass: gen.Mass(), lprob: gen.LProb(), eprob: gen.EProb()})
		if limit > 0 && len(out) > limit {
			t.Fatalf("generator did not terminate within %d emissions", limit)
		}
	}
	return out
}

// ------------------------------------------------------------
// threshold driver
// ------------------------------------------------------------

func TestThresholdSingleCarbon(t *testing.T) {
	gen, err := NewThresholdGenerator(mustMolecule(t, "C1"), 1e-30, true)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	peaks := drain(t, gen, 10)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 configurations, got %d", len(peaks))
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].mass < peaks[j].mass })

	if math.Abs(peaks[0].mass-12.0) > 1e-9 || math.Abs(peaks[1].mass-13.0033548378) > 1e-9 {
		t.Fatalf("unexpected masses: %v %v", peaks[0].mass, peaks[1].mass)
	}
	if math.Abs(peaks[0].eprob-0.989212) > 1e-6 || math.Abs(peaks[1].eprob-0.010788) > 1e-6 {
		t.Fatalf("unexpected probs: %v %v", peaks[0].eprob, peaks[1].eprob)
	}
}

func TestThresholdTinyCutoffFullEnumeration(t *testing.T) {
	// C100 在 1e-200 相對閾值下：全部 101 個組態，機率總和 = 1
	gen, err := NewThresholdGenerator(mustMolecule(t, "C100"), 1e-200, false)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	peaks := drain(t, gen, 1000)
	if len(peaks) != 101 {
		t.Fatalf("expected 101 configurations, got %d", len(peaks))
	}
	sum := 0.0
	for _, p := range peaks {
		sum += p.eprob
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("probabilities sum to %v, want 1 within 1e-12", sum)
	}
}

func TestThresholdCountMatchesBruteForce(t *testing.T) {
	// C100 在 1e-2 相對閾值：與 101 組態的暴力重算對比
	mol := mustMolecule(t, "C100")
	cutoff := math.Log(1e-2) + mol.ModeLProb()

	elem, _ := chem.Default().Lookup("C")
	slot := marginal.NewSlot(100, elem.Masses, elem.Probs)
	want := 0
	for a := 0; a <= 100; a++ {
		if slot.LProbOf([]int{a, 100 - a}) >= cutoff {
			want++
		}
	}

	gen, err := NewCountThresholdGenerator(mol, 1e-2, false)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if got := gen.Count(); got != want {
		t.Fatalf("driver emitted %d configurations, brute force says %d", got, want)
	}
}

func TestThresholdBoundMassBoundsAndConfConsistency(t *testing.T) {
	mol := mustMolecule(t, "C100H202O10")
	lo, hi := mol.LightestPeakMass(), mol.HeaviestPeakMass()
	allDim := mol.AllDim()
	atomCounts := mol.AtomCounts()
	isoNums := mol.IsotopeNumbers()
	cutoff := math.Log(1e-3) + mol.ModeLProb()

	// 對照用 slot（與 driver 內部同一套表）
	slots := make([]*marginal.Slot, 0, 3)
	for _, sym := range []string{"C", "H", "O"} {
		e, _ := chem.Default().Lookup(sym)
		n := 0
		switch sym {
		case "C":
			n = 100
		case "H":
			n = 202
		case "O":
			n = 10
		}
		slots = append(slots, marginal.NewSlot(n, e.Masses, e.Probs))
	}

	gen, err := NewThresholdGenerator(mol, 1e-3, false)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	sig := make([]int32, allDim)
	emitted := 0
	for gen.Advance() {
		emitted++
		if emitted > 2_000_000 {
			t.Fatalf("driver did not terminate")
		}
		if gen.LProb() < cutoff {
			t.Fatalf("emission below cutoff: %v < %v", gen.LProb(), cutoff)
		}
		if gen.Mass() < lo-1e-9 || gen.Mass() > hi+1e-9 {
			t.Fatalf("mass %v outside [%v, %v]", gen.Mass(), lo, hi)
		}

		gen.ConfSignature(sig)
		at := 0
		mass, lprob := 0.0, 0.0
		for d, k := range isoNums {
			conf := make([]int, k)
			total := 0
			for j := 0; j < k; j++ {
				conf[j] = int(sig[at])
				total += conf[j]
				at++
			}
			if total != atomCounts[d] {
				t.Fatalf("slot %d signature sums to %d, want %d", d, total, atomCounts[d])
			}
			mass += slots[d].MassOf(conf)
			lprob += slots[d].LProbOf(conf)
		}
		if math.Abs(mass-gen.Mass()) > 1e-6 {
			t.Fatalf("mass from signature %v != driver mass %v", mass, gen.Mass())
		}
		if math.Abs(lprob-gen.LProb()) > 1e-9 {
			t.Fatalf("lprob from signature %v != driver lprob %v", lprob, gen.LProb())
		}
	}
	if emitted == 0 {
		t.Fatalf("no emissions")
	}
}

func TestThresholdAboveModeIsEmpty(t *testing.T) {
	gen, err := NewThresholdGenerator(mustMolecule(t, "C100"), 0.9, true)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if gen.Advance() {
		t.Fatalf("cutoff above the mode must yield nothing")
	}
}

func TestThresholdTerminate(t *testing.T) {
	gen, err := NewThresholdGenerator(mustMolecule(t, "C100"), 1e-10, false)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if !gen.Advance() {
		t.Fatalf("first advance should succeed")
	}
	gen.Terminate()
	if gen.Advance() {
		t.Fatalf("advance after terminate should fail")
	}
}

func TestInvalidThreshold(t *testing.T) {
	cases := []struct {
		tau      float64
		absolute bool
	}{
		{0, true},
		{-1, false},
		{1.5, false}, // 相對比例超過 1
	}
	for _, c := range cases {
		_, err := NewThresholdGenerator(mustMolecule(t, "C10"), c.tau, c.absolute)
		if err == nil {
			t.Fatalf("threshold %v (absolute=%v) should fail", c.tau, c.absolute)
		}
		if !errs.IsKind(err, errs.KindInvalidThreshold) {
			t.Fatalf("expected invalid_threshold kind, got %v", err)
		}
	}
	// 絕對模式允許 > 1 的無意義值以外——絕對 τ ≤ 1 才有意義，但 τ ∈ (0,1] 合法
	if _, err := NewThresholdGenerator(mustMolecule(t, "C10"), 0.5, true); err != nil {
		t.Fatalf("absolute 0.5 should be fine: %v", err)
	}
}

// ------------------------------------------------------------
// 變體一致性
// ------------------------------------------------------------

func TestVariantCountInvariance(t *testing.T) {
	const formula = "C100H202O10"
	const tau = 1e-3

	base, err := NewThresholdGenerator(mustMolecule(t, formula), tau, false)
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	fast, err := NewFastThresholdGenerator(mustMolecule(t, formula), tau, false)
	if err != nil {
		t.Fatalf("fast: %v", err)
	}
	cnt, err := NewCountThresholdGenerator(mustMolecule(t, formula), tau, false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	nBase := len(drain(t, base, 2_000_000))
	nFast := len(drain(t, fast, 2_000_000))
	nCnt := cnt.Count()

	if nBase != nFast || nBase != nCnt {
		t.Fatalf("variant counts diverge: base=%d fast=%d count=%d", nBase, nFast, nCnt)
	}

	par, err := NewParallelThresholdGenerator(mustMolecule(t, formula), tau, false)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	nPar := 0
	w := par.NewWorker()
	for w.Advance() {
		nPar++
	}
	if nPar != nBase {
		t.Fatalf("parallel(1 worker) emitted %d, sequential %d", nPar, nBase)
	}
}

func TestFastMatchesBasePeakwise(t *testing.T) {
	const formula = "C50H100"
	base, _ := NewThresholdGenerator(mustMolecule(t, formula), 1e-4, false)
	fast, _ := NewFastThresholdGenerator(mustMolecule(t, formula), 1e-4, false)

	pb := drain(t, base, 100000)
	pf := drain(t, fast, 100000)
	if len(pb) != len(pf) {
		t.Fatalf("lengths diverge: %d vs %d", len(pb), len(pf))
	}
	for i := range pb {
		if pb[i] != pf[i] {
			t.Fatalf("peak %d diverges: %+v vs %+v", i, pb[i], pf[i])
		}
	}
}

func TestParallelMatchesSequentialSet(t *testing.T) {
	const formula = "C100H202"
	const tau = 1e-2

	seq, _ := NewFastThresholdGenerator(mustMolecule(t, formula), tau, false)
	want := drain(t, seq, 100000)

	par, err := NewParallelThresholdGenerator(mustMolecule(t, formula), tau, false)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	got := []peak{}
	done := make(chan []peak, 4)
	for i := 0; i < 4; i++ {
		go func() {
			w := par.NewWorker()
			mine := []peak{}
			for w.Advance() {
				mine = append(mine, peak{mass: w.Mass(), lprob: w.LProb(), eprob: w.EProb()})
			}
			done <- mine
		}()
	}
	for i := 0; i < 4; i++ {
		got = append(got, <-done...)
	}

	if len(got) != len(want) {
		t.Fatalf("parallel emitted %d, sequential %d", len(got), len(want))
	}
	byMass := func(p []peak) {
		sort.Slice(p, func(i, j int) bool {
			if p[i].mass != p[j].mass {
				return p[i].mass < p[j].mass
			}
			return p[i].lprob < p[j].lprob
		})
	}
	byMass(got)
	byMass(want)
	for i := range want {
		if math.Abs(got[i].mass-want[i].mass) > 1e-9 || math.Abs(got[i].lprob-want[i].lprob) > 1e-9 {
			t.Fatalf("peak %d diverges: %+v vs %+v", i, got[i], want[i])
		}
	}
}

// ------------------------------------------------------------
// ordered driver
// ------------------------------------------------------------

func TestOrderedHydrogenPair(t *testing.T) {
	gen, err := NewOrderedGenerator(mustMolecule(t, "H2"))
	if err != nil {
		t.Fatalf("driver: %v", err)
	}

	wantProbs := []float64{0.999770, 0.00022997355, 1.3225e-8}
	sig := make([]int32, 2)
	wantSigs := [][2]int32{{2, 0}, {1, 1}, {0, 2}}

	for i := 0; i < 3; i++ {
		if !gen.Advance() {
			t.Fatalf("advance %d failed", i)
		}
		if rel := math.Abs(gen.EProb()-wantProbs[i]) / wantProbs[i]; rel > 1e-4 {
			t.Fatalf("emission %d: eprob %v, want %v", i, gen.EProb(), wantProbs[i])
		}
		gen.ConfSignature(sig)
		if sig[0] != wantSigs[i][0] || sig[1] != wantSigs[i][1] {
			t.Fatalf("emission %d: signature %v, want %v", i, sig, wantSigs[i])
		}
	}
	if gen.Advance() {
		t.Fatalf("H2 has only 3 isotopologues")
	}
}

func TestOrderedMonotoneFromMode(t *testing.T) {
	mol := mustMolecule(t, "C100H202")
	modeLProb := mol.ModeLProb()
	gen, err := NewOrderedGenerator(mol)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}

	prev := math.Inf(1)
	for i := 0; i < 500; i++ {
		if !gen.Advance() {
			t.Fatalf("space larger than 500, advance %d failed", i)
		}
		if i == 0 && math.Abs(gen.LProb()-modeLProb) > 1e-9 {
			t.Fatalf("first emission %v is not the joint mode %v", gen.LProb(), modeLProb)
		}
		if gen.LProb() > prev {
			t.Fatalf("emission %d: lprob %v above previous %v", i, gen.LProb(), prev)
		}
		prev = gen.LProb()
	}
}

func TestOrderedMatchesThresholdSet(t *testing.T) {
	// ordered 依序輸出，閾值內的前綴應與 threshold driver 的集合一致
	mol := mustMolecule(t, "C30O5")
	cutoff := math.Log(1e-3) + mol.ModeLProb()

	thr, _ := NewThresholdGenerator(mustMolecule(t, "C30O5"), 1e-3, false)
	want := len(drain(t, thr, 100000))

	gen, _ := NewOrderedGenerator(mol)
	got := 0
	for gen.Advance() {
		if gen.LProb() < cutoff {
			break
		}
		got++
		if got > 100000 {
			t.Fatalf("runaway")
		}
	}
	if got != want {
		t.Fatalf("ordered prefix has %d configs, threshold driver %d", got, want)
	}
}

// ------------------------------------------------------------
// layered driver
// ------------------------------------------------------------

func TestLayeredCoverage(t *testing.T) {
	gen, err := NewLayeredGenerator(mustMolecule(t, "C100H202"), -3.0, 0.999)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	peaks := drain(t, gen, 1_000_000)
	if len(peaks) == 0 {
		t.Fatalf("no emissions")
	}
	if gen.Coverage() < 0.999 {
		t.Fatalf("coverage %v below target", gen.Coverage())
	}
	if gen.Coverage() > 1.0+1e-9 {
		t.Fatalf("coverage %v above 1", gen.Coverage())
	}

	// 無重複輸出：質量+lprob 當鍵
	seen := map[peak]bool{}
	for _, p := range peaks {
		if seen[p] {
			t.Fatalf("duplicate emission %+v", p)
		}
		seen[p] = true
	}
}

func TestLayeredEquivalentToThreshold(t *testing.T) {
	gen, err := NewLayeredGenerator(mustMolecule(t, "C100"), -5.0, 0.9)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	layered := drain(t, gen, 10000)
	lcut := gen.LCutoff()

	thr, err := NewThresholdGenerator(mustMolecule(t, "C100"), math.Exp(lcut), true)
	if err != nil {
		t.Fatalf("threshold: %v", err)
	}
	want := drain(t, thr, 10000)

	if len(layered) != len(want) {
		t.Fatalf("layered emitted %d configs, threshold at final cutoff %d", len(layered), len(want))
	}
	sumL, sumT := 0.0, 0.0
	for i := range layered {
		sumL += layered[i].eprob
		sumT += want[i].eprob
	}
	if math.Abs(sumL-sumT) > 1e-12 {
		t.Fatalf("probability mass diverges: %v vs %v", sumL, sumT)
	}
}

func TestLayeredManualMode(t *testing.T) {
	gen, err := NewLayeredGenerator(mustMolecule(t, "C100"), -2.0, 0)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	first := len(drain(t, gen, 10000))
	if first == 0 {
		t.Fatalf("first layer empty")
	}
	if err := gen.NextLayer(-2.0); err != nil {
		t.Fatalf("next layer: %v", err)
	}
	second := len(drain(t, gen, 10000))
	if second == 0 {
		t.Fatalf("second layer empty")
	}
	if err := gen.NextLayer(2.0); err == nil {
		t.Fatalf("positive delta should fail")
	}
}

// ------------------------------------------------------------
// 不變式：機率總和、巨大分子
// ------------------------------------------------------------

func TestProbabilitySumWater(t *testing.T) {
	gen, err := NewThresholdGenerator(mustMolecule(t, "H2O"), 1e-300, true)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	peaks := drain(t, gen, 100)
	sum := 0.0
	for _, p := range peaks {
		sum += p.eprob
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("full enumeration sums to %v, want 1", sum)
	}
}

func TestHugeMoleculeTerminates(t *testing.T) {
	mol := mustMolecule(t, "C2000H40000")
	cutoff := math.Log(1e-2) + mol.ModeLProb()
	gen, err := NewFastThresholdGenerator(mol, 1e-2, false)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	sum := 0.0
	n := 0
	for gen.Advance() {
		n++
		if n > 10_000_000 {
			t.Fatalf("driver did not terminate")
		}
		if gen.LProb() < cutoff {
			t.Fatalf("emission below cutoff")
		}
		sum += gen.EProb()
	}
	if n == 0 {
		t.Fatalf("no emissions")
	}
	if sum <= 0 || sum > 1.0+1e-9 {
		t.Fatalf("probability mass %v out of (0, 1]", sum)
	}
}

// ------------------------------------------------------------
// molecule 所有權與建構
// ------------------------------------------------------------

func TestMoleculeOwnership(t *testing.T) {
	mol := mustMolecule(t, "C10")
	if _, err := NewThresholdGenerator(mol, 1e-3, false); err != nil {
		t.Fatalf("first driver: %v", err)
	}
	if _, err := NewOrderedGenerator(mol); err == nil {
		t.Fatalf("second driver from a consumed molecule should fail")
	}

	mol2 := mustMolecule(t, "C10")
	clone := mol2.Clone()
	if _, err := NewThresholdGenerator(mol2, 1e-3, false); err != nil {
		t.Fatalf("driver from original: %v", err)
	}
	if _, err := NewThresholdGenerator(clone, 1e-3, false); err != nil {
		t.Fatalf("driver from clone: %v", err)
	}
}

func TestMoleculeRawConstruction(t *testing.T) {
	mol, err := NewMoleculeRaw(
		[]int{100, 202},
		[][]float64{{12.0, 13.0033548378}, {1.00782503207, 2.0141017778}},
		[][]float64{{0.989212, 0.010788}, {0.999885, 0.000115}},
	)
	if err != nil {
		t.Fatalf("raw construction: %v", err)
	}
	viaFormula := mustMolecule(t, "C100H202")
	if math.Abs(mol.ModeLProb()-viaFormula.ModeLProb()) > 1e-12 {
		t.Fatalf("mode lprob diverges: %v vs %v", mol.ModeLProb(), viaFormula.ModeLProb())
	}
	if mol.AllDim() != 4 {
		t.Fatalf("allDim = %d, want 4", mol.AllDim())
	}
}

func TestMoleculeMassBounds(t *testing.T) {
	mol := mustMolecule(t, "C100H202")
	wantLo := 100*12.0 + 202*1.00782503207
	wantHi := 100*13.0033548378 + 202*2.0141017778
	if math.Abs(mol.LightestPeakMass()-wantLo) > 1e-6 {
		t.Fatalf("lightest = %v, want %v", mol.LightestPeakMass(), wantLo)
	}
	if math.Abs(mol.HeaviestPeakMass()-wantHi) > 1e-6 {
		t.Fatalf("heaviest = %v, want %v", mol.HeaviestPeakMass(), wantHi)
	}
}
