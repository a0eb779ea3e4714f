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

package chem

import (
	"math"
	"testing"

	"github.com/zintix-labs/isolab/errs"
)

func countOf(t *testing.T, c *Composition, sym string) int {
	t.Helper()
	for i, s := range c.Symbols {
		if s == sym {
			return c.AtomCounts[i]
		}
	}
	t.Fatalf("element %s not in composition %v", sym, c.Symbols)
	return 0
}

func TestParseFormulaEthanol(t *testing.T) {
	// C2H5OH -> C:2 H:6 O:1（重複元素相加）
	c, err := ParseFormula("C2H5OH")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c.DimNumber() != 3 {
		t.Fatalf("expected 3 slots, got %d", c.DimNumber())
	}
	if n := countOf(t, c, "C"); n != 2 {
		t.Fatalf("C count = %d, want 2", n)
	}
	if n := countOf(t, c, "H"); n != 6 {
		t.Fatalf("H count = %d, want 6", n)
	}
	if n := countOf(t, c, "O"); n != 1 {
		t.Fatalf("O count = %d, want 1", n)
	}
}

func TestParseFormulaImplicitOne(t *testing.T) {
	c, err := ParseFormula("C")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c.DimNumber() != 1 || c.AtomCounts[0] != 1 {
		t.Fatalf("unexpected composition: %+v", c)
	}
}

func TestParseFormulaTwoLetterSymbol(t *testing.T) {
	c, err := ParseFormula("Cl2Fe")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if n := countOf(t, c, "Cl"); n != 2 {
		t.Fatalf("Cl count = %d, want 2", n)
	}
	if n := countOf(t, c, "Fe"); n != 1 {
		t.Fatalf("Fe count = %d, want 1", n)
	}
}

func TestParseFormulaMalformed(t *testing.T) {
	for _, f := range []string{"co2", "2CO", "", "C0", "c"} {
		_, err := ParseFormula(f)
		if err == nil {
			t.Fatalf("formula %q should fail", f)
		}
		if !errs.IsKind(err, errs.KindMalformedFormula) {
			t.Fatalf("formula %q: expected malformed_formula kind, got %v", f, err)
		}
	}
}

func TestParseFormulaUnknownElement(t *testing.T) {
	_, err := ParseFormula("Xz9")
	if err == nil {
		t.Fatalf("Xz9 should fail")
	}
	if !errs.IsKind(err, errs.KindUnknownElement) {
		t.Fatalf("expected unknown_element kind, got %v", err)
	}
}

func TestBuiltinAbundancesNormalized(t *testing.T) {
	for _, e := range builtinElements {
		sum := 0.0
		for _, p := range e.Probs {
			sum += p
		}
		if math.Abs(sum-1.0) > probSumTolerance {
			t.Fatalf("element %s: abundances sum to %v", e.Symbol, sum)
		}
		if len(e.Masses) != len(e.Probs) {
			t.Fatalf("element %s: tables not parallel", e.Symbol)
		}
	}
}

func TestRegistryFreeze(t *testing.T) {
	r := NewRegistry()
	custom := Element{Symbol: "Cx", Masses: []float64{12.0, 13.0033548378}, Probs: []float64{0.5, 0.5}}
	if err := r.Register(custom); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	r.Freeze()
	if err := r.Register(Element{Symbol: "Cy", Masses: []float64{1}, Probs: []float64{1}}); err == nil {
		t.Fatalf("register after freeze should fail")
	}
	if _, ok := r.Lookup("Cx"); !ok {
		t.Fatalf("custom element not found")
	}
}

func TestRegistryRejectsDuplicateSymbol(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Element{Symbol: "C", Masses: []float64{12}, Probs: []float64{1}})
	if err == nil {
		t.Fatalf("overriding builtin symbol should fail")
	}
}

func TestElementsFromYAML(t *testing.T) {
	raw := []byte(`
elements:
  - symbol: Cx
    masses: [12.0, 13.0033548378]
    probs:  [0.5, 0.5]
`)
	elems, err := ElementsFromYAML(raw)
	if err != nil {
		t.Fatalf("yaml decode failed: %v", err)
	}
	if len(elems) != 1 || elems[0].Symbol != "Cx" {
		t.Fatalf("unexpected elements: %+v", elems)
	}

	r := NewRegistry()
	if err := r.Register(elems...); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	r.Freeze()
	c, err := ParseFormulaWith("Cx4", r)
	if err != nil {
		t.Fatalf("parse with custom table failed: %v", err)
	}
	if c.AtomCounts[0] != 4 {
		t.Fatalf("Cx count = %d, want 4", c.AtomCounts[0])
	}
}

func TestElementsFromYAMLBadAbundance(t *testing.T) {
	raw := []byte(`
elements:
  - symbol: Cx
    masses: [12.0, 13.0]
    probs:  [0.5, 0.6]
`)
	if _, err := ElementsFromYAML(raw); err == nil {
		t.Fatalf("abundances summing to 1.1 should fail")
	}
}

func TestElementsFromJSON(t *testing.T) {
	raw := []byte(`{"elements":[{"symbol":"Dx","masses":[2.0141017778],"probs":[1.0]}]}`)
	elems, err := ElementsFromJSON(raw)
	if err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(elems) != 1 || elems[0].Symbol != "Dx" {
		t.Fatalf("unexpected elements: %+v", elems)
	}
}
