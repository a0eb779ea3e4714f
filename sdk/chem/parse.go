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
	"github.com/zintix-labs/isolab/errs"
)

// Composition 是化學式解析結果：每個元素一個 slot，順序為化學式中
// 首次出現的順序（重複出現的元素會併入既有 slot）。
type Composition struct {
	Symbols    []string
	AtomCounts []int
	Elements   []Element
}

// DimNumber 回傳元素 slot 數。
func (c *Composition) DimNumber() int { return len(c.Symbols) }

// IsotopeNumbers 回傳每個 slot 的同位素數。
func (c *Composition) IsotopeNumbers() []int {
	out := make([]int, len(c.Elements))
	for i, e := range c.Elements {
		out[i] = len(e.Masses)
	}
	return out
}

// ParseFormula 解析化學式字串，文法為 ([A-Z][a-z]?\d*)+。
//
//   - 數字省略視為 1；元素順序不影響結果；重複元素的數量相加。
//   - 未知元素回傳 KindUnknownElement；文法錯誤回傳 KindMalformedFormula。
//   - 不支援括號、電荷、同位素標記——同位素分布一律來自元素表。
//
// 注意：解析器未對惡意輸入強化，只應餵入可信字串。
func ParseFormula(formula string) (*Composition, error) {
	return ParseFormulaWith(formula, defaultRegistry)
}

// ParseFormulaWith 與 ParseFormula 相同，但查指定的 Registry（須已凍結）。
func ParseFormulaWith(formula string, reg *Registry) (*Composition, error) {
	if formula == "" {
		return nil, errs.NewKind(errs.KindMalformedFormula, "empty formula")
	}
	if reg == nil {
		reg = defaultRegistry
	}

	comp := &Composition{}
	index := map[string]int{} // symbol -> comp slot

	i := 0
	n := len(formula)
	for i < n {
		ch := formula[i]
		if ch < 'A' || ch > 'Z' {
			return nil, errs.Kindf(errs.KindMalformedFormula, "expected element symbol at position %d in %q", i, formula)
		}
		sym := formula[i : i+1]
		i++
		if i < n && formula[i] >= 'a' && formula[i] <= 'z' {
			sym = formula[i-1 : i+1]
			i++
		}

		count := 0
		digits := 0
		for i < n && formula[i] >= '0' && formula[i] <= '9' {
			count = count*10 + int(formula[i]-'0')
			digits++
			i++
		}
		if digits == 0 {
			count = 1
		}
		if count == 0 {
			return nil, errs.Kindf(errs.KindMalformedFormula, "zero atom count for %s in %q", sym, formula)
		}

		elem, ok := reg.Lookup(sym)
		if !ok {
			return nil, errs.Kindf(errs.KindUnknownElement, "unknown element %q in %q", sym, formula)
		}

		if at, ok := index[sym]; ok {
			comp.AtomCounts[at] += count
			continue
		}
		index[sym] = len(comp.Symbols)
		comp.Symbols = append(comp.Symbols, sym)
		comp.AtomCounts = append(comp.AtomCounts, count)
		comp.Elements = append(comp.Elements, elem)
	}
	return comp, nil
}
