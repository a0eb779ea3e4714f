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
	"sort"

	"github.com/zintix-labs/isolab/errs"
)

// probSumTolerance 是豐度總和允許偏離 1 的上限。
// 公表資料本身帶有修約誤差，這裡只擋明顯壞掉的自訂表。
const probSumTolerance = 1e-6

// Registry 是元素表（SSOT）：解析化學式時一律查它。
//
// 使用流程分兩階段（與遊戲目錄 Catalog 同款合約）：
//   - 註冊階段：Register 加入自訂元素（例如同位素富集的標記元素）。
//   - 執行階段：Freeze 之後唯讀，可被多個解析器/driver 併發共享。
//
// Freeze 之後 Register 一律失敗；不提供解凍。
type Registry struct {
	bySymbol map[string]Element
	symbols  []string // 穩定排序，Symbols() 輸出用
	frozen   bool
}

// NewRegistry 建立含整份內建週期表的 Registry（未凍結）。
func NewRegistry() *Registry {
	r := &Registry{
		bySymbol: make(map[string]Element, len(builtinElements)+8),
		symbols:  make([]string, 0, len(builtinElements)+8),
	}
	for _, e := range builtinElements {
		r.bySymbol[e.Symbol] = e
		r.symbols = append(r.symbols, e.Symbol)
	}
	return r
}

// Register 批次註冊元素。任何一筆不合法整批失敗（fail-fast、原子性）。
// 同符號覆蓋視為錯誤：自訂表想換掉內建元素，應使用新的符號。
func (r *Registry) Register(elems ...Element) error {
	if r.frozen {
		return errs.NewWarn("can not register when element registry already frozen")
	}
	seen := map[string]struct{}{}
	for _, e := range elems {
		if err := validElement(e); err != nil {
			return err
		}
		if _, ok := r.bySymbol[e.Symbol]; ok {
			return errs.Fatalf("element already registered: %s", e.Symbol)
		}
		if _, ok := seen[e.Symbol]; ok {
			return errs.Fatalf("duplicate element in batch: %s", e.Symbol)
		}
		seen[e.Symbol] = struct{}{}
	}
	for _, e := range elems {
		r.bySymbol[e.Symbol] = e
		r.symbols = append(r.symbols, e.Symbol)
	}
	sort.Strings(r.symbols)
	return nil
}

func (r *Registry) Freeze() {
	r.frozen = true
}

func (r *Registry) IsFrozen() bool {
	return r.frozen
}

// Lookup 依符號查元素。只在凍結後使用才是併發安全的。
func (r *Registry) Lookup(symbol string) (Element, bool) {
	e, ok := r.bySymbol[symbol]
	return e, ok
}

func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

func validElement(e Element) error {
	if e.Symbol == "" {
		return errs.NewFatal("element symbol required")
	}
	if len(e.Masses) == 0 || len(e.Masses) != len(e.Probs) {
		return errs.Fatalf("element %s: masses/probs must be non-empty and parallel", e.Symbol)
	}
	sum := 0.0
	for i := range e.Masses {
		if e.Masses[i] <= 0 {
			return errs.Fatalf("element %s: non-positive isotope mass", e.Symbol)
		}
		if e.Probs[i] <= 0 || e.Probs[i] > 1 {
			return errs.Fatalf("element %s: isotope abundance out of (0,1]", e.Symbol)
		}
		sum += e.Probs[i]
	}
	if math.Abs(sum-1.0) > probSumTolerance {
		return errs.Fatalf("element %s: abundances sum to %v, want 1", e.Symbol, sum)
	}
	return nil
}

// defaultRegistry 是內建週期表的凍結實例；ParseFormula 不帶自訂表時查它。
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Freeze()
	return r
}()

// Default 回傳內建週期表（凍結、全程唯讀，可自由共享）。
func Default() *Registry {
	return defaultRegistry
}
