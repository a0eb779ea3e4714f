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
	"sync"
	"time"

	"github.com/zintix-labs/isolab/dto"
	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/spec"
)

// Run 依 RunSetting 跑一次完整列舉並收集輸出。
//
// 這是 server 與 CLI 共用的高階入口：解析化學式、依 variant 建 driver、
// 跑到耗盡（或達 MaxPeaks），回傳 PeakList 與用時。
// 需要逐筆控制（進度條、串流）的呼叫端應直接使用各 driver。
func Run(rs *spec.RunSetting) (*dto.PeakList, time.Duration, error) {
	mol, err := NewMolecule(rs.Formula)
	if err != nil {
		return nil, 0, err
	}

	opt := dto.CollectOption{
		AllDim:    mol.AllDim(),
		WithConfs: rs.WithConfs,
		Limit:     rs.MaxPeaks,
	}

	start := time.Now()
	var pl *dto.PeakList

	switch rs.Variant {
	case spec.VariantOrdered:
		gen, gerr := NewOrderedGenerator(mol)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = dto.Collect(gen, opt)

	case spec.VariantThreshold:
		gen, gerr := NewThresholdGenerator(mol, rs.Threshold, rs.Absolute)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = dto.Collect(gen, opt)

	case spec.VariantFast, "":
		gen, gerr := NewFastThresholdGenerator(mol, rs.Threshold, rs.Absolute)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = dto.Collect(gen, opt)

	case spec.VariantCount:
		gen, gerr := NewCountThresholdGenerator(mol, rs.Threshold, rs.Absolute)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = &dto.PeakList{Count: gen.Count(), Peaks: []dto.Peak{}}

	case spec.VariantLayered:
		gen, gerr := NewLayeredGenerator(mol, rs.Delta, rs.Coverage)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = dto.Collect(gen, opt)

	case spec.VariantParallel:
		gen, gerr := NewParallelThresholdGenerator(mol, rs.Threshold, rs.Absolute)
		if gerr != nil {
			return nil, 0, gerr
		}
		pl = collectParallel(gen, opt, rs.Workers)

	default:
		return nil, 0, errs.Warnf("unknown variant: %s", rs.Variant)
	}

	pl.Formula = rs.Formula
	return pl, time.Since(start), nil
}

// collectParallel 起 workers 條 goroutine 各自收集，最後合併。
// 全部 worker 結束後依 worker 編號順序串接各自的輸出；峰序與單執行緒
// 變體不同但集合相同。
func collectParallel(gen *ParallelThresholdGenerator, opt dto.CollectOption, workers int) *dto.PeakList {
	if workers < 1 {
		workers = 1
	}
	parts := make([]*dto.PeakList, workers)

	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			parts[i] = dto.Collect(gen.NewWorker(), opt)
		}(i)
	}
	wg.Wait()

	out := &dto.PeakList{Peaks: make([]dto.Peak, 0, 256)}
	for _, p := range parts {
		out.Peaks = append(out.Peaks, p.Peaks...)
		out.Count += p.Count
		out.TotalProb += p.TotalProb
		out.Truncated = out.Truncated || p.Truncated
	}
	return out
}
