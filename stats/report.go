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

// Package stats 把一次列舉的 PeakList 彙整成報表：峰數、覆蓋機率、
// 質量範圍、最高峰與 top-N 峰表，並提供 JSON/YAML/終端三種輸出。
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/zintix-labs/isolab/dto"
	"gonum.org/v1/gonum/floats"
)

// PeakRow 是報表內的單列峰。
type PeakRow struct {
	Mass  float64 `json:"Mass"`
	Prob  float64 `json:"Prob"`
	LProb float64 `json:"LProb"`
}

// SpectrumReport 是一次列舉的統計報告。
type SpectrumReport struct {
	Formula   string        `json:"Formula,omitempty"`
	Count     int           `json:"Count"`
	TotalProb float64       `json:"TotalProb"`
	MinMass   float64       `json:"MinMass"`
	MaxMass   float64       `json:"MaxMass"`
	MeanMass  float64       `json:"MeanMass"` // 機率加權平均質量（只含已輸出的峰）
	TopPeak   PeakRow   `json:"TopPeak"`
	TopPeaks  []PeakRow `json:"TopPeaks,omitempty"`
	UsedMs    int64     `json:"UsedMs"`
}

// Build 由 PeakList 彙整報表。topN 控制 TopPeaks 長度（0 表示不要）。
func Build(pl *dto.PeakList, topN int, used time.Duration) *SpectrumReport {
	r := &SpectrumReport{
		Formula: pl.Formula,
		Count:   pl.Count,
		UsedMs:  used.Milliseconds(),
		MinMass: math.Inf(1),
		MaxMass: math.Inf(-1),
	}
	if pl.Count == 0 {
		r.MinMass, r.MaxMass = 0, 0
		return r
	}

	probs := make([]float64, len(pl.Peaks))
	weighted := 0.0
	best := 0
	for i, p := range pl.Peaks {
		probs[i] = p.Prob
		weighted += p.Mass * p.Prob
		if p.Mass < r.MinMass {
			r.MinMass = p.Mass
		}
		if p.Mass > r.MaxMass {
			r.MaxMass = p.Mass
		}
		if p.Prob > pl.Peaks[best].Prob {
			best = i
		}
	}
	r.TotalProb = floats.Sum(probs)
	if r.TotalProb > 0 {
		r.MeanMass = weighted / r.TotalProb
	}
	r.TopPeak = PeakRow{Mass: pl.Peaks[best].Mass, Prob: pl.Peaks[best].Prob, LProb: pl.Peaks[best].LProb}

	if topN > 0 {
		rows := make([]PeakRow, len(pl.Peaks))
		for i, p := range pl.Peaks {
			rows[i] = PeakRow{Mass: p.Mass, Prob: p.Prob, LProb: p.LProb}
		}
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Prob > rows[b].Prob })
		if len(rows) > topN {
			rows = rows[:topN]
		}
		r.TopPeaks = rows
	}
	return r
}
