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

package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/isolab/dto"
)

func samplePeakList() *dto.PeakList {
	return &dto.PeakList{
		Formula: "C2",
		Count:   3,
		Peaks: []dto.Peak{
			{Mass: 24.0, LProb: math.Log(0.978540), Prob: 0.978540},
			{Mass: 25.003355, LProb: math.Log(0.021344), Prob: 0.021344},
			{Mass: 26.006710, LProb: math.Log(0.000116), Prob: 0.000116},
		},
	}
}

func TestBuildReport(t *testing.T) {
	r := Build(samplePeakList(), 2, 5*time.Millisecond)
	if r.Count != 3 {
		t.Fatalf("count = %d", r.Count)
	}
	if math.Abs(r.TotalProb-1.0) > 1e-4 {
		t.Fatalf("total prob = %v", r.TotalProb)
	}
	if r.MinMass != 24.0 || math.Abs(r.MaxMass-26.006710) > 1e-9 {
		t.Fatalf("mass range [%v, %v]", r.MinMass, r.MaxMass)
	}
	if r.TopPeak.Mass != 24.0 {
		t.Fatalf("top peak = %+v", r.TopPeak)
	}
	if len(r.TopPeaks) != 2 || r.TopPeaks[0].Prob < r.TopPeaks[1].Prob {
		t.Fatalf("top peaks not sorted: %+v", r.TopPeaks)
	}
	if r.MeanMass < r.MinMass || r.MeanMass > r.MaxMass {
		t.Fatalf("mean mass %v outside range", r.MeanMass)
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build(&dto.PeakList{}, 5, 0)
	if r.Count != 0 || r.MinMass != 0 || r.MaxMass != 0 {
		t.Fatalf("unexpected empty report: %+v", r)
	}
}

func TestRenderers(t *testing.T) {
	r := Build(samplePeakList(), 2, 0)

	var buf bytes.Buffer
	jr := &JsonSpectrumReportRender{}
	if err := jr.Write(&buf, r); err != nil {
		t.Fatalf("json render: %v", err)
	}
	if !strings.Contains(buf.String(), "\"Count\":3") {
		t.Fatalf("json output missing count: %s", buf.String())
	}

	buf.Reset()
	yr := &YAMLSpectrumReportRender{}
	if err := yr.Write(&buf, r); err != nil {
		t.Fatalf("yaml render: %v", err)
	}
	// yaml.v3 無 yaml tag 時以小寫欄位名輸出
	if !strings.Contains(buf.String(), "count: 3") {
		t.Fatalf("yaml output missing count: %s", buf.String())
	}

	buf.Reset()
	r.Out(&buf)
	if !strings.Contains(buf.String(), "Peaks") {
		t.Fatalf("table output missing peaks row: %s", buf.String())
	}
}
