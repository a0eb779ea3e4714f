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

package dto

import (
	"math"
	"testing"
)

// fakeEnum 是測試用的固定輸出 enumerator。
type fakeEnum struct {
	at    int
	peaks []Peak
	confs [][]int32
}

func (f *fakeEnum) Advance() bool {
	f.at++
	return f.at <= len(f.peaks)
}
func (f *fakeEnum) LProb() float64 { return f.peaks[f.at-1].LProb }
func (f *fakeEnum) Mass() float64  { return f.peaks[f.at-1].Mass }
func (f *fakeEnum) EProb() float64 { return f.peaks[f.at-1].Prob }
func (f *fakeEnum) ConfSignature(space []int32) {
	copy(space, f.confs[f.at-1])
}

func sample() *fakeEnum {
	return &fakeEnum{
		peaks: []Peak{
			{Mass: 12.0, LProb: math.Log(0.9), Prob: 0.9},
			{Mass: 13.0, LProb: math.Log(0.1), Prob: 0.1},
		},
		confs: [][]int32{{1, 0}, {0, 1}},
	}
}

func TestCollect(t *testing.T) {
	pl := Collect(sample(), CollectOption{AllDim: 2, WithConfs: true})
	if pl.Count != 2 || len(pl.Peaks) != 2 {
		t.Fatalf("unexpected peak list: %+v", pl)
	}
	if math.Abs(pl.TotalProb-1.0) > 1e-12 {
		t.Fatalf("total prob = %v", pl.TotalProb)
	}
	if pl.Peaks[0].Conf[0] != 1 || pl.Peaks[1].Conf[1] != 1 {
		t.Fatalf("confs not collected: %+v", pl.Peaks)
	}
}

func TestCollectLimit(t *testing.T) {
	pl := Collect(sample(), CollectOption{Limit: 1})
	if pl.Count != 1 || !pl.Truncated {
		t.Fatalf("expected truncated single-peak list, got %+v", pl)
	}
}

func TestPackedConfRoundtrip(t *testing.T) {
	pl := Collect(sample(), CollectOption{AllDim: 2, PackConfs: true})
	if pl.Peaks[0].ConfPacked == "" {
		t.Fatalf("missing packed conf")
	}
	conf, err := UnpackConf(pl.Peaks[0].ConfPacked, 2)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if conf[0] != 1 || conf[1] != 0 {
		t.Fatalf("roundtrip mismatch: %v", conf)
	}
}
