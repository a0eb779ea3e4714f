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

// Package dto 定義對外輸出的序列化結構：driver 的輸出逐筆收進
// PeakList，供 HTTP 回應或報表層使用。
package dto

import (
	"github.com/zintix-labs/isolab/corefmt"
)

// Enumerator 是 dto 對 driver 的最小依賴面。
// isolab 各 driver（Ordered/Threshold/Fast/Layered/Worker）都滿足它。
type Enumerator interface {
	Advance() bool
	LProb() float64
	Mass() float64
	EProb() float64
	ConfSignature(space []int32)
}

// Peak 是單一 isotopologue 的輸出列。
// Conf 為逐同位素原子數（可選）；ConfPacked 為其 uvarint+base64 緊湊形。
type Peak struct {
	Mass       float64 `json:"mass"`
	LProb      float64 `json:"lprob"`
	Prob       float64 `json:"prob"`
	Conf       []int32 `json:"conf,omitempty"`
	ConfPacked string  `json:"conf_packed,omitempty"`
}

// PeakList 是一次列舉的完整輸出。
type PeakList struct {
	Formula   string  `json:"formula,omitempty"`
	Count     int     `json:"count"`
	TotalProb float64 `json:"total_prob"`
	Truncated bool    `json:"truncated,omitempty"` // 受 limit 截斷，Count/TotalProb 只含收下的部分
	Peaks     []Peak  `json:"peaks"`
}

// CollectOption 控制收集行為。
type CollectOption struct {
	AllDim   int  // conf signature 長度；WithConfs/PackConfs 時必填
	WithConfs bool // 逐筆附上 conf
	PackConfs bool // conf 以緊湊編碼附上（與 WithConfs 互斥時優先）
	Limit     int  // 最多收幾筆；0 表示不限
}

// Collect 把 enumerator 跑到耗盡（或達 Limit），逐筆收進 PeakList。
// 這是所有外部表面共用的 tabulator；核心 driver 不知道它的存在。
func Collect(gen Enumerator, opt CollectOption) *PeakList {
	out := &PeakList{Peaks: make([]Peak, 0, 256)}
	var sig []int32
	if opt.WithConfs || opt.PackConfs {
		sig = make([]int32, opt.AllDim)
	}
	for gen.Advance() {
		if opt.Limit > 0 && out.Count >= opt.Limit {
			out.Truncated = true
			break
		}
		p := Peak{
			Mass:  gen.Mass(),
			LProb: gen.LProb(),
			Prob:  gen.EProb(),
		}
		if sig != nil {
			gen.ConfSignature(sig)
			if opt.PackConfs {
				p.ConfPacked = corefmt.EncodeBase64(corefmt.EncodeConf(sig))
			} else {
				p.Conf = append([]int32(nil), sig...)
			}
		}
		out.Peaks = append(out.Peaks, p)
		out.Count++
		out.TotalProb += p.Prob
	}
	return out
}

// UnpackConf 解回 Peak.ConfPacked。size 為 conf signature 長度。
func UnpackConf(packed string, size int) ([]int32, error) {
	raw, err := corefmt.DecodeBase64(packed)
	if err != nil {
		return nil, err
	}
	return corefmt.DecodeConf(raw, size)
}
