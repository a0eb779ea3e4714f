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

// Package chem 提供化學式解析與週期表查詢：把 "C2H5OH" 這類字串
// 轉成每個元素的原子數與同位素（質量、天然豐度）表。
//
// 週期表是初始化後唯讀的靜態資料；豐度在表內已正規化（總和 = 1，
// 浮點誤差內），查詢端不再重驗。
package chem

// Element 描述一個元素的同位素組成。
// Masses 與 Probs 平行：Masses[i] 為第 i 個同位素的單一原子質量（道爾頓），
// Probs[i] 為其天然豐度。兩者長度一致，Probs 總和為 1（浮點誤差內）。
type Element struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Masses []float64 `yaml:"masses" json:"masses"`
	Probs  []float64 `yaml:"probs"  json:"probs"`
}

// builtinElements 是內建週期表。
// 質量與豐度取自 IUPAC/NIST 公表的同位素資料（單位：Da）。
// 單同位素元素（F、Na、P、I 等）以單元素表收錄，維持與多同位素元素一致的處理路徑。
var builtinElements = []Element{
	{Symbol: "H", Masses: []float64{1.00782503207, 2.0141017778}, Probs: []float64{0.999885, 0.000115}},
	{Symbol: "He", Masses: []float64{3.0160293191, 4.00260325415}, Probs: []float64{0.00000134, 0.99999866}},
	{Symbol: "Li", Masses: []float64{6.015122795, 7.01600455}, Probs: []float64{0.0759, 0.9241}},
	{Symbol: "B", Masses: []float64{10.0129370, 11.0093054}, Probs: []float64{0.199, 0.801}},
	{Symbol: "C", Masses: []float64{12.0, 13.0033548378}, Probs: []float64{0.989212, 0.010788}},
	{Symbol: "N", Masses: []float64{14.0030740048, 15.0001088982}, Probs: []float64{0.99636, 0.00364}},
	{Symbol: "O", Masses: []float64{15.99491461956, 16.99913170, 17.9991610}, Probs: []float64{0.99757, 0.00038, 0.00205}},
	{Symbol: "F", Masses: []float64{18.99840322}, Probs: []float64{1.0}},
	{Symbol: "Na", Masses: []float64{22.9897692809}, Probs: []float64{1.0}},
	{Symbol: "Mg", Masses: []float64{23.985041700, 24.98583692, 25.982592929}, Probs: []float64{0.7899, 0.1000, 0.1101}},
	{Symbol: "Al", Masses: []float64{26.98153863}, Probs: []float64{1.0}},
	{Symbol: "Si", Masses: []float64{27.9769265325, 28.976494700, 29.97377017}, Probs: []float64{0.92223, 0.04685, 0.03092}},
	{Symbol: "P", Masses: []float64{30.97376163}, Probs: []float64{1.0}},
	{Symbol: "S", Masses: []float64{31.97207100, 32.97145876, 33.96786690, 35.96708076}, Probs: []float64{0.9499, 0.0075, 0.0425, 0.0001}},
	{Symbol: "Cl", Masses: []float64{34.96885268, 36.96590259}, Probs: []float64{0.7576, 0.2424}},
	{Symbol: "K", Masses: []float64{38.96370668, 39.96399848, 40.96182576}, Probs: []float64{0.932581, 0.000117, 0.067302}},
	{Symbol: "Ca", Masses: []float64{39.96259098, 41.95861801, 42.9587666, 43.9554818, 45.9536926, 47.952534}, Probs: []float64{0.96941, 0.00647, 0.00135, 0.02086, 0.00004, 0.00187}},
	{Symbol: "Fe", Masses: []float64{53.9396105, 55.9349375, 56.9353940, 57.9332756}, Probs: []float64{0.05845, 0.91754, 0.02119, 0.00282}},
	{Symbol: "Cu", Masses: []float64{62.9295975, 64.9277895}, Probs: []float64{0.6915, 0.3085}},
	{Symbol: "Zn", Masses: []float64{63.9291422, 65.9260334, 66.9271273, 67.9248442, 69.9253193}, Probs: []float64{0.48268, 0.27975, 0.04102, 0.19024, 0.00631}},
	{Symbol: "Se", Masses: []float64{73.9224764, 75.9192136, 76.9199140, 77.9173091, 79.9165213, 81.9166994}, Probs: []float64{0.0089, 0.0937, 0.0763, 0.2377, 0.4961, 0.0873}},
	{Symbol: "Br", Masses: []float64{78.9183371, 80.9162906}, Probs: []float64{0.5069, 0.4931}},
	{Symbol: "I", Masses: []float64{126.904473}, Probs: []float64{1.0}},
}
