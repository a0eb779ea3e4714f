package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/isolab/errs"
)

// Variant 列舉 driver 種類。
type Variant string

const (
	VariantOrdered   Variant = "ordered"
	VariantThreshold Variant = "threshold"
	VariantFast      Variant = "fast"
	VariantCount     Variant = "count"
	VariantLayered   Variant = "layered"
	VariantParallel  Variant = "parallel"
)

// RunSetting 包含跑一次列舉所需的所有高階設定。
type RunSetting struct {
	Formula   string  `yaml:"formula"    json:"formula"`
	Variant   Variant `yaml:"variant"    json:"variant"`
	Threshold float64 `yaml:"threshold"  json:"threshold"`
	Absolute  bool    `yaml:"absolute"   json:"absolute"`
	Delta     float64 `yaml:"delta"      json:"delta"`    // layered 每層下降量（負值）
	Coverage  float64 `yaml:"coverage"   json:"coverage"` // layered 覆蓋目標
	Workers   int     `yaml:"workers"    json:"workers"`  // parallel worker 數
	TopN      int     `yaml:"top_n"      json:"top_n"`    // 報表 top-N 峰數
	MaxPeaks  int     `yaml:"max_peaks"  json:"max_peaks"`
	WithConfs bool    `yaml:"with_confs" json:"with_confs"`
}

// init 補預設值並執行基本檢查。
func (rs *RunSetting) init() error {
	if rs.Variant == "" {
		rs.Variant = VariantThreshold
	}
	rs.Variant = Variant(strings.ToLower(string(rs.Variant)))
	if rs.Workers < 1 {
		rs.Workers = 1
	}
	return rs.valid()
}

// valid 執行最基本的設定檔檢查；閾值語意的完整驗證由 driver 建構時負責。
func (rs *RunSetting) valid() error {
	if strings.TrimSpace(rs.Formula) == "" {
		return errs.NewFatal("formula required")
	}

	switch rs.Variant {
	case VariantOrdered:
		// ordered 不吃 threshold；MaxPeaks 是唯一的停止條件
		if rs.MaxPeaks < 1 {
			return errs.NewFatal("ordered variant requires max_peaks > 0")
		}
	case VariantThreshold, VariantFast, VariantCount, VariantParallel:
		if rs.Threshold <= 0 {
			return errs.NewFatal(fmt.Sprintf("formula: %s err:threshold must be positive", rs.Formula))
		}
		if !rs.Absolute && rs.Threshold > 1 {
			return errs.NewFatal(fmt.Sprintf("formula: %s err:relative threshold above 1", rs.Formula))
		}
	case VariantLayered:
		if rs.Delta >= 0 {
			return errs.NewFatal(fmt.Sprintf("formula: %s err:delta must be negative", rs.Formula))
		}
		if rs.Coverage <= 0 || rs.Coverage >= 1 {
			return errs.NewFatal(fmt.Sprintf("formula: %s err:coverage must be in (0,1)", rs.Formula))
		}
	default:
		return errs.NewFatal(fmt.Sprintf("unknown variant: %s", rs.Variant))
	}

	if rs.MaxPeaks < 0 || rs.TopN < 0 {
		return errs.NewFatal("max_peaks/top_n must be non-negative")
	}
	return nil
}
