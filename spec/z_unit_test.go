package spec

import (
	"testing"
)

func TestRunSettingYAML(t *testing.T) {
	raw := []byte(`
formula: C100H202
variant: fast
threshold: 0.001
top_n: 10
`)
	rs, err := GetRunSettingByYAML(raw)
	if err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if rs.Formula != "C100H202" || rs.Variant != VariantFast {
		t.Fatalf("unexpected setting: %+v", rs)
	}
	if rs.Workers != 1 {
		t.Fatalf("workers default = %d, want 1", rs.Workers)
	}
}

func TestRunSettingJSON(t *testing.T) {
	raw := []byte(`{"formula":"H2O","variant":"layered","delta":-3.0,"coverage":0.999}`)
	rs, err := GetRunSettingByJSON(raw)
	if err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if rs.Variant != VariantLayered || rs.Delta != -3.0 {
		t.Fatalf("unexpected setting: %+v", rs)
	}
}

func TestRunSettingDefaultsToThreshold(t *testing.T) {
	rs := &RunSetting{Formula: "C10", Threshold: 0.01}
	if err := CheckRunSetting(rs); err != nil {
		t.Fatalf("check: %v", err)
	}
	if rs.Variant != VariantThreshold {
		t.Fatalf("variant default = %s", rs.Variant)
	}
}

func TestRunSettingRejects(t *testing.T) {
	bad := []*RunSetting{
		{Formula: "", Variant: VariantFast, Threshold: 0.1},
		{Formula: "C10", Variant: VariantFast, Threshold: 0},
		{Formula: "C10", Variant: VariantFast, Threshold: 1.5}, // relative above 1
		{Formula: "C10", Variant: VariantLayered, Delta: 1, Coverage: 0.9},
		{Formula: "C10", Variant: VariantLayered, Delta: -1, Coverage: 1.5},
		{Formula: "C10", Variant: VariantOrdered, MaxPeaks: 0},
		{Formula: "C10", Variant: "bogus", Threshold: 0.1},
	}
	for i, rs := range bad {
		if err := CheckRunSetting(rs); err == nil {
			t.Fatalf("case %d should fail: %+v", i, rs)
		}
	}
}
