package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var lang language.Tag = language.English

// SpectrumReportRender 定義輸出行為
type SpectrumReportRender interface {
	Write(w io.Writer, r *SpectrumReport) error
}

// Json渲染
type JsonSpectrumReportRender struct{}

func (jr *JsonSpectrumReportRender) Write(w io.Writer, r *SpectrumReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLSpectrumReportRender struct{}

func (yr *YAMLSpectrumReportRender) Write(w io.Writer, r *SpectrumReport) error {
	// 外層維持預設展開；最內層的一維陣列輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences 自頂向下調整 sequence node 的 style：
// 內部沒有子 sequence/mapping 的（最內層一維）用 flow style，其餘保持 block。
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		inner := true
		for _, c := range n.Content {
			if c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode {
				inner = false
			}
			styleReadableSequences(c)
		}
		if inner {
			n.Style = yaml.FlowStyle
		}
	}
}

// Out 以對齊表格輸出報表到 w（終端用）。
// 大數以千分位分組（x/text printer），欄寬以 runewidth 計算，
// 中英夾雜的標籤也能對齊。
func (r *SpectrumReport) Out(w io.Writer) {
	p := message.NewPrinter(lang)

	rows := [][2]string{
		{"Formula", r.Formula},
		{"Peaks", p.Sprintf("%d", r.Count)},
		{"Covered prob", p.Sprintf("%.6f", r.TotalProb)},
		{"Mass range", p.Sprintf("%.6f .. %.6f Da", r.MinMass, r.MaxMass)},
		{"Mean mass", p.Sprintf("%.6f Da", r.MeanMass)},
		{"Top peak", p.Sprintf("%.6f Da  p=%.6g", r.TopPeak.Mass, r.TopPeak.Prob)},
		{"Used", p.Sprintf("%d ms", r.UsedMs)},
	}

	keyWidth := 0
	for _, row := range rows {
		if wd := runewidth.StringWidth(row[0]); wd > keyWidth {
			keyWidth = wd
		}
	}
	fmt.Fprintln(w, "=== Isotopic fine structure ===")
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pad := strings.Repeat(" ", keyWidth-runewidth.StringWidth(row[0]))
		fmt.Fprintf(w, "  %s%s : %s\n", row[0], pad, row[1])
	}

	if len(r.TopPeaks) > 0 {
		fmt.Fprintf(w, "\n  %-4s %-16s %-14s %s\n", "#", "mass (Da)", "prob", "lprob")
		for i, pk := range r.TopPeaks {
			fmt.Fprintf(w, "  %-4d %-16.6f %-14.6g %.4f\n", i+1, pk.Mass, pk.Prob, pk.LProb)
		}
	}
}
