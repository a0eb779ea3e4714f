package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/isolab"
	"github.com/zintix-labs/isolab/dto"
	"github.com/zintix-labs/isolab/spec"
	"github.com/zintix-labs/isolab/stats"
)

var cfg *config = new(config)

type config struct {
	formula   string
	variant   string
	threshold float64
	absolute  bool
	delta     float64
	coverage  float64
	workers   int
	top       int
	maxPeaks  int
	confs     bool
	format    string
	showpb    bool
	pprofmode string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.formula, "formula", "", "chemical formula, e.g. C100H202")
	flag.StringVar(&cfg.variant, "variant", "fast", "driver: ordered, threshold, fast, count, layered, parallel")
	flag.Float64Var(&cfg.threshold, "threshold", 1e-3, "probability threshold")
	flag.BoolVar(&cfg.absolute, "absolute", false, "threshold is absolute (default: relative to mode)")
	flag.Float64Var(&cfg.delta, "delta", -3.0, "layered: log-prob drop per layer (negative)")
	flag.Float64Var(&cfg.coverage, "coverage", 0.999, "layered: target probability coverage")
	flag.IntVar(&cfg.workers, "workers", 4, "parallel: worker count")
	flag.IntVar(&cfg.top, "top", 10, "report top-N peaks")
	flag.IntVar(&cfg.maxPeaks, "max", 0, "cap collected peaks (0 = unlimited; required for ordered)")
	flag.BoolVar(&cfg.confs, "confs", false, "attach per-isotope counts to each peak")
	flag.StringVar(&cfg.format, "o", "table", "output: table, json, yaml")
	flag.BoolVar(&cfg.showpb, "pb", true, "show progress bar")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()
}

// 這裡解析並分支要執行的列舉
func executeRun() {
	rs := &spec.RunSetting{
		Formula:   cfg.formula,
		Variant:   spec.Variant(strings.ToLower(cfg.variant)),
		Threshold: cfg.threshold,
		Absolute:  cfg.absolute,
		Delta:     cfg.delta,
		Coverage:  cfg.coverage,
		Workers:   cfg.workers,
		TopN:      cfg.top,
		MaxPeaks:  cfg.maxPeaks,
		WithConfs: cfg.confs,
	}
	if err := spec.CheckRunSetting(rs); err != nil {
		log.Fatal(err)
	}

	var (
		pl   *dto.PeakList
		used time.Duration
		err  error
	)

	// threshold 系列給進度條：先用 count-only 變體跑一次拿總數（代價是
	// 一次免 mass/eprob 的輕量走訪），再用 fast 變體帶進度跑正式輸出。
	if cfg.showpb && (rs.Variant == spec.VariantThreshold || rs.Variant == spec.VariantFast) {
		pl, used, err = runWithProgress(rs)
	} else {
		pl, used, err = isolab.Run(rs)
	}
	if err != nil {
		log.Fatal(err)
	}

	report := stats.Build(pl, rs.TopN, used)

	switch cfg.format {
	case "json":
		r := &stats.JsonSpectrumReportRender{}
		if err := r.Write(os.Stdout, report); err != nil {
			log.Fatal(err)
		}
	case "yaml":
		r := &stats.YAMLSpectrumReportRender{}
		if err := r.Write(os.Stdout, report); err != nil {
			log.Fatal(err)
		}
	default:
		report.Out(os.Stdout)
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	fmt.Printf("%sdone%s %s: %d peaks in %v\n", green, reset, rs.Formula, pl.Count, used)
}

func runWithProgress(rs *spec.RunSetting) (*dto.PeakList, time.Duration, error) {
	molCnt, err := isolab.NewMolecule(rs.Formula)
	if err != nil {
		return nil, 0, err
	}
	mol := molCnt.Clone()

	cnt, err := isolab.NewCountThresholdGenerator(molCnt, rs.Threshold, rs.Absolute)
	if err != nil {
		return nil, 0, err
	}
	total := cnt.Count()

	gen, err := isolab.NewFastThresholdGenerator(mol, rs.Threshold, rs.Absolute)
	if err != nil {
		return nil, 0, err
	}

	bar := pb.StartNew(total)

	opt := dto.CollectOption{AllDim: mol.AllDim(), WithConfs: rs.WithConfs, Limit: rs.MaxPeaks}
	out := &dto.PeakList{Formula: rs.Formula, Peaks: make([]dto.Peak, 0, total)}
	var sig []int32
	if opt.WithConfs {
		sig = make([]int32, opt.AllDim)
	}
	for gen.Advance() {
		if opt.Limit > 0 && out.Count >= opt.Limit {
			out.Truncated = true
			break
		}
		p := dto.Peak{Mass: gen.Mass(), LProb: gen.LProb(), Prob: gen.EProb()}
		if sig != nil {
			gen.ConfSignature(sig)
			p.Conf = append([]int32(nil), sig...)
		}
		out.Peaks = append(out.Peaks, p)
		out.Count++
		out.TotalProb += p.Prob
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	return out, used, nil
}
