package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/isolab"
	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/server/httperr"
	"github.com/zintix-labs/isolab/server/svrcfg"
	"github.com/zintix-labs/isolab/spec"
	"github.com/zintix-labs/isolab/stats"
)

type SpectrumHandler struct {
	cfg *svrcfg.SvrCfg
}

func NewSpectrumHandler(cfg *svrcfg.SvrCfg) (*SpectrumHandler, error) {
	if cfg == nil {
		return nil, errs.NewFatal("server config required")
	}
	return &SpectrumHandler{cfg: cfg}, nil
}

// Spectrum 計算一個化學式的同位素精細結構。
//
// GET  /v1/spectrum?formula=C100H202&threshold=0.001&absolute=false
// POST /v1/spectrum {"formula":"C100H202","threshold":0.001,...}（RunSetting 格式）
func (sh *SpectrumHandler) Spectrum(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SpectrumResponse struct {
		Report *stats.SpectrumReport `json:"report"`
		Peaks  any                   `json:"peaks"`
	}

	rs, err := sh.decodeRunSetting(q)
	if err != nil {
		httperr.Errs(w, err)
		httperr.Log(sh.cfg.Log, "spectrum: bad request", err)
		return
	}
	// 回應大小防線：上限由 server 設定決定，不信任呼叫端
	if rs.MaxPeaks <= 0 || rs.MaxPeaks > sh.cfg.MaxPeaks {
		rs.MaxPeaks = sh.cfg.MaxPeaks
	}

	pl, used, err := isolab.Run(rs)
	if err != nil {
		httperr.Errs(w, err)
		httperr.Log(sh.cfg.Log, "spectrum: run failed", err)
		return
	}

	resp := SpectrumResponse{
		Report: stats.Build(pl, rs.TopN, used),
		Peaks:  pl.Peaks,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		httperr.Log(sh.cfg.Log, "spectrum: encode response failed", errs.Wrap(err, "encode json"))
	}
}

// SpectrumByCfg 接收一份完整的 RunSetting 文件（YAML 或 JSON，依 Content-Type）。
//
// POST /v1/spectrumbycfg
func (sh *SpectrumHandler) SpectrumByCfg(w http.ResponseWriter, q *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, q.Body, 1<<20))
	if err != nil {
		httperr.Errs(w, errs.NewWarn("read body failed: "+err.Error()))
		return
	}

	var rs *spec.RunSetting
	switch q.Header.Get("Content-Type") {
	case "application/yaml", "text/yaml", "application/x-yaml":
		rs, err = spec.GetRunSettingByYAML(raw)
	default:
		rs, err = spec.GetRunSettingByJSON(raw)
	}
	if err != nil {
		httperr.Errs(w, err)
		httperr.Log(sh.cfg.Log, "spectrumbycfg: bad setting", err)
		return
	}
	if rs.MaxPeaks <= 0 || rs.MaxPeaks > sh.cfg.MaxPeaks {
		rs.MaxPeaks = sh.cfg.MaxPeaks
	}

	pl, used, err := isolab.Run(rs)
	if err != nil {
		httperr.Errs(w, err)
		httperr.Log(sh.cfg.Log, "spectrumbycfg: run failed", err)
		return
	}

	resp := map[string]any{
		"report": stats.Build(pl, rs.TopN, used),
		"peaks":  pl.Peaks,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		httperr.Log(sh.cfg.Log, "spectrumbycfg: encode response failed", errs.Wrap(err, "encode json"))
	}
}

// Molecule 回傳分子的靜態描述（不列舉）：slot 數、質量界、眾數 lprob。
//
// GET /v1/molecule?formula=C2H5OH
func (sh *SpectrumHandler) Molecule(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type MoleculeResponse struct {
		Formula          string  `json:"formula"`
		DimNumber        int     `json:"dim_number"`
		AllDim           int     `json:"all_dim"`
		AtomCounts       []int   `json:"atom_counts"`
		IsotopeNumbers   []int   `json:"isotope_numbers"`
		ModeLProb        float64 `json:"mode_lprob"`
		LightestPeakMass float64 `json:"lightest_peak_mass"`
		HeaviestPeakMass float64 `json:"heaviest_peak_mass"`
	}

	formula := q.URL.Query().Get("formula")
	if formula == "" {
		httperr.Errs(w, errs.NewWarn("formula is required"))
		return
	}
	mol, err := isolab.NewMolecule(formula)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	resp := MoleculeResponse{
		Formula:          formula,
		DimNumber:        mol.DimNumber(),
		AllDim:           mol.AllDim(),
		AtomCounts:       mol.AtomCounts(),
		IsotopeNumbers:   mol.IsotopeNumbers(),
		ModeLProb:        mol.ModeLProb(),
		LightestPeakMass: mol.LightestPeakMass(),
		HeaviestPeakMass: mol.HeaviestPeakMass(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		httperr.Log(sh.cfg.Log, "molecule: encode response failed", errs.Wrap(err, "encode json"))
	}
}

// decodeRunSetting 把 GET query 或 POST body 轉成 RunSetting。
func (sh *SpectrumHandler) decodeRunSetting(q *http.Request) (*spec.RunSetting, error) {
	if q.Method == http.MethodPost {
		raw, err := io.ReadAll(http.MaxBytesReader(nil, q.Body, 1<<20))
		if err != nil {
			return nil, errs.NewWarn("read body failed: " + err.Error())
		}
		return spec.GetRunSettingByJSON(raw)
	}

	qs := q.URL.Query()
	rs := &spec.RunSetting{
		Formula: qs.Get("formula"),
		Variant: spec.Variant(qs.Get("variant")),
	}
	if rs.Formula == "" {
		return nil, errs.NewWarn("formula is required")
	}

	if s := qs.Get("threshold"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.NewWarn("threshold must be a number")
		}
		rs.Threshold = v
	}
	if s := qs.Get("absolute"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errs.NewWarn("absolute must be a bool")
		}
		rs.Absolute = v
	}
	if s := qs.Get("delta"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.NewWarn("delta must be a number")
		}
		rs.Delta = v
	}
	if s := qs.Get("coverage"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.NewWarn("coverage must be a number")
		}
		rs.Coverage = v
	}
	if s := qs.Get("top"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.NewWarn("top must be an integer")
		}
		rs.TopN = v
	}
	if s := qs.Get("max_peaks"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.NewWarn("max_peaks must be an integer")
		}
		rs.MaxPeaks = v
	}
	if s := qs.Get("confs"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errs.NewWarn("confs must be a bool")
		}
		rs.WithConfs = v
	}

	// 與 POST 路徑共用同一套預設值與基本檢查
	if err := spec.CheckRunSetting(rs); err != nil {
		return nil, err
	}
	return rs, nil
}
