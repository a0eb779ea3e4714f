package spec

import (
	"encoding/json"

	"github.com/zintix-labs/isolab/errs"
	"gopkg.in/yaml.v3"
)

// GetRunSettingByYAML
// 會讀取 YAML 設定、補預設值並執行基本檢查後回傳。
func GetRunSettingByYAML(data []byte) (*RunSetting, error) {
	rs := &RunSetting{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "run setting initialized err")
	}

	return rs, nil
}

// CheckRunSetting 對程式內組出的 RunSetting 補預設值並執行基本檢查，
// 與 YAML/JSON 解碼路徑共用同一套規則。
func CheckRunSetting(rs *RunSetting) error {
	if rs == nil {
		return errs.NewFatal("run setting required")
	}
	return rs.init()
}

// GetRunSettingByJSON
// 會讀取 Json 設定、補預設值並執行基本檢查後回傳
func GetRunSettingByJSON(data []byte) (*RunSetting, error) {
	rs := &RunSetting{}
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "run setting initialized err")
	}

	return rs, nil
}
