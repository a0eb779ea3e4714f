package chem

import (
	"encoding/json"

	"github.com/zintix-labs/isolab/errs"
	"gopkg.in/yaml.v3"
)

// elementDoc 是自訂元素表文件的外層結構。
// 例：
//
//	elements:
//	  - symbol: Cx
//	    masses: [12.0, 13.0033548378]
//	    probs:  [0.5, 0.5]
type elementDoc struct {
	Elements []Element `yaml:"elements" json:"elements"`
}

// ElementsFromYAML 解碼一份 YAML 自訂元素表。
// 只做解碼與逐筆基本檢查；註冊（含重複符號檢查）由 Registry.Register 負責。
func ElementsFromYAML(raw []byte) ([]Element, error) {
	doc := &elementDoc{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall element table yaml")
	}
	return checkElements(doc)
}

// ElementsFromJSON 解碼一份 JSON 自訂元素表。
func ElementsFromJSON(raw []byte) ([]Element, error) {
	doc := &elementDoc{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall element table json")
	}
	return checkElements(doc)
}

func checkElements(doc *elementDoc) ([]Element, error) {
	if len(doc.Elements) == 0 {
		return nil, errs.NewWarn("element table has no elements")
	}
	for _, e := range doc.Elements {
		if err := validElement(e); err != nil {
			return nil, err
		}
	}
	return doc.Elements, nil
}
