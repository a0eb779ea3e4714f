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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/isolab/errs"
	"github.com/zintix-labs/isolab/server/logger"
)

var errsNilHandler = errs.NewFatal("nil default log handler: async handler is nil")

// 單次回應最多收的峰數上限與預設值：列舉輸出可以是天文數字，
// HTTP 回應必須有硬上限。
const (
	defaultMaxPeaks = 100_000
	capMaxPeaks     = 2_000_000
)

type SvrCfg struct {
	Log      *slog.Logger
	MaxPeaks int
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errsNilHandler
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	if sc.MaxPeaks < 1 {
		sc.MaxPeaks = defaultMaxPeaks
	}
	if sc.MaxPeaks > capMaxPeaks {
		sc.MaxPeaks = capMaxPeaks
	}
	return nil
}
