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

package main

import (
	"flag"

	"github.com/zintix-labs/isolab/server"
	"github.com/zintix-labs/isolab/server/logger"
	"github.com/zintix-labs/isolab/server/netsvr"
	"github.com/zintix-labs/isolab/server/svrcfg"
)

func main() {
	addr := flag.String("addr", "", "listen address (default :5811)")
	maxPeaks := flag.Int("max", 0, "per-response peak cap (0 = server default)")
	prod := flag.Bool("prod", false, "production log mode (json)")
	flag.Parse()

	mode := logger.ModeDev
	if *prod {
		mode = logger.ModeProd
	}
	logg, ah := logger.NewAsync(8192, mode)
	defer ah.Close()

	sCfg := &svrcfg.SvrCfg{
		Log:      logg,
		MaxPeaks: *maxPeaks,
	}

	if *addr == "" {
		server.Run(sCfg)
		return
	}
	server.RunWithSvr(sCfg, netsvr.NewChiServer(*addr))
}
