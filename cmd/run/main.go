package main

import "github.com/zintix-labs/isolab/sdk/perf"

// makefile runner
func main() {
	bindVar()
	perf.RunPProf(executeRun, cfg.pprofmode)
}
