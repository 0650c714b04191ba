// Command openmalaria runs an individual-based malaria transmission
// simulation from a TOML scenario file.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"runtime"

	openmalaria "github.com/SwissTPH/openmalaria-sub006"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to the TOML scenario file")
	checkpointPath := flag.String("checkpoint", "", "path to write the final checkpoint stream (optional)")
	seedOverride := flag.Uint("seed", 0, "override the scenario's master_seed (0 = use scenario value)")
	streamValidator := flag.String("stream-validator", "", "validate an existing checkpoint stream at this path and exit")
	procs := flag.Int("procs", runtime.NumCPU(), "GOMAXPROCS for this run")
	flag.Parse()

	runtime.GOMAXPROCS(*procs)

	if *streamValidator != "" {
		os.Exit(int(runStreamValidator(*streamValidator)))
	}

	if *scenarioPath == "" {
		log.Fatal("openmalaria: -scenario is required")
	}

	os.Exit(int(run(*scenarioPath, *checkpointPath, uint32(*seedOverride))))
}

func run(scenarioPath, checkpointPath string, seedOverride uint32) openmalaria.ExitCode {
	cfg, err := openmalaria.LoadScenarioConfig(scenarioPath)
	if err != nil {
		return reportAndExit(err)
	}
	if seedOverride != 0 {
		cfg.MasterSeed = seedOverride
	}

	pop, _, err := openmalaria.BuildPopulation(cfg)
	if err != nil {
		return reportAndExit(err)
	}

	if err := pop.Run(); err != nil {
		return reportAndExit(err)
	}

	if checkpointPath != "" {
		f, err := os.Create(checkpointPath)
		if err != nil {
			return reportAndExit(&openmalaria.SimError{Code: openmalaria.ExitFileIO, Err: err})
		}
		defer f.Close()
		if err := openmalaria.WriteCheckpoint(f, pop); err != nil {
			return reportAndExit(err)
		}
	}

	log.Printf("openmalaria: completed run of scenario %q (%d simulated days)", cfg.Name, pop.Day())
	return openmalaria.ExitSuccess
}

func runStreamValidator(path string) openmalaria.ExitCode {
	f, err := os.Open(path)
	if err != nil {
		return reportAndExit(&openmalaria.SimError{Code: openmalaria.ExitFileIO, Err: err})
	}
	defer f.Close()
	if err := openmalaria.ReadCheckpointHeader(f); err != nil {
		return reportAndExit(err)
	}
	log.Printf("openmalaria: checkpoint stream %q has a valid header", path)
	return openmalaria.ExitSuccess
}

// reportAndExit logs err and extracts the exit code from a SimError, or
// falls back to ExitDefault for an unexpected error shape (spec.md §6.6 /
// §7's strict failure propagation).
func reportAndExit(err error) openmalaria.ExitCode {
	var simErr *openmalaria.SimError
	if errors.As(err, &simErr) {
		log.Print(simErr.Error())
		return simErr.Code
	}
	log.Printf("openmalaria: %s", err)
	return openmalaria.ExitDefault
}
