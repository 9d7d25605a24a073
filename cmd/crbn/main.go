// crbn runs compiled Carbon bytecode (.crbn) files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carbn/carbon/manifest"
	"github.com/carbn/carbon/pkg/bytecode"
	"github.com/carbn/carbon/store"
	"github.com/carbn/carbon/trace"
	"github.com/carbn/carbon/vm"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (debug-level logging)")
	traceFlag := flag.Bool("trace", false, "Record an instruction trace")
	traceOut := flag.String("trace-out", "", "Trace output path (overrides carbon.toml)")
	disasm := flag.Bool("disasm", false, "Print a disassembly listing and exit")
	configPath := flag.String("config", "", "Path to carbon.toml (default: ./carbon.toml)")
	storePath := flag.String("store", "", "Run-history database path (overrides carbon.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: crbn [options] <file.crbn>\n\n")
		fmt.Fprintf(os.Stderr, "Executes a compiled Carbon bytecode file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  crbn program.crbn              # Run a program\n")
		fmt.Fprintf(os.Stderr, "  crbn -disasm program.crbn      # Show its instructions\n")
		fmt.Fprintf(os.Stderr, "  crbn -trace program.crbn       # Record trace.cbor while running\n")
		fmt.Fprintf(os.Stderr, "  crbn -store runs.db prog.crbn  # Append to a run history\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *traceFlag {
		cfg.Trace.Enabled = true
	}
	if *traceOut != "" {
		cfg.Trace.Enabled = true
		cfg.Trace.Output = *traceOut
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	prog, err := bytecode.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(prog.Disassemble())
		return
	}

	log := buildLogger(cfg.Log.Level, *verbose)

	machine := vm.NewVM()
	machine.SetLimits(vm.Limits{
		StackCapacity: cfg.Runtime.StackCapacity,
		StdinBuffer:   cfg.Runtime.StdinBuffer,
		MaxCallDepth:  cfg.Runtime.MaxCallDepth,
	})
	machine.SetLogger(log)

	var collector *trace.Collector
	if cfg.Trace.Enabled {
		collector = trace.NewCollector(cfg.Trace.MaxEvents)
		machine.SetTracer(collector)
	}

	runID := uuid.NewString()
	started := time.Now()
	runErr := machine.Execute(prog.Code)
	duration := time.Since(started)

	exit := exitKind(runErr)
	recordRun(log, cfg, runID, prog, started, duration, exit, machine.InstructionsExecuted())

	if collector != nil {
		writeTrace(log, cfg.Trace.Output, collector, runID, prog, exit)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "crbn: %v\n", runErr)
		os.Exit(1)
	}
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	return manifest.Load(".")
}

func buildLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	if verbose && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}

// exitKind names the run outcome for the store and trace: "ok" on success,
// the error kind for VM errors, "error" otherwise.
func exitKind(err error) string {
	if err == nil {
		return "ok"
	}
	var vmErr *vm.Error
	if errors.As(err, &vmErr) {
		return vmErr.Kind.String()
	}
	return "error"
}

// recordRun appends to the run history when a store is configured. Store
// failures are logged, never fatal: the program's own exit status wins.
func recordRun(log zerolog.Logger, cfg *manifest.Manifest, runID string, prog *bytecode.Program, started time.Time, duration time.Duration, exit string, instructions uint64) {
	if cfg.Store.Path == "" {
		return
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Warn().Err(err).Msg("run history unavailable")
		return
	}
	defer st.Close()

	if _, err := st.RecordRun(runID, prog, started, duration, exit, instructions); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
		return
	}
	log.Debug().Str("run", runID).Str("program", prog.HashString()[:16]).Msg("run recorded")
}

func writeTrace(log zerolog.Logger, path string, collector *trace.Collector, runID string, prog *bytecode.Program, exit string) {
	rec := collector.Recording(runID, prog, exit)
	data, err := trace.Marshal(rec)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode trace")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Msg("failed to write trace")
		return
	}
	log.Debug().Str("path", path).Int("events", collector.Len()).Msg("trace written")
}
