// Command mbprecon reconstructs a per-instrument MBP-10 view from a
// Market-By-Order CSV stream: decode -> sequence -> apply -> aggregate
// -> encode, one row out per row in.
//
// It loads config, sets up the default slog logger, runs the core
// loop, and recovers once at the top on a fatal fault.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"mbo2mbp/internal/config"
	"mbo2mbp/internal/csvio"
	"mbo2mbp/internal/market"
	"mbo2mbp/internal/sequencer"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "optional YAML config file (log_level, depth, output_path)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path] <mbo_input_file.csv>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	inputPath := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

	in, err := os.Open(inputPath)
	if err != nil {
		slog.Error("failed to open input file", slog.String("path", inputPath), slog.Any("error", err))
		return 1
	}
	defer in.Close()

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		slog.Error("failed to open output file", slog.String("path", cfg.OutputPath), slog.Any("error", err))
		return 1
	}
	defer out.Close()

	encoder, err := csvio.NewEncoder(out)
	if err != nil {
		slog.Error("failed to write output header", slog.Any("error", err))
		return 1
	}

	exitCode := reconstruct(in, encoder, cfg.Depth)

	if err := encoder.Flush(); err != nil {
		slog.Error("failed to flush output", slog.Any("error", err))
		return 1
	}

	if exitCode == 0 {
		slog.Info("MBP-10 reconstruction complete", slog.String("output", cfg.OutputPath))
	}
	return exitCode
}

// reconstruct runs the decode -> sequence -> apply -> aggregate ->
// encode loop. A fatal book fault (see internal/book.FatalFault) panics
// from deep within the call stack; this is the single point that
// recovers from it. Output already written for prior rows is
// preserved: encoder.Flush is always called by the caller regardless
// of exitCode.
func reconstruct(r io.Reader, encoder *csvio.Encoder, depth int) (exitCode int) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("fatal input fault, aborting", slog.Any("fault", rec))
			exitCode = 1
		}
	}()

	decoder := csvio.NewDecoder(r)
	mkt := market.New()
	seq := sequencer.New(mkt)

	// The encoder always renders csvio.Depth level columns; capping depth
	// at that value avoids requesting more aggregated levels than the
	// output row has room for. A configured depth below csvio.Depth
	// still yields a full-width row, just with the extra columns zeroed.
	if depth > csvio.Depth {
		depth = csvio.Depth
	}

	for {
		ev, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			slog.Error("failed to decode input row", slog.Any("error", err))
			return 1
		}

		rowDepth := seq.Process(ev)
		bids := mkt.AggregatedBidLevels(ev.InstrumentID, depth)
		asks := mkt.AggregatedAskLevels(ev.InstrumentID, depth)

		if err := encoder.WriteRow(ev, rowDepth, bids, asks); err != nil {
			slog.Error("failed to write output row", slog.Any("error", err))
			return 1
		}
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
