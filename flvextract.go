// Copyright 2020-2022 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package flvextract

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"flvextract/pkg/config"
	"flvextract/pkg/extract"
	"flvextract/pkg/log"
)

const usage = `extract the video stream of FLV files into AVI or raw H.264 files
example: flvextract -outputDir /tmp/out movie.flv ./videos`

// Run .
func Run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	outputDirFlag := flag.String("outputDir", "", "output directory, default is the directory of each input")
	overwriteFlag := flag.Bool("overwrite", false, "replace existing output files")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return nil
	}

	conf, err := newConfig(*configFlag, *outputDirFlag, *overwriteFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	inputs, err := findInputs(flag.Args())
	if err != nil {
		return err
	}
	fmt.Printf("Found %v input files.\n", len(inputs))

	return run(ctx, conf, inputs, os.Stdout)
}

// findInputs replaces directories with the FLV files found in them.
// Other paths are kept as is.
func findInputs(paths []string) ([]string, error) {
	var inputs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			inputs = append(inputs, path)
			continue
		}

		walkFunc := func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("%v %w", path, err)
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".flv") {
				return nil
			}
			inputs = append(inputs, path)
			return nil
		}
		if err := filepath.WalkDir(path, walkFunc); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

// newConfig reads the optional config file, flags override its values.
func newConfig(configPath string, outputDir string, overwrite bool) (*config.Config, error) {
	conf := &config.Config{}
	if configPath != "" {
		var err error
		conf, err = config.ReadConfig(configPath)
		if err != nil {
			return nil, err
		}
	}

	if outputDir != "" {
		dir, err := filepath.Abs(outputDir)
		if err != nil {
			return nil, fmt.Errorf("could not get absolute path of outputDir: %w", err)
		}
		conf.OutputDir = dir
	}
	if overwrite {
		conf.Overwrite = true
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return conf, nil
}

func run(ctx context.Context, conf *config.Config, inputs []string, w io.Writer) error {
	out := &syncWriter{w: w}

	wg := &sync.WaitGroup{}
	logCtx, logCancel := context.WithCancel(context.Background())
	logger := log.NewLogger(wg)
	logger.Start(logCtx)

	// Subscribed before the first extraction so no log is missed.
	feed, cancelFeed := logger.Subscribe()
	logged := make(chan struct{})
	go func() {
		defer cancelFeed()
		log.WriteLogs(context.Background(), feed, out, conf.Level())
		close(logged)
	}()
	stopLogs := func() {
		logCancel()
		<-logged
		wg.Wait()
	}

	if conf.LogDB != "" {
		// The database is closed after the last log is saved.
		dbCtx, dbCancel := context.WithCancel(context.Background())
		logDB := log.NewDB(conf.LogDB, wg)
		if err := logDB.Init(dbCtx); err != nil {
			dbCancel()
			stopLogs()
			return fmt.Errorf("could not initialize log database: %w", err)
		}

		saved := make(chan struct{})
		go func() {
			logDB.SaveLogs(context.Background(), logger)
			close(saved)
		}()
		stopLogs = func() {
			logCancel()
			<-logged
			<-saved
			dbCancel()
			wg.Wait()
		}
	}
	defer func() { stopLogs() }()

	opts := extract.Options{
		OutputDir: conf.OutputDir,
		Overwrite: conf.Overwrite,
	}
	if failed := extractAll(ctx, inputs, opts, logger, out); failed != 0 {
		return fmt.Errorf("%w: %d of %d", ErrExtractFailed, failed, len(inputs))
	}
	return nil
}

// ErrExtractFailed one or more inputs could not be extracted.
var ErrExtractFailed = errors.New("extraction failed")

type result struct {
	input string
	res   *extract.Result
	err   error
}

// extractAll extracts every input in its own goroutine and prints
// the progress. Returns the number of failed inputs.
func extractAll(
	ctx context.Context,
	inputs []string,
	opts extract.Options,
	logger *log.Logger,
	out io.Writer,
) int {
	nInputs := len(inputs)
	chResults := make(chan result, nInputs)
	for _, input := range inputs {
		go func(input string) {
			res, err := extract.Extract(ctx, input, opts, logger)
			chResults <- result{
				input: input,
				res:   res,
				err:   err,
			}
		}(input)
	}

	failed := 0
	for i := 1; i <= nInputs; i++ {
		result := <-chResults
		if result.err != nil {
			fmt.Fprintf(out, "[%v/%v][ERR] %v %v\n", i, nInputs, result.input, result.err)
			failed++
			continue
		}
		fmt.Fprintf(out, "[%v/%v][OK] %v\n", i, nInputs, result.input)

		res := result.res
		if res.Frames == 0 {
			continue
		}
		logger.Info().Src("app").Job(result.input).Msgf(
			"%v frames, average frame rate %v, true frame rate %v",
			res.Frames, res.AverageFrameRate, res.TrueFrameRate)
	}
	return failed
}

// syncWriter serializes writes from the log feed and the progress output.
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
