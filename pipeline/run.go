package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lucasjlepore/onmove-export/catalog"
)

// DefaultUTCOffset is applied when Options.UTCOffset is empty.
const DefaultUTCOffset = "+02:00"

// Run exports every OMD log in opts.InputDir. Each log is handled on its own:
// a failure is recorded in its FileResult and the batch moves on. Run only
// returns an error for invalid options, an unreadable input directory, or
// cancellation, which is checked between files.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.InputDir) == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	offset := opts.UTCOffset
	if strings.TrimSpace(offset) == "" {
		offset = DefaultUTCOffset
	}
	loc, err := ParseOffset(offset)
	if err != nil {
		return nil, err
	}
	formats, err := ParseFormats(formatNames(opts.Formats))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sources, err := Scan(opts.InputDir)
	if err != nil {
		return nil, err
	}
	logger.Info("scan complete", "dir", opts.InputDir, "logs", len(sources))

	outDir := opts.InputDir
	if strings.TrimSpace(opts.OutputDir) != "" {
		outDir = opts.OutputDir
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	exportOpts := ExportOptions{
		Location: loc,
		Formats:  formats,
		Creator:  opts.Creator,
		Verify:   opts.Verify,
	}

	result := &Result{Files: make([]FileResult, 0, len(sources))}
	claimed := make(map[string]string)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fr := runSource(ctx, src, outDir, exportOpts, opts, claimed, logger)
		switch {
		case fr.Err != nil:
			result.Failed++
			logger.Warn("export failed", "source", src.Name, "err", fr.Err)
		case fr.Skipped:
			result.Skipped++
			logger.Info("already exported", "source", src.Name)
		default:
			result.Exported++
			logger.Info("exported", "source", src.Name, "samples", fr.Samples, "outputs", fr.Outputs)
		}
		result.Files = append(result.Files, fr)
	}
	return result, nil
}

// runSource exports one source. claimed maps every output file name written
// so far in this run to the source that produced it.
func runSource(ctx context.Context, src Source, outDir string, exportOpts ExportOptions, opts Options, claimed map[string]string, logger *slog.Logger) FileResult {
	fr := FileResult{Source: src}

	in, err := ReadSource(src)
	if err != nil {
		fr.Err = err
		return fr
	}

	if opts.SkipExported && opts.Catalog != nil {
		seen, err := opts.Catalog.Exists(digest(in.OMD))
		if err != nil {
			fr.Err = fmt.Errorf("query catalog: %w", err)
			return fr
		}
		if seen {
			fr.Skipped = true
			return fr
		}
	}

	exp, err := ExportBytes(in, exportOpts)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Samples = len(exp.Track.Samples)
	fr.Analysis = exp.Analysis

	fresh, unchanged, err := planOutputs(outDir, exp.Files, claimed)
	if err != nil {
		fr.Err = fmt.Errorf("write outputs for %s: %w", src.Name, err)
		return fr
	}
	written, err := writeFilesAtomic(outDir, fresh)
	if err != nil {
		fr.Err = fmt.Errorf("write outputs for %s: %w", src.Name, err)
		return fr
	}
	paths := append(unchanged, written...)
	sort.Strings(paths)
	logger.Debug("outputs written", "source", src.Name, "anchor", exp.Track.AnchorSource, "start", exp.Track.StartDate, "unchanged", len(unchanged))

	if opts.Catalog != nil {
		if err := opts.Catalog.Record(catalogEntry(src, exp, paths)); err != nil {
			removeAll(written)
			fr.Err = fmt.Errorf("record catalog entry: %w", err)
			return fr
		}
	}
	for name := range exp.Files {
		claimed[name] = src.Name
	}
	fr.Outputs = paths

	if opts.Housekeeper != nil {
		if err := opts.Housekeeper.Done(ctx, src); err != nil {
			fr.Err = fmt.Errorf("housekeeping for %s: %w", src.Name, err)
			return fr
		}
	}
	return fr
}

// Scan lists the OMD logs in dir, matching extensions case-insensitively,
// and pairs each with the OMH file sharing its base name.
func Scan(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	summaries := make(map[string]string)
	var logs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		base := strings.ToLower(strings.TrimSuffix(e.Name(), ext))
		switch {
		case strings.EqualFold(ext, ".omd"):
			logs = append(logs, e)
		case strings.EqualFold(ext, ".omh"):
			summaries[base] = filepath.Join(dir, e.Name())
		}
	}

	sources := make([]Source, 0, len(logs))
	for _, e := range logs {
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		sources = append(sources, Source{
			Name:    name,
			OMDPath: filepath.Join(dir, e.Name()),
			OMHPath: summaries[strings.ToLower(name)],
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// ReadSource loads a source pair into memory, taking the log modification
// time as the fallback anchor.
func ReadSource(src Source) (Input, error) {
	in := Input{Name: src.Name}

	info, err := os.Stat(src.OMDPath)
	if err != nil {
		return in, fmt.Errorf("stat %s: %w", src.OMDPath, err)
	}
	in.ModTime = info.ModTime()

	in.OMD, err = os.ReadFile(src.OMDPath)
	if err != nil {
		return in, fmt.Errorf("read %s: %w", src.OMDPath, err)
	}
	if src.OMHPath != "" {
		in.OMH, err = os.ReadFile(src.OMHPath)
		if err != nil {
			return in, fmt.Errorf("read %s: %w", src.OMHPath, err)
		}
	}
	return in, nil
}

// planOutputs splits files into those that still need writing and the paths
// already on disk with identical content. It refuses to replace an artifact
// another source produced earlier in the run or one holding different bytes,
// so two logs ending in the same minute never overwrite each other.
func planOutputs(dir string, files map[string][]byte, claimed map[string]string) (map[string][]byte, []string, error) {
	fresh := make(map[string][]byte, len(files))
	var unchanged []string
	for name, data := range files {
		if owner, ok := claimed[name]; ok {
			return nil, nil, fmt.Errorf("%w: %s was already written for %s", ErrOutputConflict, name, owner)
		}
		dst := filepath.Join(dir, name)
		existing, err := os.ReadFile(dst)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fresh[name] = data
		case err != nil:
			return nil, nil, err
		case bytes.Equal(existing, data):
			unchanged = append(unchanged, dst)
		default:
			return nil, nil, fmt.Errorf("%w: %s holds a different activity", ErrOutputConflict, name)
		}
	}
	return fresh, unchanged, nil
}

// writeFilesAtomic stages every file as a temp file in dir and renames them
// into place only once all of them were written.
func writeFilesAtomic(dir string, files map[string][]byte) ([]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	staged := make([]string, 0, len(names))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, name := range names {
		tmp, err := writeTemp(dir, name, files[name])
		if err != nil {
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp)
	}

	paths := make([]string, 0, len(names))
	for i, name := range names {
		dst := filepath.Join(dir, name)
		if err := os.Rename(staged[i], dst); err != nil {
			cleanup()
			removeAll(paths)
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func catalogEntry(src Source, exp *Export, paths []string) *catalog.Activity {
	a := exp.Analysis
	entry := &catalog.Activity{
		SourceName:   filepath.Base(src.OMDPath),
		SourceSHA256: exp.SourceSHA256,
		StartDate:    exp.Track.StartDate,
		EndDate:      exp.Track.EndDate,
		AnchorSource: string(exp.Track.AnchorSource),
		Samples:      len(exp.Track.Samples),
		DistanceKm:   a.DistanceMeters / 1000.0,
		DurationSec:  a.ElapsedSeconds,
		AvgHeartRate: a.AvgHeartRate,
		MaxHeartRate: a.MaxHeartRate,
	}
	for _, p := range paths {
		if strings.HasSuffix(p, "."+string(FormatGPX)) {
			entry.OutputGPX = p
		}
	}
	return entry
}

func formatNames(formats []Format) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return names
}
