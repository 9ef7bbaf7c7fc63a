package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/onmove-export/omd"
	"github.com/lucasjlepore/onmove-export/pipeline"
)

func main() {
	var (
		offset    = flag.String("offset", pipeline.DefaultUTCOffset, "Fixed UTC offset used to place the device clock")
		jsonOut   = flag.Bool("json", false, "Emit the full analysis as JSON")
		notes     = flag.Bool("notes", true, "Print the activity report")
		dumpDir   = flag.String("dump", "", "Write a lossless manifest.json + records.jsonl bundle into this directory")
		overwrite = flag.Bool("overwrite", false, "Allow -dump into a non-empty directory")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-omd-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	omdPath := flag.Arg(0)

	loc, err := pipeline.ParseOffset(*offset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omdinspect: %v\n", err)
		os.Exit(2)
	}

	src, err := findSource(omdPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omdinspect: %v\n", err)
		os.Exit(1)
	}
	in, err := pipeline.ReadSource(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omdinspect: %v\n", err)
		os.Exit(1)
	}

	if strings.TrimSpace(*dumpDir) != "" {
		dump, err := omd.Inspect(in.OMD)
		if err != nil {
			fmt.Fprintf(os.Stderr, "inspect failed: %v\n", err)
			os.Exit(1)
		}
		manifest, err := omd.WriteBundle(*dumpDir, omdPath, dump, *overwrite)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dump failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Dump complete\n")
		fmt.Printf("Output dir: %s\n", *dumpDir)
		fmt.Printf("Records:    %d (%d chunks, trailer=%t)\n", manifest.RecordCount, manifest.ChunkCount, manifest.HasTrailer)
		fmt.Printf("SHA-256:    %s\n", manifest.SourceSHA256)
		return
	}

	exp, err := pipeline.ExportBytes(in, pipeline.ExportOptions{
		Location: loc,
		Formats:  []pipeline.Format{pipeline.FormatJSON},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		if _, err := os.Stdout.Write(exp.Files[exp.BaseName+"."+string(pipeline.FormatJSON)]); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *notes {
		fmt.Println(exp.Analysis.Notes)
	}
}

// findSource locates omdPath in its directory so the companion OMH is
// picked up with the same case-insensitive matching as batch runs.
func findSource(omdPath string) (pipeline.Source, error) {
	sources, err := pipeline.Scan(filepath.Dir(omdPath))
	if err != nil {
		return pipeline.Source{}, err
	}
	for _, src := range sources {
		if filepath.Base(src.OMDPath) == filepath.Base(omdPath) {
			return src, nil
		}
	}
	return pipeline.Source{}, fmt.Errorf("%s is not an .OMD file", omdPath)
}
