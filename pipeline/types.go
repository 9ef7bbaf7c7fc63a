package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	onmove "github.com/lucasjlepore/onmove-export"
	"github.com/lucasjlepore/onmove-export/catalog"
)

// Format names one output artifact kind. The value doubles as file extension.
type Format string

const (
	FormatGPX     Format = "gpx"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
	FormatFIT     Format = "fit"
	FormatJSON    Format = "json"
)

// HousekeepingMode selects what happens to a source pair after export.
type HousekeepingMode string

const (
	HousekeepingKeep    HousekeepingMode = "keep"
	HousekeepingArchive HousekeepingMode = "archive"
	HousekeepingDelete  HousekeepingMode = "delete"
)

// OutputPrefix starts every generated file name.
const OutputPrefix = "OnMove200_"

var (
	ErrInvalidOffset       = errors.New("invalid utc offset")
	ErrUnknownFormat       = errors.New("unknown output format")
	ErrUnknownHousekeeping = errors.New("unknown housekeeping mode")
	ErrOutputConflict      = errors.New("output already exists")
)

// Source is one OMD log on disk and its optional OMH summary.
type Source struct {
	Name    string `json:"name"`
	OMDPath string `json:"omd_path"`
	OMHPath string `json:"omh_path,omitempty"`
}

// Housekeeper is told about every source whose artifacts were all written.
type Housekeeper interface {
	Done(ctx context.Context, src Source) error
}

// Catalog remembers exported sources across runs.
type Catalog interface {
	Exists(sha string) (bool, error)
	Record(a *catalog.Activity) error
}

// Options configures a directory run.
type Options struct {
	InputDir  string
	OutputDir string // defaults to InputDir
	UTCOffset string // e.g. "+02:00"
	Formats   []Format
	Creator   string
	Verify    bool

	Housekeeper  Housekeeper // nil keeps sources in place
	Catalog      Catalog     // optional
	SkipExported bool
	Logger       *slog.Logger
}

// FileResult reports the outcome for one source.
type FileResult struct {
	Source   Source           `json:"source"`
	Outputs  []string         `json:"outputs,omitempty"`
	Samples  int              `json:"samples"`
	Skipped  bool             `json:"skipped,omitempty"`
	Analysis *onmove.Analysis `json:"analysis,omitempty"`
	Err      error            `json:"-"`
}

// Result summarizes a directory run. Files keeps input order.
type Result struct {
	Files    []FileResult `json:"files"`
	Exported int          `json:"exported"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
}

// Input is one log pair held in memory. OMH is nil when no summary exists;
// ModTime is the fallback anchor in that case.
type Input struct {
	Name    string
	OMD     []byte
	OMH     []byte
	ModTime time.Time
}

// ExportOptions configures ExportBytes.
type ExportOptions struct {
	Location *time.Location
	Formats  []Format
	Creator  string
	Verify   bool
}

// Export holds every rendered artifact of one input, keyed by file name.
type Export struct {
	BaseName     string
	SourceSHA256 string
	Track        *onmove.Track
	Analysis     *onmove.Analysis
	Files        map[string][]byte
}
