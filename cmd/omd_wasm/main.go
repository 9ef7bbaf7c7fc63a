//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"syscall/js"
	"time"

	"github.com/lucasjlepore/onmove-export/pipeline"
)

func main() {
	js.Global().Set("exportOMD", js.FuncOf(exportOMD))
	select {}
}

// exportOMD(omdBytes, options) where options may carry omh (Uint8Array),
// source_file_name, utc_offset, formats ("gpx,tsv") and mod_time_ms.
func exportOMD(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: omdBytes(Uint8Array), options(object)")
	}
	omdBytes, ok := bytesArg(args[0])
	if !ok || len(omdBytes) == 0 {
		return failure("omd file bytes are required")
	}
	optsArg := args[1]

	loc, err := pipeline.ParseOffset(getString(optsArg, "utc_offset", pipeline.DefaultUTCOffset))
	if err != nil {
		return failure(err.Error())
	}
	formats, err := pipeline.ParseFormats(strings.Split(getString(optsArg, "formats", "gpx"), ","))
	if err != nil {
		return failure(err.Error())
	}

	in := pipeline.Input{
		Name: getString(optsArg, "source_file_name", "input.OMD"),
		OMD:  omdBytes,
	}
	if !optsArg.IsUndefined() && !optsArg.IsNull() {
		if omh, ok := bytesArg(optsArg.Get("omh")); ok {
			in.OMH = omh
		}
	}
	if ms := getFloat(optsArg, "mod_time_ms"); ms > 0 {
		in.ModTime = time.UnixMilli(int64(ms))
	} else {
		in.ModTime = time.Now()
	}

	exp, err := pipeline.ExportBytes(in, pipeline.ExportOptions{
		Location: loc,
		Formats:  formats,
		Verify:   true,
	})
	if err != nil {
		return failure(err.Error())
	}

	zipBytes, err := zipArtifacts(exp.Files)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(exp.Files))
	for name := range exp.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":      true,
		"zip":     payload,
		"name":    exp.BaseName,
		"samples": len(exp.Track.Samples),
		"notes":   exp.Analysis.Notes,
		"files":   stringsToAny(fileNames),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func bytesArg(v js.Value) ([]byte, bool) {
	if v.IsUndefined() || v.IsNull() {
		return nil, false
	}
	n := v.Get("length").Int()
	out := make([]byte, n)
	if n > 0 && js.CopyBytesToGo(out, v) == 0 {
		return nil, false
	}
	return out, true
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string) float64 {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Float()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
