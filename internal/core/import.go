package core

// import.go drives one bulk-import run: CSV parsing, header discovery,
// then a strictly in-order pass of validate -> transform -> reconcile ->
// create per row, accumulating outcomes into an ImportRun summary that is
// persisted once at the end of the pass.
//
// No row-level failure aborts a run. Validation failures and duplicate
// conflicts are recorded and skipped; unexpected creation errors are
// downgraded into the invalid list with the error text. Only failures of
// the run machinery itself (unreadable file, missing header, summary
// persistence) propagate to the caller.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// MaxFileSize is the maximum allowed CSV file size (50MB).
var MaxFileSize int64 = 50 * 1024 * 1024

// MaxHeaderSearchRows is the maximum number of rows to scan for the header.
var MaxHeaderSearchRows = 20

// ContextCheckInterval is how often to check for context cancellation.
var ContextCheckInterval = 100

// ProgressNotifyInterval is how often to emit progress callbacks.
var ProgressNotifyInterval = 100

// Importer executes bulk-import runs over the graduate stores.
type Importer struct {
	validator   *RowValidator
	transformer *Transformer
	reconciler  *Reconciler
	graduates   GraduateStore
	runs        RunStore
}

// NewImporter wires the pipeline stages over the given collaborators.
func NewImporter(courses CourseLookup, graduates GraduateStore, runs RunStore, defaults TransformDefaults) *Importer {
	return &Importer{
		validator:   NewRowValidator(courses),
		transformer: NewTransformer(defaults),
		reconciler:  NewReconciler(graduates),
		graduates:   graduates,
		runs:        runs,
	}
}

// Run processes one CSV file and returns the persisted run summary.
// runID may be empty, in which case the run store assigns one. progress
// may be nil. The returned error is run-fatal; row-level problems are
// reported inside the summary instead.
func (im *Importer) Run(ctx context.Context, runID, fileName string, fileData []byte, progress ProgressCallback) (*ImportRun, error) {
	notify := func(p ImportProgress) {
		if progress != nil {
			progress(p)
		}
	}

	if int64(len(fileData)) > MaxFileSize {
		return nil, fmt.Errorf("file exceeds %dMB limit", MaxFileSize/(1024*1024))
	}

	fileData = sanitizeUTF8(fileData)

	records, err := parseCSV(fileData)
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headerRowIdx, headerIdx := findHeader(records)
	if headerRowIdx < 0 {
		return nil, fmt.Errorf("header not found (required columns: %v)", RequiredColumns)
	}
	dataRows := records[headerRowIdx+1:]

	run := &ImportRun{
		ID:        runID,
		FileName:  fileName,
		Status:    RunPending,
		StartedAt: time.Now(),
	}
	if err := im.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create import run: %w", err)
	}

	cur := ImportProgress{
		RunID:     run.ID,
		FileName:  fileName,
		Phase:     PhaseProcessing,
		TotalRows: len(dataRows),
	}
	notify(cur)

	for i, row := range dataRows {
		// Physical row number: 1-based file position, after the header.
		rowNum := headerRowIdx + i + 2

		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return im.finalize(ctx, run, RunCancelled)
		}

		cur.CurrentRow = i + 1
		if i%ProgressNotifyInterval == 0 {
			notify(cur)
		}

		if isEmptyRow(row) {
			continue
		}
		run.Processed++

		validated, result, err := im.validator.ValidateRow(ctx, row, headerIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		if !result.Valid {
			run.InvalidRows = append(run.InvalidRows, InvalidRow{
				Row:    rowNum,
				Errors: result.Messages(),
				Data:   rawRowData(row, headerIdx),
			})
			cur.Skipped++
			continue
		}

		grad := im.transformer.Transform(validated)

		match, err := im.reconciler.FindDuplicate(ctx, grad)
		if err != nil {
			return nil, fmt.Errorf("row %d: duplicate check: %w", rowNum, err)
		}
		if match != nil {
			run.Conflicts = append(run.Conflicts, ConflictRow{
				Row:        rowNum,
				Email:      grad.Email,
				StudentID:  grad.StudentID,
				ExistingID: match.Existing.ID,
				MatchedBy:  match.MatchedBy,
			})
			cur.Skipped++
			continue
		}

		if err := im.graduates.Create(ctx, grad); err != nil {
			// Row-scoped downgrade: constraint races with concurrent
			// imports land here rather than aborting the run.
			run.InvalidRows = append(run.InvalidRows, InvalidRow{
				Row:    rowNum,
				Errors: []string{fmt.Sprintf("create graduate: %v", err)},
				Data:   rawRowData(row, headerIdx),
			})
			cur.Skipped++
			continue
		}

		if _, err := im.graduates.RecomputeProfileCompletion(ctx, grad.ID); err != nil {
			// The record exists; a stale completion score is recoverable.
			slog.Warn("recompute profile completion failed",
				"run_id", run.ID, "graduate_id", grad.ID, "error", err)
		}

		run.ValidRows = append(run.ValidRows, ValidRow{
			Row:        rowNum,
			GraduateID: grad.ID,
			Name:       grad.Name,
			Email:      grad.Email,
		})
		cur.Created++
	}

	cur.CurrentRow = len(dataRows)
	notify(cur)

	return im.finalize(ctx, run, RunCompleted)
}

// finalize fills aggregate counters and persists the summary snapshot.
// A summary-persistence failure is run-fatal and propagates.
func (im *Importer) finalize(ctx context.Context, run *ImportRun, status RunStatus) (*ImportRun, error) {
	run.Status = status
	run.Created = len(run.ValidRows)
	run.Skipped = len(run.InvalidRows) + len(run.Conflicts)
	now := time.Now()
	run.CompletedAt = &now

	if err := im.runs.FinalizeSummary(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run summary: %w", err)
	}
	return run, nil
}

// rawRowData captures the cleaned cell values of a row, keyed by column
// name, for invalid-row reporting.
func rawRowData(row []string, idx HeaderIndex) map[string]string {
	data := make(map[string]string, len(idx))
	for col, pos := range idx {
		if pos < len(row) {
			data[col] = CleanCell(row[pos])
		}
	}
	return data
}

// findHeader scans the first rows of the file for a row containing every
// required column, returning its index and the derived header index.
func findHeader(records [][]string) (int, HeaderIndex) {
	maxRows := MaxHeaderSearchRows
	if len(records) < maxRows {
		maxRows = len(records)
	}

	for i := 0; i < maxRows; i++ {
		if idx, err := ValidateHeaders(records[i]); err == nil {
			return i, idx
		}
	}
	return -1, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}
