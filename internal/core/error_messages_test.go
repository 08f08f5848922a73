package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "graduates_email_idx"`), "DB001"},
		{"foreign key", errors.New("insert violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"deadlock", errors.New("deadlock detected"), "DB006"},
		{"required field", errors.New("name: required field is empty"), "VAL002"},
		{"missing column", errors.New("missing required columns: email"), "VAL003"},
		{"unknown course", errors.New("course does not exist"), "VAL004"},
		{"header not found", errors.New("header not found (required columns: [name])"), "VAL005"},
		{"file too large", errors.New("file exceeds 50MB limit"), "FILE001"},
		{"bad csv", errors.New("parse CSV: record on line 3: wrong number of fields"), "FILE002"},
		{"empty file", errors.New("empty file"), "FILE003"},
		{"limiter", ErrTooManyImports, "IMP001"},
		{"run not found", ErrRunNotFound, "IMP002"},
		{"cancelled", errors.New("context canceled"), "IMP003"},
		{"timed out", errors.New("context deadline exceeded"), "IMP004"},
		{"unknown export field", fmt.Errorf("unknown export field %q", "shoe_size"), "EXP001"},
		{"bad sort", fmt.Errorf("unsupported sort field %q", "phone"), "EXP002"},
		{"unmatched", errors.New("something odd happened"), "ERR000"},
		{"case insensitive", errors.New("DUPLICATE KEY value"), "DB001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %s, want %s", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if got := MapError(nil); got.Code != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(errors.New("empty file"))
	if !strings.Contains(got, "(Code: FILE003)") {
		t.Errorf("FormatUserError = %q", got)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(ErrTooManyImports) {
		t.Error("known pattern should be user facing")
	}
	if IsUserFacing(errors.New("some internal thing")) {
		t.Error("unknown error should not be user facing")
	}
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
}
