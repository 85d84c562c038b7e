package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "song", ID: "amazing-grace"},
			wantMsg:  "song not found: amazing-grace",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "part"},
			wantMsg:  "part not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "song", ID: "test.song", Err: underlyingErr}
		if got := err.Error(); got != "song not found: test.song" {
			t.Errorf("Error() = %q, want %q", got, "song not found: test.song")
		}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestConfigError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ConfigError
		wantMsg string
	}{
		{
			name:    "with value",
			err:     &ConfigError{Option: "max_lines_per_slide", Value: "0", Message: "must be greater than zero"},
			wantMsg: "invalid configuration max_lines_per_slide=0: must be greater than zero",
		},
		{
			name:    "without value",
			err:     &ConfigError{Option: "meta_template", Message: "template does not parse"},
			wantMsg: "invalid configuration meta_template: template does not parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("ConfigError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "with line",
			err:     &ParseError{Format: "songtext", Line: 12, Message: "unterminated chord"},
			wantMsg: "failed to parse songtext at line 12: unterminated chord",
		},
		{
			name:    "without line",
			err:     &ParseError{Format: "openlyrics", Message: "missing lyrics element"},
			wantMsg: "failed to parse openlyrics: missing lyrics element",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("ParseError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("base error")

	if got := Wrap(nil, "context"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}

	wrapped := Wrap(base, "loading song")
	if wrapped.Error() != "loading song: base error" {
		t.Errorf("Wrap() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Errorf("wrapped error should match base via errors.Is")
	}

	wrappedf := Wrapf(base, "loading song %q", "Amazing Grace")
	if wrappedf.Error() != `loading song "Amazing Grace": base error` {
		t.Errorf("Wrapf() = %q", wrappedf.Error())
	}
}

func TestHelperConstructors(t *testing.T) {
	if err := NewNotFound("song", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("NewNotFound should unwrap to ErrNotFound")
	}
	if err := NewValidation("title", "empty"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewValidation should unwrap to ErrInvalidInput")
	}
	if err := NewConfig("tab_width", "-1", "negative"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewConfig should unwrap to ErrInvalidInput")
	}
	if err := NewUnsupported("format", "binary input"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("NewUnsupported should unwrap to ErrUnsupported")
	}
	if err := NewParse("songtext", 3, "bad marker"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewParse should unwrap to ErrInvalidInput")
	}
	if err := NewIO("read", "a.song", errors.New("eof")); err.Unwrap() == nil {
		t.Errorf("NewIO should carry underlying error")
	}
}
