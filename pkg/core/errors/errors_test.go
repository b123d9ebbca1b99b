package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	msg := "test error message"
	err := New(msg)

	if err == nil {
		t.Fatal("New() returned nil")
	}
	if err.Error() != msg {
		t.Errorf("Error() = %q, want %q", err.Error(), msg)
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}
	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
	if len(err.Stack()) == 0 {
		t.Error("Stack() should not be empty")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "wrap nil error",
			err:     nil,
			message: "wrapper message",
			wantNil: true,
		},
		{
			name:    "wrap standard error",
			err:     stderrors.New("original error"),
			message: "wrapper message",
			wantMsg: "wrapper message: original error",
		},
		{
			name:    "wrap structured error",
			err:     New("encoder exited").WithCode(CodeEncoding),
			message: "wrapper message",
			wantMsg: "wrapper message: encoder exited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.message)
			if tt.wantNil {
				if wrapped != nil {
					t.Errorf("Wrap(nil) = %v, want nil", wrapped)
				}
				return
			}
			if wrapped == nil {
				t.Fatal("Wrap() returned nil for non-nil error")
			}
			if wrapped.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", wrapped.Error(), tt.wantMsg)
			}
		})
	}
}

func TestWrapPreservesCodeAndStage(t *testing.T) {
	inner := New("ffmpeg exited with status 1").
		WithCode(CodeEncoding).
		WithStage("assembled").
		WithDetail("stderr", "unknown codec")

	wrapped := Wrap(inner, "assembly failed")

	if wrapped.Code() != CodeEncoding {
		t.Errorf("Code() = %v, want %v", wrapped.Code(), CodeEncoding)
	}
	if wrapped.Stage() != "assembled" {
		t.Errorf("Stage() = %q, want %q", wrapped.Stage(), "assembled")
	}
	if wrapped.Details()["stderr"] != "unknown codec" {
		t.Errorf("Details()[stderr] = %v, want %q", wrapped.Details()["stderr"], "unknown codec")
	}
}

func TestWrapTruncatesDeepChains(t *testing.T) {
	var err error = New("root failure").WithCode(CodeRender)
	for i := 0; i < MaxChainDepth+3; i++ {
		err = Wrap(err, "layer")
	}

	ke, ok := err.(*Error)
	if !ok {
		t.Fatal("expected *Error")
	}
	if !strings.Contains(ke.Error(), "chain truncated") {
		t.Errorf("deep chain not truncated: %v", ke.Error())
	}
	if ke.Code() != CodeRender {
		t.Errorf("truncated chain lost code: %v", ke.Code())
	}
	if depth := chainDepth(ke); depth > MaxChainDepth {
		t.Errorf("chainDepth = %d, want <= %d", depth, MaxChainDepth)
	}
}

func TestUnwrapWorksWithStdErrors(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	wrapped := Wrap(sentinel, "outer")

	if !stderrors.Is(wrapped, sentinel) {
		t.Error("errors.Is should find the sentinel through Unwrap")
	}
}

func TestWithCodeSetsDefaultSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeEncoding, SeverityHigh},
		{CodeNarration, SeverityHigh},
		{CodeConfig, SeverityMedium},
		{CodeMissingField, SeverityLow},
	}

	for _, tt := range tests {
		err := New("x").WithCode(tt.code)
		if err.Severity() != tt.want {
			t.Errorf("WithCode(%v) severity = %v, want %v", tt.code, err.Severity(), tt.want)
		}
	}
}

func TestExplicitSeveritySurvivesWithCode(t *testing.T) {
	err := New("x").WithSeverity(SeverityHigh).WithCode(CodeMissingField)
	if err.Severity() != SeverityHigh {
		t.Errorf("Severity() = %v, want high after explicit set", err.Severity())
	}
}

func TestHasCodeTraversesChain(t *testing.T) {
	inner := New("probe failed").WithCode(CodeEncoding)
	outer := Wrap(inner, "verify output")
	outer.code = CodeOutputVerification

	if !HasCode(outer, CodeOutputVerification) {
		t.Error("HasCode should match the outer code")
	}
	if !HasCode(outer, CodeEncoding) {
		t.Error("HasCode should match codes deeper in the chain")
	}
	if HasCode(outer, CodePublish) {
		t.Error("HasCode matched a code that is not in the chain")
	}
}

func TestGetHelpersOnPlainErrors(t *testing.T) {
	plain := stderrors.New("plain")
	if GetCode(plain) != CodeUnknown {
		t.Errorf("GetCode(plain) = %v, want %v", GetCode(plain), CodeUnknown)
	}
	if GetStage(plain) != "" {
		t.Errorf("GetStage(plain) = %q, want empty", GetStage(plain))
	}
	if GetSeverity(plain) != SeverityMedium {
		t.Errorf("GetSeverity(plain) = %v, want %v", GetSeverity(plain), SeverityMedium)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("narration backend unreachable").
		WithCode(CodeNarration).
		WithStage("narrated").
		WithDetail("engine", "piper")

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("MarshalJSON failed: %v", jerr)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("round trip failed: %v", jerr)
	}
	if decoded["code"] != string(CodeNarration) {
		t.Errorf("code = %v, want %v", decoded["code"], CodeNarration)
	}
	if decoded["stage"] != "narrated" {
		t.Errorf("stage = %v, want narrated", decoded["stage"])
	}
}

func TestCodeCategory(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeConfig, "configuration"},
		{CodeMissingField, "configuration"},
		{CodeRender, "pipeline"},
		{CodeEncoding, "pipeline"},
		{CodePublish, "distribution"},
		{CodeUnknown, "generic"},
	}

	for _, tt := range tests {
		if got := tt.code.Category(); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCodeIsValid(t *testing.T) {
	if !CodeEncoding.IsValid() {
		t.Error("CodeEncoding should be valid")
	}
	if Code("BOGUS").IsValid() {
		t.Error("unknown code reported valid")
	}
}

func TestRootCause(t *testing.T) {
	root := stderrors.New("root")
	err := Wrap(Wrap(root, "mid"), "outer")

	if RootCause(err) != root {
		t.Errorf("RootCause() = %v, want root sentinel", RootCause(err))
	}
}
