package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildString(t *testing.T) {
	tests := []struct {
		name  string
		build Build
		want  string
	}{
		{"release", Build{Version: "1.4.0"}, "1.4.0"},
		{"dirty tree", Build{Version: "1.4.0", Dirty: true}, "1.4.0+dirty"},
		{"dev", Build{Version: "dev"}, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	build := Build{Version: "1.4.0", Commit: "abc1234", Date: "2026-08-30"}

	cmd := newVersionCmd(build)
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"dbmlgen 1.4.0", "commit abc1234", "built 2026-08-30"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestVersionCommandJSON(t *testing.T) {
	build := Build{Version: "1.4.0", Commit: "abc1234", Date: "2026-08-30", Dirty: true}

	cmd := newVersionCmd(build)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	var payload struct {
		Dbmlgen Build  `json:"dbmlgen"`
		Go      string `json:"go"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out.String())
	}
	if payload.Dbmlgen != build {
		t.Errorf("dbmlgen = %+v, want %+v", payload.Dbmlgen, build)
	}
	if payload.Go == "" {
		t.Error("go version should be reported")
	}
}
