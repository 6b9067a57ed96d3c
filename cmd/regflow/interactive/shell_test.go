package interactive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/regflow/regflow-go/pkg/sheet"
)

func exec(t *testing.T, s *Shell, line string) string {
	t.Helper()
	var buf bytes.Buffer
	if quit := s.Exec(&buf, line); quit {
		t.Fatalf("%q unexpectedly quit", line)
	}
	return buf.String()
}

func TestShell_Addr(t *testing.T) {
	s := newShell(sheet.ExampleMap())

	tests := []struct {
		line string
		want string
	}{
		{"addr UART", "UART = 0x40000000\n"},
		{"addr UART/STATUS", "UART/STATUS = 0x40000004\n"},
		{"addr uart.txdata", "UART/TXDATA = 0x40000008\n"},
		{"addr UART/CTRL/BAUD_DIV", "UART/CTRL/BAUD_DIV = 0x40000000 [15:8] mask 0x0000FF00\n"},
	}
	for _, tt := range tests {
		if got := exec(t, s, tt.line); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestShell_CdAndRelativePaths(t *testing.T) {
	s := newShell(sheet.ExampleMap())

	if got := exec(t, s, "pwd"); got != "/\n" {
		t.Errorf("pwd = %q, want /", got)
	}
	if out := exec(t, s, "cd UART"); out != "" {
		t.Fatalf("cd UART: %s", out)
	}
	if got := exec(t, s, "addr CTRL"); got != "UART/CTRL = 0x40000000\n" {
		t.Errorf("addr CTRL = %q", got)
	}

	exec(t, s, "cd CTRL")
	if s.prompt() != "regflow:UART/CTRL> " {
		t.Errorf("prompt = %q", s.prompt())
	}
	if got := exec(t, s, "addr EN"); !strings.HasPrefix(got, "UART/CTRL/EN = ") {
		t.Errorf("addr EN = %q", got)
	}
	// Siblings resolve through the current block.
	if got := exec(t, s, "addr STATUS"); got != "UART/STATUS = 0x40000004\n" {
		t.Errorf("addr STATUS = %q", got)
	}

	if out := exec(t, s, "cd EN"); !strings.Contains(out, "is a field") {
		t.Errorf("cd into field: %q", out)
	}

	exec(t, s, "cd ..")
	if got := exec(t, s, "pwd"); got != "UART\n" {
		t.Errorf("pwd = %q, want UART", got)
	}
	exec(t, s, "cd ..")
	if s.prompt() != "regflow> " {
		t.Errorf("prompt = %q", s.prompt())
	}

	if out := exec(t, s, "cd NOPE"); !strings.Contains(out, "block not found") {
		t.Errorf("cd NOPE: %q", out)
	}
}

func TestShell_DecodeEncode(t *testing.T) {
	s := newShell(sheet.ExampleMap())

	got := exec(t, s, "decode UART/CTRL 0x1a05")
	for _, want := range []string{
		"0x00001A05\n",
		"EN       = 0x1  (reset 0x0)",
		"PARITY   = 0x2  (reset 0x0)",
		"BAUD_DIV = 0x1A\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("decode output missing %q:\n%s", want, got)
		}
	}

	if got := exec(t, s, "encode UART/CTRL EN=1"); got != "UART/CTRL = 0x00001A01\n" {
		t.Errorf("encode = %q", got)
	}
	if got := exec(t, s, "encode UART/CTRL PARITY=3 BAUD_DIV=0"); got != "UART/CTRL = 0x00000006\n" {
		t.Errorf("encode = %q", got)
	}
	if got := exec(t, s, "encode UART/CTRL PARITY=4"); !strings.Contains(got, "does not fit") {
		t.Errorf("encode too wide = %q", got)
	}

	exec(t, s, "cd UART/CTRL")
	if got := exec(t, s, "decode 0"); !strings.Contains(got, "BAUD_DIV = 0x00  (reset 0x1A)") {
		t.Errorf("decode at cwd = %q", got)
	}

	if got := exec(t, s, "decode"); !strings.HasPrefix(got, "Usage: decode") {
		t.Errorf("decode without args = %q", got)
	}
}

func TestShell_DecodeNeedsRegister(t *testing.T) {
	s := newShell(sheet.ExampleMap())
	if got := exec(t, s, "decode 0x1"); !strings.Contains(got, "no current block") {
		t.Errorf("decode without location = %q", got)
	}
	if got := exec(t, s, "decode UART 0x1"); !strings.Contains(got, "does not address a register") {
		t.Errorf("decode block = %q", got)
	}
}

func TestShell_ShowFindValidate(t *testing.T) {
	s := newShell(sheet.ExampleMap())

	if got := exec(t, s, "ls"); !strings.HasPrefix(got, "example: 1 blocks, 3 registers, 6 fields\n") {
		t.Errorf("ls = %q", got)
	}
	if got := exec(t, s, "show UART/CTRL"); !strings.Contains(got, "layout: ") {
		t.Errorf("show register = %q", got)
	}
	if got := exec(t, s, "find baud"); got != "UART/CTRL/BAUD_DIV\n" {
		t.Errorf("find = %q", got)
	}
	if got := exec(t, s, "find nothing-here"); got != "No matches\n" {
		t.Errorf("find = %q", got)
	}
	if got := exec(t, s, "validate"); got != "OK\n" {
		t.Errorf("validate = %q", got)
	}
}

func TestShell_Misc(t *testing.T) {
	s := newShell(sheet.ExampleMap())

	if got := exec(t, s, "frobnicate"); !strings.HasPrefix(got, "Unknown command: frobnicate") {
		t.Errorf("unknown = %q", got)
	}
	if got := exec(t, s, "   "); got != "" {
		t.Errorf("blank line = %q", got)
	}
	if got := exec(t, s, "help"); !strings.Contains(got, "decode [register] <value>") {
		t.Errorf("help = %q", got)
	}

	var buf bytes.Buffer
	if !s.Exec(&buf, "quit") {
		t.Error("quit should end the shell")
	}
}

func TestShell_Paths(t *testing.T) {
	s := newShell(sheet.ExampleMap())
	paths := s.paths("")
	if len(paths) != 1+3+6 {
		t.Fatalf("got %d paths, want 10", len(paths))
	}
	if paths[0] != "UART" || paths[1] != "UART/CTRL" || paths[2] != "UART/CTRL/EN" {
		t.Errorf("paths = %v", paths[:3])
	}
}
