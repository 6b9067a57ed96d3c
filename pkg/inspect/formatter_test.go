package inspect

import (
	"strings"
	"testing"

	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/sheet"
)

func TestFormatHex(t *testing.T) {
	tests := []struct {
		v     uint64
		width int
		want  string
	}{
		{0x1A00, 32, "0x00001A00"},
		{1, 1, "0x1"},
		{0x5, 3, "0x5"},
		{0xFF, 16, "0x00FF"},
		{0, 0, "0x0"},
	}
	for _, tt := range tests {
		if got := FormatHex(tt.v, tt.width); got != tt.want {
			t.Errorf("FormatHex(%#x, %d) = %q, want %q", tt.v, tt.width, got, tt.want)
		}
	}
}

func TestFormatLayout(t *testing.T) {
	m := sheet.ExampleMap()
	ctrl, _ := m.Register("UART", "CTRL")

	got := FormatLayout(ctrl)
	want := "31:16 - | 15:8 BAUD_DIV | 7:3 - | 2:1 PARITY | 0 EN"
	if got != want {
		t.Errorf("FormatLayout = %q, want %q", got, want)
	}

	full := &regmap.Register{Width: 8, Fields: []regmap.Field{{Name: "ALL", Width: 8}}}
	if got := FormatLayout(full); got != "7:0 ALL" {
		t.Errorf("FormatLayout(full) = %q", got)
	}

	empty := &regmap.Register{Width: 16}
	if got := FormatLayout(empty); got != "15:0 -" {
		t.Errorf("FormatLayout(empty) = %q", got)
	}
}

func TestFormatRegister(t *testing.T) {
	m := sheet.ExampleMap()
	b, _ := m.Block("UART")
	r, _ := b.Register("STATUS")

	out := NewFormatter().FormatRegister(b, r)

	for _, want := range []string{
		"UART/STATUS @ 0x40000004 (+0x4), 32 bits, reset 0x00000001",
		"[0] TX_EMPTY   ro  reset 0x1",
		"[1] RX_OVERRUN w1c reset 0x0",
		"Receive overrun",
		"layout: 31:2 - | 1 RX_OVERRUN | 0 TX_EMPTY",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMapAndBlock(t *testing.T) {
	m := sheet.ExampleMap()
	f := &Formatter{}

	out := f.FormatMap(m)
	if !strings.HasPrefix(out, "example: 1 blocks, 3 registers, 6 fields\n") {
		t.Errorf("FormatMap header:\n%s", out)
	}
	if !strings.Contains(out, "UART @ 0x40000000  3 registers, size 0x100") {
		t.Errorf("FormatMap block line:\n%s", out)
	}
	if strings.Contains(out, "UART controller") {
		t.Error("descriptions shown with ShowDescriptions=false")
	}

	b, _ := m.Block("UART")
	out = f.FormatBlock(b)
	if !strings.Contains(out, "+0x4    STATUS 32 bits  reset 0x00000001") {
		t.Errorf("FormatBlock:\n%s", out)
	}

	empty := f.FormatBlock(&regmap.Block{Name: "E"})
	if !strings.Contains(empty, "(no registers)") {
		t.Errorf("FormatBlock(empty):\n%s", empty)
	}
}

func TestFormatTargetAndField(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())
	target, err := insp.ResolveString("UART/CTRL/BAUD_DIV")
	if err != nil {
		t.Fatal(err)
	}

	out := NewFormatter().FormatTarget(target)
	for _, want := range []string{
		"UART/CTRL/BAUD_DIV [15:8]",
		"mask:    0x0000FF00",
		"reset:   0x1A (8'b00011010)",
		"access:  rw (sw = rw)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDecoded(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())
	p, _ := ParsePath("UART/CTRL")
	values, err := insp.Decode(p, 0x1A01)
	if err != nil {
		t.Fatal(err)
	}

	out := NewFormatter().FormatDecoded(0x1A01, 32, values)
	if !strings.HasPrefix(out, "0x00001A01\n") {
		t.Errorf("header:\n%s", out)
	}
	if !strings.Contains(out, "EN       = 0x1  (reset 0x0)") {
		t.Errorf("changed field not marked:\n%s", out)
	}
	if strings.Contains(out, "BAUD_DIV = 0x1A  (reset") {
		t.Errorf("unchanged field marked:\n%s", out)
	}
}

func TestFormatIssues(t *testing.T) {
	res := &regmap.Result{Valid: true}
	res.AddError(regmap.CodeRegAlign, "A/R", "bad")
	res.AddWarning(regmap.CodeBlockEmpty, "B", "empty")

	out := (&Formatter{}).FormatIssues(res)
	if !strings.Contains(out, "error:   A/R: REG_ALIGN: bad") || !strings.Contains(out, "warning: B: BLOCK_EMPTY: empty") {
		t.Errorf("FormatIssues:\n%s", out)
	}
}
