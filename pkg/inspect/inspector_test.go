package inspect

import (
	"errors"
	"testing"

	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/sheet"
)

func mustPath(t *testing.T, s string) *Path {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func TestResolve(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())

	target, err := insp.Resolve(mustPath(t, "uart/ctrl/baud_div"))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if target.Field == nil || target.Field.Name != "BAUD_DIV" {
		t.Fatalf("Field = %+v", target.Field)
	}
	if target.Path.String() != "UART/CTRL/BAUD_DIV" {
		t.Errorf("canonical path = %q", target.Path.String())
	}

	target, err = insp.Resolve(mustPath(t, "UART"))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if target.Register != nil || target.Block.Name != "UART" {
		t.Errorf("block target = %+v", target)
	}
}

func TestResolveErrors(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())

	tests := []struct {
		path string
		want error
	}{
		{"SPI", ErrBlockNotFound},
		{"UART/NOPE", ErrRegisterNotFound},
		{"UART/CTRL/NOPE", ErrFieldNotFound},
	}
	for _, tt := range tests {
		_, err := insp.ResolveString(tt.path)
		if !errors.Is(err, tt.want) {
			t.Errorf("Resolve(%q) error = %v, want %v", tt.path, err, tt.want)
		}
	}

	if _, err := insp.ResolveString(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("ResolveString(\"\") error = %v", err)
	}
}

func TestResolveAmbiguousCase(t *testing.T) {
	m := &regmap.Map{Blocks: []regmap.Block{{Name: "A"}, {Name: "a"}, {Name: "Ab"}}}
	insp := NewInspector(m)

	if _, err := insp.ResolveString("a"); err != nil {
		t.Errorf("exact match should win: %v", err)
	}
	if _, err := insp.ResolveString("AB"); err != nil {
		t.Errorf("unique fold match: %v", err)
	}
	m.Blocks = append(m.Blocks, regmap.Block{Name: "aB"})
	if _, err := insp.ResolveString("AB"); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("ambiguous fold match should fail, got %v", err)
	}

	// An exact match later in the list beats earlier fold matches.
	m.Blocks = []regmap.Block{{Name: "Uart"}, {Name: "uart"}, {Name: "UART"}}
	target, err := insp.ResolveString("UART")
	if err != nil {
		t.Fatalf("exact match after fold matches: %v", err)
	}
	if target.Block != &m.Blocks[2] {
		t.Errorf("resolved %q, want the third block", target.Block.Name)
	}
}

func TestAddress(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())

	tests := map[string]uint64{
		"UART":             0x40000000,
		"UART/STATUS":      0x40000004,
		"UART/TXDATA/DATA": 0x40000008,
	}
	for path, want := range tests {
		got, err := insp.Address(mustPath(t, path))
		if err != nil {
			t.Fatalf("Address(%q) error = %v", path, err)
		}
		if got != want {
			t.Errorf("Address(%q) = %#x, want %#x", path, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())

	values, err := insp.Decode(mustPath(t, "UART/CTRL"), 0x3405)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	got := map[string]uint64{}
	for _, v := range values {
		got[v.Field.Name] = v.Value
	}
	want := map[string]uint64{"EN": 1, "PARITY": 2, "BAUD_DIV": 0x34}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %#x, want %#x", name, got[name], v)
		}
	}

	if _, err := insp.Decode(mustPath(t, "UART"), 0); !errors.Is(err, ErrNotRegister) {
		t.Errorf("Decode on block error = %v, want ErrNotRegister", err)
	}
}

func TestEncode(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())
	ctrl := mustPath(t, "UART/CTRL")

	v, err := insp.Encode(ctrl, nil)
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if v != 0x1A00 {
		t.Errorf("Encode(reset) = %#x, want 0x1A00", v)
	}

	v, err = insp.Encode(ctrl, map[string]uint64{"en": 1, "BAUD_DIV": 0x34})
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	if v != 0x3401 {
		t.Errorf("Encode = %#x, want 0x3401", v)
	}

	if _, err := insp.Encode(ctrl, map[string]uint64{"PARITY": 4}); !errors.Is(err, ErrValueTooWide) {
		t.Errorf("error = %v, want ErrValueTooWide", err)
	}
	if _, err := insp.Encode(ctrl, map[string]uint64{"NOPE": 1}); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("error = %v, want ErrFieldNotFound", err)
	}
}

func TestFind(t *testing.T) {
	insp := NewInspector(sheet.ExampleMap())

	paths := insp.Find("tx")
	var got []string
	for _, p := range paths {
		got = append(got, p.String())
	}
	want := []string{"UART/STATUS/TX_EMPTY", "UART/TXDATA"}
	if len(got) != len(want) {
		t.Fatalf("Find(tx) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Find(tx)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
