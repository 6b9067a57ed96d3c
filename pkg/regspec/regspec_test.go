package regspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regflow/regflow-go/pkg/regmap"
	"github.com/regflow/regflow-go/pkg/sheet"
)

func TestParse(t *testing.T) {
	doc := `
name: soc
blocks:
  - name: UART
    baseAddress: 0x40000000
    size: 256
    description: Serial port
    registers:
      - name: CTRL
        offset: "32'h0"
        description: Control
        fields:
          - { name: BAUD, lsb: 4, width: 4, access: RW, reset: 3 }
          - { name: EN, lsb: 0, width: 1, access: rw }
      - name: Status Reg
        offset: 4
        width: 16
        fields:
          - { name: irq-pending, lsb: 0, width: 1, access: w1c, reset: "1'b1" }
`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "soc", m.Name)
	require.Len(t, m.Blocks, 1)
	b := m.Blocks[0]
	assert.Equal(t, uint64(0x40000000), b.BaseAddress)
	assert.Equal(t, uint64(256), b.Size)
	require.Len(t, b.Registers, 2)

	ctrl := b.Registers[0]
	assert.Equal(t, regmap.DefaultRegisterWidth, ctrl.Width)
	require.Len(t, ctrl.Fields, 2)
	assert.Equal(t, "EN", ctrl.Fields[0].Name, "fields sorted by LSB")
	assert.Equal(t, regmap.AccessRW, ctrl.Fields[1].Access)
	assert.Equal(t, "RW", ctrl.Fields[1].RawAccess)

	status := b.Registers[1]
	assert.Equal(t, "Status_Reg", status.Name)
	assert.Equal(t, 16, status.Width)
	assert.Equal(t, "irq_pending", status.Fields[0].Name)
	assert.Equal(t, uint64(1), status.Fields[0].Reset)
	assert.Equal(t, regmap.AccessW1C, status.Fields[0].Access)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no blocks", "name: empty\n"},
		{"bad number", "blocks:\n  - name: A\n    baseAddress: nope\n"},
		{"number is a list", "blocks:\n  - name: A\n    baseAddress: [1, 2]\n"},
		{"malformed yaml", "blocks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	want := sheet.ExampleMap()
	path := filepath.Join(t.TempDir(), "nested", "example.yaml")

	require.NoError(t, Save(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0x40000000")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_NameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my-chip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blocks:\n  - name: A\n    baseAddress: 0\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my_chip", m.Name)
}
