package rdl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regflow/regflow-go/pkg/regmap"
)

func singleField() *regmap.Map {
	return &regmap.Map{
		Name: "chip",
		Blocks: []regmap.Block{{
			Name:        "UART",
			BaseAddress: 0x40000000,
			Description: "Serial port",
			Registers: []regmap.Register{{
				Name:        "CTRL",
				Offset:      0x10,
				Width:       32,
				Description: "Control",
				Fields: []regmap.Field{
					{Name: "EN", LSB: 0, Width: 1, Access: regmap.AccessRW, Reset: 1, Description: "Enable"},
				},
			}},
		}},
	}
}

func TestRender_ExactOutput(t *testing.T) {
	got, err := Render(singleField(), Options{})
	require.NoError(t, err)

	want := `addrmap UART {
    name = "UART";
    desc = "Serial port";

    // Register CTRL
    reg {
        name = "CTRL";
        desc = "Control";
        regwidth = 32;

        field {
            name = "EN";
            desc = "Enable";
            sw = rw;
            hw = r;
        } EN[0:0] = 1'b1;

    } CTRL @ 0x10;

};

`
	assert.Equal(t, want, got)
}

func TestRender_AccessMapping(t *testing.T) {
	m := &regmap.Map{Blocks: []regmap.Block{{
		Name: "B",
		Registers: []regmap.Register{{
			Name: "R", Width: 32,
			Fields: []regmap.Field{
				{Name: "A", LSB: 0, Width: 1, Access: regmap.AccessRO},
				{Name: "C", LSB: 1, Width: 1, Access: regmap.AccessWO},
				{Name: "D", LSB: 2, Width: 1, Access: regmap.AccessW1C},
			},
		}},
	}}}

	got, err := Render(m, Options{})
	require.NoError(t, err)

	assert.Contains(t, got, "sw = r;\n            hw = r;\n        } A[0:0]")
	assert.Contains(t, got, "sw = w;\n            hw = r;\n        } C[1:1]")
	assert.Contains(t, got, "sw = w;\n            hw = r;\n            onwrite = woclr;\n        } D[2:2]")
	assert.Equal(t, 1, strings.Count(got, "onwrite"))
}

func TestRender_DefaultsAndEmpty(t *testing.T) {
	m := &regmap.Map{Blocks: []regmap.Block{
		{Name: "EMPTY"},
		{Name: "B", Registers: []regmap.Register{{Name: "R", Offset: 0xAB}}},
	}}

	got, err := Render(m, Options{})
	require.NoError(t, err)

	assert.Contains(t, got, `desc = "EMPTY Block";`)
	assert.Contains(t, got, "// No registers found for this block")
	assert.Contains(t, got, `desc = "R Register";`)
	assert.Contains(t, got, "regwidth = 32;")
	assert.Contains(t, got, "// No fields found for this register")
	assert.Contains(t, got, "} R @ 0xAB;")
}

func TestRender_ResetPadding(t *testing.T) {
	m := &regmap.Map{Blocks: []regmap.Block{{
		Name: "B",
		Registers: []regmap.Register{{
			Name: "R", Width: 32,
			Fields: []regmap.Field{{Name: "DIV", LSB: 8, Width: 8, Reset: 0x1a}},
		}},
	}}}

	got, err := Render(m, Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "} DIV[15:8] = 8'b00011010;")
	assert.Contains(t, got, `desc = "DIV field";`)
}

func TestRender_Escaping(t *testing.T) {
	m := singleField()
	m.Blocks[0].Description = `say "hi" C:\path`

	got, err := Render(m, Options{})
	require.NoError(t, err)
	assert.Contains(t, got, `desc = "say \"hi\" C:\\path";`)
}

func TestRender_Top(t *testing.T) {
	m := singleField()
	m.Blocks = append(m.Blocks, regmap.Block{Name: "GPIO", BaseAddress: 0x40001000})

	got, err := Render(m, Options{Top: "soc", Header: "generated\nby test"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "// generated\n// by test\n\n"))
	assert.True(t, strings.HasSuffix(got, `addrmap soc {
    name = "chip";

    UART UART @ 0x40000000;
    GPIO GPIO @ 0x40001000;
};
`))
}

func TestRender_TopErrors(t *testing.T) {
	_, err := Render(singleField(), Options{Top: "1bad"})
	assert.Error(t, err)

	_, err = Render(singleField(), Options{Top: "UART"})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultOutput)
	require.NoError(t, WriteFile(path, "addrmap A {\n};\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "addrmap A {\n};\n", string(data))
}
