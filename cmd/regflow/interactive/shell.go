// Package interactive provides the regflow register map shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/regflow/regflow-go/pkg/inspect"
	"github.com/regflow/regflow-go/pkg/regmap"
)

var errNoPath = errors.New("no path given and no current block (use cd)")

// Shell browses a register map interactively.
type Shell struct {
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	rl        *readline.Instance

	// cwd is the block or register that relative paths start from.
	cwd inspect.Path
}

// New creates a shell over m with readline editing and completion.
func New(m *regmap.Map) (*Shell, error) {
	s := newShell(m)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s.rl = rl
	return s, nil
}

func newShell(m *regmap.Map) *Shell {
	return &Shell{
		inspector: inspect.NewInspector(m),
		formatter: inspect.NewFormatter(),
	}
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the command loop. It returns on quit, EOF or when ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	fmt.Fprintln(out, s.formatter.FormatMap(s.inspector.Map()))
	fmt.Fprintln(out, "Type 'help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		if quit := s.Exec(out, line); quit {
			return
		}
		s.rl.SetPrompt(s.prompt())
	}
}

// Exec runs one command line, writing output to w. It returns true when
// the line asks the shell to exit.
func (s *Shell) Exec(w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)
	case "ls", "show", "i":
		s.cmdShow(w, args)
	case "cd":
		s.cmdCd(w, args)
	case "pwd":
		fmt.Fprintln(w, s.location())
	case "addr", "a":
		s.cmdAddr(w, args)
	case "decode", "d":
		s.cmdDecode(w, args)
	case "encode", "e":
		s.cmdEncode(w, args)
	case "find", "f":
		s.cmdFind(w, args)
	case "validate", "check":
		s.cmdValidate(w)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) prompt() string {
	if s.cwd.Block == "" {
		return "regflow> "
	}
	return "regflow:" + s.cwd.String() + "> "
}

func (s *Shell) location() string {
	if s.cwd.Block == "" {
		return "/"
	}
	return s.cwd.String()
}

// resolve finds arg relative to the current register, then the current
// block, then the map root. An empty arg means the current location.
func (s *Shell) resolve(arg string) (*inspect.Target, error) {
	if arg == "" {
		if s.cwd.Block == "" {
			return nil, errNoPath
		}
		return s.inspector.Resolve(&s.cwd)
	}
	var bases []string
	if s.cwd.Register != "" {
		bases = append(bases, s.cwd.String())
	}
	if s.cwd.Block != "" {
		bases = append(bases, s.cwd.Block)
	}
	for _, base := range bases {
		if t, err := s.inspector.ResolveString(base + "/" + arg); err == nil {
			return t, nil
		}
	}
	return s.inspector.ResolveString(arg)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (s *Shell) cmdShow(w io.Writer, args []string) {
	if len(args) == 0 && s.cwd.Block == "" {
		fmt.Fprint(w, s.formatter.FormatMap(s.inspector.Map()))
		return
	}
	t, err := s.resolve(firstArg(args))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprint(w, s.formatter.FormatTarget(t))
}

func (s *Shell) cmdCd(w io.Writer, args []string) {
	arg := firstArg(args)
	switch arg {
	case "", "/":
		s.cwd = inspect.Path{}
		return
	case "..":
		switch {
		case s.cwd.Register != "":
			s.cwd.Register = ""
		default:
			s.cwd = inspect.Path{}
		}
		return
	}

	t, err := s.resolve(arg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	if t.Field != nil {
		fmt.Fprintf(w, "Error: %s is a field\n", t.Path.String())
		return
	}
	s.cwd = inspect.Path{Block: t.Path.Block, Register: t.Path.Register}
}

func (s *Shell) cmdAddr(w io.Writer, args []string) {
	t, err := s.resolve(firstArg(args))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	addr, err := s.inspector.Address(&t.Path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	line := fmt.Sprintf("%s = %s", t.Path.String(), inspect.FormatHex(addr, 32))
	if t.Field != nil {
		line += fmt.Sprintf(" %s mask %s", inspect.FormatBits(*t.Field), inspect.FormatHex(t.Field.Mask(), t.Register.Width))
	}
	fmt.Fprintln(w, line)
}

func (s *Shell) cmdDecode(w io.Writer, args []string) {
	var pathArg, valueArg string
	switch len(args) {
	case 1:
		valueArg = args[0]
	case 2:
		pathArg, valueArg = args[0], args[1]
	default:
		fmt.Fprintln(w, "Usage: decode [register] <value>")
		fmt.Fprintln(w, "  Example: decode UART/CTRL 0x1a05")
		return
	}

	value, err := regmap.ParseNumber(valueArg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	t, err := s.resolve(pathArg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	values, err := s.inspector.Decode(&t.Path, value)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprint(w, s.formatter.FormatDecoded(value, t.Register.Width, values))
}

func (s *Shell) cmdEncode(w io.Writer, args []string) {
	pathArg := ""
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		pathArg, args = args[0], args[1:]
	}

	assign := make(map[string]uint64, len(args))
	for _, a := range args {
		name, text, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			fmt.Fprintln(w, "Usage: encode [register] FIELD=value...")
			fmt.Fprintln(w, "  Example: encode UART/CTRL EN=1 BAUD_DIV=0x1a")
			return
		}
		v, err := regmap.ParseNumber(text)
		if err != nil {
			fmt.Fprintf(w, "Error: %s: %v\n", name, err)
			return
		}
		assign[name] = v
	}

	t, err := s.resolve(pathArg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	value, err := s.inspector.Encode(&t.Path, assign)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s = %s\n", t.Path.String(), inspect.FormatHex(value, t.Register.Width))
}

func (s *Shell) cmdFind(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: find <text>")
		return
	}
	paths := s.inspector.Find(args[0])
	if len(paths) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	for _, p := range paths {
		fmt.Fprintln(w, p.String())
	}
}

func (s *Shell) cmdValidate(w io.Writer) {
	res := regmap.Validate(s.inspector.Map())
	fmt.Fprintln(w, res.Summary())
	fmt.Fprint(w, s.formatter.FormatIssues(res))
}

// paths lists every block, register and field path for completion.
func (s *Shell) paths(string) []string {
	var out []string
	for _, b := range s.inspector.Map().Blocks {
		out = append(out, b.Name)
		for _, r := range b.Registers {
			out = append(out, b.Name+"/"+r.Name)
			for _, f := range r.Fields {
				out = append(out, b.Name+"/"+r.Name+"/"+f.Name)
			}
		}
	}
	return out
}

func (s *Shell) completer() *readline.PrefixCompleter {
	path := readline.PcItemDynamic(s.paths)
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("ls", path),
		readline.PcItem("show", path),
		readline.PcItem("cd", path),
		readline.PcItem("pwd"),
		readline.PcItem("addr", path),
		readline.PcItem("decode", path),
		readline.PcItem("encode", path),
		readline.PcItem("find"),
		readline.PcItem("validate"),
		readline.PcItem("quit"),
	)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
regflow shell commands:
  ls [path]                  - List the map, a block, a register or a field
  cd <path>|..|/             - Change the current block or register
  pwd                        - Show the current location
  addr [path]                - Show the absolute address
  decode [register] <value>  - Split a register value into fields
  encode [register] F=v...   - Build a register value from its reset value
  find <text>                - Find blocks, registers and fields by name
  validate                   - Run the validator
  help                       - Show this help
  quit                       - Exit

  Paths: BLOCK[/REGISTER[/FIELD]], "." also works as separator.
  Relative paths start at the current location.`)
}
