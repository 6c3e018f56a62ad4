package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/structlayout/schema"
	"github.com/wippyai/structlayout/structs"
	"github.com/wippyai/structlayout/wasmmem"
)

type options struct {
	schemaFile string
	structName string
	model      string
	set        string
	wasm       bool
	verbose    bool
}

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to a YAML struct schema")
		structName  = flag.String("struct", "", "Only show this struct")
		model       = flag.String("model", "", "Data model override (lp64, llp64, ilp32)")
		setValues   = flag.String("set", "", "Populate an instance (field=value,...)")
		wasm        = flag.Bool("wasm", false, "Back instances by a wasm linear memory")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: structlayout -schema <defs.yaml> [-struct Name] [-model ilp32] [-v]")
		fmt.Fprintln(os.Stderr, "       structlayout -schema <defs.yaml> -struct Name -set a=1,b=2 [-wasm]")
		fmt.Fprintln(os.Stderr, "       structlayout -schema <defs.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	opts := options{
		schemaFile: *schemaFile,
		structName: *structName,
		model:      *model,
		set:        *setValues,
		wasm:       *wasm,
		verbose:    *verbose,
	}

	logger := newLogger(opts.verbose)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		plainStyles()
	}

	var err error
	if *interactive {
		err = runInteractive(opts)
	} else {
		err = run(opts)
	}
	// os.Exit skips deferred calls, so buffered log entries are flushed here.
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a development logger routed into the library packages
// when verbose is set, and a no-op logger otherwise.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug logging unavailable: %v\n", err)
		return zap.NewNop()
	}
	structs.SetLogger(logger)
	wasmmem.SetLogger(logger)
	return logger
}

// loadSet reads the schema and builds its types. The returned close
// function releases the wasm runtime when one was created.
func loadSet(ctx context.Context, opts options) (*schema.Set, func(), error) {
	doc, err := schema.LoadFile(opts.schemaFile)
	if err != nil {
		return nil, nil, err
	}
	if opts.model != "" {
		doc.Model = opts.model
	}

	closeFn := func() {}
	var typeOpts []structs.Option
	if opts.wasm {
		lin, err := wasmmem.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		typeOpts = append(typeOpts, structs.WithMemory(lin.Memory(), lin.Allocator()))
		closeFn = func() { lin.Close(ctx) }
	}

	set, err := doc.Build(typeOpts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return set, closeFn, nil
}

func run(opts options) error {
	ctx := context.Background()

	set, closeFn, err := loadSet(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	names := set.Names()
	if opts.structName != "" {
		if _, ok := set.Type(opts.structName); !ok {
			return fmt.Errorf("struct %q not found in %s", opts.structName, opts.schemaFile)
		}
		names = []string{opts.structName}
	}

	fmt.Printf("%s %s (%s)\n\n", titleStyle.Render("Schema"), opts.schemaFile, set.Model())
	for _, name := range names {
		st, _ := set.Type(name)
		fmt.Println(layoutTable(st))
		fmt.Println()
	}

	if opts.set == "" {
		return nil
	}
	if opts.structName == "" {
		return fmt.Errorf("-set requires -struct")
	}
	st, _ := set.Type(opts.structName)
	values, err := parseAssignments(opts.set)
	if err != nil {
		return err
	}
	inst, err := st.NewFrom(values)
	if err != nil {
		return err
	}
	raw, err := inst.Bytes()
	if err != nil {
		return err
	}

	fmt.Printf("%s %s at 0x%x\n", titleStyle.Render("Instance"), st.Name(), inst.Buffer().Address())
	fmt.Print(hex.Dump(raw))
	fmt.Println()
	for _, f := range st.Fields() {
		v, err := inst.Get(f.Name)
		if err != nil {
			fmt.Printf("  %s = %s\n", nameStyle.Render(f.Name), errorStyle.Render(err.Error()))
			continue
		}
		fmt.Printf("  %s = %s\n", nameStyle.Render(f.Name), valueStyle.Render(formatValue(v)))
	}
	return nil
}

// layoutTable renders one row per field plus a trailer with size and
// alignment.
func layoutTable(st *structs.Type) string {
	fields := st.Fields()
	padding := st.Padding()

	rows := [][]string{{"field", "type", "offset", "size", "align", "padding"}}
	for i, f := range fields {
		rows = append(rows, []string{
			f.Name,
			f.Type.Name(),
			strconv.FormatUint(uint64(f.Offset), 10),
			strconv.FormatUint(uint64(f.Type.Size()), 10),
			strconv.FormatUint(uint64(f.Type.Align()), 10),
			strconv.FormatUint(uint64(padding[i]), 10),
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for c, cell := range row {
			widths[c] = max(widths[c], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	kind := "struct"
	if st.Packed() {
		kind = "packed struct"
	}
	fmt.Fprintf(&b, "%s %s\n", kind, nameStyle.Render(st.Name()))
	for r, row := range rows {
		cells := make([]string, len(row))
		for c, cell := range row {
			style := lipgloss.NewStyle().Width(widths[c])
			if c >= 2 {
				style = style.Align(lipgloss.Right)
			}
			switch {
			case r == 0:
				style = style.Inherit(headerStyle)
			case c == 1:
				style = style.Inherit(typeStyle)
			}
			cells[c] = style.Render(cell)
		}
		b.WriteString("  ")
		b.WriteString(strings.Join(cells, "  "))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %s", helpStyle.Render(fmt.Sprintf("size %d, align %d", st.Size(), st.Align())))
	return b.String()
}

// parseAssignments splits "a=1,b=x" into field values. Each value is
// converted by parseValue.
func parseAssignments(s string) (map[string]any, error) {
	out := make(map[string]any)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected field=value", part)
		}
		out[name] = parseValue(strings.TrimSpace(value))
	}
	return out, nil
}

// parseValue converts a command-line literal: integers (decimal or 0x hex),
// floats and booleans become numbers and bools; quoted or other text stays
// a string.
func parseValue(s string) any {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case *structs.Instance:
		return v.String()
	}
	return fmt.Sprintf("%v", v)
}
