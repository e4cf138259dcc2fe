// Command dataexpr evaluates data-binding expressions against a YAML data
// model.
//
// Usage:
//
//	dataexpr [-m model.yaml] [-a] [-d] [-o] [-v] [-i] [expression ...]
//
// Each argument is compiled and run in order. With -a the arguments are
// assignments that write into the model; -o prints the model afterwards.
// -i starts an interactive session.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sandrolain/dataexpr"
	"github.com/sandrolain/dataexpr/pkg/datamodel"
	"github.com/sandrolain/dataexpr/pkg/types"
)

const usage = `usage: dataexpr [options] [expression ...]

options:
  -m FILE  load the data model from a YAML file
  -a       treat arguments as assignments
  -d       print the compiled program
  -o       print the data model as YAML when done
  -v       log interpreter traces
  -i       start an interactive session
  -h       show this help
`

const replHelp = `Enter an expression to print its value, or "name = expr; ..." to assign.
  :dump   toggle program listings
  :model  print the data model
  :watch  EXPR  keep EXPR as a view, reprinted whenever it changes
  :views  print every view
  :help   show this help
  :quit   leave
`

type options struct {
	modelFile   string
	assignment  bool
	dump        bool
	printModel  bool
	verbose     bool
	interactive bool
}

type cli struct {
	opts   options
	model  *datamodel.Model
	engine *dataexpr.Engine
	stdout io.Writer
	stderr io.Writer
	errOut *color.Color
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usage)
		return 2
	}
	if opts == nil {
		fmt.Fprint(stdout, usage)
		return 0
	}
	if len(rest) == 0 && !opts.interactive && !opts.printModel {
		fmt.Fprint(stderr, usage)
		return 2
	}

	c := &cli{
		opts:   *opts,
		stdout: stdout,
		stderr: stderr,
		errOut: color.New(color.FgRed),
	}
	if err := c.setup(); err != nil {
		c.fail(err)
		return 1
	}

	status := 0
	for _, text := range rest {
		if err := c.runText(text, c.opts.assignment); err != nil {
			c.fail(err)
			status = 1
		}
	}

	if c.opts.interactive {
		c.repl()
	}

	if c.opts.printModel {
		if err := c.model.WriteYAML(stdout); err != nil {
			c.fail(err)
			return 1
		}
	}
	return status
}

// parseFlags returns nil options when help was requested.
func parseFlags(args []string) (*options, []string, error) {
	opts, optind, err := getopt.Getopts(args, "m:adovih")
	if err != nil {
		return nil, nil, err
	}

	var o options
	for _, opt := range opts {
		switch opt.Option {
		case 'm':
			o.modelFile = opt.Value
		case 'a':
			o.assignment = true
		case 'd':
			o.dump = true
		case 'o':
			o.printModel = true
		case 'v':
			o.verbose = true
		case 'i':
			o.interactive = true
		case 'h':
			return nil, nil, nil
		}
	}
	return &o, args[optind:], nil
}

func (c *cli) setup() error {
	level := slog.LevelWarn
	if c.opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	model, err := loadModel(c.opts.modelFile, logger)
	if err != nil {
		return err
	}
	c.model = model
	c.engine = dataexpr.NewEngine(model,
		dataexpr.WithLogger(logger),
		dataexpr.WithDebug(c.opts.verbose),
		dataexpr.WithCache(128),
	)
	return nil
}

func loadModel(path string, logger *slog.Logger) (*datamodel.Model, error) {
	if path == "" {
		return datamodel.New(datamodel.WithLogger(logger)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return datamodel.LoadYAML(f, datamodel.WithLogger(logger))
}

// runText compiles and runs one expression or assignment.
func (c *cli) runText(text string, assignment bool) error {
	expr, err := c.engine.Compile(text, assignment)
	if err != nil {
		return err
	}
	return c.runCompiled(expr)
}

func (c *cli) runCompiled(expr *types.Expression) error {
	if c.opts.dump {
		fmt.Fprint(c.stdout, expr.Program().Dump(expr.Addresses()))
	}

	if expr.IsAssignment() {
		if err := c.engine.ExecuteAssignment(expr); err != nil {
			return err
		}
		if changed := c.model.DirtyVariables(); len(changed) > 0 {
			fmt.Fprintf(c.stdout, "changed: %s\n", strings.Join(changed, ", "))
		}
		for _, view := range c.model.Update() {
			c.printView(view)
		}
		return nil
	}

	v, err := c.engine.Execute(expr)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, v.ToString())
	return nil
}

// runLine runs a REPL line, trying it as an assignment first.
func (c *cli) runLine(line string) error {
	if expr, err := dataexpr.ParseAssignment(line, c.model, c.engine.Registry()); err == nil {
		return c.runCompiled(expr)
	}
	return c.runText(line, false)
}

func (c *cli) repl() {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	for {
		line, err := ln.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(c.stdout)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if !c.command(line) {
				return
			}
			continue
		}
		if err := c.runLine(line); err != nil {
			c.fail(err)
		}
	}
}

// command handles a REPL command and reports whether the session goes on.
func (c *cli) command(line string) bool {
	if text, ok := strings.CutPrefix(line, ":watch "); ok {
		c.watch(strings.TrimSpace(text))
		return true
	}

	switch strings.ToLower(line) {
	case ":quit", ":q":
		return false
	case ":dump":
		c.opts.dump = !c.opts.dump
		fmt.Fprintf(c.stdout, "program listings %s\n", onOff(c.opts.dump))
	case ":model":
		if err := c.model.WriteYAML(c.stdout); err != nil {
			c.fail(err)
		}
	case ":views":
		for _, view := range c.model.Views() {
			c.printView(view)
		}
	case ":help":
		fmt.Fprint(c.stdout, replHelp)
	default:
		fmt.Fprintln(c.stdout, "unknown command, type :help")
	}
	return true
}

// watch registers text as a view named after itself.
func (c *cli) watch(text string) {
	expr, err := c.engine.Compile(text, false)
	if err != nil {
		c.fail(err)
		return
	}
	view, err := c.model.AddView(text, expr)
	if err != nil {
		c.fail(err)
		return
	}
	c.model.Update()
	c.printView(view)
}

func (c *cli) printView(view *datamodel.View) {
	if err := view.Err(); err != nil {
		c.errOut.Fprintf(c.stderr, "view %s: %v\n", view.Name(), err)
		return
	}
	fmt.Fprintf(c.stdout, "%s => %s\n", view.Name(), view.Value())
}

func (c *cli) fail(err error) {
	var exprErr *types.Error
	if errors.As(err, &exprErr) {
		c.errOut.Fprintf(c.stderr, "%s error: %v\n", exprErr.Kind(), err)
		return
	}
	c.errOut.Fprintf(c.stderr, "error: %v\n", err)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
