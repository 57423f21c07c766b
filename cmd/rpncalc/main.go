package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zephyrtronium/rpncalc"
	"github.com/zephyrtronium/rpncalc/internal/constfile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole program. It returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rpncalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		inname, verb, consts string
		with                 [][2]string
		nl, echo, list, v    bool
		prec                 int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`constant definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	fs.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	fs.StringVar(&verb, "fmt", "%g", "result formatting string")
	fs.StringVar(&consts, "consts", "", "YAML or JSON file of constant definitions")
	fs.Func("given", "name=value constant definition (any number of times)", addwith)
	fs.IntVar(&prec, "p", 0, "evaluate with this many bits of precision instead of float64")
	fs.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	fs.BoolVar(&echo, "echo", false, "print compiled programs in postfix form")
	fs.BoolVar(&list, "list", false, "list operators and functions, then exit")
	fs.BoolVar(&v, "v", false, "log failures in detail")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if v {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if prec < 0 {
		logger.Error("precision must be positive", slog.Int("prec", prec))
		return 2
	}

	ev := rpncalc.NewEvaluator(
		rpncalc.WithLogger(logger),
		rpncalc.WithMetrics(rpncalc.NewMetricsRecorder()),
	)
	if list {
		reg := rpncalc.Default()
		fmt.Fprintln(stdout, "operators:", strings.Join(reg.Operators(), " "), "?:")
		fmt.Fprintln(stdout, "functions:", strings.Join(reg.Functions(), " "))
		return 0
	}

	defs := map[string]float64{}
	if consts != "" {
		m, err := constfile.FromFile(consts)
		if err != nil {
			logger.Error("loading constants", slog.String("error", err.Error()))
			return 1
		}
		defs = m
	}
	for _, d := range with {
		nm, vl := d[0], d[1]
		r, err := ev.Eval(vl, defs)
		if err != nil {
			logger.Error("setting constant", slog.String("name", nm), slog.String("error", err.Error()))
			return 1
		}
		defs[strings.ToLower(nm)] = r
	}

	srcs, err := inputs(inname, fs.Args(), stdin, nl)
	if err != nil {
		logger.Error("reading input", slog.String("error", err.Error()))
		return 1
	}

	verb += "\n"
	code := 0
	for _, src := range srcs {
		if strings.TrimSpace(src) == "" && nl {
			continue
		}
		p, err := ev.Compile(src, defs)
		if err != nil {
			fmt.Fprintln(stdout, err)
			code = 1
			continue
		}
		if echo {
			fmt.Fprintf(stdout, "%v : ", p)
		}
		if prec > 0 {
			r, err := ev.RunBig(p, uint(prec))
			if err != nil {
				fmt.Fprintln(stdout, err)
				code = 1
				continue
			}
			fmt.Fprintf(stdout, verb, r)
			continue
		}
		r, err := ev.Run(p)
		if err != nil {
			fmt.Fprintln(stdout, err)
			code = 1
			continue
		}
		fmt.Fprintf(stdout, verb, r)
	}
	return code
}

// inputs collects the expressions to evaluate: the contents of the input
// file, or stdin when no file or arguments are given, followed by each
// argument. With lines, input files are split into one expression per line.
func inputs(inname string, args []string, stdin io.Reader, lines bool) ([]string, error) {
	var f io.Reader
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		defer in.Close()
		f = in
	case inname == "-", len(args) == 0:
		f = stdin
	}
	var srcs []string
	if f != nil {
		if lines {
			s := bufio.NewScanner(f)
			for s.Scan() {
				srcs = append(srcs, s.Text())
			}
			if err := s.Err(); err != nil {
				return nil, err
			}
		} else {
			b, err := io.ReadAll(f)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, string(b))
		}
	}
	return append(srcs, args...), nil
}
