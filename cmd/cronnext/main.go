// Command cronnext validates cron expressions and prints when they fire next.
//
//	cronnext next "0 30 9 * * MON-FRI" -n 3 --from 2024-01-01T00:00:00Z
//	cronnext validate "*/5 * * * *"
//	cronnext explain "0 0 12 * JAN,JUL *" -o yaml --field hour,month
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"cronnext/internal/core"
	"cronnext/pkg/cronexpr"
)

const usage = `usage: cronnext <command> [flags] EXPR

commands:
  next      print the next run times
  validate  check an expression and report the offending field
  explain   print the values each field expands to
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "next":
		err = runNext(args[1:], stdout, stderr)
	case "validate":
		err = runValidate(args[1:], stdout, stderr)
	case "explain":
		err = runExplain(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "cronnext: %v\n", err)
		return 1
	}
}

var errUsage = errors.New("expected exactly one cron expression (quote it)")

func expressionArg(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func runNext(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("next", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	count := fs.IntP("count", "n", 5, "number of run times to print")
	from := fs.String("from", "", "reference time (RFC3339), default now")
	useUTC := fs.Bool("utc", false, "evaluate in UTC instead of local time")
	posix := fs.Bool("posix", false, "also print run times under POSIX day/weekday rules")
	if err := fs.Parse(args); err != nil {
		return err
	}
	expr, err := expressionArg(fs)
	if err != nil {
		return err
	}

	e, err := cronexpr.New(expr)
	if err != nil {
		return err
	}

	loc := time.Local
	if *useUTC {
		loc = time.UTC
	}
	base := time.Now().In(loc)
	if *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		base = t.In(loc)
	}
	if *count < 1 {
		*count = 1
	}

	runs, err := e.NextRuns(base, *count)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintln(stdout, r.Format(time.RFC3339))
	}

	if *posix {
		runs, err := core.PosixOccurrences(expr, base, *count)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "# posix")
		for _, r := range runs {
			fmt.Fprintln(stdout, r.Format(time.RFC3339))
		}
	}
	return nil
}

func runValidate(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	expr, err := expressionArg(fs)
	if err != nil {
		return err
	}

	e, err := cronexpr.New(expr)
	if err != nil {
		var fe *cronexpr.FieldError
		if errors.As(err, &fe) {
			return fmt.Errorf("invalid: %s field %q: %s", fe.Field, fe.Text, fe.Reason)
		}
		return fmt.Errorf("invalid: %w", err)
	}
	fmt.Fprintf(stdout, "valid: %s\n", e)
	return nil
}

type explanation struct {
	Expression string           `json:"expression" yaml:"expression"`
	Fields     map[string][]int `json:"fields" yaml:"fields"`
}

func runExplain(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("explain", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.StringP("output", "o", "text", "output format: text, json or yaml")
	only := fs.StringSliceP("field", "f", nil, "only show these fields (e.g. hour,weekday)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	expr, err := expressionArg(fs)
	if err != nil {
		return err
	}

	fields := core.Fields[:]
	if len(*only) > 0 {
		fields = make([]core.Field, 0, len(*only))
		for _, name := range *only {
			f, ok := core.ParseFieldName(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown field %q", name)
			}
			fields = append(fields, f)
		}
	}

	e, err := cronexpr.New(expr)
	if err != nil {
		return err
	}

	ex := explanation{Expression: e.String(), Fields: make(map[string][]int, len(fields))}
	for _, f := range fields {
		ex.Fields[f.String()] = e.Values(f)
	}

	switch strings.ToLower(*output) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ex)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(ex); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		fmt.Fprintf(stdout, "%s\n", ex.Expression)
		for _, f := range fields {
			fmt.Fprintf(stdout, "  %-8s %v\n", f.String()+":", ex.Fields[f.String()])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", *output)
	}
}
