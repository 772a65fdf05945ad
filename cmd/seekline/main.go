// Command seekline searches sorted line files and estimates their size
// without reading them in full.
//
//	seekline search -field 1 access.log 2024-03-01T00:00:00
//	seekline search -field 2 -numeric s3://logs/app.log 1700000000 1700003600
//	seekline estimate -json trace.ndjson.zst
//	seekline lines -skip-empty -n 10 minio://bucket/data.log.gz
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: seekline <command> [flags] <source> [args]

commands:
  search    print the first line whose key is >= target, or every line
            with from <= key < to
  estimate  estimate compression ratio, decoded size, mean line length and
            line count from a prefix of the file
  lines     print the lines of a (possibly compressed) file

sources are local paths, s3://bucket/key or minio://bucket/key. MinIO is
configured through MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and
MINIO_SECURE; S3 uses the default AWS credential chain.

Run 'seekline <command> -h' for the flags of a command.
`

var (
	// errUsage reports invalid arguments; the flag set already printed why.
	errUsage = errors.New("usage")
	// errNoMatch makes search exit with status 1 like grep.
	errNoMatch = errors.New("no match")
)

type command func(ctx context.Context, args []string, stdout, stderr io.Writer) error

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var cmd command
	switch args[0] {
	case "search":
		cmd = runSearch
	case "estimate":
		cmd = runEstimate
	case "lines":
		cmd = runLines
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "seekline: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	err := cmd(ctx, args[1:], stdout, stderr)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errNoMatch):
		return 1
	default:
		fmt.Fprintf(stderr, "seekline: %v\n", err)
		return 1
	}
}

// parseArgs parses args with fs and checks the number of positional
// arguments.
func parseArgs(fs *flag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, errUsage
	}
	rest := fs.Args()
	if len(rest) < minArgs || len(rest) > maxArgs {
		fmt.Fprintf(fs.Output(), "%s: expected %d to %d arguments, got %d\n", fs.Name(), minArgs, maxArgs, len(rest))
		fs.Usage()
		return nil, errUsage
	}
	return rest, nil
}

func newFlagSet(name, synopsis string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: seekline %s\n\nflags:\n", synopsis)
		fs.PrintDefaults()
	}
	return fs
}
