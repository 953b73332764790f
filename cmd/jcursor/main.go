package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calumari/jcursor"
	"github.com/calumari/jcursor/internal/pipeline"
)

var (
	version = "0.1.0"

	inputFile  string
	scriptFile string
	verbose    bool
	color      string

	rootCmd = &cobra.Command{
		Use:   "jcursor [flags] [step...]",
		Short: "Rewrite documents through chained cursor steps",
		Long: `jcursor reads a document as text, runs cursor steps over it and prints
the result. Steps come from a script file (--script) or from the arguments,
one step per argument:

  echo eyJhIjoxfQ== | jcursor b64dec 'load json' 'at $.a' 'set 2' root 'dump yaml'`,
		Version:      version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         run,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVarP(&inputFile, "file", "f", "-", "input document, - for stdin")
	rootCmd.Flags().StringVarP(&scriptFile, "script", "s", "", "pipeline script to run before the argument steps")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every step to stderr")
	rootCmd.Flags().StringVar(&color, "color", "auto", "highlight json and yaml output: auto, always or never")

	rootCmd.AddCommand(codecsCmd)
}

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List the registered codecs",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range jcursor.DefaultRegistry.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger logs text to a terminal and JSON otherwise.
func newLogger(w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		options.Level = slog.LevelDebug
	}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

func run(cmd *cobra.Command, args []string) error {
	switch color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --color %q: want auto, always or never", color)
	}
	logger := newLogger(cmd.ErrOrStderr())

	var steps pipeline.Pipeline
	if scriptFile != "" {
		p, err := pipeline.ParseFile(scriptFile)
		if err != nil {
			return err
		}
		steps = append(steps, p...)
	}
	p, err := pipeline.ParseArgs(args)
	if err != nil {
		return err
	}
	steps = append(steps, p...)

	input, err := readInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	c := jcursor.New(input, jcursor.WithLogger(logger))
	if err := pipeline.Run(c, steps); err != nil {
		return err
	}
	out, err := c.Value()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	lang := language(out)
	if lang != "" && (color == "always" || (color == "auto" && isTerminal(w))) {
		return highlight(w, out, lang)
	}
	return write(w, out)
}

// language names the lexer for the output. Values that are not text print
// as JSON; text is highlighted when it parses as a JSON or YAML collection.
func language(v any) string {
	s, ok := v.(string)
	if !ok {
		return "json"
	}
	for _, lang := range []string{"json", "yaml"} {
		doc, _, err := jcursor.DefaultRegistry.Convert(lang, jcursor.ActionLoad, s)
		if err != nil {
			continue
		}
		switch doc.(type) {
		case jcursor.D, jcursor.A:
			return lang
		}
	}
	return ""
}

func highlight(w io.Writer, v any, lang string) error {
	var buf strings.Builder
	if err := write(&buf, v); err != nil {
		return err
	}
	if err := quick.Highlight(w, buf.String(), lang, "terminal256", "monokai"); err != nil {
		_, err = io.WriteString(w, buf.String())
		return err
	}
	return nil
}

func readInput(stdin io.Reader) (string, error) {
	if inputFile == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", inputFile, err)
	}
	return string(data), nil
}

// write prints strings as they are and everything else as JSON.
func write(w io.Writer, v any) error {
	s, ok := v.(string)
	if !ok {
		out, _, err := jcursor.DefaultRegistry.Convert("json", jcursor.ActionDump, v)
		if err != nil {
			return err
		}
		s = out.(string)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
