package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"smartsummarizer/core"
	"smartsummarizer/pdfprocessor"
	"smartsummarizer/pipeline"
	"smartsummarizer/shutdown"
	"smartsummarizer/summarizer"
	"smartsummarizer/webui"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

const planPreviewLength = 100

var errNoInput = errors.New("no input: use --text, --file, or pipe text on stdin")

type summarizeOptions struct {
	file     string
	text     string
	strategy summarizer.Strategy
	dryRun   bool
	jsonOut  bool
	noColor  bool

	// Applied only when the flag was given.
	chunkSize    *int
	chunkOverlap *int
	threshold    *int
}

func summarizeCmd() *cobra.Command {
	var (
		opts                         summarizeOptions
		strategy                     string
		chunkSize, overlap, wordsMin int
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize text or a PDF from the command line",
		Long: "Summarize text given with --text, read from --file (text or PDF; \"-\" is stdin),\n" +
			"or piped on stdin. The summary is printed to stdout; details go to stderr.\n" +
			"Empty input prints nothing.",
		Example: "  smartsummarizer summarize --file report.pdf\n" +
			"  cat notes.txt | smartsummarizer summarize --strategy map_reduce\n" +
			"  smartsummarizer summarize --file book.txt --dry-run",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s := strings.TrimSpace(strategy); s != "" && s != "auto" {
				parsed, err := summarizer.ParseStrategy(s)
				if err != nil {
					return fmt.Errorf("invalid --strategy: %w", err)
				}
				opts.strategy = parsed
			}
			if cmd.Flags().Changed("chunk-size") {
				opts.chunkSize = &chunkSize
			}
			if cmd.Flags().Changed("chunk-overlap") {
				opts.chunkOverlap = &overlap
			}
			if cmd.Flags().Changed("word-threshold") {
				opts.threshold = &wordsMin
			}
			code := runSummarize(opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code == core.ExitCodeUsage {
				return errNoInput
			}
			return exitWith(code, nil)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "text or PDF file to summarize (\"-\" reads stdin)")
	f.StringVarP(&opts.text, "text", "t", "", "text to summarize")
	f.StringVarP(&strategy, "strategy", "s", "auto", "auto, stuff or map_reduce")
	f.IntVar(&chunkSize, "chunk-size", summarizer.DefaultChunkSize, "override CHUNK_SIZE")
	f.IntVar(&overlap, "chunk-overlap", summarizer.DefaultChunkOverlap, "override CHUNK_OVERLAP")
	f.IntVar(&wordsMin, "word-threshold", summarizer.DefaultWordThreshold, "override WORD_THRESHOLD")
	f.BoolVar(&opts.dryRun, "dry-run", false, "show the chunking plan without calling the LLM")
	f.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	return cmd
}

// runSummarize returns ExitCodeUsage only for missing input.
func runSummarize(opts summarizeOptions, stdin io.Reader, stdout, stderr io.Writer) int {
	if opts.noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig()
	if err != nil {
		printConfigError(stderr, err)
		return core.ExitCodeError
	}
	if opts.chunkSize != nil {
		cfg.ChunkSize = *opts.chunkSize
	}
	if opts.chunkOverlap != nil {
		cfg.ChunkOverlap = *opts.chunkOverlap
	}
	if opts.threshold != nil {
		cfg.WordThreshold = *opts.threshold
	}
	if err := cfg.Validate(); err != nil {
		printConfigError(stderr, err)
		return core.ExitCodeError
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	// Nothing serves /metrics here.
	cfg.MetricsEnabled = false

	logger, err := newLogger(cfg, zapcore.AddSync(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}

	m := shutdown.NewManager(logger)
	m.Start()

	a, err := newApp(cfg, logger)
	if err != nil {
		printConfigError(stderr, err)
		_ = m.Shutdown()
		return core.ExitCodeError
	}
	a.register(m)

	code := summarizeWith(a, m, opts, stdin, stdout, stderr)
	if err := m.Shutdown(); err != nil {
		fmt.Fprintf(stderr, "Shutdown error: %v\n", err)
	}
	return code
}

func summarizeWith(a *app, m *shutdown.Manager, opts summarizeOptions, stdin io.Reader, stdout, stderr io.Writer) int {
	// A missing credential stops the run before any input is read.
	if !opts.dryRun {
		if err := a.service.CheckCredential(""); err != nil {
			printConfigError(stderr, err)
			return core.ExitCodeError
		}
	}

	extractor := pdfprocessor.NewExtractor(pdfprocessor.Options{MaxPages: a.cfg.PDFMaxPages})
	req, err := readInput(opts, stdin, extractor, a.cfg.MaxUploadBytes)
	switch {
	case errors.Is(err, errNoInput):
		return core.ExitCodeUsage
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}
	req.Strategy = opts.strategy

	if opts.dryRun {
		return printPlan(a, req, stdout, stderr, opts.jsonOut)
	}

	var resp *pipeline.Response
	err = m.WrapOperation(m.Context(), "summarize", func(ctx context.Context) error {
		var err error
		resp, err = a.service.Summarize(ctx, req)
		return err
	})
	switch {
	case errors.Is(err, summarizer.ErrEmptyInput):
		return core.ExitCodeSuccess
	case err != nil && m.Signal() != nil:
		return m.ExitCode()
	case err != nil:
		if _, ok := core.IsConfigError(err); ok {
			printConfigError(stderr, err)
		} else {
			color.New(color.FgRed).Fprintf(stderr, "Summarization failed: %v\n", err)
		}
		return core.ExitCodeError
	}

	if opts.jsonOut {
		out := webui.SummarizeResponse{Response: resp, Duration: webui.FormatDuration(resp.Duration)}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return core.ExitCodeError
		}
		return core.ExitCodeSuccess
	}

	fmt.Fprintln(stdout, resp.Summary)
	printDetails(stderr, resp)
	return core.ExitCodeSuccess
}

func printDetails(w io.Writer, resp *pipeline.Response) {
	label := color.New(color.Faint)
	value := color.New(color.FgCyan)

	label.Fprint(w, "strategy ")
	value.Fprint(w, resp.Strategy.String())
	label.Fprint(w, "  words ")
	value.Fprint(w, resp.Words)
	label.Fprint(w, "  chunks ")
	value.Fprint(w, resp.Chunks)
	label.Fprint(w, "  model ")
	value.Fprint(w, resp.Provider+"/"+resp.Model)
	if resp.Cached {
		color.New(color.FgYellow).Fprint(w, "  cached")
	} else {
		label.Fprint(w, "  took ")
		value.Fprint(w, webui.FormatDuration(resp.Duration))
	}
	fmt.Fprintln(w)
}

// printPlan shows how the input would be split without calling the LLM.
func printPlan(a *app, req pipeline.Request, stdout, stderr io.Writer, jsonOut bool) int {
	plan, err := a.service.Plan(req)
	if errors.Is(err, summarizer.ErrEmptyInput) {
		return core.ExitCodeSuccess
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return core.ExitCodeError
	}

	if jsonOut {
		chunks := make([]string, len(plan.Documents))
		for i, doc := range plan.Documents {
			chunks[i] = doc.PageContent
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"strategy": plan.Strategy,
			"forced":   plan.Forced,
			"words":    plan.Words,
			"chars":    plan.Chars,
			"chunks":   chunks,
		})
		return core.ExitCodeSuccess
	}

	how := fmt.Sprintf("%d words, threshold %d", plan.Words, a.cfg.WordThreshold)
	if plan.Forced {
		how = "forced"
	}
	bold := color.New(color.Bold)
	bold.Fprintf(stdout, "Strategy: %s", plan.Strategy)
	fmt.Fprintf(stdout, " (%s)\n", how)
	bold.Fprintf(stdout, "Chunks:   %d", plan.Chunks())
	fmt.Fprintf(stdout, " (size %d, overlap %d)\n", a.cfg.ChunkSize, a.cfg.ChunkOverlap)
	for i, doc := range plan.Documents {
		preview := strings.Join(strings.Fields(doc.PageContent), " ")
		fmt.Fprintf(stdout, "  [%d] %s\n", i+1, summarizer.TruncateWithEllipsis(preview, planPreviewLength))
	}
	return core.ExitCodeSuccess
}

// readInput builds the request from --text, --file or stdin. PDFs are
// recognised by their content, not their name.
func readInput(opts summarizeOptions, stdin io.Reader, extractor *pdfprocessor.Extractor, limit int64) (pipeline.Request, error) {
	if opts.text != "" {
		return pipeline.Request{Text: opts.text, Source: pipeline.SourceText}, nil
	}

	var (
		src  io.Reader
		name string
	)
	switch opts.file {
	case "", "-":
		if f, ok := stdin.(*os.File); ok && opts.file == "" && isatty.IsTerminal(f.Fd()) {
			return pipeline.Request{}, errNoInput
		}
		src, name = stdin, "stdin"
	default:
		f, err := os.Open(opts.file)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		src, name = f, opts.file
	}

	return readSource(src, name, extractor, limit)
}

func readSource(src io.Reader, name string, extractor *pdfprocessor.Extractor, limit int64) (pipeline.Request, error) {
	br := bufio.NewReaderSize(src, pdfprocessor.SniffLength)
	head, _ := br.Peek(pdfprocessor.SniffLength)

	if pdfprocessor.IsPDF(head) {
		req := pipeline.Request{Source: pipeline.SourcePDF, SourceName: name}
		result, err := extractor.ExtractReader(br, limit)
		switch {
		case errors.Is(err, pdfprocessor.ErrNoPDFContent):
			return req, nil
		case err != nil:
			return req, fmt.Errorf("failed to read PDF %s: %w", name, err)
		}
		req.Text = result.Text
		return req, nil
	}

	data, err := io.ReadAll(io.LimitReader(br, limit+1))
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return pipeline.Request{}, fmt.Errorf("%s is larger than %d bytes", name, limit)
	}
	return pipeline.Request{Text: string(data), Source: pipeline.SourceText, SourceName: name}, nil
}
