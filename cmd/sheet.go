package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetask-cli/internal/ai"
	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/assist"
	"github.com/KaramelBytes/sheetask-cli/internal/logging"
	"github.com/KaramelBytes/sheetask-cli/internal/query"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

// sheetFlags are the loading flags shared by every command that reads a sheet.
type sheetFlags struct {
	sheet     string
	delimiter string
	maxRows   int
}

func (f *sheetFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.sheet, "sheet", "", "XLSX sheet name (default: config sheet_name, else first sheet)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',', ';', or 'tab' (default: by extension)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "limit data rows loaded (0 = all)")
}

func (f *sheetFlags) options() (table.Options, error) {
	opt := table.Options{SheetName: f.sheet, MaxRows: f.maxRows}
	if opt.SheetName == "" {
		opt.SheetName = config().SheetName
	}
	switch strings.ToLower(strings.TrimSpace(f.delimiter)) {
	case "":
	case ",", "comma":
		opt.Delimiter = ','
	case ";", "semicolon":
		opt.Delimiter = ';'
	case "tab", "\\t", "\t":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter %q (use ',', ';', or 'tab')", f.delimiter)
	}
	if opt.MaxRows < 0 {
		return opt, fmt.Errorf("--max-rows must not be negative")
	}
	return opt, nil
}

// loadSheet loads and classifies path.
func (f *sheetFlags) loadSheet(path string) (*table.Table, analysis.Types, error) {
	opt, err := f.options()
	if err != nil {
		return nil, nil, err
	}
	t, err := table.LoadFile(path, opt)
	if err != nil {
		return nil, nil, err
	}
	return t, analysis.Classify(t), nil
}

// Injectable for tests.
var (
	newRuntime = func(c runtimeSettings) (ai.Runtime, error) {
		rt, ok := ai.GetRuntime(ai.ProviderOllama, c.runtimeConfig())
		if !ok {
			return nil, fmt.Errorf("runtime %q not registered", ai.ProviderOllama)
		}
		return rt, nil
	}
	newEmbedder = func(c runtimeSettings) (ai.Embedder, error) {
		rc := c.runtimeConfig()
		return ai.NewOllamaEmbClient(rc.Host, rc.HTTPTimeout), nil
	}
)

type runtimeSettings struct {
	host       string
	timeoutSec int
	retryMax   int
	baseMs     int
	maxMs      int
}

func currentRuntimeSettings() runtimeSettings {
	c := config()
	return runtimeSettings{
		host:       c.OllamaHost,
		timeoutSec: c.OllamaTimeoutSec,
		retryMax:   c.RetryMaxAttempts,
		baseMs:     c.RetryBaseDelayMs,
		maxMs:      c.RetryMaxDelayMs,
	}
}

func (s runtimeSettings) runtimeConfig() ai.RuntimeConfig {
	return ai.RuntimeConfig{
		Host:        s.host,
		HTTPTimeout: time.Duration(s.timeoutSec) * time.Second,
		RetryMax:    s.retryMax,
		BaseDelay:   time.Duration(s.baseMs) * time.Millisecond,
		MaxDelay:    time.Duration(s.maxMs) * time.Millisecond,
	}
}

// newAssistant builds the LLM fallback from config, with model overriding default_model.
func newAssistant(model string) (*assist.Assistant, error) {
	rt, err := newRuntime(currentRuntimeSettings())
	if err != nil {
		return nil, err
	}
	c := config()
	if model == "" {
		model = c.DefaultModel
	}
	return &assist.Assistant{Runtime: rt, Model: model, MaxTokens: c.MaxTokens, Temperature: c.Temperature}, nil
}

// answerFlags are shared by ask and chat.
type answerFlags struct {
	jsonOut bool
	assist  bool
	stream  bool
	model   string
}

func (f *answerFlags) register(c *cobra.Command) {
	c.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
	c.Flags().BoolVar(&f.assist, "assist", false, "hand unrecognized questions to the local model")
	c.Flags().BoolVar(&f.stream, "stream", false, "stream assistant output as it is generated")
	c.Flags().StringVar(&f.model, "model", "", "assistant model (overrides default_model)")
}

// answerer answers questions against one loaded sheet.
type answerer struct {
	t     *table.Table
	types analysis.Types
	flags answerFlags
	asst  *assist.Assistant
}

// answer runs one question and writes the outcome to w. A query failure is
// reported with the generic message and returned as errReported.
func (a *answerer) answer(ctx context.Context, w io.Writer, question string) error {
	res, err := query.Answer(a.t, question, a.types)
	if err != nil {
		logging.Debugf("query %q failed: %v", question, err)
		fmt.Fprintln(w, "✗ Error processing query")
		return errReported
	}
	if !res.Recognized() && a.flags.assist {
		return a.fallback(ctx, w, question)
	}
	return printResult(w, res, a.flags.jsonOut)
}

func (a *answerer) fallback(ctx context.Context, w io.Writer, question string) error {
	if a.asst == nil {
		asst, err := newAssistant(a.flags.model)
		if err != nil {
			return err
		}
		a.asst = asst
	}
	preview := analysis.Describe(a.t, a.types, config().PreviewRows).Markdown()
	prompt := assist.PreviewPrompt(preview, question, assist.DefaultContextTokens)
	var onDelta func(string)
	if a.flags.stream && !a.flags.jsonOut {
		onDelta = func(d string) { fmt.Fprint(w, d) }
	}
	text, err := a.asst.Ask(ctx, prompt, onDelta)
	if err != nil {
		return err
	}
	if a.flags.jsonOut {
		b, err := utils.PrettyJSON(map[string]string{"intent": "assistant", "text": text})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	if onDelta != nil {
		fmt.Fprintln(w)
		return nil
	}
	fmt.Fprintln(w, text)
	return nil
}

func printResult(w io.Writer, res *query.Result, asJSON bool) error {
	if asJSON {
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	// Table results carry their markdown in Text.
	fmt.Fprintln(w, strings.TrimRight(res.Text, "\n"))
	if ch := res.Chart; ch != nil {
		fmt.Fprintf(w, "\nChart: %s %s (x=%s, y=%s, %d points)\n", ch.Kind, ch.Title, ch.X, ch.Y, len(ch.Points))
	}
	return nil
}
