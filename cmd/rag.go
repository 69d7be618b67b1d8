package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetask-cli/internal/assist"
	"github.com/KaramelBytes/sheetask-cli/internal/retrieval"
)

var (
	ragSheet       sheetFlags
	ragIndexPath   string
	ragReindex     bool
	ragTopK        int
	ragMinScore    float64
	ragEmbedModel  string
	ragModel       string
	ragPrintPrompt bool
	ragStream      bool
)

var ragCmd = &cobra.Command{
	Use:   "rag <file> <question...>",
	Short: "Answer a question from the rows most similar to it",
	Long: `Render each row as text, embed row chunks with the local embedding model,
retrieve the chunks closest to the question and let the local model answer
from them. With --index the embeddings are saved and reused while the sheet
content and chunk settings are unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		c := config()
		question := strings.Join(args[1:], " ")

		t, _, err := ragSheet.loadSheet(args[0])
		if err != nil {
			return err
		}
		emb, err := newEmbedder(currentRuntimeSettings())
		if err != nil {
			return err
		}

		opts := retrieval.BuildOptions{
			Force:          ragReindex,
			EmbedModel:     c.EmbeddingModel,
			ChunkMaxTokens: c.ChunkMaxTokens,
			ChunkOverlap:   c.ChunkOverlap,
			Concurrency:    c.EmbedConcurrency,
		}
		if ragEmbedModel != "" {
			opts.EmbedModel = ragEmbedModel
		}
		if ragIndexPath != "" && !ragReindex {
			prev, err := retrieval.Load(ragIndexPath)
			switch {
			case err == nil:
				opts.Prev = prev
			case errors.Is(err, fs.ErrNotExist):
			default:
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: ignoring unreadable index: %v\n", err)
			}
		}

		idx := opts.Prev
		if !idx.Fresh(t, opts) {
			if idx, err = retrieval.BuildIndex(ctx, emb, t, opts); err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			if ragIndexPath != "" {
				if err := idx.Save(ragIndexPath); err != nil {
					return fmt.Errorf("save index: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Indexed %d chunks to %s\n", len(idx.Records), ragIndexPath)
			}
		}

		topK, minScore := c.RetrievalTopK, c.RetrievalMinScore
		if cmd.Flags().Changed("top-k") {
			topK = ragTopK
		}
		if cmd.Flags().Changed("min-score") {
			minScore = ragMinScore
		}
		hits, err := assist.Retrieve(ctx, emb, idx, opts.EmbedModel, question, topK, minScore)
		if err != nil {
			return err
		}
		prompt := assist.RetrievalPrompt(hits, question, assist.DefaultContextTokens)
		if ragPrintPrompt {
			fmt.Fprintln(out, prompt)
			return nil
		}

		asst, err := newAssistant(ragModel)
		if err != nil {
			return err
		}
		var onDelta func(string)
		if ragStream {
			onDelta = func(d string) { fmt.Fprint(out, d) }
		}
		text, err := asst.Ask(ctx, prompt, onDelta)
		if err != nil {
			return err
		}
		if onDelta == nil {
			fmt.Fprintln(out, text)
		} else {
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ragCmd)
	ragSheet.register(ragCmd)
	f := ragCmd.Flags()
	f.StringVar(&ragIndexPath, "index", "", "save and reuse embeddings at this path")
	f.BoolVar(&ragReindex, "reindex", false, "re-embed every chunk even if the index is current")
	f.IntVar(&ragTopK, "top-k", 6, "number of chunks to retrieve (default: config retrieval_top_k)")
	f.Float64Var(&ragMinScore, "min-score", 0, "minimum cosine similarity (default: config retrieval_min_score)")
	f.StringVar(&ragEmbedModel, "embed-model", "", "embedding model (overrides embedding_model)")
	f.StringVar(&ragModel, "model", "", "answer model (overrides default_model)")
	f.BoolVar(&ragPrintPrompt, "print-prompt", false, "print the assembled prompt instead of calling the model")
	f.BoolVar(&ragStream, "stream", false, "stream the answer as it is generated")
}
