package retrieval

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/KaramelBytes/sheetask-cli/internal/logging"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

const indexVersion = 1

type Record struct {
	ChunkID   int       `json:"chunk_id"`
	FirstRow  int       `json:"first_row"`
	LastRow   int       `json:"last_row"`
	ChunkHash string    `json:"chunk_hash"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
}

// Index holds embedded chunks of one sheet.
type Index struct {
	ID        string    `json:"id"`
	SheetName string    `json:"sheet_name"`
	SheetHash string    `json:"sheet_hash"`
	Records   []Record  `json:"records"`
	Meta      IndexMeta `json:"meta"`
}

type IndexMeta struct {
	IndexVersion   int       `json:"index_version"`
	EmbedModel     string    `json:"embed_model"`
	EmbedDim       int       `json:"embed_dim"`
	ChunkMaxTokens int       `json:"chunk_max_tokens"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (idx *Index) Save(path string) error {
	if idx == nil {
		return fmt.Errorf("nil index")
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b, 0o644)
}

func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if idx.Meta.IndexVersion == 0 {
		idx.Meta.IndexVersion = indexVersion
	}
	return &idx, nil
}

// metaCompatible reports whether vectors built under prev can serve cur.
func metaCompatible(prev, cur IndexMeta) bool {
	return prev.IndexVersion == cur.IndexVersion &&
		prev.EmbedModel == cur.EmbedModel &&
		prev.ChunkMaxTokens == cur.ChunkMaxTokens &&
		prev.ChunkOverlap == cur.ChunkOverlap
}

// CosineSim returns the cosine similarity of a and b, or 0 when the
// dimensions differ or either vector is zero.
func CosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	fa, fb := widen(a), widen(b)
	na, nb := floats.Norm(fa, 2), floats.Norm(fb, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(fa, fb) / (na * nb)
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Embedder turns texts into vectors with the named model.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

type BuildOptions struct {
	Force          bool
	EmbedModel     string
	ChunkMaxTokens int
	ChunkOverlap   int
	// Concurrency bounds in-flight embedding calls; <= 0 means 4.
	Concurrency int
	// Prev is a previously saved index whose vectors may be reused.
	Prev *Index
}

func hashText(s string) string {
	sum := sha1.Sum([]byte(s))
	return fmt.Sprintf("%x", sum[:])
}

// BuildIndex chunks the rows of t and embeds every chunk not already present
// in opts.Prev with the same hash and compatible settings.
func BuildIndex(ctx context.Context, emb Embedder, t *table.Table, opts BuildOptions) (*Index, error) {
	if opts.ChunkMaxTokens <= 0 {
		opts.ChunkMaxTokens = 400
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	rows := RowTexts(t)
	now := time.Now()
	idx := &Index{
		ID:        uuid.NewString(),
		SheetName: t.Name,
		SheetHash: hashText(strings.Join(rows, "\n")),
		Meta: IndexMeta{
			IndexVersion:   indexVersion,
			EmbedModel:     opts.EmbedModel,
			ChunkMaxTokens: opts.ChunkMaxTokens,
			ChunkOverlap:   opts.ChunkOverlap,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	reusable := map[string][]float32{}
	if p := opts.Prev; p != nil && !opts.Force && metaCompatible(p.Meta, idx.Meta) {
		if p.ID != "" {
			idx.ID = p.ID
		}
		idx.Meta.CreatedAt = p.Meta.CreatedAt
		for _, r := range p.Records {
			if len(r.Vector) > 0 {
				reusable[r.ChunkHash] = r.Vector
			}
		}
	}

	chunks := ChunkRows(rows, opts.ChunkMaxTokens, opts.ChunkOverlap)
	idx.Records = make([]Record, len(chunks))
	var pending []int
	for i, c := range chunks {
		h := hashText(c.Text)
		idx.Records[i] = Record{ChunkID: i, FirstRow: c.FirstRow, LastRow: c.LastRow, ChunkHash: h, Text: c.Text}
		if v, ok := reusable[h]; ok {
			idx.Records[i].Vector = v
			continue
		}
		pending = append(pending, i)
	}
	logging.Debugf("index %s: %d chunks, %d to embed", idx.SheetName, len(chunks), len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, i := range pending {
		g.Go(func() error {
			vecs, err := emb.Embed(gctx, opts.EmbedModel, []string{idx.Records[i].Text})
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			if len(vecs) != 1 {
				return fmt.Errorf("embed chunk %d: got %d vectors", i, len(vecs))
			}
			idx.Records[i].Vector = vecs[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range idx.Records {
		if len(r.Vector) > 0 {
			idx.Meta.EmbedDim = len(r.Vector)
			break
		}
	}
	return idx, nil
}

// Fresh reports whether idx was built from the current content of t with settings
// compatible with opts, so it can be used without re-embedding.
func (idx *Index) Fresh(t *table.Table, opts BuildOptions) bool {
	if idx == nil || opts.Force {
		return false
	}
	cur := IndexMeta{IndexVersion: indexVersion, EmbedModel: opts.EmbedModel, ChunkMaxTokens: opts.ChunkMaxTokens, ChunkOverlap: opts.ChunkOverlap}
	if cur.ChunkMaxTokens <= 0 {
		cur.ChunkMaxTokens = 400
	}
	return metaCompatible(idx.Meta, cur) && idx.SheetHash == hashText(strings.Join(RowTexts(t), "\n"))
}

// Hit is a search result with its similarity score.
type Hit struct {
	Record
	Score float64 `json:"score"`
}

// Search returns top-k records scoring at least minScore, best first. Ties
// keep chunk order.
func (idx *Index) Search(query []float32, topK int, minScore float64) []Hit {
	hits := make([]Hit, 0, len(idx.Records))
	for _, r := range idx.Records {
		if s := CosineSim(query, r.Vector); s >= minScore {
			hits = append(hits, Hit{Record: r, Score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
