package enricher

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markhive/markhive/internal/embedder"
	"github.com/markhive/markhive/internal/llm"
	"github.com/markhive/markhive/internal/scraper"
	"github.com/markhive/markhive/internal/storage"
	"github.com/markhive/markhive/pkg/types"
)

// StepStatus describes the outcome of one enrichment step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Report records what each enrichment step did. Failed steps never
// fail the overall operation; only primary persistence does.
type Report struct {
	Scrape     StepStatus `json:"scrape"`
	Summary    StepStatus `json:"summary"`
	Embedding  StepStatus `json:"embedding"`
	Categories StepStatus `json:"categories"`
}

func newReport() *Report {
	return &Report{
		Scrape:     StepSkipped,
		Summary:    StepSkipped,
		Embedding:  StepSkipped,
		Categories: StepSkipped,
	}
}

// Pipeline coordinates the enrichment flow:
// scrape -> summarize -> persist -> embed -> categorize.
//
// Every collaborator except the store is optional; a nil collaborator
// skips its step. The persist step is the only one whose failure
// surfaces to the caller.
type Pipeline struct {
	store     storage.Store
	scraper   scraper.Scraper
	embedder  embedder.Embedder
	assistant llm.Assistant
	log       *logrus.Logger
}

// New creates an enrichment pipeline. Only store is required.
func New(store storage.Store, sc scraper.Scraper, emb embedder.Embedder, assistant llm.Assistant, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{
		store:     store,
		scraper:   sc,
		embedder:  emb,
		assistant: assistant,
		log:       log,
	}
}

// Create runs the full enrichment flow for a new bookmark. Scraped
// metadata only fills fields the caller left empty; caller-supplied
// values always win.
func (p *Pipeline) Create(ctx context.Context, userID string, draft types.BookmarkDraft) (*types.Bookmark, *Report, error) {
	if err := types.ValidateURL(draft.URL); err != nil {
		return nil, nil, err
	}

	report := newReport()
	bm := &types.Bookmark{
		UserID:      userID,
		URL:         strings.TrimSpace(draft.URL),
		Title:       draft.Title,
		Description: draft.Description,
		Content:     draft.Content,
		FaviconURL:  draft.FaviconURL,
		IsFavorite:  draft.IsFavorite,
	}

	p.scrapeInto(ctx, bm, report)
	p.summarizeInto(ctx, bm, report)

	if err := p.store.CreateBookmark(ctx, bm); err != nil {
		return nil, nil, err
	}

	p.embedBookmark(ctx, bm, report)
	p.categorizeBookmark(ctx, bm, report)

	return bm, report, nil
}

// Update applies a partial update and regenerates the derived data
// when any text field changed. Favorite-only updates touch nothing
// downstream.
func (p *Pipeline) Update(ctx context.Context, userID, id string, upd types.BookmarkUpdate) (*types.Bookmark, *Report, error) {
	if upd.IsEmpty() {
		return nil, nil, types.ErrEmptyUpdate
	}

	bm, err := p.store.UpdateBookmark(ctx, id, userID, upd)
	if err != nil {
		return nil, nil, err
	}

	report := newReport()
	if !upd.TouchesText() {
		return bm, report, nil
	}

	p.embedBookmark(ctx, bm, report)

	// Old categories reflect old text; drop them before re-tagging
	if err := p.store.ClearCategoryLinks(ctx, bm.ID); err != nil {
		p.log.WithError(err).WithField("bookmark_id", bm.ID).Warn("failed to clear category links")
	}
	p.categorizeBookmark(ctx, bm, report)

	return bm, report, nil
}

// Delete removes a bookmark and its derived data. The schema cascades
// embeddings and links on bookmark delete; the explicit cleanup here
// is a backstop for databases opened without foreign keys.
func (p *Pipeline) Delete(ctx context.Context, userID, id string) error {
	if err := p.store.DeleteBookmark(ctx, id, userID); err != nil {
		return err
	}

	if err := p.store.DeleteEmbedding(ctx, id); err != nil {
		p.log.WithError(err).WithField("bookmark_id", id).Warn("failed to delete embedding")
	}
	if err := p.store.ClearCategoryLinks(ctx, id); err != nil {
		p.log.WithError(err).WithField("bookmark_id", id).Warn("failed to clear category links")
	}
	return nil
}

// scrapeInto fetches page metadata and fills only the empty fields.
func (p *Pipeline) scrapeInto(ctx context.Context, bm *types.Bookmark, report *Report) {
	if p.scraper == nil {
		return
	}

	meta, err := p.scraper.Scrape(ctx, bm.URL)
	if err != nil {
		report.Scrape = StepFailed
		p.log.WithError(err).WithField("url", bm.URL).Warn("scrape failed")
		return
	}

	if bm.Title == "" {
		bm.Title = meta.Title
	}
	if bm.Description == "" {
		bm.Description = meta.Description
	}
	if bm.Content == "" {
		bm.Content = meta.Content
	}
	if bm.FaviconURL == "" {
		bm.FaviconURL = meta.FaviconURL
	}
	report.Scrape = StepOK
}

// summarizeInto generates a summary from title and content.
func (p *Pipeline) summarizeInto(ctx context.Context, bm *types.Bookmark, report *Report) {
	if p.assistant == nil || (bm.Title == "" && bm.Content == "") {
		return
	}

	text := strings.TrimSpace(bm.Title + "\n\n" + bm.Content)
	summary, err := p.assistant.Summarize(ctx, text)
	if err != nil {
		report.Summary = StepFailed
		p.log.WithError(err).WithField("url", bm.URL).Warn("summarize failed")
		return
	}
	bm.Summary = summary
	report.Summary = StepOK
}

// embedBookmark generates and persists the bookmark's vector.
func (p *Pipeline) embedBookmark(ctx context.Context, bm *types.Bookmark, report *Report) {
	if p.embedder == nil {
		return
	}

	text := embeddingText(bm)
	if text == "" {
		return
	}

	emb, err := p.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		report.Embedding = StepFailed
		p.log.WithError(err).WithField("bookmark_id", bm.ID).Warn("embedding failed")
		return
	}

	row := storage.NewEmbedding(bm.ID, emb.Vector, emb.Provider, emb.Model)
	if err := p.store.UpsertEmbedding(ctx, row); err != nil {
		report.Embedding = StepFailed
		p.log.WithError(err).WithField("bookmark_id", bm.ID).Warn("embedding upsert failed")
		return
	}
	report.Embedding = StepOK
}

// categorizeBookmark asks the assistant for tags and links each one.
// Tags resolve and link concurrently; one bad tag doesn't block the
// rest, but any failure marks the step failed.
func (p *Pipeline) categorizeBookmark(ctx context.Context, bm *types.Bookmark, report *Report) {
	if p.assistant == nil || (bm.Title == "" && bm.Content == "") {
		return
	}

	tags, err := p.assistant.SuggestTags(ctx, bm.Title, bm.Content)
	if err != nil {
		report.Categories = StepFailed
		p.log.WithError(err).WithField("bookmark_id", bm.ID).Warn("tag suggestion failed")
		return
	}
	if len(tags) == 0 {
		report.Categories = StepOK
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tag := range tags {
		g.Go(func() error {
			cat, err := p.store.FindOrCreateCategory(gctx, bm.UserID, tag, storage.CategoryKindAI)
			if err != nil {
				return err
			}
			return p.store.LinkCategory(gctx, bm.ID, cat.ID)
		})
	}
	if err := g.Wait(); err != nil {
		report.Categories = StepFailed
		p.log.WithError(err).WithField("bookmark_id", bm.ID).Warn("category linking failed")
		return
	}
	report.Categories = StepOK
}

// embeddingText builds the text whose vector represents the bookmark.
func embeddingText(bm *types.Bookmark) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{bm.Title, bm.Description, bm.Content} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return embedder.Truncate(strings.Join(parts, " "))
}
