package tables

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
)

// PageSource yields the pages of a paged document in order.
type PageSource interface {
	Pages(ctx context.Context, doc document.Document) ([]document.Page, error)
}

// GridExtractor finds candidate grids on one page, in reading order.
type GridExtractor interface {
	ExtractGrids(ctx context.Context, doc document.Document, page int) ([]Grid, error)
}

// DocxTableSource yields the native tables of a .docx in document order.
type DocxTableSource interface {
	DocxTables(ctx context.Context, doc document.Document) ([]Grid, error)
}

// PageScore is the relevance of one page for a statement type.
type PageScore struct {
	Page    int `json:"page"`
	Matches int `json:"matches"`
}

// Result is the outcome of classifying one document for one statement type.
// Diagnostic is non-nil when the document could not be classified at all
// (unsupported kind, unreadable source, failed collaborator); it is never
// returned as an error so callers always get a usable, possibly empty, result.
type Result struct {
	StatementType constants.StatementType
	Ranked        []PageScore
	Tables        []CleanedTable
	Diagnostic    error
}

// ScorePage counts how many of keywords occur in text, case-insensitively.
// keywords are expected lower-cased and distinct.
func ScorePage(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// RankPages scores every page and returns those with at least one match,
// highest first. Ties keep page order.
func RankPages(pages []document.Page, keywords []string) []PageScore {
	var out []PageScore
	for _, p := range pages {
		if n := ScorePage(p.Text, keywords); n > 0 {
			out = append(out, PageScore{Page: p.Number, Matches: n})
		}
	}
	slices.SortStableFunc(out, func(a, b PageScore) int {
		if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
			return c
		}
		return cmp.Compare(a.Page, b.Page)
	})
	return out
}

// Classifier selects and cleans the tables of a document that belong to a
// statement type. Safe for concurrent use when its collaborators are.
type Classifier struct {
	profiles *Profiles
	pages    PageSource
	grids    GridExtractor
	docx     DocxTableSource
	cleaner  Cleaner
	logger   *slog.Logger
}

func NewClassifier(profiles *Profiles, pages PageSource, grids GridExtractor, docx DocxTableSource, cleaner Cleaner, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Classifier{
		profiles: profiles,
		pages:    pages,
		grids:    grids,
		docx:     docx,
		cleaner:  cleaner,
		logger:   logger,
	}
}

// Classify returns the cleaned tables of doc relevant to st. For a PDF, pages
// are ranked by keyword matches and tables are appended in page rank order,
// then in order within the page. For a DOCX every native table is returned.
func (c *Classifier) Classify(ctx context.Context, doc document.Document, st constants.StatementType) Result {
	return c.ClassifyAll(ctx, doc, []constants.StatementType{st})[0]
}

// ClassifyAll classifies doc for every type in types, reading the document
// once and extracting each page's grids at most once.
func (c *Classifier) ClassifyAll(ctx context.Context, doc document.Document, types []constants.StatementType) []Result {
	log := common.LoggerFromContext(ctx, c.logger).With("kind", string(doc.Kind))
	results := make([]Result, len(types))
	for i, st := range types {
		results[i].StatementType = st
	}

	switch doc.Kind {
	case constants.PDF:
		c.classifyPDF(ctx, log, doc, results)
	case constants.DOCX:
		c.classifyDocx(ctx, log, doc, results)
	default:
		err := common.UnsupportedError("table classifier", string(doc.Kind))
		log.Warn("tables.classify.unsupported", "error", err)
		for i := range results {
			results[i].Diagnostic = err
		}
	}
	return results
}

func (c *Classifier) classifyPDF(ctx context.Context, log *slog.Logger, doc document.Document, results []Result) {
	pages, err := c.pages.Pages(ctx, doc)
	if err != nil {
		if common.Classify(err) == "internal" && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = common.CorruptError(doc.Path, err)
		}
		log.Error("tables.classify.unreadable", "error", err)
		for i := range results {
			results[i].Diagnostic = err
		}
		return
	}

	cache := make(map[int]pageGrids)
	for i := range results {
		res := &results[i]
		kws, ok := c.profiles.Keywords(res.StatementType)
		if !ok {
			res.Diagnostic = common.NewAppError("UNKNOWN_STATEMENT_TYPE", "no keyword profile for "+string(res.StatementType), common.ErrInvalidInput)
			log.Warn("tables.classify.unknown_type", "statement_type", res.StatementType)
			continue
		}

		res.Ranked = RankPages(pages, kws)
		if len(res.Ranked) == 0 {
			log.Warn("tables.classify.no_relevant_pages", "statement_type", res.StatementType, "pages", len(pages))
			continue
		}

		failed := 0
		for _, ps := range res.Ranked {
			if err := ctx.Err(); err != nil {
				res.Diagnostic = err
				break
			}
			pg, seen := cache[ps.Page]
			if !seen {
				pg.grids, pg.err = c.grids.ExtractGrids(ctx, doc, ps.Page)
				cache[ps.Page] = pg
			}
			if pg.err != nil {
				failed++
				log.Warn("tables.page.extract_failed", "statement_type", res.StatementType, "page", ps.Page, "error", pg.err)
				continue
			}
			if len(pg.grids) == 0 {
				log.Debug("tables.page.no_tables", "statement_type", res.StatementType, "page", ps.Page)
				continue
			}
			for j, g := range pg.grids {
				t := c.cleaner.Clean(g)
				if t.Empty() {
					log.Debug("tables.page.table_empty_after_clean", "page", ps.Page, "index", j+1)
					continue
				}
				t.Provenance = Provenance{Source: SourcePDFPage, Page: ps.Page, Index: j + 1, Score: ps.Matches}
				res.Tables = append(res.Tables, t)
			}
		}
		if failed == len(res.Ranked) && res.Diagnostic == nil {
			res.Diagnostic = common.CollaboratorError("grid extractor", cache[res.Ranked[0].Page].err)
		}

		log.Info("tables.classify.ok",
			"statement_type", res.StatementType,
			"ranked_pages", len(res.Ranked),
			"tables", len(res.Tables),
		)
	}
}

type pageGrids struct {
	grids []Grid
	err   error
}

func (c *Classifier) classifyDocx(ctx context.Context, log *slog.Logger, doc document.Document, results []Result) {
	grids, err := c.docx.DocxTables(ctx, doc)
	if err != nil {
		if common.Classify(err) == "internal" {
			err = common.CorruptError(doc.Path, err)
		}
		log.Error("tables.classify.unreadable", "error", err)
		for i := range results {
			results[i].Diagnostic = err
		}
		return
	}

	var cleaned []CleanedTable
	for j, g := range grids {
		t := c.cleaner.Clean(g)
		if t.Empty() {
			log.Debug("tables.docx.table_empty_after_clean", "index", j+1)
			continue
		}
		t.Provenance = Provenance{Source: SourceDocxTable, Index: j + 1}
		cleaned = append(cleaned, t)
	}
	// no relevance filtering for DOCX: every type gets every table
	for i := range results {
		results[i].Tables = slices.Clone(cleaned)
		log.Info("tables.classify.ok", "statement_type", results[i].StatementType, "tables", len(cleaned))
	}
}
