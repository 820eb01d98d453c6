package extract

import (
	"archive/zip"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/document"
	"github.com/joseph-ayodele/docs-extractor/internal/sink"
)

// ImageExtractor writes the embedded images of a document to images/.
// PDF images are named image_page<p>_<i>.<ext> with i counting from 1 within
// the page in object order; DOCX media, which has no pages, is named
// image_page0_<i>.<ext> in archive order.
type ImageExtractor struct {
	logger *slog.Logger
}

func NewImageExtractor(logger *slog.Logger) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageExtractor{logger: logger}
}

type pendingImage struct {
	page, obj int
	ext       string
	data      []byte
}

func (e *ImageExtractor) Extract(ctx context.Context, doc document.Document, outDir string) (ArtifactList, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, e.logger)
	dir := filepath.Join(outDir, constants.ImagesDir)

	var (
		images []pendingImage
		diags  []Diagnostic
		err    error
	)
	switch doc.Kind {
	case constants.PDF:
		images, diags, err = e.pdfImages(ctx, log, doc)
	case constants.DOCX:
		images, diags, err = e.docxImages(ctx, log, doc)
	default:
		err = common.UnsupportedError("image extractor", string(doc.Kind))
		log.Warn("extract.images.unsupported", "kind", doc.Kind)
		return ArtifactList{Diagnostics: []Diagnostic{NewDiagnostic("images", err)}, Duration: time.Since(start)}, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return ArtifactList{}, ctx.Err()
		}
		log.Error("extract.images.read_failed", "error_kind", common.Classify(err), "error", err)
		diags = append(diags, NewDiagnostic("images", err))
	}

	if err := sink.EnsureDir(dir); err != nil {
		return ArtifactList{Diagnostics: diags}, err
	}
	out := ArtifactList{Diagnostics: diags}
	perPage := make(map[int]int)
	for _, img := range images {
		perPage[img.page]++
		idx := perPage[img.page]
		name := fmt.Sprintf("image_page%d_%d.%s", img.page, idx, img.ext)
		p := filepath.Join(dir, name)
		if err := sink.WriteFile(p, img.data); err != nil {
			return out, err
		}
		out.Artifacts = append(out.Artifacts, Artifact{Kind: ArtifactImage, Name: name, Path: p, Page: img.page, Index: idx})
	}
	out.Duration = time.Since(start)

	log.Info("extract.images.ok",
		"kind", doc.Kind,
		"images", len(out.Artifacts),
		"skipped", len(out.Diagnostics),
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// pdfImages collects every image before naming so indexes follow page and
// object order rather than the order pdfcpu happens to visit them.
func (e *ImageExtractor) pdfImages(ctx context.Context, log *slog.Logger, doc document.Document) ([]pendingImage, []Diagnostic, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, nil, common.CorruptError(doc.Path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var (
		images []pendingImage
		diags  []Diagnostic
	)
	digest := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if img.Reader == nil {
			// pdfcpu has no renderer for this filter or color space
			log.Warn("extract.images.object_unrendered", "page", img.PageNr, "obj", img.ObjNr)
			diags = append(diags, NewDiagnostic("images", common.CollaboratorError("pdfcpu render",
				fmt.Errorf("%s object %d: no renderer for its encoding", doc.Name, img.ObjNr))))
			return nil
		}
		data, err := io.ReadAll(img)
		if err != nil || len(data) == 0 {
			if err == nil {
				err = fmt.Errorf("empty image stream")
			}
			log.Warn("extract.images.object_skipped", "page", img.PageNr, "obj", img.ObjNr, "error", err)
			diags = append(diags, NewDiagnostic("images", common.CorruptError(fmt.Sprintf("%s object %d", doc.Name, img.ObjNr), err)))
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(img.FileType, "."))
		if ext == "" {
			ext = "bin"
		}
		images = append(images, pendingImage{page: img.PageNr, obj: img.ObjNr, ext: ext, data: data})
		return nil
	}

	if err := safeExtractImages(f, digest, conf); err != nil {
		// keep what was decoded before the failure
		sortImages(images)
		return images, diags, common.CorruptError(doc.Path, err)
	}
	sortImages(images)
	return images, diags, nil
}

func safeExtractImages(rs io.ReadSeeker, digest func(model.Image, bool, int) error, conf *model.Configuration) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()
	return api.ExtractImages(rs, nil, digest, conf)
}

func sortImages(images []pendingImage) {
	slices.SortStableFunc(images, func(a, b pendingImage) int {
		if c := cmp.Compare(a.page, b.page); c != 0 {
			return c
		}
		return cmp.Compare(a.obj, b.obj)
	})
}

func (e *ImageExtractor) docxImages(ctx context.Context, log *slog.Logger, doc document.Document) ([]pendingImage, []Diagnostic, error) {
	r, err := zip.OpenReader(doc.Path)
	if err != nil {
		return nil, nil, common.CorruptError(doc.Path, err)
	}
	defer r.Close()

	var (
		images []pendingImage
		diags  []Diagnostic
	)
	for _, m := range document.DocxMedia(&r.Reader) {
		if err := ctx.Err(); err != nil {
			return images, diags, err
		}
		data, err := readMedia(m)
		if err != nil {
			log.Warn("extract.images.media_skipped", "media", m.Name, "error", err)
			diags = append(diags, NewDiagnostic("images", common.CorruptError(m.Name, err)))
			continue
		}
		ext := m.Ext
		if ext == "" {
			ext = "bin"
		}
		images = append(images, pendingImage{page: 0, ext: ext, data: data})
	}
	return images, diags, nil
}

func readMedia(m document.MediaFile) ([]byte, error) {
	rc, err := m.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
