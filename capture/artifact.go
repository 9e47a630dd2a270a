package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/domsnap/domclone"
)

// artifactBuilder renders output formats from a live session and a
// normalized clone. The converter and sanitizer are built once and
// reused across captures.
type artifactBuilder struct {
	md      *converter.Converter
	policy  *bluemonday.Policy
	quality int // JPEG quality, 1-100
}

func newArtifactBuilder(jpegQuality int) *artifactBuilder {
	return &artifactBuilder{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		policy:  bluemonday.UGCPolicy(),
		quality: jpegQuality,
	}
}

// build renders each requested format against the clone. The PNG
// raster is produced at most once and shared by the png and pdf
// outputs.
func (b *artifactBuilder) build(ctx context.Context, sess Session, el domclone.Element, pageURL string, formats []string) ([]RenderedArtifact, error) {
	var cachedPNG []byte
	rasterPNG := func() ([]byte, error) {
		if cachedPNG != nil {
			return cachedPNG, nil
		}
		data, err := sess.RasterPNG(ctx, el)
		if err != nil {
			return nil, err
		}
		cachedPNG = data
		return data, nil
	}

	var out []RenderedArtifact
	for _, format := range formats {
		var data []byte
		var err error
		switch format {
		case FormatPNG:
			data, err = rasterPNG()
		case FormatJPEG:
			data, err = sess.RasterJPEG(ctx, el, b.quality)
		case FormatPDF:
			var img []byte
			img, err = rasterPNG()
			if err == nil {
				data, err = b.pdfFromPNG(img)
			}
		case FormatMarkdown:
			var html string
			html, err = sess.HTML(ctx, el)
			if err == nil {
				data, err = b.markdown(html, pageURL)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out = append(out, RenderedArtifact{Format: format, Data: data})
	}
	return out, nil
}

// pdfFromPNG wraps a PNG raster in a single-page PDF and validates the
// result before returning it.
func (b *artifactBuilder) pdfFromPNG(png []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(png)}, nil, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu import: %w", err)
	}

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(buf.Bytes()), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu validate: %w", err)
	}
	if pdfCtx.PageCount < 1 {
		return nil, fmt.Errorf("pdfcpu: produced empty document")
	}
	return buf.Bytes(), nil
}

// markdown sanitizes captured HTML and converts it to Markdown.
// Relative links resolve against the page URL.
func (b *artifactBuilder) markdown(html, pageURL string) ([]byte, error) {
	clean := b.policy.Sanitize(html)
	md, err := b.md.ConvertString(clean, converter.WithDomain(pageURL))
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(md) + "\n"), nil
}
