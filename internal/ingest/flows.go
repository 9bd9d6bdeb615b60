package ingest

import (
	"context"
	"fmt"
	"maps"

	"github.com/joe-antognini/zoia/internal/ident"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/pdf"
	"github.com/sirupsen/logrus"
)

// addArxiv fetches metadata from Semantic Scholar while the PDF downloads in
// the background. When S2 knows a DOI, the DOI's BibTeX fields take
// precedence.
func (p *Pipeline) addArxiv(ctx context.Context, log logrus.FieldLogger, r *Result, arxivID string, opts Options) error {
	if err := p.checkDuplicates(ctx, metadata.Metadatum{ArxivID: arxivID}); err != nil {
		return err
	}

	download := start(func() ([]byte, error) {
		return p.source.Document(ctx, arxivID, p.source.ArxivPDFURL(arxivID))
	})

	fields, err := p.source.ArxivMetadata(ctx, arxivID)
	if err != nil {
		return fmt.Errorf("fetching arXiv metadata: %w", err)
	}

	if doi, _ := fields[metadata.FieldDOI].(string); doi != "" {
		if err := p.checkDuplicates(ctx, metadata.Metadatum{DOI: doi}); err != nil {
			return err
		}
		doiFields, err := p.source.DOIMetadata(ctx, doi)
		if err != nil {
			return fmt.Errorf("fetching DOI metadata: %w", err)
		}
		fields = merge(fields, doiFields)
	}
	fields[metadata.FieldArxivID] = arxivID

	m, err := metadata.FromMap(fields)
	if err != nil {
		return err
	}
	if err := p.checkDuplicates(ctx, m); err != nil {
		return err
	}
	key, err := p.citekeyFor(ctx, m, opts.Citekey)
	if err != nil {
		return err
	}

	doc, err := p.joinDownload(ctx, log, r, download)
	if err != nil {
		return err
	}
	if doc != nil {
		m.PDFMD5 = pdf.HashBytes(doc.data)
		if err := p.checkDuplicates(ctx, metadata.Metadatum{PDFMD5: m.PDFMD5}); err != nil {
			return err
		}
	}

	return p.finish(ctx, log, r, key, m, doc)
}

// addDOI fetches the DOI's BibTeX while Semantic Scholar is asked for a
// matching arXiv ID. When one exists, its PDF is downloaded.
func (p *Pipeline) addDOI(ctx context.Context, log logrus.FieldLogger, r *Result, doi string, opts Options) error {
	if err := p.checkDuplicates(ctx, metadata.Metadatum{DOI: doi}); err != nil {
		return err
	}

	lookup := start(func() (string, error) {
		return p.source.ArxivIDForDOI(ctx, doi)
	})

	fields, err := p.source.DOIMetadata(ctx, doi)
	if err != nil {
		return fmt.Errorf("fetching DOI metadata: %w", err)
	}
	fields[metadata.FieldDOI] = doi
	m, err := metadata.FromMap(fields)
	if err != nil {
		return err
	}

	arxivID, err := lookup.wait(ctx)
	if err != nil {
		log.WithError(err).Debug("arXiv ID lookup failed")
		arxivID = ""
	}

	var doc *document
	if arxivID != "" {
		m.ArxivID = arxivID
		if err := p.checkDuplicates(ctx, metadata.Metadatum{ArxivID: arxivID}); err != nil {
			return err
		}
		data, err := p.source.Document(ctx, arxivID, p.source.ArxivPDFURL(arxivID))
		if err != nil {
			log.WithError(err).Debug("document download failed")
			r.warn(WarnNoDocument)
		} else {
			doc = &document{data: data}
			m.PDFMD5 = pdf.HashBytes(data)
		}
	} else {
		r.warn(WarnNoDocument)
	}

	if err := p.checkDuplicates(ctx, m); err != nil {
		return err
	}
	key, err := p.citekeyFor(ctx, m, opts.Citekey)
	if err != nil {
		return err
	}
	return p.finish(ctx, log, r, key, m, doc)
}

// addISBN adds a book. Books have no document.
func (p *Pipeline) addISBN(ctx context.Context, log logrus.FieldLogger, r *Result, isbn string, opts Options) error {
	if err := p.checkDuplicates(ctx, metadata.Metadatum{ISBN: isbn}); err != nil {
		return err
	}

	fields, err := p.source.ISBNMetadata(ctx, isbn)
	if err != nil {
		return fmt.Errorf("fetching ISBN metadata: %w", err)
	}
	if _, ok := fields[metadata.FieldISBN]; !ok {
		fields[metadata.FieldISBN] = ident.ISBN13(isbn)
	}
	m, err := metadata.FromMap(fields)
	if err != nil {
		return err
	}
	if err := p.checkDuplicates(ctx, m); err != nil {
		return err
	}
	key, err := p.citekeyFor(ctx, m, opts.Citekey)
	if err != nil {
		return err
	}
	return p.finish(ctx, log, r, key, m, nil)
}

// addPDF adds a local file. Its metadata comes from a DOI printed in the
// document, if the user confirms the match, or else from manual entry.
func (p *Pipeline) addPDF(ctx context.Context, log logrus.FieldLogger, r *Result, path string, opts Options) error {
	md5, err := pdf.HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	if err := p.checkDuplicates(ctx, metadata.Metadatum{PDFMD5: md5}); IsDuplicate(err) {
		return &DuplicateError{Namespace: NamespacePDF, Value: path}
	} else if err != nil {
		return err
	}

	m, ok, err := p.metadataFromDOI(ctx, log, r, path)
	if err != nil {
		return err
	}
	if !ok {
		if m, err = p.enterMetadata(ctx); err != nil {
			return err
		}
	}
	m.PDFMD5 = md5

	if err := p.checkDuplicates(ctx, m); err != nil {
		return err
	}
	key, err := p.citekeyFor(ctx, m, opts.Citekey)
	if err != nil {
		return err
	}
	return p.finish(ctx, log, r, key, m, &document{path: path, move: opts.Move})
}

// metadataFromDOI looks for a DOI in the PDF at path and fetches its
// metadata. It reports false when there is no usable DOI or the user rejects
// the match.
func (p *Pipeline) metadataFromDOI(ctx context.Context, log logrus.FieldLogger, r *Result, path string) (metadata.Metadatum, bool, error) {
	doi, err := p.findDOI(path)
	if err != nil {
		log.WithError(err).Debug("reading PDF text")
		return metadata.Metadatum{}, false, nil
	}
	if doi == "" {
		return metadata.Metadatum{}, false, nil
	}
	log = log.WithField("doi", doi)

	ok, err := p.store.DOIExists(ctx, doi)
	if err != nil {
		return metadata.Metadatum{}, false, fmt.Errorf("checking DOI %s: %w", doi, err)
	}
	if ok {
		return metadata.Metadatum{}, false, &DuplicateError{Namespace: "DOI corresponding to", Value: path}
	}

	fields, err := p.source.DOIMetadata(ctx, doi)
	if err != nil {
		log.WithError(err).Debug("fetching DOI metadata")
		r.warn(fmt.Sprintf("Found DOI %s but could not fetch its metadata: %v", doi, err))
		return metadata.Metadatum{}, false, nil
	}
	m, err := metadata.FromMap(fields)
	if err != nil {
		r.warn(fmt.Sprintf("Found DOI %s but its metadata is unusable: %v", doi, err))
		return metadata.Metadatum{}, false, nil
	}

	if p.prompter == nil {
		return m, true, nil
	}
	ok, err = p.prompter.Confirm(ctx, fmt.Sprintf("Found DOI %s for %s. Does this look correct?", doi, m))
	if err != nil {
		return metadata.Metadatum{}, false, err
	}
	return m, ok, nil
}

// joinDownload waits for a background download. A failed download is not an
// error; it leaves the entry without a document.
func (p *Pipeline) joinDownload(ctx context.Context, log logrus.FieldLogger, r *Result, f *future[[]byte]) (*document, error) {
	data, err := f.wait(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		log.WithError(err).Debug("document download failed")
		r.warn(WarnNoDocument)
		return nil, nil
	}
	return &document{data: data}, nil
}

func (p *Pipeline) finish(ctx context.Context, log logrus.FieldLogger, r *Result, key string, m metadata.Metadatum, doc *document) error {
	if err := p.commit(ctx, log, key, m, doc); err != nil {
		return err
	}
	r.Citekey = key
	r.Metadatum = m
	return nil
}

// merge returns base overlaid with override.
func merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}
