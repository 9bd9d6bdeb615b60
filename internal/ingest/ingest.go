// Package ingest adds new entries to the library: it fetches metadata for an
// identifier, checks it against the store, picks a citekey, and materializes
// the entry's directory and document.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/joe-antognini/zoia/internal/citekey"
	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/ident"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/pdf"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/sirupsen/logrus"
)

// Source fetches bibliographic metadata and documents. *fetch.Client
// implements it.
type Source interface {
	ArxivMetadata(ctx context.Context, arxivID string) (map[string]any, error)
	DOIMetadata(ctx context.Context, doi string) (map[string]any, error)
	ArxivIDForDOI(ctx context.Context, doi string) (string, error)
	ISBNMetadata(ctx context.Context, isbn string) (map[string]any, error)
	ArxivPDFURL(arxivID string) string
	Document(ctx context.Context, identifier, url string) ([]byte, error)
}

// Prompter asks the user questions while adding a local PDF.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string) (bool, error)
	// Edit lets the user edit text and returns the result.
	Edit(ctx context.Context, text string) (string, error)
}

// WarnNoDocument is reported when the document download fails.
const WarnNoDocument = "Was unable to fetch a PDF"

// Options control a single Add.
type Options struct {
	// Citekey overrides the generated citekey.
	Citekey string
	// Move moves a local PDF into the library instead of copying it.
	Move bool
}

// Result describes an added entry.
type Result struct {
	Citekey   string
	Metadatum metadata.Metadatum
	Kind      ident.Kind
	// Warnings are non-fatal problems, such as a failed document download.
	Warnings []string
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Pipeline adds entries to a library.
type Pipeline struct {
	cfg      *config.Config
	store    storage.Store
	source   Source
	prompter Prompter
	findDOI  func(path string) (string, error)
	log      logrus.FieldLogger

	// mu serializes the uniqueness checks and the append that follows them.
	mu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPrompter sets the prompter used for local PDFs. Without one, PDFs
// with no detectable DOI cannot be added.
func WithPrompter(p Prompter) Option {
	return func(pl *Pipeline) {
		pl.prompter = p
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(pl *Pipeline) {
		pl.log = log
	}
}

// WithDOIFinder replaces the function that reads a DOI out of a local PDF.
func WithDOIFinder(fn func(path string) (string, error)) Option {
	return func(pl *Pipeline) {
		pl.findDOI = fn
	}
}

// New returns a pipeline that adds entries to store, with item directories
// under cfg.LibraryRoot.
func New(cfg *config.Config, store storage.Store, source Source, opts ...Option) *Pipeline {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		source:  source,
		findDOI: pdf.ExtractDOI,
		log:     discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add classifies identifier and adds the work it names to the library.
func (p *Pipeline) Add(ctx context.Context, identifier string, opts Options) (*Result, error) {
	kind, id, err := ident.Classify(identifier)
	if err != nil {
		return nil, err
	}

	log := p.log.WithFields(logrus.Fields{
		"run":        uuid.NewString(),
		"identifier": id,
		"kind":       kind.String(),
	})
	log.Debug("adding entry")

	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.Citekey != "" {
		if err := p.checkCitekey(ctx, opts.Citekey); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &Result{Kind: kind}
	switch kind {
	case ident.KindArxiv:
		err = p.addArxiv(ctx, log, r, id, opts)
	case ident.KindDOI:
		err = p.addDOI(ctx, log, r, id, opts)
	case ident.KindISBN:
		err = p.addISBN(ctx, log, r, id, opts)
	case ident.KindPDF:
		err = p.addPDF(ctx, log, r, id, opts)
	default:
		err = fmt.Errorf("%w: %s", ident.ErrUnknownIdentifier, identifier)
	}
	if err != nil {
		log.WithError(err).Debug("add failed")
		return nil, err
	}

	log.WithField("citekey", r.Citekey).Info("added entry")
	return r, nil
}

func (p *Pipeline) checkCitekey(ctx context.Context, key string) error {
	if err := citekey.Validate(key); err != nil {
		return err
	}
	ok, err := p.store.Contains(ctx, key)
	if err != nil {
		return fmt.Errorf("checking citekey: %w", err)
	}
	if !ok {
		_, statErr := os.Stat(p.cfg.ItemDir(key))
		ok = statErr == nil
	}
	if ok {
		return &storage.KeyError{Key: key, Err: storage.ErrKeyExists}
	}
	return nil
}

// checkDuplicates reports the first identifier of m that is already in the
// library.
func (p *Pipeline) checkDuplicates(ctx context.Context, m metadata.Metadatum) error {
	checks := []struct {
		namespace string
		value     string
		exists    func(context.Context, string) (bool, error)
	}{
		{NamespaceArxiv, m.ArxivID, p.store.ArxivIDExists},
		{NamespaceDOI, m.DOI, p.store.DOIExists},
		{NamespaceISBN, m.ISBN, p.isbnExists},
		{NamespacePDF, m.PDFMD5, p.store.PDFHashExists},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		ok, err := c.exists(ctx, c.value)
		if err != nil {
			return fmt.Errorf("checking %s %s: %w", c.namespace, c.value, err)
		}
		if ok {
			return &DuplicateError{Namespace: c.namespace, Value: c.value}
		}
	}
	return nil
}

// isbnExists matches every equivalent form of an ISBN, so a stored ISBN-10
// is found from its ISBN-13 and the other way round.
func (p *Pipeline) isbnExists(ctx context.Context, isbn string) (bool, error) {
	for _, form := range ident.ISBNForms(isbn) {
		ok, err := p.store.ISBNExists(ctx, form)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// citekeyFor returns the override key if one was given, or a fresh key that
// collides with neither the store nor an existing directory.
func (p *Pipeline) citekeyFor(ctx context.Context, m metadata.Metadatum, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	keys, err := p.store.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("listing citekeys: %w", err)
	}
	existing := citekey.NewSet(keys...)

	entries, err := os.ReadDir(p.cfg.LibraryRoot)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading library: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			existing.Add(e.Name())
		}
	}

	return citekey.Create(existing, m), nil
}

// document is the file to place in a new entry's directory: either bytes
// already in memory or a local file.
type document struct {
	data []byte
	path string
	move bool
}

// commit creates the entry directory, writes the document into it, and
// appends m to the store. The directory is removed again if anything after
// its creation fails. A moved source file is only removed once the entry is
// stored.
func (p *Pipeline) commit(ctx context.Context, log logrus.FieldLogger, key string, m metadata.Metadatum, doc *document) error {
	if err := os.MkdirAll(p.cfg.LibraryRoot, 0755); err != nil {
		return fmt.Errorf("creating library root: %w", err)
	}
	dir := p.cfg.ItemDir(key)
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return &storage.KeyError{Key: key, Err: storage.ErrKeyExists}
		}
		return fmt.Errorf("creating entry directory: %w", err)
	}
	log = log.WithField("citekey", key)
	log.WithField("dir", dir).Debug("created entry directory")

	if doc != nil {
		if err := writeDocument(p.cfg.DocumentPath(key), doc); err != nil {
			removeDir(log, dir)
			return fmt.Errorf("writing document: %w", err)
		}
	}

	if err := p.store.Append(ctx, key, m); err != nil {
		removeDir(log, dir)
		return fmt.Errorf("storing metadata: %w", err)
	}

	if doc != nil && doc.move && doc.path != "" {
		if err := os.Remove(doc.path); err != nil {
			log.WithError(err).Warn("removing moved document")
		}
	}
	return nil
}

func removeDir(log logrus.FieldLogger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.WithError(err).Warn("removing entry directory")
	}
}

func writeDocument(dst string, doc *document) error {
	if doc.path == "" {
		return writeFileAtomic(dst, doc.data)
	}

	src, err := os.Open(doc.path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".document-*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func writeFileAtomic(dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
