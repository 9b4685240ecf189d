package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"CasePublisher/internal/document"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/extraction"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
	"CasePublisher/internal/scanner"
)

// PipelineDeps wires all driven adapters into the publish pipeline.
type PipelineDeps struct {
	Drafts        ports.DraftStore
	Published     ports.PublishedStore
	Vocabulary    ports.Vocabulary
	Classifier    *scanner.Registry
	Extraction    *extraction.Service
	Uploader      *Uploader
	Prompter      ports.Prompter
	Concurrency   int
	ContextRadius int
	Logger        *slog.Logger
}

// Pipeline implements the draft-to-published workflow.
type Pipeline struct {
	drafts        ports.DraftStore
	published     ports.PublishedStore
	vocabulary    ports.Vocabulary
	classifier    *scanner.Registry
	extraction    *extraction.Service
	uploader      *Uploader
	prompter      ports.Prompter
	concurrency   int
	contextRadius int
	logger        *slog.Logger
}

// PublishOptions selects a draft and pre-answers the overwrite question.
type PublishOptions struct {
	DraftPath string
	Overwrite bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = scanner.DefaultRegistry()
	}
	return &Pipeline{
		drafts:        deps.Drafts,
		published:     deps.Published,
		vocabulary:    deps.Vocabulary,
		classifier:    classifier,
		extraction:    deps.Extraction,
		uploader:      deps.Uploader,
		prompter:      deps.Prompter,
		concurrency:   deps.Concurrency,
		contextRadius: deps.ContextRadius,
		logger:        logger.With("component", "pipeline"),
	}
}

// run is the state of one publish invocation.
type run struct {
	draft     domain.Draft
	target    string
	overwrite bool
	pending   []newCanonical
	urls      []string
	refs      []domain.ResourceReference
	stored    []domain.ResourceReference
	links     []domain.ResourceReference
	degraded  bool
	resolved  []domain.Resolution
	output    []byte
}

// Publish runs load, scan, classify, extract, upload, assemble and commit for one draft. Nothing
// is written before commit; the draft is archived last.
func (p *Pipeline) Publish(ctx context.Context, opts PublishOptions) (domain.PublishReport, error) {
	r := &run{overwrite: opts.Overwrite}

	steps := []struct {
		phase domain.Phase
		fn    func(context.Context, *run, PublishOptions) error
	}{
		{domain.PhaseLoad, p.load},
		{domain.PhaseScan, p.scan},
		{domain.PhaseClassify, p.classify},
		{domain.PhaseExtract, p.extract},
		{domain.PhaseUpload, p.upload},
		{domain.PhaseAssemble, p.assemble},
	}
	for _, step := range steps {
		p.logger.Info("phase", "phase", step.phase, "draft", r.draft.Path)
		if err := step.fn(ctx, r, opts); err != nil {
			return domain.PublishReport{}, err
		}
	}

	p.logger.Info("phase", "phase", domain.PhaseCommit, "draft", r.draft.Path)
	return p.commit(ctx, r)
}

func (p *Pipeline) load(ctx context.Context, r *run, opts PublishOptions) error {
	path := opts.DraftPath
	if path == "" {
		selected, err := p.selectDraft(ctx)
		if err != nil {
			return domain.Fail(domain.PhaseLoad, "", err)
		}
		path = selected
	}

	draft, err := p.drafts.Read(ctx, path)
	if err != nil {
		return domain.Fail(domain.PhaseLoad, path, err)
	}
	if err := validateDraft(draft); err != nil {
		return domain.Fail(domain.PhaseLoad, path, err)
	}

	meta, pending, err := normalizeMeta(ctx, p.vocabulary, draft.Kind, draft.Meta)
	if err != nil {
		return domain.Fail(domain.PhaseLoad, path, err)
	}
	draft.Meta = meta
	r.draft = draft

	r.target = p.published.PathFor(draft.Kind, draft.Slug)
	exists, err := p.published.Exists(r.target)
	if err != nil {
		return domain.Fail(domain.PhaseLoad, r.target, err)
	}
	if exists && !r.overwrite {
		ok, err := p.prompter.Confirm(ctx, fmt.Sprintf("%s already exists. Overwrite it?", r.target))
		if err != nil {
			return domain.Fail(domain.PhaseLoad, r.target, err)
		}
		if !ok {
			return domain.Fail(domain.PhaseLoad, r.target, domain.ErrAborted)
		}
		r.overwrite = true
	}

	if len(pending) > 0 {
		names := make([]string, len(pending))
		for i, n := range pending {
			names[i] = n.String()
		}
		ok, err := p.prompter.Confirm(ctx, "Add new canonical values? "+strings.Join(names, "; "))
		if err != nil {
			return domain.Fail(domain.PhaseLoad, path, err)
		}
		if !ok {
			return domain.Fail(domain.PhaseLoad, path, fmt.Errorf("new canonical values rejected: %w", domain.ErrAborted))
		}
		r.pending = pending
	}

	return nil
}

func (p *Pipeline) selectDraft(ctx context.Context) (string, error) {
	drafts, err := p.drafts.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list drafts: %w", err)
	}
	if len(drafts) == 0 {
		return "", fmt.Errorf("no pending drafts: %w", domain.ErrNotFound)
	}

	options := make([]string, len(drafts))
	for i, d := range drafts {
		options[i] = fmt.Sprintf("[%s] %s (%s)", d.Kind, d.Slug, d.ModifiedAt.Format("2006-01-02 15:04"))
	}
	idx, err := p.prompter.Select(ctx, "Select a draft to publish", options)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(drafts) {
		return "", fmt.Errorf("selection %d out of range: %w", idx, domain.ErrInvalidInput)
	}
	return drafts[idx].Path, nil
}

func (p *Pipeline) scan(_ context.Context, r *run, _ PublishOptions) error {
	r.urls = scanner.Scan(r.draft.Body)
	p.logger.Debug("references found", "count", len(r.urls))
	return nil
}

// classify never fails; unknown shapes become links.
func (p *Pipeline) classify(_ context.Context, r *run, _ PublishOptions) error {
	for _, url := range r.urls {
		ref := domain.ResourceReference{
			URL:     url,
			Kind:    p.classifier.Classify(url),
			Context: scanner.Snippet(r.draft.Body, url, p.contextRadius),
		}
		p.logger.Debug("classified", "url", url, "kind", ref.Kind)
		r.refs = append(r.refs, ref)
	}
	return nil
}

func (p *Pipeline) extract(ctx context.Context, r *run, _ PublishOptions) error {
	if len(r.refs) == 0 {
		return nil
	}

	res, err := p.extraction.Extract(ctx, r.refs)
	if err != nil {
		return domain.Fail(domain.PhaseExtract, r.draft.Path, err)
	}
	r.degraded = res.Degraded

	rows := make([]ports.ReviewRow, len(res.References))
	for i, ref := range res.References {
		rows[i] = ports.ReviewRow{URL: ref.URL, Kind: ref.Kind, Summary: summary(ref), Confidence: ref.Metadata.Confidence}
	}
	ok, err := p.prompter.Review(ctx, rows, res.Degraded)
	if err != nil {
		return domain.Fail(domain.PhaseExtract, r.draft.Path, err)
	}
	if !ok {
		return domain.Fail(domain.PhaseExtract, r.draft.Path, domain.ErrAborted)
	}

	for _, ref := range res.References {
		if ref.Kind.Stored() {
			r.stored = append(r.stored, ref)
		} else {
			r.links = append(r.links, ref)
		}
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, r *run, _ PublishOptions) error {
	if len(r.stored) == 0 {
		return nil
	}
	resolved, err := p.uploader.ResolveAll(ctx, r.stored, p.concurrency)
	if err != nil {
		return err
	}
	r.resolved = resolved
	return nil
}

func (p *Pipeline) assemble(_ context.Context, r *run, _ PublishOptions) error {
	out, err := document.Assemble(document.Input{Draft: r.draft, Resolved: r.resolved, Links: r.links})
	if err != nil {
		return domain.Fail(domain.PhaseAssemble, r.draft.Path, err)
	}
	r.output = out
	return nil
}

func (p *Pipeline) commit(ctx context.Context, r *run) (domain.PublishReport, error) {
	for _, n := range r.pending {
		if err := p.vocabulary.AddCanonical(ctx, n.Value, n.List); err != nil && !errors.Is(err, domain.ErrFixedList) {
			return domain.PublishReport{}, domain.Fail(domain.PhaseCommit, n.String(), err)
		}
	}

	if err := p.published.Write(ctx, r.target, r.output, r.overwrite); err != nil {
		return domain.PublishReport{}, domain.Fail(domain.PhaseCommit, r.target, err)
	}

	archived, err := p.drafts.Archive(ctx, r.draft.Path)
	if err != nil {
		return domain.PublishReport{}, domain.Fail(domain.PhaseCommit, r.draft.Path, err)
	}

	report := domain.PublishReport{
		DocumentPath: r.target,
		ArchivePath:  archived,
		Links:        len(r.links),
		Degraded:     r.degraded,
	}
	for _, res := range r.resolved {
		if res.Reused {
			report.Reused++
		} else {
			report.NewUploads++
		}
	}

	p.logger.Info("published", "document", report.DocumentPath, "archive", report.ArchivePath,
		"new", report.NewUploads, "reused", report.Reused, "links", report.Links)
	return report, nil
}

func summary(ref domain.ResourceReference) string {
	md := ref.Metadata
	var parts []string
	for _, s := range []string{md.Alt, md.Title, md.Caption, md.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "(no metadata)"
	}
	return strings.Join(parts, " | ")
}
