package usecase

import (
	"context"
	"sync"

	"ContentEngine/internal/domain"
)

type fakeDiscovery struct {
	report domain.DiscoveryReport
	err    error
	calls  int
}

func (f *fakeDiscovery) Search(ctx context.Context, topics []string) (domain.DiscoveryReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeWriter struct {
	bundle domain.DraftBundle
	err    error
	calls  int
}

func (f *fakeWriter) Write(ctx context.Context, report domain.DiscoveryReport) (domain.DraftBundle, error) {
	f.calls++
	return f.bundle, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	pending  []string
	outcomes []string
}

func (f *fakeNotifier) NotifyPending(ctx context.Context, record domain.ContentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, record.ID)
	return nil
}

func (f *fakeNotifier) NotifyPublishOutcome(ctx context.Context, record domain.ContentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, record.ID)
	return nil
}

type fakeCredentials struct {
	tokens map[domain.Platform]string
	errs   map[domain.Platform]error
}

func (f *fakeCredentials) Get(ctx context.Context, platform domain.Platform) (domain.Credential, error) {
	if err, ok := f.errs[platform]; ok {
		return domain.Credential{}, err
	}
	return domain.Credential{Platform: platform, Token: f.tokens[platform]}, nil
}

type fakePublisher struct {
	platform domain.Platform
	receipt  domain.PublishReceipt
	err      error

	mu    sync.Mutex
	calls int

	// block, when set, holds Publish until released; used to exercise
	// concurrent publish attempts.
	block   chan struct{}
	started chan struct{}
}

func (f *fakePublisher) Platform() domain.Platform { return f.platform }

func (f *fakePublisher) Publish(ctx context.Context, draft domain.DraftBundle, cred domain.Credential) (domain.PublishReceipt, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return domain.PublishReceipt{}, f.err
	}
	return f.receipt, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleReport() domain.DiscoveryReport {
	return domain.DiscoveryReport{
		Topics: []string{"ai"},
		Items: []domain.NewsItem{
			{Headline: "Model beats benchmark", Summary: "a summary", SourceURL: "https://example.com/a"},
		},
	}
}

func sampleBundle() domain.DraftBundle {
	return domain.DraftBundle{
		Short:   domain.ShortDraft{Content: "short take"},
		Article: domain.ArticleDraft{Title: "Long take", Markdown: "# Long take\n\nbody", Tags: []string{"ai"}},
	}
}
