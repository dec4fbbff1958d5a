package domain

import (
	"strings"
	"time"
)

// Platform identifies an external publishing destination.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformMedium   Platform = "medium"
)

// TargetPlatforms is the fixed set of destinations covered by every
// approval cycle. Order is the attempt order within a publish run.
func TargetPlatforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformMedium}
}

// KnownPlatform reports whether p belongs to the fixed target set.
func KnownPlatform(p Platform) bool {
	for _, known := range TargetPlatforms() {
		if p == known {
			return true
		}
	}
	return false
}

// NewsItem is a single story surfaced by the discovery capability.
type NewsItem struct {
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	SourceURL string   `json:"source_url,omitempty"`
	Angle     string   `json:"angle,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// DiscoveryReport aggregates the output of one discovery run.
type DiscoveryReport struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Topics      []string   `json:"topics,omitempty"`
	Items       []NewsItem `json:"items"`
	RawResponse string     `json:"raw_response,omitempty"`
	Note        string     `json:"note,omitempty"`
}

// ShortDraft is the feed-post facet of a draft.
type ShortDraft struct {
	Content     string   `json:"content"`
	SourceItems []string `json:"source_items,omitempty"`
}

// ArticleDraft is the long-form facet, published as markdown.
type ArticleDraft struct {
	Title       string   `json:"title"`
	Markdown    string   `json:"markdown"`
	Tags        []string `json:"tags,omitempty"`
	SourceItems []string `json:"source_items,omitempty"`
}

// DraftBundle carries both content facets. Human edits replace the bundle
// wholesale, never merge into it.
type DraftBundle struct {
	Short   ShortDraft   `json:"short"`
	Article ArticleDraft `json:"article"`
	Note    string       `json:"note,omitempty"`
}

// Empty reports whether neither facet carries content.
func (d DraftBundle) Empty() bool {
	return strings.TrimSpace(d.Short.Content) == "" && strings.TrimSpace(d.Article.Markdown) == ""
}

// Outcome classifies a single publish attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// PlatformResult records one publish attempt for one platform. Entries are
// append-only; the latest entry per platform is authoritative.
type PlatformResult struct {
	Platform    Platform         `json:"platform"`
	AttemptedAt time.Time        `json:"attempted_at"`
	Outcome     Outcome          `json:"outcome"`
	ExternalID  string           `json:"external_id,omitempty"`
	PostURL     string           `json:"post_url,omitempty"`
	ErrorKind   PublishErrorKind `json:"error_kind,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// PublishReceipt is what a platform hands back for a successful publish.
type PublishReceipt struct {
	ExternalID string
	URL        string
}

// Credential is a time-bounded authorization artifact for one platform.
type Credential struct {
	Platform  Platform
	Token     string
	ExpiresAt time.Time
}

// ContentRecord is the unit of work moving through the pipeline.
type ContentRecord struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Discovery    DiscoveryReport  `json:"discovery"`
	Draft        DraftBundle      `json:"draft"`
	Status       Status           `json:"status"`
	Results      []PlatformResult `json:"platform_results,omitempty"`
	ApprovedBy   string           `json:"approved_by,omitempty"`
	ApprovedAt   time.Time        `json:"approved_at,omitempty"`
	RejectedBy   string           `json:"rejected_by,omitempty"`
	RejectReason string           `json:"reject_reason,omitempty"`
}

// LatestResult returns the most recent publish attempt for the platform.
func (r *ContentRecord) LatestResult(p Platform) (PlatformResult, bool) {
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Platform == p {
			return r.Results[i], true
		}
	}
	return PlatformResult{}, false
}

// AppendResult records a new attempt. Results for a platform outside the
// fixed target set indicate a wiring bug, not a runtime condition.
func (r *ContentRecord) AppendResult(res PlatformResult) {
	if !KnownPlatform(res.Platform) {
		panic("domain: result for unknown platform " + string(res.Platform))
	}
	r.Results = append(r.Results, res)
}
