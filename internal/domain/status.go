package domain

// Status is the sole lifecycle discriminant of a ContentRecord.
type Status string

const (
	StatusDrafted            Status = "drafted"
	StatusPendingApproval    Status = "pending_approval"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusPublishing         Status = "publishing"
	StatusPublished          Status = "published"
	StatusPartiallyPublished Status = "partially_published"
	StatusPublishFailed      Status = "publish_failed"
)

// transitions is the directed edge set of the lifecycle. The edges out of
// partially_published and publish_failed exist for operator-initiated
// retries only; nothing in the core schedules them automatically.
var transitions = map[Status][]Status{
	StatusDrafted:            {StatusPendingApproval},
	StatusPendingApproval:    {StatusApproved, StatusRejected},
	StatusApproved:           {StatusPublishing},
	StatusPublishing:         {StatusPublished, StatusPartiallyPublished, StatusPublishFailed},
	StatusPartiallyPublished: {StatusPublishing},
	StatusPublishFailed:      {StatusPublishing},
	StatusRejected:           nil,
	StatusPublished:          nil,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next follows a defined edge.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends an approval cycle. partially_published
// and publish_failed are terminal for the cycle yet remain retryable.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusPublished, StatusPartiallyPublished, StatusPublishFailed:
		return true
	}
	return false
}
