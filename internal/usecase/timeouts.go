package usecase

import "time"

// Timeouts bounds every external capability call made by the use cases.
// A timed-out call is treated identically to a reported failure of that
// call and classified under the same error kind.
type Timeouts struct {
	Discovery  time.Duration
	Drafting   time.Duration
	Credential time.Duration
	Publish    time.Duration
}

func (t Timeouts) orDefault() Timeouts {
	def := Timeouts{
		Discovery:  60 * time.Second,
		Drafting:   120 * time.Second,
		Credential: 10 * time.Second,
		Publish:    30 * time.Second,
	}
	if t.Discovery <= 0 {
		t.Discovery = def.Discovery
	}
	if t.Drafting <= 0 {
		t.Drafting = def.Drafting
	}
	if t.Credential <= 0 {
		t.Credential = def.Credential
	}
	if t.Publish <= 0 {
		t.Publish = def.Publish
	}
	return t
}
