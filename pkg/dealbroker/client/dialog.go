package client

import (
	"context"
	"fmt"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// DialogState is the state of the listing dialog.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogDetail
	DialogContact
	DialogSubmitted
)

func (s DialogState) String() string {
	switch s {
	case DialogClosed:
		return "closed"
	case DialogDetail:
		return "detail"
	case DialogContact:
		return "contact"
	case DialogSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("DialogState(%d)", int(s))
}

// Dialog drives the listing detail / contact form flow. Selecting a listing
// opens the detail view from any state; the contact form opens only from
// the detail view and submission is only possible from the contact form.
type Dialog struct {
	kind    dal.Kind
	state   DialogState
	listing *dal.Listing
	Contact dal.Contact
}

// NewDialog returns a closed dialog for listings of kind.
func NewDialog(kind dal.Kind) *Dialog {
	return &Dialog{kind: kind}
}

func (d *Dialog) State() DialogState {
	return d.state
}

// Listing returns the selected listing, nil when none is selected.
func (d *Dialog) Listing() *dal.Listing {
	return d.listing
}

// Select shows l and clears the contact form.
func (d *Dialog) Select(l dal.Listing) {
	c := l.Clone()
	d.listing = &c
	d.Contact = dal.Contact{}
	d.state = DialogDetail
}

// OpenContact switches from the detail view to the contact form.
func (d *Dialog) OpenContact() error {
	if d.state != DialogDetail {
		return d.invalid("open the contact form")
	}
	d.state = DialogContact
	return nil
}

// Close hides the dialog from any state. The selection is kept.
func (d *Dialog) Close() {
	d.state = DialogClosed
}

// Submit sends the contact form for the selected listing and moves to the
// submitted state on success. On failure the form stays open.
func (d *Dialog) Submit(ctx context.Context, s *Submitter) (SubmissionResult, error) {
	if d.state != DialogContact {
		return SubmissionResult{}, d.invalid("submit")
	}
	res, err := s.SubmitInquiry(ctx, d.Contact, d.listing, d.kind)
	if err != nil {
		return res, err
	}
	d.state = DialogSubmitted
	return res, nil
}

func (d *Dialog) invalid(action string) error {
	return fmt.Errorf("cannot %s while the dialog is %s", action, d.state)
}
