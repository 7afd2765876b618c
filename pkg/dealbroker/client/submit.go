package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// SubmissionResult carries the server's acknowledgement and the payload
// that was sent.
type SubmissionResult struct {
	Acknowledgement dal.Acknowledgement
	Inquiry         dal.Inquiry
}

// Submitter sends inquiries and leads. It never touches a Store.
type Submitter struct {
	client *Client
}

func NewSubmitter(c *Client) *Submitter {
	return &Submitter{client: c}
}

// SubmitInquiry snapshots listing at call time and posts it with contact to
// /vehicle_inquiry/.
func (s *Submitter) SubmitInquiry(ctx context.Context, contact dal.Contact, listing *dal.Listing, kind dal.Kind) (SubmissionResult, error) {
	if listing == nil {
		return SubmissionResult{}, apperr.Validation("no listing selected")
	}
	if !kind.Valid() {
		return SubmissionResult{}, apperr.Validation("unknown listing kind " + string(kind))
	}
	if err := s.client.validate.Validate(contact); err != nil {
		return SubmissionResult{}, err
	}

	inq := dal.NewInquiry(contact, *listing, kind)
	var ack dal.Acknowledgement
	if err := s.client.doJSON(ctx, http.MethodPost, "/vehicle_inquiry/", inq, &ack); err != nil {
		return SubmissionResult{Inquiry: inq}, err
	}
	return SubmissionResult{Acknowledgement: ack, Inquiry: inq}, nil
}

// SubmitLead posts a landing page form to /submit_form/ after checking the
// fields its type requires.
func (s *Submitter) SubmitLead(ctx context.Context, form dal.LeadForm) (dal.Acknowledgement, error) {
	if err := s.client.validate.Validate(form); err != nil {
		return dal.Acknowledgement{}, err
	}
	if missing := form.MissingFields(); len(missing) > 0 {
		details := make(map[string]string, len(missing))
		for _, name := range missing {
			details[name] = "is required"
		}
		return dal.Acknowledgement{}, apperr.ValidationWithDetails(form.Check().Error(), details)
	}
	if form.IsPaidOff {
		form.Payoff = ""
	}

	var ack dal.Acknowledgement
	err := s.client.doJSON(ctx, http.MethodPost, "/submit_form/", form, &ack)
	return ack, err
}

// IsValidationError reports whether err was raised before any request was
// sent because the input was incomplete.
func IsValidationError(err error) bool {
	return errors.Is(err, apperr.ErrValidation)
}
