package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/validation"
)

func validListing() dal.Listing {
	return dal.Listing{Make: "Tesla", Model: "Model 3", Year: 2023, LeasePrice: 499, Term: 36, DownPayment: 3000, Mileage: 10000, MSRP: 53990}
}

func TestValidateListing(t *testing.T) {
	v := validation.New()
	require.NoError(t, v.Validate(validListing()))

	bad := validListing()
	bad.Make = ""
	bad.Term = 0
	bad.LeasePrice = -1
	bad.Savings = dal.Savings(-5)

	err := v.Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "is required", appErr.Details["make"])
	assert.Equal(t, "must be greater than 0", appErr.Details["term"])
	assert.Contains(t, appErr.Details, "lease_price")
	assert.Contains(t, appErr.Details, "savings")
}

func TestValidateInquiryUsesNestedNames(t *testing.T) {
	v := validation.New()
	inq := dal.NewInquiry(dal.Contact{FirstName: "Ana", LastName: "Lee", Email: "not-an-email", Phone: "555"}, dal.Listing{ID: 1, Model: "X5"}, dal.KindDeal)

	err := v.Validate(inq)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be a valid email address", appErr.Details["email"])
	assert.Equal(t, "is required", appErr.Details["vehicle.make"])
}

func TestValidateLeadFormType(t *testing.T) {
	v := validation.New()
	form := dal.NewLeadForm(dal.FormLease)
	form.FirstName, form.LastName, form.Email, form.PhoneNumber = "Ana", "Lee", "ana@example.com", "5551234"
	require.NoError(t, v.Validate(form))

	form.FormType = "Trade Form"
	var appErr *apperr.Error
	require.True(t, errors.As(v.Validate(form), &appErr))
	assert.Contains(t, appErr.Details, "formType")
}
