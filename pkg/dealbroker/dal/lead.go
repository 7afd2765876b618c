package dal

import (
	"fmt"
	"sort"
	"strings"
)

// FormType selects which variant of the landing page form is shown.
// Every type can switch to every other.
type FormType string

const (
	FormConsultation FormType = "Consultation Form"
	FormLease        FormType = "Lease Form"
	FormSell         FormType = "Sell Form"
)

// FormTypes lists the selector options in display order.
var FormTypes = []FormType{FormConsultation, FormLease, FormSell}

// ParseFormType accepts either the short name ("lease") or the label.
func ParseFormType(s string) (FormType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consultation", "consultation form":
		return FormConsultation, nil
	case "lease", "lease form":
		return FormLease, nil
	case "sell", "sell form":
		return FormSell, nil
	}
	return "", fmt.Errorf("unknown form type %q", s)
}

// Short returns the lower-case short name, e.g. "lease".
func (f FormType) Short() string {
	return strings.ToLower(strings.TrimSuffix(string(f), " Form"))
}

// LeadForm is the general lead-capture payload of POST /submit_form/.
type LeadForm struct {
	FormType    FormType `json:"formType" validate:"required,oneof='Consultation Form' 'Lease Form' 'Sell Form'"`
	FirstName   string   `json:"firstName" validate:"required,max=100"`
	LastName    string   `json:"lastName" validate:"required,max=100"`
	Email       string   `json:"email" validate:"required,email,max=100"`
	PhoneNumber string   `json:"phoneNumber" validate:"required,max=20"`

	VehicleMake  string `json:"vehicleMake,omitempty"`
	VehicleModel string `json:"vehicleModel,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	MilesPerYear string `json:"milesPerYear,omitempty"`
	CreditScore  string `json:"creditScore,omitempty"`

	VIN           string `json:"vin,omitempty"`
	Miles         string `json:"miles,omitempty"`
	Payoff        string `json:"payoff,omitempty"`
	Condition     string `json:"condition,omitempty"`
	KeyCount      string `json:"keyCount,omitempty" validate:"omitempty,oneof=1 2"`
	HasDamage     bool   `json:"hasDamage"`
	DamageDetails string `json:"damageDetails,omitempty"`
	IsPaidOff     bool   `json:"isPaidOff"`
}

// NewLeadForm returns an empty form of the given type with one key selected.
func NewLeadForm(t FormType) LeadForm {
	return LeadForm{FormType: t, KeyCount: "1"}
}

// SwitchType changes the variant and keeps the contact fields.
func (f LeadForm) SwitchType(t FormType) LeadForm {
	next := NewLeadForm(t)
	next.FirstName = f.FirstName
	next.LastName = f.LastName
	next.Email = f.Email
	next.PhoneNumber = f.PhoneNumber
	return next
}

// MissingFields returns the json names of required fields that are empty
// for the form's type. The result is sorted.
func (f LeadForm) MissingFields() []string {
	required := map[string]string{
		"firstName":   f.FirstName,
		"lastName":    f.LastName,
		"email":       f.Email,
		"phoneNumber": f.PhoneNumber,
	}
	switch f.FormType {
	case FormConsultation:
		required["zipCode"] = f.ZipCode
	case FormLease:
		required["vehicleMake"] = f.VehicleMake
		required["vehicleModel"] = f.VehicleModel
		required["zipCode"] = f.ZipCode
		required["milesPerYear"] = f.MilesPerYear
		required["creditScore"] = f.CreditScore
	case FormSell:
		required["vin"] = f.VIN
		required["miles"] = f.Miles
		if !f.IsPaidOff {
			required["payoff"] = f.Payoff
		}
	}

	var missing []string
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Check fails when any field required by the form type is empty.
func (f LeadForm) Check() error {
	if missing := f.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
