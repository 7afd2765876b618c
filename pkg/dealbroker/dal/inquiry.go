package dal

// Contact holds the customer fields every inquiry carries.
type Contact struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// VehicleSnapshot is a by-value copy of a listing's terms at inquiry time.
type VehicleSnapshot struct {
	ID          int64    `json:"id" validate:"gte=0"`
	Year        int      `json:"year"`
	Make        string   `json:"make" validate:"required"`
	Model       string   `json:"model" validate:"required"`
	LeasePrice  float64  `json:"lease_price" validate:"gte=0"`
	Term        int      `json:"term" validate:"gte=0"`
	DownPayment float64  `json:"down_payment" validate:"gte=0"`
	Mileage     int      `json:"mileage" validate:"gte=0"`
	MSRP        float64  `json:"msrp" validate:"gte=0"`
	Savings     *float64 `json:"savings,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SnapshotOf copies the commercial fields of l. Later changes to l, its
// tags or its savings do not show through the snapshot.
func SnapshotOf(l Listing) VehicleSnapshot {
	c := l.Clone()
	return VehicleSnapshot{
		ID:          c.ID,
		Year:        c.Year,
		Make:        c.Make,
		Model:       c.Model,
		LeasePrice:  c.LeasePrice,
		Term:        c.Term,
		DownPayment: c.DownPayment,
		Mileage:     c.Mileage,
		MSRP:        c.MSRP,
		Savings:     c.Savings,
		Tags:        c.Tags,
		Description: c.Description,
	}
}

// Inquiry is the self-contained record sent to POST /vehicle_inquiry/.
type Inquiry struct {
	Contact
	VehicleType Kind            `json:"vehicle_type" validate:"required,oneof=deal demo"`
	Vehicle     VehicleSnapshot `json:"vehicle"`
}

// NewInquiry builds the payload for a customer's interest in l.
func NewInquiry(contact Contact, l Listing, kind Kind) Inquiry {
	return Inquiry{
		Contact:     contact,
		VehicleType: kind,
		Vehicle:     SnapshotOf(l),
	}
}

// Acknowledgement is the opaque reply to form and inquiry submissions.
type Acknowledgement struct {
	Message string `json:"message"`
}
