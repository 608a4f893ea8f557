package notification

import "strings"

// Variables are the values substituted into message templates. Each field
// maps to a {name} placeholder, e.g. ProviderName to {providerName}.
type Variables struct {
	ProviderName      string
	PassengerName     string
	PassengerPhone    string
	FromLocation      string
	ToLocation        string
	Date              string
	Time              string
	BookingID         string
	VehicleDescriptor string
	Price             string
}

// Templates holds one message template per recipient type.
type Templates struct {
	Driver    string
	Operator  string
	Passenger string
}

// DefaultTemplates returns the built-in message texts.
func DefaultTemplates() Templates {
	return Templates{
		Driver: "New booking {bookingId}: {passengerName} ({passengerPhone}), " +
			"{fromLocation} -> {toLocation} on {date} at {time}. Vehicle: {vehicleDescriptor}. Price: {price}.",
		Operator: "Booking {bookingId} for {providerName}: {passengerName} ({passengerPhone}), " +
			"{fromLocation} -> {toLocation} on {date} at {time}, {vehicleDescriptor}, {price}.",
		Passenger: "Hello {passengerName}, your trip {fromLocation} -> {toLocation} on {date} at {time} " +
			"is booked with {providerName} ({vehicleDescriptor}). Ref {bookingId}, total {price}.",
	}
}

// WithDefaults fills empty templates from DefaultTemplates.
func (t Templates) WithDefaults() Templates {
	def := DefaultTemplates()
	if strings.TrimSpace(t.Driver) == "" {
		t.Driver = def.Driver
	}
	if strings.TrimSpace(t.Operator) == "" {
		t.Operator = def.Operator
	}
	if strings.TrimSpace(t.Passenger) == "" {
		t.Passenger = def.Passenger
	}
	return t
}

// For returns the template for recipient.
func (t Templates) For(recipient RecipientType) string {
	switch recipient {
	case RecipientDriver:
		return t.Driver
	case RecipientOperator:
		return t.Operator
	default:
		return t.Passenger
	}
}

// Render substitutes vars into tpl. Unknown placeholders are left as they are.
func Render(tpl string, vars Variables) string {
	return strings.NewReplacer(
		"{providerName}", vars.ProviderName,
		"{passengerName}", vars.PassengerName,
		"{passengerPhone}", vars.PassengerPhone,
		"{fromLocation}", vars.FromLocation,
		"{toLocation}", vars.ToLocation,
		"{date}", vars.Date,
		"{time}", vars.Time,
		"{bookingId}", vars.BookingID,
		"{vehicleDescriptor}", vars.VehicleDescriptor,
		"{price}", vars.Price,
	).Replace(tpl)
}
