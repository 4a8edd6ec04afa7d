package dispute

// NoOrderFound is what get_order reports for an unknown order id.
const NoOrderFound = "No order found"

type PhoneLog struct {
	PhoneNumber     string `json:"phone_number"`
	Timestamp       string `json:"timestamp"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
	OrderID         *int   `json:"order_id"`
}

type TrackingInfo struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
}

type ShippingAddress struct {
	Zip string `json:"zip"`
}

type TOSAcceptance struct {
	Date string `json:"date"`
	IP   string `json:"ip"`
}

type Order struct {
	OrderID            int              `json:"order_id"`
	FulfillmentDetails string           `json:"fulfillment_details"`
	CustomerID         string           `json:"customer_id,omitempty"`
	CustomerPhone      string           `json:"customer_phone,omitempty"`
	OrderDate          string           `json:"order_date,omitempty"`
	CustomerEmail      string           `json:"customer_email,omitempty"`
	TrackingInfo       *TrackingInfo    `json:"tracking_info,omitempty"`
	DeliveryStatus     string           `json:"delivery_status,omitempty"`
	ShippingAddress    *ShippingAddress `json:"shipping_address,omitempty"`
	TOSAcceptance      *TOSAcceptance   `json:"tos_acceptance,omitempty"`
}

type Email struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func orderRef(id int) *int { return &id }

var phoneLogs = []PhoneLog{
	{
		PhoneNumber:     "+15551234567",
		Timestamp:       "2023-03-14 15:24:00",
		DurationMinutes: 5,
		Notes:           "Asked about status of order #1121",
		OrderID:         orderRef(1121),
	},
	{
		PhoneNumber:     "+15551234567",
		Timestamp:       "2023-02-28 10:10:00",
		DurationMinutes: 7,
		Notes:           "Requested refund for order #1121, I told him we were unable to refund the order because it was final sale",
		OrderID:         orderRef(1121),
	},
	{
		PhoneNumber:     "+15559876543",
		Timestamp:       "2023-01-05 09:00:00",
		DurationMinutes: 2,
		Notes:           "General inquiry; no specific order mentioned",
	},
}

var orders = []Order{
	{
		OrderID:            1234,
		FulfillmentDetails: "not_shipped",
	},
	{
		OrderID:            9101,
		FulfillmentDetails: "shipped",
		TrackingInfo: &TrackingInfo{
			Carrier:        "FedEx",
			TrackingNumber: "123456789012",
		},
		DeliveryStatus: "out for delivery",
	},
	{
		OrderID:            1121,
		FulfillmentDetails: "delivered",
		CustomerID:         "cus_PZ1234567890",
		CustomerPhone:      "+15551234567",
		OrderDate:          "2023-01-01",
		CustomerEmail:      "customer1@example.com",
		TrackingInfo: &TrackingInfo{
			Carrier:        "UPS",
			TrackingNumber: "1Z999AA10123456784",
			DeliveryStatus: "delivered",
		},
		ShippingAddress: &ShippingAddress{Zip: "10001"},
		TOSAcceptance:   &TOSAcceptance{Date: "2023-01-01", IP: "192.168.1.1"},
	},
}

var emails = []Email{
	{
		Email:   "customer1@example.com",
		Subject: "Order #1121",
		Body:    "Hey, I know you don't accept refunds but the sneakers don't fit and I'd like a refund",
	},
	{
		Email:   "customer2@example.com",
		Subject: "Inquiry about product availability",
		Body:    "Hello, I wanted to check if the new model of the smartphone is available in stock.",
	},
	{
		Email:   "customer3@example.com",
		Subject: "Feedback on recent purchase",
		Body:    "Hi, I recently purchased a laptop from your store and I am very satisfied with the product. Keep up the good work!",
	},
}

// GetPhoneLogs returns the call records for a phone number.
func GetPhoneLogs(phoneNumber string) []PhoneLog {
	out := make([]PhoneLog, 0)
	for _, l := range phoneLogs {
		if l.PhoneNumber == phoneNumber {
			out = append(out, l)
		}
	}
	return out
}

// GetOrder returns the order with the given id, or NoOrderFound.
func GetOrder(orderID int) any {
	for _, o := range orders {
		if o.OrderID == orderID {
			return o
		}
	}
	return NoOrderFound
}

// GetEmails returns the emails received from an address.
func GetEmails(email string) []Email {
	out := make([]Email, 0)
	for _, e := range emails {
		if e.Email == email {
			out = append(out, e)
		}
	}
	return out
}
