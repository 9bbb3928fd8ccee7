package models

type PaymentStatus string

const (
	PaymentSuccess    PaymentStatus = "success"
	PaymentNotSuccess PaymentStatus = "not-success"
)

type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CheckoutRequest struct {
	TxRef       string
	Amount      float64
	Currency    string
	Payer       Payer
	ReturnURL   string
	CallbackURL string
}

type CheckoutSession struct {
	CheckoutURL string `json:"checkoutUrl"`
	TxRef       string `json:"tx_ref"`
}
