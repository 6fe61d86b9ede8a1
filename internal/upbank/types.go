package upbank

import (
	"encoding/json"
	"strconv"
)

// Account kinds as reported by the Up API.
const (
	AccountKindSaver         = "SAVER"
	AccountKindTransactional = "TRANSACTIONAL"
)

// Webhook event types delivered by Up.
const (
	EventTransactionCreated = "TRANSACTION_CREATED"
	EventTransactionUpdated = "TRANSACTION_UPDATED"
	EventPing               = "PING"
)

// Amount is a monetary value. Up normally sends it as an object with a string
// value and a currency code, but older webhook payloads carried bare numeric
// values, so unmarshalling accepts both shapes.
type Amount struct {
	CurrencyCode string
	Value        string
}

type amountObject struct {
	CurrencyCode string `json:"currencyCode"`
	Value        string `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var obj amountObject
	if err := json.Unmarshal(data, &obj); err == nil {
		a.CurrencyCode = obj.CurrencyCode
		a.Value = obj.Value
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		a.Value = str
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	a.Value = strconv.FormatFloat(num, 'f', -1, 64)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountObject{CurrencyCode: a.CurrencyCode, Value: a.Value})
}

// Relationship is a JSON:API to-one relationship.
type Relationship struct {
	Data *RelationshipData `json:"data"`
}

// RelationshipData identifies the related resource.
type RelationshipData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RelatedID returns the related resource id, or "" when the relationship is
// empty.
func (r *Relationship) RelatedID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.ID
}

// Account is a bank account resource.
type Account struct {
	ID         string            `json:"id"`
	Attributes AccountAttributes `json:"attributes"`
}

// AccountAttributes holds the account fields the sync cares about.
type AccountAttributes struct {
	DisplayName string  `json:"displayName"`
	AccountType string  `json:"accountType"`
	Balance     *Amount `json:"balance"`
}

// Category is a transaction category resource.
type Category struct {
	ID            string                `json:"id"`
	Attributes    CategoryAttributes    `json:"attributes"`
	Relationships CategoryRelationships `json:"relationships"`
}

// CategoryAttributes holds the category fields the sync cares about.
type CategoryAttributes struct {
	Name string `json:"name"`
}

// CategoryRelationships links a category to its optional parent.
type CategoryRelationships struct {
	Parent *Relationship `json:"parent"`
}

// ParentID returns the parent category id, or "" for top-level categories.
func (c *Category) ParentID() string {
	return c.Relationships.Parent.RelatedID()
}

// RoundUp is the automatic savings amount attached to a purchase.
type RoundUp struct {
	Amount *Amount `json:"amount"`
}

// Transaction is a full transaction resource as returned by
// GET /transactions/{id}.
type Transaction struct {
	ID            string                   `json:"id"`
	Attributes    TransactionAttributes    `json:"attributes"`
	Relationships TransactionRelationships `json:"relationships"`
}

// TransactionAttributes holds the transaction fields the converter consumes.
// Optional fields are pointers so absence is distinguishable from zero values.
type TransactionAttributes struct {
	Description string   `json:"description"`
	Message     *string  `json:"message"`
	Amount      *Amount  `json:"amount"`
	RoundUp     *RoundUp `json:"roundUp"`
	SettledAt   *string  `json:"settledAt"`
	CreatedAt   *string  `json:"createdAt"`
	Status      string   `json:"status"`
}

// TransactionRelationships links a transaction to its account and category.
type TransactionRelationships struct {
	Account  *Relationship `json:"account"`
	Category *Relationship `json:"category"`
}

// Event is the webhook envelope delivered by Up.
type Event struct {
	Data EventData `json:"data"`
}

// EventData is the event resource inside the webhook envelope.
type EventData struct {
	ID            string             `json:"id"`
	Attributes    EventAttributes    `json:"attributes"`
	Relationships EventRelationships `json:"relationships"`
}

// EventAttributes carries the event type.
type EventAttributes struct {
	EventType string `json:"eventType"`
}

// EventRelationships links an event to the transaction it concerns.
type EventRelationships struct {
	Transaction *Relationship `json:"transaction"`
}

// TransactionID returns the id of the transaction the event refers to,
// or "" for events without one (e.g. PING).
func (e *Event) TransactionID() string {
	return e.Data.Relationships.Transaction.RelatedID()
}

// EventType returns the event type string, or "" when absent.
func (e *Event) EventType() string {
	return e.Data.Attributes.EventType
}
