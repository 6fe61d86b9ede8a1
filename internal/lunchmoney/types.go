package lunchmoney

// StatusUncleared is the status every synced transaction is submitted with.
// Review happens in Lunch Money itself, so nothing is marked cleared here.
const StatusUncleared = "uncleared"

// Transaction is a transaction in the shape Lunch Money ingests.
// Amount keeps the source sign: negative values are outflows, which matches
// the debit_as_negative submission flag.
type Transaction struct {
	Payee      string `json:"payee"`
	Amount     string `json:"amount"`
	Notes      string `json:"notes"`
	Date       string `json:"date"`
	ExternalID string `json:"external_id"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	AssetID    int    `json:"asset_id,omitempty"`
	CategoryID int    `json:"category_id,omitempty"`
}

// Asset is a Lunch Money manually-managed account.
type Asset struct {
	ID       int    `json:"id"`
	TypeName string `json:"type_name"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// CreateAssetRequest is the payload for POST /assets.
type CreateAssetRequest struct {
	TypeName string  `json:"type_name"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Category is a Lunch Money transaction category.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategoryRequest is the payload for POST /categories.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
