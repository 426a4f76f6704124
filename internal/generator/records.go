package generator

// ProductLine is one priced catalog product inside a transaction.
type ProductLine struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Amount      Amount `json:"amount"`
}

// Transaction is a customer purchase of 1..5 product lines.
type Transaction struct {
	TransactionID   string        `json:"transaction_id"`
	CustomerID      string        `json:"customer_id"`
	TransactionDate Timestamp     `json:"transaction_date"`
	Products        []ProductLine `json:"products"`
	TotalAmount     Amount        `json:"total_amount"`
}

type Customer struct {
	CustomerID    string      `json:"customer_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Region        string      `json:"region"`
	TotalSpent    Amount      `json:"total_spent"`
	Transaction   Transaction `json:"transaction"`
}

// InventoryRecord is a warehouse stock reading. Quantity is nil or negative and
// LastUpdated may hold InvalidDate when corrupted.
type InventoryRecord struct {
	WarehouseID string `json:"warehouse_id"`
	ProductName string `json:"product_name"`
	Quantity    *int   `json:"quantity"`
	LastUpdated string `json:"last_updated"`
}

// InventoryTransaction is a sale drawn against a stocked inventory record.
type InventoryTransaction struct {
	TransactionID   string    `json:"transaction_id"`
	WarehouseID     string    `json:"warehouse_id"`
	ProductName     string    `json:"product_name"`
	TransactionDate Timestamp `json:"transaction_date"`
	QuantitySold    int       `json:"quantity_sold"`
	Amount          Amount    `json:"amount"`
}

type Provider struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ProductName  string `json:"product_name"`
	ContactEmail string `json:"contact_email"`
}

// Product is one price-list entry.
type Product struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Price    Amount `json:"price"`
}

type Invoice struct {
	InvoiceID     string    `json:"invoice_id"`
	TransactionID string    `json:"transaction_id"`
	CustomerID    string    `json:"customer_id"`
	ProductName   string    `json:"product_name"`
	Amount        Amount    `json:"amount"`
	InvoiceDate   Timestamp `json:"invoice_date"`
}

// Receipt settles one sale. CustomerID is null for warehouse sales and Notes is
// null unless a note was drawn.
type Receipt struct {
	ReceiptID     string    `json:"receipt_id"`
	TransactionID string    `json:"transaction_id"`
	CustomerID    *string   `json:"customer_id"`
	Amount        Amount    `json:"amount"`
	ReceiptDate   Timestamp `json:"receipt_date"`
	PaymentMethod string    `json:"payment_method"`
	Notes         *string   `json:"notes"`
}

// Sale is the input a receipt is derived from.
type Sale struct {
	TransactionID string
	CustomerID    *string
	Date          Timestamp
	Amount        Amount
}

type CustomerBatch struct {
	Customers    []Customer
	Transactions []Transaction
	Defects      Defects
}

type InventoryBatch struct {
	Records []InventoryRecord
	Defects Defects
}

type ReceiptBatch struct {
	Receipts []Receipt
	Defects  Defects
}
