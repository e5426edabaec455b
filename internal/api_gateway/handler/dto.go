package handler

// CreateTransferRequest registers an attachment transfer between two entities.
// Async requests are dispatched to the task topic; synchronous ones run inline
// and return the finished record.
type CreateTransferRequest struct {
	SourceTable   string `json:"source_table" binding:"required"`
	SourceID      int64  `json:"source_id" binding:"required,gt=0"`
	DestTable     string `json:"dest_table" binding:"required"`
	DestID        int64  `json:"dest_id" binding:"required,gt=0"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Async         bool   `json:"async"`
}

// TransferItemResponse represents one copied attachment in API responses
type TransferItemResponse struct {
	Name      string `json:"name"`
	SourceRef string `json:"source_ref"`
	Size      int64  `json:"size"`
}

// TransferRecordResponse represents a transfer record in API responses
type TransferRecordResponse struct {
	ID               string                 `json:"id"`
	SourceTable      string                 `json:"source_table"`
	SourceID         int64                  `json:"source_id"`
	DestTable        string                 `json:"dest_table"`
	DestID           int64                  `json:"dest_id"`
	Status           string                 `json:"status"`
	AttemptCount     int                    `json:"attempt_count"`
	MaxAttempts      int                    `json:"max_attempts"`
	TotalItems       int                    `json:"total_items"`
	SucceededItems   int                    `json:"succeeded_items"`
	TransferredItems []TransferItemResponse `json:"transferred_items,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	Details          map[string]interface{} `json:"details,omitempty"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
	CompletedAt      string                 `json:"completed_at,omitempty"`
}

// CreateClosureRequest submits a purchase-order closure triggered by an invoice
type CreateClosureRequest struct {
	OrderNumber   string `json:"order_number" binding:"required"`
	OrderItem     string `json:"order_item,omitempty"`
	InvoiceNumber string `json:"invoice_number" binding:"required"`
	InvoiceID     int64  `json:"invoice_id" binding:"required,gt=0"`
	Async         bool   `json:"async"`
}

// ClosureRecordResponse represents a closure record in API responses
type ClosureRecordResponse struct {
	ID            string                 `json:"id"`
	OrderNumber   string                 `json:"order_number"`
	OrderItem     string                 `json:"order_item,omitempty"`
	InvoiceNumber string                 `json:"invoice_number"`
	InvoiceID     int64                  `json:"invoice_id"`
	Status        string                 `json:"status"`
	AttemptCount  int                    `json:"attempt_count"`
	MaxAttempts   int                    `json:"max_attempts"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
	CompletedAt   string                 `json:"completed_at,omitempty"`
}

// AttachmentRequest is one document included with an order creation request
type AttachmentRequest struct {
	Name        string `json:"name" binding:"required"`
	ContentB64  string `json:"content_b64" binding:"required"`
	Description string `json:"description,omitempty"`
}

// CreateOrderRequest starts the purchase-order full flow
type CreateOrderRequest struct {
	IntegrationCode string                 `json:"integration_code,omitempty"`
	Payload         map[string]interface{} `json:"payload" binding:"required"`
	Attachments     []AttachmentRequest    `json:"attachments,omitempty"`
}

// OrderIntegrationResponse represents an order integration in API responses
type OrderIntegrationResponse struct {
	ID              string `json:"id"`
	RemoteOrderID   int64  `json:"remote_order_id"`
	IntegrationCode string `json:"integration_code,omitempty"`
	Origin          string `json:"origin"`
	CreationMethod  string `json:"creation_method"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// FinanceMapResponse represents a finance map in API responses
type FinanceMapResponse struct {
	ID                 string `json:"id"`
	OrderIntegrationID string `json:"order_integration_id"`
	RemotePayableID    int64  `json:"remote_payable_id"`
	CreationMethod     string `json:"creation_method"`
	AttachmentsSynced  bool   `json:"attachments_synced"`
	LastError          string `json:"last_error,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// ListRecordsParams filters record listings by status with pagination
type ListRecordsParams struct {
	Status  string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING SUCCESS FAILED"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// SweepParams bounds one reprocessing sweep
type SweepParams struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}
