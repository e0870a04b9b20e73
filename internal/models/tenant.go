package models

import "time"

// Tenant represents a tenant in the system
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// BankReceipt represents an uploaded bank receipt
type BankReceipt struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}
