package models

import (
	"time"
)

type Student struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	RollNo          string    `gorm:"uniqueIndex;not null"      json:"roll_no"`
	Name            string    `gorm:"not null"                  json:"name"`
	FatherName      string    `json:"father_name"`
	Gender          string    `json:"gender"`
	Category        string    `json:"category"`
	Branch          string    `json:"branch"`
	Email           string    `gorm:"index"                     json:"email"`
	Phone           string    `json:"phone"`
	DOB             time.Time `json:"-"`
	PasswordHash    string    `json:"-"`
	IsEmailVerified bool      `gorm:"default:false"             json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type StudentImage struct {
	ID          uint      `gorm:"primaryKey"               json:"id"`
	StudentID   uint      `gorm:"uniqueIndex;not null"     json:"student_id"`
	Photo       []byte    `gorm:"not null"                 json:"-"`
	ContentType string    `gorm:"not null"                 json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Clerk struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	EmployeeID   string    `gorm:"not null"                 json:"employee_id"`
	Role         string    `gorm:"not null"                 json:"role"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	IsActive     bool      `gorm:"default:true"             json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Admin struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Role         string `gorm:"not null"                 json:"role"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type StudentRequest struct {
	RequestID       uint       `gorm:"primaryKey;autoIncrement" json:"request_id"`
	StudentID       uint       `gorm:"index;not null"           json:"student_id"`
	RollNo          string     `gorm:"index;not null"           json:"roll_no"`
	CertificateType string     `gorm:"not null"                 json:"certificate_type"`
	ClerkType       string     `gorm:"index;not null"           json:"clerk_type"`
	Status          string     `gorm:"not null;default:PENDING" json:"status"`
	PaymentAmount   float64    `json:"payment_amount"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	Purpose         string     `json:"purpose,omitempty"`
	RejectReason    string     `json:"reject_reason,omitempty"`
	ActionByClerkID *uint      `json:"action_by_clerk_id,omitempty"`
	ActionByRole    string     `json:"action_by_role,omitempty"`
	CertificateID   string     `gorm:"index"                    json:"certificate_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type StudentRequestImage struct {
	ID                uint   `gorm:"primaryKey"           json:"id"`
	RequestID         uint   `gorm:"uniqueIndex;not null" json:"request_id"`
	PaymentScreenshot []byte `gorm:"not null"             json:"-"`
	ContentType       string `gorm:"not null"             json:"content_type"`
}

// CertificateVerification records one lookup of an issued certificate on
// the public verification endpoint.
type CertificateVerification struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	RequestID uint      `gorm:"index;not null" json:"request_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func All() []any {
	return []any{
		&Student{}, &StudentImage{}, &Clerk{}, &Admin{},
		&StudentRequest{}, &StudentRequestImage{}, &CertificateVerification{},
	}
}
