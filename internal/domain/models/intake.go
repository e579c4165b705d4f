package models

import "time"

// ClientIntake is the persisted intake record for one onboarding submission.
type ClientIntake struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyName string    `gorm:"not null" json:"company_name"`
	AdminEmail  string    `gorm:"not null" json:"admin_email"`
	Edition     string    `gorm:"not null" json:"edition"`
	DBName      string    `gorm:"size:63;not null;index:idx_clients_db_name" json:"db_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName keeps the table the original deployments already have.
func (ClientIntake) TableName() string {
	return "clients"
}
