// Package dto defines the wire types of the gateway's HTTP surface.
package dto

// SubmitForm is the intake form posted from the company page.
type SubmitForm struct {
	CompanyName string `form:"company_name" binding:"required"`
	DBName      string `form:"db_name" binding:"required"`
	AdminEmail  string `form:"admin_email" binding:"required"`
	Edition     string `form:"odoo_edition" binding:"required"`
}

// CreateDBForm is the database-details form posted to the creating page.
// DBName may be absent when the read-only field is stripped; the flow token
// is the authoritative carrier.
type CreateDBForm struct {
	DBName     string `form:"db_name"`
	DBPassword string `form:"db_password" binding:"required"`
	Phone      string `form:"phone"`
	Lang       string `form:"lang"`
	Country    string `form:"country"`
	Demo       bool   `form:"demo"`
	Edition    string `form:"edition"`
	AdminLogin string `form:"admin_login"`
	Flow       string `form:"flow"`
}

// CreateDatabaseRequest is the JSON body of the creation endpoint.
type CreateDatabaseRequest struct {
	DBName     string `json:"db_name"`
	DBPassword string `json:"db_password"`
	Phone      string `json:"phone"`
	Lang       string `json:"lang"`
	Country    string `json:"country"`
	Demo       bool   `json:"demo"`
	Edition    string `json:"edition"`
	AdminLogin string `json:"admin_login"`
	Nonce      string `json:"nonce"`
}

// CreationPagePayload is embedded in the creating page and replayed verbatim
// against the JSON creation endpoint by the page script.
type CreationPagePayload struct {
	DBName     string `json:"db_name"`
	DBPassword string `json:"db_password"`
	Phone      string `json:"phone"`
	Lang       string `json:"lang"`
	Country    string `json:"country"`
	Demo       bool   `json:"demo"`
	Edition    string `json:"edition"`
	AdminLogin string `json:"admin_login"`
	Nonce      string `json:"nonce"`
}
