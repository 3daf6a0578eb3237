package models

// User is a token holder loaded from the users dataset.
// Missing flags decode to false and a missing balance decodes to 0.
type User struct {
	Id           int64  `json:"id" yaml:"id"`
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Email        string `json:"email" yaml:"email"`
	CompanyId    int64  `json:"company_id" yaml:"company_id"`
	EmailStatus  bool   `json:"email_status" yaml:"email_status"`
	ActiveStatus bool   `json:"active_status" yaml:"active_status"`
	Tokens       int64  `json:"tokens" yaml:"tokens"`
}

// Company grants TopUp tokens to each of its active users per run
type Company struct {
	Id          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	TopUp       int64  `json:"top_up" yaml:"top_up"`
	EmailStatus bool   `json:"email_status" yaml:"email_status"`
}
