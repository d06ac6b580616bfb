package model

// User is a dataset account. Password is compared verbatim at login.
type User struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	FullName          string  `json:"full_name"`
	Phone             string  `json:"phone"`
	Address           string  `json:"address"`
	City              string  `json:"city"`
	Province          string  `json:"province"`
	PostalCode        string  `json:"postal_code"`
	PreferredBranchID *string `json:"preferred_branch_id"`
}

// SessionUser is the credential-free copy kept in a client's session
type SessionUser struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	FullName          string  `json:"full_name"`
	Phone             string  `json:"phone,omitempty"`
	Address           string  `json:"address,omitempty"`
	City              string  `json:"city,omitempty"`
	Province          string  `json:"province,omitempty"`
	PostalCode        string  `json:"postal_code,omitempty"`
	PreferredBranchID *string `json:"preferred_branch_id,omitempty"`
}

// Sanitize strips credentials
func (u User) Sanitize() SessionUser {
	return SessionUser{
		ID:                u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		Phone:             u.Phone,
		Address:           u.Address,
		City:              u.City,
		Province:          u.Province,
		PostalCode:        u.PostalCode,
		PreferredBranchID: u.PreferredBranchID,
	}
}
