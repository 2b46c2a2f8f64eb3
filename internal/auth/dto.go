package auth

import "encoding/json"

// Credentials are the login form values.
type Credentials struct {
	Username string `json:"username" validate:"required,max=20,username"`
	Password string `json:"password" validate:"required"`
}

// Registration are the sign-up form values.
type Registration struct {
	Username  string `json:"username" validate:"required,max=20,username"`
	Password  string `json:"password" validate:"required,min=8,password"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"first_name,omitempty" validate:"max=150"`
	LastName  string `json:"last_name,omitempty" validate:"max=150"`
}

// ProfileUpdate carries the editable profile fields; empty values are left unchanged.
type ProfileUpdate struct {
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string `json:"first_name,omitempty" validate:"max=150"`
	LastName  string `json:"last_name,omitempty" validate:"max=150"`
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	User    Principal `json:"user"`
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
}

// Tokens returns the issued token pair.
func (r AuthResponse) Tokens() TokenPair {
	return TokenPair{Access: r.Access, Refresh: r.Refresh}
}

// UsernameAvailability is the answer of the username lookup.
type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// UnmarshalJSON accepts the backend's "avaliable" spelling as well as "available".
func (u *UsernameAvailability) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username   string `json:"username"`
		Available  *bool  `json:"available"`
		Misspelled *bool  `json:"avaliable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	switch {
	case raw.Available != nil:
		u.Available = *raw.Available
	case raw.Misspelled != nil:
		u.Available = *raw.Misspelled
	}
	return nil
}
