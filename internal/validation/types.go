package validation

// CreateAccountRequest is the payload for POST /accounts. Field names follow
// the account factory's provisioning parameter names.
type CreateAccountRequest struct {
	AccountName               string `json:"AccountName" validate:"required,account_name"`
	AccountEmail              string `json:"AccountEmail" validate:"required,email"`
	ManagedOrganizationalUnit string `json:"ManagedOrganizationalUnit" validate:"required"`
	SSOUserEmail              string `json:"SSOUserEmail" validate:"required,email"`
	SSOUserFirstName          string `json:"SSOUserFirstName" validate:"required"`
	SSOUserLastName           string `json:"SSOUserLastName" validate:"required"`
	CallbackURL               string `json:"CallbackUrl,omitempty" validate:"omitempty,url"`
	CallbackSecret            string `json:"CallbackSecret,omitempty"`
}
