package model

// Identity is the caller identity decoded from a bearer token.
// Tokens are stateless: nothing here is looked up server-side until an
// operation actually needs the full user record.
type Identity struct {
	Username string
	Email    string
}
