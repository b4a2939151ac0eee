package domain

// FederatedLogin is a login attempt delegated to an external issuer.
//
// Credential holds the raw artifact the frontend received from the provider:
// a signed ID token for Google, an authorization code for GitHub. The Claimed
// profile fields are only trusted when the deployment runs in trusted-input
// mode.
type FederatedLogin struct {
	Provider   AccountKind
	ClientID   string
	Credential string
	SelectBy   string

	ClaimedSubject string
	ClaimedEmail   string
	ClaimedName    string
	ClaimedPicture string
}

// VerifiedIdentity is the profile an issuer vouched for.
type VerifiedIdentity struct {
	Provider AccountKind
	Subject  string
	Email    string
	Name     string
	Picture  string
	Username string
}
