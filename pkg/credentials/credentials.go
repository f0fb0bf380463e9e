// Package credentials holds the access key pair and signing region for an
// S3-compatible endpoint.
//
// The secret key is redacted in every printable representation. Fields are
// unexported and the types are immutable after construction so a secret can
// never be mutated or leaked through formatting verbs.
package credentials

// AccessKeyID is the public half of an S3 access key pair.
type AccessKeyID struct {
	id string
}

// NewAccessKeyID wraps a raw access key ID.
func NewAccessKeyID(id string) AccessKeyID {
	return AccessKeyID{id: id}
}

// String returns the raw key ID. The ID is public and safe to display.
func (k AccessKeyID) String() string {
	return k.id
}

// AccessKeySecret is the secret half of an S3 access key pair.
//
// It deliberately implements fmt.Stringer and fmt.GoStringer with a redacted
// value so the secret cannot leak through %v, %s, %#v or structured logging.
type AccessKeySecret struct {
	secret string
}

// NewAccessKeySecret wraps a raw secret key.
func NewAccessKeySecret(secret string) AccessKeySecret {
	return AccessKeySecret{secret: secret}
}

// Reveal returns the raw secret for signing. Callers must not log the result.
func (s AccessKeySecret) Reveal() string {
	return s.secret
}

// String implements fmt.Stringer with a redacted value.
func (s AccessKeySecret) String() string {
	return "AccessKeySecret(<hidden>)"
}

// GoString implements fmt.GoStringer with a redacted value.
func (s AccessKeySecret) GoString() string {
	return s.String()
}

// Credentials is an immutable access key pair.
type Credentials struct {
	keyID  AccessKeyID
	secret AccessKeySecret
}

// New builds Credentials from a raw key ID and secret.
func New(keyID, secret string) Credentials {
	return Credentials{
		keyID:  NewAccessKeyID(keyID),
		secret: NewAccessKeySecret(secret),
	}
}

// AccessKeyID returns the public key ID.
func (c Credentials) AccessKeyID() AccessKeyID {
	return c.keyID
}

// Secret returns the wrapped secret key.
func (c Credentials) Secret() AccessKeySecret {
	return c.secret
}

// String implements fmt.Stringer with the secret redacted.
func (c Credentials) String() string {
	return "Credentials{" + c.keyID.String() + ", <hidden>}"
}

// GoString implements fmt.GoStringer with the secret redacted. Without it,
// %#v would reflect over the unexported fields and print the raw secret.
func (c Credentials) GoString() string {
	return c.String()
}

// Region identifies the SigV4 signing scope, e.g. "us-east-1".
// For S3-compatible endpoints the value is opaque and passed through verbatim.
type Region struct {
	name string
}

// NewRegion wraps a region name.
func NewRegion(name string) Region {
	return Region{name: name}
}

// String returns the raw region name.
func (r Region) String() string {
	return r.name
}
