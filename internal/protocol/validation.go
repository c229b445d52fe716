// internal/protocol/validation.go
package protocol

// ValidationStatus is the trust status of a manually entered lobby code.
// None and Pending are client-local; only Invalid, Full and Valid travel on
// the wire.
type ValidationStatus string

const (
	ValidationNone    ValidationStatus = "none"
	ValidationPending ValidationStatus = "pending"
	ValidationInvalid ValidationStatus = "invalid"
	ValidationFull    ValidationStatus = "full"
	ValidationValid   ValidationStatus = "valid"
)
