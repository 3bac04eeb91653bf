package types

// SignatureKind is the kind of payload a signing operation covers.
type SignatureKind string

const (
	SignMessage     = SignatureKind("message")
	SignTypedData   = SignatureKind("typed-data")
	SignTransaction = SignatureKind("transaction")
)
