package domain

// MT103Message is the single-transfer result of parsing one SWIFT MT103.
type MT103Message struct {
	Transfer CreditTransfer
}
