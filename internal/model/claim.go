package model

// VerificationStatus is the outcome of checking a claim against evidence
type VerificationStatus string

const (
	StatusSupported    VerificationStatus = "SUPPORTED"    // Evidence covers the claim with no negation nearby
	StatusContradicted VerificationStatus = "CONTRADICTED" // Evidence covers the claim but negates it
	StatusUnverified   VerificationStatus = "UNVERIFIED"   // No evidence, or too little overlap
)

// Claim represents a factual assertion extracted from an LLM response
type Claim struct {
	Text       string             `json:"text"`                 // The claim text itself
	Sentence   int                `json:"sentence"`             // Fragment index in the response (0-based)
	Status     VerificationStatus `json:"rag_status"`           // Verification against evidence
	Confidence float64            `json:"confidence"`           // Heuristic confidence in [0,1]
	DependsOn  []int              `json:"depends_on,omitempty"` // Indices of claims sharing a capitalized entity
}

// ClaimContradiction records a pairwise conflict between two claims (I < J)
type ClaimContradiction struct {
	I      int    `json:"i"`
	J      int    `json:"j"`
	Reason string `json:"reason"`
}
