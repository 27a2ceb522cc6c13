package transaction

import (
	"fmt"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

// CreateRequest is a request to create and submit a payment transaction
type CreateRequest struct {
	Provider string
	Amount   string
	Currency string

	// Reference is an optional client-supplied idempotency key. Retrying a
	// create with the same reference returns the existing transaction instead
	// of submitting a second charge. Generated when empty.
	Reference string

	BookingID    string
	PayerID      string
	RecipientID  string
	AgentID      string
	PayerDetails map[string]string
}

// maxReferenceLength bounds client-supplied references to fit the reference column
const maxReferenceLength = 64

// Validator checks create requests before any provider call is made
type Validator struct{}

// NewValidator creates a new request validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks all fields of a create request and returns the parsed amount.
// Everything here fails before money moves anywhere.
func (v *Validator) Validate(req CreateRequest) (entity.Amount, error) {
	if !entity.IsValidProvider(req.Provider) {
		return entity.Amount{}, fmt.Errorf("%w: %s", errs.ErrInvalidProvider, req.Provider)
	}
	if req.BookingID == "" {
		return entity.Amount{}, errs.ErrInvalidBooking
	}
	if req.PayerID == "" {
		return entity.Amount{}, errs.ErrInvalidPayer
	}
	if req.Reference != "" {
		if err := validateReference(req.Reference); err != nil {
			return entity.Amount{}, err
		}
	}

	amount, err := entity.ParseAmount(req.Amount, req.Currency)
	if err != nil {
		return entity.Amount{}, err
	}

	return amount, nil
}

// validateReference checks a client-supplied idempotency key. The key ends up
// in provider payloads and log lines, so only a conservative charset passes.
func validateReference(reference string) error {
	if len(reference) > maxReferenceLength {
		return fmt.Errorf("%w: longer than %d characters", errs.ErrInvalidReference, maxReferenceLength)
	}
	for _, r := range reference {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: character %q not allowed", errs.ErrInvalidReference, r)
		}
	}
	return nil
}
