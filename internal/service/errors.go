package service

// Error is a domain failure carrying one of the closed set of error codes
// surfaced verbatim to the HTTP boundary. Anything that is not an *Error is
// treated as an internal failure by the caller.
type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

var (
	ErrOfferNotFound       = &Error{Code: "OFFER_NOT_FOUND"}
	ErrTradeNotFound       = &Error{Code: "TRADE_NOT_FOUND"}
	ErrGroupNotFound       = &Error{Code: "GROUP_NOT_FOUND"}
	ErrUserNotFound        = &Error{Code: "USER_NOT_FOUND"}
	ErrInsufficientTokens  = &Error{Code: "INSUFFICIENT_TOKENS"}
	ErrOfferAlreadyClaimed = &Error{Code: "OFFER_ALREADY_CLAIMED"}
	ErrInvalidTokenAmount  = &Error{Code: "INVALID_TOKEN_AMOUNT"}
	ErrMissingFields       = &Error{Code: "MISSING_FIELDS"}

	// Boundary-only codes for the auth endpoints.
	ErrEmailAlreadyRegistered = &Error{Code: "EMAIL_ALREADY_REGISTERED"}
	ErrInvalidCredentials     = &Error{Code: "INVALID_CREDENTIALS"}
)
