package vault

import "errors"

var (
	ErrNilState           = errors.New("vault: state not configured")
	ErrAssetNotConfigured = errors.New("vault: asset not configured")
	ErrAdminNotSet        = errors.New("vault: admin not configured")
	ErrAdminAlreadySet    = errors.New("vault: admin already configured")
	ErrTreasuryNotSet     = errors.New("vault: treasury not configured")

	// Input validation.
	ErrInvalidAmount   = errors.New("vault: amount must be positive")
	ErrZeroAddress     = errors.New("vault: zero address")
	ErrInvalidRole     = errors.New("vault: unknown role")
	ErrNoChange        = errors.New("vault: value unchanged")
	ErrCustodyIdentity = errors.New("vault: custody address cannot hold a position")

	// Authorization.
	ErrUnauthorized = errors.New("vault: caller not permitted")

	// Capacity.
	ErrDepositCapExceeded = errors.New("vault: deposit cap exceeded")
	ErrOverflow           = errors.New("vault: numeric overflow")

	// Insufficiency.
	ErrInsufficientWithdrawable = errors.New("vault: amount exceeds withdrawable")
	ErrInsufficientReserve      = errors.New("vault: amount exceeds available reserve")
	ErrInsufficientBalance      = errors.New("vault: amount exceeds balance")
	ErrInsufficientExcess       = errors.New("vault: amount exceeds sweepable excess")

	// Monotonicity.
	ErrCumulativeDecreased   = errors.New("vault: cumulative value decreased")
	ErrExceedsReserved       = errors.New("vault: cumulative consumption exceeds reserved total")
	ErrRoyaltyBudgetExceeded = errors.New("vault: royalty allocation exceeds consumption budget")

	// Signatures.
	ErrSignatureLength     = errors.New("vault: signature must be 65 bytes")
	ErrSignatureInvalid    = errors.New("vault: invalid signature")
	ErrUnauthorizedSigner  = errors.New("vault: signer not authorised")
	ErrExpired             = errors.New("vault: message deadline passed")
	ErrDomainNotConfigured = errors.New("vault: signing domain not configured")

	// Venue integration.
	ErrDestinationNotApproved = errors.New("vault: destination not approved")
	ErrVenueUnavailable       = errors.New("vault: venue not registered")
	ErrPullMismatch           = errors.New("vault: venue pulled an unexpected amount")

	ErrDeprecated = errors.New("vault: entry point deprecated")
)
