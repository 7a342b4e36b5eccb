package errors

import "errors"

var (
	ErrPostNotFound         = errors.New("post not found")
	ErrCreatorNotFound      = errors.New("creator not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidTitle         = errors.New("invalid title")
	ErrInvalidBody          = errors.New("invalid body")
	ErrInvalidVisibility    = errors.New("invalid visibility")
	ErrInvalidStatus        = errors.New("invalid post status")
	ErrInvalidPrice         = errors.New("price is required for PPV posts only and must be positive")
	ErrInvalidAssets        = errors.New("invalid asset ids")
	ErrInvalidUpload        = errors.New("invalid upload")
	ErrKYCRequired          = errors.New("identity verification required to publish")
	ErrCannotFollowSelf     = errors.New("cannot follow yourself")
	ErrNotPPV               = errors.New("post is not pay-per-view")
	ErrOwnPost              = errors.New("cannot purchase your own post")
	ErrAlreadyPurchased     = errors.New("post already purchased")
	ErrInvalidSubscription  = errors.New("invalid subscription record")
	ErrInvalidPurchase      = errors.New("invalid purchase record")
	ErrEntitlementsDegraded = errors.New("entitlement lookup unavailable")
	ErrBillingUnavailable   = errors.New("billing unavailable")
)
