package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID  uuid.UUID
	VendorID   *uuid.UUID
	SupplierID *uuid.UUID
	Role       enums.ActorRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. Vendors carry
// a vendor_id, suppliers a supplier_id; admins carry neither.
type AccessTokenClaims struct {
	AccountID  uuid.UUID       `json:"account_id"`
	VendorID   *uuid.UUID      `json:"vendor_id,omitempty"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	Role       enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
