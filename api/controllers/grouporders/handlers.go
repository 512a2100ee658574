package grouporders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/packlane/groupbuy-backend/api/middleware"
	"github.com/packlane/groupbuy-backend/api/responses"
	"github.com/packlane/groupbuy-backend/api/validators"
	internalgrouporders "github.com/packlane/groupbuy-backend/internal/grouporders"
	internalledger "github.com/packlane/groupbuy-backend/internal/ledger"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/packlane/groupbuy-backend/pkg/errors"
	"github.com/packlane/groupbuy-backend/pkg/logger"
	"github.com/packlane/groupbuy-backend/pkg/pagination"
	"github.com/packlane/groupbuy-backend/pkg/pricing"
)

// Create opens a group order for the authenticated supplier.
func Create(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		supplierID, err := supplierFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createGroupOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(body.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		tiers := make([]pricing.Tier, 0, len(body.Tiers))
		for _, tier := range body.Tiers {
			tiers = append(tiers, pricing.Tier{
				ThresholdQty:   tier.ThresholdQty,
				UnitPriceCents: tier.UnitPriceCents,
			})
		}

		order, err := svc.Create(r.Context(), internalgrouporders.CreateGroupOrderInput{
			SupplierID:     supplierID,
			ItemID:         itemID,
			Location:       body.Location,
			MinQuantity:    body.MinQuantity,
			TargetQuantity: body.TargetQuantity,
			Deadline:       body.Deadline,
			Tiers:          tiers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Join commits or revises the authenticated vendor's quantity on an order.
func Join(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		vendorID, err := vendorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseGroupOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body joinRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Join(r.Context(), internalgrouporders.JoinInput{
			GroupOrderID: orderID,
			VendorID:     vendorID,
			Quantity:     body.Quantity,
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Withdraw removes the authenticated vendor's commitment from an order.
func Withdraw(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		vendorID, err := vendorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseGroupOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Withdraw(r.Context(), internalgrouporders.WithdrawInput{
			GroupOrderID: orderID,
			VendorID:     vendorID,
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Status returns the full snapshot of one group order.
func Status(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		orderID, err := parseGroupOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Status(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// List returns a page of open group orders matching the query filters.
func List(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseQueryUUID(r, "item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		filters := internalgrouporders.ListFilters{
			Location:   strings.TrimSpace(r.URL.Query().Get("location")),
			ItemID:     itemID,
			SupplierID: supplierID,
		}

		list, err := svc.ListOpen(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Cancel pulls an open order. The owning supplier may do this, and admins
// may cancel any order without carrying a supplier claim.
func Cancel(svc internalgrouporders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "group orders service unavailable"))
			return
		}

		role := middleware.RoleFromContext(r.Context())
		var supplierID uuid.UUID
		if role != string(enums.ActorRoleAdmin) {
			var err error
			supplierID, err = supplierFromContext(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		orderID, err := parseGroupOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), internalgrouporders.CancelInput{
			GroupOrderID: orderID,
			SupplierID:   supplierID,
			Reason:       body.Reason,
			ActorRole:    role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// Ledger returns the append-only participation history of an order. Vendors
// see only their own entries; suppliers and admins get the full history plus
// the per-vendor quantities it replays to.
func Ledger(svc internalledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		orderID, err := parseGroupOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if middleware.RoleFromContext(r.Context()) == string(enums.ActorRoleVendor) {
			vendorID, err := vendorFromContext(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			entries, err := svc.VendorHistory(r.Context(), orderID, vendorID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor ledger"))
				return
			}
			responses.WriteSuccess(w, internalledger.NewHistoryView(orderID, entries, nil))
			return
		}

		entries, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger history"))
			return
		}
		replayed, err := svc.ReplayQuantities(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replay ledger quantities"))
			return
		}
		responses.WriteSuccess(w, internalledger.NewHistoryView(orderID, entries, replayed))
	}
}

func parseGroupOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "groupOrderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "group order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group order id")
	}
	return id, nil
}

func vendorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.VendorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid vendor context")
	}
	return id, nil
}

func supplierFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SupplierIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier context required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid supplier context")
	}
	return id, nil
}
