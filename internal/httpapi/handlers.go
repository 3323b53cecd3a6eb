package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"warungkas/backend/internal/domain"
)

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	snap, err := a.service.Snapshot(r.Context(), storeIDFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.ItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.CreateItem(r.Context(), storeIDFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (a *API) handleItemActions(w http.ResponseWriter, r *http.Request) {
	itemID, action := pathID(r.URL.Path, "/api/v1/items/")
	if itemID == "" || action != "" {
		writeError(w, http.StatusNotFound, errors.New("unknown item path"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req domain.ItemUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := a.service.UpdateItemDetails(r.Context(), storeIDFrom(r), itemID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case http.MethodDelete:
		if err := a.service.DeleteItem(r.Context(), storeIDFrom(r), itemID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleRestocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.RecordRestock(r.Context(), storeIDFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleRestockActions(w http.ResponseWriter, r *http.Request) {
	logID, action := pathID(r.URL.Path, "/api/v1/restocks/")
	if logID == "" || action != "" {
		writeError(w, http.StatusNotFound, errors.New("unknown restock path"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.RestockCorrectionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.CorrectRestock(r.Context(), storeIDFrom(r), logID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodDelete:
		allowNegative := false
		if raw := strings.TrimSpace(r.URL.Query().Get("allow_negative")); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, errors.New("allow_negative must be true or false"))
				return
			}
			allowNegative = parsed
		}
		resp, err := a.service.ReverseRestock(r.Context(), storeIDFrom(r), logID, domain.RestockReversalRequest{AllowNegative: allowNegative})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CreateOrder(r.Context(), storeIDFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleOrderActions(w http.ResponseWriter, r *http.Request) {
	orderID, action := pathID(r.URL.Path, "/api/v1/orders/")
	if orderID == "" {
		writeError(w, http.StatusNotFound, errors.New("order id required"))
		return
	}
	storeID := storeIDFrom(r)

	switch {
	case action == "" && r.Method == http.MethodPut:
		var req domain.OrderReviseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.ReviseOrder(r.Context(), storeID, orderID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case action == "" && r.Method == http.MethodDelete:
		resp, err := a.service.VoidOrder(r.Context(), storeID, orderID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case action == "pay" && r.Method == http.MethodPost:
		resp, err := a.service.MarkPaid(r.Context(), storeID, orderID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case action == "expenses" && r.Method == http.MethodPut:
		var req domain.OrderExpensesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := a.service.SetOrderExpenses(r.Context(), storeID, orderID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case action == "" || action == "pay" || action == "expenses":
		writeMethodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown order action"))
	}
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.GeneralExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	expense, err := a.service.CreateGeneralExpense(r.Context(), storeIDFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
}

func (a *API) handleExpenseActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	expenseID, action := pathID(r.URL.Path, "/api/v1/expenses/")
	if expenseID == "" || action != "" {
		writeError(w, http.StatusNotFound, errors.New("unknown expense path"))
		return
	}
	if err := a.service.DeleteGeneralExpense(r.Context(), storeIDFrom(r), expenseID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

func (a *API) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.WithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	withdrawal, err := a.service.CreateWithdrawal(r.Context(), storeIDFrom(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"withdrawal": withdrawal})
}

func (a *API) handleWithdrawalActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	withdrawalID, action := pathID(r.URL.Path, "/api/v1/withdrawals/")
	if withdrawalID == "" || action != "" {
		writeError(w, http.StatusNotFound, errors.New("unknown withdrawal path"))
		return
	}
	if err := a.service.DeleteWithdrawal(r.Context(), storeIDFrom(r), withdrawalID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

func (a *API) handleStoreProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		profile, err := a.service.GetStoreProfile(r.Context(), storeIDFrom(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
	case http.MethodPut:
		var req domain.StoreProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		profile, err := a.service.SaveStoreProfile(r.Context(), storeIDFrom(r), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(r.Context(), storeIDFrom(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
