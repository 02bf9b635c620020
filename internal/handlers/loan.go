package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/engine"
	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/i18n"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/policy"
	"github.com/jdmdelivery/jdm/internal/services"
	"github.com/jdmdelivery/jdm/internal/view"
	"github.com/jdmdelivery/jdm/internal/whatsapp"
)

type LoanHandler struct {
	DB    *gorm.DB
	Svc   *services.LoanService
	Audit *services.AuditService
}

func NewLoanHandler(db *gorm.DB, svc *services.LoanService, audit *services.AuditService) *LoanHandler {
	return &LoanHandler{DB: db, Svc: svc, Audit: audit}
}

// List: GET /loans – HTML or JSON. ?status=active|closed filters.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	dbq := policy.Scope(h.DB.Preload("Client"), user)
	status := r.URL.Query().Get("status")
	if status == string(engine.StatusActive) || status == string(engine.StatusClosed) {
		dbq = dbq.Where("status = ?", status)
	}
	var loans []models.Loan
	if err := dbq.Order("id desc").Limit(200).Find(&loans).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_loans", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": loans, "total": len(loans)})
		return
	}
	renderTemplate(w, r, "loans", map[string]any{
		"User":   user,
		"Loans":  loans,
		"Status": status,
		"Flash":  middleware.PopFlash(w, r),
	})
}

// New: GET renders the issuance form, POST creates the loan.
func (h *LoanHandler) New(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		var clients []models.Client
		policy.Scope(h.DB.Model(&models.Client{}), user).Order("first_name asc").Find(&clients)
		data := map[string]any{"User": user, "Clients": clients, "ClientID": uint(0)}
		if id, ok := queryID(r, "client_id"); ok {
			data["ClientID"] = id
		}
		renderTemplate(w, r, "loan_new", data)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	clientID, _ := formID(r, "client_id")
	termCount, _ := strconv.Atoi(r.FormValue("term_count"))
	startDate := time.Now()
	if v := r.FormValue("start_date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			startDate = d
		}
	}
	termKind := r.FormValue("term_kind")
	if termKind != services.TermKindWeeks {
		termKind = services.TermKindDays
	}
	in := services.CreateLoanInput{
		ClientID:   clientID,
		Amount:     formFloat(r, "amount", 0),
		Rate:       formFloat(r, "rate", 0),
		Frequency:  engine.Frequency(r.FormValue("frequency")),
		StartDate:  startDate,
		TermCount:  termCount,
		TermKind:   termKind,
		FeePercent: formFloat(r, "fee_percent", 10),
	}
	loan, err := h.Svc.Create(in, user)
	if err != nil {
		h.createFailed(w, r, user, err)
		return
	}
	h.Audit.Record(user.ID, "loan.create", fmt.Sprintf("loan #%d amount %.2f", loan.ID, loan.Amount))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, loan)
		return
	}
	middleware.Flash(w, r, "loan.created")
	http.Redirect(w, r, "/loans/detail?id="+strconv.Itoa(int(loan.ID)), statusSeeOther)
}

func (h *LoanHandler) createFailed(w http.ResponseWriter, r *http.Request, user models.User, err error) {
	code := "loan.notfound"
	jsonCode := "failed_to_create_loan"
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidLoanTerms):
		jsonCode, status = "validation_failed", http.StatusBadRequest
		code = "loan.invalid"
	case errors.Is(err, services.ErrFeeRestricted):
		jsonCode, status = "fee_restricted", http.StatusForbidden
		code = "loan.fee"
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, jsonCode, nil)
		return
	}
	var clients []models.Client
	policy.Scope(h.DB.Model(&models.Client{}), user).Order("first_name asc").Find(&clients)
	renderTemplate(w, r, "loan_new", map[string]any{
		"User":     user,
		"Clients":  clients,
		"ClientID": uint(0),
		"Error":    i18n.T(middleware.LangFrom(r), code),
	})
}

// Detail: GET /loans/detail?id=... – schedule, ledger, overdue estimate and
// the WhatsApp invoice link.
func (h *LoanHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	detail, err := h.Svc.Detail(id, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_loan", nil)
		return
	}
	if !policy.CanView(user, detail.Loan) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		middleware.Flash(w, r, "denied")
		http.Redirect(w, r, "/loans", http.StatusSeeOther)
		return
	}
	invoiceURL := whatsapp.InvoiceURL(detail.Loan.Client.Phone, whatsapp.Invoice{
		LoanID:       detail.Loan.ID,
		Amount:       detail.Loan.Amount,
		Rate:         detail.Loan.Rate,
		TotalPayable: detail.Schedule.TotalPayable,
		Installment:  detail.Schedule.Installment,
		EndDate:      detail.Loan.EndDate,
	}, view.Money)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"loan":            detail.Loan,
			"payments":        detail.Payments,
			"schedule":        detail.Schedule,
			"totals":          detail.Totals,
			"remaining_total": detail.RemainingTotal,
			"overdue":         detail.Overdue,
		})
		return
	}
	renderTemplate(w, r, "loan_detail", map[string]any{
		"User":           user,
		"Loan":           detail.Loan,
		"Payments":       detail.Payments,
		"Schedule":       detail.Schedule,
		"Totals":         detail.Totals,
		"RemainingTotal": detail.RemainingTotal,
		"Overdue":        detail.Overdue,
		"WhatsAppURL":    invoiceURL,
		"Flash":          middleware.PopFlash(w, r),
	})
}
