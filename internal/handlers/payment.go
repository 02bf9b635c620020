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
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/policy"
	"github.com/jdmdelivery/jdm/internal/services"
)

type PaymentHandler struct {
	DB    *gorm.DB
	Svc   *services.LoanService
	Audit *services.AuditService
}

func NewPaymentHandler(db *gorm.DB, svc *services.LoanService, audit *services.AuditService) *PaymentHandler {
	return &PaymentHandler{DB: db, Svc: svc, Audit: audit}
}

// New: GET renders the form for a loan, POST records the payment through the
// service so every write goes through the same settle path.
func (h *PaymentHandler) New(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	loanID, ok := queryID(r, "loan_id")
	if !ok && r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			loanID, ok = formID(r, "loan_id")
		}
	}
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	detail, err := h.Svc.Detail(loanID, time.Now())
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

	if r.Method == http.MethodGet {
		renderTemplate(w, r, "payment_new", map[string]any{
			"User":           user,
			"Loan":           detail.Loan,
			"Schedule":       detail.Schedule,
			"RemainingTotal": detail.RemainingTotal,
		})
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
	date := time.Now()
	if v := r.FormValue("date"); v != "" {
		if d, derr := time.Parse("2006-01-02", v); derr == nil {
			date = d
		}
	}
	in := services.PaymentInput{
		Amount: formFloat(r, "amount", 0),
		Kind:   engine.PaymentKind(r.FormValue("kind")),
		Date:   date,
		Note:   r.FormValue("note"),
	}
	payment, err := h.Svc.RecordPayment(loanID, in, user)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidAmount) || errors.Is(err, engine.ErrInvalidKind) {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusBadRequest, "invalid_payment", nil)
				return
			}
			middleware.Flash(w, r, "payment.invalid")
			http.Redirect(w, r, "/payments/new?loan_id="+strconv.Itoa(int(loanID)), statusSeeOther)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_record_payment", nil)
		return
	}
	h.Audit.Record(user.ID, "payment.create", fmt.Sprintf("loan #%d amount %.2f receipt %s", loanID, payment.Amount, payment.Receipt))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, payment)
		return
	}
	middleware.Flash(w, r, "payment.saved")
	http.Redirect(w, r, "/loans/detail?id="+strconv.Itoa(int(loanID)), statusSeeOther)
}
