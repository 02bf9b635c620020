package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/auth"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/services"
)

func setupHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Loan{}, &models.Payment{}, &models.CashReport{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	user := models.User{Username: username, Password: string(hash), Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	auth.CreateSession(w, userID)
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	return cookies[0]
}

// jsonRequest builds a form POST (or plain GET) that asks for a JSON reply.
func jsonRequest(method, target string, form url.Values, cookie *http.Cookie) *http.Request {
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Accept", "application/json")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func TestLoginJSON(t *testing.T) {
	db := setupHandlersDB(t)
	user := seedUser(t, db, "maria", models.RoleCollector)
	h := NewAuthHandler(db, services.NewAuditService(db))
	wrapped := auth.Middleware(http.HandlerFunc(h.Login))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodPost, "/login", url.Values{"username": {"maria"}, "password": {"secret"}}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["username"] != "maria" {
		t.Fatalf("unexpected login body: %v", resp)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("login did not set a session cookie")
	}
	var entries int64
	db.Model(&models.AuditLog{}).Where("user_id = ? AND action = ?", user.ID, "login").Count(&entries)
	if entries != 1 {
		t.Fatalf("expected one login audit entry, got %d", entries)
	}

	bad := httptest.NewRecorder()
	wrapped.ServeHTTP(bad, jsonRequest(http.MethodPost, "/login", url.Values{"username": {"maria"}, "password": {"wrong"}}, nil))
	if bad.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401 got %d", bad.Code)
	}
}

func TestClientListScopedByRole(t *testing.T) {
	db := setupHandlersDB(t)
	a := seedUser(t, db, "cobra-a", models.RoleCollector)
	b := seedUser(t, db, "cobra-b", models.RoleCollector)
	boss := seedUser(t, db, "boss", models.RoleAdmin)
	db.Create(&models.Client{FirstName: "Luis", CreatedByID: a.ID})
	db.Create(&models.Client{FirstName: "Carla", CreatedByID: b.ID})

	h := NewClientHandler(db, services.NewAuditService(db))
	wrapped := auth.Middleware(http.HandlerFunc(h.List))

	list := func(u models.User) int {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, jsonRequest(http.MethodGet, "/clients", nil, sessionCookie(t, u.ID)))
		if w.Code != http.StatusOK {
			t.Fatalf("list as %s: got %d", u.Username, w.Code)
		}
		var resp struct {
			Items []models.Client `json:"items"`
		}
		decodeBody(t, w, &resp)
		return len(resp.Items)
	}
	if n := list(a); n != 1 {
		t.Fatalf("collector a sees %d clients, want 1", n)
	}
	if n := list(boss); n != 2 {
		t.Fatalf("admin sees %d clients, want 2", n)
	}
}

func TestClientDetailForbiddenForOtherCollector(t *testing.T) {
	db := setupHandlersDB(t)
	a := seedUser(t, db, "cobra-a", models.RoleCollector)
	b := seedUser(t, db, "cobra-b", models.RoleCollector)
	client := models.Client{FirstName: "Luis", CreatedByID: a.ID}
	db.Create(&client)

	h := NewClientHandler(db, services.NewAuditService(db))
	wrapped := auth.Middleware(http.HandlerFunc(h.Detail))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodGet, fmt.Sprintf("/clients/detail?id=%d", client.ID), nil, sessionCookie(t, b.ID)))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Code)
	}
}

func TestLoanAndPaymentFlow(t *testing.T) {
	db := setupHandlersDB(t)
	user := seedUser(t, db, "pedro", models.RoleCollector)
	client := models.Client{FirstName: "Ana", Phone: "3128565688", CreatedByID: user.ID}
	db.Create(&client)

	audit := services.NewAuditService(db)
	svc := services.NewLoanService(db)
	lh := NewLoanHandler(db, svc, audit)
	ph := NewPaymentHandler(db, svc, audit)
	cookie := sessionCookie(t, user.ID)

	// Create the loan through the form endpoint.
	w := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(lh.New)).ServeHTTP(w, jsonRequest(http.MethodPost, "/loans/new", url.Values{
		"client_id":   {fmt.Sprint(client.ID)},
		"amount":      {"10000"},
		"rate":        {"10"},
		"frequency":   {"weekly"},
		"term_count":  {"10"},
		"term_kind":   {"weeks"},
		"fee_percent": {"10"},
		"start_date":  {"2024-03-01"},
	}, cookie))
	if w.Code != http.StatusCreated {
		t.Fatalf("loan create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var loan models.Loan
	decodeBody(t, w, &loan)
	if loan.Disbursement != 9000 {
		t.Fatalf("disbursement: got %v", loan.Disbursement)
	}

	// Record a payment.
	pw := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(ph.New)).ServeHTTP(pw, jsonRequest(http.MethodPost, "/payments/new", url.Values{
		"loan_id": {fmt.Sprint(loan.ID)},
		"amount":  {"2000"},
		"kind":    {"installment"},
	}, cookie))
	if pw.Code != http.StatusCreated {
		t.Fatalf("payment: expected 201 got %d body=%s", pw.Code, pw.Body.String())
	}
	var payment models.Payment
	decodeBody(t, pw, &payment)
	if payment.Receipt == "" {
		t.Fatal("payment missing receipt reference")
	}

	// Detail reflects the ledger.
	dw := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(lh.Detail)).ServeHTTP(dw, jsonRequest(http.MethodGet, fmt.Sprintf("/loans/detail?id=%d", loan.ID), nil, cookie))
	if dw.Code != http.StatusOK {
		t.Fatalf("detail: expected 200 got %d", dw.Code)
	}
	var detail struct {
		Totals struct {
			TotalPaid float64 `json:"TotalPaid"`
		} `json:"totals"`
		RemainingTotal float64 `json:"remaining_total"`
	}
	decodeBody(t, dw, &detail)
	if detail.Totals.TotalPaid != 2000 {
		t.Fatalf("total paid: got %v", detail.Totals.TotalPaid)
	}
	if detail.RemainingTotal != 18000 {
		t.Fatalf("remaining total: got %v", detail.RemainingTotal)
	}
}

func TestLoanCreateRejectsBadPayload(t *testing.T) {
	db := setupHandlersDB(t)
	user := seedUser(t, db, "pedro", models.RoleCollector)
	client := models.Client{FirstName: "Ana", CreatedByID: user.ID}
	db.Create(&client)

	svc := services.NewLoanService(db)
	lh := NewLoanHandler(db, svc, services.NewAuditService(db))
	cookie := sessionCookie(t, user.ID)

	w := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(lh.New)).ServeHTTP(w, jsonRequest(http.MethodPost, "/loans/new", url.Values{
		"client_id":   {fmt.Sprint(client.ID)},
		"amount":      {"0"},
		"rate":        {"10"},
		"frequency":   {"weekly"},
		"term_count":  {"10"},
		"fee_percent": {"10"},
	}, cookie))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}

	// Collectors cannot waive the fee.
	fw := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(lh.New)).ServeHTTP(fw, jsonRequest(http.MethodPost, "/loans/new", url.Values{
		"client_id":   {fmt.Sprint(client.ID)},
		"amount":      {"5000"},
		"rate":        {"5"},
		"frequency":   {"weekly"},
		"term_count":  {"4"},
		"fee_percent": {"0"},
	}, cookie))
	if fw.Code != http.StatusForbidden {
		t.Fatalf("fee waiver as collector: expected 403 got %d", fw.Code)
	}
}

func TestBulkReassign(t *testing.T) {
	db := setupHandlersDB(t)
	boss := seedUser(t, db, "boss", models.RoleSupervisor)
	from := seedUser(t, db, "cobra-a", models.RoleCollector)
	to := seedUser(t, db, "cobra-b", models.RoleCollector)
	db.Create(&models.Client{FirstName: "Luis", CreatedByID: from.ID})
	db.Create(&models.Client{FirstName: "Carla", CreatedByID: from.ID})
	db.Create(&models.Loan{ClientID: 1, Amount: 1000, Rate: 5, Frequency: "weekly", TermCount: 4, Status: "active", CreatedByID: from.ID})

	h := NewReassignHandler(db, services.NewAuditService(db))
	wrapped := auth.Middleware(http.HandlerFunc(h.Bulk))

	// Same source and target is rejected.
	same := httptest.NewRecorder()
	wrapped.ServeHTTP(same, jsonRequest(http.MethodPost, "/reassign", url.Values{
		"from_id": {fmt.Sprint(from.ID)}, "to_id": {fmt.Sprint(from.ID)},
	}, sessionCookie(t, boss.ID)))
	if same.Code != http.StatusBadRequest {
		t.Fatalf("same collector: expected 400 got %d", same.Code)
	}

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodPost, "/reassign", url.Values{
		"from_id": {fmt.Sprint(from.ID)}, "to_id": {fmt.Sprint(to.ID)},
	}, sessionCookie(t, boss.ID)))
	if w.Code != http.StatusOK {
		t.Fatalf("reassign: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var left, moved int64
	db.Model(&models.Client{}).Where("created_by_id = ?", from.ID).Count(&left)
	db.Model(&models.Client{}).Where("created_by_id = ?", to.ID).Count(&moved)
	if left != 0 || moved != 2 {
		t.Fatalf("clients after reassign: left=%d moved=%d", left, moved)
	}
	var loansMoved int64
	db.Model(&models.Loan{}).Where("created_by_id = ?", to.ID).Count(&loansMoved)
	if loansMoved != 1 {
		t.Fatalf("loans after reassign: %d", loansMoved)
	}

	// Collectors cannot reassign at all.
	denied := httptest.NewRecorder()
	wrapped.ServeHTTP(denied, jsonRequest(http.MethodPost, "/reassign", url.Values{
		"from_id": {fmt.Sprint(to.ID)}, "to_id": {fmt.Sprint(from.ID)},
	}, sessionCookie(t, from.ID)))
	if denied.Code != http.StatusForbidden {
		t.Fatalf("collector reassign: expected 403 got %d", denied.Code)
	}
}

func TestExpenseScope(t *testing.T) {
	db := setupHandlersDB(t)
	a := seedUser(t, db, "cobra-a", models.RoleCollector)
	b := seedUser(t, db, "cobra-b", models.RoleCollector)
	boss := seedUser(t, db, "boss", models.RoleAdmin)

	h := NewExpenseHandler(db, services.NewAuditService(db))
	wrapped := auth.Middleware(http.HandlerFunc(h.List))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodPost, "/expenses", url.Values{
		"amount": {"350.5"}, "note": {"gasolina"},
	}, sessionCookie(t, a.ID)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expense create: expected 201 got %d", w.Code)
	}

	list := func(u models.User) int {
		lw := httptest.NewRecorder()
		wrapped.ServeHTTP(lw, jsonRequest(http.MethodGet, "/expenses", nil, sessionCookie(t, u.ID)))
		if lw.Code != http.StatusOK {
			t.Fatalf("list as %s: got %d", u.Username, lw.Code)
		}
		var resp struct {
			Items []models.CashReport `json:"items"`
		}
		decodeBody(t, lw, &resp)
		return len(resp.Items)
	}
	if n := list(b); n != 0 {
		t.Fatalf("collector b sees %d reports, want 0", n)
	}
	if n := list(boss); n != 1 {
		t.Fatalf("admin sees %d reports, want 1", n)
	}

	neg := httptest.NewRecorder()
	wrapped.ServeHTTP(neg, jsonRequest(http.MethodPost, "/expenses", url.Values{"amount": {"-3"}}, sessionCookie(t, a.ID)))
	if neg.Code != http.StatusBadRequest {
		t.Fatalf("negative amount: expected 400 got %d", neg.Code)
	}
}

func TestAuditListAdminOnly(t *testing.T) {
	db := setupHandlersDB(t)
	boss := seedUser(t, db, "boss", models.RoleAdmin)
	collector := seedUser(t, db, "cobra", models.RoleCollector)
	db.Create(&models.AuditLog{UserID: boss.ID, Action: "login"})

	h := NewAuditLogHandler(db)
	wrapped := auth.Middleware(http.HandlerFunc(h.List))

	denied := httptest.NewRecorder()
	wrapped.ServeHTTP(denied, jsonRequest(http.MethodGet, "/audit", nil, sessionCookie(t, collector.ID)))
	if denied.Code != http.StatusForbidden {
		t.Fatalf("collector: expected 403 got %d", denied.Code)
	}

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodGet, "/audit", nil, sessionCookie(t, boss.ID)))
	if w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d", w.Code)
	}
	var resp struct {
		Items []models.AuditLog `json:"items"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Items))
	}
}

func TestDashboardCounters(t *testing.T) {
	db := setupHandlersDB(t)
	user := seedUser(t, db, "pedro", models.RoleCollector)
	other := seedUser(t, db, "otro", models.RoleCollector)
	db.Create(&models.Client{FirstName: "Ana", CreatedByID: user.ID})
	db.Create(&models.Loan{ClientID: 1, Amount: 10000, Rate: 10, Frequency: "weekly", TermCount: 10, Remaining: 10000, Status: "active", CreatedByID: user.ID})
	db.Create(&models.Loan{ClientID: 1, Amount: 4000, Rate: 5, Frequency: "daily", TermCount: 20, Remaining: 4000, Status: "active", CreatedByID: other.ID})

	h := NewDashboardHandler(db)
	wrapped := auth.Middleware(http.HandlerFunc(h.Show))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, jsonRequest(http.MethodGet, "/dashboard", nil, sessionCookie(t, user.ID)))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200 got %d", w.Code)
	}
	var resp map[string]float64
	decodeBody(t, w, &resp)
	if resp["clients"] != 1 || resp["loans"] != 1 || resp["active_loans"] != 1 {
		t.Fatalf("counters: %v", resp)
	}
	if resp["capital"] != 10000 {
		t.Fatalf("capital should only count own active loans: %v", resp["capital"])
	}
}
