package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
	"github.com/josh-kwaku/finance-ledger/internal/service/loan"
)

type mockLoans struct {
	createReq *loan.CreateLoanRequest
	payReq    *loan.PayInstallmentRequest
	prepayReq *loan.PrepayRequest
	details   *loan.LoanDetails
	err       error
}

func (m *mockLoans) CreateLoan(_ context.Context, req loan.CreateLoanRequest) (*loan.LoanDetails, error) {
	m.createReq = &req
	return m.details, m.err
}

func (m *mockLoans) GetLoan(_ context.Context, _, _ uuid.UUID) (*loan.LoanDetails, error) {
	return m.details, m.err
}

func (m *mockLoans) ListLoans(_ context.Context, _ uuid.UUID) ([]domain.Loan, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Loan{m.details.Loan}, nil
}

func (m *mockLoans) PayInstallment(_ context.Context, req loan.PayInstallmentRequest) (*loan.InstallmentResult, error) {
	m.payReq = &req
	if m.err != nil {
		return nil, m.err
	}
	row := m.details.Schedule[0]
	row.Status = domain.ScheduleStatusPaid
	return &loan.InstallmentResult{
		Loan:        m.details.Loan,
		Row:         row,
		Transaction: domain.Transaction{ID: uuid.New()},
	}, nil
}

func (m *mockLoans) Prepay(_ context.Context, req loan.PrepayRequest) (*loan.PrepaymentResult, error) {
	m.prepayReq = &req
	if m.err != nil {
		return nil, m.err
	}
	return &loan.PrepaymentResult{
		Loan:        m.details.Loan,
		Prepayment:  domain.Prepayment{ID: uuid.New()},
		Transaction: domain.Transaction{ID: uuid.New()},
		Schedule:    m.details.Schedule,
	}, nil
}

func sampleLoanDetails() *loan.LoanDetails {
	id := uuid.New()
	return &loan.LoanDetails{
		Loan: domain.Loan{
			ID:                 id,
			Name:               "Car",
			Principal:          decimal.RequireFromString("1200"),
			InterestRate:       decimal.Zero,
			TenureMonths:       1,
			EMIAmount:          decimal.RequireFromString("1200"),
			RemainingPrincipal: decimal.RequireFromString("1200"),
			Status:             domain.LoanStatusActive,
		},
		Schedule: []domain.ScheduleRow{{
			ID:                 uuid.New(),
			LoanID:             id,
			DueDate:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Amount:             decimal.RequireFromString("1200"),
			PrincipalComponent: decimal.RequireFromString("1200"),
			InterestComponent:  decimal.Zero,
			Status:             domain.ScheduleStatusPending,
		}},
	}
}

func TestLoanHandler_Create(t *testing.T) {
	details := sampleLoanDetails()
	m := &mockLoans{details: details}
	h := NewLoanHandler(m)
	owner := uuid.New()
	acct := uuid.New()

	body := `{"name":"Car","principal":"1200","interest_rate":"0","tenure_months":1,"start_date":"2025-01-01T00:00:00Z","account_id":"` + acct.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	rec := serve(t, "POST /api/v1/loans", h.Create, req, owner)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/loans/"+details.Loan.ID.String(), rec.Header().Get("Location"))
	require.NotNil(t, m.createReq)
	assert.Equal(t, owner, m.createReq.OwnerID)
	assert.Equal(t, acct, m.createReq.AccountID)
	assert.Equal(t, 1, m.createReq.TenureMonths)

	_, data := decodeEnvelope(t, rec)
	var dto loanDetailsDTO
	require.NoError(t, json.Unmarshal(data, &dto))
	assert.Equal(t, details.Loan.ID, dto.ID)
	assert.Len(t, dto.Schedule, 1)
	assert.NotNil(t, dto.Prepayments)
}

func TestCreateLoanRequest_Validate(t *testing.T) {
	valid := createLoanRequest{
		Name:         "Mortgage",
		Principal:    decimal.RequireFromString("1000"),
		InterestRate: decimal.RequireFromString("8.5"),
		TenureMonths: 240,
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AccountID:    uuid.New(),
	}
	assert.Empty(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *createLoanRequest)
		field  string
	}{
		{"short name", func(r *createLoanRequest) { r.Name = " a " }, "name"},
		{"zero principal", func(r *createLoanRequest) { r.Principal = decimal.Zero }, "principal"},
		{"negative rate", func(r *createLoanRequest) { r.InterestRate = decimal.RequireFromString("-1") }, "interest_rate"},
		{"rate above 100", func(r *createLoanRequest) { r.InterestRate = decimal.RequireFromString("100.5") }, "interest_rate"},
		{"zero tenure", func(r *createLoanRequest) { r.TenureMonths = 0 }, "tenure_months"},
		{"tenure too long", func(r *createLoanRequest) { r.TenureMonths = 601 }, "tenure_months"},
		{"missing start", func(r *createLoanRequest) { r.StartDate = time.Time{} }, "start_date"},
		{"missing account", func(r *createLoanRequest) { r.AccountID = uuid.Nil }, "account_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			errs := r.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestLoanHandler_PayInstallment(t *testing.T) {
	details := sampleLoanDetails()
	row := details.Schedule[0]

	t.Run("empty body pays with defaults", func(t *testing.T) {
		m := &mockLoans{details: details}
		h := NewLoanHandler(m)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+details.Loan.ID.String()+"/installments/"+row.ID.String()+"/pay", nil)
		rec := serve(t, "POST /api/v1/loans/{id}/installments/{rowId}/pay", h.PayInstallment, req, uuid.New())

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, m.payReq)
		assert.Equal(t, details.Loan.ID, m.payReq.LoanID)
		assert.Equal(t, row.ID, m.payReq.RowID)
		assert.Nil(t, m.payReq.Date)

		_, data := decodeEnvelope(t, rec)
		var out struct {
			Installment   scheduleRowDTO `json:"installment"`
			TransactionID uuid.UUID      `json:"transaction_id"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "PAID", out.Installment.Status)
		assert.NotEqual(t, uuid.Nil, out.TransactionID)
	})

	t.Run("already paid", func(t *testing.T) {
		h := NewLoanHandler(&mockLoans{details: details, err: domain.ErrInstallmentPaid})
		body := `{"date":"2025-01-02T00:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+details.Loan.ID.String()+"/installments/"+row.ID.String()+"/pay", strings.NewReader(body))
		rec := serve(t, "POST /api/v1/loans/{id}/installments/{rowId}/pay", h.PayInstallment, req, uuid.New())

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp, _ := decodeEnvelope(t, rec)
		assert.Equal(t, "INSTALLMENT_ALREADY_PAID", resp.Error.Code)
	})
}

func TestLoanHandler_Prepay(t *testing.T) {
	details := sampleLoanDetails()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		m := &mockLoans{details: details}
		h := NewLoanHandler(m)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+details.Loan.ID.String()+"/prepay", strings.NewReader(`{"amount":"0"}`))
		rec := serve(t, "POST /api/v1/loans/{id}/prepay", h.Prepay, req, uuid.New())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, m.prepayReq)
	})

	t.Run("exceeds principal", func(t *testing.T) {
		h := NewLoanHandler(&mockLoans{details: details, err: domain.ErrPrepaymentExceedsPrincipal})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+details.Loan.ID.String()+"/prepay", strings.NewReader(`{"amount":"5000"}`))
		rec := serve(t, "POST /api/v1/loans/{id}/prepay", h.Prepay, req, uuid.New())

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		m := &mockLoans{details: details}
		h := NewLoanHandler(m)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+details.Loan.ID.String()+"/prepay", strings.NewReader(`{"amount":"200.00","description":"bonus"}`))
		rec := serve(t, "POST /api/v1/loans/{id}/prepay", h.Prepay, req, uuid.New())

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, m.prepayReq)
		assert.True(t, m.prepayReq.Amount.Equal(decimal.RequireFromString("200")))
		assert.Equal(t, "bonus", m.prepayReq.Description)
	})
}
