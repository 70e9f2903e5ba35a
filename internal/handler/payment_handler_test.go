package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedesk-api/internal/assistant"
	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/handler"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/service"
)

type mockPaymentService struct {
	markErr   error
	marked    dto.MarkPaidRequest
	myStudent uint
}

func (m *mockPaymentService) MarkPaid(_ context.Context, req dto.MarkPaidRequest) (dto.PaymentResponse, error) {
	m.marked = req
	if m.markErr != nil {
		return dto.PaymentResponse{}, m.markErr
	}
	return dto.PaymentResponse{ID: 1, StudentID: req.StudentID, Month: req.Month, Amount: 600, Status: models.PaymentStatusPaid}, nil
}

func (m *mockPaymentService) MyPayments(_ context.Context, studentID uint) ([]dto.PaymentResponse, error) {
	m.myStudent = studentID
	return []dto.PaymentResponse{{ID: 1, StudentID: studentID, Month: "March"}}, nil
}

func (m *mockPaymentService) ListAll(context.Context) ([]dto.PaymentResponse, error) {
	return []dto.PaymentResponse{{ID: 1}, {ID: 2}}, nil
}

func (m *mockPaymentService) Revenue(context.Context) (dto.RevenueResponse, error) {
	return dto.RevenueResponse{TotalRevenue: 1800}, nil
}

func (m *mockPaymentService) Wait() {}

func (m *mockPaymentService) Ledger() assistant.PaymentLedger {
	return nil
}

func newPaymentApp(svc service.PaymentService, userID uint, role string) *fiber.App {
	app := fiber.New()
	handler.NewPaymentHandler(svc, zerolog.Nop()).Register(app.Group("/api/payments", withCaller(userID, role)))
	return app
}

func TestPaymentHandlerMarkPaid(t *testing.T) {
	svc := &mockPaymentService{}
	app := newPaymentApp(svc, 1, models.RoleAdmin)

	resp := doJSON(t, app, http.MethodPost, "/api/payments/mark-paid", dto.MarkPaidRequest{StudentID: 3, Month: "March"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.marked.StudentID)

	var body envelope
	decodeBody(t, resp, &body)
	require.Equal(t, "Payment marked successfully", body.Message)
}

func TestPaymentHandlerMarkPaidErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: validator.New().Struct(dto.MarkPaidRequest{}), status: fiber.StatusBadRequest},
		{err: service.ErrInvalidMonth, status: fiber.StatusBadRequest},
		{err: service.ErrStudentNotFound, status: fiber.StatusNotFound},
		{err: service.ErrMonthAlreadyPaid, status: fiber.StatusConflict},
		{err: service.ErrFeeNotConfigured, status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := newPaymentApp(&mockPaymentService{markErr: tc.err}, 1, models.RoleAdmin)
		resp := doJSON(t, app, http.MethodPost, "/api/payments/mark-paid", dto.MarkPaidRequest{StudentID: 3, Month: "March"})
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestPaymentHandlerRoleGuards(t *testing.T) {
	svc := &mockPaymentService{}
	student := newPaymentApp(svc, 7, models.RoleStudent)

	resp := doJSON(t, student, http.MethodGet, "/api/payments/my", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), svc.myStudent)

	require.Equal(t, fiber.StatusForbidden, doJSON(t, student, http.MethodGet, "/api/payments/all", nil).StatusCode)
	require.Equal(t, fiber.StatusForbidden, doJSON(t, student, http.MethodGet, "/api/payments/revenue", nil).StatusCode)
	require.Equal(t, fiber.StatusForbidden, doJSON(t, student, http.MethodPost, "/api/payments/mark-paid", dto.MarkPaidRequest{StudentID: 7, Month: "March"}).StatusCode)

	admin := newPaymentApp(svc, 1, models.RoleAdmin)
	resp = doJSON(t, admin, http.MethodGet, "/api/payments/revenue", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data dto.RevenueResponse `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, int64(1800), body.Data.TotalRevenue)
}
