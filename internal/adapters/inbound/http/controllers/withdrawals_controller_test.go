//go:build !integration

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"invoicesweep/internal/adapters/inbound/http/principal"
	"invoicesweep/internal/application/dto"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type stubWithdrawUseCase struct {
	seen   *dto.WithdrawCommand
	appErr *apperrors.AppError
}

func (s stubWithdrawUseCase) Execute(_ context.Context, command dto.WithdrawCommand) (dto.WithdrawOutput, *apperrors.AppError) {
	*s.seen = command
	if s.appErr != nil {
		return dto.WithdrawOutput{}, s.appErr
	}
	return dto.WithdrawOutput{Batch: dto.SweepBatchResource{ID: "batch-1", Mode: command.Mode.String()}}, nil
}

type stubGetSweepBatchUseCase struct{}

func (stubGetSweepBatchUseCase) Execute(_ context.Context, query dto.GetSweepBatchQuery) (dto.SweepBatchResource, *apperrors.AppError) {
	if query.ID != "batch-1" {
		return dto.SweepBatchResource{}, apperrors.NewNotFound("sweep_batch_not_found", "sweep batch not found", nil)
	}
	return dto.SweepBatchResource{ID: query.ID}, nil
}

func newWithdrawRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	return req.WithContext(principal.With(req.Context(), "0x00000000000000000000000000000000000000A1"))
}

func TestWithdrawalsControllerRoutesModes(t *testing.T) {
	seen := dto.WithdrawCommand{}
	controller := NewWithdrawalsController(stubWithdrawUseCase{seen: &seen}, stubGetSweepBatchUseCase{}, discardLogger())

	cases := []struct {
		handler func(http.ResponseWriter, *http.Request)
		mode    valueobjects.WithdrawMode
	}{
		{handler: controller.Withdraw, mode: valueobjects.WithdrawModeStandard},
		{handler: controller.WithdrawInOne, mode: valueobjects.WithdrawModeInOne},
		{handler: controller.WithdrawInTwo, mode: valueobjects.WithdrawModeInTwo},
	}
	for _, testCase := range cases {
		rec := httptest.NewRecorder()
		testCase.handler(rec, newWithdrawRequest("/v1/withdrawals", `{"user_ids":["0x01"],"asset_types":[],"receiver":"0x11"}`))

		if rec.Code != http.StatusCreated {
			t.Fatalf("mode %s: expected status 201, got %d body=%s", testCase.mode, rec.Code, rec.Body.String())
		}
		if seen.Mode != testCase.mode {
			t.Fatalf("expected mode %s, got %s", testCase.mode, seen.Mode)
		}
		if seen.PrincipalAddress != "0x00000000000000000000000000000000000000A1" {
			t.Fatalf("expected principal from context, got %q", seen.PrincipalAddress)
		}
		if rec.Header().Get("Location") != "/v1/withdrawals/batch-1" {
			t.Fatalf("expected Location header, got %q", rec.Header().Get("Location"))
		}
	}
}

func TestWithdrawalsControllerMapsAppErrors(t *testing.T) {
	cases := []struct {
		appErr *apperrors.AppError
		status int
	}{
		{appErr: apperrors.NewValidation("invalid_request", "bad", nil), status: http.StatusBadRequest},
		{appErr: apperrors.NewUnauthorized("principal_missing", "missing", nil), status: http.StatusUnauthorized},
		{appErr: apperrors.NewForbidden("receiver_not_whitelisted", "Receiver is not whitelisted", nil), status: http.StatusForbidden},
		{appErr: apperrors.NewConflict("sweep_batch_in_progress", "busy", nil), status: http.StatusConflict},
		{appErr: apperrors.NewPrecondition("controller_not_initialized", "not initialized", nil), status: http.StatusPreconditionFailed},
		{appErr: apperrors.NewResourceExhausted("batch_budget_exceeded", "too big", nil), status: http.StatusRequestEntityTooLarge},
		{appErr: apperrors.NewInternal("ledger_query_failed", "boom", nil), status: http.StatusInternalServerError},
	}

	for _, testCase := range cases {
		seen := dto.WithdrawCommand{}
		controller := NewWithdrawalsController(stubWithdrawUseCase{seen: &seen, appErr: testCase.appErr}, stubGetSweepBatchUseCase{}, discardLogger())
		rec := httptest.NewRecorder()
		controller.WithdrawInOne(rec, newWithdrawRequest("/v1/withdrawals/in-one", `{}`))

		if rec.Code != testCase.status {
			t.Fatalf("%s: expected status %d, got %d", testCase.appErr.Code, testCase.status, rec.Code)
		}
		var payload errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("expected valid json: %v", err)
		}
		if payload.Error.Code != testCase.appErr.Code {
			t.Fatalf("expected code %s, got %s", testCase.appErr.Code, payload.Error.Code)
		}
	}
}

func TestWithdrawalsControllerRejectsUnknownFields(t *testing.T) {
	seen := dto.WithdrawCommand{}
	controller := NewWithdrawalsController(stubWithdrawUseCase{seen: &seen}, stubGetSweepBatchUseCase{}, discardLogger())

	rec := httptest.NewRecorder()
	controller.Withdraw(rec, newWithdrawRequest("/v1/withdrawals", `{"amount":"1"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if seen.Mode != "" {
		t.Fatalf("expected use case not to run")
	}
}

func TestWithdrawalsControllerGetWithdrawal(t *testing.T) {
	controller := NewWithdrawalsController(stubWithdrawUseCase{seen: &dto.WithdrawCommand{}}, stubGetSweepBatchUseCase{}, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/withdrawals/{id}", controller.GetWithdrawal)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/withdrawals/batch-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/withdrawals/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
