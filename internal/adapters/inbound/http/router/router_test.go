//go:build !integration

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invoicesweep/internal/adapters/inbound/http/auth"
	"invoicesweep/internal/adapters/inbound/http/controllers"
	"invoicesweep/internal/adapters/outbound/derivation/create2"
	"invoicesweep/internal/adapters/outbound/docs"
	"invoicesweep/internal/adapters/outbound/events/noop"
	ledgermemory "invoicesweep/internal/adapters/outbound/ledger/memory"
	"invoicesweep/internal/adapters/outbound/lock/local"
	persistencememory "invoicesweep/internal/adapters/outbound/persistence/memory"
	"invoicesweep/internal/application/dto"
	"invoicesweep/internal/application/use_cases"
	"invoicesweep/internal/domain/policies"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	testSecret        = "router-test-secret"
	testControllerHex = "0x00000000000000000000000000000000000000C0"
	testOwnerHex      = "0x00000000000000000000000000000000000000A1"
	testStrangerHex   = "0x00000000000000000000000000000000000000B2"
	testReceiverHex   = "0x1111111111111111111111111111111111111111"
	testFingerprint   = "0x00000000000000000000000000000000000000000000000000000000000000ff"
	testUserID        = "0x0000000000000000000000000000000000000000000000000000000000000001"
)

func TestRouterHealthAndSwaggerRoutes(t *testing.T) {
	mux := newTestRouter(t, true)

	t.Run("healthz returns 200", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/healthz", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Fatalf("expected body to contain status ok, got %s", rec.Body.String())
		}
	})

	t.Run("swagger root redirects to index", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/swagger", "", "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
		}
		if location := rec.Header().Get("Location"); location != "/swagger/index.html" {
			t.Fatalf("expected redirect location /swagger/index.html, got %q", location)
		}
	})

	t.Run("openapi spec is served", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/swagger/openapi.yaml", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "openapi: 3.0.3") {
			t.Fatalf("expected openapi version 3.0.3 in body, got %s", rec.Body.String())
		}
	})

	t.Run("metrics handler is mounted", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/metrics", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})
}

func TestRouterHealthzRejectsNonGET(t *testing.T) {
	mux := newTestRouter(t, true)

	rec := serve(mux, http.MethodPost, "/healthz", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestRouterDepositWithdrawFlow(t *testing.T) {
	mux := newTestRouter(t, true)
	ownerToken := issue(t, testOwnerHex)

	rec := serve(mux, http.MethodPost, "/v1/controller/initialize", ownerToken, `{"template_fingerprint":"`+testFingerprint+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize: expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodPost, "/v1/receivers", ownerToken, `{"address":"`+testReceiverHex+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add receiver: expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodGet, "/v1/sub-accounts/"+testUserID+"/address", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("compute address: expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	address := dto.ComputeAddressOutput{}
	decode(t, rec, &address)

	rec = serve(mux, http.MethodPost, "/v1/devtest/deposits", "", `{"asset_type":"native","address":"`+address.Address+`","amount":"1000"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit: expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodPost, "/v1/balances/query", "", `{"user_ids":["`+testUserID+`"],"asset_type":"native"}`)
	balance := dto.GetBalanceOutput{}
	decode(t, rec, &balance)
	if balance.Total != "1000" {
		t.Fatalf("expected balance 1000 before sweep, got %s", balance.Total)
	}

	rec = serve(mux, http.MethodPost, "/v1/withdrawals/in-one", issue(t, testStrangerHex), `{"user_ids":["`+testUserID+`"],"asset_types":[],"receiver":"`+testReceiverHex+`"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger withdraw: expected status 403, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodPost, "/v1/withdrawals/in-one", ownerToken, `{"user_ids":["`+testUserID+`"],"asset_types":[],"receiver":"`+testReceiverHex+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("withdraw: expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	batch := dto.SweepBatchResource{}
	decode(t, rec, &batch)
	if len(batch.Transfers) != 1 || batch.Transfers[0].Amount != "1000" {
		t.Fatalf("expected one transfer of 1000, got %+v", batch.Transfers)
	}

	rec = serve(mux, http.MethodGet, "/v1/withdrawals/"+batch.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get withdrawal: expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, http.MethodPost, "/v1/balances/query", "", `{"user_ids":["`+testUserID+`"],"asset_type":"native"}`)
	decode(t, rec, &balance)
	if balance.Total != "0" {
		t.Fatalf("expected balance 0 after sweep, got %s", balance.Total)
	}
}

func TestRouterSweepEntryPointIsNeverReachable(t *testing.T) {
	mux := newTestRouter(t, true)
	body := `{"asset_types":[],"receiver":"` + testReceiverHex + `"}`
	path := "/v1/sub-accounts/" + testUserID + "/sweep"

	rec := serve(mux, http.MethodPost, path, "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous sweep: expected status 401, got %d", rec.Code)
	}

	rec = serve(mux, http.MethodPost, path, issue(t, testControllerHex), body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("controller-subject sweep: expected status 401, got %d", rec.Code)
	}

	rec = serve(mux, http.MethodPost, path, issue(t, testOwnerHex), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("owner sweep: expected status 403, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "sender_not_controller") {
		t.Fatalf("expected sender_not_controller, got %s", rec.Body.String())
	}
}

func TestRouterDevtestDepositsDisabled(t *testing.T) {
	mux := newTestRouter(t, false)

	rec := serve(mux, http.MethodPost, "/v1/devtest/deposits", "", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func newTestRouter(t *testing.T, devtest bool) *http.ServeMux {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repository := persistencememory.NewControllerStateRepository()
	registry := persistencememory.NewSubAccountRegistry()
	ledger := ledgermemory.NewLedger()
	lock := local.NewBatchLock()
	deriver := create2.NewDeriver()
	clock := use_cases.NewSystemClock()

	bootstrap := use_cases.NewBootstrapControllerUseCase(repository, lock, clock)
	if _, appErr := bootstrap.Execute(context.Background(), dto.BootstrapControllerCommand{
		ControllerAddress: testControllerHex,
		OwnerAddress:      testOwnerHex,
	}); appErr != nil {
		t.Fatalf("bootstrap failed: %v", appErr)
	}

	withdraw := use_cases.NewWithdrawUseCase(use_cases.WithdrawDependencies{
		Repository: repository,
		Deriver:    deriver,
		Ledger:     ledger,
		Lock:       lock,
		Publisher:  noop.Publisher{},
		Budget:     policies.NewBatchBudget(0),
		Clock:      clock,
		Logger:     logger,
	})

	deps := Dependencies{
		HealthController: controllers.NewHealthController(use_cases.NewGetHealthUseCase(), logger),
		SwaggerController: controllers.NewSwaggerController(
			use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(writeTempOpenAPISpec(t))),
			logger,
		),
		ControllerStateController: controllers.NewControllerStateController(
			use_cases.NewGetControllerUseCase(repository),
			use_cases.NewInitializeControllerUseCase(repository, lock, clock),
			logger,
		),
		ReceiversController: controllers.NewReceiversController(
			use_cases.NewListReceiversUseCase(repository),
			use_cases.NewAddReceiverUseCase(repository, lock),
			use_cases.NewRemoveReceiverUseCase(repository, lock),
			logger,
		),
		SubAccountsController: controllers.NewSubAccountsController(
			use_cases.NewComputeAddressUseCase(repository, deriver),
			use_cases.NewRegisterSubAccountsUseCase(repository, deriver, registry, clock),
			use_cases.NewListSubAccountsUseCase(registry),
			use_cases.NewSweepSubAccountUseCase(repository, deriver, ledger, lock),
			logger,
		),
		BalancesController:    controllers.NewBalancesController(use_cases.NewGetBalanceUseCase(repository, deriver, ledger), logger),
		WithdrawalsController: controllers.NewWithdrawalsController(withdraw, use_cases.NewGetSweepBatchUseCase(ledger), logger),
		Authenticator:         auth.NewAuthenticator(testSecret, common.HexToAddress(testControllerHex), logger),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	}
	if devtest {
		deps.DevtestDepositsController = controllers.NewDevtestDepositsController(
			use_cases.NewRecordDepositUseCase(repository, deriver, ledger, nil),
			logger,
		)
	}

	return New(deps)
}

func serve(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func issue(t *testing.T, subject string) string {
	t.Helper()

	token, err := auth.IssueToken(testSecret, common.HexToAddress(subject), time.Minute, time.Now())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("expected valid json, got %v body=%s", err, rec.Body.String())
	}
}

func writeTempOpenAPISpec(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	content := []byte("openapi: 3.0.3\ninfo:\n  title: test\n  version: 1.0.0\npaths:\n  /healthz:\n    get:\n      responses:\n        '200':\n          description: ok\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp openapi file: %v", err)
	}
	return path
}
