package router

import (
	"net/http"

	"invoicesweep/internal/adapters/inbound/http/auth"
	"invoicesweep/internal/adapters/inbound/http/controllers"
)

type Dependencies struct {
	HealthController          *controllers.HealthController
	SwaggerController         *controllers.SwaggerController
	ControllerStateController *controllers.ControllerStateController
	ReceiversController       *controllers.ReceiversController
	SubAccountsController     *controllers.SubAccountsController
	BalancesController        *controllers.BalancesController
	WithdrawalsController     *controllers.WithdrawalsController
	// Nil disables the devtest deposit route.
	DevtestDepositsController *controllers.DevtestDepositsController
	Authenticator             *auth.Authenticator
	MetricsHandler            http.Handler
}

func New(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	authed := deps.Authenticator.Require

	mux.HandleFunc("GET /healthz", deps.HealthController.GetHealth)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}
	mux.HandleFunc("GET /swagger", deps.SwaggerController.RedirectToIndex)
	mux.HandleFunc("GET /swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	mux.HandleFunc("GET /swagger/", deps.SwaggerController.ServeUI)

	mux.HandleFunc("GET /v1/controller", deps.ControllerStateController.GetController)
	mux.HandleFunc("POST /v1/controller/initialize", authed(deps.ControllerStateController.Initialize))

	mux.HandleFunc("GET /v1/receivers", deps.ReceiversController.ListReceivers)
	mux.HandleFunc("POST /v1/receivers", authed(deps.ReceiversController.AddReceiver))
	mux.HandleFunc("DELETE /v1/receivers/{address}", authed(deps.ReceiversController.RemoveReceiver))

	mux.HandleFunc("GET /v1/sub-accounts", deps.SubAccountsController.ListSubAccounts)
	mux.HandleFunc("POST /v1/sub-accounts", authed(deps.SubAccountsController.RegisterSubAccounts))
	mux.HandleFunc("GET /v1/sub-accounts/{user_id}/address", deps.SubAccountsController.ComputeAddress)
	mux.HandleFunc("POST /v1/sub-accounts/{user_id}/sweep", authed(deps.SubAccountsController.SweepSubAccount))

	mux.HandleFunc("POST /v1/balances/query", deps.BalancesController.QueryBalance)

	mux.HandleFunc("POST /v1/withdrawals", authed(deps.WithdrawalsController.Withdraw))
	mux.HandleFunc("POST /v1/withdrawals/in-one", authed(deps.WithdrawalsController.WithdrawInOne))
	mux.HandleFunc("POST /v1/withdrawals/in-two", authed(deps.WithdrawalsController.WithdrawInTwo))
	mux.HandleFunc("GET /v1/withdrawals/{id}", deps.WithdrawalsController.GetWithdrawal)

	if deps.DevtestDepositsController != nil {
		mux.HandleFunc("POST /v1/devtest/deposits", deps.DevtestDepositsController.RecordDeposit)
	}

	return mux
}
