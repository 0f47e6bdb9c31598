package out

import "time"

type SweepMetrics interface {
	ObserveWithdraw(mode string, result string, duration time.Duration)
	AddSweepTransfers(assetKind string, count int)
	IncDeposits(source string)
	IncAutoSweepCycle(result string)
}
