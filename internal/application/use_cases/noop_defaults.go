package use_cases

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type noopSweepMetrics struct{}

func (noopSweepMetrics) ObserveWithdraw(string, string, time.Duration) {}

func (noopSweepMetrics) AddSweepTransfers(string, int) {}

func (noopSweepMetrics) IncDeposits(string) {}

func (noopSweepMetrics) IncAutoSweepCycle(string) {}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
