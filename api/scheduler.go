/*
scheduler.go - Automated month-end payroll scheduler

PURPOSE:
  Periodically checks for closed months that have employees without a
  persisted payslip and runs their payroll automatically. Manual runs via
  POST /api/payroll/run take precedence: an existing payslip for the
  period is never recomputed.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets the most recently closed month
  - Skips employees that already have a payslip for that month
  - Automatic runs use zero attendance facts (no overtime, lateness or
    absence). Months that need attendance data should be run manually.

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPayrollScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunPayroll endpoint (manual runs)
  - engine/calculator.go: the calculation itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/store/sqlite"
)

// PayrollScheduler handles automated month-end payroll runs.
type PayrollScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPayrollScheduler creates a new scheduler.
func NewPayrollScheduler(store *sqlite.Store, handler *Handler) *PayrollScheduler {
	return &PayrollScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ps *PayrollScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.Handler.Log.Info().Msg("scheduler disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	ps.Handler.Log.Info().Dur("interval", ps.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.Handler.Log.Info().Msg("scheduler stopped")
	}
}

func (ps *PayrollScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.checkAndProcess()

	for {
		select {
		case <-ps.ticker.C:
			ps.checkAndProcess()
		case <-ps.stop:
			return
		}
	}
}

// checkAndProcess runs payroll for every employee missing a payslip for
// the most recently closed month.
func (ps *PayrollScheduler) checkAndProcess() {
	ctx := context.Background()
	period := lastClosedMonth(time.Now())

	log := ps.Handler.Log.With().Str("period", period.String()).Logger()

	companies, err := ps.Store.ListCompanyIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: listing companies failed")
		return
	}

	processed, skipped := 0, 0
	for _, companyID := range companies {
		employees, err := ps.Store.ListEmployees(ctx, companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("scheduler: listing employees failed")
			continue
		}
		for _, emp := range employees {
			// Not yet employed in this period; their first manual run
			// handles the partial month.
			if calendar.FromTime(emp.HireDate).After(period.Start) {
				continue
			}
			done, err := ps.Store.HasPayslip(ctx, emp.ID, period)
			if err != nil {
				log.Error().Err(err).Str("employee_id", emp.ID).Msg("scheduler: payslip check failed")
				continue
			}
			if done {
				skipped++
				continue
			}
			if err := ps.processEmployee(ctx, emp.ID, period); err != nil {
				log.Error().Err(err).Str("employee_id", emp.ID).Msg("scheduler: payroll run failed")
				continue
			}
			processed++
		}
	}

	if processed > 0 || skipped > 0 {
		log.Info().Int("processed", processed).Int("skipped", skipped).Msg("scheduler run complete")
	}
}

// processEmployee computes and persists one automatic payslip.
func (ps *PayrollScheduler) processEmployee(ctx context.Context, employeeID string, period calendar.Period) error {
	req := &PayrollRequest{
		EmployeeID: employeeID,
		Year:       period.Start.Year(),
		Month:      int(period.Start.Month()),
	}
	input, err := ps.Handler.assembleInput(ctx, req)
	if err != nil {
		return err
	}
	result, err := engine.Calculate(input)
	if err != nil {
		return err
	}

	raw, err := marshalResult(result)
	if err != nil {
		return err
	}
	slip := sqlite.Payslip{
		ID:         uuid.NewString(),
		EmployeeID: result.EmployeeID,
		Period:     result.Period,
		Gross:      result.Gross,
		Deductions: result.TotalDeductions,
		Net:        result.Net,
		ResultJSON: raw,
	}
	if err := ps.Store.SavePayslip(ctx, slip); err != nil {
		return err
	}
	if err := ps.Handler.applyInstallments(ctx, input); err != nil {
		return err
	}
	if len(result.SettledRetroIDs) > 0 {
		if err := ps.Store.MarkRetroSettled(ctx, result.SettledRetroIDs); err != nil {
			return err
		}
	}

	ps.Handler.Log.Info().
		Str("employee_id", employeeID).
		Str("period", period.String()).
		Str("net", result.Net.String()).
		Msg("automatic payroll run persisted")
	return nil
}

// RunNow triggers an immediate check (for testing/admin).
func (ps *PayrollScheduler) RunNow() {
	ps.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ps *PayrollScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ps.CheckInterval)
}

// lastClosedMonth returns the most recent fully elapsed calendar month.
// Month arithmetic only: AddDate day normalization would turn Mar 31 into
// "Feb 31" = Mar 3 and target the still-open month.
func lastClosedMonth(now time.Time) calendar.Period {
	return calendar.MonthPeriod(now.Year(), now.Month()-1)
}
