package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Cadence is the reporting frequency of a statement
type Cadence string

const (
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
)

// ParseCadence accepts the canonical names plus common provider spellings
func ParseCadence(s string) (Cadence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quarterly", "quarter", "q", "qtr", "quarterlyreports":
		return CadenceQuarterly, true
	case "annual", "annually", "yearly", "year", "y", "fy", "annualreports":
		return CadenceAnnual, true
	default:
		return "", false
	}
}

// Period identifies one fiscal period.
// Quarterly periods always carry FiscalDate; annual periods always carry FiscalYear
// and may carry FiscalDate.
type Period struct {
	Cadence    Cadence   `json:"cadence"`
	FiscalDate time.Time `json:"fiscal_date,omitempty"`
	FiscalYear int       `json:"fiscal_year"`
}

// Key returns a stable identifier like "quarterly:2024-09-30" or "annual:2024"
func (p Period) Key() string {
	if p.Cadence == CadenceAnnual {
		return fmt.Sprintf("%s:%d", p.Cadence, p.FiscalYear)
	}
	return fmt.Sprintf("%s:%s", p.Cadence, p.FiscalDate.Format("2006-01-02"))
}

// End returns the period end date. Annual periods without a FiscalDate end on
// Dec 31 of FiscalYear.
func (p Period) End() time.Time {
	if p.FiscalDate.IsZero() && p.Cadence == CadenceAnnual {
		return time.Date(p.FiscalYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return p.FiscalDate
}

// Before orders periods of the same cadence chronologically
func (p Period) Before(o Period) bool {
	if p.Cadence == CadenceAnnual && p.FiscalYear != o.FiscalYear {
		return p.FiscalYear < o.FiscalYear
	}
	return p.FiscalDate.Before(o.FiscalDate)
}

// Follows reports whether p comes exactly one cadence step after prior
func (p Period) Follows(prior Period) bool {
	if p.Cadence != prior.Cadence {
		return false
	}
	switch p.Cadence {
	case CadenceQuarterly:
		if p.FiscalDate.IsZero() || prior.FiscalDate.IsZero() {
			return false
		}
		return monthIndex(p.FiscalDate)-monthIndex(prior.FiscalDate) == 3
	case CadenceAnnual:
		return p.FiscalYear-prior.FiscalYear == 1
	default:
		return false
	}
}

// monthIndex tolerates quarter-end dates that fall on different days of the month
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// PeriodRecord is the canonical statement snapshot for one entity at one fiscal period
// (CanonicalPeriodRecord). Every figure is independently nullable.
// Records are values: stages read them and never write back into them.
type PeriodRecord struct {
	EntityID   string    `json:"entity_id"`
	Period     Period    `json:"period"`
	ReportDate time.Time `json:"report_date,omitempty"`

	// Market data
	MarketCap       Metric `json:"market_cap"`
	EnterpriseValue Metric `json:"enterprise_value"`

	// Balance sheet
	TotalAssets Metric `json:"total_assets"`
	TotalEquity Metric `json:"total_equity"`
	TotalDebt   Metric `json:"total_debt"`
	Cash        Metric `json:"cash"`

	// Income statement
	Revenue         Metric `json:"revenue"`
	OperatingIncome Metric `json:"operating_income"` // EBIT
	EBITDA          Metric `json:"ebitda"`
	NetIncome       Metric `json:"net_income"`

	// Cash flow
	OperatingCashFlow  Metric `json:"operating_cash_flow"`
	FreeCashFlow       Metric `json:"free_cash_flow"`
	CapitalExpenditure Metric `json:"capital_expenditure"`
}

// MembershipStatus is the tracked-universe status of an entity
type MembershipStatus string

const (
	StatusTracked   MembershipStatus = "tracked"
	StatusUntracked MembershipStatus = "untracked"
)

// Entity is a tracked security
type Entity struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Sector string           `json:"sector"`
	Anchor bool             `json:"anchor"` // never removed by band enforcement
	Status MembershipStatus `json:"status"`
}

// IsTracked reports membership in the tracked universe
func (e Entity) IsTracked() bool {
	return e.Status == StatusTracked
}
