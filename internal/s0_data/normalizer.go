package s0_data

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/multibagger/internal/contracts"
)

// NormalizerConfig holds normalization settings
type NormalizerConfig struct {
	// DefaultCadence applies when a payload carries no cadence tag.
	// Empty means the payload must carry one.
	DefaultCadence contracts.Cadence
}

// Normalizer maps provider-specific raw statements into PeriodRecords
// ⭐ SSOT: provider 필드명 → canonical 필드 매핑은 여기서만
type Normalizer struct {
	config NormalizerConfig
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(config NormalizerConfig) *Normalizer {
	return &Normalizer{config: config}
}

// numericField is one canonical numeric column and its provider aliases in priority order.
// Aliases are compared after canonKey folding.
type numericField struct {
	name    string
	aliases []string
	set     func(r *contracts.PeriodRecord, m contracts.Metric)
	get     func(r *contracts.PeriodRecord) contracts.Metric
}

var numericFields = []numericField{
	{
		name:    "market_cap",
		aliases: []string{"marketcap", "marketcapitalization", "mktcap"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.MarketCap = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.MarketCap },
	},
	{
		name:    "enterprise_value",
		aliases: []string{"enterprisevalue", "ev", "tev"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.EnterpriseValue = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.EnterpriseValue },
	},
	{
		name:    "total_assets",
		aliases: []string{"totalassets"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.TotalAssets = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.TotalAssets },
	},
	{
		name:    "total_equity",
		aliases: []string{"totalequity", "totalshareholderequity", "totalstockholdersequity", "stockholdersequity", "bookvalue"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.TotalEquity = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.TotalEquity },
	},
	{
		name:    "total_debt",
		aliases: []string{"totaldebt", "shortlongtermdebttotal"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.TotalDebt = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.TotalDebt },
	},
	{
		name:    "cash",
		aliases: []string{"cash", "cashandequivalents", "cashandcashequivalents", "cashandcashequivalentsatcarryingvalue"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.Cash = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.Cash },
	},
	{
		name:    "revenue",
		aliases: []string{"revenue", "totalrevenue", "sales"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.Revenue = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.Revenue },
	},
	{
		name:    "operating_income",
		aliases: []string{"operatingincome", "ebit"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.OperatingIncome = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.OperatingIncome },
	},
	{
		name:    "ebitda",
		aliases: []string{"ebitda"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.EBITDA = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.EBITDA },
	},
	{
		name:    "net_income",
		aliases: []string{"netincome", "netearnings"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.NetIncome = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.NetIncome },
	},
	{
		name:    "operating_cash_flow",
		aliases: []string{"operatingcashflow", "cashflowfromoperations", "operatingcashflows"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.OperatingCashFlow = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.OperatingCashFlow },
	},
	{
		name:    "free_cash_flow",
		aliases: []string{"freecashflow", "fcf"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.FreeCashFlow = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.FreeCashFlow },
	},
	{
		name:    "capital_expenditure",
		aliases: []string{"capitalexpenditure", "capitalexpenditures", "capex"},
		set:     func(r *contracts.PeriodRecord, m contracts.Metric) { r.CapitalExpenditure = m },
		get:     func(r *contracts.PeriodRecord) contracts.Metric { return r.CapitalExpenditure },
	},
}

// Identity aliases, in priority order
var (
	entityIDAliases   = []string{"entityid", "symbol", "ticker", "code", "id"}
	cadenceAliases    = []string{"cadence", "periodtype", "reporttype", "frequency"}
	fiscalDateAliases = []string{"fiscaldate", "fiscaldateending", "periodend", "periodending", "date"}
	fiscalYearAliases = []string{"fiscalyear", "calendaryear", "year"}
	reportDateAliases = []string{"reportdate", "reporteddate", "filingdate"}
)

// FieldNames returns the canonical numeric field names in table order
func FieldNames() []string {
	names := make([]string, len(numericFields))
	for i, f := range numericFields {
		names[i] = f.name
	}
	return names
}

// Normalize converts one raw payload into a PeriodRecord.
// Missing entity or period identity fails with ErrDataIncomplete; any other
// missing or unparsable field becomes undefined.
func (n *Normalizer) Normalize(raw contracts.RawStatement) (contracts.PeriodRecord, error) {
	fields := foldKeys(raw)

	entityID := strings.TrimSpace(lookupString(fields, entityIDAliases))
	if entityID == "" {
		return contracts.PeriodRecord{}, fmt.Errorf("%w: missing entity id", contracts.ErrDataIncomplete)
	}

	period, err := n.resolvePeriod(fields)
	if err != nil {
		return contracts.PeriodRecord{}, fmt.Errorf("%s: %w", entityID, err)
	}

	record := contracts.PeriodRecord{
		EntityID: entityID,
		Period:   period,
	}
	if d, ok := lookupDate(fields, reportDateAliases); ok {
		record.ReportDate = d
	}

	for _, f := range numericFields {
		f.set(&record, lookupMetric(fields, f.aliases))
	}

	return record, nil
}

// NormalizeBatch normalizes every payload. Rejected payloads are reported by
// index in the snapshot and do not stop the batch.
func (n *Normalizer) NormalizeBatch(raws []contracts.RawStatement) ([]contracts.PeriodRecord, *contracts.NormalizationSnapshot) {
	snapshot := &contracts.NormalizationSnapshot{
		TotalRaw: len(raws),
		Rejected: make(map[int]string),
		Coverage: make(map[string]float64, len(numericFields)),
	}

	records := make([]contracts.PeriodRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := n.Normalize(raw)
		if err != nil {
			snapshot.Rejected[i] = err.Error()
			continue
		}
		records = append(records, record)
	}
	snapshot.Accepted = len(records)

	for _, f := range numericFields {
		if len(records) == 0 {
			snapshot.Coverage[f.name] = 0
			continue
		}
		defined := 0
		for i := range records {
			if f.get(&records[i]).IsDefined() {
				defined++
			}
		}
		snapshot.Coverage[f.name] = float64(defined) / float64(len(records))
	}

	return records, snapshot
}

// resolvePeriod builds the period identity: cadence + fiscal date (quarterly)
// or cadence + fiscal year (annual)
func (n *Normalizer) resolvePeriod(fields map[string]any) (contracts.Period, error) {
	cadence := n.config.DefaultCadence
	if tag := strings.TrimSpace(lookupString(fields, cadenceAliases)); tag != "" {
		parsed, ok := contracts.ParseCadence(tag)
		if !ok {
			return contracts.Period{}, fmt.Errorf("%w: unrecognized cadence %q", contracts.ErrDataIncomplete, tag)
		}
		cadence = parsed
	}
	if cadence == "" {
		return contracts.Period{}, fmt.Errorf("%w: missing cadence", contracts.ErrDataIncomplete)
	}

	period := contracts.Period{Cadence: cadence}
	if d, ok := lookupDate(fields, fiscalDateAliases); ok {
		period.FiscalDate = d
		period.FiscalYear = d.Year()
	}
	if y, ok := lookupYear(fields, fiscalYearAliases); ok {
		period.FiscalYear = y
	}

	switch cadence {
	case contracts.CadenceQuarterly:
		if period.FiscalDate.IsZero() {
			return contracts.Period{}, fmt.Errorf("%w: missing fiscal date for quarterly period", contracts.ErrDataIncomplete)
		}
	case contracts.CadenceAnnual:
		if period.FiscalYear == 0 {
			return contracts.Period{}, fmt.Errorf("%w: missing fiscal year for annual period", contracts.ErrDataIncomplete)
		}
	}

	return period, nil
}

// canonKey folds provider spellings: "fiscalDateEnding", "fiscal_date_ending"
// and "Fiscal Date Ending" all become "fiscaldateending"
func canonKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// foldKeys indexes raw by canonKey. When two raw keys fold together the
// lexically smallest original key wins, so results never depend on map order.
func foldKeys(raw contracts.RawStatement) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(map[string]any, len(raw))
	for _, k := range keys {
		ck := canonKey(k)
		if _, taken := folded[ck]; !taken {
			folded[ck] = raw[k]
		}
	}
	return folded
}

// lookupMetric returns the first alias that parses to a defined number
func lookupMetric(fields map[string]any, aliases []string) contracts.Metric {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok {
			if m := parseMetric(v); m.IsDefined() {
				return m
			}
		}
	}
	return contracts.Undefined()
}

func lookupString(fields map[string]any, aliases []string) string {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case fmt.Stringer:
			s = t.String()
		case float64, int, int64:
			s = fmt.Sprint(t)
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"20060102",
}

func lookupDate(fields map[string]any, aliases []string) (time.Time, bool) {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			if !t.IsZero() {
				return t.UTC().Truncate(24 * time.Hour), true
			}
		case string:
			s := strings.TrimSpace(t)
			for _, layout := range dateLayouts {
				if d, err := time.Parse(layout, s); err == nil {
					return d.UTC().Truncate(24 * time.Hour), true
				}
			}
		}
	}
	return time.Time{}, false
}

func lookupYear(fields map[string]any, aliases []string) (int, bool) {
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok {
			continue
		}
		f, defined := parseMetric(v).Get()
		if !defined || f != math.Trunc(f) || f < 1000 || f > 9999 {
			continue
		}
		return int(f), true
	}
	return 0, false
}

// parseMetric accepts numbers and numeric strings. Placeholders such as
// "None", "-", "N/A" and "" become undefined.
func parseMetric(v any) contracts.Metric {
	switch t := v.(type) {
	case nil:
		return contracts.Undefined()
	case float64:
		return contracts.Defined(t)
	case float32:
		return contracts.Defined(float64(t))
	case int:
		return contracts.Defined(float64(t))
	case int32:
		return contracts.Defined(float64(t))
	case int64:
		return contracts.Defined(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return contracts.Undefined()
		}
		return contracts.Defined(f)
	case contracts.Metric:
		return t
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToLower(s) {
		case "", "none", "null", "nan", "-", "--", "n/a", "na":
			return contracts.Undefined()
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return contracts.Undefined()
		}
		return contracts.Defined(f)
	default:
		return contracts.Undefined()
	}
}
