package db

import (
	"context"
	"time"
)

// Entry is one ledger row. Every query in this file carries a mandatory
// user_id filter; entries are never read or written across owners.
type Entry struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"-"`
	EntryType string  `json:"entry_type"`
	Amount    float64 `json:"amount"`
	Note      *string `json:"note"`
	Source    string  `json:"source"`

	VendorName  *string `json:"vendor_name,omitempty"`
	VendorGSTIN *string `json:"vendor_gstin,omitempty"`
	BillNumber  *string `json:"bill_number,omitempty"`
	BillDate    *string `json:"bill_date,omitempty"`

	TaxableAmount *float64 `json:"taxable_amount,omitempty"`
	CGSTAmount    *float64 `json:"cgst_amount,omitempty"`
	SGSTAmount    *float64 `json:"sgst_amount,omitempty"`
	IGSTAmount    *float64 `json:"igst_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateEntry inserts a ledger entry and fills in its id and created_at.
func CreateEntry(ctx context.Context, e *Entry) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	if e.Source == "" {
		e.Source = "manual"
	}

	return Pool.QueryRow(ctx,
		`INSERT INTO entries (
			user_id, entry_type, amount, note, source,
			vendor_name, vendor_gstin, bill_number, bill_date,
			taxable_amount, cgst_amount, sgst_amount, igst_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`,
		e.UserID, e.EntryType, e.Amount, e.Note, e.Source,
		e.VendorName, e.VendorGSTIN, e.BillNumber, e.BillDate,
		e.TaxableAmount, e.CGSTAmount, e.SGSTAmount, e.IGSTAmount,
	).Scan(&e.ID, &e.CreatedAt)
}

// ListEntries returns the owner's entries, newest first.
func ListEntries(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	rows, err := Pool.Query(ctx,
		`SELECT id, entry_type, amount, note, source,
		        vendor_name, vendor_gstin, bill_number, bill_date,
		        taxable_amount, cgst_amount, sgst_amount, igst_amount, created_at
		 FROM entries
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e := Entry{UserID: userID}
		if err := rows.Scan(
			&e.ID, &e.EntryType, &e.Amount, &e.Note, &e.Source,
			&e.VendorName, &e.VendorGSTIN, &e.BillNumber, &e.BillDate,
			&e.TaxableAmount, &e.CGSTAmount, &e.SGSTAmount, &e.IGSTAmount, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SourceCount is the number of entries per origin (manual, voice,
// bill_upload).
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// DailyTrend is one day of income vs expense totals.
type DailyTrend struct {
	Day     string  `json:"day"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Summary aggregates the owner's ledger for the insights dashboard.
type Summary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	NetCash       float64 `json:"net_cash"`
	WeekIncome    float64 `json:"week_income"`
	WeekExpenses  float64 `json:"week_expenses"`
	WeekNet       float64 `json:"week_net"`
	TodayIncome   float64 `json:"today_income"`
	TodayExpenses float64 `json:"today_expenses"`

	SourceBreakdown []SourceCount `json:"source_breakdown"`
	DailyTrend      []DailyTrend  `json:"daily_trend"`
}

// GetSummary computes fixed aggregations over the owner's entries: lifetime
// totals, this week, today, per-source counts, and a 7-day trend.
func GetSummary(ctx context.Context, userID int64) (*Summary, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	s := &Summary{}

	err := Pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'
				AND created_at::date >= CURRENT_DATE - 7), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'
				AND created_at::date >= CURRENT_DATE - 7), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'
				AND created_at::date = CURRENT_DATE), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'
				AND created_at::date = CURRENT_DATE), 0)
		 FROM entries WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalIncome, &s.TotalExpenses, &s.WeekIncome, &s.WeekExpenses,
		&s.TodayIncome, &s.TodayExpenses)
	if err != nil {
		return nil, err
	}
	s.NetCash = s.TotalIncome - s.TotalExpenses
	s.WeekNet = s.WeekIncome - s.WeekExpenses

	rows, err := Pool.Query(ctx,
		`SELECT COALESCE(source, 'manual'), COUNT(*)
		 FROM entries WHERE user_id = $1 GROUP BY 1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s.SourceBreakdown = []SourceCount{}
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		s.SourceBreakdown = append(s.SourceBreakdown, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trendRows, err := Pool.Query(ctx,
		`SELECT created_at::date::text AS day,
		        COALESCE(SUM(amount) FILTER (WHERE entry_type = 'income'), 0),
		        COALESCE(SUM(amount) FILTER (WHERE entry_type = 'expense'), 0)
		 FROM entries
		 WHERE user_id = $1 AND created_at::date >= CURRENT_DATE - 7
		 GROUP BY day ORDER BY day`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer trendRows.Close()
	s.DailyTrend = []DailyTrend{}
	for trendRows.Next() {
		var t DailyTrend
		if err := trendRows.Scan(&t.Day, &t.Income, &t.Expense); err != nil {
			return nil, err
		}
		s.DailyTrend = append(s.DailyTrend, t)
	}

	return s, trendRows.Err()
}
