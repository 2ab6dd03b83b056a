package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// BusinessProfile is the merchant's own business details, one row per user.
// The completion percentages drive onboarding progress in the frontend; only
// profile_completion_pct is computed server-side today.
type BusinessProfile struct {
	UserID                    int64   `json:"-"`
	BusinessName              *string `json:"business_name"`
	GSTIN                     *string `json:"gstin"`
	BusinessType              *string `json:"business_type"`
	Address                   *string `json:"address"`
	Phone                     *string `json:"phone"`
	BankName                  *string `json:"bank_name"`
	BankAccountNumber         *string `json:"bank_account_number"`
	BankIFSC                  *string `json:"bank_ifsc"`
	ProfileCompletionPct      int     `json:"profile_completion_pct"`
	CatalogCompletionPct      int     `json:"catalog_completion_pct"`
	InventoryCompletionPct    int     `json:"inventory_completion_pct"`
	IntegrationsCompletionPct int     `json:"integrations_completion_pct"`
}

// GetProfile fetches the owner's business profile, or nil when none has been
// saved yet.
func GetProfile(ctx context.Context, userID int64) (*BusinessProfile, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	p := BusinessProfile{UserID: userID}
	err := Pool.QueryRow(ctx,
		`SELECT business_name, gstin, business_type, address, phone,
		        bank_name, bank_account_number, bank_ifsc,
		        profile_completion_pct, catalog_completion_pct,
		        inventory_completion_pct, integrations_completion_pct
		 FROM business_profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(
		&p.BusinessName, &p.GSTIN, &p.BusinessType, &p.Address, &p.Phone,
		&p.BankName, &p.BankAccountNumber, &p.BankIFSC,
		&p.ProfileCompletionPct, &p.CatalogCompletionPct,
		&p.InventoryCompletionPct, &p.IntegrationsCompletionPct,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile saves the owner's business profile, creating the row on
// first save. The derived completion percentages other than the profile's
// own are never written here.
func UpsertProfile(ctx context.Context, p *BusinessProfile) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	_, err := Pool.Exec(ctx,
		`INSERT INTO business_profiles
			(user_id, business_name, gstin, business_type, address, phone,
			 bank_name, bank_account_number, bank_ifsc, profile_completion_pct)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			gstin = EXCLUDED.gstin,
			business_type = EXCLUDED.business_type,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			bank_name = EXCLUDED.bank_name,
			bank_account_number = EXCLUDED.bank_account_number,
			bank_ifsc = EXCLUDED.bank_ifsc,
			profile_completion_pct = EXCLUDED.profile_completion_pct,
			updated_at = now()`,
		p.UserID, p.BusinessName, p.GSTIN, p.BusinessType, p.Address, p.Phone,
		p.BankName, p.BankAccountNumber, p.BankIFSC, p.ProfileCompletionPct,
	)
	return err
}
