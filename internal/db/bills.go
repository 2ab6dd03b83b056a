package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Bill is one uploaded bill image and the extraction result attached to it.
// A row is created with status 'processing' before OCR starts and moved to
// 'done' once the pipeline finishes.
type Bill struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	Filename       string    `json:"filename"`
	StorageKey     *string   `json:"storage_key,omitempty"`
	StorageURL     *string   `json:"storage_url,omitempty"`
	OCRText        *string   `json:"ocr_text,omitempty"`
	DetectedAmount *float64  `json:"detected_amount"`
	VendorName     *string   `json:"vendor_name"`
	BillDate       *string   `json:"bill_date"`
	TotalAmount    *float64  `json:"total_amount"`
	GSTAmount      *float64  `json:"gst_amount"`
	ItemsJSON      *string   `json:"items_json,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateBill inserts a processing-state bill row and fills in its id.
func CreateBill(ctx context.Context, b *Bill) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	if b.Status == "" {
		b.Status = "processing"
	}

	return Pool.QueryRow(ctx,
		`INSERT INTO bills (user_id, filename, storage_key, storage_url, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		b.UserID, b.Filename, b.StorageKey, b.StorageURL, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
}

// FinishBill stores the extraction result on the bill row and marks it done.
// The user_id guard keeps one owner from finishing another owner's bill.
func FinishBill(ctx context.Context, b *Bill) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	b.Status = "done"
	_, err := Pool.Exec(ctx,
		`UPDATE bills SET
			ocr_text = $1, detected_amount = $2, vendor_name = $3,
			bill_date = $4, total_amount = $5, gst_amount = $6,
			items_json = $7, status = $8
		 WHERE id = $9 AND user_id = $10`,
		b.OCRText, b.DetectedAmount, b.VendorName,
		b.BillDate, b.TotalAmount, b.GSTAmount,
		b.ItemsJSON, b.Status,
		b.ID, b.UserID,
	)
	return err
}

// ListBills returns the owner's bills, newest first. OCR text and raw items
// JSON are left out of list rows.
func ListBills(ctx context.Context, userID int64, limit int) ([]Bill, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	rows, err := Pool.Query(ctx,
		`SELECT id, filename, storage_url, detected_amount, vendor_name,
		        bill_date, total_amount, gst_amount, status, created_at
		 FROM bills
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		b := Bill{UserID: userID}
		if err := rows.Scan(
			&b.ID, &b.Filename, &b.StorageURL, &b.DetectedAmount, &b.VendorName,
			&b.BillDate, &b.TotalAmount, &b.GSTAmount, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// GetBillByID fetches one of the owner's bills in full, or nil when absent.
func GetBillByID(ctx context.Context, userID, id int64) (*Bill, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	b := Bill{UserID: userID}
	err := Pool.QueryRow(ctx,
		`SELECT id, filename, storage_key, storage_url, ocr_text,
		        detected_amount, vendor_name, bill_date, total_amount,
		        gst_amount, items_json, status, created_at
		 FROM bills
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(
		&b.ID, &b.Filename, &b.StorageKey, &b.StorageURL, &b.OCRText,
		&b.DetectedAmount, &b.VendorName, &b.BillDate, &b.TotalAmount,
		&b.GSTAmount, &b.ItemsJSON, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
