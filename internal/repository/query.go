package repository

const (
	selectOrder = `SELECT
		id,
		user_id,
		total_price,
		currency,
		payment_method,
		is_paid,
		paid_at,
		payment_result,
		items,
		customer,
		aba_merchant_ref_no,
		aba_transaction_id,
		aba_status,
		aba_status_code,
		aba_last_checked_at,
		aba_callback_received,
		created_at,
		updated_at
	FROM orders`

	selectHistory = `SELECT
		status,
		status_code,
		created_at,
		source,
		details
	FROM order_status_history
	WHERE order_id = $1
	ORDER BY id`
)

var orderColumns = []string{
	"id",
	"user_id",
	"total_price",
	"currency",
	"payment_method",
	"is_paid",
	"paid_at",
	"payment_result",
	"items",
	"customer",
	"aba_merchant_ref_no",
	"aba_transaction_id",
	"aba_status",
	"aba_status_code",
	"aba_last_checked_at",
	"aba_callback_received",
	"created_at",
	"updated_at",
}
