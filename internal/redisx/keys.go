package redisx

import "time"

const (
	// Cart badge: cart_summary:{customer_id} -> {"total_products": n, "final_price": "..."}
	KeyCartSummary = "cart_summary:%d"

	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%d"

	// One-shot messages per visitor: list flash:{sid}
	KeyFlash = "flash:%s"

	// Dedup event processing: dedup:{service}:{id} (id = event_id)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCartSummary = 10 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLFlash       = 10 * time.Minute
	TTLDedup       = 48 * time.Hour
)
