package enums

// CouponStatus is derived at read time; it is never persisted.
type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "active"
	CouponStatusExpired   CouponStatus = "expired"
	CouponStatusExhausted CouponStatus = "exhausted"
)

func (c CouponStatus) String() string {
	return string(c)
}
