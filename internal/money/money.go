package money

import "fmt"

// Amount is a monetary value in minor units (kopecks, cents)
type Amount int64

// FromMajor converts a whole-currency value to minor units
func FromMajor(v int64) Amount {
	return Amount(v * 100)
}

// Major returns the whole-currency part
func (a Amount) Major() int64 {
	return int64(a) / 100
}

// Minor returns the sub-unit remainder
func (a Amount) Minor() int64 {
	m := int64(a) % 100
	if m < 0 {
		m = -m
	}
	return m
}

// IsPositive reports whether the amount is strictly greater than zero
func (a Amount) IsPositive() bool {
	return a > 0
}

// Format renders the amount as "123.45 RUB"
func (a Amount) Format(currency string) string {
	sign := ""
	if a < 0 {
		sign = "-"
	}
	major := a.Major()
	if major < 0 {
		major = -major
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, major, a.Minor(), currency)
}

// GatewayValue renders the amount the way payment gateways expect it,
// as a decimal string without a currency suffix
func (a Amount) GatewayValue() string {
	sign := ""
	if a < 0 {
		sign = "-"
	}
	major := a.Major()
	if major < 0 {
		major = -major
	}
	return fmt.Sprintf("%s%d.%02d", sign, major, a.Minor())
}
