package workflow

import (
	"math"
	"strconv"
	"strings"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

// Form is the editable record between a capture and a commit
type Form struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

// DefaultForm is the form after a successful commit
func DefaultForm() Form {
	return Form{Quantity: domain.MinQuantity}
}

// ClampQuantity floors n at the minimum quantity
func ClampQuantity(n int) int {
	if n < domain.MinQuantity {
		return domain.MinQuantity
	}
	return n
}

// QuantityFromFloat yields max(1, floor(f)). NaN and infinities give 1,
// values beyond int32 are capped.
func QuantityFromFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.MinQuantity
	}
	f = math.Floor(f)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return ClampQuantity(int(math.Max(f, domain.MinQuantity)))
}

// ParseQuantity reads user input. Anything that is not a number gives 1.
func ParseQuantity(text string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return domain.MinQuantity
	}
	return QuantityFromFloat(f)
}
