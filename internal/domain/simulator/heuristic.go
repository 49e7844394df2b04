package simulator

import (
	"math"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
)

// Decide maps the declared budget to a placeholder status. It is not a credit
// model: a surplus above 10% of the amount approves, above 5% goes to analysis,
// anything else is denied. Non-finite inputs count as zero.
func Decide(income, expenses, amount float64) entity.LoanStatus {
	income, expenses, amount = finite(income), finite(expenses), finite(amount)
	surplus := income - expenses
	switch {
	case surplus > amount/10:
		return entity.StatusApproved
	case surplus > amount/20:
		return entity.StatusAnalyzing
	default:
		return entity.StatusDenied
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
