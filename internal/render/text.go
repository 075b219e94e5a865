package render

import (
	"fmt"
	"io"

	"mcsim/internal/gbm"
	"mcsim/internal/stats"
)

// WriteSummary prints the run parameters and the four summary statistics
// with two decimals.
func WriteSummary(w io.Writer, p gbm.Parameters, s stats.Summary) error {
	_, err := fmt.Fprintf(w,
		"Simulation: %d paths over %d trading days (S0=%.2f, mu=%.3f, sigma=%.3f)\n"+
			"Expected final price: %.2f\n"+
			"Value at Risk (VaR 95%%): %.2f\n"+
			"Minimum final price: %.2f\n"+
			"Maximum final price: %.2f\n",
		p.Paths, p.Days, p.S0, p.Mu, p.Sigma,
		s.ExpectedPrice, s.VaR95, s.MinPrice, s.MaxPrice,
	)
	return err
}
