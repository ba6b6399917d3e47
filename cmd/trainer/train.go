package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/services"
)

func printEvaluations(out io.Writer, trained []*forecast.Params) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tMAE\tMSE\tTRAIN\tTEST\tVERSION")
	for _, p := range trained {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%d\t%d\t%s\n",
			p.Target, p.Evaluation.MAE, p.Evaluation.MSE, p.Evaluation.TrainRows, p.Evaluation.TestRows, p.Version)
	}
	w.Flush()
}

// printForecast writes one line per year with the prediction followed by the
// feature values in name order.
func printForecast(out io.Writer, column string, rows []forecast.TrendRow) error {
	var names []string
	if len(rows) > 0 {
		for name := range rows[0].Features {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Year\t%s\tActual", column)
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%.2f\t%t", r.Year, r.Predicted, r.IsActual)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.2f", r.Features[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func mintToken(cfg config.JWTConfig, subject string) (string, error) {
	auth := services.NewAuthService(cfg)
	if auth == nil {
		return "", errors.New("JWT_SECRET is not set")
	}
	return auth.GenerateToken(subject, "", services.RoleAdmin)
}
