package model

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// OverfitGap is the train/test R² difference above which the report warns.
const OverfitGap = 0.1

// WriteReport prints the evaluation table and the feature importances of a.
func WriteReport(w io.Writer, a *Artifact) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Model %s (%d trees, seed %d)\n", a.ID, a.Params.NEstimators, a.Params.Seed)
	fmt.Fprintf(&b, "Train rows: %d  Test rows: %d\n\n", a.Evaluation.Train.Rows, a.Evaluation.Test.Rows)

	fmt.Fprintf(&b, "%-8s %10s %10s %10s\n", "split", "RMSE", "MAE", "R²")
	for _, r := range []struct {
		name string
		m    Metrics
	}{
		{"train", a.Evaluation.Train},
		{"test", a.Evaluation.Test},
	} {
		fmt.Fprintf(&b, "%-8s %10.3f %10.3f %10.3f\n", r.name, r.m.RMSE, r.m.MAE, r.m.R2)
	}

	gap := a.Evaluation.Train.R2 - a.Evaluation.Test.R2
	if gap > OverfitGap {
		fmt.Fprintf(&b, "\nWARNING: possible overfitting (R² gap: %.3f)\n", gap)
	} else {
		fmt.Fprintf(&b, "\nTrain/test R² gap: %.3f, model generalizes well\n", gap)
	}

	imp := a.Importances()
	names := make([]string, 0, len(imp))
	for name := range imp {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if imp[names[i]] != imp[names[j]] {
			return imp[names[i]] > imp[names[j]]
		}
		return names[i] < names[j]
	})

	b.WriteString("\nFeature importances:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-16s %6.3f %s\n", name, imp[name], strings.Repeat("#", int(imp[name]*40+0.5)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
