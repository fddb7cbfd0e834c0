package pipeline

import (
	"fmt"
	"strings"
)

// ClassMetrics holds precision, recall and F1 for one category.
type ClassMetrics struct {
	Category  string  `json:"category"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the evaluation of a classifier on the test split.
type Report struct {
	Accuracy    float64        `json:"accuracy"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
}

// Evaluate compares predictions with the true class indices. Undefined
// ratios (no predictions or no samples for a class) are reported as 0.
func Evaluate(truth, pred []int, categories []string) *Report {
	k := len(categories)
	tp := make([]int, k)
	predicted := make([]int, k)
	support := make([]int, k)
	correct := 0
	for i := range truth {
		support[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			tp[truth[i]]++
			correct++
		}
	}

	r := &Report{Classes: make([]ClassMetrics, k)}
	if len(truth) > 0 {
		r.Accuracy = float64(correct) / float64(len(truth))
	}
	r.MacroAvg.Category = "macro avg"
	r.WeightedAvg.Category = "weighted avg"
	for c := 0; c < k; c++ {
		m := ClassMetrics{
			Category:  categories[c],
			Precision: ratio(tp[c], predicted[c]),
			Recall:    ratio(tp[c], support[c]),
			Support:   support[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[c] = m

		r.MacroAvg.Precision += m.Precision / float64(k)
		r.MacroAvg.Recall += m.Recall / float64(k)
		r.MacroAvg.F1 += m.F1 / float64(k)
		if n := len(truth); n > 0 {
			w := float64(m.Support) / float64(n)
			r.WeightedAvg.Precision += m.Precision * w
			r.WeightedAvg.Recall += m.Recall * w
			r.WeightedAvg.F1 += m.F1 * w
		}
	}
	r.MacroAvg.Support = len(truth)
	r.WeightedAvg.Support = len(truth)
	return r
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// String renders the report as a plain-text table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		writeRow(&b, m)
	}
	fmt.Fprintf(&b, "\n%-24s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	writeRow(&b, r.MacroAvg)
	writeRow(&b, r.WeightedAvg)
	return b.String()
}

func writeRow(b *strings.Builder, m ClassMetrics) {
	fmt.Fprintf(b, "%-24s %9.2f %9.2f %9.2f %9d\n", m.Category, m.Precision, m.Recall, m.F1, m.Support)
}
