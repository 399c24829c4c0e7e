package dataset

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// NumericProfile summarizes the normalized values of a numeric feature.
type NumericProfile struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Profile describes a preprocessed dataset.
type Profile struct {
	Numeric     map[string]NumericProfile `json:"numeric"`
	Categorical map[string]map[string]int `json:"categorical"`
	BinaryRatio map[string]float64        `json:"binary_true_ratio"`
	Target      map[string]int            `json:"target,omitempty"`
}

// profiler accumulates normalized values while rows stream through.
type profiler struct {
	numeric     map[string][]float64
	categorical map[string]map[string]int
	trues       map[string]int
	binaryNames []string
	target      map[string]int
	rows        int
}

func newProfiler(numeric, categorical, binary []string) *profiler {
	p := &profiler{
		numeric:     make(map[string][]float64, len(numeric)),
		categorical: make(map[string]map[string]int, len(categorical)),
		trues:       make(map[string]int, len(binary)),
		binaryNames: binary,
		target:      map[string]int{},
	}
	for _, n := range numeric {
		p.numeric[n] = nil
	}
	for _, n := range categorical {
		p.categorical[n] = map[string]int{}
	}
	return p
}

func (p *profiler) addNumber(name string, v float64) {
	p.numeric[name] = append(p.numeric[name], v)
}

func (p *profiler) addCategory(name, v string) {
	p.categorical[name][v]++
}

func (p *profiler) addBinary(name string, v bool) {
	if v {
		p.trues[name]++
	}
}

func (p *profiler) addTarget(v string) {
	if v != "" {
		p.target[v]++
	}
}

func (p *profiler) build() (Profile, error) {
	out := Profile{
		Numeric:     make(map[string]NumericProfile, len(p.numeric)),
		Categorical: p.categorical,
		BinaryRatio: make(map[string]float64, len(p.binaryNames)),
	}
	if len(p.target) > 0 {
		out.Target = p.target
	}

	for name, values := range p.numeric {
		if len(values) == 0 {
			continue
		}
		np, err := summarize(values)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %s: %w", name, err)
		}
		out.Numeric[name] = np
	}

	for _, name := range p.binaryNames {
		if p.rows == 0 {
			out.BinaryRatio[name] = 0
			continue
		}
		out.BinaryRatio[name] = float64(p.trues[name]) / float64(p.rows)
	}
	return out, nil
}

func summarize(data []float64) (NumericProfile, error) {
	np := NumericProfile{Count: len(data)}

	var err error
	if np.Mean, err = stats.Mean(data); err != nil {
		return np, err
	}
	if np.StdDev, err = stats.StandardDeviation(data); err != nil {
		return np, err
	}
	if np.Min, err = stats.Min(data); err != nil {
		return np, err
	}
	if np.Max, err = stats.Max(data); err != nil {
		return np, err
	}
	if np.Median, err = stats.Median(data); err != nil {
		return np, err
	}
	if np.Q25, err = stats.Percentile(data, 25); err != nil {
		return np, err
	}
	if np.Q75, err = stats.Percentile(data, 75); err != nil {
		return np, err
	}
	return np, nil
}
