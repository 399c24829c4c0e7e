// Package featurekit gives training and scoring code in-process access to the
// feature schema: canonical feature order, normalization with defaults,
// validation and importance aggregation.
//
// # Loading
//
//	fk, err := featurekit.Load("config/feature_schema.json",
//	    featurekit.WithLogger(slog.Default()),
//	    featurekit.WithPrometheus(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, featurekit.ErrSchema)
//	}
//
// # Normalizing a payload
//
//	row := fk.EnsureOrder(map[string]any{"gender": "MALE ", "age": "19"})
//	for i := 0; i < row.Len(); i++ {
//	    name, value := row.At(i)
//	    fmt.Println(name, value)
//	}
//
// # Ranking importances
//
//	ranked := fk.AggregateImportances(
//	    []string{"age__num", "age__sq", "gender__male"},
//	    []float64{0.3, 0.1, 0.2},
//	) // [{age 0.4} {gender 0.2}]
package featurekit
