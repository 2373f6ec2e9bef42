// Package core runs the estatekit analysis pipeline independent of any
// transport. The CLI and the HTTP server both go through [Service].
//
// # Pipeline
//
// A run loads a CSV file from the data directory (or an uploaded body),
// cleans it in place and summarizes the selected columns:
//
//	svc := core.NewService(cfg)
//	a, err := svc.Describe(ctx, "train.csv", dataset.AllColumns(), 90)
//
// Every run gets a UUID run ID. It is attached to the context, so loggers
// from [logging.FromContext] carry it, and it is returned in the result.
//
// # Concurrency
//
// Datasets are held fully in memory. [AnalysisLimiter] bounds how many
// clean and describe runs execute at once; header validation is not
// limited.
//
// # Error Handling
//
// Package errors are sentinels wrapped with context. [MapError] turns any
// of them into a [UserMessage] with a support code and an HTTP status.
package core
