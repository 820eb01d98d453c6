package constants

// DocumentStatus is the terminal outcome recorded for one document of a batch.
type DocumentStatus string

// Stable values (these exact strings end up in batch_report.json).
const (
	DocumentStatusSucceeded DocumentStatus = "SUCCEEDED" // every stage completed
	DocumentStatusPartial   DocumentStatus = "PARTIAL"   // completed with recovered stage diagnostics
	DocumentStatusFailed    DocumentStatus = "FAILED"    // a stage raised; siblings still ran
	DocumentStatusSkipped   DocumentStatus = "SKIPPED"   // not scheduled (batch cancelled), or no stage handles its kind
)
