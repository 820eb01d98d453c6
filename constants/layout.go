package constants

// Per-document output layout, relative to <output_root>/<document>/.
const (
	ParagraphsDir    = "paragraphs"
	ImagesDir        = "images"
	TablesDir        = "tables"
	TablesWorkbook   = "tables.xlsx"
	RelationshipsDir = "relationships"
	TextToImages     = "text_to_images"
	TextToTables     = "text_to_tables"
	FindingsDir      = "findings"
	FindingsXLSX     = "findings_report.xlsx"
	FindingsJSON     = "findings_report.json"
)

// BatchReport is written at the output root.
const BatchReport = "batch_report.json"
