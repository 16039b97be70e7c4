package parsers

import "errors"

var (
	// ErrSchemaFileMissing signals that the rule workbook does not exist at
	// the expected path.
	ErrSchemaFileMissing = errors.New("schema workbook not found")

	// ErrSchemaLayout signals a required sheet or header row that could not
	// be located in the rule workbook.
	ErrSchemaLayout = errors.New("schema layout not recognized")

	// ErrSheetNotFound signals a missing named sheet in the transactions
	// workbook.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrHeaderNotFound signals that a locatable header row was not found
	// within the scan window.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrEmptyAfterFiltering signals that no transaction row survived the
	// filter pipeline.
	ErrEmptyAfterFiltering = errors.New("no rows left after filtering")
)
