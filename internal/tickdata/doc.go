// Package tickdata parses daily tick-level transaction exports into typed
// records.
//
// Day files are semicolon-delimited with an explicit header row; columns
// are resolved by name once per file, not by position. Parsing never fails:
// a file missing required columns yields an empty record set, numeric
// fields fall back to 0, and rows whose stock code is not exactly four
// characters are dropped.
package tickdata
