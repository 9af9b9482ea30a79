// Package inventory parses the weekly inventory workbook and carries the
// domain rules shared by the report generators: column standardization,
// grade derivation, OD/WT categorization and free-for-sale aggregation.
package inventory
