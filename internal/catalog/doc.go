// Package catalog imports vocabulary catalogs from spreadsheets.
//
// A catalog is an xlsx workbook with one item per row. Columns are
// configurable; by default A holds the word, B the translation, C an example
// sentence, D the category and E a common-error note. Rows that cannot be
// turned into a valid vocabulary item are reported and skipped, never fatal.
package catalog
