package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/tabular"

	"github.com/shopspring/decimal"
)

// Row error codes
const (
	RowErrorRequired         = "REQUIRED"
	RowErrorInvalid          = "INVALID"
	RowErrorCategoryNotFound = "CATEGORY_NOT_FOUND"
	RowErrorDuplicateSKU     = "DUPLICATE_SKU"
	RowErrorApplyFailed      = "APPLY_FAILED"
)

var maxStock = decimal.NewFromInt(math.MaxInt32)

// numericColumn mirrors a decimal(precision, scale) storage column
type numericColumn struct {
	precision int32
	scale     int32
}

var (
	priceColumn     = numericColumn{precision: 12, scale: 2}
	weightColumn    = numericColumn{precision: 10, scale: 3}
	dimensionColumn = numericColumn{precision: 10, scale: 2}
)

// fits reports whether value is stored without rounding or overflow
func (n numericColumn) fits(value decimal.Decimal) bool {
	if !value.Equal(value.Truncate(n.scale)) {
		return false
	}
	return value.Abs().LessThan(decimal.New(1, n.precision-n.scale))
}

func (n numericColumn) describe() string {
	return fmt.Sprintf("at most %d digits before and %d after the decimal point", n.precision-n.scale, n.scale)
}

// CategoryPathResolver resolves import category text to categories
type CategoryPathResolver interface {
	ActivePathIndex(ctx context.Context, tenantID string) (map[string]models.Category, error)
}

// ImportValidator parses an import file and classifies its rows against the
// seller's current catalog. It never writes.
type ImportValidator struct {
	categories CategoryPathResolver
	products   repository.ProductRepositoryInterface
}

// NewImportValidator creates a new ImportValidator
func NewImportValidator(categories CategoryPathResolver, products repository.ProductRepositoryInterface) *ImportValidator {
	return &ImportValidator{
		categories: categories,
		products:   products,
	}
}

// Preview validates the file. Problems with the file or its rows are
// reported in the preview; the error is reserved for storage failures.
func (v *ImportValidator) Preview(ctx context.Context, tenantID, sellerID, fileName string, data []byte) (*models.ImportPreview, error) {
	preview := &models.ImportPreview{
		JobErrors: []string{},
		RowErrors: []models.ImportRowError{},
		ValidRows: []models.ImportRow{},
	}

	table, err := tabular.Parse(fileName, data)
	if err != nil {
		preview.JobErrors = append(preview.JobErrors, fmt.Sprintf("Could not read file: %v", err))
		return preview, nil
	}

	for _, column := range models.RequiredImportColumns {
		if !table.HasHeader(column) {
			preview.JobErrors = append(preview.JobErrors, fmt.Sprintf("Missing required column: %s", column))
		}
	}
	if preview.HasJobErrors() {
		return preview, nil
	}

	paths, err := v.categories.ActivePathIndex(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	preview.TotalRows = len(table.Rows)
	failedRows := make(map[int]bool)
	firstRowBySKU := make(map[string]int)
	var candidates []models.ImportRow

	for _, row := range table.Rows {
		if row.IsBlank() {
			preview.BlankRows++
			continue
		}

		parsed, rowErrors := validateRow(row, paths)
		if len(rowErrors) > 0 {
			preview.RowErrors = append(preview.RowErrors, rowErrors...)
			failedRows[row.Number] = true
			continue
		}

		if first, ok := firstRowBySKU[parsed.SKU]; ok {
			preview.RowErrors = append(preview.RowErrors, models.ImportRowError{
				Row:     row.Number,
				Column:  models.ColumnSKU,
				Code:    RowErrorDuplicateSKU,
				Message: fmt.Sprintf("Duplicate SKU %q, already used on row %d", parsed.SKU, first),
			})
			failedRows[row.Number] = true
			continue
		}
		firstRowBySKU[parsed.SKU] = row.Number
		candidates = append(candidates, parsed)
	}

	if preview.TotalRows == preview.BlankRows {
		preview.JobErrors = append(preview.JobErrors, "The file contains no product rows")
		return preview, nil
	}

	skus := make([]string, 0, len(candidates))
	for _, c := range candidates {
		skus = append(skus, c.SKU)
	}
	existing, err := v.products.GetBySellerSKUs(ctx, tenantID, sellerID, skus)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing products: %w", err)
	}

	for _, c := range candidates {
		product, ok := existing[c.SKU]
		switch {
		case ok && product.WorkflowState == models.WorkflowArchived:
			preview.JobErrors = append(preview.JobErrors, fmt.Sprintf(
				"Row %d: SKU %q belongs to an archived product. Restore or rename it before importing.", c.Row, c.SKU))
			failedRows[c.Row] = true
		case ok:
			c.IsUpdate = true
			preview.UpdateCount++
			preview.ValidRows = append(preview.ValidRows, c)
		default:
			preview.CreateCount++
			preview.ValidRows = append(preview.ValidRows, c)
		}
	}

	preview.FailedRows = len(failedRows)
	sortRowErrors(preview.RowErrors)
	return preview, nil
}

func validateRow(row tabular.Row, paths map[string]models.Category) (models.ImportRow, []models.ImportRowError) {
	var errs []models.ImportRowError
	fail := func(column, code, format string, args ...interface{}) {
		errs = append(errs, models.ImportRowError{
			Row:     row.Number,
			Column:  column,
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		})
	}

	parsed := models.ImportRow{
		Row:              row.Number,
		SKU:              row.Get(models.ColumnSKU),
		Title:            row.Get(models.ColumnTitle),
		Description:      optionalString(row.Get(models.ColumnDescription)),
		ShippingMethods:  optionalString(row.Get(models.ColumnShippingMethods)),
		MainImageURL:     optionalString(row.Get(models.ColumnMainImageURL)),
		GalleryImageURLs: optionalString(row.Get(models.ColumnGalleryImageURLs)),
	}

	if parsed.SKU == "" {
		fail(models.ColumnSKU, RowErrorRequired, "SKU is required")
	}
	if parsed.Title == "" {
		fail(models.ColumnTitle, RowErrorRequired, "Title is required")
	}

	if raw := row.Get(models.ColumnPrice); raw == "" {
		fail(models.ColumnPrice, RowErrorRequired, "Price is required")
	} else if price, err := decimal.NewFromString(raw); err != nil || !price.IsPositive() {
		fail(models.ColumnPrice, RowErrorInvalid, "Price %q must be a positive number", raw)
	} else if !priceColumn.fits(price) {
		fail(models.ColumnPrice, RowErrorInvalid, "Price %q must have %s", raw, priceColumn.describe())
	} else {
		parsed.Price = price
	}

	if raw := row.Get(models.ColumnStock); raw == "" {
		fail(models.ColumnStock, RowErrorRequired, "Stock is required")
	} else if stock, err := decimal.NewFromString(raw); err != nil || stock.IsNegative() || !stock.Equal(stock.Truncate(0)) || stock.GreaterThan(maxStock) {
		fail(models.ColumnStock, RowErrorInvalid, "Stock %q must be a whole number of zero or more", raw)
	} else {
		parsed.Stock = int(stock.IntPart())
	}

	if raw := row.Get(models.ColumnCategory); raw == "" {
		fail(models.ColumnCategory, RowErrorRequired, "Category is required")
	} else if category, ok := paths[strings.ToLower(raw)]; !ok {
		fail(models.ColumnCategory, RowErrorCategoryNotFound, "Category %q not found", raw)
	} else {
		parsed.CategoryID = category.ID
		parsed.CategoryPath = category.FullPath
	}

	dimensions := []struct {
		column  string
		storage numericColumn
		target  *decimal.NullDecimal
	}{
		{models.ColumnWeightKg, weightColumn, &parsed.WeightKg},
		{models.ColumnLengthCm, dimensionColumn, &parsed.LengthCm},
		{models.ColumnWidthCm, dimensionColumn, &parsed.WidthCm},
		{models.ColumnHeightCm, dimensionColumn, &parsed.HeightCm},
	}
	for _, dim := range dimensions {
		raw := row.Get(dim.column)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil || value.IsNegative() {
			fail(dim.column, RowErrorInvalid, "%s %q must be a number of zero or more", dim.column, raw)
			continue
		}
		if !dim.storage.fits(value) {
			fail(dim.column, RowErrorInvalid, "%s %q must have %s", dim.column, raw, dim.storage.describe())
			continue
		}
		*dim.target = decimal.NewNullDecimal(value)
	}

	return parsed, errs
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func sortRowErrors(errs []models.ImportRowError) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Row < errs[j].Row
	})
}
