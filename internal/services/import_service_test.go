package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/repository/repositorytest"
	"catalog-service/internal/tabular"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSeller   = "seller-1"
	importHeader = "sku,title,price,stock,category\n"
)

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (q *recordingQueue) Enqueue(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *recordingQueue) queued() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uuid.UUID{}, q.ids...)
}

type importFixture struct {
	svc      *ImportService
	store    *repositorytest.Store
	queue    *recordingQueue
	category *models.Category
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	store := repositorytest.NewStore()
	categories := NewCategoryService(store.Categories(), nil, nil)
	clothing := mustCreate(t, categories, "Clothing", nil)
	shirts := mustCreate(t, categories, "Shirts", clothing)

	q := &recordingQueue{}
	validator := NewImportValidator(categories, store.Products())
	return &importFixture{
		svc:      NewImportService(store.ImportJobs(), store.Products(), validator, q, nil, nil, 0),
		store:    store,
		queue:    q,
		category: shirts,
	}
}

func (f *importFixture) upload(t *testing.T, body string) (*models.ImportPreview, *models.ImportJob) {
	t.Helper()
	preview, job, err := f.svc.Upload(context.Background(), UploadInput{
		TenantID: testTenant,
		SellerID: testSeller,
		UserID:   "user-1",
		FileName: "products.csv",
		Data:     []byte(importHeader + body),
	})
	require.NoError(t, err)
	return preview, job
}

// commit confirms and processes a job, returning its final state
func (f *importFixture) commit(t *testing.T, id uuid.UUID) *models.ImportJob {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Confirm(ctx, testTenant, testSeller, id)
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, id))
	job, err := f.svc.GetJob(ctx, testTenant, testSeller, id)
	require.NoError(t, err)
	return job
}

func (f *importFixture) putProduct(sku string, state models.WorkflowState) {
	f.store.PutProduct(models.Product{
		TenantID:      testTenant,
		SellerID:      testSeller,
		SKU:           sku,
		Title:         "Existing " + sku,
		Price:         decimal.NewFromInt(1),
		WorkflowState: state,
	})
}

func (f *importFixture) productsBySKU() map[string]models.Product {
	out := map[string]models.Product{}
	for _, p := range f.store.AllProducts() {
		out[p.SKU] = p
	}
	return out
}

func decodeRowErrors(t *testing.T, job *models.ImportJob) []models.ImportRowError {
	t.Helper()
	var rowErrors []models.ImportRowError
	require.NoError(t, json.Unmarshal(job.RowErrors, &rowErrors))
	return rowErrors
}

func TestImportValidator_Preview(t *testing.T) {
	f := newImportFixture(t)
	f.putProduct("UPD-1", models.WorkflowActive)

	preview, err := f.svc.Preview(context.Background(), UploadInput{
		TenantID: testTenant,
		SellerID: testSeller,
		FileName: "products.csv",
		Data: []byte(importHeader +
			"NEW-1,Blue Shirt,19.99,5,clothing / shirts\n" +
			"UPD-1,Updated,10,0,Clothing / Shirts\n" +
			"NEW-1,Dup,1,1,Clothing / Shirts\n" +
			",No SKU,-3,1.5,Nowhere\n" +
			",,,,\n"),
	})
	require.NoError(t, err)

	assert.Empty(t, preview.JobErrors)
	assert.Equal(t, 5, preview.TotalRows)
	assert.Equal(t, 1, preview.BlankRows)
	assert.Equal(t, 1, preview.CreateCount)
	assert.Equal(t, 1, preview.UpdateCount)
	assert.Equal(t, 2, preview.FailedRows)
	require.Len(t, preview.ValidRows, 2)
	assert.Equal(t, "Clothing / Shirts", preview.ValidRows[0].CategoryPath, "category label uses the stored path")
	assert.Equal(t, f.category.ID, preview.ValidRows[0].CategoryID)
	assert.True(t, preview.ValidRows[1].IsUpdate)

	codes := map[string]int{}
	for _, e := range preview.RowErrors {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[RowErrorDuplicateSKU])
	assert.Equal(t, 1, codes[RowErrorRequired])
	assert.Equal(t, 2, codes[RowErrorInvalid])
	assert.Equal(t, 1, codes[RowErrorCategoryNotFound])
	assert.Equal(t, 4, preview.RowErrors[0].Row)
	assert.Equal(t, 5, preview.RowErrors[len(preview.RowErrors)-1].Row)

	// preview never writes
	assert.Len(t, f.store.AllProducts(), 1)
}

func TestImportValidator_FileLevelErrors(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		data     string
		contains string
	}{
		{"missing columns", "p.csv", "sku,title\nA,B\n", "Missing required column: price"},
		{"no product rows", "p.csv", importHeader + ",,,,\n", "no product rows"},
		{"empty file", "p.csv", "   ", "Could not read file"},
		{"unsupported extension", "p.txt", importHeader, "Could not read file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preview, job, err := f.svc.Upload(ctx, UploadInput{TenantID: testTenant, SellerID: testSeller, FileName: tt.fileName, Data: []byte(tt.data)})
			require.NoError(t, err)
			assert.Nil(t, job)
			require.NotEmpty(t, preview.JobErrors)
			assert.Contains(t, strings.Join(preview.JobErrors, "\n"), tt.contains)
		})
	}
}

func TestValidateRow_NumericColumnsFitStorage(t *testing.T) {
	paths := map[string]models.Category{"general": {ID: uuid.New(), FullPath: "General"}}

	tests := []struct {
		name   string
		column string
		value  string
		valid  bool
	}{
		{"price with cents", models.ColumnPrice, "19.99", true},
		{"price with trailing zeros", models.ColumnPrice, "5.500", true},
		{"largest price", models.ColumnPrice, "9999999999.99", true},
		{"price below a cent", models.ColumnPrice, "0.001", false},
		{"price that rounds to zero", models.ColumnPrice, "0.004", false},
		{"price with fractional cents", models.ColumnPrice, "1.005", false},
		{"price overflowing the column", models.ColumnPrice, "1e11", false},
		{"weight in grams", models.ColumnWeightKg, "0.125", true},
		{"weight below a gram", models.ColumnWeightKg, "0.1255", false},
		{"largest length", models.ColumnLengthCm, "99999999.99", true},
		{"length overflowing the column", models.ColumnLengthCm, "100000000", false},
		{"height with fractional millimetres", models.ColumnHeightCm, "1.234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := tabular.Row{Number: 2, Values: map[string]string{
				models.ColumnSKU:      "SKU-1",
				models.ColumnTitle:    "Item",
				models.ColumnPrice:    "1",
				models.ColumnStock:    "1",
				models.ColumnCategory: "General",
			}}
			row.Values[tt.column] = tt.value

			_, errs := validateRow(row, paths)
			if tt.valid {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.column, errs[0].Column)
			assert.Equal(t, RowErrorInvalid, errs[0].Code)
		})
	}
}

func TestImportService_ArchivedSKUBlocksFile(t *testing.T) {
	f := newImportFixture(t)
	f.putProduct("OLD-1", models.WorkflowArchived)

	preview, job := f.upload(t, "OLD-1,Revived,5,1,Clothing / Shirts\nNEW-1,Fresh,5,1,Clothing / Shirts\n")
	assert.Nil(t, job)
	require.Len(t, preview.JobErrors, 1)
	assert.Contains(t, preview.JobErrors[0], "archived")
	assert.Contains(t, preview.JobErrors[0], "Row 2")
}

func TestImportService_UploadCreatesPendingJob(t *testing.T) {
	f := newImportFixture(t)
	f.putProduct("UPD-1", models.WorkflowActive)

	preview, job := f.upload(t,
		"NEW-1,Shirt,19.99,5,Clothing / Shirts\n"+
			"UPD-1,Updated,10,0,Clothing / Shirts\n"+
			"BAD-1,Broken,abc,1,Clothing / Shirts\n")
	require.NotNil(t, job)
	assert.Equal(t, 1, preview.CreateCount)

	assert.Equal(t, models.ImportStatusPendingConfirmation, job.Status)
	assert.Equal(t, 1, job.PlannedCreateCount)
	assert.Equal(t, 1, job.PlannedUpdateCount)
	assert.Equal(t, 1, job.FailedCount)
	assert.Equal(t, "Ready to import 3 rows: 1 to create, 1 to update, 1 with errors.", job.Summary)
	require.NotNil(t, job.ErrorReport)
	assert.True(t, strings.HasPrefix(*job.ErrorReport, "Row 4: "))
	assert.Empty(t, f.queue.queued(), "nothing runs before confirmation")
}

func TestImportService_Confirm(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()
	_, job := f.upload(t, "NEW-1,Shirt,19.99,5,Clothing / Shirts\n")

	confirmed, err := f.svc.Confirm(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusQueued, confirmed.Status)
	assert.Equal(t, []uuid.UUID{job.ID}, f.queue.queued())

	_, err = f.svc.Confirm(ctx, testTenant, testSeller, job.ID)
	assertServiceError(t, err, CodeInvalidState)

	_, err = f.svc.Confirm(ctx, testTenant, "other-seller", job.ID)
	assert.ErrorIs(t, err, ErrImportJobNotFound)

	_, err = f.svc.Confirm(ctx, testTenant, testSeller, uuid.New())
	assert.ErrorIs(t, err, ErrImportJobNotFound)
}

func TestImportService_ConfirmSurvivesEnqueueFailure(t *testing.T) {
	f := newImportFixture(t)
	f.queue.err = errors.New("queue closed")
	_, job := f.upload(t, "NEW-1,Shirt,19.99,5,Clothing / Shirts\n")

	confirmed, err := f.svc.Confirm(context.Background(), testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusQueued, confirmed.Status)
}

func TestImportService_ProcessAppliesRows(t *testing.T) {
	f := newImportFixture(t)
	f.putProduct("UPD-1", models.WorkflowActive)

	_, job := f.upload(t,
		"NEW-1,Shirt,19.99,5,Clothing / Shirts\n"+
			"UPD-1,Updated Title,10.5,7,Clothing / Shirts\n"+
			"NEW-1,Again,1,1,Clothing / Shirts\n"+
			",,,,\n"+
			"BAD-1,Broken,0,1,Clothing / Shirts\n")

	done := f.commit(t, job.ID)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 1, done.CreatedCount)
	assert.Equal(t, 1, done.UpdatedCount)
	assert.Equal(t, 2, done.FailedCount)
	assert.Equal(t, "Processed 4 rows: 1 created, 1 updated, 2 failed.", done.Summary)
	assert.NotNil(t, done.CompletedAt)

	require.NotNil(t, done.ErrorReport)
	lines := strings.Split(*done.ErrorReport, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Row 4: Duplicate SKU"))
	assert.True(t, strings.HasPrefix(lines[1], "Row 6: "))
	assert.Len(t, decodeRowErrors(t, done), 2)

	products := f.productsBySKU()
	created := products["NEW-1"]
	assert.Equal(t, models.WorkflowDraft, created.WorkflowState)
	assert.Equal(t, "Shirt", created.Title)
	assert.Equal(t, "Clothing / Shirts", created.Category)
	assert.Equal(t, f.category.ID, *created.CategoryID)

	updated := products["UPD-1"]
	assert.Equal(t, "Updated Title", updated.Title)
	assert.True(t, decimal.RequireFromString("10.5").Equal(updated.Price))
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, models.WorkflowActive, updated.WorkflowState, "updates keep the workflow state")
}

func TestImportService_ProcessRevalidatesAgainstLiveCatalog(t *testing.T) {
	f := newImportFixture(t)
	_, job := f.upload(t, "DRIFT-1,Shirt,19.99,5,Clothing / Shirts\n")
	require.Equal(t, 1, job.PlannedCreateCount)

	// another import created the SKU between preview and commit
	f.putProduct("DRIFT-1", models.WorkflowActive)

	done := f.commit(t, job.ID)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 0, done.CreatedCount)
	assert.Equal(t, 1, done.UpdatedCount)
	assert.Len(t, f.store.AllProducts(), 1)
}

func TestImportService_ProcessRejectsDeletedCategory(t *testing.T) {
	f := newImportFixture(t)
	_, job := f.upload(t,
		"KEEP-1,Jacket,40,1,Clothing\n"+
			"GONE-1,Shirt,19.99,5,Clothing / Shirts\n")
	require.Equal(t, 2, job.PlannedCreateCount)

	categories := NewCategoryService(f.store.Categories(), nil, nil)
	require.NoError(t, categories.Delete(context.Background(), testTenant, f.category.ID, nil))

	done := f.commit(t, job.ID)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 1, done.CreatedCount)
	assert.Equal(t, 1, done.FailedCount)

	rowErrors := decodeRowErrors(t, done)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 3, rowErrors[0].Row)
	assert.Equal(t, RowErrorCategoryNotFound, rowErrors[0].Code)

	products := f.productsBySKU()
	assert.Contains(t, products, "KEEP-1")
	assert.NotContains(t, products, "GONE-1")
}

func TestImportService_ApplyFailureIsIsolated(t *testing.T) {
	f := newImportFixture(t)
	f.store.FailProductWrites["B-2"] = errors.New("disk full")

	_, job := f.upload(t,
		"B-1,One,1,1,Clothing / Shirts\n"+
			"B-2,Two,2,2,Clothing / Shirts\n"+
			"B-3,Three,3,3,Clothing / Shirts\n")

	done := f.commit(t, job.ID)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 2, done.CreatedCount)
	assert.Equal(t, 1, done.FailedCount)

	rowErrors := decodeRowErrors(t, done)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 3, rowErrors[0].Row)
	assert.Equal(t, RowErrorApplyFailed, rowErrors[0].Code)
	assert.Contains(t, rowErrors[0].Message, "could not be saved")
	assert.NotContains(t, rowErrors[0].Message, "disk full", "storage errors stay in the logs")

	products := f.productsBySKU()
	assert.Contains(t, products, "B-1")
	assert.Contains(t, products, "B-3")
	assert.NotContains(t, products, "B-2")
}

// reclaimOnFirstWrite returns the job to QUEUED the way the recovery
// sweeper does, just before the first product write
func (f *importFixture) reclaimOnFirstWrite(t *testing.T, id uuid.UUID) {
	var once sync.Once
	f.store.BeforeProductWrite = func(string) {
		once.Do(func() {
			moved, err := f.store.ImportJobs().TransitionStatus(context.Background(), id, models.ImportStatusProcessing, models.ImportStatusQueued)
			require.NoError(t, err)
			require.True(t, moved)
		})
	}
}

func TestImportService_StopsWhenJobIsReclaimed(t *testing.T) {
	f := newImportFixture(t)
	f.svc.heartbeat = 0
	ctx := context.Background()

	_, job := f.upload(t,
		"R-1,One,1,1,Clothing / Shirts\n"+
			"R-2,Two,2,2,Clothing / Shirts\n")
	_, err := f.svc.Confirm(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	f.reclaimOnFirstWrite(t, job.ID)

	require.NoError(t, f.svc.Process(ctx, job.ID))

	stored, err := f.svc.GetJob(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusQueued, stored.Status)
	assert.Zero(t, stored.CreatedCount)

	products := f.productsBySKU()
	assert.Contains(t, products, "R-1")
	assert.NotContains(t, products, "R-2", "rows after the lost heartbeat are left to the next run")
}

// countingJobs counts heartbeats
type countingJobs struct {
	repository.ImportJobRepositoryInterface
	touches int
}

func (j *countingJobs) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	j.touches++
	return j.ImportJobRepositoryInterface.Touch(ctx, id)
}

func TestImportService_HeartbeatWhileApplyingRows(t *testing.T) {
	f := newImportFixture(t)
	jobs := &countingJobs{ImportJobRepositoryInterface: f.store.ImportJobs()}
	svc := NewImportService(jobs, f.store.Products(), f.svc.validator, f.queue, nil, nil, 0)
	svc.heartbeat = 0
	ctx := context.Background()

	preview, job, err := svc.Upload(ctx, UploadInput{
		TenantID: testTenant,
		SellerID: testSeller,
		FileName: "products.csv",
		Data:     []byte(importHeader + "H-1,One,1,1,Clothing / Shirts\nH-2,Two,2,2,Clothing / Shirts\nH-3,Three,3,3,Clothing / Shirts\n"),
	})
	require.NoError(t, err)
	require.Len(t, preview.ValidRows, 3)
	_, err = svc.Confirm(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, job.ID))
	assert.Equal(t, 3, jobs.touches)

	done, err := svc.GetJob(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 3, done.CreatedCount)
}

func TestImportService_DiscardsResultOfReclaimedJob(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	_, job := f.upload(t, "D-1,One,1,1,Clothing / Shirts\n")
	_, err := f.svc.Confirm(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	f.reclaimOnFirstWrite(t, job.ID)

	require.NoError(t, f.svc.Process(ctx, job.ID))
	stored, err := f.svc.GetJob(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusQueued, stored.Status, "the second worker owns the result")
	assert.Zero(t, stored.CreatedCount)
	assert.Nil(t, stored.CompletedAt)

	f.store.BeforeProductWrite = nil
	require.NoError(t, f.svc.Process(ctx, job.ID))
	done, err := f.svc.GetJob(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 1, done.UpdatedCount)
	assert.Len(t, f.store.AllProducts(), 1)
}

func TestImportService_ConcurrentCreateReportsDuplicate(t *testing.T) {
	f := newImportFixture(t)
	var once sync.Once
	f.store.BeforeProductWrite = func(sku string) {
		once.Do(func() { f.putProduct(sku, models.WorkflowActive) })
	}

	_, job := f.upload(t, "RACE-1,Shirt,5,1,Clothing / Shirts\n")
	done := f.commit(t, job.ID)

	assert.Equal(t, models.ImportStatusFailed, done.Status)
	rowErrors := decodeRowErrors(t, done)
	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0].Message, "run the import again")
}

func TestImportService_AllRowsFailing(t *testing.T) {
	f := newImportFixture(t)
	f.store.FailProductWrites["X-1"] = errors.New("boom")
	f.store.FailProductWrites["X-2"] = errors.New("boom")

	_, job := f.upload(t, "X-1,One,1,1,Clothing / Shirts\nX-2,Two,1,1,Clothing / Shirts\n")
	done := f.commit(t, job.ID)

	assert.Equal(t, models.ImportStatusFailed, done.Status)
	assert.Equal(t, 2, done.FailedCount)
	assert.Equal(t, "Processed 2 rows: 0 created, 0 updated, 2 failed.", done.Summary)
}

func TestImportService_ProcessFailsWhenFileTurnsInvalid(t *testing.T) {
	f := newImportFixture(t)
	_, job := f.upload(t, "ARC-1,Shirt,5,1,Clothing / Shirts\n")

	f.putProduct("ARC-1", models.WorkflowArchived)

	done := f.commit(t, job.ID)
	assert.Equal(t, models.ImportStatusFailed, done.Status)
	require.NotNil(t, done.ErrorReport)
	assert.Contains(t, *done.ErrorReport, "archived")
}

func TestImportService_CancellationRequeuesJob(t *testing.T) {
	f := newImportFixture(t)
	_, job := f.upload(t,
		"C-1,One,1,1,Clothing / Shirts\n"+
			"C-2,Two,2,2,Clothing / Shirts\n")

	ctx, cancel := context.WithCancel(context.Background())
	f.store.BeforeProductWrite = func(sku string) {
		if sku == "C-1" {
			cancel()
		}
	}

	_, err := f.svc.Confirm(ctx, testTenant, testSeller, job.ID)
	require.NoError(t, err)
	err = f.svc.Process(ctx, job.ID)
	assert.ErrorIs(t, err, context.Canceled)

	interrupted, err := f.svc.GetJob(context.Background(), testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusQueued, interrupted.Status)
	assert.Len(t, f.store.AllProducts(), 1, "rows applied before cancellation are kept")

	// a later run finishes the job; the applied row is now an update
	f.store.BeforeProductWrite = nil
	require.NoError(t, f.svc.Process(context.Background(), job.ID))
	done, err := f.svc.GetJob(context.Background(), testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusCompleted, done.Status)
	assert.Equal(t, 1, done.CreatedCount)
	assert.Equal(t, 1, done.UpdatedCount)
}

func TestImportService_ProcessSkipsJobsNotQueued(t *testing.T) {
	f := newImportFixture(t)
	_, job := f.upload(t, "P-1,One,1,1,Clothing / Shirts\n")

	require.NoError(t, f.svc.Process(context.Background(), job.ID))
	pending, err := f.svc.GetJob(context.Background(), testTenant, testSeller, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusPendingConfirmation, pending.Status)
	assert.Empty(t, f.store.AllProducts())

	assert.Error(t, f.svc.Process(context.Background(), uuid.New()))
}

func TestImportService_RejectsOversizedFile(t *testing.T) {
	store := repositorytest.NewStore()
	validator := NewImportValidator(NewCategoryService(store.Categories(), nil, nil), store.Products())
	svc := NewImportService(store.ImportJobs(), store.Products(), validator, &recordingQueue{}, nil, nil, 16)
	assert.Equal(t, 16, svc.MaxFileBytes())

	_, _, err := svc.Upload(context.Background(), UploadInput{
		TenantID: testTenant,
		SellerID: testSeller,
		FileName: "big.csv",
		Data:     []byte(importHeader + "A-1,Shirt,1,1,General\n"),
	})
	assertServiceError(t, err, CodeValidation)
}

func TestImportService_ListJobs(t *testing.T) {
	f := newImportFixture(t)
	_, first := f.upload(t, "L-1,One,1,1,Clothing / Shirts\n")
	_, second := f.upload(t, "L-2,Two,1,1,Clothing / Shirts\n")

	jobs, err := f.svc.ListJobs(context.Background(), testTenant, testSeller, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	ids := []uuid.UUID{jobs[0].ID, jobs[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	for _, j := range jobs {
		assert.Nil(t, j.FileBytes)
	}

	others, err := f.svc.ListJobs(context.Background(), testTenant, "other-seller", 10)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestImportService_Template(t *testing.T) {
	svc := NewImportService(nil, nil, nil, nil, nil, nil, 0)

	data, contentType, fileName, err := svc.Template("csv")
	require.NoError(t, err)
	assert.Equal(t, tabular.ContentTypeCSV, contentType)
	assert.Equal(t, "products_import_template.csv", fileName)

	table, err := tabular.Parse(fileName, data)
	require.NoError(t, err)
	for _, column := range models.RequiredImportColumns {
		assert.True(t, table.HasHeader(column), column)
	}

	data, contentType, fileName, err = svc.Template("XLSX")
	require.NoError(t, err)
	assert.Equal(t, tabular.ContentTypeXLSX, contentType)
	assert.Equal(t, "products_import_template.xlsx", fileName)
	table, err = tabular.Parse(fileName, data)
	require.NoError(t, err)
	assert.True(t, table.HasHeader(models.ColumnSKU))
}
