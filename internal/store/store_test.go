package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erlanggapranata/uploader/internal/config"
	"github.com/erlanggapranata/uploader/internal/model"
	"github.com/erlanggapranata/uploader/internal/testutil"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	cfg := &config.Config{
		SQLitePath: filepath.Join(tempDir, "test.db"),
	}

	st, err := NewStore(cfg)
	require.NoError(t, err)

	err = testutil.RunTestMigrations(st.DB)
	require.NoError(t, err)

	t.Cleanup(func() {
		st.Close()
	})

	return st
}

func newRecord(code, originalName string, uploadedAt time.Time, size int64) *model.UrlRecord {
	return &model.UrlRecord{
		ShortCode:    code,
		Filename:     fmt.Sprintf("%d-%s.txt", uploadedAt.UnixMilli(), code),
		OriginalName: originalName,
		UploadedAt:   uploadedAt,
		Size:         size,
		Mimetype:     "text/plain",
	}
}

func TestInsertAssignsID(t *testing.T) {
	st := setupTestStore(t)

	rec := newRecord("Abc123", "report.txt", time.Now(), 1024)
	err := st.Insert(rec)
	require.NoError(t, err)

	assert.NotZero(t, rec.ID)
	assert.Equal(t, int64(0), rec.AccessCount)
	assert.Nil(t, rec.LastAccessedAt)
}

func TestInsertDuplicateCode(t *testing.T) {
	st := setupTestStore(t)

	first := newRecord("Abc123", "one.txt", time.Now(), 100)
	require.NoError(t, st.Insert(first))

	second := newRecord("Abc123", "two.txt", time.Now(), 200)
	err := st.Insert(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestInsertCaseSensitiveCodes(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("abc123", "lower.txt", time.Now(), 100)))
	require.NoError(t, st.Insert(newRecord("ABC123", "upper.txt", time.Now(), 100)))

	lower, err := st.FindByShortCode("abc123")
	require.NoError(t, err)
	assert.Equal(t, "lower.txt", lower.OriginalName)

	upper, err := st.FindByShortCode("ABC123")
	require.NoError(t, err)
	assert.Equal(t, "upper.txt", upper.OriginalName)
}

func TestFindByShortCode(t *testing.T) {
	st := setupTestStore(t)

	uploadedAt := time.Now().Truncate(time.Second)
	rec := newRecord("Xyz789", "notes.pdf", uploadedAt, 2048)
	rec.Mimetype = "application/pdf"
	require.NoError(t, st.Insert(rec))

	found, err := st.FindByShortCode("Xyz789")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, "Xyz789", found.ShortCode)
	assert.Equal(t, rec.Filename, found.Filename)
	assert.Equal(t, "notes.pdf", found.OriginalName)
	assert.Equal(t, uploadedAt.Unix(), found.UploadedAt.Unix())
	assert.Equal(t, int64(2048), found.Size)
	assert.Equal(t, "application/pdf", found.Mimetype)
	assert.Equal(t, int64(0), found.AccessCount)
	assert.Nil(t, found.LastAccessedAt)
}

func TestFindByShortCodeNotFound(t *testing.T) {
	st := setupTestStore(t)

	_, err := st.FindByShortCode("nosuch")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExistsByShortCode(t *testing.T) {
	st := setupTestStore(t)

	exists, err := st.ExistsByShortCode("Abc123")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.Insert(newRecord("Abc123", "file.txt", time.Now(), 100)))

	exists, err = st.ExistsByShortCode("Abc123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIncrementAccess(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("Abc123", "file.txt", time.Now(), 100)))

	require.NoError(t, st.IncrementAccess("Abc123"))
	require.NoError(t, st.IncrementAccess("Abc123"))

	rec, err := st.FindByShortCode("Abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.AccessCount)
	require.NotNil(t, rec.LastAccessedAt)
	assert.WithinDuration(t, time.Now(), *rec.LastAccessedAt, 5*time.Second)
}

func TestIncrementAccessUnknownCodeIsNoop(t *testing.T) {
	st := setupTestStore(t)

	err := st.IncrementAccess("nosuch")
	assert.NoError(t, err)
}

func TestIncrementAccessConcurrent(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("Abc123", "file.txt", time.Now(), 100)))

	const accesses = 25
	var wg sync.WaitGroup
	for i := 0; i < accesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.IncrementAccess("Abc123"))
		}()
	}
	wg.Wait()

	rec, err := st.FindByShortCode("Abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(accesses), rec.AccessCount, "no increment may be lost")
}

func TestListPagedOrderAndWindow(t *testing.T) {
	st := setupTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		code := fmt.Sprintf("Code%02d", i)
		require.NoError(t, st.Insert(newRecord(code, fmt.Sprintf("file%d.txt", i), base.Add(time.Duration(i)*time.Minute), 100)))
	}

	page, err := st.ListPaged(2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Code04", page[0].ShortCode)
	assert.Equal(t, "Code03", page[1].ShortCode)

	page, err = st.ListPaged(2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Code00", page[0].ShortCode)
}

func TestCount(t *testing.T) {
	st := setupTestStore(t)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, st.Insert(newRecord("Abc123", "a.txt", time.Now(), 100)))
	require.NoError(t, st.Insert(newRecord("Def456", "b.txt", time.Now(), 100)))

	count, err = st.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSearchCaseInsensitive(t *testing.T) {
	st := setupTestStore(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, st.Insert(newRecord("Aaa111", "Quarterly-Report.pdf", base, 100)))
	require.NoError(t, st.Insert(newRecord("Bbb222", "holiday-photo.jpg", base.Add(time.Minute), 100)))
	require.NoError(t, st.Insert(newRecord("Ccc333", "annual-REPORT.docx", base.Add(2*time.Minute), 100)))

	results, err := st.Search("report", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "annual-REPORT.docx", results[0].OriginalName)
	assert.Equal(t, "Quarterly-Report.pdf", results[1].OriginalName)

	results, err = st.Search("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMostAccessedExcludesZero(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("Cold00", "cold.txt", time.Now(), 100)))
	require.NoError(t, st.Insert(newRecord("Warm00", "warm.txt", time.Now(), 100)))
	require.NoError(t, st.Insert(newRecord("Hot000", "hot.txt", time.Now(), 100)))

	require.NoError(t, st.IncrementAccess("Warm00"))
	for i := 0; i < 3; i++ {
		require.NoError(t, st.IncrementAccess("Hot000"))
	}

	results, err := st.MostAccessed(10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hot000", results[0].ShortCode)
	assert.Equal(t, "Warm00", results[1].ShortCode)

	for _, rec := range results {
		assert.Greater(t, rec.AccessCount, int64(0))
	}
}

func TestRecent(t *testing.T) {
	st := setupTestStore(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, st.Insert(newRecord("Old000", "old.txt", base, 100)))
	require.NoError(t, st.Insert(newRecord("New000", "new.txt", base.Add(time.Minute), 100)))

	results, err := st.Recent(1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "New000", results[0].ShortCode)
}

func TestDelete(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("Abc123", "file.txt", time.Now(), 100)))

	deleted, err := st.Delete("Abc123")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = st.FindByShortCode("Abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = st.Delete("Abc123")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAggregateStatsEmpty(t *testing.T) {
	st := setupTestStore(t)

	stats, err := st.AggregateStats()
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Count)
	assert.Equal(t, int64(0), stats.TotalSize)
	assert.Equal(t, int64(0), stats.TotalAccess)
	assert.Equal(t, int64(0), stats.AverageSize)
}

func TestAggregateStats(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Insert(newRecord("Aaa111", "a.txt", time.Now(), 1000)))
	require.NoError(t, st.Insert(newRecord("Bbb222", "b.txt", time.Now(), 3000)))
	require.NoError(t, st.IncrementAccess("Aaa111"))
	require.NoError(t, st.IncrementAccess("Aaa111"))

	stats, err := st.AggregateStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, int64(4000), stats.TotalSize)
	assert.Equal(t, int64(2), stats.TotalAccess)
	assert.Equal(t, int64(2000), stats.AverageSize)
}

func TestConcurrentInserts(t *testing.T) {
	st := setupTestStore(t)

	const inserts = 20
	var wg sync.WaitGroup
	for i := 0; i < inserts; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			rec := newRecord(fmt.Sprintf("Conc%02d", index), fmt.Sprintf("file%d.txt", index), time.Now(), int64(100*index))
			assert.NoError(t, st.Insert(rec))
		}(i)
	}
	wg.Wait()

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(inserts), count)
}
