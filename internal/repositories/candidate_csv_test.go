package repositories

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

func newTestRepo(t *testing.T) (CandidateRepository, string, *logger.MemoryLogger) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database", "candidates.csv")
	log := logger.NewMemoryLogger()
	repo, err := NewCSVCandidateRepository(path, log)
	require.NoError(t, err)
	return repo, path, log
}

func sampleCandidate(name string) models.Candidate {
	return models.Candidate{
		Name:           name,
		Email:          strings.ToLower(name) + "@example.com",
		Phone:          "9876543210",
		Skills:         "Python, SQL",
		Experience:     "2 years backend, Go | Worked at \"Acme\", Inc.",
		Education:      "Bachelor of Engineering",
		University:     models.NotFound,
		CGPA:           "CGPA: 8.9",
		Certifications: "AWS certified",
		FullText:       "Jane Doe Python SQL",
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLoadAllMissingStore(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	candidates, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestLoadAllEmptyStore(t *testing.T) {
	repo, path, _ := newTestRepo(t)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	candidates, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAppendRoundTrip(t *testing.T) {
	repo, path, _ := newTestRepo(t)
	ctx := context.Background()

	first := sampleCandidate("Jane")
	second := sampleCandidate("John")
	second.FullText = "line one\nline two\r\nline three"

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, models.CandidateHeader, rows[0])

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, first, loaded[0])
	assert.Equal(t, "John", loaded[1].Name)
	assert.Equal(t, "line one line two line three", loaded[1].FullText, "newlines are flattened on write")
	assert.Equal(t, second.Experience, loaded[1].Experience, "delimiters and quotes survive escaping")
}

func TestAppendFillsSentinels(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, models.Candidate{Name: "Only Name"}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Only Name", loaded[0].Name)
	assert.Equal(t, models.NotFound, loaded[0].Email)
	assert.Equal(t, models.NotFound, loaded[0].FullText)
}

func TestAppendResetsCorruptedHeader(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"old schema", "Name,Email,Phone,Skills,Experience,Degree,University,CGPA,FullText\na,b,c,d,e,f,g,h,i\n"},
		{"reordered header", "Email,Name,Phone,Skills,Experience,Education,University,CGPA,Certifications,FullText\n"},
		{"garbage", "\x00\x01 not a csv \"unterminated\n"},
		{"rows without header", "Jane,jane@example.com,1234567890,Python,x,y,z,w,v,u\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, path, log := newTestRepo(t)
			ctx := context.Background()
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			require.NoError(t, repo.Append(ctx, sampleCandidate("Jane")))

			rows := readRows(t, path)
			require.Len(t, rows, 2, "header plus exactly one data row")
			assert.Equal(t, models.CandidateHeader, rows[0])
			assert.Equal(t, "Jane", rows[1][0])
			assert.Len(t, log.Entries("WARN"), 1)
		})
	}
}

func TestLoadAllCorruptedHeader(t *testing.T) {
	repo, path, log := newTestRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("Foo,Bar\n1,2\n"), 0644))

	candidates, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NotEmpty(t, log.Entries("WARN"))
}

func TestLoadAllSkipsMalformedRows(t *testing.T) {
	repo, path, log := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, sampleCandidate("Jane")))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("too,few,columns\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, repo.Append(ctx, sampleCandidate("John")))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Jane", loaded[0].Name)
	assert.Equal(t, "John", loaded[1].Name)
	assert.Len(t, log.Entries("WARN"), 1)
}

func TestAppendRepairsMissingTrailingNewline(t *testing.T) {
	repo, path, _ := newTestRepo(t)
	ctx := context.Background()
	header := strings.Join(models.CandidateHeader, ",")
	require.NoError(t, os.WriteFile(path, []byte(header), 0644))

	require.NoError(t, repo.Append(ctx, sampleCandidate("Jane")))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Jane", loaded[0].Name)
}

func TestConcurrentAppends(t *testing.T) {
	repo, path, _ := newTestRepo(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Append(ctx, sampleCandidate(fmt.Sprintf("Candidate%02d", i))))
		}(i)
	}
	wg.Wait()

	rows := readRows(t, path)
	require.Len(t, rows, writers+1)
	assert.Equal(t, models.CandidateHeader, rows[0])

	headers := 0
	for _, row := range rows {
		if row[0] == "Name" {
			headers++
		}
	}
	assert.Equal(t, 1, headers, "header is written exactly once")

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, writers)
}

func TestAppendHonoursCancelledContext(t *testing.T) {
	repo, path, _ := newTestRepo(t)

	// Hold the file lock from a second repository so the first has to wait.
	other, err := NewCSVCandidateRepository(path, logger.NewNopLogger())
	require.NoError(t, err)
	unlock, err := other.(*csvCandidateRepository).lockFile(context.Background(), true)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, repo.Append(ctx, sampleCandidate("Jane")))
}
