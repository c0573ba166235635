package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/testhelpers"
)

type uploadEnv struct {
	mock   sqlmock.Sqlmock
	router *gin.Engine
}

func newUploadEnv(t *testing.T) *uploadEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	db := sqlx.NewDb(mockDB, "postgres")

	log := testhelpers.NewTestLogger()
	h := NewUploadHandler(
		repository.NewSourceRepository(db, log),
		repository.NewItemRepository(db, log),
		t.TempDir(),
		log,
	)

	router := gin.New()
	router.POST("/sources/document", h.CreateDocument)
	router.POST("/sources/sheet", h.CreateSheet)

	return &uploadEnv{mock: mock, router: router}
}

func (e *uploadEnv) upload(t *testing.T, path, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var uploadFields = map[string]string{"user_id": "user-1", "name": "Customer book"}

func TestCreateSheetFromCSVQueuesImmediately(t *testing.T) {
	env := newUploadEnv(t)

	env.mock.ExpectExec("INSERT INTO sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO items").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()
	env.mock.ExpectExec("UPDATE sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("UPDATE sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`FROM sources WHERE id`).
		WillReturnRows(sourceRow("src-2", "pending"))

	csv := []byte("Name,Email\nAda,ada@example.com\n")
	rec := env.upload(t, "/sources/sheet", "customers.csv", csv, uploadFields)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateDocumentStoresFileAndQueues(t *testing.T) {
	env := newUploadEnv(t)

	env.mock.ExpectExec("INSERT INTO sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO items").WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()
	env.mock.ExpectExec("UPDATE sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("UPDATE sources").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`FROM sources WHERE id`).
		WillReturnRows(sourceRow("src-3", "pending"))

	// Document content is not parsed at upload time, only at processing time.
	rec := env.upload(t, "/sources/document", "report.pdf", []byte("%PDF-1.4"), uploadFields)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateDocumentRejectsUnsupportedExtension(t *testing.T) {
	env := newUploadEnv(t)

	rec := env.upload(t, "/sources/document", "notes.txt", []byte("plain text"), uploadFields)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported file type")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateSheetRejectsUnsupportedExtension(t *testing.T) {
	env := newUploadEnv(t)

	rec := env.upload(t, "/sources/sheet", "data.json", []byte("{}"), uploadFields)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported file type")
}

func TestCreateUploadRequiresUserAndName(t *testing.T) {
	env := newUploadEnv(t)

	rec := env.upload(t, "/sources/document", "report.pdf", []byte("%PDF-1.4"),
		map[string]string{"user_id": "user-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id and name are required")
}

func TestCreateSheetRejectsUnreadableCSV(t *testing.T) {
	env := newUploadEnv(t)

	rec := env.upload(t, "/sources/sheet", "empty.csv", nil, uploadFields)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not read file")
}
