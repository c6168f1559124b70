package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazytdm/internal/gateway"
	"github.com/rebeliceyang/lazytdm/internal/models"
)

func newTestRouter(t *testing.T) (http.Handler, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(store, logger), store
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedTable(t *testing.T, store *MemoryStore, columns ...string) models.Table {
	t.Helper()
	ctx := context.Background()
	repo, err := store.CreateRepository(ctx, "qa")
	require.NoError(t, err)
	table, err := store.CreateTable(ctx, repo.ID, "users", columns)
	require.NoError(t, err)
	return table
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := serve(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateRepositoryValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := serve(h, http.MethodPost, "/repository", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPost, "/repository", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPost, "/repository", `{"name":"qa"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodPost, "/repository", `{"name":"QA"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTableAnswersExistingNameWithMessage(t *testing.T) {
	h, store := newTestRouter(t)
	table := seedTable(t, store, "name")
	repos, _ := store.ListRepositories(context.Background())
	repoID := repos[0].ID

	body := `{"repo_id":"` + repoID.String() + `","table_name":"users","columns":"name"}`
	rec := serve(h, http.MethodPost, "/createtable", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Table already exists"}`, rec.Body.String())

	body = `{"repo_id":"` + repoID.String() + `","table_name":"orders","columns":" sku , qty "}`
	rec = serve(h, http.MethodPost, "/createtable", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Created bool      `json:"created"`
		TableID models.ID `json:"table_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Created)
	assert.NotEqual(t, table.ID, created.TableID)

	columns, err := store.TableColumns(context.Background(), created.TableID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "qty"}, columns)
}

func TestParseColumns(t *testing.T) {
	cols, err := parseColumns("a, b ,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cols)

	for _, raw := range []string{"", "a,,b", "a,a", "data_id,a"} {
		_, err := parseColumns(raw)
		assert.Error(t, err, raw)
	}
}

func TestTableDataIncludesDataIDHeader(t *testing.T) {
	h, store := newTestRouter(t)
	table := seedTable(t, store, "name", "age")
	ids, err := store.InsertRows(context.Background(), table.ID, []map[string]string{{"name": "alice", "age": "30"}})
	require.NoError(t, err)

	rec := serve(h, http.MethodGet, "/api/tabledata/"+table.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.TableData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, []string{"data_id", "name", "age"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, ids[0], data.Rows[0].DataID)
	assert.Equal(t, "alice", data.Rows[0].Value("name"))
	assert.Equal(t, ids[0].String(), data.Rows[0].Value("data_id"))
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/tabledata/nope", ""},
		{http.MethodDelete, "/repository/nope", ""},
		{http.MethodDelete, "/table/nope", ""},
		{http.MethodDelete, "/data/nope", ""},
		{http.MethodPut, "/updatedatarecord/nope", `{"data":{"name":"x"}}`},
		{http.MethodPost, "/data", `{"table_id":"nope","data":{"name":"x"}}`},
		{http.MethodGet, "/download/nope", ""},
	} {
		rec := serve(h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCreateRowDropsUnknownColumns(t *testing.T) {
	h, store := newTestRouter(t)
	table := seedTable(t, store, "name")

	rec := serve(h, http.MethodPost, "/data", `{"table_id":"`+table.ID.String()+`","data":{"name":"alice","bogus":"x"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := store.ListRows(context.Background(), table.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"name": "alice"}, rows[0].Content)

	rec = serve(h, http.MethodPost, "/data", `{"table_id":"`+table.ID.String()+`","data":{"name":"  "}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRowIgnoresDataID(t *testing.T) {
	h, store := newTestRouter(t)
	table := seedTable(t, store, "name")
	ids, _ := store.InsertRows(context.Background(), table.ID, []map[string]string{{"name": "alice"}})

	rec := serve(h, http.MethodPut, "/updatedatarecord/"+ids[0].String(), `{"data":{"data_id":"other"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPut, "/updatedatarecord/"+ids[0].String(), `{"data":{"name":"alicia"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rows, _ := store.ListRows(context.Background(), table.ID)
	assert.Equal(t, "alicia", rows[0].Content["name"])
}

func TestDownloadServesWorkbook(t *testing.T) {
	h, store := newTestRouter(t)
	table := seedTable(t, store, "name")
	_, err := store.InsertRows(context.Background(), table.ID, []map[string]string{{"name": "alice"}})
	require.NoError(t, err)

	rec := serve(h, http.MethodGet, "/download/"+table.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), table.ID.String()+".xlsx")

	header, records, err := ReadSheet("download.xlsx", bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"data_id", "name"}, header)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0][1])
}

func TestRequestIDIsEchoedThroughMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := NewRouter(NewMemoryStore(), logger)

	req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
	req.Header.Set(gateway.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Contains(t, buf.String(), "status=200")
}

// TestGatewayClientRoundTrip drives every endpoint through the real client
func TestGatewayClientRoundTrip(t *testing.T) {
	h, _ := newTestRouter(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := gateway.NewClient(gateway.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.CreateRepository(ctx, "qa"))
	repos, err := client.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	repoID := repos[0].ID

	res, err := client.CreateTable(ctx, repoID, "users", []string{"name", "age"})
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = client.CreateTable(ctx, repoID, "users", []string{"name"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyExists())

	repos, err = client.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos[0].Tables, 1)
	tableID := repos[0].Tables[0].ID
	assert.Equal(t, repoID, repos[0].Tables[0].RepositoryID)

	dataID, err := client.CreateRow(ctx, tableID, map[string]string{"name": "alice", "age": "30"})
	require.NoError(t, err)
	require.NoError(t, client.UpdateRow(ctx, dataID, map[string]string{"age": "31"}))

	csvPath := filepath.Join(t.TempDir(), "more.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,age\nbob,41\ncarol,29\n"), 0o644))
	require.NoError(t, client.UploadFile(ctx, tableID, csvPath))

	data, err := client.FetchTableData(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, []string{"data_id", "name", "age"}, data.Headers)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "31", data.Rows[0].Value("age"))
	assert.Equal(t, "carol", data.Rows[2].Value("name"))

	require.NoError(t, client.DeleteRow(ctx, dataID))
	blob, err := client.ExportTable(ctx, tableID)
	require.NoError(t, err)
	_, records, err := ReadSheet("export.xlsx", bytes.NewReader(blob))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	err = client.DeleteRow(ctx, dataID)
	assert.True(t, gateway.IsStatus(err, http.StatusNotFound))

	require.NoError(t, client.DeleteTable(ctx, tableID))
	require.NoError(t, client.DeleteRepository(ctx, repoID))
	repos, err = client.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Empty(t, repos)
}
