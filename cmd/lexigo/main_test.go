package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexigo/blobstore"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const records = `{"id": 1, "title": "Quick brown fox"}
{"id": 2, "title": "Lazy dog"}

{"id": "three", "title": "Quick thinking"}
not json
{"id": 1, "title": "duplicate"}
`

func TestCLI_AddSearchGetDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	out, err := run(t, records, "--dir", dir, "add")
	assert.Error(t, err)
	assert.Contains(t, out, "added 3, failed 2")

	out, err = run(t, "", "--dir", dir, "search", "qui", "--limit", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first struct {
		ID       string          `json:"id"`
		Score    int             `json:"score"`
		Document json.RawMessage `json:"document"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, 1, first.Score)
	assert.JSONEq(t, `{"id":1,"title":"Quick brown fox"}`, string(first.Document))

	out, err = run(t, "", "--dir", dir, "get", "three")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"three","title":"Quick thinking"}`, out)

	out, err = run(t, "", "--dir", dir, "get", "--internal", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"title":"Lazy dog"}`, out)

	_, err = run(t, "", "--dir", dir, "get", "404")
	assert.Error(t, err)

	_, err = run(t, `{"id": 2, "title": "Energetic dog"}`, "--dir", dir, "add", "--upsert")
	require.NoError(t, err)
	out, err = run(t, "", "--dir", dir, "search", "energetic")
	require.NoError(t, err)
	assert.Contains(t, out, "Energetic dog")

	out, err = run(t, "", "--dir", dir, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1")
	_, err = run(t, "", "--dir", dir, "delete", "1")
	assert.Error(t, err)

	out, err = run(t, "", "--dir", dir, "stats")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`documents\s+2`), out)
	assert.Regexp(t, regexp.MustCompile(`next id\s+3`), out)

	out, err = run(t, "", "--dir", dir, "fields")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`0\s+id`), out)
	assert.Regexp(t, regexp.MustCompile(`1\s+title`), out)
}

func TestCLI_BackupRestore(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "db")
	storeDir := filepath.Join(root, "store")

	_, err := run(t, records[:strings.Index(records, "\n\n")], "--dir", dir, "add")
	require.NoError(t, err)

	out, err := run(t, "", "--dir", dir, "backup", "--store", storeDir, "--concurrency", "2")
	require.NoError(t, err)
	id := strings.TrimSuffix(strings.Fields(out)[1], ":")

	out, err = run(t, "", "backups", "--store", storeDir)
	require.NoError(t, err)
	assert.Contains(t, out, id)

	restored := filepath.Join(root, "restored")
	out, err = run(t, "", "restore", id, restored, "--store", "file://"+storeDir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 documents")

	out, err = run(t, "", "--dir", restored, "get", "2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"title":"Lazy dog"}`, out)

	_, err = run(t, "", "backups", "--store", storeDir, "--delete", id)
	require.NoError(t, err)
	names, err := blobstore.NewLocalStore(storeDir).List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCLI_Errors(t *testing.T) {
	_, err := run(t, "", "stats")
	assert.ErrorContains(t, err, "no database directory")

	_, err = run(t, "", "backups", "--store", "ftp://host/x")
	assert.ErrorContains(t, err, "unsupported store scheme")

	_, err = run(t, "", "backups", "--store", "minio://host")
	assert.ErrorContains(t, err, "no bucket")
}
