package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/cleaner"
	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/connector"
	"github.com/David-Botos/data-cleaner/pkg/ingest"
	"github.com/David-Botos/data-cleaner/pkg/model"
	"github.com/David-Botos/data-cleaner/pkg/store"
)

const sampleCSV = "name,score,city\nAnn,10,Oslo\nBo,,Bergen\nAnn,10,Oslo\nCy,30,Oslo\n"

type fixture struct {
	shell *Shell
	store *store.Store
	out   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(zap.NewNop())
	out := &bytes.Buffer{}
	sh := New(st, ingest.NewLoader(ingest.DefaultMaxBytes, zap.NewNop()), out, zap.NewNop())
	return &fixture{shell: sh, store: st, out: out}
}

func (f *fixture) run(t *testing.T, line string) error {
	t.Helper()
	quit, err := f.shell.Execute(context.Background(), line)
	assert.False(t, quit)
	return err
}

func (f *fixture) mustRun(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	require.NoError(t, f.run(t, line), line)
	return f.out.String()
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.mustRun(t, "login demo@app.com 123456")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCommandsRequireSignIn(t *testing.T) {
	f := newFixture(t)

	for _, line := range []string{"steps", "upload x.csv", "apply remove_duplicates", "view clean", "save x", "logout"} {
		assert.ErrorIs(t, f.run(t, line), ErrNotAuthenticated, line)
	}
	for _, line := range []string{"help", "status", "sessions", "theme"} {
		assert.NoError(t, f.run(t, line), line)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "login demo@app.com wrong")
	assert.EqualError(t, err, "invalid credentials")
	assert.False(t, f.store.IsAuthenticated())

	err = f.run(t, "login demo@app.com")
	assert.EqualError(t, err, "usage: login <user> <secret>")

	out := f.mustRun(t, "login demo@app.com 123456")
	assert.Contains(t, out, "Signed in as demo@app.com")
	assert.Equal(t, "demo@app.com [upload]", f.shell.prompt())
}

func TestUploadLoadsDatasetAndSwitchesToClean(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	out := f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "4 rows, 3 columns")
	assert.Contains(t, out, "Clean")

	assert.Equal(t, model.ViewClean, f.store.ActiveView())
	require.NotNil(t, f.store.Current())
	assert.Equal(t, 4, f.store.Current().Len())
	assert.Len(t, f.store.Profile(), 3)
}

func TestUploadFailures(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	err := f.run(t, "upload "+writeFile(t, "notes.txt", "hello"))
	assert.EqualError(t, err, "Unsupported file format. Please use CSV or Excel files.")

	err = f.run(t, "upload "+filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	assert.Nil(t, f.store.Current())
	assert.Equal(t, model.ViewUpload, f.store.ActiveView())
}

func TestUploadCancelledByContext(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.shell.Execute(ctx, "upload "+writeFile(t, "people.csv", sampleCSV))
	assert.EqualError(t, err, "upload cancelled")
	assert.Nil(t, f.store.Current())
}

func TestApplyStepsAndRemove(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	assert.ErrorIs(t, f.run(t, "apply remove_duplicates"), errNoData)
	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))

	out := f.mustRun(t, "apply remove_duplicates")
	assert.Contains(t, out, "Removed 1 duplicate rows")
	f.mustRun(t, "apply fill_missing score mean")

	err := f.run(t, "apply normalize city minmax")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")

	pipeline := f.store.Pipeline()
	require.Len(t, pipeline, 3)
	assert.Equal(t, model.StepApplied, pipeline[0].Status)
	assert.Equal(t, model.StepApplied, pipeline[1].Status)
	assert.Equal(t, model.StepError, pipeline[2].Status)
	assert.Equal(t, 3, f.store.Current().Len())

	out = f.mustRun(t, "steps")
	assert.Contains(t, out, shortID(pipeline[0].ID))
	assert.Contains(t, out, "error")

	out = f.mustRun(t, "remove "+pipeline[2].ID[:8])
	assert.Contains(t, out, "Removed step")
	assert.Len(t, f.store.Pipeline(), 2)

	out = f.mustRun(t, "remove "+pipeline[2].ID)
	assert.Contains(t, out, "No step")
	assert.Len(t, f.store.Pipeline(), 2)
}

func TestApplyRejectsBadArguments(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))

	for _, line := range []string{
		"apply",
		"apply shuffle",
		"apply fill_missing score",
		"apply fill_missing score average",
		"apply fill_missing score constant",
		"apply normalize score",
		"apply convert_type score money",
	} {
		assert.Error(t, f.run(t, line), line)
	}
	assert.Empty(t, f.store.Pipeline())
}

func TestResetAndReplay(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	f.mustRun(t, "apply remove_duplicates")
	f.mustRun(t, `apply drop_column "city"`)

	f.mustRun(t, "reset")
	assert.Equal(t, 4, f.store.Current().Len())
	assert.Equal(t, 3, len(f.store.Current().Columns))

	out := f.mustRun(t, "replay")
	assert.Contains(t, out, "Replayed 2 steps")
	assert.Equal(t, 3, f.store.Current().Len())
	assert.Equal(t, []string{"name", "score"}, f.store.Current().Columns)
}

func TestSaveLoadSessions(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	f.mustRun(t, "apply remove_duplicates")

	out := f.mustRun(t, "save first pass")
	assert.Contains(t, out, `"first pass"`)
	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "first pass", sessions[0].Name)

	f.mustRun(t, "apply drop_column city")
	assert.Len(t, f.store.Pipeline(), 2)

	f.mustRun(t, "load "+sessions[0].ID[:8])
	assert.Len(t, f.store.Pipeline(), 1)

	assert.Error(t, f.run(t, "load nope"))

	out = f.mustRun(t, "sessions")
	assert.Contains(t, out, sessions[0].ID)
	assert.Contains(t, out, "first pass")
}

func TestExecuteArgsPassesWordsVerbatim(t *testing.T) {
	f := newFixture(t)
	quit, err := f.shell.ExecuteArgs(context.Background(), []string{"login", "demo@app.com", "123456"})
	require.NoError(t, err)
	assert.False(t, quit)

	name := `say "hi" C:\tmp\run`
	_, err = f.shell.ExecuteArgs(context.Background(), []string{"save", name})
	require.NoError(t, err)
	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, name, sessions[0].Name)

	quit, err = f.shell.ExecuteArgs(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, quit)

	quit, err = f.shell.ExecuteArgs(context.Background(), []string{"quit"})
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestViewSwitching(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	out := f.mustRun(t, "view")
	assert.Contains(t, out, "No data loaded")

	err := f.run(t, "view settings")
	assert.ErrorIs(t, err, store.ErrInvalidView)
	assert.Equal(t, model.ViewUpload, f.store.ActiveView())

	out = f.mustRun(t, "view PIPELINE")
	assert.Contains(t, out, "No pipeline steps yet")
	assert.Equal(t, model.ViewPipeline, f.store.ActiveView())

	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	out = f.mustRun(t, "view analyze")
	assert.Contains(t, out, "Completeness")
	assert.Contains(t, out, "score")

	out = f.mustRun(t, "view export")
	assert.Contains(t, out, "Ready to export 4 rows")
}

func TestThemeStatusAndLogout(t *testing.T) {
	f := newFixture(t)

	out := f.mustRun(t, "theme")
	assert.Contains(t, out, "Dark mode on")

	f.login(t)
	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	out = f.mustRun(t, "status")
	assert.Contains(t, out, "demo@app.com")
	assert.Contains(t, out, "4 rows, 3 columns")
	assert.Contains(t, out, "dark")

	f.mustRun(t, "logout")
	assert.False(t, f.store.IsAuthenticated())
	assert.Nil(t, f.store.Current())
	assert.True(t, f.store.DarkMode())
	assert.Equal(t, "guest", f.shell.prompt())
}

func TestShowRows(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	assert.ErrorIs(t, f.run(t, "show"), errNoData)

	f.mustRun(t, "upload "+writeFile(t, "people.csv", sampleCSV))
	out := f.mustRun(t, "show 2")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "Showing 2 of 4 rows")
	assert.NotContains(t, out, "Cy")

	out = f.mustRun(t, "show")
	assert.Contains(t, out, "null")

	assert.Error(t, f.run(t, "show -1"))
}

func TestReportNeedsMetrics(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	assert.Error(t, f.run(t, "report"))

	metrics := cleaner.NewMetrics(nil)
	f.shell.WithMetrics(metrics)
	out := f.mustRun(t, "report")
	assert.Contains(t, out, "Cleaning Metrics Report")
}

func TestImportFromSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.db")
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	db.MustExec(`CREATE TABLE people (name TEXT, age INTEGER)`)
	db.MustExec(`INSERT INTO people VALUES ('Ann', 41), ('Bo', NULL), ('Cy', 25)`)
	require.NoError(t, db.Close())

	f := newFixture(t)
	f.login(t)
	assert.Error(t, f.run(t, "import sqlite main people"))

	cfg := &config.Config{SQLite: &config.SQLiteConfig{Path: path, QueryTimeout: time.Minute}}
	f.shell.WithSources(connector.NewConnectorFactory(cfg, zap.NewNop()))

	out := f.mustRun(t, "import sqlite main people 2")
	assert.Contains(t, out, "2 rows, 2 columns")
	assert.Equal(t, []string{"name", "age"}, f.store.Current().Columns)
	assert.Equal(t, model.ViewClean, f.store.ActiveView())

	assert.Error(t, f.run(t, "import sqlite main people many"))
	assert.Error(t, f.run(t, "import oracle main people"))
}

func TestRunLoop(t *testing.T) {
	f := newFixture(t)
	input := strings.NewReader("login demo@app.com 123456\nbogus\n\nstatus\nquit\nstatus\n")

	require.NoError(t, f.shell.Run(context.Background(), input))
	out := f.out.String()
	assert.Contains(t, out, "Signed in as demo@app.com")
	assert.Contains(t, out, `Error: unknown command "bogus"`)
	assert.Equal(t, 1, strings.Count(out, "View:"), "commands after quit are not run")
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.shell.Run(context.Background(), strings.NewReader("theme")))
	assert.True(t, f.store.DarkMode())
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "", want: nil},
		{line: "   ", want: nil},
		{line: "apply drop_column city", want: []string{"apply", "drop_column", "city"}},
		{line: "  save   my  run ", want: []string{"save", "my", "run"}},
		{line: `apply drop_column "first name"`, want: []string{"apply", "drop_column", "first name"}},
		{line: `apply fill_missing x constant ""`, want: []string{"apply", "fill_missing", "x", "constant", ""}},
		{line: "a\tb", want: []string{"a", "b"}},
		{line: `apply drop_column "oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOperation(t *testing.T) {
	tests := []struct {
		args []string
		want model.Operation
	}{
		{[]string{"remove_duplicates"}, model.RemoveDuplicates{}},
		{[]string{"FILL_MISSING", "age", "Median"}, model.FillMissing{Column: "age", Strategy: model.FillMedian}},
		{[]string{"fill_missing", "age", "constant", "0"}, model.FillMissing{Column: "age", Strategy: model.FillConstant, Value: "0"}},
		{[]string{"drop_column", "Age"}, model.DropColumn{Column: "Age"}},
		{[]string{"convert_type", "age", "boolean"}, model.ConvertType{Column: "age", Target: model.TargetBoolean}},
		{[]string{"normalize", "age", "zscore"}, model.Normalize{Column: "age", Method: model.ScaleZScore}},
		{[]string{"encode_categorical", "city", "onehot"}, model.EncodeCategorical{Column: "city", Method: model.EncodeOneHot}},
	}
	for _, tt := range tests {
		got, err := parseOperation(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, got)
	}

	for _, args := range [][]string{
		{"remove_duplicates", "extra"},
		{"fill_missing", "age", "mean", "5"},
		{"drop_column"},
		{"encode_categorical", "city", "binary"},
		{"normalize", "age", "log"},
	} {
		_, err := parseOperation(args)
		assert.Error(t, err, args)
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789"}
	assert.Equal(t, "abc123", resolveID("abc", ids))
	assert.Equal(t, "ab", resolveID("ab", ids), "ambiguous prefixes are left alone")
	assert.Equal(t, "xyz789", resolveID("xyz789", ids))
	assert.Equal(t, "nope", resolveID("nope", ids))
}
