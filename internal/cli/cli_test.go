package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	testProject = "0190b1d4-7f5a-7b8e-9a51-2c4d3e8f9a10"
	testToken   = "0190b1d4-8000-7000-8000-000000000001"
)

type fakeServer struct {
	*httptest.Server
	polls    atomic.Int32
	uploaded atomic.Value // []byte
	encoding atomic.Value // string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "name").String() == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"result":0,"error":"invalid value for Name: failed on required"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uuid":"` + testProject + `"}`))
	})
	mux.HandleFunc("GET /v1/projects/{id}/components", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uuid":"c1","name":"a","version":"1.0","purl":"pkg:npm/a@1.0","resolvedLicense":"Apache-2.0","internal":false},
			{"uuid":"c2","name":"b","version":"2.0","license":"Acme EULA","internal":true}]`))
	})
	mux.HandleFunc("POST /v1/licenses", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uuid":"l1"}`))
	})
	mux.HandleFunc("POST /v1/bom", func(w http.ResponseWriter, r *http.Request) {
		var body io.Reader = r.Body
		f.encoding.Store(r.Header.Get("Content-Encoding"))
		if r.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body = zr
		}
		data, _ := io.ReadAll(body)
		f.uploaded.Store(data)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"token":"` + testToken + `"}`))
	})
	mux.HandleFunc("GET /v1/bom/token/{token}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("token") != testToken {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"result":0,"error":"unknown upload token"}`))
			return
		}
		if f.polls.Add(1) < 3 {
			w.Write([]byte(`{"token":"` + testToken + `","processing":true,"state":"PROCESSING"}`))
			return
		}
		w.Write([]byte(`{"token":"` + testToken + `","project":"` + testProject + `","processing":false,"state":"COMPLETED",
			"result":{"format":"CycloneDX","specVersion":"1.5","stats":{"componentsCreated":2}}}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command against the given config file.
func runCLI(t *testing.T, cfgFile string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	statusInterval = time.Millisecond
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) (*fakeServer, string) {
	t.Helper()
	srv := newFakeServer(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	_, err := runCLI(t, cfgFile, "config", "set-server", srv.URL)
	require.NoError(t, err)
	return srv, cfgFile
}

func TestConfigCommands(t *testing.T) {
	srv, cfgFile := setup(t)
	out, err := runCLI(t, cfgFile, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL)

	_, err = runCLI(t, cfgFile, "config", "set-server", "ftp://nowhere")
	assert.Error(t, err)

	_, err = runCLI(t, filepath.Join(t.TempDir(), "absent.yaml"), "components", testProject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config set-server")
}

func TestProjectCommands(t *testing.T) {
	_, cfgFile := setup(t)

	out, err := runCLI(t, cfgFile, "project", "create", "--name", "acme-app", "--version", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "project created: "+testProject+"\n", out)

	out, err = runCLI(t, cfgFile, "-j", "project", "create", "--name", "acme-app")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "result").Int())
	assert.Equal(t, testProject, gjson.Get(out, "value.uuid").String())

	_, err = runCLI(t, cfgFile, "project", "create")
	assert.Error(t, err, "name is required")
}

func TestComponentsCommand(t *testing.T) {
	_, cfgFile := setup(t)

	out, err := runCLI(t, cfgFile, "components", testProject)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "Apache-2.0")
	assert.Contains(t, lines[2], "Acme EULA")
	assert.Contains(t, lines[2], "-")

	out, err = runCLI(t, cfgFile, "--yaml", "components", testProject)
	require.NoError(t, err)
	assert.Contains(t, out, "- internal: false")
	assert.Contains(t, out, "purl: pkg:npm/a@1.0")

	_, err = runCLI(t, cfgFile, "--yaml", "--json", "components", testProject)
	assert.Error(t, err)
}

func TestLicenseCommand(t *testing.T) {
	_, cfgFile := setup(t)
	out, err := runCLI(t, cfgFile, "license", "add", "--id", "Apache-2.0", "--name", "Apache License 2.0")
	require.NoError(t, err)
	assert.Contains(t, out, "license added")

	_, err = runCLI(t, cfgFile, "license", "add", "--name", "No Id")
	assert.Error(t, err)
}

func TestUploadCommand(t *testing.T) {
	srv, cfgFile := setup(t)
	bomFile := filepath.Join(t.TempDir(), "bom.json")
	doc := []byte(`{"bomFormat":"CycloneDX","specVersion":"1.5"}`)
	require.NoError(t, writeFile(bomFile, doc))

	out, err := runCLI(t, cfgFile, "upload", bomFile, "--project", testProject)
	require.NoError(t, err)
	assert.Equal(t, "upload queued, token: "+testToken+"\n", out)
	assert.Equal(t, doc, srv.uploaded.Load())
	assert.Equal(t, "", srv.encoding.Load())

	out, err = runCLI(t, cfgFile, "upload", bomFile, "--project", testProject, "--gzip", "--wait")
	require.NoError(t, err)
	assert.Equal(t, "gzip", srv.encoding.Load())
	assert.Equal(t, doc, srv.uploaded.Load())
	assert.Contains(t, out, "state:   COMPLETED")
	assert.Contains(t, out, "components: 2 created")
	assert.GreaterOrEqual(t, srv.polls.Load(), int32(3))

	out, err = runCLI(t, cfgFile, "-j", "status", testToken)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", gjson.Get(out, "value.state").String())

	_, err = runCLI(t, cfgFile, "status", "0190b1d4-8000-7000-8000-000000000099")
	require.Error(t, err)
	assert.Equal(t, "unknown upload token", err.Error())
}

func writeFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}
