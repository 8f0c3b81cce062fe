package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	uploadProject  string
	uploadWait     bool
	uploadTimeout  time.Duration
	uploadGzip     bool
	statusInterval = 500 * time.Millisecond
)

var uploadCmd = &cobra.Command{
	Use:   "upload <bom-file>",
	Short: "Upload a BOM to a project",
	Long: `Upload a CycloneDX JSON document to a project. The server queues the
document and answers with an upload token; --wait polls the token until the
import finishes.

Example:
  inventory-cli upload bom.json --project 0190b1d4-7f5a-7b8e-9a51-2c4d3e8f9a10 --wait`,
	Args: cobra.ExactArgs(1),
	RunE: uploadBom,
}

var statusCmd = &cobra.Command{
	Use:   "status <upload-token>",
	Short: "Show the processing state of an upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := NewHTTPClient(GetConfig()).Get("/v1/bom/token/" + args[0])
		if err != nil {
			return err
		}
		if structuredOutput() {
			return printResponse(cmd.OutOrStdout(), body)
		}
		printStatus(cmd.OutOrStdout(), body)
		return nil
	},
}

func uploadBom(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("unable to read bom: %v", err)
	}
	opts := RequestOptions{
		Method:      http.MethodPost,
		Path:        "/v1/bom",
		QueryParams: map[string]string{"project": uploadProject},
		Body:        data,
	}
	if uploadGzip {
		opts.Body, err = compress(data)
		if err != nil {
			return err
		}
		opts.Headers = map[string]string{"Content-Encoding": "gzip"}
	}

	client := NewHTTPClient(GetConfig())
	body, _, err := client.DoRequest(opts)
	if err != nil {
		return err
	}
	token := gjson.GetBytes(body, "token").String()
	if !uploadWait {
		if structuredOutput() {
			return printResponse(cmd.OutOrStdout(), body)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "upload queued, token: %s\n", token)
		return nil
	}

	status, err := waitForToken(client, token, uploadTimeout)
	if err != nil {
		return err
	}
	if structuredOutput() {
		if err := printResponse(cmd.OutOrStdout(), status); err != nil {
			return err
		}
	} else {
		printStatus(cmd.OutOrStdout(), status)
	}
	if gjson.GetBytes(status, "state").String() == "FAILED" {
		return fmt.Errorf("import failed: %s", gjson.GetBytes(status, "error").String())
	}
	return nil
}

func waitForToken(client *HTTPClient, token string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		body, err := client.Get("/v1/bom/token/" + token)
		if err != nil {
			return nil, err
		}
		if !gjson.GetBytes(body, "processing").Bool() {
			return body, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("upload %s still processing after %s", token, timeout)
		}
		time.Sleep(statusInterval)
	}
}

func printStatus(w io.Writer, body []byte) {
	st := gjson.ParseBytes(body)
	fmt.Fprintf(w, "token:   %s\n", st.Get("token").String())
	fmt.Fprintf(w, "project: %s\n", st.Get("project").String())
	fmt.Fprintf(w, "state:   %s\n", st.Get("state").String())
	if e := st.Get("error").String(); e != "" {
		fmt.Fprintf(w, "error:   %s\n", e)
	}
	if res := st.Get("result"); res.Exists() {
		stats := res.Get("stats")
		fmt.Fprintf(w, "format:  %s %s\n", res.Get("format").String(), res.Get("specVersion").String())
		fmt.Fprintf(w, "components: %d created, %d updated, %d unchanged, %d deleted\n",
			stats.Get("componentsCreated").Int(), stats.Get("componentsUpdated").Int(),
			stats.Get("componentsUnchanged").Int(), stats.Get("componentsDeleted").Int())
		fmt.Fprintf(w, "services:   %d created, %d updated, %d unchanged, %d deleted\n",
			stats.Get("servicesCreated").Int(), stats.Get("servicesUpdated").Int(),
			stats.Get("servicesUnchanged").Int(), stats.Get("servicesDeleted").Int())
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("unable to compress bom: %v", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("unable to compress bom: %v", err)
	}
	return buf.Bytes(), nil
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadProject, "project", "p", "", "Project uuid")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "Wait until the import finishes")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 5*time.Minute, "How long --wait waits")
	uploadCmd.Flags().BoolVar(&uploadGzip, "gzip", false, "Compress the upload")
	uploadCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(uploadCmd, statusCmd)
}
