// Command contract_compare replays requests against the legacy chat-bot API
// and this service and reports contract differences. Only requests that never
// reach the portal belong in the targets file.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Name     string            `json:"name"`
	Method   string            `json:"method"`
	Path     string            `json:"path"`
	Headers  map[string]string `json:"headers"`
	Body     json.RawMessage   `json:"body"`
	Fields   []string          `json:"fields"`
	Critical bool              `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target       target
	LegacyStatus int
	GoStatus     int
	Diffs        []string
	Err          error
}

func (r result) ok() bool {
	return r.Err == nil && r.LegacyStatus == r.GoStatus && len(r.Diffs) == 0
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)
	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "Legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "contract_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	breaking, optional := 0, 0
	for _, t := range targets {
		res := compare(client, goBase, legacyBase, t)
		printResult(res)
		if res.ok() {
			continue
		}
		if t.Critical {
			breaking++
		} else {
			optional++
		}
	}

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase string, t target) result {
	res := result{Target: t}
	goStatus, goBody, err := send(client, goBase, t)
	if err != nil {
		res.Err = fmt.Errorf("go request: %w", err)
		return res
	}
	legacyStatus, legacyBody, err := send(client, legacyBase, t)
	if err != nil {
		res.Err = fmt.Errorf("legacy request: %w", err)
		return res
	}
	res.GoStatus, res.LegacyStatus = goStatus, legacyStatus
	res.Diffs, res.Err = fieldDiffs(goBody, legacyBody, t.Fields)
	return res
}

func send(client *http.Client, base string, t target) (int, []byte, error) {
	method := strings.ToUpper(strings.TrimSpace(t.Method))
	if method == "" {
		method = http.MethodPost
	}
	path := t.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, bytes.NewReader(t.Body))
	if err != nil {
		return 0, nil, err
	}
	if len(t.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// fieldDiffs compares the listed top-level JSON fields. The Go service adds
// fields (codigo, relatorio) that the legacy API never sent, so bodies are
// never compared whole.
func fieldDiffs(goBody, legacyBody []byte, fields []string) ([]string, error) {
	if len(fields) == 0 {
		fields = []string{"sucesso", "mensagem"}
	}
	var goJSON, legacyJSON map[string]interface{}
	if err := json.Unmarshal(goBody, &goJSON); err != nil {
		return nil, fmt.Errorf("decode go body: %w", err)
	}
	if err := json.Unmarshal(legacyBody, &legacyJSON); err != nil {
		return nil, fmt.Errorf("decode legacy body: %w", err)
	}

	var diffs []string
	for _, f := range fields {
		if !reflect.DeepEqual(goJSON[f], legacyJSON[f]) {
			diffs = append(diffs, fmt.Sprintf("%s: go=%v legacy=%v", f, goJSON[f], legacyJSON[f]))
		}
	}
	return diffs, nil
}

func printResult(r result) {
	name := r.Target.Name
	if name == "" {
		name = r.Target.Method + " " + r.Target.Path
	}
	switch {
	case r.Err != nil:
		fmt.Printf("ERR  %-40s %v\n", name, r.Err)
	case r.ok():
		fmt.Printf("OK   %-40s %d\n", name, r.GoStatus)
	default:
		fmt.Printf("DIFF %-40s status go=%d legacy=%d\n", name, r.GoStatus, r.LegacyStatus)
		for _, d := range r.Diffs {
			fmt.Printf("       %s\n", d)
		}
	}
}
