package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

const graphExport = `{"graphs":[{"meta":{"version":"http://purl.obolibrary.org/obo/hp/releases/2024-04-26/hp.json"},"nodes":[
	{"id":"http://purl.obolibrary.org/obo/HP_0000001","lbl":"Tall stature","neighbors":[{"id":"HP:0000002","score":0.9},{"id":"HP:0000003","score":0.4}]},
	{"id":"http://purl.obolibrary.org/obo/HP_0000002","lbl":"Long limbs","meta":{"synonyms":[{"val":"Dolichostenomelia"}]}},
	{"id":"http://purl.obolibrary.org/obo/HP_0000003","lbl":"Large hands"},
	{"id":"http://purl.obolibrary.org/obo/HP_0000004","lbl":"obsolete Tallness","meta":{"deprecated":true}}
]}]}`

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configPath, dataSource, debugMode, humanOutput = "", "", false, false
	preprocessOutput, exportOutput = "", ""
	relatedK, lookupLimit, searchLimit = 0, 20, 0

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	log.SetLevel(log.ErrorLevel)
	return stdout.String(), stderr.String(), err
}

// fixture writes the raw export, a processed dataset and an empty config.
func fixture(t *testing.T) (dir, raw, processed, cfg string) {
	t.Helper()
	dir = t.TempDir()
	raw = filepath.Join(dir, "hp.json")
	processed = filepath.Join(dir, "hpo_data.json")
	cfg = filepath.Join(dir, "config.toml")
	os.WriteFile(raw, []byte(graphExport), 0644)
	os.WriteFile(cfg, nil, 0644)

	if _, _, err := execute(t, "preprocess", raw, "-o", processed); err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	return dir, raw, processed, cfg
}

func TestPreprocessAndVersion(t *testing.T) {
	_, _, processed, _ := fixture(t)

	data, err := os.ReadFile(processed)
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(data)
	if doc.Get("hpo_version").String() != "2024-04-26" || doc.Get("nodes.#").Int() != 3 {
		t.Errorf("unexpected processed file: %s", data)
	}
	if doc.Get("nodes.0.id").String() != "HP:0000001" {
		t.Errorf("expected compact ids: %s", doc.Get("nodes.0.id"))
	}

	out, _, err := execute(t, "version", processed)
	if err != nil || out != "2024-04-26\n" {
		t.Errorf("unexpected version output %q (%v)", out, err)
	}
}

func TestVersionExitCodes(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		os.WriteFile(p, []byte(body), 0644)
		return p
	}

	testCases := []struct {
		path        string
		want        int
		description string
	}{
		{filepath.Join(dir, "missing.json"), ExitNotFound, "missing file"},
		{write("noversion.json", `{"nodes":[]}`), ExitNoVersion, "no version"},
		{write("unknown.json", `{"hpo_version":"Unknown","nodes":[]}`), ExitNoVersion, "unknown version"},
		{write("broken.json", `{"hpo_version":`), ExitDataFormat, "invalid json"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			out, _, err := execute(t, "version", tc.path)
			if got := exitCodeFor(err); got != tc.want {
				t.Errorf("expected exit %d, got %d (%v)", tc.want, got, err)
			}
			if out != "" {
				t.Errorf("nothing should reach stdout on error, got %q", out)
			}
		})
	}
}

func TestQueryCommands(t *testing.T) {
	_, _, processed, cfg := fixture(t)
	base := []string{"--config", cfg, "--data", processed}

	out, _, err := execute(t, append([]string{"search", "dolicho"}, base...)...)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if r := gjson.Parse(out); r.Get("#").Int() != 1 || r.Get("0.id").String() != "HP:0000002" {
		t.Errorf("unexpected search output: %s", out)
	}

	out, _, err = execute(t, append([]string{"related", "HP:0000001", "-k", "1"}, base...)...)
	if err != nil {
		t.Fatalf("related failed: %v", err)
	}
	if r := gjson.Parse(out); r.Get("#").Int() != 1 || r.Get("0.score").Float() != 0.9 {
		t.Errorf("unexpected related output: %s", out)
	}

	out, _, err = execute(t, append([]string{"lookup", "hp:000000", "--human"}, base...)...)
	if err != nil || strings.Count(out, "\n") != 3 {
		t.Errorf("unexpected lookup output %q (%v)", out, err)
	}

	_, _, err = execute(t, append([]string{"related", "HP:0000001", "HP:9"}, base...)...)
	if exitCodeFor(err) != ExitNotFound || !strings.Contains(err.Error(), "HP:9") {
		t.Errorf("expected unknown term error, got %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	dir, _, processed, cfg := fixture(t)
	base := []string{"--config", cfg, "--data", processed}

	out, _, err := execute(t, append([]string{"export", "HP:0000003", "HP:0000001", "HP:0000003"}, base...)...)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	want := "\"HPO ID\",\"Term Name\"\n\"HP:0000003\",Large hands\n\"HP:0000001\",Tall stature\n"
	if out != want {
		t.Errorf("unexpected csv:\n%s", out)
	}

	target := filepath.Join(dir, "sel.csv")
	if _, _, err := execute(t, append([]string{"export", "HP:0000002", "-o", target}, base...)...); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
	if data, _ := os.ReadFile(target); !strings.Contains(string(data), "Long limbs") {
		t.Errorf("unexpected file contents: %s", data)
	}
}

func TestDataFormatExitCode(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	cfg := filepath.Join(dir, "config.toml")
	os.WriteFile(bad, []byte(`{"terms":[]}`), 0644)
	os.WriteFile(cfg, nil, 0644)

	_, _, err := execute(t, "search", "tall", "--config", cfg, "--data", bad)
	if exitCodeFor(err) != ExitDataFormat {
		t.Errorf("expected data format exit, got %v", err)
	}

	_, _, err = execute(t, "preprocess", bad)
	if exitCodeFor(err) != ExitDataFormat {
		t.Errorf("expected data format exit from preprocess, got %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	_, _, _, cfg := fixture(t)

	stdout, _, err := execute(t, "config", "path", "--config", cfg)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	doc := gjson.Parse(stdout)
	if got := doc.Get("config").String(); filepath.Base(got) != "config.toml" || !filepath.IsAbs(got) {
		t.Errorf("expected absolute config path, got %q", got)
	}
	if !doc.Get("runtime.os").Exists() || !doc.Get("runtime.config_dir").Exists() {
		t.Errorf("expected runtime info, got %s", stdout)
	}

	stdout, _, err = execute(t, "config", "path", "--config", cfg, "--human")
	if err != nil {
		t.Fatalf("config path --human: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if !strings.HasSuffix(lines[0], "config.toml") || !strings.Contains(stdout, "executable_dir") {
		t.Errorf("unexpected human output:\n%s", stdout)
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	for _, sub := range rootCmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		if !strings.Contains(rootCmd.Long, "\n  "+sub.Name()+" ") {
			t.Errorf("root help does not list %q", sub.Name())
		}
	}
}
