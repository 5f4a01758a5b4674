package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "lumina")
}

func Test_cfgDir_And_Paths(t *testing.T) {
	_ = withTmpConfig(t)
	got := cfgDir()
	base := os.Getenv("XDG_CONFIG_HOME") + "/lumina"
	if got != base {
		t.Fatalf("cfgDir=%q, want %q", got, base)
	}
	if !strings.HasPrefix(tokenPath(), base) || !strings.HasSuffix(tokenPath(), "token.json") {
		t.Fatalf("tokenPath unexpected: %s", tokenPath())
	}
}

func Test_token_SaveLoad(t *testing.T) {
	_ = withTmpConfig(t)

	if _, err := loadToken(); err == nil {
		t.Fatalf("expected error when token file missing")
	}
	now := time.Now().Add(1 * time.Minute)
	if err := saveToken("tok", now); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	tok, err := loadToken()
	if err != nil || tok != "tok" {
		t.Fatalf("loadToken: tok=%q err=%v", tok, err)
	}
	if err := saveToken("tok2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("saveToken expired: %v", err)
	}
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error for expired token")
	}

	clearToken()
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error after clearToken")
	}
}

func Test_readAll_File_And_Stdin(t *testing.T) {
	t.Parallel()

	// file path
	tmp := filepath.Join(t.TempDir(), "f.txt")
	_ = os.WriteFile(tmp, []byte("hello"), 0o600)
	b, err := readAll(tmp)
	if err != nil || string(b) != "hello" {
		t.Fatalf("readAll(file): %q %v", b, err)
	}

	// stdin
	r, w, _ := os.Pipe()
	old := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = old }()
	go func() { _, _ = io.WriteString(w, "from-stdin"); _ = w.Close() }()
	b, err = readAll("-")
	if err != nil || string(b) != "from-stdin" {
		t.Fatalf("readAll(stdin): %q %v", b, err)
	}
}

func Test_printJSON_WritesPretty(t *testing.T) {
	t.Parallel()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	printJSON(map[string]any{"a": 1})
	_ = w.Close()
	out, _ := io.ReadAll(r)

	var m map[string]any
	if json.Unmarshal(out, &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", string(out))
	}
	if !bytes.Contains(out, []byte("\n")) {
		t.Fatalf("printJSON should indent")
	}
}

func Test_readLines(t *testing.T) {
	t.Parallel()

	got := readLines([]byte("  plays guitar \n\nreads sci-fi\n  \n"))
	want := []string{"plays guitar", "reads sci-fi"}
	if len(got) != len(want) {
		t.Fatalf("readLines: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("readLines[%d]=%q, want %q", i, got[i], want[i])
		}
	}
	if out := readLines(nil); len(out) != 0 {
		t.Fatalf("readLines(nil)=%v, want empty", out)
	}
}

func Test_findItem(t *testing.T) {
	t.Parallel()

	items := []model.RewardItem{
		{ID: "break-15", Name: "15 Minute Break", Cost: 30},
		{ID: "movie-night", Name: "Movie Night", Cost: 150},
	}
	it, ok := findItem(items, "movie-night")
	if !ok || it.Cost != 150 {
		t.Fatalf("findItem: %v %v", it, ok)
	}
	if _, ok := findItem(items, "nope"); ok {
		t.Fatalf("findItem should miss unknown id")
	}
}

func Test_envDefault(t *testing.T) {
	t.Setenv("LUMINA_TEST_ADDR", "")
	if got := envDefault("LUMINA_TEST_ADDR", "fallback"); got != "fallback" {
		t.Fatalf("envDefault empty: %q", got)
	}
	t.Setenv("LUMINA_TEST_ADDR", "http://x:1")
	if got := envDefault("LUMINA_TEST_ADDR", "fallback"); got != "http://x:1" {
		t.Fatalf("envDefault set: %q", got)
	}
}
