package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.json")
	if err := SafeWriteFile(p, []byte("{}")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "{}" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestRunDirName(t *testing.T) {
	cases := map[[2]string]string{
		{"data/sales.csv", "1a2b3c4d-5e6f"}: "sales-1a2b3c4d",
		{"Q1 report.xlsx", "abc"}:           "Q1_report-abc",
		{".csv", ""}:                        "run",
	}
	for in, want := range cases {
		if got := RunDirName(in[0], in[1]); got != want {
			t.Fatalf("RunDirName(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", b)
	}
}
