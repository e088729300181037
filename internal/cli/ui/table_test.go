package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Path", "Key", "Kind")
	table.AddRow("Forum.Announcement", "pfx:annt", "string")
	table.AddRow("Forum.Discussions[ID]", "pfx:dscs:{ID}", "hash")
	table.AddRow("short")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, rule and 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], padRight("Path", len("Forum.Discussions[ID]"))+"  Key") {
		t.Errorf("header not aligned to widest cell: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], strings.Repeat("─", len("Forum.Discussions[ID]"))+"  ") {
		t.Errorf("rule does not span the first column: %q", lines[1])
	}
	if got := strings.Index(lines[3], "pfx:dscs"); got != strings.Index(lines[0], "Key") {
		t.Errorf("key column starts at %d, header at %d", got, strings.Index(lines[0], "Key"))
	}
	if strings.TrimRight(lines[4], " ") != "short" {
		t.Errorf("short row rendered as %q", lines[4])
	}
	if table.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", table.Len())
	}
}

func TestTableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true)
	table.AddRow("ignored")
	table.Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Entry", "Forum.Discussions[ID].Title")
	kv.AddRow("Kind", "string")
	kv.Render()

	want := "Entry: Forum.Discussions[ID].Title\nKind:  string\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Forum", true)

	if buf.String() != "Forum\n─────\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ab", 4, "ab  "},
		{"abcd", 2, "abcd"},
		{"─", 3, "─  "},
	}
	for _, tt := range tests {
		if got := padRight(tt.in, tt.n); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q; want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
