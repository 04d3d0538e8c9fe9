package git

import (
	"slices"
	"testing"
)

const (
	shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	shaC = "cccccccccccccccccccccccccccccccccccccccc"
)

func TestParseCommitToken(t *testing.T) {
	t.Parallel()

	token := ">" + shaA + "X" + shaB + " " + shaC + "\n" +
		"Bob<bob@example.com>\n" +
		"Alice<alice@example.com>\n" +
		"1700000000\n" +
		"Merge branch 'feature'\n" +
		"First body line\nSecond body line "

	rev, err := parseCommitToken([]byte(token))
	if err != nil {
		t.Fatalf("parseCommitToken() error = %v", err)
	}
	if rev.Sha != shaA {
		t.Fatalf("sha = %q, want %q", rev.Sha, shaA)
	}
	if !slices.Equal(rev.Parents, []string{shaB, shaC}) {
		t.Fatalf("parents = %#v", rev.Parents)
	}
	if !rev.IsMerge() {
		t.Fatal("expected a merge commit")
	}
	if rev.Committer != "Bob" || rev.CommitterEmail != "bob@example.com" {
		t.Fatalf("committer = %q <%q>", rev.Committer, rev.CommitterEmail)
	}
	if rev.Author != "Alice" || rev.AuthorEmail != "alice@example.com" {
		t.Fatalf("author = %q <%q>", rev.Author, rev.AuthorEmail)
	}
	if rev.AuthorDate != 1700000000 {
		t.Fatalf("author date = %d", rev.AuthorDate)
	}
	if rev.ShortLog != "Merge branch 'feature'" {
		t.Fatalf("short log = %q", rev.ShortLog)
	}
	if rev.LongLog != "First body line\nSecond body line" {
		t.Fatalf("long log = %q", rev.LongLog)
	}
	if rev.Boundary {
		t.Fatal("unexpected boundary mark")
	}
}

func TestParseCommitToken_LogSizeHeader(t *testing.T) {
	t.Parallel()

	token := "log size 215\n>" + shaA + "X\n" +
		"Bob<bob@example.com>\n" +
		"Alice<alice@example.com>\n" +
		"1700000000\n" +
		"Initial commit\n "

	rev, err := parseCommitToken([]byte(token))
	if err != nil {
		t.Fatalf("parseCommitToken() error = %v", err)
	}
	if rev.Sha != shaA {
		t.Fatalf("sha = %q, want %q", rev.Sha, shaA)
	}
	if len(rev.Parents) != 0 {
		t.Fatalf("parents = %#v, want none", rev.Parents)
	}
	if rev.LongLog != "" {
		t.Fatalf("long log = %q, want empty", rev.LongLog)
	}
}

func TestParseCommitToken_BoundaryMark(t *testing.T) {
	t.Parallel()

	token := "-" + shaA + "X\n" +
		"Bob<bob@example.com>\n" +
		"Alice<alice@example.com>\n" +
		"1700000000\n" +
		"Boundary commit\n "

	rev, err := parseCommitToken([]byte(token))
	if err != nil {
		t.Fatalf("parseCommitToken() error = %v", err)
	}
	if !rev.Boundary {
		t.Fatal("expected boundary mark")
	}
}

func TestParseCommitToken_BodyBytesPreserved(t *testing.T) {
	t.Parallel()

	token := ">" + shaA + "X\n" +
		"Bob<bob@example.com>\n" +
		"Alice<alice@example.com>\n" +
		"1700000000\n" +
		"Subject\n" +
		"Body text\n "

	rev, err := parseCommitToken([]byte(token))
	if err != nil {
		t.Fatalf("parseCommitToken() error = %v", err)
	}
	if rev.LongLog != "Body text\n" {
		t.Fatalf("long log = %q, want %q", rev.LongLog, "Body text\n")
	}
}

func TestParseCommitToken_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":              "",
		"garbage":            "garbage",
		"missing delimiter":  ">" + shaA + "Y\ncommitter<c@e>\nauthor<a@e>\n1\nsubject\n ",
		"short header":       ">" + shaA[:10] + "\ncommitter<c@e>\nauthor<a@e>\n1\nsubject\n ",
		"missing fields":     ">" + shaA + "X" + shaB + "\ncommitter<c@e>",
		"truncated log size": "log size 215",
	}
	for name, token := range cases {
		token := token
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseCommitToken([]byte(token)); err == nil {
				t.Fatalf("expected error for %q", token)
			}
		})
	}
}

func TestSplitSignature(t *testing.T) {
	t.Parallel()

	name, email := splitSignature("Alice Doe<alice@example.com>")
	if name != "Alice Doe" || email != "alice@example.com" {
		t.Fatalf("got %q <%q>", name, email)
	}

	name, email = splitSignature("no email here")
	if name != "no email here" || email != "" {
		t.Fatalf("got %q <%q>", name, email)
	}
}
