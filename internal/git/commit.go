package git

import (
	"fmt"
	"strconv"
	"strings"
)

// logFormat is the pretty-format string the bulk log command is issued
// with. Order and separators are load-bearing: parseCommitToken decodes
// exactly this shape. The trailing space guarantees a body field even for
// commits with an empty message.
const logFormat = "%m%HX%P%n%cn<%ce>%n%an<%ae>%n%at%n%s%n%b "

// parseCommitToken decodes one NUL-separated token of the bulk log output.
//
// A token starts with a one-character merge/boundary marker, the 40-char
// commit hash, a literal 'X' and the space-separated parent hashes; the
// remaining newline-delimited fields are committer, author, author
// timestamp, subject and body. The --log-size line git prepends to each
// record is skipped.
func parseCommitToken(token []byte) (CommitInfo, error) {
	text := string(token)
	if rest, ok := strings.CutPrefix(text, "log size "); ok {
		_, after, found := strings.Cut(rest, "\n")
		if !found {
			return CommitInfo{}, fmt.Errorf("truncated log size header")
		}
		text = after
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 5 {
		return CommitInfo{}, fmt.Errorf("unexpected commit record: got %d fields", len(lines))
	}

	header := lines[0]
	if len(header) < 1+shaLength+1 {
		return CommitInfo{}, fmt.Errorf("commit header too short: %q", header)
	}
	marker := header[0]
	sha := header[1 : 1+shaLength]
	if header[1+shaLength] != 'X' {
		return CommitInfo{}, fmt.Errorf("missing parent delimiter in header: %q", header)
	}
	parents := strings.Fields(header[1+shaLength+1:])

	committer, committerEmail := splitSignature(lines[1])
	author, authorEmail := splitSignature(lines[2])
	// The original loader tolerates a malformed timestamp and keeps the rest
	// of the record.
	authorDate, _ := strconv.ParseInt(strings.TrimSpace(lines[3]), 10, 64)

	body := ""
	if len(lines) > 5 {
		body = strings.Join(lines[5:], "\n")
		// Strip the single trailing space appended by the format string.
		body = strings.TrimSuffix(body, " ")
	}

	return CommitInfo{
		Sha:            sha,
		Parents:        parents,
		Committer:      committer,
		CommitterEmail: committerEmail,
		Author:         author,
		AuthorEmail:    authorEmail,
		AuthorDate:     authorDate,
		ShortLog:       lines[4],
		LongLog:        body,
		Boundary:       marker == '-',
	}, nil
}

// splitSignature decodes a "Name<email>" field.
func splitSignature(field string) (name, email string) {
	idx := strings.LastIndex(field, "<")
	if idx < 0 {
		return strings.TrimSpace(field), ""
	}
	name = strings.TrimSpace(field[:idx])
	email = strings.TrimSuffix(field[idx+1:], ">")
	return name, email
}
