package git

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// loadReferences populates the store's reference mappings and local-branch
// distances from the dereferenced reference listing. It runs synchronously
// after history ingestion; a listing failure leaves the store without
// references rather than failing the cycle.
func (l *RepoLoader) loadReferences(ctx context.Context) {
	slog.Debug("loading references")

	out, err := l.base.Run(ctx, "show-ref", "-d")
	if err != nil {
		slog.Debug("reference listing failed", slog.Any("error", err))
		return
	}

	head, err := l.base.LastCommit(ctx)
	if err == nil {
		slog.Debug("current branch commit", slog.String("sha", head))
	}

	refs := classifyRefs(out)

	var locals []string
	for _, ref := range refs {
		l.store.InsertReference(ref.Sha, ref.Type, ref.Name)
		if ref.Type == RefTypeLocalBranch {
			locals = append(locals, ref.Name)
		}
	}

	// The distance queries are independent per branch; run them
	// concurrently and insert in ref order once all have finished.
	distances := make([]LocalBranchDistances, len(locals))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range locals {
		i, name := i, name
		g.Go(func() error {
			distances[i] = l.branches.Distances(gctx, name)
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range locals {
		l.store.InsertLocalBranchDistances(name, distances[i])
	}
}

// classifyRefs decodes show-ref -d output lines of the shape
// "<40-char sha> <refname>" into typed references.
//
// Annotated tags appear twice in the listing: the tag object line and a
// dereferenced line suffixed "^{}" pointing at the commit. The
// dereferenced line wins with the marker stripped; a plain tag line is
// kept only when no dereferenced counterpart exists (lightweight tags).
// The remote HEAD alias is excluded entirely.
func classifyRefs(out string) []Reference {
	const (
		tagPrefix    = "refs/tags/"
		headPrefix   = "refs/heads/"
		remotePrefix = "refs/remotes/"
		peeledSuffix = "^{}"
	)

	peeled := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) > shaLength+1 {
			if name := line[shaLength+1:]; strings.HasSuffix(name, peeledSuffix) {
				peeled[strings.TrimSuffix(name, peeledSuffix)] = struct{}{}
			}
		}
	}

	var refs []Reference
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < shaLength+2 {
			continue
		}
		sha := line[:shaLength]
		refName := line[shaLength+1:]

		switch {
		case strings.HasPrefix(refName, tagPrefix):
			name := strings.TrimPrefix(refName, tagPrefix)
			if stripped, ok := strings.CutSuffix(name, peeledSuffix); ok {
				name = stripped
			} else if _, hasPeeled := peeled[refName]; hasPeeled {
				// Pointer artifact: the dereferenced line carries the commit.
				continue
			}
			if name == "" {
				continue
			}
			refs = append(refs, Reference{Sha: sha, Type: RefTypeTag, Name: name})
		case strings.HasPrefix(refName, headPrefix):
			name := strings.TrimPrefix(refName, headPrefix)
			if name == "" {
				continue
			}
			refs = append(refs, Reference{Sha: sha, Type: RefTypeLocalBranch, Name: name})
		case strings.HasPrefix(refName, remotePrefix) && !strings.HasSuffix(refName, "HEAD"):
			name := strings.TrimPrefix(refName, remotePrefix)
			if name == "" {
				continue
			}
			refs = append(refs, Reference{Sha: sha, Type: RefTypeRemoteBranch, Name: name})
		default:
			continue
		}
	}
	return refs
}
