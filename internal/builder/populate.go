// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/m3bridge/internal/cli"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/request"
)

func populate(_ context.Context, s *buildState) error {
	cl, req := s.cl, s.req

	for _, o := range cli.Options() {
		if o.Deprecated && cl.Has(o.Long) {
			s.b.Logger.Warn("Command line option -" + o.Short + " is deprecated and will be removed in future Maven versions.")
		}
	}

	if cl.Has(cli.BatchMode) {
		req.Interactive = false
		req.Color = false
	}
	if cl.Has(cli.NonRecursive) {
		req.Recursive = false
	}
	switch cl.Last(cli.FailFast, cli.FailAtEnd, cli.FailNever) {
	case cli.FailAtEnd:
		req.FailureBehavior = request.FailAtEnd
	case cli.FailNever:
		req.FailureBehavior = request.FailNever
	case cli.FailFast:
		req.FailureBehavior = request.FailFast
	}
	if cl.Has(cli.Offline) {
		req.Offline = true
	}
	req.UpdateSnapshots = cl.Has(cli.UpdateSnapshots)
	req.NoSnapshotUpdates = cl.Has(cli.NoSnapshotUpdates)
	req.NoTransferProgress = cl.Has(cli.NoTransferProgress)

	switch {
	case cl.Has(cli.StrictChecksums):
		req.ChecksumPolicy = request.ChecksumFail
	case cl.Has(cli.LaxChecksums):
		req.ChecksumPolicy = request.ChecksumWarn
	}

	if err := applyProfiles(req, cl.Values(cli.ActivateProfiles)); err != nil {
		return err
	}
	if err := applyProjects(req, cl.Values(cli.Projects)); err != nil {
		return err
	}
	req.MakeBehavior = request.DeriveMakeBehavior(cl.Has(cli.AlsoMake), cl.Has(cli.AlsoMakeDependents))

	if cl.Has(cli.ResumeFrom) {
		req.ResumeFrom = cl.Value(cli.ResumeFrom)
	}

	if err := s.resolvePom(); err != nil {
		return err
	}
	if err := req.AddGoals(cl.Args()...); err != nil {
		return err
	}

	if repo, ok := req.UserProperties.Get(PropRepoLocal); ok {
		req.LocalRepository = repo
	} else if repo, ok := req.SystemProperties.Get(PropRepoLocal); ok {
		req.LocalRepository = repo
	}

	if cl.Has(cli.Threads) {
		n, err := parseThreads(cl.Value(cli.Threads), s.b.NumCPU())
		if err != nil {
			return err
		}
		// Counts of one or less keep the single-threaded default.
		if n > 1 {
			req.DegreeOfConcurrency = n
			req.BuilderID = request.BuilderMultiThreaded
		}
	}
	if cl.Has(cli.Builder) {
		req.BuilderID = cl.Value(cli.Builder)
	}

	req.Listener = s.b.Listener
	req.CacheNotFound = true
	req.CacheTransferError = false
	return nil
}

// applyProfiles splits -P values. A leading "-" or "!" deactivates, a
// leading "+" or no prefix activates.
func applyProfiles(req *request.Request, values []string) error {
	for _, token := range splitTokens(values) {
		var err error
		switch {
		case strings.HasPrefix(token, "-"), strings.HasPrefix(token, "!"):
			err = req.AddInactiveProfile(token[1:])
		case strings.HasPrefix(token, "+"):
			err = req.AddActiveProfile(token[1:])
		default:
			err = req.AddActiveProfile(token)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyProjects splits -pl values. A leading "!" excludes.
func applyProjects(req *request.Request, values []string) error {
	for _, token := range splitTokens(values) {
		var err error
		if rest, ok := strings.CutPrefix(token, "!"); ok {
			err = req.ExcludeProject(rest)
		} else {
			err = req.SelectProject(token)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func splitTokens(values []string) []string {
	var out []string
	for _, v := range values {
		for token := range strings.SplitSeq(v, ",") {
			if token = strings.TrimSpace(token); token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}

// resolvePom applies -f. A directory gets pom.xml appended and the base
// directory becomes the POM's parent. Without -f a pom.xml in the working
// directory is picked up when present.
func (s *buildState) resolvePom() error {
	if !s.cl.Has(cli.File) {
		pom := filepath.Join(s.req.WorkingDir, "pom.xml")
		if fi, err := os.Stat(pom); err == nil && fi.Mode().IsRegular() {
			s.req.Pom = pom
		}
		return nil
	}

	pom := s.resolve(s.cl.Value(cli.File))
	if fi, err := os.Stat(pom); err == nil && fi.IsDir() {
		pom = filepath.Join(pom, "pom.xml")
	}
	if fi, err := os.Stat(pom); err != nil || !fi.Mode().IsRegular() {
		return &issue.FileNotFoundError{Kind: "POM", Path: pom}
	}
	s.req.Pom = pom
	s.req.BaseDir = filepath.Dir(pom)
	return nil
}
