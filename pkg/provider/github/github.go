// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/pkg/provider"
)

// Scheme is the location scheme served by this provider
const Scheme = "github"

func init() {
	provider.Register(Scheme, New)
}

// 🎯 Provider reads single files from GitHub repositories.
//
// Locations look like github://owner/repo/path/to/file.ts@ref; the ref is
// optional and defaults to the repository's default branch.
type Provider struct {
	client *github.Client
}

// 🏭 New creates a new GitHub provider, authenticated when GITHUB_TOKEN is set
func New(ctx context.Context) (provider.Provider, error) {
	logger := zerolog.Ctx(ctx)

	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	} else {
		logger.Debug().Msg("GITHUB_TOKEN not set, using unauthenticated client")
	}

	return NewWithClient(client), nil
}

// NewWithClient creates a provider around an existing client
func NewWithClient(client *github.Client) *Provider {
	return &Provider{client: client}
}

// Location is a parsed github:// location
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

func (l Location) String() string {
	s := fmt.Sprintf("%s/%s/%s", l.Owner, l.Repo, l.Path)
	if l.Ref != "" {
		s += "@" + l.Ref
	}
	return s
}

// 🔍 ParseLocation parses a github://owner/repo/path@ref location
func ParseLocation(location string) (Location, error) {
	rest, ok := strings.CutPrefix(location, Scheme+"://")
	if !ok {
		return Location{}, errors.Errorf("invalid GitHub location %q: missing %s:// prefix", location, Scheme)
	}

	var loc Location
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, loc.Ref = rest[:i], rest[i+1:]
		if loc.Ref == "" {
			return Location{}, errors.Errorf("invalid GitHub location %q: empty ref", location)
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return Location{}, errors.Errorf("invalid GitHub location %q: want %s://owner/repo/path[@ref]", location, Scheme)
	}
	loc.Owner, loc.Repo, loc.Path = parts[0], parts[1], strings.Trim(parts[2], "/")

	return loc, nil
}

// 📄 Open retrieves a single file's contents
func (p *Provider) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("location", loc.String()).Msg("fetching file from GitHub")

	var opts *github.RepositoryContentGetOptions
	if loc.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: loc.Ref}
	}

	file, _, _, err := p.client.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, errors.Errorf("getting file content: %w", err)
	}
	if file == nil {
		return nil, errors.Errorf("%s is a directory, not a file", loc)
	}

	// files over 1MB come back without inline content
	if file.GetEncoding() == "none" && file.GetDownloadURL() != "" {
		return provider.DownloadFile(ctx, p.client.Client(), file.GetDownloadURL())
	}

	data, err := file.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding content: %w", err)
	}

	return io.NopCloser(strings.NewReader(data)), nil
}

// 📝 Describe returns owner/repo/path@ref
func (p *Provider) Describe(location string) string {
	loc, err := ParseLocation(location)
	if err != nil {
		return location
	}
	return loc.String()
}
