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

package provider

import (
	"context"
	"io"
	"net/http"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔌 Provider opens the source text named by a location
type Provider interface {
	// 📄 Open returns the raw content at location
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// 📝 Describe returns a short human-readable form of location
	Describe(location string) string
}

// 🏭 Factory creates a new provider
type Factory func(ctx context.Context) (Provider, error)

var (
	// 🗺️ providers is a map of location schemes to factories
	providers = make(map[string]Factory)
)

// 📝 Register registers a provider factory for a location scheme
func Register(scheme string, factory Factory) {
	providers[scheme] = factory
}

// 🎯 Get returns a provider factory by scheme
func Get(scheme string) Factory {
	return providers[scheme]
}

// Scheme returns the scheme of location, "file" when it has none
func Scheme(location string) string {
	if i := strings.Index(location, "://"); i > 0 {
		return location[:i]
	}
	return FileScheme
}

// 🔍 Resolve returns the provider registered for location's scheme
func Resolve(ctx context.Context, location string) (Provider, error) {
	scheme := Scheme(location)
	factory, ok := providers[scheme]
	if !ok {
		return nil, errors.Errorf("no provider registered for scheme %q", scheme)
	}
	p, err := factory(ctx)
	if err != nil {
		return nil, errors.Errorf("creating %s provider: %w", scheme, err)
	}
	return p, nil
}

// 📥 Open resolves location's provider and opens it
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	p, err := Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	return p.Open(ctx, location)
}

// 📥 DownloadFile downloads a file from a URL
func DownloadFile(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Errorf("making request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
