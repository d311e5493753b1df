package decisions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tellerdesk/internal/api"
)

// Source is one candidate location for the decision snapshot. Sources are
// probed strictly in order; the first one that yields a success status and a
// JSON body wins, and the rest are never consulted. Keeping the order
// data-driven makes the priority independently testable.
type Source struct {
	Name  string
	Fetch func(ctx context.Context) ([]byte, error)
}

// FileSource reads the snapshot from a local file.
func FileSource(path string) Source {
	return Source{
		Name: "file:" + path,
		Fetch: func(ctx context.Context) ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return data, nil
		},
	}
}

// HTTPSource fetches the snapshot from a backend path.
func HTTPSource(client *api.Client, path string) Source {
	return Source{
		Name: "http:" + path,
		Fetch: func(ctx context.Context) ([]byte, error) {
			resp, err := client.Get(ctx, path)
			if err != nil {
				return nil, err
			}
			if !resp.OK() {
				return nil, fmt.Errorf("%s returned status %d", path, resp.Status)
			}
			return resp.Body, nil
		},
	}
}

// DefaultSources is the standard probe order: the configured local snapshot,
// two relative variants of it, then the two backend-served variants.
func DefaultSources(client *api.Client, localPath string) []Source {
	var sources []Source
	if localPath != "" {
		sources = append(sources, FileSource(localPath))
	}
	sources = append(sources,
		FileSource("decisions.json"),
		FileSource(filepath.Join("data", "decisions.json")),
		HTTPSource(client, "/decisions.json"),
		HTTPSource(client, "/decisions"),
	)
	return sources
}
