package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/distroboard/config"
	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/source"
)

// execute runs a fresh command tree with args and returns captured stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// useMemorySource routes every source the CLI builds to src.
func useMemorySource(t *testing.T, src *source.MemorySource) {
	t.Helper()

	orig := newSources
	newSources = func(*config.Config) source.Factory {
		return func(credentials.Credentials) (source.Source, error) {
			return src, nil
		}
	}
	t.Cleanup(func() { newSources = orig })
}

// writeCredentials stores creds in a temp file and returns its path.
func writeCredentials(t *testing.T, creds credentials.Credentials) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	if err := credentials.NewFileStore(path).Save(creds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return path
}

func completeCredentials() credentials.Credentials {
	return credentials.Credentials{
		StreamName:      "video-endpoints",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "eu-west-1",
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}

	for _, phrase := range []string{"distroboard dev", "commit: none", "built:  unknown"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, out)
		}
	}
}
