package ciconfig_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gauthierbraillon/feedtoot/internal/config"
	"github.com/gauthierbraillon/feedtoot/internal/ledger"
)

var pinnedSHA = regexp.MustCompile(`@[0-9a-f]{40}`)

func TestWorkflowActions_PinnedToCommitSHA(t *testing.T) {
	workflows, err := filepath.Glob("../../.github/workflows/*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if len(workflows) == 0 {
		t.Fatal("no workflow files found")
	}

	for _, path := range workflows {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(string(content), "\n")
		for i, line := range lines {
			if !strings.Contains(line, "uses:") {
				continue
			}
			if !pinnedSHA.MatchString(line) {
				t.Errorf("%s:%d: action not pinned to commit SHA: %s",
					filepath.Base(path), i+1, strings.TrimSpace(line))
			}
		}
	}
}

// The scheduled run would otherwise fail at startup with a configuration error.
func TestScheduledWorkflow_ProvidesRequiredConfig(t *testing.T) {
	content, err := os.ReadFile("../../.github/workflows/feedtoot.yml")
	if err != nil {
		t.Fatal(err)
	}

	keys, err := config.RequiredKeys(ledger.BackendDynamoDB)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range keys {
		if !strings.Contains(string(content), key+":") {
			t.Errorf("feedtoot.yml does not set %s", key)
		}
	}
}

// Overlapping runs can double-post an entry, so runs must be serialized.
func TestScheduledWorkflow_DoesNotOverlap(t *testing.T) {
	content, err := os.ReadFile("../../.github/workflows/feedtoot.yml")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(content), "concurrency:") || !strings.Contains(string(content), "cancel-in-progress: false") {
		t.Error("feedtoot.yml should serialize runs with a concurrency group")
	}
}
