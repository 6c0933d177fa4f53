package testsupport

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/tasklist/task"
	"github.com/rogpeppe/go-internal/testscript"
)

// SetupScriptEnv points HOME at a fresh directory inside the script's
// work dir so the CLI's default state and config paths stay isolated.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("EDITOR", "")
	env.Setenv("NO_COLOR", "1")
	return nil
}

// Commands returns the custom testscript commands shared by CLI tests.
func Commands() map[string]func(ts *testscript.TestScript, neg bool, args []string) {
	return map[string]func(ts *testscript.TestScript, neg bool, args []string){
		"envset": CmdEnvSet,
		"taskid": CmdTaskID,
	}
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdTaskID finds a task by text in a JSON task list and stores its ID in an env var.
func CmdTaskID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskid FILE TEXT VAR")
	}

	var items []task.Task
	data := ts.ReadFile(args[0])
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}

	text := args[1]
	for _, item := range items {
		if item.Text == text {
			ts.Setenv(args[2], item.ID)
			return
		}
	}

	ts.Fatalf("task with text %q not found", text)
}
