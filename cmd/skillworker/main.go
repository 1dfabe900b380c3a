// Command skillworker is the child-side half of the sandbox protocol:
// it reads a single Request frame from stdin,
// looks up the requested skill by id in the statically-linked Builtins
// map, invokes the named intent's handler, and writes a single Result
// frame to stdout before exiting. A handler panic is deliberately left
// unrecovered: the process crashing is how the parent's sandbox.Invoke
// distinguishes a crash from an error status.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/letrezdraw/AIST/internal/config"
	"github.com/letrezdraw/AIST/internal/factstore"
	"github.com/letrezdraw/AIST/internal/logging"
	"github.com/letrezdraw/AIST/internal/sandbox"
	"github.com/letrezdraw/AIST/internal/skills"
	"github.com/letrezdraw/AIST/internal/skills/builtin/memoryskill"

	_ "github.com/letrezdraw/AIST/internal/skills/builtin/crashtest"
	_ "github.com/letrezdraw/AIST/internal/skills/builtin/systemskill"
	_ "github.com/letrezdraw/AIST/internal/skills/builtin/timeskill"
)

func main() {
	cfgPath := os.Getenv("AIST_CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "aist.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("skill worker config load failed: %v", err)})
		os.Exit(1)
	}

	logger, err := logging.NewChildLogger(logging.Options{
		Folder:         cfg.Logging.Folder,
		ConsoleEnabled: false,
		Component:      "skillworker",
	})
	if err != nil {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("skill worker logging init failed: %v", err)})
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := factstore.Open(cfg.Assistant.FactStorePath)
	if err != nil {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("skill worker fact store open failed: %v", err)})
		os.Exit(1)
	}
	defer store.Close()
	skills.RegisterBuiltin(memoryskill.ID, memoryskill.RegisterWithStore(store))

	req, err := readRequest(os.Stdin)
	if err != nil {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("malformed request: %v", err)})
		os.Exit(1)
	}

	factory, ok := skills.Builtins[req.SkillID]
	if !ok {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("unknown skill_id: %s", req.SkillID)})
		os.Exit(1)
	}

	reg := skills.NewRegistry()
	instance := factory(req.SkillID)
	instance.RegisterIntents(reg.Register)

	intent, ok := reg.Lookup(req.Intent)
	if !ok {
		writeResult(sandbox.Result{Status: "error", Output: fmt.Sprintf("unknown intent: %s", req.Intent)})
		os.Exit(1)
	}

	output, err := intent.Handler(req.Params)
	if err != nil {
		writeResult(sandbox.Result{Status: "error", Output: err.Error()})
		os.Exit(1)
	}
	writeResult(sandbox.Result{Status: "success", Output: output})
}

func readRequest(r io.Reader) (sandbox.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return sandbox.Request{}, err
	}
	var req sandbox.Request
	if jsonErr := json.Unmarshal(data, &req); jsonErr != nil {
		return sandbox.Request{}, jsonErr
	}
	return req, nil
}

func writeResult(result sandbox.Result) {
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(result)
}
