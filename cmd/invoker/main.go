// cmd/invoker/main.go
//
// Entry point for the invoker CLI.
//
// Flow:
// 1. Resolve the project directory and load .env / .invoker/config.yaml
// 2. Select the current environment once (flag, then $INVOKER_ENV, then dev)
// 3. Build the tool table and provisioner for that environment
// 4. Resolve the requested task, run it, exit non-zero on any failure

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/invoker/internal/config"
	"github.com/kingrea/invoker/internal/console"
	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/logging"
	"github.com/kingrea/invoker/internal/shell"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tasks"
	"github.com/kingrea/invoker/internal/tool"
)

func main() {
	envName := flag.String("env", "", "environment to run in (dev, ci, prod); defaults to $INVOKER_ENV or dev")
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	flag.Usage = usage
	flag.Parse()

	con := console.New(os.Stdout, os.Stderr)
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	taskID := flag.Arg(0)

	project, err := resolveProject(*projectDir)
	if err != nil {
		die(con, nil, err)
	}
	if err := config.LoadDotEnv(project); err != nil {
		die(con, nil, err)
	}
	if err := config.InitInvokerDir(project); err != nil {
		die(con, nil, fmt.Errorf("init %s: %w", config.InvokerDir, err))
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		die(con, nil, err)
	}

	envs := env.Builtin()
	current, err := config.SelectEnvironment(envs, *envName)
	if err != nil {
		die(con, nil, err)
	}

	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		die(con, nil, err)
	}
	defer logger.Close()

	registry := task.NewRegistry()
	tasks.RegisterBuiltins(registry, envs)
	taskCfg, err := parseTaskArgs(taskID, flag.Args()[1:])
	if err != nil {
		die(con, logger, err)
	}
	t, err := registry.Resolve(taskID, taskCfg)
	if err != nil {
		die(con, logger, err)
	}

	toolReg, err := cfg.ToolRegistry()
	if err != nil {
		die(con, logger, err)
	}
	missing, err := registry.MissingTools(func(name string) bool {
		_, ok := toolReg.Lookup(name)
		return ok
	})
	if err != nil {
		die(con, logger, err)
	}
	if names := missing[taskID]; len(names) > 0 {
		die(con, logger, fmt.Errorf("%s: tools not declared in %s: %s", taskID, cfg.ProjectConfigPath(), strings.Join(names, ", ")))
	}
	probe := &shell.Exec{Dir: project}
	prov, err := tool.NewProvisioner(current, toolReg, probe, cfg.ToolsDir(),
		tool.WithLogger(logger),
		tool.WithProgress(console.NewDownloadProgress(os.Stderr)),
	)
	if err != nil {
		die(con, logger, err)
	}

	rc := task.NewContext(cfg, current, prov, shell.NewExec(project), con, logger)
	logger.Printf("task %s started in %s (env %s)", taskID, project, current.Name)
	result, err := t.Run(context.Background(), rc)
	if err != nil {
		die(con, logger, fmt.Errorf("%s: %w", taskID, err))
	}
	logger.Printf("task %s %s %s", taskID, result.Status, result.Message)
	if result.Status == task.StatusNoOp && result.Message != "" {
		con.Info("%s", result.Message)
	}
}

func resolveProject(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

// parseTaskArgs turns the arguments after the task name into task config.
func parseTaskArgs(taskID string, args []string) (task.Config, error) {
	fs := flag.NewFlagSet(taskID, flag.ContinueOnError)
	cfg := task.Config{}
	switch taskID {
	case "test":
		verbose := fs.Bool("verbose", false, "show stdout of tests")
		show := fs.Bool("show", false, "open the coverage profile page")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() > 1 {
			return nil, fmt.Errorf("test: expected at most one target, got %d", fs.NArg())
		}
		cfg["verbose"] = *verbose
		cfg["show"] = *show
		cfg["target"] = fs.Arg(0)
	case "tools":
		install := fs.Bool("install", false, "provision every tool required by the environment")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg["install"] = *install
	default:
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() > 0 {
			return nil, fmt.Errorf("%s: unexpected arguments %v", taskID, fs.Args())
		}
	}
	return cfg, nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: invoker [-env NAME] [-project DIR] <task> [task flags] [args]\n\n")
	registry := task.NewRegistry()
	tasks.RegisterBuiltins(registry, env.Builtin())
	fmt.Fprintf(out, "tasks:\n")
	infos, _ := registry.Infos()
	for _, info := range infos {
		fmt.Fprintf(out, "  %-8s %s %s\n", info.ID, info.Summary, info.Usage)
	}
	fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}

func die(con *console.Console, logger *logging.Logger, err error) {
	os.Exit(fatal(con, logger, err))
}

// fatal reports err and returns the exit status. os.Exit skips deferred
// calls, so the log is closed here.
func fatal(con *console.Console, logger *logging.Logger, err error) int {
	logger.Printf("fatal: %v", err)
	_ = logger.Close()
	con.Fatal(err)
	return 1
}
