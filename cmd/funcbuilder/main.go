// Package main is the funcbuilder command line: check and run scripts, or
// serve the deploy/call API.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbvsmo/funcbuilder/pkg/api"
	"github.com/jbvsmo/funcbuilder/pkg/parser"
	"github.com/jbvsmo/funcbuilder/pkg/runtime"
	"github.com/jbvsmo/funcbuilder/pkg/stdlib"
	"github.com/jbvsmo/funcbuilder/pkg/store"
	"github.com/jbvsmo/funcbuilder/pkg/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "funcbuilder",
	Short: "Build, run, and serve funcbuilder scripts",
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse and build a script without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile a script and call an entry function",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deploy/call JSON API",
	RunE:  runServe,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("funcbuilder version {{.Version}}\n")

	runCmd.Flags().String("entry", "main", "Function to call")
	runCmd.Flags().String("args", "[]", "Arguments as a JSON array")

	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")

	rootCmd.AddCommand(checkCmd, runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadProgram(path string) (*runtime.Namespace, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return runtime.Compile(prog, stdlib.NewRegistry())
}

func runCheck(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	prog, err := parser.Parse(source)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d top-level definitions)\n", args[0], len(prog.Nodes))
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ns, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	entry, _ := cmd.Flags().GetString("entry")
	argsJSON, _ := cmd.Flags().GetString("args")

	var raw []interface{}
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		return fmt.Errorf("invalid --args: %w", err)
	}
	callArgs := make([]types.Value, len(raw))
	for i, a := range raw {
		callArgs[i] = types.FromGo(a)
	}

	result, err := ns.Call(entry, callArgs)
	if err != nil {
		return err
	}
	fmt.Println(result.Repr())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	server := api.New(store.New())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("funcbuilder API listening on %s", addr)
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
