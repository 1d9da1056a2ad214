package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// AgentDef defines how to detect and configure one AI agent.
type AgentDef struct {
	ID          string
	DisplayName string
	Method      string            // "cli" or "file"
	Binary      string            // for CLI agents: binary name on PATH
	DirMarkers  []string          // for file-based: dirs that indicate presence
	ConfigPath  func() string     // returns resolved config file path
	ServersKey  string            // JSON key: "servers" (VS Code) or "mcpServers" (others)
	NeedsScope  bool              // whether to prompt for project/user scope
	ExtraFields map[string]string // extra JSON fields (e.g. "type": "stdio" for VS Code)
}

// DetectedAgent is an agent found on the system.
type DetectedAgent struct {
	Def            AgentDef
	AlreadySetup   bool
	ResolvedConfig string // resolved config path for file-based agents
}

// setupOptions holds parsed flags for the setup command.
type setupOptions struct {
	auto   bool
	dryRun bool
	server serverCommand
}

// serverCommand is how an agent launches the tokenlint MCP server.
type serverCommand struct {
	// ConfigPath is passed to serve as --config when set.
	ConfigPath string
	// MCPLog is exported to the server as TOKENLINT_MCP_LOG when set.
	MCPLog string
}

func (c serverCommand) args() []string {
	args := []string{"serve"}
	if c.ConfigPath != "" {
		args = append(args, "--config", c.ConfigPath)
	}
	return args
}

func (c serverCommand) env() map[string]string {
	if c.MCPLog == "" {
		return nil
	}
	return map[string]string{"TOKENLINT_MCP_LOG": c.MCPLog}
}

// serverName is the key of the tokenlint entry in agent MCP configs.
const serverName = "tokenlint"

// Replaceable for testing.
var lookPathFunc = exec.LookPath
var statFunc = os.Stat
var runCommandFunc = func(name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// agentRegistry lists all supported agents in display order.
var agentRegistry = []AgentDef{
	{
		ID: "claude_code", DisplayName: "Claude Code",
		Method: "cli", Binary: "claude", NeedsScope: true,
	},
	{
		ID: "openai_codex", DisplayName: "OpenAI Codex",
		Method: "cli", Binary: "codex", NeedsScope: true,
	},
	{
		ID: "vscode_copilot", DisplayName: "VS Code Copilot",
		Method: "file", DirMarkers: []string{".vscode"},
		ConfigPath:  func() string { return filepath.Join(".vscode", "mcp.json") },
		ServersKey:  "servers",
		ExtraFields: map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor",
		Method: "file", DirMarkers: []string{".cursor"},
		ConfigPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		ServersKey: "mcpServers",
	},
	{
		ID: "claude_desktop", DisplayName: "Claude Desktop",
		Method:     "file",
		ConfigPath: claudeDesktopConfigPath,
		ServersKey: "mcpServers",
	},
}

// claudeDesktopConfigPath returns the OS-specific Claude Desktop config path.
func claudeDesktopConfigPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// detectAgents scans the system for installed or accessible AI agents.
func detectAgents() []DetectedAgent {
	var detected []DetectedAgent

	for _, def := range agentRegistry {
		switch def.Method {
		case "cli":
			if _, err := lookPathFunc(def.Binary); err == nil {
				detected = append(detected, DetectedAgent{
					Def:          def,
					AlreadySetup: hasServerEntry(".mcp.json", "mcpServers"),
				})
			}

		case "file":
			configPath, found := locateFileAgent(def)
			if !found {
				continue
			}
			d := DetectedAgent{Def: def, ResolvedConfig: configPath}
			if configPath != "" {
				d.AlreadySetup = hasServerEntry(configPath, def.ServersKey)
			}
			detected = append(detected, d)
		}
	}

	return detected
}

// locateFileAgent reports whether a file-based agent is present and where
// its config lives. Project agents are found by their marker directory;
// agents without markers by the config file's parent directory.
func locateFileAgent(def AgentDef) (string, bool) {
	for _, marker := range def.DirMarkers {
		if _, err := statFunc(marker); err == nil {
			if def.ConfigPath != nil {
				return def.ConfigPath(), true
			}
			return "", true
		}
	}
	if len(def.DirMarkers) == 0 && def.ConfigPath != nil {
		configPath := def.ConfigPath()
		if _, err := statFunc(filepath.Dir(configPath)); err == nil {
			return configPath, true
		}
	}
	return "", false
}

// hasServerEntry checks whether the JSON config at configPath already has a
// tokenlint entry under serversKey.
func hasServerEntry(configPath, serversKey string) bool {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return false
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return false
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers[serverName]
	return exists
}

// serverEntry returns the MCP server config object for tokenlint.
func serverEntry(cmd serverCommand, extra map[string]string) map[string]any {
	args := make([]any, 0, 3)
	for _, a := range cmd.args() {
		args = append(args, a)
	}
	entry := map[string]any{
		"command": serverName,
		"args":    args,
	}
	if env := cmd.env(); env != nil {
		envAny := make(map[string]any, len(env))
		for k, v := range env {
			envAny[k] = v
		}
		entry["env"] = envAny
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry reads existing JSON (or creates new), adds a tokenlint
// entry under serversKey, and returns the merged JSON bytes.
// Returns nil, nil if tokenlint is already configured (no-op).
func mergeServerEntry(existing []byte, serversKey string, cmd serverCommand, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}

	servers[serverName] = serverEntry(cmd, extra)
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// cliAgentArgs builds `<binary> mcp add` arguments for the chosen scope.
func cliAgentArgs(scope string, cmd serverCommand) []string {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	if env := cmd.env(); env != nil {
		for k, v := range env {
			args = append(args, "--env", k+"="+v)
		}
	}
	args = append(args, serverName, "--", serverName)
	return append(args, cmd.args()...)
}

// configureCLIAgent runs `<binary> mcp add` with the chosen scope.
func configureCLIAgent(def AgentDef, scope string, cmd serverCommand, w io.Writer) error {
	return runCommandFunc(def.Binary, cliAgentArgs(scope, cmd), w, w)
}

// configureFileAgent reads, merges, and writes the JSON config file. With
// dryRun the merged JSON is printed to w instead.
func configureFileAgent(def AgentDef, configPath string, cmd serverCommand, dryRun bool, w io.Writer) error {
	var existing []byte
	if data, err := os.ReadFile(configPath); err == nil {
		existing = data
	}

	merged, err := mergeServerEntry(existing, def.ServersKey, cmd, def.ExtraFields)
	if err != nil {
		return fmt.Errorf("%s: %w", configPath, err)
	}
	if merged == nil {
		return nil
	}
	if dryRun {
		fmt.Fprintf(w, "  would write %s:\n%s", configPath, merged)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(configPath, merged, 0o644)
}

// --- Interactive prompts ---

// promptYesNo prints a question and reads Y/n. Returns true for yes (default).
func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope prints scope options and reads 1/2/3.
// Returns "project", "user", or "" (skip).
func promptScope(r *bufio.Reader, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s: add the tokenlint MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprintf(w, "  > ")

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "project"
	}
	switch strings.TrimSpace(line) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return ""
	}
}

// --- Orchestration ---

// runSetup is the entry point for `tokenlint setup`.
func runSetup(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts setupOptions
	fs.BoolVar(&opts.auto, "auto", false, "configure every detected agent without prompting")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print config changes instead of writing them")
	fs.StringVar(&opts.server.ConfigPath, "config", "", "config file the server should load")
	fs.StringVar(&opts.server.MCPLog, "mcp-log", "", "JSONL file the server logs tool calls to")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	executeSetup(stdin, stdout, opts)
	return exitOK
}

// executeSetup contains the testable core logic, parameterized on I/O.
func executeSetup(r io.Reader, w io.Writer, opts setupOptions) {
	detected := detectAgents()
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.Def.DisplayName)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.Def.DisplayName)
		}
	}
	fmt.Fprintln(w)

	// One reader for every prompt so buffered answers are not lost.
	br := bufio.NewReader(r)
	if !opts.auto {
		if !promptYesNo(br, w, "Configure agents? [Y/n]") {
			return
		}
	}

	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", d.Def.DisplayName)
			continue
		}
		configureOneAgent(br, w, d, opts)
	}
}

func configureOneAgent(r *bufio.Reader, w io.Writer, d DetectedAgent, opts setupOptions) {
	switch d.Def.Method {
	case "cli":
		scope := "project"
		if !opts.auto && d.Def.NeedsScope {
			scope = promptScope(r, w, d.Def.DisplayName)
			if scope == "" {
				fmt.Fprintf(w, "  skipped\n")
				return
			}
		}
		if opts.dryRun {
			fmt.Fprintf(w, "  would run: %s %s\n", d.Def.Binary, strings.Join(cliAgentArgs(scope, opts.server), " "))
			return
		}
		if err := configureCLIAgent(d.Def, scope, opts.server, w); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", d.Def.DisplayName, scope)

	case "file":
		if !opts.auto {
			if !promptYesNo(r, w, fmt.Sprintf("\n%s: add to %s? [Y/n]", d.Def.DisplayName, d.ResolvedConfig)) {
				fmt.Fprintf(w, "  skipped\n")
				return
			}
		}
		if err := configureFileAgent(d.Def, d.ResolvedConfig, opts.server, opts.dryRun, w); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", d.Def.DisplayName, err)
			return
		}
		if !opts.dryRun {
			fmt.Fprintf(w, "  + %s configured (%s)\n", d.Def.DisplayName, d.ResolvedConfig)
		}
	}
}
