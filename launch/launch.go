// Package launch decides which programs to open a provisioned worktree in
// and starts them.
//
// Planning is separate from spawning so the decisions can be inspected and
// tested without starting editors.
package launch

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/google/shlex"

	"github.com/worktree-io/worktree/config"
	"github.com/worktree-io/worktree/errors"
	"github.com/worktree-io/worktree/internal/pathenv"
)

// Kind is what an action opens.
type Kind int

const (
	Editor Kind = iota + 1
	Explorer
	Terminal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Editor:
		return "editor"
	case Explorer:
		return "explorer"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is one program to start.
type Action struct {
	Kind    Kind
	Program string
	Args    []string

	// Dir is the working directory, the worktree path.
	Dir string
}

// String renders the command line.
func (a Action) String() string {
	return strings.Join(append([]string{a.Program}, a.Args...), " ")
}

// Flags are per-invocation requests that add to the configuration.
type Flags struct {
	Editor   bool
	Explorer bool
	Terminal bool

	// EditorOverride replaces the configured editor. It comes from deep
	// links, which any web page can produce, so only symbolic names such as
	// "cursor" are accepted; anything else is INVALID_INPUT.
	EditorOverride string
}

// planner holds the platform facts Plan depends on.
type planner struct {
	goos     string
	lookPath func(string) (string, error)
}

// Plan returns the actions for opening path. The editor is planned when
// requested by flag, override or configuration; an editor requested by flag
// with no command configured is an INVALID_CONFIGURATION error, while one
// enabled only by configuration is silently skipped. An override that is not
// a symbolic editor name is INVALID_INPUT.
func Plan(path string, cfg config.Resolved, flags Flags) ([]Action, error) {
	p := planner{
		goos: runtime.GOOS,
		lookPath: func(name string) (string, error) {
			return pathenv.LookPath(name, pathenv.Current())
		},
	}
	return p.plan(path, cfg, flags)
}

func (p planner) plan(path string, cfg config.Resolved, flags Flags) ([]Action, error) {
	var actions []Action

	editor := ""
	switch {
	case flags.EditorOverride != "":
		cmd, ok := p.symbolicEditor(flags.EditorOverride)
		if !ok {
			err := errors.Newf(errors.CodeInvalidInput, "editor %q is not a known editor name", flags.EditorOverride)
			return nil, errors.WithContext(err, "editor", flags.EditorOverride)
		}
		editor = cmd
	case flags.Editor || cfg.OpenEditor:
		editor = cfg.EditorCommand
		if editor == "" && flags.Editor {
			err := errors.New(errors.CodeInvalidConfig, "no editor configured; set editor.command")
			return nil, errors.WithContext(err, "field", "editor.command")
		}
	}
	if editor != "" {
		a, err := commandAction(Editor, editor, path)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if flags.Explorer || cfg.OpenExplorer {
		actions = append(actions, p.explorerAction(path))
	}

	if flags.Terminal || cfg.OpenTerminal {
		var (
			a   Action
			err error
		)
		if cfg.TerminalCommand != "" {
			a, err = commandAction(Terminal, p.editorCommand(cfg.TerminalCommand), path)
		} else {
			a, err = p.defaultTerminal(path)
		}
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, nil
}

// commandAction splits command and substitutes path for its first
// standalone "." argument, appending path when there is none.
func commandAction(kind Kind, command, path string) (Action, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		err = errors.Wrapf(err, errors.CodeInvalidConfig, "cannot parse %s command", kind)
		return Action{}, errors.WithContext(err, "command", command)
	}
	if len(parts) == 0 {
		return Action{}, errors.Newf(errors.CodeInvalidConfig, "%s command is empty", kind)
	}

	args := parts[1:]
	replaced := false
	for i, arg := range args {
		if arg == "." {
			args[i] = path
			replaced = true
			break
		}
	}
	if !replaced {
		args = append(args, path)
	}

	return Action{Kind: kind, Program: parts[0], Args: args, Dir: path}, nil
}

// symbolicEditors maps well-known names to commands.
var symbolicEditors = map[string]string{
	"cursor":          "cursor .",
	"code":            "code .",
	"vscode":          "code .",
	"zed":             "zed .",
	"subl":            "subl .",
	"nvim":            "nvim .",
	"vim":             "vim .",
	"iterm":           "open -a iTerm .",
	"iterm2":          "open -a iTerm .",
	"warp":            "open -a Warp .",
	"ghostty":         "open -a Ghostty .",
	"alacritty":       "alacritty --working-directory .",
	"kitty":           "kitty --directory .",
	"wezterm":         "wezterm start --cwd .",
	"wt":              "wt -d .",
	"windowsterminal": "wt -d .",
}

// editorCommand expands a symbolic editor name. Anything else is returned
// unchanged and treated as a command.
func (p planner) editorCommand(name string) string {
	if cmd, ok := p.symbolicEditor(name); ok {
		return cmd
	}
	return name
}

// symbolicEditor returns the command for a well-known editor name.
func (p planner) symbolicEditor(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cmd, ok := symbolicEditors[key]; ok {
		return cmd, true
	}
	if key == "terminal" {
		switch p.goos {
		case "darwin":
			return "open -a Terminal .", true
		case "windows":
			return "wt -d .", true
		default:
			return "xterm", true
		}
	}
	return "", false
}

func (p planner) explorerAction(path string) Action {
	program := "xdg-open"
	switch p.goos {
	case "darwin":
		program = "open"
	case "windows":
		program = "explorer"
	}
	return Action{Kind: Explorer, Program: program, Args: []string{path}, Dir: path}
}

// linuxTerminals are tried in order; each takes the directory as its last
// argument.
var linuxTerminals = [][]string{
	{"gnome-terminal", "--working-directory"},
	{"konsole", "--workdir"},
	{"xfce4-terminal", "--working-directory"},
	{"kitty", "--directory"},
	{"alacritty", "--working-directory"},
}

func (p planner) defaultTerminal(path string) (Action, error) {
	switch p.goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal"
    activate
    do script "cd '%s'"
end tell`, strings.ReplaceAll(path, "'", `'\''`))
		return Action{Kind: Terminal, Program: "osascript", Args: []string{"-e", script}, Dir: path}, nil

	case "windows":
		return Action{Kind: Terminal, Program: "wt", Args: []string{"--startingDirectory", path}, Dir: path}, nil
	}

	for _, candidate := range linuxTerminals {
		if _, err := p.lookPath(candidate[0]); err == nil {
			args := append(append([]string{}, candidate[1:]...), path)
			return Action{Kind: Terminal, Program: candidate[0], Args: args, Dir: path}, nil
		}
	}
	if _, err := p.lookPath("xterm"); err == nil {
		return Action{Kind: Terminal, Program: "xterm", Dir: path}, nil
	}

	return Action{}, errors.New(errors.CodeNotFound, "no terminal emulator found; set terminal.command")
}
