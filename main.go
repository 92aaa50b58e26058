package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/envseal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "help", "-h", "--help":
		if len(args) == 0 {
			printUsage()
			return
		}
		printCommandHelp(args[0])
		return
	case "completion":
		runCompletion(args)
		return
	}

	env := cmd.LoadEnv()

	var err error
	switch command {
	case "init":
		err = runInit(ctx, env, args)
	case "project":
		err = runProject(ctx, env, args)
	case "projects":
		err = runProjects(ctx, env, args)
	case "set":
		err = runSet(ctx, env, args)
	case "get":
		err = runGet(ctx, env, args)
	case "rm":
		err = runRm(ctx, env, args)
	case "ls":
		err = runLs(ctx, env, args)
	case "unlock":
		err = runUnlock(ctx, env, args)
	case "status":
		err = runStatus(ctx, env, args)
	case "passwd":
		err = runPasswd(ctx, env, args)
	case "diff":
		err = runDiff(ctx, env, args)
	case "keyring":
		err = runKeyring(ctx, env, args)
	case "compact":
		err = runCompact(ctx, env, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		stop()
		cmd.HandleError(err)
		os.Exit(1)
	}
}

// parseArgs parses flags that may appear before, between or after
// positional arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		if args[0] == "--" {
			return append(positional, args[1:]...)
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// requireArgs exits with usage when the positional count is out of range
func requireArgs(command string, args []string, least, most int) {
	if len(args) < least || (most >= 0 && len(args) > most) {
		fmt.Fprintf(os.Stderr, "Error: wrong number of arguments\n\n")
		printCommandHelp(command)
		os.Exit(1)
	}
}

func runInit(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	requireArgs("init", parseArgs(fs, args), 0, 0)

	return env.Init(ctx)
}

func runProject(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("project", rest, 2, 2)

	switch rest[0] {
	case "create":
		return env.ProjectCreate(ctx, rest[1])
	case "delete":
		return env.ProjectDelete(ctx, rest[1])
	default:
		fmt.Fprintln(os.Stderr, "Usage: envseal project <create|delete> <name>")
		return fmt.Errorf("unknown project subcommand: %s", rest[0])
	}
}

func runProjects(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ExitOnError)
	quiet := fs.Bool("q", false, "Print project names only")
	requireArgs("projects", parseArgs(fs, args), 0, 0)

	return env.Projects(ctx, *quiet)
}

func runSet(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	file := fs.String("file", "", "Read the value from a file")
	rest := parseArgs(fs, args)
	requireArgs("set", rest, 2, 2)

	return env.Set(ctx, rest[0], rest[1], *file)
}

func runGet(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	out := fs.String("out", "", "Write the value to a file")
	rest := parseArgs(fs, args)
	requireArgs("get", rest, 2, 2)

	return env.Get(ctx, rest[0], rest[1], *out)
}

func runRm(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("rm", rest, 2, -1)

	return env.Rm(ctx, rest[0], rest[1:])
}

func runLs(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("ls", rest, 1, 1)

	return env.Ls(ctx, rest[0])
}

func runUnlock(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	save := fs.Bool("save", false, "Save the password to the OS keyring")
	rest := parseArgs(fs, args)
	requireArgs("unlock", rest, 1, 1)

	return env.Verify(ctx, rest[0], *save)
}

func runStatus(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("status", rest, 0, 1)

	project := ""
	if len(rest) == 1 {
		project = rest[0]
	}
	return env.Status(ctx, project)
}

func runPasswd(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("passwd", rest, 1, 1)

	return env.Passwd(ctx, rest[0])
}

func runDiff(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("diff", rest, 3, 3)

	return env.Diff(ctx, rest[0], rest[1], rest[2])
}

func runKeyring(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("keyring", flag.ExitOnError)
	rest := parseArgs(fs, args)
	requireArgs("keyring", rest, 2, 2)

	switch rest[0] {
	case "save":
		return env.KeyringSave(ctx, rest[1])
	case "delete":
		return env.KeyringDelete(ctx, rest[1])
	case "status":
		return env.KeyringStatus(ctx, rest[1])
	default:
		fmt.Fprintln(os.Stderr, "Usage: envseal keyring <save|delete|status> <project>")
		return fmt.Errorf("unknown keyring subcommand: %s", rest[0])
	}
}

func runCompact(ctx context.Context, env *cmd.Env, args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	requireArgs("compact", parseArgs(fs, args), 0, 0)

	return env.Compact(ctx)
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: envseal completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("envseal - Password-protected secrets, one envelope per value")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  envseal <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a vault in the current directory")
	fmt.Println("  project     Create or delete a project")
	fmt.Println("  projects    List projects and their lock state")
	fmt.Println("  set         Store a secret")
	fmt.Println("  get         Print or export a secret")
	fmt.Println("  rm          Remove secrets from a project")
	fmt.Println("  ls          List secrets of a project")
	fmt.Println("  unlock      Check a project password")
	fmt.Println("  status      Show vault or project status")
	fmt.Println("  passwd      Change a project password")
	fmt.Println("  diff        Compare a secret with a local file")
	fmt.Println("  keyring     Manage passwords in the OS keyring")
	fmt.Println("  compact     Compact vault to reclaim disk space")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  envseal init                          # Create new vault")
	fmt.Println("  envseal project create api            # Add a project")
	fmt.Println("  envseal set api DB_URL -file db.txt   # Store a file as a secret")
	fmt.Println("  envseal get api DB_URL                # Print a secret")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  ENVSEAL_VAULT              Vault file (default .envseal)")
	fmt.Println("  ENVSEAL_PASSWORD           Project password, skips the prompt")
	fmt.Println("  ENVSEAL_NEW_PASSWORD       New password for project create and passwd")
	fmt.Println("  ENVSEAL_LOCKOUT_THRESHOLD  Failed attempts before lock (default 3)")
	fmt.Println("  ENVSEAL_LOCKOUT_DURATION   Lock duration (default 3h)")
	fmt.Println("  ENVSEAL_LEGACY_POLICY      accept or reject projects without verification")
	fmt.Println("  ENVSEAL_KEYRING            Use the OS keyring (default true)")
	fmt.Println("  ENVSEAL_LOG_LEVEL          Log level (default warn)")
	fmt.Println()
	fmt.Println("Use 'envseal help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("envseal init")
		fmt.Println()
		fmt.Println("Creates a vault file (ENVSEAL_VAULT, default .envseal).")
		fmt.Println("Passwords are set per project, see 'envseal help project'.")
	case "project":
		fmt.Println("envseal project <create|delete> <name>")
		fmt.Println()
		fmt.Println("create prompts for a new password (at least 8 characters) and stores")
		fmt.Println("a verification record for it. The password is not stored anywhere.")
		fmt.Println("delete requires the project password and removes all of its secrets.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  envseal project create api")
		fmt.Println("  ENVSEAL_NEW_PASSWORD=... envseal project create ci")
	case "projects":
		fmt.Println("envseal projects [-q]")
		fmt.Println()
		fmt.Println("Lists projects with secret count and lock state.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -q    Print names only")
	case "set":
		fmt.Println("envseal set <project> <name> [-file <file>]")
		fmt.Println()
		fmt.Println("Encrypts and stores a secret. The value is read from -file, from")
		fmt.Println("stdin when piped, or from a hidden prompt.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  envseal set api TOKEN")
		fmt.Println("  envseal set api dotenv -file .env")
		fmt.Println("  envseal set api TOKEN < token.txt")
	case "get":
		fmt.Println("envseal get <project> <name> [-out <file>]")
		fmt.Println()
		fmt.Println("Decrypts a secret to stdout, or to a file with mode 0600.")
		fmt.Println("Warns when the file is tracked by git or not ignored.")
	case "rm":
		fmt.Println("envseal rm <project> <name> [name...]")
		fmt.Println()
		fmt.Println("Removes secrets from a project.")
	case "ls":
		fmt.Println("envseal ls <project>")
		fmt.Println()
		fmt.Println("Lists secret names with their last modification time.")
	case "unlock":
		fmt.Println("envseal unlock <project> [-save]")
		fmt.Println()
		fmt.Println("Checks the project password. After too many failed attempts the")
		fmt.Println("project is locked for ENVSEAL_LOCKOUT_DURATION.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -save    Save the password to the OS keyring")
	case "status":
		fmt.Println("envseal status [project]")
		fmt.Println()
		fmt.Println("Shows vault summary, or project details including lock state.")
		fmt.Println("No password required.")
	case "passwd":
		fmt.Println("envseal passwd <project>")
		fmt.Println()
		fmt.Println("Re-encrypts every secret of the project under a new password.")
		fmt.Println("Projects without a verification record get one.")
	case "diff":
		fmt.Println("envseal diff <project> <name> <file>")
		fmt.Println()
		fmt.Println("Shows a unified diff from the stored secret to a local file.")
	case "keyring":
		fmt.Println("envseal keyring <save|delete|status> <project>")
		fmt.Println()
		fmt.Println("Manages the project password in the OS keyring so commands do not")
		fmt.Println("prompt. An outdated stored password is removed automatically.")
	case "compact":
		fmt.Println("envseal compact")
		fmt.Println()
		fmt.Println("Rewrites the vault file to reclaim space from deleted data.")
	case "completion":
		fmt.Println("envseal completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  source <(envseal completion bash)")
		fmt.Println("  envseal completion fish > ~/.config/fish/completions/envseal.fish")
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}
