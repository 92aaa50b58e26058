package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_envseal() {
    local cur prev words cword
    _init_completion || return

    local commands="init project projects set get rm ls unlock status passwd diff keyring compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        set|get|rm|ls|unlock|status|passwd|diff)
            if [[ "$cur" == -* ]]; then
                case "$cmd" in
                    set) COMPREPLY=($(compgen -W "-file" -- "$cur")) ;;
                    get) COMPREPLY=($(compgen -W "-out" -- "$cur")) ;;
                    unlock) COMPREPLY=($(compgen -W "-save" -- "$cur")) ;;
                esac
            elif [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "$(envseal projects -q 2>/dev/null)" -- "$cur"))
            elif [[ "$prev" == "-file" || "$prev" == "-out" || ( "$cmd" == "diff" && $cword -eq 4 ) ]]; then
                _filedir
            fi
            ;;
        project)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "create delete" -- "$cur"))
            elif [[ "${words[2]}" == "delete" ]]; then
                COMPREPLY=($(compgen -W "$(envseal projects -q 2>/dev/null)" -- "$cur"))
            fi
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$(envseal projects -q 2>/dev/null)" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _envseal envseal
`

const zshCompletion = `#compdef envseal

_envseal() {
    local -a commands
    commands=(
        'init:Create a vault in the current directory'
        'project:Create or delete a project'
        'projects:List projects'
        'set:Store a secret'
        'get:Print or export a secret'
        'rm:Remove secrets'
        'ls:List secrets of a project'
        'unlock:Check a project password'
        'status:Show vault or project status'
        'passwd:Change a project password'
        'diff:Compare a secret with a local file'
        'keyring:Manage passwords in OS keyring'
        'compact:Compact vault to reclaim disk space'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'envseal commands' commands
            ;;
        args)
            case "${words[2]}" in
                set)
                    _arguments '-file[Read value from file]:file:_files' '2:project:_envseal_projects'
                    ;;
                get)
                    _arguments '-out[Write value to file]:file:_files' '2:project:_envseal_projects'
                    ;;
                unlock)
                    _arguments '-save[Save password to keyring]' '2:project:_envseal_projects'
                    ;;
                rm|ls|status|passwd)
                    _arguments '2:project:_envseal_projects'
                    ;;
                diff)
                    _arguments '2:project:_envseal_projects' '4:file:_files'
                    ;;
                project)
                    _values 'subcommand' create delete
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'envseal commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_envseal_projects() {
    local -a projects
    projects=(${(f)"$(envseal projects -q 2>/dev/null)"})
    _describe -t projects 'projects' projects
}

_envseal "$@"
`

const fishCompletion = `# envseal fish completions

set -l commands init project projects set get rm ls unlock status passwd diff keyring compact help completion
set -l with_project set get rm ls unlock status passwd diff

complete -c envseal -f

# Commands
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a vault'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a project -d 'Create or delete a project'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a projects -d 'List projects'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a set -d 'Store a secret'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print or export a secret'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove secrets'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List secrets'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Check a project password'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change project password'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare secret with local file'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage passwords in OS keyring'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c envseal -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Project names
complete -c envseal -n "__fish_seen_subcommand_from $with_project" -a "(envseal projects -q 2>/dev/null)"

# Flags
complete -c envseal -n "__fish_seen_subcommand_from set" -o file -r -F -d 'Read value from file'
complete -c envseal -n "__fish_seen_subcommand_from get" -o out -r -F -d 'Write value to file'
complete -c envseal -n "__fish_seen_subcommand_from unlock" -o save -d 'Save password to keyring'

# Subcommands
complete -c envseal -n "__fish_seen_subcommand_from project" -a "create delete"
complete -c envseal -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c envseal -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c envseal -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
