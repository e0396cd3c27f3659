// Copyright (c) 2026 Lorenzo Cevolani.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/LorenzoCevolani/datajob/internal/meta"
)

const bashCompletionScript = `# bash completion for datajob
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_datajob()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "deploy synthesize synth destroy execute executions describe definition completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local cdk="--config --stage --cdk"
    local aws="--profile --region"
    local common="--color -c --columns --filter -f --output -o --sort -s --titles -t"

    case "$cmd" in
        deploy)
            local opts="$cdk --package"
            ;;
        synthesize|synth)
            local opts="$cdk"
            ;;
        destroy)
            local opts="$cdk $aws --empty --stack"
            ;;
        execute)
            local opts="$aws --state-machine -m --input --name --wait -w --interval"
            ;;
        executions)
            local opts="$aws $common --state-machine -m --max"
            ;;
        describe)
            local opts="$aws $common --config --stage --stack"
            ;;
        definition)
            local opts="$aws --config --stage --workflow --deployed --ignore --color -c"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts=""
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --package)
            COMPREPLY=( $(compgen -W "setuppy poetry" -- "$cur") )
            return 0
            ;;
        --config)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _datajob datajob
`

const zshCompletionScript = `#compdef datajob

_datajob() {
  local -a cmds
  cmds=(
    'deploy:package the project and deploy the stack'
    'synthesize:synthesize the CloudFormation template'
    'synth:synthesize the CloudFormation template'
    'destroy:destroy the stack'
    'execute:start an execution of a deployed workflow'
    'executions:list recent executions of a deployed workflow'
    'describe:show the outputs of a deployed stack'
    'definition:print or diff state machine definitions'
    'completion:generate shell completion script'
  )

  local -a cdk aws common
  cdk=(
  '--config[pipeline yaml or CDK app]:config:_files'
  '--stage[deployment stage]:stage'
  '--cdk[cdk executable]:cdk:_command_names'
  )
  aws=(
  '--profile[AWS profile]:profile'
  '--region[AWS region]:region'
  )
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '--columns[columns to show]:columns'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort columns]:columns'
  '(-t --titles)'{-t,--titles}'[show titles]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'datajob commands' cmds
    return
  fi

  case $words[2] in
    deploy)
      _arguments -C $cdk '--package[build the wheel first]:packager:(setuppy poetry)'
      ;;
    synthesize|synth)
      _arguments -C $cdk
      ;;
    destroy)
      _arguments -C $cdk $aws '--empty[empty the buckets first]' '--stack[stack name]:stack'
      ;;
    execute)
      _arguments -C $aws \
        '(-m --state-machine)'{-m,--state-machine}'[state machine]:name' \
        '--input[execution input]:json' \
        '--name[execution name]:name' \
        '(-w --wait)'{-w,--wait}'[wait for the execution]' \
        '--interval[polling interval]:duration'
      ;;
    executions)
      _arguments -C $aws $common \
        '(-m --state-machine)'{-m,--state-machine}'[state machine]:name' \
        '--max[maximum executions]:max'
      ;;
    describe)
      _arguments -C $aws $common \
        '--config[pipeline yaml]:config:_files' \
        '--stage[deployment stage]:stage' \
        '--stack[stack name]:stack'
      ;;
    definition)
      _arguments -C $aws \
        '--config[pipeline yaml]:config:_files' \
        '--stage[deployment stage]:stage' \
        '--workflow[workflow]:workflow' \
        '--deployed[diff against the deployed definition]' \
        '--ignore[keys left out of the diff]:keys' \
        '(-c --color)'{-c,--color}'[enable colored diff]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _datajob datajob
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}

	w := stdout(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	case "":
		// Try to detect from SHELL or print usage.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(w, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(w, bashCompletionScript)
		default:
			fmt.Fprintln(stderr(cmd), "usage: datajob completion [bash|zsh]")
		}
	default:
		return fmt.Errorf("unsupported shell %q, want bash or zsh", shell)
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "datajob completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
