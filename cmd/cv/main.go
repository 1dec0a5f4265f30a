/*
cv is the conclave CLI: a persisted orchestrator for multi-role
deliberation chains driven by an external LLM agent.

The agent performs discrete units of work called roles; cv tracks which
role runs next, which roles run in parallel, when the run is done, and
when it must be forcibly terminated. A watchdog entry point, invoked at
every agent turn boundary, keeps sessions live even when the agent forgets
to continue.

Usage:

	cv <command> [arguments]

Common commands:

	cv start <task>     Start a deliberation chain
	cv complete <role>  Report a role's result
	cv status           Show session progress
	cv tick             Watchdog turn-boundary check
	cv reset            Destroy the session state

See 'cv help <command>' for more information on a specific command.
*/
package main

import (
	"os"

	"github.com/deeklead/conclave/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
