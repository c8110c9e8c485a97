package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all available commands. The name is matched
// against the first argument given.
//
// A command function receives stdin, stdout and the arguments that follow
// the command name, which it parses with the flag package. Every command
// that touches state opens the data directory, does one thing and closes
// it again, so commands compose in shell scripts.
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"balance":    cmdBalance,
	"claim":      cmdClaim,
	"claimable":  cmdClaimable,
	"create":     cmdCreate,
	"deposit":    cmdDeposit,
	"distribute": cmdDistribute,
	"holders":    cmdHolders,
	"init":       cmdInit,
	"keygen":     cmdKeygen,
	"relations":  cmdRelations,
	"set-fee":    cmdSetFee,
	"sweep-fee":  cmdSweepFee,
	"transfer":   cmdTransfer,
	"version":    cmdVersion,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s manages revenue sharing agreements.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
