package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:], stdout, stderr)
	case "sign-consumption":
		return runSign(signConsumption, args[1:], stdout, stderr)
	case "sign-royalty":
		return runSign(signRoyalty, args[1:], stdout, stderr)
	case "merkle":
		return runMerkle(args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "export-audit":
		return runExportAudit(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return `Usage: vault-cli <command> [flags]

Commands:
  keygen            create a signer keystore and print its identity
  sign-consumption  sign a cumulative consumption update
  sign-royalty      sign a cumulative royalty allocation
  merkle            build an epoch distribution root and per-claimant proofs
  token             issue an API bearer token for an identity
  export-audit      export audit journal records to a parquet file`
}

func writeJSON(w io.Writer, v interface{}) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return 1
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
