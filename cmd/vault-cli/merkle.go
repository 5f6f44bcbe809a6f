package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"reservevault/crypto"
	"reservevault/native/distributor"
)

// merkleEntry is one line of an epoch distribution file. JSON and YAML lists
// are both accepted.
type merkleEntry struct {
	Identity   string `yaml:"identity" json:"identity"`
	Cumulative string `yaml:"cumulative" json:"cumulative"`
}

type merkleClaim struct {
	Identity   string   `json:"identity"`
	Cumulative string   `json:"cumulative"`
	Proof      []string `json:"proof"`
}

type merkleOutput struct {
	Epoch  uint64        `json:"epoch,omitempty"`
	Root   string        `json:"root"`
	Claims []merkleClaim `json:"claims"`
}

func runMerkle(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("merkle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input string
		epoch uint64
	)
	fs.StringVar(&input, "input", "", "distribution file listing identity and cumulative amounts")
	fs.Uint64Var(&epoch, "epoch", 0, "epoch id echoed in the output")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(input) == "" {
		return fail(stderr, errors.New("--input is required"))
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		return fail(stderr, err)
	}
	out, err := buildDistribution(raw)
	if err != nil {
		return fail(stderr, err)
	}
	out.Epoch = epoch
	return writeJSON(stdout, out)
}

func buildDistribution(raw []byte) (*merkleOutput, error) {
	var listed []merkleEntry
	if err := yaml.Unmarshal(raw, &listed); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}
	if len(listed) == 0 {
		return nil, errors.New("distribution is empty")
	}
	entries := make([]distributor.Entry, 0, len(listed))
	seen := make(map[[20]byte]struct{}, len(listed))
	for i, item := range listed {
		identity, err := crypto.ParseIdentity(item.Identity)
		if err != nil {
			return nil, fmt.Errorf("entry %d identity: %w", i, err)
		}
		if _, dup := seen[identity]; dup {
			return nil, fmt.Errorf("entry %d: duplicate identity %s", i, item.Identity)
		}
		seen[identity] = struct{}{}
		cumulative, err := uint256.FromDecimal(strings.TrimSpace(item.Cumulative))
		if err != nil {
			return nil, fmt.Errorf("entry %d cumulative: %w", i, err)
		}
		entries = append(entries, distributor.Entry{Identity: identity, Cumulative: cumulative})
	}
	tree, err := distributor.BuildTree(entries)
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	out := &merkleOutput{Root: hexutil.Encode(root[:]), Claims: make([]merkleClaim, 0, len(entries))}
	for _, entry := range entries {
		proof, ok := tree.Proof(entry.Identity, entry.Cumulative)
		if !ok {
			return nil, fmt.Errorf("no proof for %s", crypto.HexIdentity(entry.Identity))
		}
		nodes := make([]string, len(proof))
		for i, node := range proof {
			nodes[i] = hexutil.Encode(node[:])
		}
		out.Claims = append(out.Claims, merkleClaim{
			Identity:   crypto.HexIdentity(entry.Identity),
			Cumulative: entry.Cumulative.Dec(),
			Proof:      nodes,
		})
	}
	return out, nil
}
