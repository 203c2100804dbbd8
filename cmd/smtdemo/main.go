// Command smtdemo builds a sparse merkle tree from a fixture, prints its
// root, and verifies a multi-leaf inclusion proof over it. It is
// demonstration/integration glue, not part of the core (spec §1).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	smt "github.com/smtgo/sparsemerkletree"
	"github.com/smtgo/sparsemerkletree/internal/fixture"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a YAML fixture (defaults to the built-in quick-brown-fox fixture)")
	proveKeyHex := flag.String("prove", "", "print an inclusion/non-inclusion proof for this hex key")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().
		Timestamp().Str("run_id", uuid.NewString()).Logger()

	if err := run(log, *fixturePath, *proveKeyHex); err != nil {
		log.Error().Err(err).Msg("smtdemo failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, fixturePath, proveKeyHex string) error {
	entries := fixture.QuickBrownFox()
	if fixturePath != "" {
		loaded, err := fixture.Load(fixturePath)
		if err != nil {
			return err
		}
		entries = loaded
	}

	registry := prometheus.NewRegistry()
	store := smt.NewInstrumentedStore[smt.H256Value](smt.NewMapStore[smt.H256Value](), registry)
	tree := smt.New[smt.H256Value](smt.ZeroH256, store, smt.NewBlake2bHasher, func() smt.H256Value { return smt.ZeroH256Value }).
		WithLogger(log)

	keys := make([]smt.H256, len(entries))
	for i, e := range entries {
		if _, err := tree.Update(e.Key, smt.H256Value(e.Value)); err != nil {
			return err
		}
		keys[i] = e.Key
	}

	root := tree.Root()
	log.Info().Str("root", root.String()).Int("entries", len(entries)).Msg("built tree")

	proof, err := tree.MerkleProof(keys)
	if err != nil {
		return err
	}
	leaves := make([]smt.Leaf, len(entries))
	for i, e := range entries {
		leaves[i] = smt.Leaf{Key: e.Key, Value: e.Value}
	}
	ok, err := proof.Verify(smt.NewBlake2bHasher, root, leaves)
	if err != nil {
		return err
	}
	fmt.Printf("root: %s\n", root)
	fmt.Printf("multi-leaf proof over %d keys verifies: %v\n", len(keys), ok)

	compiled, err := proof.Compile(leaves)
	if err != nil {
		return err
	}
	fmt.Printf("compiled proof: %d bytes\n", len(compiled))

	if proveKeyHex != "" {
		key, err := smt.H256FromHex(proveKeyHex)
		if err != nil {
			return fmt.Errorf("bad -prove key: %w", err)
		}
		value, err := tree.Get(key)
		if err != nil {
			return err
		}
		single, err := tree.MerkleProof([]smt.H256{key})
		if err != nil {
			return err
		}
		ok, err := single.Verify(smt.NewBlake2bHasher, root, []smt.Leaf{{Key: key, Value: smt.H256(value)}})
		if err != nil {
			return err
		}
		kind := "inclusion"
		if smt.H256(value).IsZero() {
			kind = "non-inclusion"
		}
		fmt.Printf("%s proof for %s verifies: %v\n", kind, key, ok)
	}

	return nil
}
